package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// CollectorはMetricsCollectorインターフェースを満たすことを検証
func TestCollector_ImplementsInterface(t *testing.T) {
	var _ MetricsCollector = (*Collector)(nil)
}

// NewCollectorが全メトリクスをレジストリに登録することを検証
func TestNewCollector_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	if c == nil {
		t.Fatal("expected non-nil collector")
	}

	// 2回目の登録はパニックする（二重登録の検出）
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}

// スワップ関連カウンターの記録を検証
func TestCollector_RecordSwapMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSwapCreated()
	c.RecordSwapCreated()
	c.RecordSwapTransition("accepted")
	c.RecordSwapTransition("accepted")
	c.RecordSwapTransition("rejected")
	c.RecordSwapDeleted()

	if got := testutil.ToFloat64(c.swapCreated); got != 2 {
		t.Errorf("swapCreated = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.swapTransition.WithLabelValues("accepted")); got != 2 {
		t.Errorf("swapTransition{accepted} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.swapTransition.WithLabelValues("rejected")); got != 1 {
		t.Errorf("swapTransition{rejected} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.swapDeleted); got != 1 {
		t.Errorf("swapDeleted = %v, want 1", got)
	}
}

// フィードバックカウンターが評価値ラベル別に記録されることを検証
func TestCollector_RecordFeedbackSubmitted(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFeedbackSubmitted(5)
	c.RecordFeedbackSubmitted(5)
	c.RecordFeedbackSubmitted(1)

	if got := testutil.ToFloat64(c.feedback.WithLabelValues("5")); got != 2 {
		t.Errorf("feedback{5} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.feedback.WithLabelValues("1")); got != 1 {
		t.Errorf("feedback{1} = %v, want 1", got)
	}
}

// HTTPステータスカウンターの記録を検証
func TestCollector_RecordHTTPStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("200")); got != 2 {
		t.Errorf("httpStatus{200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("404")); got != 1 {
		t.Errorf("httpStatus{404} = %v, want 1", got)
	}
}

// セッションクリーンアップカウンターの記録を検証
func TestCollector_RecordSessionsCleaned(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionsCleaned(3)
	c.RecordSessionsCleaned(2)

	if got := testutil.ToFloat64(c.sessionsCleaned); got != 5 {
		t.Errorf("sessionsCleaned = %v, want 5", got)
	}
}

// 再計算レイテンシヒストグラムが記録されることを検証
func TestCollector_RecordRatingRecomputeLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRatingRecomputeLatency(50 * time.Millisecond)

	if got := testutil.CollectAndCount(c.recomputeDelay); got != 1 {
		t.Errorf("recomputeDelay series count = %d, want 1", got)
	}
}

// TestSetupMetricsRoute_ServesMetrics は/metricsパスでメトリクスが返ることを検証する。
func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSwapCreated()

	handler := SetupMetricsRoute(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "skillsync_swap_created_total") {
		t.Error("response should contain skillsync_swap_created_total metric")
	}
}
