// Package identity は認証とプロフィール管理のドメインロジックを提供する。
package identity

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// SSRFValidator はURL検証とSSRF防止クライアント生成のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// PhotoFetcherService はプロフィール写真取得のインターフェース。
type PhotoFetcherService interface {
	// FetchPhoto は指定URLから写真を取得する。
	// URLが危険、取得失敗、画像以外、サイズ超過の場合はnilデータと空MIMEを返す。
	FetchPhoto(ctx context.Context, photoURL string) (data []byte, mimeType string, err error)
}

// PhotoFetcher はプロフィール写真取得機能の実装。
type PhotoFetcher struct {
	ssrfGuard SSRFValidator
	timeout   time.Duration
	maxSize   int64
}

// NewPhotoFetcher はPhotoFetcherの新しいインスタンスを生成する。
func NewPhotoFetcher(ssrfGuard SSRFValidator, timeout time.Duration, maxSize int64) *PhotoFetcher {
	return &PhotoFetcher{
		ssrfGuard: ssrfGuard,
		timeout:   timeout,
		maxSize:   maxSize,
	}
}

// FetchPhoto は指定URLからプロフィール写真を取得する。
// 取得失敗時はnilデータと空MIMEを返す（エラーは返さない）。
func (f *PhotoFetcher) FetchPhoto(ctx context.Context, photoURL string) ([]byte, string, error) {
	if photoURL == "" {
		return nil, "", nil
	}

	// SSRF検証
	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateURL(photoURL); err != nil {
			slog.Warn("写真取得: SSRFブロック", "url", photoURL, "error", err)
			return nil, "", nil
		}
	}

	client := f.getHTTPClient()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		slog.Warn("写真取得: リクエスト作成失敗", "url", photoURL, "error", err)
		return nil, "", nil
	}
	req.Header.Set("User-Agent", "SkillSync/1.0")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("写真取得: HTTPリクエスト失敗", "url", photoURL, "error", err)
		return nil, "", nil
	}
	defer resp.Body.Close()

	// 2xx以外は取得失敗として扱う
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("写真取得: HTTPステータス異常", "url", photoURL, "status", resp.StatusCode)
		return nil, "", nil
	}

	// レスポンスボディを読み込み（最大サイズまで）
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		slog.Warn("写真取得: レスポンス読み取り失敗", "url", photoURL, "error", err)
		return nil, "", nil
	}

	// サイズ超過チェック
	if int64(len(body)) > f.maxSize {
		slog.Warn("写真取得: サイズ超過", "url", photoURL, "size", len(body))
		return nil, "", nil
	}

	contentType := resp.Header.Get("Content-Type")
	mimeType := extractMimeType(contentType)

	// 画像でない場合はnilを返す
	if !isImageMime(mimeType) {
		slog.Warn("写真取得: 画像以外のContent-Type", "url", photoURL, "contentType", contentType)
		return nil, "", nil
	}

	return body, mimeType, nil
}

// getHTTPClient はHTTPクライアントを取得する。
func (f *PhotoFetcher) getHTTPClient() *http.Client {
	if f.ssrfGuard != nil {
		return f.ssrfGuard.NewSafeClient(f.timeout)
	}
	return &http.Client{Timeout: f.timeout}
}

// extractMimeType はContent-Typeヘッダーからメディアタイプを抽出する。
func extractMimeType(contentType string) string {
	if contentType == "" {
		return ""
	}
	// セミコロンの前の部分（charset等を除去）
	parts := strings.SplitN(contentType, ";", 2)
	return strings.TrimSpace(strings.ToLower(parts[0]))
}

// isImageMime はMIMEタイプが画像かどうかを判定する。
func isImageMime(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// compile-time interface check
var _ PhotoFetcherService = (*PhotoFetcher)(nil)
