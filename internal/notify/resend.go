package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"github.com/hitoshi/skillsync/internal/model"
)

// ResendNotifier はResend APIを使用したNotifierの実装。
// APIキーが未設定の場合は送信をスキップしログのみ出力する（開発環境向け）。
type ResendNotifier struct {
	client    *resend.Client
	fromEmail string
}

// NewResendNotifier はResendNotifierを生成する。
// apiKeyが空文字列の場合、送信は行わずログ出力のみのモードになる。
func NewResendNotifier(apiKey, fromEmail string) *ResendNotifier {
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	}
	return &ResendNotifier{
		client:    client,
		fromEmail: fromEmail,
	}
}

// send は1通のメールを送信する。
func (n *ResendNotifier) send(_ context.Context, to []string, subject, body string) error {
	if n.client == nil {
		slog.Info("email sending skipped (no API key)",
			slog.Any("to", to),
			slog.String("subject", subject),
		)
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    n.fromEmail,
		To:      to,
		Subject: subject,
		Text:    body,
	}
	sent, err := n.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("email sent",
		slog.String("email_id", sent.Id),
		slog.String("subject", subject),
	)
	return nil
}

// SwapRequested は新しいスワップリクエストを受信者に通知する。
func (n *ResendNotifier) SwapRequested(ctx context.Context, receiverEmail string, req *model.SwapRequest) error {
	return n.send(ctx, []string{receiverEmail}, swapRequestedSubject, formatSwapRequestedBody(req))
}

// SwapStatusChanged はステータス変更を相手側の当事者に通知する。
func (n *ResendNotifier) SwapStatusChanged(ctx context.Context, email string, req *model.SwapRequest) error {
	subject, ok := statusSubjects[req.Status]
	if !ok {
		return fmt.Errorf("no notification subject for status: %s", req.Status)
	}
	return n.send(ctx, []string{email}, subject, formatStatusChangedBody(req))
}

// FeedbackReceived は新しいフィードバック受信を宛先ユーザーに通知する。
func (n *ResendNotifier) FeedbackReceived(ctx context.Context, email string, fb *model.Feedback) error {
	return n.send(ctx, []string{email}, feedbackReceivedSubject, formatFeedbackReceivedBody(fb))
}

// Broadcast は管理者からのお知らせを複数ユーザーに送信する。
// 宛先リストが空の場合は何もしない。
func (n *ResendNotifier) Broadcast(ctx context.Context, emails []string, subject, body string) error {
	if len(emails) == 0 {
		return nil
	}
	return n.send(ctx, emails, subject, body)
}

// compile-time interface check
var _ Notifier = (*ResendNotifier)(nil)
