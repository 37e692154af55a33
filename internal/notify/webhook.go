package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"guardiancare/internal/models"
)

// WebhookNotifier 通过 HTTP Webhook 推送报警
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookNotifier 创建 Webhook 报警通知器
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookNotifier{
		httpClient: client,
		url:        url,
		logger:     logger,
	}
}

// NotifyAlert POST 报警到配置的 Webhook 地址
func (n *WebhookNotifier) NotifyAlert(ctx context.Context, alert models.Alert) error {
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(alert).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("failed to call webhook: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("webhook returned error: status=%d", resp.StatusCode())
	}

	n.logger.Debug("Alert delivered to webhook",
		zap.String("url", n.url),
		zap.String("alert_id", alert.AlertID),
		zap.Int("status_code", resp.StatusCode()))

	return nil
}
