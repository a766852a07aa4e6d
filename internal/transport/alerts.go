package transport

import (
	"context"
	"time"

	"vitalwatch-client/internal/models"

	"go.uber.org/zap"
)

// AlertsClient 报警服务客户端
type AlertsClient struct {
	*client
}

// NewAlertsClient 创建报警服务客户端
func NewAlertsClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *zap.Logger) *AlertsClient {
	return &AlertsClient{
		client: newClient(baseURL, timeout, tokens, logger),
	}
}

// GetAlerts 获取患者的当前报警集合
// 报警 ID 在轮询之间不保证稳定，调用方应整组替换而不是逐条合并
func (c *AlertsClient) GetAlerts(ctx context.Context, patientID string) ([]models.Alert, error) {
	var alerts []models.Alert
	if err := c.getJSON(ctx, "/api/alerts/"+patientID, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// Health 探测服务存活状态
func (c *AlertsClient) Health(ctx context.Context) (string, error) {
	return c.health(ctx)
}
