package transport

import (
	"context"
	"time"

	"vitalwatch-client/internal/models"

	"go.uber.org/zap"
)

// SummarizerClient 摘要服务客户端
// 模型推理较慢，使用独立的长超时（默认 120 秒）
type SummarizerClient struct {
	*client
}

// NewSummarizerClient 创建摘要服务客户端
func NewSummarizerClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *zap.Logger) *SummarizerClient {
	return &SummarizerClient{
		client: newClient(baseURL, timeout, tokens, logger),
	}
}

// triggerSummaryRequest 触发摘要请求体
type triggerSummaryRequest struct {
	PatientID string         `json:"patient_id"`
	Alerts    []models.Alert `json:"alerts,omitempty"`
}

// TriggerSummary 触发一次摘要生成（长耗时操作）
// alerts 为最近的报警上下文（由调用方截取数量）
func (c *SummarizerClient) TriggerSummary(ctx context.Context, patientID string, alerts []models.Alert) (*models.Summary, error) {
	req := triggerSummaryRequest{
		PatientID: patientID,
		Alerts:    alerts,
	}
	var summary models.Summary
	if err := c.postJSON(ctx, "/api/model/trigger-summary", req, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetModelInfo 获取摘要模型的描述信息
func (c *SummarizerClient) GetModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	var info models.ModelInfo
	if err := c.getJSON(ctx, "/api/model/info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Health 探测服务存活状态
func (c *SummarizerClient) Health(ctx context.Context) (string, error) {
	return c.health(ctx)
}
