package transport

import (
	"context"
	"fmt"
	"time"

	"vitalwatch-client/internal/models"

	"go.uber.org/zap"
)

// VitalsClient 患者/体征服务客户端
type VitalsClient struct {
	*client
}

// NewVitalsClient 创建患者/体征服务客户端
func NewVitalsClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *zap.Logger) *VitalsClient {
	return &VitalsClient{
		client: newClient(baseURL, timeout, tokens, logger),
	}
}

// ListPatients 获取患者列表
func (c *VitalsClient) ListPatients(ctx context.Context) ([]models.Patient, error) {
	var patients []models.Patient
	if err := c.getJSON(ctx, "/api/patients", &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

// GetPatient 获取单个患者
// 未知患者返回 ErrNotFound（身份数据，不做降级）
func (c *VitalsClient) GetPatient(ctx context.Context, patientID string) (*models.Patient, error) {
	var patient models.Patient
	if err := c.getJSON(ctx, "/api/patients/"+patientID, &patient); err != nil {
		return nil, err
	}
	return &patient, nil
}

// GetVitalsHistory 获取患者体征历史（通道名 → 采样序列）
func (c *VitalsClient) GetVitalsHistory(ctx context.Context, patientID string, hours int) (map[string][]models.VitalSample, error) {
	path := fmt.Sprintf("/api/patients/%s/vitals/history?hours=%d", patientID, hours)
	var history map[string][]models.VitalSample
	if err := c.getJSON(ctx, path, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Health 探测服务存活状态
func (c *VitalsClient) Health(ctx context.Context) (string, error) {
	return c.health(ctx)
}
