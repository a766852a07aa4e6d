package monitor

import (
	"context"

	"vitalwatch-client/internal/models"
	"vitalwatch-client/internal/transport"
)

// VitalSubscription 体征推送订阅句柄（单元测试中可替换）
type VitalSubscription interface {
	Fragments() <-chan models.VitalSnapshot
	Err() error
	Close() error
}

// PatientAPI 单患者数据接口
type PatientAPI interface {
	GetPatient(ctx context.Context, patientID string) (*models.Patient, error)
	GetVitalsHistory(ctx context.Context, patientID string, hours int) (map[string][]models.VitalSample, error)
	SubscribeVitals(ctx context.Context, patientID string) (VitalSubscription, error)
}

// RosterAPI 患者名单接口
type RosterAPI interface {
	ListPatients(ctx context.Context) ([]models.Patient, error)
}

// AlertsAPI 报警接口
type AlertsAPI interface {
	GetAlerts(ctx context.Context, patientID string) ([]models.Alert, error)
}

// SummarizerAPI 摘要接口
type SummarizerAPI interface {
	TriggerSummary(ctx context.Context, patientID string, alerts []models.Alert) (*models.Summary, error)
	GetModelInfo(ctx context.Context) (*models.ModelInfo, error)
}

// SnapshotPublisher 快照缓存发布接口（可选，nil 表示不发布）
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, patientID string, state interface{}) error
}

// AlertRecorder 报警历史落盘接口（可选，nil 表示不落盘）
type AlertRecorder interface {
	RecordAlerts(ctx context.Context, alerts []models.Alert) (int, error)
}

// vitalsClientAdapter 把 transport.VitalsClient 适配为 PatientAPI
// （SubscribeVitals 的具体返回类型需要包一层接口）
type vitalsClientAdapter struct {
	*transport.VitalsClient
}

// NewPatientAPI 用传输层客户端构建 PatientAPI
func NewPatientAPI(vitals *transport.VitalsClient) PatientAPI {
	return vitalsClientAdapter{vitals}
}

func (a vitalsClientAdapter) SubscribeVitals(ctx context.Context, patientID string) (VitalSubscription, error) {
	stream, err := a.VitalsClient.SubscribeVitals(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return stream, nil
}
