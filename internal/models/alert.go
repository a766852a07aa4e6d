package models

// Severity 报警级别（与 alert-engine 保持一致）
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeverityNormal   Severity = "normal"
)

// Alert 医疗报警（接收后不可变；每次轮询整组替换，不做逐条合并）
type Alert struct {
	ID           string   `json:"id"`
	PatientID    string   `json:"patient_id"`
	Type         string   `json:"type"`
	Message      string   `json:"message"`
	Severity     Severity `json:"severity"`
	VitalType    string   `json:"vital_type,omitempty"`
	VitalValue   float64  `json:"vital_value,omitempty"`
	Threshold    float64  `json:"threshold,omitempty"`
	Timestamp    string   `json:"timestamp"`
	Acknowledged bool     `json:"acknowledged"`
}
