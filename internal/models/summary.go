package models

// Summary AI 生成的临床摘要
// 每个患者同一时刻只有一份当前摘要；生成失败时用 Error=true 的记录整体替换
type Summary struct {
	PatientID        string `json:"patient_id,omitempty"`
	Text             string `json:"text"`
	Timestamp        string `json:"timestamp"`
	AlertsCount      int    `json:"alerts_count"`
	Error            bool   `json:"error"`
	ModelName        string `json:"model_name,omitempty"`
	ProcessingTimeMS int    `json:"processing_time_ms,omitempty"`
}

// ModelInfo 摘要模型的只读描述信息（机会性刷新）
type ModelInfo struct {
	Name        string  `json:"name"`
	Version     string  `json:"version"`
	FullName    string  `json:"full_name,omitempty"`
	Type        string  `json:"type,omitempty"`
	Description string  `json:"description,omitempty"`
	Loaded      bool    `json:"loaded"`
	LastUpdated string  `json:"lastUpdated"`
	Accuracy    float64 `json:"accuracy,omitempty"`
}
