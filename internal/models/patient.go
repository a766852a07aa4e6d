package models

// Patient 住院患者基础信息 + 当前体征快照
// 身份以 ID 为准；Vitals 原地替换或合并，Severity 由当前报警集合推导
type Patient struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Bed           string        `json:"bed"`
	Age           int           `json:"age"`
	Gender        string        `json:"gender"`
	AdmissionDate string        `json:"admission_date"`
	Diagnosis     string        `json:"diagnosis"`
	Vitals        VitalSnapshot `json:"vitals"`
	Severity      Severity      `json:"severity"`
}

// User 已认证用户身份（来自 auth-service）
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}
