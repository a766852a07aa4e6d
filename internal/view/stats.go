package view

import "vitalwatch-client/internal/models"

// severityRank 报警级别的固定全序：critical > warning > info > normal
var severityRank = map[models.Severity]int{
	models.SeverityCritical: 3,
	models.SeverityWarning:  2,
	models.SeverityInfo:     1,
	models.SeverityNormal:   0,
}

// SeverityRank 返回级别在全序中的位置（未知级别视为 normal）
func SeverityRank(s models.Severity) int {
	return severityRank[s]
}

// WorstSeverity 当前报警集合中的最差级别（空集合为 normal）
func WorstSeverity(alerts []models.Alert) models.Severity {
	worst := models.SeverityNormal
	for _, alert := range alerts {
		if severityRank[alert.Severity] > severityRank[worst] {
			worst = alert.Severity
		}
	}
	return worst
}

// Stats 患者名单的级别聚合统计
// info 与 normal 合并计入 Stable
type Stats struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Stable   int `json:"stable"`
	Total    int `json:"total"`
}

// ComputeStats 从当前名单整体重算聚合统计
// 每次更新都全量重算（纯函数），从不做增量调整，避免计数漂移
func ComputeStats(patients []models.Patient) Stats {
	stats := Stats{Total: len(patients)}
	for _, patient := range patients {
		switch patient.Severity {
		case models.SeverityCritical:
			stats.Critical++
		case models.SeverityWarning:
			stats.Warning++
		default:
			stats.Stable++
		}
	}
	return stats
}
