package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vitalwatch-client/internal/models"

	"go.uber.org/zap"
)

// AlertHistoryRepository 报警历史仓库
// 报警在客户端是整组替换的短生命周期数据，这里把每次轮询新出现的报警
// 落盘到 PostgreSQL 供审计与回溯（可选功能，写入失败不影响监护）
type AlertHistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlertHistoryRepository 创建报警历史仓库
func NewAlertHistoryRepository(db *sql.DB, logger *zap.Logger) *AlertHistoryRepository {
	return &AlertHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// RecordAlerts 记录一批报警，按 alert_id 去重（重复轮询到的报警不重复落盘）
// 返回本次新写入的条数
func (r *AlertHistoryRepository) RecordAlerts(ctx context.Context, alerts []models.Alert) (int, error) {
	if len(alerts) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO alert_history (
			alert_id,
			patient_id,
			alert_type,
			message,
			severity,
			vital_type,
			vital_value,
			threshold,
			triggered_at,
			recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (alert_id) DO NOTHING`

	recordedAt := time.Now()
	inserted := 0
	for _, alert := range alerts {
		result, err := r.db.ExecContext(ctx, query,
			alert.ID,
			alert.PatientID,
			alert.Type,
			alert.Message,
			string(alert.Severity),
			alert.VitalType,
			alert.VitalValue,
			alert.Threshold,
			alert.Timestamp,
			recordedAt,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert alert %s: %w", alert.ID, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	r.logger.Debug("Recorded alert history",
		zap.Int("received", len(alerts)),
		zap.Int("inserted", inserted),
	)
	return inserted, nil
}

// GetRecentAlerts 按患者读取最近记录的报警（triggered_at 倒序）
func (r *AlertHistoryRepository) GetRecentAlerts(ctx context.Context, patientID string, limit int) ([]models.Alert, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT
			alert_id,
			patient_id,
			alert_type,
			message,
			severity,
			vital_type,
			vital_value,
			threshold,
			triggered_at
		FROM alert_history
		WHERE patient_id = $1
		ORDER BY triggered_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert history: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var alert models.Alert
		var severity string
		if err := rows.Scan(
			&alert.ID,
			&alert.PatientID,
			&alert.Type,
			&alert.Message,
			&severity,
			&alert.VitalType,
			&alert.VitalValue,
			&alert.Threshold,
			&alert.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert history row: %w", err)
		}
		alert.Severity = models.Severity(severity)
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert history rows: %w", err)
	}
	return alerts, nil
}
