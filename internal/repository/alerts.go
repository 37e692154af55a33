package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"guardiancare/internal/models"
)

// AlertsRepository 报警记录仓库
type AlertsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlertsRepository 创建报警记录仓库
func NewAlertsRepository(db *sql.DB, logger *zap.Logger) *AlertsRepository {
	return &AlertsRepository{
		db:     db,
		logger: logger,
	}
}

// AlertFilters 报警查询过滤条件
type AlertFilters struct {
	StartTime *time.Time // 开始时间（timestamp >= StartTime）
	EndTime   *time.Time // 结束时间（timestamp <= EndTime）
	Source    *string    // 报警来源（health / safety / medication）
	Severity  *string    // 报警级别
}

// ============================================
// 报警事件
// ============================================

// SaveAlert 写入一条报警记录
func (r *AlertsRepository) SaveAlert(ctx context.Context, alert models.Alert) error {
	if alert.AlertID == "" {
		return fmt.Errorf("alert_id is required")
	}

	query := `
		INSERT INTO alerts (
			alert_id,
			source,
			metric,
			value,
			threshold,
			message,
			severity,
			timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		alert.AlertID,
		alert.Source,
		alert.Metric,
		alert.Value,
		alert.Threshold,
		alert.Message,
		alert.Severity,
		alert.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}

	r.logger.Debug("Alert persisted",
		zap.String("alert_id", alert.AlertID),
		zap.String("source", alert.Source),
		zap.String("severity", alert.Severity))

	return nil
}

// GetAlert 根据 alert_id 获取单条报警记录
func (r *AlertsRepository) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	if alertID == "" {
		return nil, fmt.Errorf("alert_id is required")
	}

	query := `
		SELECT
			alert_id,
			source,
			metric,
			value,
			threshold,
			message,
			severity,
			timestamp
		FROM alerts
		WHERE alert_id = $1
	`

	var alert models.Alert
	err := r.db.QueryRowContext(ctx, query, alertID).Scan(
		&alert.AlertID,
		&alert.Source,
		&alert.Metric,
		&alert.Value,
		&alert.Threshold,
		&alert.Message,
		&alert.Severity,
		&alert.Timestamp,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("alert not found: alert_id=%s", alertID)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return &alert, nil
}

// ListAlerts 按过滤条件查询报警记录，按时间倒序
func (r *AlertsRepository) ListAlerts(ctx context.Context, filters AlertFilters, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT
			alert_id,
			source,
			metric,
			value,
			threshold,
			message,
			severity,
			timestamp
		FROM alerts
	`

	where, args := buildAlertWhere(filters)
	query += where
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var alert models.Alert
		if err := rows.Scan(
			&alert.AlertID,
			&alert.Source,
			&alert.Metric,
			&alert.Value,
			&alert.Threshold,
			&alert.Message,
			&alert.Severity,
			&alert.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}

func buildAlertWhere(filters AlertFilters) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argN := 1

	if filters.StartTime != nil {
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", argN))
		args = append(args, *filters.StartTime)
		argN++
	}
	if filters.EndTime != nil {
		conditions = append(conditions, fmt.Sprintf("timestamp <= $%d", argN))
		args = append(args, *filters.EndTime)
		argN++
	}
	if filters.Source != nil {
		conditions = append(conditions, fmt.Sprintf("source = $%d", argN))
		args = append(args, *filters.Source)
		argN++
	}
	if filters.Severity != nil {
		conditions = append(conditions, fmt.Sprintf("severity = $%d", argN))
		args = append(args, *filters.Severity)
		argN++
	}

	if len(conditions) == 0 {
		return "", args
	}

	where := " WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}
	return where, args
}

// ============================================
// 跌倒事件
// ============================================

// SaveFallIncident 写入一条跌倒事件记录
func (r *AlertsRepository) SaveFallIncident(ctx context.Context, incident models.FallIncident) error {
	query := `
		INSERT INTO fall_incidents (
			timestamp,
			impact_force,
			inactivity_duration_sec,
			location
		) VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		incident.Timestamp,
		incident.ImpactForce,
		incident.InactivityDuration,
		incident.Location,
	)
	if err != nil {
		return fmt.Errorf("failed to save fall incident: %w", err)
	}

	return nil
}

// ListFallIncidents 查询跌倒事件记录，按时间倒序
func (r *AlertsRepository) ListFallIncidents(ctx context.Context, limit int) ([]models.FallIncident, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT
			timestamp,
			impact_force,
			inactivity_duration_sec,
			location
		FROM fall_incidents
		ORDER BY timestamp DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list fall incidents: %w", err)
	}
	defer rows.Close()

	var incidents []models.FallIncident
	for rows.Next() {
		var incident models.FallIncident
		if err := rows.Scan(
			&incident.Timestamp,
			&incident.ImpactForce,
			&incident.InactivityDuration,
			&incident.Location,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fall incident: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fall incidents: %w", err)
	}

	return incidents, nil
}
