package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guardiancare/internal/models"
)

func setupMockAlertsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *AlertsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewAlertsRepository(db, logger)

	return db, mock, repo
}

// ============================================
// 报警事件测试
// ============================================

func TestSaveAlert_Success(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	ctx := context.Background()
	alert := models.Alert{
		AlertID:   uuid.New().String(),
		Source:    models.SourceHealth,
		Metric:    models.MetricHeartRate,
		Value:     150,
		Threshold: 100,
		Message:   "High heart rate detected: 150 BPM",
		Severity:  models.SeverityMedium,
		Timestamp: time.Now(),
	}

	mock.ExpectExec(`INSERT INTO alerts`).
		WithArgs(alert.AlertID, alert.Source, alert.Metric, alert.Value,
			alert.Threshold, alert.Message, alert.Severity, alert.Timestamp).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SaveAlert(ctx, alert)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveAlert_MissingID(t *testing.T) {
	db, _, repo := setupMockAlertsDB(t)
	defer db.Close()

	err := repo.SaveAlert(context.Background(), models.Alert{})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "alert_id is required")
}

func TestGetAlert_Success(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	ctx := context.Background()
	alertID := uuid.New().String()
	ts := time.Now()

	rows := sqlmock.NewRows([]string{
		"alert_id", "source", "metric", "value", "threshold",
		"message", "severity", "timestamp",
	}).AddRow(
		alertID, "safety", "fall", 0.0, 0.0,
		"FALL DETECTED: Medium impact force with 60 seconds of inactivity!", "medium", ts,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs(alertID).
		WillReturnRows(rows)

	alert, err := repo.GetAlert(ctx, alertID)

	require.NoError(t, err)
	assert.NotNil(t, alert)
	assert.Equal(t, alertID, alert.AlertID)
	assert.Equal(t, models.SourceSafety, alert.Source)
	assert.Equal(t, models.SeverityMedium, alert.Severity)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAlert_NotFound(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	alertID := uuid.New().String()

	mock.ExpectQuery(`SELECT`).
		WithArgs(alertID).
		WillReturnError(sql.ErrNoRows)

	alert, err := repo.GetAlert(context.Background(), alertID)

	assert.Error(t, err)
	assert.Nil(t, alert)
	assert.Contains(t, err.Error(), "not found")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAlerts_WithFilters(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	ctx := context.Background()
	source := models.SourceHealth
	severity := models.SeverityHigh
	ts := time.Now()

	rows := sqlmock.NewRows([]string{
		"alert_id", "source", "metric", "value", "threshold",
		"message", "severity", "timestamp",
	}).AddRow(
		uuid.New().String(), "health", "blood_glucose", 60.0, 70.0,
		"Low blood glucose detected: 60 mg/dL", "high", ts,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs(source, severity, 10).
		WillReturnRows(rows)

	alerts, err := repo.ListAlerts(ctx, AlertFilters{Source: &source, Severity: &severity}, 10)

	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.MetricGlucose, alerts[0].Metric)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAlerts_Empty(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"alert_id", "source", "metric", "value", "threshold",
		"message", "severity", "timestamp",
	})

	mock.ExpectQuery(`SELECT`).
		WithArgs(100).
		WillReturnRows(rows)

	alerts, err := repo.ListAlerts(context.Background(), AlertFilters{}, 0)

	require.NoError(t, err)
	assert.Empty(t, alerts)

	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 跌倒事件测试
// ============================================

func TestSaveFallIncident_Success(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	incident := models.FallIncident{
		Timestamp:          time.Now(),
		ImpactForce:        models.ImpactHigh,
		InactivityDuration: 400,
		Location:           "Bathroom",
	}

	mock.ExpectExec(`INSERT INTO fall_incidents`).
		WithArgs(incident.Timestamp, incident.ImpactForce, incident.InactivityDuration, incident.Location).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SaveFallIncident(context.Background(), incident)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListFallIncidents_Success(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	ts := time.Now()
	rows := sqlmock.NewRows([]string{
		"timestamp", "impact_force", "inactivity_duration_sec", "location",
	}).AddRow(ts, "High", 400, "Bathroom").
		AddRow(ts.Add(-time.Hour), "Low", 30, "Bedroom")

	mock.ExpectQuery(`SELECT`).
		WithArgs(100).
		WillReturnRows(rows)

	incidents, err := repo.ListFallIncidents(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, incidents, 2)
	assert.Equal(t, "Bathroom", incidents[0].Location)
	assert.Equal(t, 400, incidents[0].InactivityDuration)

	require.NoError(t, mock.ExpectationsWereMet())
}
