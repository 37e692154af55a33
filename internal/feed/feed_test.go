package feed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guardiancare/internal/config"
	"guardiancare/internal/models"
	"guardiancare/internal/service"
)

const healthCSV = `Device-ID/User-ID,Timestamp,Heart Rate,Heart Rate Below/Above Threshold (Yes/No),Blood Pressure,Blood Pressure Below/Above Threshold (Yes/No),Glucose Levels,Glucose Levels Below/Above Threshold (Yes/No),Oxygen Saturation (SpO₂%),SpO₂ Below Threshold (Yes/No)
D1001,2025-01-22 14:30:00,116,Yes,120/80 mmHg,No,110,No,97,No
D1002,2025-01-22 14:35:00,,  ,140/95 mmHg,Yes,,,95,No
`

const safetyCSV = `Device-ID/User-ID,Timestamp,Movement Activity,Fall Detected (Yes/No),Impact Force Level,Post-Fall Inactivity Duration (Seconds),Location,Alert Triggered (Yes/No)
D1001,2025-01-22 15:00:00,Walking,No,-,0,Kitchen,No
D1001,2025-01-22 15:05:00,No Movement,Yes,High,400,Bathroom,Yes
`

const reminderCSV = `Device-ID/User-ID,Timestamp,Reminder Type,Scheduled Time,Reminder Sent (Yes/No),Acknowledged (Yes/No)
D1001,2025-01-22 08:00:00,Medication,23:59:59,No,No
D1001,2025-01-22 09:00:00,Exercise,23:59:00,No,No
`

func TestLoadVitals(t *testing.T) {
	vitals, err := LoadVitals(strings.NewReader(healthCSV))
	require.NoError(t, err)

	// 第一行：心率 + 血压两条 + 血糖 + 血氧，第二行：血压两条 + 血氧
	require.Len(t, vitals, 8)

	hr := vitals[0]
	assert.Equal(t, "D1001", hr.DeviceID)
	assert.Equal(t, models.MetricHeartRate, hr.Metric)
	assert.Equal(t, 116.0, hr.Value)
	require.NotNil(t, hr.ThresholdExceeded)
	assert.True(t, *hr.ThresholdExceeded)
	assert.Equal(t, time.Date(2025, 1, 22, 14, 30, 0, 0, time.UTC), hr.Timestamp)

	// "120/80 mmHg" 拆成收缩压和舒张压
	assert.Equal(t, models.MetricSystolicBP, vitals[1].Metric)
	assert.Equal(t, 120.0, vitals[1].Value)
	assert.Equal(t, models.MetricDiastolicBP, vitals[2].Metric)
	assert.Equal(t, 80.0, vitals[2].Value)
	require.NotNil(t, vitals[1].ThresholdExceeded)
	assert.False(t, *vitals[1].ThresholdExceeded)

	assert.Equal(t, models.MetricGlucose, vitals[3].Metric)
	assert.Equal(t, models.MetricOxygenLevel, vitals[4].Metric)

	// 第二行缺心率和血糖
	assert.Equal(t, "D1002", vitals[5].DeviceID)
	assert.Equal(t, models.MetricSystolicBP, vitals[5].Metric)
	assert.Equal(t, 140.0, vitals[5].Value)
	require.NotNil(t, vitals[5].ThresholdExceeded)
	assert.True(t, *vitals[5].ThresholdExceeded)
}

func TestLoadMotionEvents(t *testing.T) {
	events, err := LoadMotionEvents(strings.NewReader(safetyCSV))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "Walking", events[0].Activity)
	assert.False(t, events[0].FallDetected)

	fall := events[1]
	assert.Equal(t, models.ActivityNoMovement, fall.Activity)
	assert.True(t, fall.FallDetected)
	assert.Equal(t, models.ImpactHigh, fall.ImpactForce)
	assert.Equal(t, 400, fall.InactivityDuration)
	assert.Equal(t, "Bathroom", fall.Location)
}

func TestLoadReminders(t *testing.T) {
	reminders, err := LoadReminders(strings.NewReader(reminderCSV))
	require.NoError(t, err)
	require.Len(t, reminders, 2)

	assert.Equal(t, models.ReminderMedication, reminders[0].Kind)
	assert.Equal(t, "23:59:59", reminders[0].ScheduledTime)
	assert.False(t, reminders[0].Sent)
	assert.Equal(t, models.ReminderExercise, reminders[1].Kind)
}

func TestLoadVitals_BadHeader(t *testing.T) {
	_, err := LoadVitals(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReplayer_EndToEnd(t *testing.T) {
	cfg := &config.Config{}
	cfg.Care.TickInterval = 1
	cfg.Care.MedicationOverdueMinutes = 15
	care := service.NewCareService(cfg, zap.NewNop())
	rp := NewReplayer(care, zap.NewNop())
	ctx := context.Background()

	readings, alerts, err := rp.ReplayVitals(ctx, strings.NewReader(healthCSV))
	require.NoError(t, err)
	assert.Equal(t, 8, readings)
	// D1001 心率标记超限 + D1002 血压标记超限两条
	assert.Equal(t, 3, alerts)

	events, alerts, err := rp.ReplayMotionEvents(ctx, strings.NewReader(safetyCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, events)
	assert.Equal(t, 1, alerts)
	assert.True(t, care.EmergencyMode())

	count, err := rp.ReplayReminders(strings.NewReader(reminderCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, care.GetUpcomingReminders(48*time.Hour), 2)
}

func TestReplayer_ReplayDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, vitalsFileName), []byte(healthCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, remindersFileName), []byte(reminderCSV), 0o644))
	// safety_monitoring.csv 缺失，应被跳过

	cfg := &config.Config{}
	cfg.Care.TickInterval = 1
	cfg.Care.MedicationOverdueMinutes = 15
	care := service.NewCareService(cfg, zap.NewNop())
	rp := NewReplayer(care, zap.NewNop())

	require.NoError(t, rp.ReplayDir(context.Background(), dir))

	assert.Len(t, care.GetRecentAlerts(0), 3)
	assert.Len(t, care.GetUpcomingReminders(48*time.Hour), 2)
	assert.Empty(t, care.GetFallIncidents())
}

func TestReplayer_ReplayDir_BadDataset(t *testing.T) {
	dir := t.TempDir()
	// 空文件连表头都读不到
	require.NoError(t, os.WriteFile(filepath.Join(dir, vitalsFileName), nil, 0o644))

	cfg := &config.Config{}
	cfg.Care.TickInterval = 1
	care := service.NewCareService(cfg, zap.NewNop())
	rp := NewReplayer(care, zap.NewNop())

	err := rp.ReplayDir(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), vitalsFileName)
}
