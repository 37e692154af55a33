package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guardiancare/internal/bus"
	"guardiancare/internal/evaluator"
	"guardiancare/internal/models"
	"guardiancare/internal/scheduler"
)

// sink 记录投递到它的所有消息，测试用
type sink struct {
	id  string
	got []models.Envelope
}

func (s *sink) ID() string                    { return s.id }
func (s *sink) Name() string                  { return "Test Sink" }
func (s *sink) OnMessage(env models.Envelope) { s.got = append(s.got, env) }

func TestHealthAgent_BroadcastsAlertsOverBus(t *testing.T) {
	logger := zap.NewNop()
	b := bus.New(logger)
	ha := NewHealthAgent(b, evaluator.NewHealthEvaluator(logger), logger)
	coord := &sink{id: CoordinatorAgentID}
	b.Connect(ha, coord)

	b.Send("sensor", ha.ID(), models.VitalReading{Vital: models.Vital{
		DeviceID: "dev-1",
		Metric:   models.MetricHeartRate,
		Value:    150,
	}})
	// 发送方未接入总线，消息不会到达
	assert.Empty(t, coord.got)

	ha.OnMessage(models.Envelope{SenderID: "feed", Message: models.VitalReading{Vital: models.Vital{
		DeviceID: "dev-1",
		Metric:   models.MetricHeartRate,
		Value:    150,
	}}})

	require.Len(t, coord.got, 1)
	am, ok := coord.got[0].Message.(models.AlertMessage)
	require.True(t, ok)
	assert.Equal(t, models.SourceHealth, am.Alert.Source)
	assert.Equal(t, HealthAgentID, coord.got[0].SenderID)
}

func TestSafetyAgent_BroadcastsSingleAlert(t *testing.T) {
	logger := zap.NewNop()
	b := bus.New(logger)
	sa := NewSafetyAgent(b, evaluator.NewSafetyEvaluator(logger), logger)
	coord := &sink{id: CoordinatorAgentID}
	b.Connect(sa, coord)

	sa.OnMessage(models.Envelope{SenderID: "feed", Message: models.MotionReading{Motion: models.MotionEvent{
		DeviceID:           "dev-2",
		Activity:           models.ActivityNoMovement,
		FallDetected:       true,
		ImpactForce:        models.ImpactHigh,
		InactivityDuration: 400,
		Location:           "Bathroom",
	}}})

	require.Len(t, coord.got, 1)
	am := coord.got[0].Message.(models.AlertMessage)
	assert.Equal(t, models.SourceSafety, am.Alert.Source)
	assert.Equal(t, models.SeverityHigh, am.Alert.Severity)
	require.Len(t, sa.FallIncidents(), 1)
}

func TestReminderAgent_TickBroadcastsTriggered(t *testing.T) {
	logger := zap.NewNop()
	b := bus.New(logger)
	ra := NewReminderAgent(b, scheduler.New(logger), 15*time.Minute, logger)
	coord := &sink{id: CoordinatorAgentID}
	b.Connect(ra, coord)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	r := ra.Schedule(models.Reminder{
		DeviceID: "dev-3",
		Kind:     models.ReminderMedication,
		DueAt:    now.Add(-time.Second),
	})

	triggered := ra.Tick(now)
	require.Len(t, triggered, 1)
	require.Len(t, coord.got, 1)

	rm, ok := coord.got[0].Message.(models.ReminderMessage)
	require.True(t, ok)
	assert.Equal(t, r.ID, rm.Reminder.ID)
	assert.Equal(t, models.ReminderTriggered, rm.Reminder.State)

	// 再次 Tick 不会重复广播
	assert.Empty(t, ra.Tick(now))
	assert.Len(t, coord.got, 1)
}

func TestReminderAgent_MissedMedicationEscalation(t *testing.T) {
	logger := zap.NewNop()
	b := bus.New(logger)
	ra := NewReminderAgent(b, scheduler.New(logger), 15*time.Minute, logger)
	coord := &sink{id: CoordinatorAgentID}
	b.Connect(ra, coord)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ra.Schedule(models.Reminder{
		DeviceID: "dev-3",
		Kind:     models.ReminderMedication,
		DueAt:    now,
	})

	ra.Tick(now)
	coord.got = nil

	// 超时窗口内不升级
	ra.Tick(now.Add(10 * time.Minute))
	assert.Empty(t, coord.got)

	ra.Tick(now.Add(16 * time.Minute))
	require.Len(t, coord.got, 1)
	am, ok := coord.got[0].Message.(models.AlertMessage)
	require.True(t, ok)
	assert.Equal(t, models.SourceMedication, am.Alert.Source)
	assert.Equal(t, "medication_adherence", am.Alert.Metric)
	assert.Equal(t, models.SeverityMedium, am.Alert.Severity)

	// 每条提醒只升级一次
	ra.Tick(now.Add(30 * time.Minute))
	assert.Len(t, coord.got, 1)
}

func TestReminderAgent_AckViaBusMessage(t *testing.T) {
	logger := zap.NewNop()
	b := bus.New(logger)
	ra := NewReminderAgent(b, scheduler.New(logger), 15*time.Minute, logger)
	coord := &sink{id: CoordinatorAgentID}
	b.Connect(ra, coord)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	r := ra.Schedule(models.Reminder{Kind: models.ReminderMedication, DueAt: now})
	ra.Tick(now)

	ra.OnMessage(models.Envelope{SenderID: CoordinatorAgentID, Message: models.AckMessage{ReminderID: r.ID}})

	// 已确认的提醒不再升级
	coord.got = nil
	ra.Tick(now.Add(time.Hour))
	assert.Empty(t, coord.got)
}
