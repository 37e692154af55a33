package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guardiancare/internal/agent"
	"guardiancare/internal/config"
	"guardiancare/internal/metrics"
	"guardiancare/internal/models"
	"guardiancare/internal/scheduler"
)

func newTestService() *CareService {
	cfg := &config.Config{}
	cfg.Care.TickInterval = 1
	cfg.Care.MedicationOverdueMinutes = 15
	return NewCareService(cfg, zap.NewNop())
}

func TestCareService_SubmitVital_FlowsToCoordinator(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	alerts := s.SubmitVital(ctx, models.Vital{
		DeviceID: "dev-1",
		Metric:   models.MetricHeartRate,
		Value:    150,
	})

	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Message, "High heart rate detected")

	// 报警经总线到达协调器，但健康类措辞不触发紧急状态
	recent := s.GetRecentAlerts(0)
	require.Len(t, recent, 1)
	assert.False(t, s.EmergencyMode())
}

func TestCareService_NormalVitalProducesNoAlert(t *testing.T) {
	s := newTestService()

	alerts := s.SubmitVital(context.Background(), models.Vital{
		DeviceID: "dev-1",
		Metric:   models.MetricHeartRate,
		Value:    72,
	})

	assert.Empty(t, alerts)
	assert.Empty(t, s.GetRecentAlerts(0))
}

func TestCareService_CriticalFallSetsEmergency(t *testing.T) {
	s := newTestService()

	alerts := s.SubmitMotionEvent(context.Background(), models.MotionEvent{
		DeviceID:           "dev-2",
		Activity:           models.ActivityNoMovement,
		FallDetected:       true,
		ImpactForce:        models.ImpactHigh,
		InactivityDuration: 400,
		Location:           "Bathroom",
	})

	require.Len(t, alerts, 1)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
	assert.True(t, s.EmergencyMode())

	require.Len(t, s.GetFallIncidents(), 1)

	s.ResetEmergency()
	assert.False(t, s.EmergencyMode())
}

func TestCareService_ReminderLifecycle(t *testing.T) {
	s := newTestService()

	r := s.ScheduleReminder(models.Reminder{
		DeviceID:      "dev-1",
		Kind:          models.ReminderMedication,
		ScheduledTime: "23:59:59",
	})
	require.NotEmpty(t, r.ID)
	assert.Equal(t, models.ReminderPending, r.State)

	upcoming := s.GetUpcomingReminders(48 * time.Hour)
	require.Len(t, upcoming, 1)
	assert.Equal(t, r.ID, upcoming[0].ID)

	// 未触发的提醒不能确认
	err := s.Acknowledge(r.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, scheduler.ErrNotFound)
}

func TestCareService_Thresholds(t *testing.T) {
	s := newTestService()

	require.NoError(t, s.UpdateThreshold(models.MetricHeartRate, 120))
	assert.Equal(t, 120.0, s.Thresholds()[models.MetricHeartRate])

	// 未知阈值键报错
	err := s.ApplyThresholdOverrides(map[string]float64{"bogus": 1})
	assert.Error(t, err)

	require.NoError(t, s.ApplyThresholdOverrides(map[string]float64{
		models.MetricHeartRate: 110,
		"oxygen_level":         90,
	}))
	assert.Equal(t, 110.0, s.Thresholds()[models.MetricHeartRate])

	// 新阈值立即生效
	alerts := s.SubmitVital(context.Background(), models.Vital{
		Metric: models.MetricHeartRate,
		Value:  115,
	})
	require.Len(t, alerts, 1)
}

func TestCareService_GetStatus(t *testing.T) {
	s := newTestService()

	s.SubmitVital(context.Background(), models.Vital{
		Metric: models.MetricHeartRate,
		Value:  150,
	})

	snap := s.GetStatus()
	assert.False(t, snap.EmergencyMode)
	assert.Len(t, snap.RecentAlerts, 1)
	assert.Contains(t, snap.Participants, "coordinator")
	assert.Contains(t, snap.Participants, "health")
}

func TestCareService_StartStop(t *testing.T) {
	s := newTestService()

	s.Start(context.Background())
	// 重复 Start 不会再起一个循环
	s.Start(context.Background())

	s.Stop()
	// 重复 Stop 不会阻塞
	s.Stop()
}

func TestCareService_ReadingsRouteThroughBus(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	// 入口参与者已注册且与健康 Agent 相连
	assert.Contains(t, s.bus.Participants(), GatewayID)
	ok := s.bus.Send(GatewayID, agent.HealthAgentID, models.VitalReading{
		Vital: models.Vital{Metric: models.MetricHeartRate, Value: 72},
	})
	assert.True(t, ok)

	// SubmitVital 经总线投递，返回的报警与协调器记录的是同一条
	alerts := s.SubmitVital(ctx, models.Vital{
		DeviceID: "dev-1",
		Metric:   models.MetricHeartRate,
		Value:    150,
	})
	require.Len(t, alerts, 1)
	recent := s.GetRecentAlerts(0)
	require.Len(t, recent, 1)
	assert.Equal(t, recent[0].AlertID, alerts[0].AlertID)

	// 运动事件同样经总线投递给安全 Agent
	alerts = s.SubmitMotionEvent(ctx, models.MotionEvent{
		DeviceID:           "dev-2",
		Activity:           models.ActivityNoMovement,
		FallDetected:       true,
		ImpactForce:        models.ImpactHigh,
		InactivityDuration: 400,
		Location:           "Bedroom",
	})
	require.Len(t, alerts, 1)
	assert.Len(t, s.GetRecentAlerts(0), 2)
}

type failingNotifier struct{}

func (failingNotifier) NotifyAlert(ctx context.Context, alert models.Alert) error {
	return errors.New("downstream unavailable")
}

func TestCareService_NotifierFailureIncrementsCounter(t *testing.T) {
	s := newTestService()
	s.RegisterNotifier("test-channel", failingNotifier{})

	counter := metrics.NotifyFailures.WithLabelValues("test-channel")
	before := testutil.ToFloat64(counter)

	alerts := s.SubmitVital(context.Background(), models.Vital{
		DeviceID: "dev-1",
		Metric:   models.MetricHeartRate,
		Value:    150,
	})
	require.Len(t, alerts, 1)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
