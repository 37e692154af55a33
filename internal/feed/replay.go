package feed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"guardiancare/internal/service"
)

// 数据集目录中的约定文件名
const (
	vitalsFileName    = "health_monitoring.csv"
	motionFileName    = "safety_monitoring.csv"
	remindersFileName = "daily_reminder.csv"
)

// Replayer 把数据集按行回放进监护服务（演示与冒烟验证用）
type Replayer struct {
	care   *service.CareService
	logger *zap.Logger
}

// NewReplayer 创建数据集回放器
func NewReplayer(care *service.CareService, logger *zap.Logger) *Replayer {
	return &Replayer{
		care:   care,
		logger: logger,
	}
}

// ReplayVitals 回放健康监测数据集，返回提交读数与产生报警的数量
func (rp *Replayer) ReplayVitals(ctx context.Context, reader io.Reader) (int, int, error) {
	vitals, err := LoadVitals(reader)
	if err != nil {
		return 0, 0, err
	}

	alertCount := 0
	for _, v := range vitals {
		alertCount += len(rp.care.SubmitVital(ctx, v))
	}

	rp.logger.Info("Vitals dataset replayed",
		zap.Int("readings", len(vitals)),
		zap.Int("alerts", alertCount))

	return len(vitals), alertCount, nil
}

// ReplayMotionEvents 回放安全监测数据集
func (rp *Replayer) ReplayMotionEvents(ctx context.Context, reader io.Reader) (int, int, error) {
	events, err := LoadMotionEvents(reader)
	if err != nil {
		return 0, 0, err
	}

	alertCount := 0
	for _, m := range events {
		alertCount += len(rp.care.SubmitMotionEvent(ctx, m))
	}

	rp.logger.Info("Motion dataset replayed",
		zap.Int("events", len(events)),
		zap.Int("alerts", alertCount))

	return len(events), alertCount, nil
}

// ReplayReminders 把数据集中的提醒登记到调度器
func (rp *Replayer) ReplayReminders(reader io.Reader) (int, error) {
	reminders, err := LoadReminders(reader)
	if err != nil {
		return 0, err
	}

	for _, r := range reminders {
		rp.care.ScheduleReminder(r)
	}

	rp.logger.Info("Reminder dataset replayed",
		zap.Int("reminders", len(reminders)))

	return len(reminders), nil
}

// ReplayDir 回放目录下约定命名的数据集文件，缺失的文件跳过
func (rp *Replayer) ReplayDir(ctx context.Context, dir string) error {
	if err := rp.replayFile(dir, vitalsFileName, func(f io.Reader) error {
		_, _, err := rp.ReplayVitals(ctx, f)
		return err
	}); err != nil {
		return err
	}

	if err := rp.replayFile(dir, motionFileName, func(f io.Reader) error {
		_, _, err := rp.ReplayMotionEvents(ctx, f)
		return err
	}); err != nil {
		return err
	}

	return rp.replayFile(dir, remindersFileName, func(f io.Reader) error {
		_, err := rp.ReplayReminders(f)
		return err
	})
}

func (rp *Replayer) replayFile(dir, name string, replay func(io.Reader) error) error {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		rp.logger.Info("Dataset file not found, skipped", zap.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	if err := replay(f); err != nil {
		return fmt.Errorf("replay dataset %s: %w", path, err)
	}
	return nil
}
