package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"guardiancare/internal/config"
	"guardiancare/internal/models"
)

// Manager Redis 缓存管理器（状态快照与近期报警的读缓存）
type Manager struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewManager 创建缓存管理器
func NewManager(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

// UpdateStatus 写入设备状态快照（无 TTL，由下一次快照覆盖）
func (c *Manager) UpdateStatus(ctx context.Context, deviceID string, snapshot models.StatusSnapshot) error {
	key := fmt.Sprintf("%s%s%s",
		c.config.Care.Cache.StatusKeyPrefix,
		deviceID,
		c.config.Care.Cache.StatusSuffix,
	)

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal status snapshot: %w", err)
	}

	if err := c.redisClient.Set(ctx, key, jsonData, 0).Err(); err != nil {
		return fmt.Errorf("failed to set status cache: %w", err)
	}

	return nil
}

// GetStatus 读取设备状态快照
func (c *Manager) GetStatus(ctx context.Context, deviceID string) (*models.StatusSnapshot, error) {
	key := fmt.Sprintf("%s%s%s",
		c.config.Care.Cache.StatusKeyPrefix,
		deviceID,
		c.config.Care.Cache.StatusSuffix,
	)

	val, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("status not found for device: %s", deviceID)
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var snapshot models.StatusSnapshot
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status snapshot: %w", err)
	}

	return &snapshot, nil
}

// UpdateAlerts 更新设备近期报警缓存（带 TTL）
func (c *Manager) UpdateAlerts(ctx context.Context, deviceID string, alerts []models.Alert) error {
	key := fmt.Sprintf("%s%s%s",
		c.config.Care.Cache.AlertKeyPrefix,
		deviceID,
		c.config.Care.Cache.AlertSuffix,
	)

	jsonData, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("failed to marshal alert data: %w", err)
	}

	err = c.redisClient.Set(
		ctx,
		key,
		jsonData,
		time.Duration(c.config.Care.Cache.AlertTTL)*time.Second,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to set alert cache: %w", err)
	}

	c.logger.Debug("Updated alert cache",
		zap.String("device_id", deviceID),
		zap.String("key", key),
		zap.Int("alert_count", len(alerts)),
	)

	return nil
}

// GetAlerts 读取设备近期报警缓存，缓存未命中返回 nil
func (c *Manager) GetAlerts(ctx context.Context, deviceID string) ([]models.Alert, error) {
	key := fmt.Sprintf("%s%s%s",
		c.config.Care.Cache.AlertKeyPrefix,
		deviceID,
		c.config.Care.Cache.AlertSuffix,
	)

	val, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var alerts []models.Alert
	if err := json.Unmarshal([]byte(val), &alerts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert data: %w", err)
	}

	return alerts, nil
}
