package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Publisher 快照缓存发布器
// 同步引擎每次应用更新后，把该患者聚合后的状态写入 Redis（带短 TTL），
// 供同机看板读取，不必重复访问后端
type Publisher struct {
	kv             KVStore
	keyPrefix      string
	snapshotSuffix string
	ttl            time.Duration
	logger         *zap.Logger
}

// NewPublisher 创建快照缓存发布器
func NewPublisher(kv KVStore, keyPrefix, snapshotSuffix string, ttl time.Duration, logger *zap.Logger) *Publisher {
	return &Publisher{
		kv:             kv,
		keyPrefix:      keyPrefix,
		snapshotSuffix: snapshotSuffix,
		ttl:            ttl,
		logger:         logger,
	}
}

// SnapshotKey 构建快照缓存键，如 "vital-watch:patient:P001:snapshot"
func (p *Publisher) SnapshotKey(patientID string) string {
	return p.keyPrefix + patientID + p.snapshotSuffix
}

// PublishSnapshot 写入患者快照缓存
// 失败只记录日志由调用方决定是否忽略（缓存不可用不影响监护）
func (p *Publisher) PublishSnapshot(ctx context.Context, patientID string, state interface{}) error {
	jsonData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal patient snapshot: %w", err)
	}

	key := p.SnapshotKey(patientID)
	if err := p.kv.Set(ctx, key, string(jsonData), p.ttl); err != nil {
		return fmt.Errorf("failed to set snapshot cache: %w", err)
	}

	p.logger.Debug("Published patient snapshot",
		zap.String("patient_id", patientID),
		zap.String("key", key),
	)
	return nil
}
