package monitor

import (
	"context"
	"sync"
	"time"

	"vitalwatch-client/internal/fallback"
	"vitalwatch-client/internal/models"
	"vitalwatch-client/internal/view"

	"go.uber.org/zap"
)

// RosterMonitor 患者名单监护
// 定期整组替换名单并全量重算级别聚合统计
// 名单只有一个数据类别，拉取失败时整体替换为固定的合成名单
type RosterMonitor struct {
	roster   RosterAPI
	fallback *fallback.Supplier
	interval time.Duration
	logger   *zap.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	mu        sync.RWMutex
	patients  []models.Patient
	stats     view.Stats
	updatedAt time.Time
}

// NewRosterMonitor 创建名单监护
func NewRosterMonitor(roster RosterAPI, fb *fallback.Supplier, interval time.Duration, logger *zap.Logger) *RosterMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &RosterMonitor{
		roster:   roster,
		fallback: fb,
		interval: interval,
		logger:   logger,
	}
}

// Start 启动名单监护（先立即刷新一次，再按周期轮询）
func (r *RosterMonitor) Start(ctx context.Context) {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.run()
}

func (r *RosterMonitor) run() {
	defer r.wg.Done()

	r.refresh()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.refresh()
		}
	}
}

// refresh 拉取名单并整组替换，随后全量重算聚合统计
func (r *RosterMonitor) refresh() {
	patients, err := r.roster.ListPatients(r.ctx)
	if err != nil {
		if r.ctx.Err() != nil {
			return
		}
		r.logger.Warn("Failed to fetch patient roster, using fallback data", zap.Error(err))
		patients = r.fallback.Patients()
	}

	stats := view.ComputeStats(patients)

	r.mu.Lock()
	r.patients = patients
	r.stats = stats
	r.updatedAt = time.Now()
	r.mu.Unlock()

	r.logger.Debug("Roster refreshed",
		zap.Int("total", stats.Total),
		zap.Int("critical", stats.Critical),
		zap.Int("warning", stats.Warning),
		zap.Int("stable", stats.Stable),
	)
}

// Patients 当前名单（副本）
func (r *RosterMonitor) Patients() []models.Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Patient, len(r.patients))
	copy(out, r.patients)
	return out
}

// Stats 当前聚合统计
func (r *RosterMonitor) Stats() view.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// UpdatedAt 最近一次刷新时间
func (r *RosterMonitor) UpdatedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updatedAt
}

// Close 停止名单监护（幂等）
func (r *RosterMonitor) Close() {
	r.closeOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		r.wg.Wait()
		r.logger.Info("Roster monitor closed")
	})
}
