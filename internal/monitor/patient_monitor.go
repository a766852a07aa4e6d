package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"vitalwatch-client/internal/fallback"
	"vitalwatch-client/internal/models"
	"vitalwatch-client/internal/view"

	"go.uber.org/zap"
)

// Phase 患者监护状态阶段
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

var (
	// ErrSummaryInFlight 已有一次摘要生成在进行中（UI 据此禁用重复触发）
	ErrSummaryInFlight = errors.New("summary generation already in progress")
	// ErrNotReady 监护器尚未就绪（加载中或终态错误）
	ErrNotReady = errors.New("patient monitor is not ready")
)

// SummaryFailureText 摘要生成失败时的固定用户提示
// 失败时用错误标记的摘要整体替换当前摘要，而不是沉默地保留旧摘要
const SummaryFailureText = "Failed to generate summary. Please try again later."

// Options 单患者监护配置
type Options struct {
	AlertPollInterval time.Duration // 报警轮询间隔
	HistoryHours      int           // 初始加载的历史时长（小时）
	WindowSize        int           // 趋势序列滑动窗口长度
	SummaryAlertLimit int           // 触发摘要时携带的最近报警数量
}

// PatientState 对外暴露的患者监护状态（深拷贝，调用方可随意持有）
type PatientState struct {
	PatientID       string                          `json:"patient_id"`
	Phase           Phase                           `json:"phase"`
	LoadError       string                          `json:"load_error,omitempty"`
	Patient         *models.Patient                 `json:"patient,omitempty"`
	Alerts          []models.Alert                  `json:"alerts"`
	Series          map[string][]models.VitalSample `json:"series,omitempty"`
	Summary         *models.Summary                 `json:"summary,omitempty"`
	SummaryInFlight bool                            `json:"summary_in_flight"`
	ModelInfo       *models.ModelInfo               `json:"model_info,omitempty"`
	UpdatedAt       time.Time                       `json:"updated_at"`
}

// 更新类型（轮询、推送、摘要完成都汇入同一个串行队列）
type updateKind int

const (
	updateAlerts updateKind = iota
	updateFragment
	updateSummaryResult
)

type patientUpdate struct {
	kind     updateKind
	alerts   []models.Alert
	fragment models.VitalSnapshot
	summary  *models.Summary
	seq      uint64
}

// PatientMonitor 单患者同步引擎
// 四个独立更新来源（初始加载、报警轮询、体征推送、触发式摘要）
// 全部汇入同一个串行更新队列，保证快照对读取方永远不是半写状态
type PatientMonitor struct {
	patientID  string
	opts       Options
	patients   PatientAPI
	alertsAPI  AlertsAPI
	summarizer SummarizerAPI
	fallback   *fallback.Supplier
	publisher  SnapshotPublisher
	recorder   AlertRecorder
	logger     *zap.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	updates   chan patientUpdate
	wg        sync.WaitGroup
	closeOnce sync.Once

	mu              sync.RWMutex
	phase           Phase
	loadErr         error
	patient         *models.Patient
	alerts          []models.Alert
	series          map[string]*models.VitalSeries
	summary         *models.Summary
	summaryInFlight bool
	summarySeq      uint64
	modelInfo       *models.ModelInfo
	stream          VitalSubscription
	updatedAt       time.Time
}

// NewPatientMonitor 创建单患者监护器
// publisher 和 recorder 可以为 nil（对应功能关闭）
func NewPatientMonitor(
	patientID string,
	opts Options,
	patients PatientAPI,
	alerts AlertsAPI,
	summarizer SummarizerAPI,
	fb *fallback.Supplier,
	publisher SnapshotPublisher,
	recorder AlertRecorder,
	logger *zap.Logger,
) *PatientMonitor {
	if opts.AlertPollInterval <= 0 {
		opts.AlertPollInterval = 10 * time.Second
	}
	if opts.HistoryHours <= 0 {
		opts.HistoryHours = 8
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = 20
	}
	if opts.SummaryAlertLimit <= 0 {
		opts.SummaryAlertLimit = 5
	}
	return &PatientMonitor{
		patientID:  patientID,
		opts:       opts,
		patients:   patients,
		alertsAPI:  alerts,
		summarizer: summarizer,
		fallback:   fb,
		publisher:  publisher,
		recorder:   recorder,
		logger:     logger.With(zap.String("patient_id", patientID)),
		updates:    make(chan patientUpdate, 32),
		phase:      PhaseLoading,
		series:     make(map[string]*models.VitalSeries),
	}
}

// Start 启动监护（初始加载在后台进行，期间 State() 返回 loading）
func (m *PatientMonitor) Start(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go m.run()
}

// run 初始加载 + 串行更新循环
// 初始加载在更新循环启动之前完成，轮询/推送不可能与它交错
func (m *PatientMonitor) run() {
	defer m.wg.Done()

	if !m.initialLoad() {
		return
	}

	m.wg.Add(1)
	go m.pollLoop()
	m.wg.Add(1)
	go m.streamLoop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case u := <-m.updates:
			m.apply(u)
		}
	}
}

// initialLoad 初始加载
// 患者记录本身取不到 → 终态错误（身份数据未知，不是离线，不做降级）
// 报警 / 体征历史 / 模型信息各自独立失败、独立降级（按类别降级策略）
func (m *PatientMonitor) initialLoad() bool {
	patient, err := m.patients.GetPatient(m.ctx, m.patientID)
	if err != nil {
		if m.ctx.Err() != nil {
			return false
		}
		m.logger.Error("Failed to load patient record", zap.Error(err))
		m.mu.Lock()
		m.phase = PhaseError
		m.loadErr = err
		m.updatedAt = time.Now()
		m.mu.Unlock()
		m.publish()
		return false
	}

	alerts, err := m.alertsAPI.GetAlerts(m.ctx, m.patientID)
	if err != nil {
		m.logger.Warn("Failed to load alerts, using fallback data", zap.Error(err))
		alerts = m.fallback.Alerts(m.patientID)
	} else {
		m.record(alerts)
	}

	history, err := m.patients.GetVitalsHistory(m.ctx, m.patientID, m.opts.HistoryHours)
	if err != nil {
		m.logger.Warn("Failed to load vitals history, using fallback data", zap.Error(err))
		history = m.fallback.VitalsHistory(m.patientID)
	}
	series := make(map[string]*models.VitalSeries, len(history))
	for channel, samples := range history {
		series[channel] = models.NewVitalSeriesFrom(m.opts.WindowSize, samples)
	}

	// 模型信息是机会性刷新，取不到不降级
	modelInfo, err := m.summarizer.GetModelInfo(m.ctx)
	if err != nil {
		m.logger.Debug("Model info unavailable", zap.Error(err))
		modelInfo = nil
	}

	stream, err := m.patients.SubscribeVitals(m.ctx, m.patientID)
	if err != nil {
		// 推送不可用时只靠轮询，订阅失败不影响加载
		m.logger.Warn("Failed to open vitals stream", zap.Error(err))
		stream = nil
	}

	patient.Severity = view.WorstSeverity(alerts)

	m.mu.Lock()
	m.phase = PhaseReady
	m.patient = patient
	m.alerts = alerts
	m.series = series
	m.modelInfo = modelInfo
	m.stream = stream
	m.updatedAt = time.Now()
	m.mu.Unlock()

	m.logger.Info("Patient monitor ready",
		zap.Int("alerts", len(alerts)),
		zap.Int("channels", len(series)),
		zap.Bool("streaming", stream != nil),
	)
	m.publish()
	return true
}

// pollLoop 报警轮询循环
// 每次把整组报警替换进状态；失败只记录日志，等下一个周期重试
func (m *PatientMonitor) pollLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.opts.AlertPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			alerts, err := m.alertsAPI.GetAlerts(m.ctx, m.patientID)
			if err != nil {
				if m.ctx.Err() == nil {
					m.logger.Warn("Alert poll failed, will retry next tick", zap.Error(err))
				}
				continue
			}
			m.send(patientUpdate{kind: updateAlerts, alerts: alerts})
		}
	}
}

// streamLoop 体征推送循环（按到达顺序汇入串行队列）
func (m *PatientMonitor) streamLoop() {
	defer m.wg.Done()

	m.mu.RLock()
	stream := m.stream
	m.mu.RUnlock()
	if stream == nil {
		return
	}

	for fragment := range stream.Fragments() {
		m.send(patientUpdate{kind: updateFragment, fragment: fragment})
	}
	if err := stream.Err(); err != nil && m.ctx.Err() == nil {
		m.logger.Warn("Vitals stream closed unexpectedly", zap.Error(err))
	}
}

// apply 串行应用一次更新
func (m *PatientMonitor) apply(u patientUpdate) {
	m.mu.Lock()
	switch u.kind {
	case updateAlerts:
		// 整组替换：报警 ID 在轮询之间不保证稳定，不做逐条合并
		m.alerts = u.alerts
		if m.patient != nil {
			m.patient.Severity = view.WorstSeverity(u.alerts)
		}
		m.updatedAt = time.Now()
		m.mu.Unlock()
		m.record(u.alerts)
		m.publish()
		return

	case updateFragment:
		if m.patient == nil {
			m.mu.Unlock()
			return
		}
		// 只合并推送中存在的字段；每个被更新的通道追加一个采样点并淘汰最旧的
		updated := m.patient.Vitals.Merge(u.fragment)
		now := time.Now()
		for _, channel := range updated {
			value, ok := m.patient.Vitals.ChannelValue(channel)
			if !ok {
				continue
			}
			series, exists := m.series[channel]
			if !exists {
				series = models.NewVitalSeries(m.opts.WindowSize)
				m.series[channel] = series
			}
			series.Append(models.VitalSample{Timestamp: now, Value: value})
		}
		m.updatedAt = now

	case updateSummaryResult:
		// 过期保护：触发后监护器的序号变过，结果直接丢弃
		if u.seq != m.summarySeq {
			m.mu.Unlock()
			return
		}
		m.summaryInFlight = false
		m.summary = u.summary
		m.updatedAt = time.Now()
	}
	m.mu.Unlock()
	m.publish()
}

// TriggerSummary 触发一次摘要生成（长耗时操作）
// 进行中重复触发返回 ErrSummaryInFlight；完成后整体替换当前摘要，
// 失败时替换为带错误标记的固定提示
func (m *PatientMonitor) TriggerSummary() error {
	m.mu.Lock()
	if m.phase != PhaseReady {
		m.mu.Unlock()
		return ErrNotReady
	}
	if m.summaryInFlight {
		m.mu.Unlock()
		return ErrSummaryInFlight
	}
	m.summaryInFlight = true
	m.summarySeq++
	seq := m.summarySeq

	limit := m.opts.SummaryAlertLimit
	if limit > len(m.alerts) {
		limit = len(m.alerts)
	}
	contextAlerts := make([]models.Alert, limit)
	copy(contextAlerts, m.alerts[:limit])
	m.mu.Unlock()

	// 不加入 wg：在途的摘要请求允许跑完，关闭后结果经 send 的 ctx 保护被丢弃
	go func() {
		summary, err := m.summarizer.TriggerSummary(m.ctx, m.patientID, contextAlerts)
		if err != nil {
			if m.ctx.Err() == nil {
				m.logger.Warn("Summary generation failed", zap.Error(err))
			}
			summary = &models.Summary{
				PatientID:   m.patientID,
				Text:        SummaryFailureText,
				Timestamp:   time.Now().Format(time.RFC3339),
				AlertsCount: len(contextAlerts),
				Error:       true,
			}
		}
		m.send(patientUpdate{kind: updateSummaryResult, summary: summary, seq: seq})
	}()
	return nil
}

// State 当前监护状态（深拷贝）
func (m *PatientMonitor) State() PatientState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state := PatientState{
		PatientID:       m.patientID,
		Phase:           m.phase,
		SummaryInFlight: m.summaryInFlight,
		UpdatedAt:       m.updatedAt,
	}
	if m.loadErr != nil {
		state.LoadError = m.loadErr.Error()
	}
	if m.patient != nil {
		patient := *m.patient
		patient.Vitals = m.patient.Vitals.Clone()
		state.Patient = &patient
	}
	state.Alerts = make([]models.Alert, len(m.alerts))
	copy(state.Alerts, m.alerts)
	if len(m.series) > 0 {
		state.Series = make(map[string][]models.VitalSample, len(m.series))
		for channel, series := range m.series {
			state.Series[channel] = series.Samples()
		}
	}
	if m.summary != nil {
		summary := *m.summary
		state.Summary = &summary
	}
	if m.modelInfo != nil {
		info := *m.modelInfo
		state.ModelInfo = &info
	}
	return state
}

// PatientID 监护的患者 ID
func (m *PatientMonitor) PatientID() string {
	return m.patientID
}

// Close 停止监护（幂等）
// 确定性拆除：停轮询、关推送订阅、停更新循环；在途摘要结果被丢弃
func (m *PatientMonitor) Close() {
	m.closeOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		m.mu.RLock()
		stream := m.stream
		m.mu.RUnlock()
		if stream != nil {
			stream.Close()
		}
		m.wg.Wait()
		m.logger.Info("Patient monitor closed")
	})
}

// send 把更新送入串行队列（监护器关闭后丢弃）
func (m *PatientMonitor) send(u patientUpdate) {
	select {
	case m.updates <- u:
	case <-m.ctx.Done():
	}
}

// publish 把当前状态写入快照缓存（未配置时跳过，失败只记录日志）
func (m *PatientMonitor) publish() {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.PublishSnapshot(m.ctx, m.patientID, m.State()); err != nil && m.ctx.Err() == nil {
		m.logger.Warn("Failed to publish snapshot cache", zap.Error(err))
	}
}

// record 异步落盘报警历史（未配置时跳过，失败只记录日志）
func (m *PatientMonitor) record(alerts []models.Alert) {
	if m.recorder == nil || len(alerts) == 0 {
		return
	}
	recorded := make([]models.Alert, len(alerts))
	copy(recorded, alerts)
	go func() {
		if _, err := m.recorder.RecordAlerts(m.ctx, recorded); err != nil && m.ctx.Err() == nil {
			m.logger.Warn("Failed to record alert history", zap.Error(err))
		}
	}()
}
