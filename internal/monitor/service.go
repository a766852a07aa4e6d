package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"vitalwatch-client/internal/fallback"
	"vitalwatch-client/internal/session"
	"vitalwatch-client/internal/view"

	"go.uber.org/zap"
)

// ErrLoginRequired 会话无效时进入受保护的监护界面
var ErrLoginRequired = errors.New("login required")

// ServiceOptions 监护协调器配置
type ServiceOptions struct {
	Patient            Options       // 单患者监护配置
	RosterPollInterval time.Duration // 名单轮询间隔
}

// Service 监护协调器
// 持有名单监护和所有在看的单患者监护；会话失效时统一拆除并跳转登录
type Service struct {
	opts       ServiceOptions
	patients   PatientAPI
	rosterAPI  RosterAPI
	alertsAPI  AlertsAPI
	summarizer SummarizerAPI
	fallback   *fallback.Supplier
	publisher  SnapshotPublisher
	recorder   AlertRecorder
	session    *session.Store
	navigator  view.Navigator
	logger     *zap.Logger

	ctx    context.Context
	roster *RosterMonitor

	mu       sync.Mutex
	monitors map[string]*PatientMonitor
	location string
	started  bool
}

// NewService 创建监护协调器
func NewService(
	opts ServiceOptions,
	patients PatientAPI,
	roster RosterAPI,
	alerts AlertsAPI,
	summarizer SummarizerAPI,
	fb *fallback.Supplier,
	publisher SnapshotPublisher,
	recorder AlertRecorder,
	sess *session.Store,
	navigator view.Navigator,
	logger *zap.Logger,
) *Service {
	s := &Service{
		opts:       opts,
		patients:   patients,
		rosterAPI:  roster,
		alertsAPI:  alerts,
		summarizer: summarizer,
		fallback:   fb,
		publisher:  publisher,
		recorder:   recorder,
		session:    sess,
		navigator:  navigator,
		logger:     logger,
		monitors:   make(map[string]*PatientMonitor),
		location:   "/dashboard",
	}
	// 会话有效性从 true 变 false 时拆除全部监护并跳转登录
	sess.OnInvalidate(s.handleInvalidated)
	return s
}

// Start 启动协调器（等待会话恢复完成后进入）
// 会话无效时立即跳转登录，保留请求位置供登录后返回
func (s *Service) Start(ctx context.Context) error {
	<-s.session.Restored()
	if !s.session.IsValid() {
		s.navigator.RedirectToLogin(s.currentLocation())
		return ErrLoginRequired
	}

	s.mu.Lock()
	s.ctx = ctx
	s.started = true
	s.mu.Unlock()

	s.roster = NewRosterMonitor(s.rosterAPI, s.fallback, s.opts.RosterPollInterval, s.logger)
	s.roster.Start(ctx)
	s.logger.Info("Monitor service started")
	return nil
}

// OpenPatient 进入单患者监护（同一患者重复打开返回既有监护器）
func (s *Service) OpenPatient(patientID string) (*PatientMonitor, error) {
	location := "/patients/" + patientID
	if !s.session.IsValid() {
		s.navigator.RedirectToLogin(location)
		return nil, ErrLoginRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil, errors.New("monitor service not started")
	}
	s.location = location

	if m, ok := s.monitors[patientID]; ok {
		return m, nil
	}

	m := NewPatientMonitor(
		patientID,
		s.opts.Patient,
		s.patients,
		s.alertsAPI,
		s.summarizer,
		s.fallback,
		s.publisher,
		s.recorder,
		s.logger,
	)
	m.Start(s.ctx)
	s.monitors[patientID] = m
	return m, nil
}

// ClosePatient 离开单患者监护（关闭推送订阅与轮询）
func (s *Service) ClosePatient(patientID string) {
	s.mu.Lock()
	m, ok := s.monitors[patientID]
	if ok {
		delete(s.monitors, patientID)
	}
	s.location = "/dashboard"
	s.mu.Unlock()
	if ok {
		m.Close()
	}
}

// Roster 名单监护
func (s *Service) Roster() *RosterMonitor {
	return s.roster
}

// CloseAll 拆除全部监护
func (s *Service) CloseAll() {
	s.mu.Lock()
	monitors := s.monitors
	s.monitors = make(map[string]*PatientMonitor)
	s.mu.Unlock()

	for _, m := range monitors {
		m.Close()
	}
	if s.roster != nil {
		s.roster.Close()
	}
}

// handleInvalidated 会话失效回调
func (s *Service) handleInvalidated() {
	s.logger.Info("Session invalidated, tearing down monitors")
	s.CloseAll()
	s.navigator.RedirectToLogin(s.currentLocation())
}

func (s *Service) currentLocation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}
