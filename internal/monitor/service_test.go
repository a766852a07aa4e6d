package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"vitalwatch-client/internal/fallback"
	"vitalwatch-client/internal/models"
	"vitalwatch-client/internal/session"
	"vitalwatch-client/internal/transport"
	"vitalwatch-client/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingNavigator 记录跳转请求
type recordingNavigator struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNavigator) RedirectToLogin(from string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, from)
}

func (n *recordingNavigator) redirects() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.calls))
	copy(out, n.calls)
	return out
}

// serviceAuth 极简认证后端：登录永远成功
type serviceAuth struct{}

func (serviceAuth) Login(ctx context.Context, username, password string) (*transport.LoginResult, error) {
	return &transport.LoginResult{
		AccessToken: "tok",
		User:        models.User{Username: username, Role: "nurse"},
	}, nil
}
func (serviceAuth) Logout(ctx context.Context) error { return nil }
func (serviceAuth) Verify(ctx context.Context, token string) (*transport.VerifyResult, error) {
	return &transport.VerifyResult{Valid: true, User: models.User{Username: "nurse1"}}, nil
}

func newTestService(t *testing.T, sess *session.Store, nav view.Navigator) *Service {
	t.Helper()
	patients := &fakePatientAPI{patient: testPatient(), history: testHistory(3), stream: newFakeStream()}
	roster := &fakeRosterAPI{patients: []models.Patient{{ID: "P001", Severity: models.SeverityNormal}}}
	s := NewService(
		ServiceOptions{
			Patient:            Options{AlertPollInterval: time.Hour},
			RosterPollInterval: time.Hour,
		},
		patients, roster, &fakeAlertsAPI{}, &fakeSummarizerAPI{},
		fallback.NewSupplier(20),
		nil, nil,
		sess, nav,
		zap.NewNop(),
	)
	t.Cleanup(s.CloseAll)
	return s
}

func TestService_StartRequiresValidSession(t *testing.T) {
	sess := session.NewStore(serviceAuth{}, session.NewMemoryStorage(""), zap.NewNop())
	nav := &recordingNavigator{}
	s := newTestService(t, sess, nav)

	// 无持久化令牌，恢复后仍未认证
	sess.Restore(context.Background())

	err := s.Start(context.Background())
	require.ErrorIs(t, err, ErrLoginRequired)
	assert.Equal(t, []string{"/dashboard"}, nav.redirects())
}

func TestService_OpenPatientDeduplicates(t *testing.T) {
	sess := session.NewStore(serviceAuth{}, session.NewMemoryStorage("tok"), zap.NewNop())
	nav := &recordingNavigator{}
	s := newTestService(t, sess, nav)

	sess.Restore(context.Background())
	require.NoError(t, s.Start(context.Background()))

	first, err := s.OpenPatient("P001")
	require.NoError(t, err)
	second, err := s.OpenPatient("P001")
	require.NoError(t, err)
	// 同一患者重复打开返回既有监护器
	assert.Same(t, first, second)

	waitForPhase(t, first, PhaseReady)
	s.ClosePatient("P001")

	// 关闭后再次打开创建新监护器
	third, err := s.OpenPatient("P001")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestService_OpenPatientWithoutSessionRedirects(t *testing.T) {
	sess := session.NewStore(serviceAuth{}, session.NewMemoryStorage(""), zap.NewNop())
	nav := &recordingNavigator{}
	s := newTestService(t, sess, nav)

	sess.Restore(context.Background())

	_, err := s.OpenPatient("P007")
	require.ErrorIs(t, err, ErrLoginRequired)
	// 保留请求位置，登录后返回
	assert.Equal(t, []string{"/patients/P007"}, nav.redirects())
}

func TestService_LogoutTearsDownAndRedirects(t *testing.T) {
	sess := session.NewStore(serviceAuth{}, session.NewMemoryStorage("tok"), zap.NewNop())
	nav := &recordingNavigator{}
	s := newTestService(t, sess, nav)

	sess.Restore(context.Background())
	require.NoError(t, s.Start(context.Background()))

	m, err := s.OpenPatient("P001")
	require.NoError(t, err)
	waitForPhase(t, m, PhaseReady)

	// 登出：全部监护拆除，跳转登录并携带当前位置
	sess.Logout(context.Background())

	redirects := nav.redirects()
	require.Len(t, redirects, 1)
	assert.Equal(t, "/patients/P001", redirects[0])

	// 登出后打开患者被拒绝
	_, err = s.OpenPatient("P002")
	require.ErrorIs(t, err, ErrLoginRequired)
}

func TestService_RosterRunsAfterStart(t *testing.T) {
	sess := session.NewStore(serviceAuth{}, session.NewMemoryStorage("tok"), zap.NewNop())
	s := newTestService(t, sess, &recordingNavigator{})

	sess.Restore(context.Background())
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool {
		return s.Roster().Stats().Total == 1
	}, 2*time.Second, 10*time.Millisecond)
}
