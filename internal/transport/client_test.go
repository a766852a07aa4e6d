package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vitalwatch-client/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestVitalsClient_ListPatients(t *testing.T) {
	patients := []models.Patient{
		{ID: "P001", Name: "John Smith", Severity: models.SeverityCritical},
		{ID: "P002", Name: "Sarah Johnson", Severity: models.SeverityWarning},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/patients", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(patients)
	}))
	defer server.Close()

	client := NewVitalsClient(server.URL, time.Second, staticToken("test-token"), zap.NewNop())
	got, err := client.ListPatients(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "John Smith", got[0].Name)
}

func TestVitalsClient_GetPatient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Patient not found"})
	}))
	defer server.Close()

	client := NewVitalsClient(server.URL, time.Second, NoToken{}, zap.NewNop())
	_, err := client.GetPatient(context.Background(), "P999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClient_AuthInvalidOn401(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Not authenticated"})
	}))
	defer server.Close()

	client := NewAlertsClient(server.URL, time.Second, NoToken{}, zap.NewNop())
	_, err := client.GetAlerts(context.Background(), "P001")
	require.ErrorIs(t, err, ErrAuthInvalid)
}

func TestClient_HTTPErrorOn500(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewAlertsClient(server.URL, time.Second, NoToken{}, zap.NewNop())
	_, err := client.GetAlerts(context.Background(), "P001")

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
}

func TestClient_ParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewVitalsClient(server.URL, time.Second, NoToken{}, zap.NewNop())
	_, err := client.ListPatients(context.Background())
	require.ErrorIs(t, err, ErrParse)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewVitalsClient(server.URL, 20*time.Millisecond, NoToken{}, zap.NewNop())
	_, err := client.ListPatients(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
	// 超时与网络不可达走同一条降级路径
	assert.True(t, IsUnreachable(err))
}

func TestClient_NetworkUnavailable(t *testing.T) {
	// 已关闭的端口，连接被拒绝
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewVitalsClient(url, time.Second, NoToken{}, zap.NewNop())
	_, err := client.ListPatients(context.Background())
	require.ErrorIs(t, err, ErrNetworkUnavailable)
	assert.True(t, IsUnreachable(err))
}

func TestClient_TokenReadPerCall(t *testing.T) {
	var gotAuth []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]models.Alert{})
	}))
	defer server.Close()

	token := "first"
	client := NewAlertsClient(server.URL, time.Second, TokenSourceFunc(func() string { return token }), zap.NewNop())

	_, err := client.GetAlerts(context.Background(), "P001")
	require.NoError(t, err)

	// 登出后令牌被清空，下一次调用立即不再附带认证头
	token = ""
	_, err = client.GetAlerts(context.Background(), "P001")
	require.NoError(t, err)

	require.Len(t, gotAuth, 2)
	assert.Equal(t, "Bearer first", gotAuth[0])
	assert.Equal(t, "", gotAuth[1])
}

func TestSummarizerClient_TriggerSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/model/trigger-summary", r.URL.Path)

		var req struct {
			PatientID string         `json:"patient_id"`
			Alerts    []models.Alert `json:"alerts"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "P001", req.PatientID)
		assert.Len(t, req.Alerts, 2)

		json.NewEncoder(w).Encode(models.Summary{
			PatientID:   "P001",
			Text:        "Clinical summary",
			AlertsCount: 2,
		})
	}))
	defer server.Close()

	client := NewSummarizerClient(server.URL, time.Second, NoToken{}, zap.NewNop())
	summary, err := client.TriggerSummary(context.Background(), "P001", []models.Alert{
		{ID: "a1", Severity: models.SeverityCritical},
		{ID: "a2", Severity: models.SeverityWarning},
	})
	require.NoError(t, err)
	assert.Equal(t, "Clinical summary", summary.Text)
	assert.False(t, summary.Error)
}

func TestAuthClient_VerifyPassesTokenAsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/verify", r.URL.Path)
		assert.Equal(t, "tok-123", r.URL.Query().Get("token"))
		json.NewEncoder(w).Encode(VerifyResult{
			Valid: true,
			User:  models.User{Username: "admin", Role: "admin"},
		})
	}))
	defer server.Close()

	client := NewAuthClient(server.URL, time.Second, NoToken{}, zap.NewNop())
	result, err := client.Verify(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "admin", result.User.Username)
}

func TestClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	defer server.Close()

	client := NewVitalsClient(server.URL, time.Second, NoToken{}, zap.NewNop())
	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status)
}
