package manage

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"JProject/module/notify"
)

type memPolicyStore struct {
	pol notify.NotificationPolicy
	err error
}

func (m *memPolicyStore) GetNotificationPolicy(context.Context) (notify.NotificationPolicy, error) {
	return m.pol, m.err
}

func (m *memPolicyStore) UpdateNotificationPolicy(_ context.Context, p notify.NotificationPolicy) error {
	if m.err != nil {
		return m.err
	}
	m.pol = p
	return nil
}

func newTestRouter(store PolicyStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewPolicyHandler(store).Register(r)
	return r
}

func TestGetPolicy(t *testing.T) {
	store := &memPolicyStore{pol: notify.DefaultPolicy()}
	r := newTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/manage/notify/policy", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Code int                       `json:"code"`
		Data notify.NotificationPolicy `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Zero(t, body.Code)
	require.False(t, body.Data.Enabled)
	require.Equal(t, 30, body.Data.Delayed.DelayMinutes)
}

func TestPutPolicyUpdates(t *testing.T) {
	store := &memPolicyStore{pol: notify.DefaultPolicy()}
	r := newTestRouter(store)

	pol := notify.DefaultPolicy()
	pol.Enabled = true
	pol.Delayed.DelayMinutes = 15
	b, _ := json.Marshal(pol)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/manage/notify/policy", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, store.pol.Enabled)
	require.Equal(t, 15, store.pol.Delayed.DelayMinutes)
}

func TestPutPolicyRejectsInvalid(t *testing.T) {
	store := &memPolicyStore{pol: notify.DefaultPolicy()}
	r := newTestRouter(store)

	pol := notify.DefaultPolicy()
	pol.Throttle.MaxPerWindow = 0
	b, _ := json.Marshal(pol)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/manage/notify/policy", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, notify.DefaultPolicy(), store.pol, "store must be untouched")
}
