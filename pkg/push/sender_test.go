package push

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/stores"
	"github.com/agentwire/a2a/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedPush struct {
	token string
	body  []byte
}

func TestNotifyDeliversTaskSnapshot(t *testing.T) {
	var (
		mu       sync.Mutex
		received []capturedPush
	)

	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = append(received, capturedPush{token: r.Header.Get(TokenHeader), body: body})
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer webhook.Close()

	store := stores.NewInMemoryPushNotificationStore()
	task := a2a.NewTask("ctx-1")
	task.ToStatus(a2a.TaskStateCompleted, nil)

	store.Save(task.ID, a2a.PushNotificationConfig{
		ID:    "c1",
		URL:   webhook.URL,
		Token: utils.Ptr("secret-token"),
	})
	store.Save(task.ID, a2a.PushNotificationConfig{ID: "c2", URL: webhook.URL})

	sender := NewSender(store)
	sender.Notify(context.Background(), task)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.Equal(t, "secret-token", received[0].token)
	assert.Empty(t, received[1].token)

	var pushed a2a.Task
	require.NoError(t, json.Unmarshal(received[0].body, &pushed))
	assert.Equal(t, task.ID, pushed.ID)
	assert.Equal(t, a2a.TaskStateCompleted, pushed.Status.State)
}

func TestNotifyHonorsCustomTokenHeader(t *testing.T) {
	var (
		mu      sync.Mutex
		headers http.Header
	)

	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = r.Header.Clone()
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer webhook.Close()

	store := stores.NewInMemoryPushNotificationStore()
	task := a2a.NewTask("ctx-1")
	store.Save(task.ID, a2a.PushNotificationConfig{
		ID:    "c1",
		URL:   webhook.URL,
		Token: utils.Ptr("secret-token"),
	})

	sender := NewSender(store, WithTokenHeader("X-Webhook-Token"))
	sender.Notify(context.Background(), task)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, headers)
	assert.Equal(t, "secret-token", headers.Get("X-Webhook-Token"))
	assert.Empty(t, headers.Get(TokenHeader))
}

func TestNotifySkipsFailingWebhooks(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
	}))
	defer working.Close()

	store := stores.NewInMemoryPushNotificationStore()
	task := a2a.NewTask("ctx-1")
	store.Save(task.ID, a2a.PushNotificationConfig{ID: "c1", URL: broken.URL})
	store.Save(task.ID, a2a.PushNotificationConfig{ID: "c2", URL: working.URL})

	sender := NewSender(store)
	assert.NotPanics(t, func() { sender.Notify(context.Background(), task) })

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestNotifyWithoutConfigsIsQuiet(t *testing.T) {
	sender := NewSender(stores.NewInMemoryPushNotificationStore())
	assert.NotPanics(t, func() {
		sender.Notify(context.Background(), a2a.NewTask("ctx-1"))
		sender.Notify(context.Background(), nil)
	})
}
