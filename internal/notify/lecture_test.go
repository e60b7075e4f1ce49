package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidept/presentation-scheduler/pkg/config"
)

type recordingRescheduler struct {
	mu    sync.Mutex
	calls []string
	done  chan struct{}
	want  int
}

func newRecordingRescheduler(want int) *recordingRescheduler {
	return &recordingRescheduler{done: make(chan struct{}), want: want}
}

func (r *recordingRescheduler) RescheduleLectures(_ context.Context, examinerCode, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, examinerCode+"@"+date)
	if len(r.calls) == r.want {
		close(r.done)
	}
	return nil
}

func TestWebhookReschedulerPostsPayload(t *testing.T) {
	var gotBody map[string]string
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rescheduler := NewWebhookRescheduler(server.URL, time.Second)
	err := rescheduler.RescheduleLectures(context.Background(), "EX2026001", "2026-09-10")

	require.NoError(t, err)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "EX2026001", gotBody["lecturer_id"])
	assert.Equal(t, "2026-09-10", gotBody["date"])
}

func TestWebhookReschedulerRejectsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	rescheduler := NewWebhookRescheduler(server.URL, time.Second)
	err := rescheduler.RescheduleLectures(context.Background(), "EX2026001", "2026-09-10")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestDispatcherDeliversOneNoticePerExaminer(t *testing.T) {
	rescheduler := newRecordingRescheduler(2)
	dispatcher := NewDispatcher(rescheduler, config.NotificationsConfig{
		Workers:    2,
		MaxRetries: 1,
		RetryDelay: 10 * time.Millisecond,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	dispatcher.Dispatch([]string{"EX2026001", "EX2026002"}, "2026-09-10")

	select {
	case <-rescheduler.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notices were not delivered in time")
	}

	rescheduler.mu.Lock()
	defer rescheduler.mu.Unlock()
	assert.ElementsMatch(t,
		[]string{"EX2026001@2026-09-10", "EX2026002@2026-09-10"},
		rescheduler.calls)
}

func TestDispatcherBeforeStartDoesNotPanic(t *testing.T) {
	rescheduler := newRecordingRescheduler(1)
	dispatcher := NewDispatcher(rescheduler, config.NotificationsConfig{Workers: 1}, nil)

	assert.NotPanics(t, func() {
		dispatcher.Dispatch([]string{"EX2026001"}, "2026-09-10")
	})
}
