package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/termplan/internal/codec"
	"github.com/alexanderramin/termplan/internal/domain"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Token = "tok"
	cfg.RequestTimeout = 2 * time.Second
	return cfg
}

type recordingObserver struct {
	events []CallEvent
}

func (r *recordingObserver) OnCallComplete(e CallEvent) { r.events = append(r.events, e) }

const recordJSON = `{
	"id": "plan-1",
	"user_id": "u1",
	"academic_term": "Fall",
	"term_type": "semester",
	"term_year": 2025,
	"goals": ["Read 20 books"],
	"version": 7,
	"data": "{\"students\":{\"sarah\":{\"firstName\":\"Sarah\"},\"enoch\":{\"firstName\":\"Enoch\"}}}"
}`

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/term-plans/plan-1", r.URL.Path)
		assert.Equal(t, "u1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, recordJSON)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	plan, err := NewClient(testConfig(srv.URL), obs).Fetch(context.Background(), "plan-1", "u1")

	require.NoError(t, err)
	assert.Equal(t, "Fall", plan.AcademicTerm)
	assert.Equal(t, int64(7), plan.Version)
	assert.Equal(t, []string{"sarah", "enoch"}, plan.StudentIDs())
	require.Len(t, obs.events, 1)
	assert.True(t, obs.events[0].Success)
	assert.Equal(t, "fetch", obs.events[0].Op)
}

func TestClient_Fetch_InvalidDataDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"plan-1","user_id":"u1","goals":["g"],"data":"{not json"}`)
	}))
	defer srv.Close()

	plan, err := NewClient(testConfig(srv.URL), nil).Fetch(context.Background(), "plan-1", "u1")

	require.NoError(t, err)
	assert.Equal(t, []string{"g"}, plan.Goals)
	assert.Empty(t, plan.Students)
}

func TestClient_Fetch_EmptyIDMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), nil).Fetch(context.Background(), "", "u1")

	assert.ErrorIs(t, err, ErrMissingPlanID)
	assert.Zero(t, hits.Load())
}

func TestClient_Fetch_NotFoundIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 3
	_, err := NewClient(cfg, nil).Fetch(context.Background(), "plan-1", "u1")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_Fetch_OtherOwnerIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, recordJSON)
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), nil).Fetch(context.Background(), "plan-1", "someone-else")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_Fetch_RetryOnServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		io.WriteString(w, recordJSON)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 1
	obs := &recordingObserver{}
	_, err := NewClient(cfg, obs).Fetch(context.Background(), "plan-1", "u1")

	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 2, obs.events[0].Attempts)
}

func TestClient_Fetch_BackendErrorAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	_, err := NewClient(testConfig(srv.URL), obs).Fetch(context.Background(), "plan-1", "u1")

	assert.ErrorIs(t, err, ErrBackend)
	assert.Equal(t, "BACKEND", obs.events[0].ErrorCode)
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RequestTimeout = 50 * time.Millisecond
	_, err := NewClient(cfg, nil).Fetch(context.Background(), "plan-1", "u1")

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_Fetch_CancelAbortsRequest(t *testing.T) {
	started := make(chan struct{})
	aborted := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
		close(aborted)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := NewClient(testConfig(srv.URL), nil).Fetch(ctx, "plan-1", "u1")
		errCh <- err
	}()

	<-started
	cancel()

	assert.ErrorIs(t, <-errCh, context.Canceled)
	select {
	case <-aborted:
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the request abort")
	}
}

func TestClient_Fetch_Unavailable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1") // nothing listening
	cfg.MaxRetries = 0

	_, err := NewClient(cfg, nil).Fetch(context.Background(), "plan-1", "u1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_Save_SendsRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/term-plans/plan-1", r.URL.Path)

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var rec codec.Record
		require.NoError(t, json.Unmarshal(raw, &rec))
		assert.Equal(t, "u1", rec.UserID)
		assert.Equal(t, int64(4), rec.Version)

		plan := codec.FromRecord(rec)
		require.Len(t, plan.Students, 1)
		assert.Equal(t, "Enoch", plan.Students[0].FirstName)

		rec.UpdatedAt = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
		json.NewEncoder(w).Encode(rec)
	}))
	defer srv.Close()

	plan := domain.TermPlan{
		ID:       "plan-1",
		Goals:    []string{},
		Students: []domain.StudentPlan{{ID: "enoch", FirstName: "Enoch"}},
		Version:  4,
	}
	stored, err := NewClient(testConfig(srv.URL), nil).Save(context.Background(), "u1", plan)

	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.Version)
	assert.Equal(t, "u1", stored.UserID)
	assert.False(t, stored.UpdatedAt.IsZero())
}

func TestClient_Me(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/me", r.URL.Path)
		io.WriteString(w, `{"id":"u42"}`)
	}))
	defer srv.Close()

	id, err := NewClient(testConfig(srv.URL), nil).Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u42", id)
}

func TestClient_Me_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), nil).Me(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMetricsObserver_CountsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewMetricsObserver(reg)
	require.NoError(t, err)

	obs.OnCallComplete(CallEvent{Op: "fetch", Success: true})
	obs.OnCallComplete(CallEvent{Op: "fetch", ErrorCode: "TIMEOUT"})
	obs.OnCallComplete(CallEvent{Op: "fetch", ErrorCode: "TIMEOUT"})

	assert.Equal(t, 1.0, testutil.ToFloat64(obs.calls.WithLabelValues("fetch", "OK")))
	assert.Equal(t, 2.0, testutil.ToFloat64(obs.calls.WithLabelValues("fetch", "TIMEOUT")))

	_, err = NewMetricsObserver(reg)
	assert.Error(t, err, "registering twice fails")
}
