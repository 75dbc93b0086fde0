package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []CallEvent
}

func (r *recordingObserver) ObserveCall(e CallEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) Events() []CallEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CallEvent(nil), r.events...)
}

type requesterFunc func(ctx context.Context, endpoint string, opts RequestOptions) (json.RawMessage, error)

func (f requesterFunc) Execute(ctx context.Context, endpoint string, opts RequestOptions) (json.RawMessage, error) {
	return f(ctx, endpoint, opts)
}

func newTestGateway(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Gateway, *int64) {
	t.Helper()
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	exec := NewExecutor(server.URL, staticCredentials{"X-Token": "tok"}, server.Client())
	return New(exec, NewTracker(60*time.Second, 3), opts...), &hits
}

func roomTerrainCall() Call {
	return Call{
		Kind:     KindTool,
		Ref:      "getting room terrain",
		Path:     "/game/room-terrain",
		Query:    map[string]any{"room": "E1N8", "shard": "shard0"},
		Title:    "Room Terrain Analysis for E1N8",
		Guidance: []string{"Use terrain data to plan creep paths"},
	}
}

func TestGateway_RoomTerrainLoopScenario(t *testing.T) {
	gw, hits := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/game/room-terrain", r.URL.Path)
		assert.Equal(t, "E1N8", r.URL.Query().Get("room"))
		w.Write([]byte(`{"ok":1,"terrain":[{"room":"E1N8","terrain":"0000"}]}`))
	})
	ctx := context.Background()

	first := gw.Call(ctx, roomTerrainCall())
	second := gw.Call(ctx, roomTerrainCall())
	third := gw.Call(ctx, roomTerrainCall())

	assert.False(t, first.IsError())
	assert.False(t, second.IsError())
	require.True(t, third.IsError())
	assert.Contains(t, third.Tool.Text, LoopMarker)
	assert.Equal(t, int64(2), atomic.LoadInt64(hits), "blocked call must not reach the network")
}

func TestGateway_NotFoundScenario(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	})

	env := gw.Call(context.Background(), Call{Kind: KindTool, Ref: "getting room status", Path: "/game/room-status", Query: map[string]any{"room": "E1N8"}})

	require.True(t, env.IsError())
	assert.Contains(t, env.Message(), "not found")
	assert.NotContains(t, env.Message(), LoopMarker)
	assert.Contains(t, env.Message(), "Error getting room status")
}

func TestGateway_ResourceEnvelope(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":1,"shards":[{"name":"shard0"},{"name":"shard1"}]}`))
	})

	env := gw.Call(context.Background(), Call{
		Kind:     KindResource,
		Ref:      "screeps://game/shards/info",
		Path:     "/game/shards/info",
		Title:    "Available Shards Information",
		Guidance: []string{"Shard list changes rarely"},
		Annotate: func(data json.RawMessage) []string {
			var doc struct {
				Shards []json.RawMessage `json:"shards"`
			}
			json.Unmarshal(data, &doc)
			if len(doc.Shards) == 2 {
				return []string{"two shards"}
			}
			return nil
		},
	})

	require.False(t, env.IsError())
	assert.Equal(t, "screeps://game/shards/info", env.Resource.URI)
	assert.Equal(t, []string{"two shards", "Shard list changes rarely"}, env.Resource.Contents.Guidance)
	assert.Equal(t, "/game/shards/info", env.Resource.Contents.Endpoint)
}

func TestGateway_DifferentQueriesNeverBlock(t *testing.T) {
	gw, hits := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":1}`))
	})

	for i := 0; i < 10; i++ {
		for _, room := range []string{"E1N8", "E2N8", "E3N8"} {
			call := roomTerrainCall()
			call.Query = map[string]any{"room": room, "page": i}
			assert.False(t, gw.Call(context.Background(), call).IsError())
		}
	}
	assert.Equal(t, int64(30), atomic.LoadInt64(hits))
}

func TestGateway_BodyExcludedFromSignature(t *testing.T) {
	gw, hits := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":1}`))
	})

	call := func(stat string) Envelope {
		return gw.Call(context.Background(), Call{
			Kind:   KindTool,
			Path:   "/game/map-stats",
			Query:  map[string]any{"shard": "shard0"},
			Method: http.MethodPost,
			Body:   map[string]any{"rooms": []string{"E1N8"}, "statName": stat},
		})
	}

	assert.False(t, call("owner0").IsError())
	assert.False(t, call("creepsLost").IsError())
	assert.True(t, call("energyHarvested").IsError())
	assert.Equal(t, int64(2), atomic.LoadInt64(hits))
}

func TestGateway_InvalidBody(t *testing.T) {
	gw, hits := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {})

	env := gw.Call(context.Background(), Call{Kind: KindTool, Path: "/x", Method: "POST", Body: make(chan int)})

	require.True(t, env.IsError())
	var valErr *ValidationError
	assert.True(t, errors.As(env.Err(), &valErr))
	assert.Equal(t, int64(0), atomic.LoadInt64(hits))
	assert.Equal(t, 0, gw.Tracker().Len(), "invalid calls are not recorded")
}

func TestGateway_RecoversFromPanic(t *testing.T) {
	gw := New(requesterFunc(func(context.Context, string, RequestOptions) (json.RawMessage, error) {
		panic("executor exploded")
	}), nil)

	env := gw.Call(context.Background(), Call{Kind: KindResource, Ref: "screeps://version", Path: "/version"})

	require.True(t, env.IsError())
	assert.Equal(t, "executor exploded", env.Resource.Contents.Error)
}

func TestGateway_ObserversAndLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	rec := &recordingObserver{}

	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("room") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"ok":1}`))
	}, WithLogger(zap.New(core)), WithObserver(rec))

	ctx := context.Background()
	gw.Call(ctx, roomTerrainCall())
	gw.Call(ctx, roomTerrainCall())
	gw.Call(ctx, roomTerrainCall())
	missing := roomTerrainCall()
	missing.Query = map[string]any{"room": "missing"}
	gw.Call(ctx, missing)

	events := rec.Events()
	require.Len(t, events, 4)
	assert.Equal(t, OutcomeSuccess, events[0].Outcome)
	assert.Equal(t, OutcomeSuccess, events[1].Outcome)
	assert.Equal(t, OutcomeBlocked, events[2].Outcome)
	assert.Equal(t, 3, events[2].Repetitions)
	assert.Equal(t, OutcomeHTTPError, events[3].Outcome)
	assert.Equal(t, http.StatusNotFound, events[3].StatusCode)
	assert.NotEqual(t, events[0].ID, events[1].ID)
	assert.Equal(t, "tool", events[0].Kind)
	assert.Equal(t, "/game/room-terrain?room=E1N8&shard=shard0", events[0].Endpoint)

	assert.Equal(t, 2, logs.FilterMessage("gateway call").Len())
	assert.Equal(t, 1, logs.FilterMessage("gateway call blocked").Len())
	assert.Equal(t, 1, logs.FilterMessage("gateway call failed").Len())
}

func TestGateway_ConcurrentCalls(t *testing.T) {
	gw, hits := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":1}`))
	})

	var (
		wg      sync.WaitGroup
		blocked int64
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gw.Call(context.Background(), roomTerrainCall()).IsError() {
				atomic.AddInt64(&blocked, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(18), blocked)
	assert.Equal(t, int64(2), atomic.LoadInt64(hits))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Outcome(nil))
	assert.Equal(t, OutcomeBlocked, Outcome(&LoopDetectedError{}))
	assert.Equal(t, OutcomeHTTPError, Outcome(&HTTPError{}))
	assert.Equal(t, OutcomeNetworkError, Outcome(&NetworkError{Err: errors.New("x")}))
	assert.Equal(t, OutcomeInvalid, Outcome(&ValidationError{}))
	assert.Equal(t, OutcomeError, Outcome(errors.New("other")))
}
