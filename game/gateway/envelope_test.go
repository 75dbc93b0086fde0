package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertExactlyOneBranch(t *testing.T, env Envelope) {
	t.Helper()
	hasData := env.Data() != nil
	hasErr := env.Message() != ""
	assert.True(t, hasData != hasErr, "expected exactly one of data/error, got data=%v error=%v", hasData, hasErr)
	assert.Equal(t, hasErr, env.IsError())

	switch env.Kind {
	case KindResource:
		require.NotNil(t, env.Resource)
		assert.Nil(t, env.Tool)
		assert.Equal(t, hasData, env.Resource.Contents.Data != nil)
		assert.Equal(t, hasErr, env.Resource.Contents.Error != "")
	case KindTool:
		require.NotNil(t, env.Tool)
		assert.Nil(t, env.Resource)
		assert.Equal(t, hasErr, env.Tool.IsError)
	default:
		t.Fatalf("unexpected kind %v", env.Kind)
	}
}

func TestBuildSuccess_Resource(t *testing.T) {
	data := json.RawMessage(`{"ok":1,"time":777}`)
	env := BuildSuccess(KindResource, "screeps://game/time", data, "/game/time", "Game Time", []string{"a", "b"})

	assertExactlyOneBranch(t, env)
	assert.Equal(t, "screeps://game/time", env.Resource.URI)
	assert.Equal(t, MIMEJSON, env.Resource.MIMEType)
	assert.Equal(t, "/game/time", env.Resource.Contents.Endpoint)
	assert.Equal(t, []string{"a", "b"}, env.Resource.Contents.Guidance)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.Resource.Text()), &doc))
	assert.Equal(t, "Game Time", doc["title"])
	assert.Equal(t, float64(777), doc["data"].(map[string]any)["time"])
	assert.NotContains(t, doc, "error")
}

func TestBuildSuccess_ToolEmbedsDataVerbatim(t *testing.T) {
	raw := `{"terrain":[{"room":"E1N8","x":1,"y":2,"type":"wall"}]}`
	env := BuildSuccess(KindTool, "", json.RawMessage(raw), "/game/room-terrain?room=E1N8", "Room Terrain Analysis for E1N8", []string{"Use terrain data"})

	assertExactlyOneBranch(t, env)
	assert.False(t, env.Tool.IsError)
	assert.Contains(t, env.Tool.Text, raw)
	assert.Contains(t, env.Tool.Text, "Room Terrain Analysis for E1N8")
	assert.Contains(t, env.Tool.Text, "Endpoint: /game/room-terrain?room=E1N8")
	assert.Contains(t, env.Tool.Text, "- Use terrain data")
}

func TestBuildSuccess_NilDataStillPopulated(t *testing.T) {
	env := BuildSuccess(KindTool, "", nil, "/x", "X", nil)
	assertExactlyOneBranch(t, env)
	assert.Equal(t, "null", string(env.Data()))
}

func TestBuildError_Variants(t *testing.T) {
	type stringer struct{ v int }

	failures := []any{
		&HTTPError{Endpoint: "/x", StatusCode: 500, Status: "500 Internal Server Error", Body: "boom"},
		&NetworkError{Endpoint: "/x", Err: errors.New("connection refused")},
		&ValidationError{Field: "room", Reason: "is required"},
		&LoopDetectedError{Signature: "GET /x", Count: 3, Window: time.Minute},
		fmt.Errorf("wrapped: %w", &LoopDetectedError{Signature: "GET /y", Count: 5, Window: time.Minute}),
		"plain string",
		42,
		stringer{7},
		nil,
	}

	for _, kind := range []Kind{KindResource, KindTool} {
		for _, failure := range failures {
			t.Run(fmt.Sprintf("%s/%T", kind, failure), func(t *testing.T) {
				env := BuildError(kind, "ref", failure)
				assertExactlyOneBranch(t, env)
				assert.True(t, env.IsError())
				assert.Nil(t, env.Data())
			})
		}
	}
}

func TestBuildError_LoopMarker(t *testing.T) {
	loop := &LoopDetectedError{Signature: "GET /game/room-objects?room=E1N8", Count: 3, Window: time.Minute, Elapsed: 2 * time.Second}

	tool := BuildError(KindTool, "getting room objects", loop)
	assert.Contains(t, tool.Tool.Text, LoopMarker)
	assert.Contains(t, tool.Tool.Text, "3 times")
	assert.Contains(t, tool.Tool.Text, "1m0s")
	assert.Contains(t, tool.Tool.Text, "CRITICAL ERROR")

	res := BuildError(KindResource, "screeps://game/time", loop)
	assert.Contains(t, res.Resource.Contents.Error, LoopMarker)
	assert.True(t, res.Resource.Contents.LoopDetected)
}

func TestBuildError_NoLoopMarkerForOrdinaryErrors(t *testing.T) {
	for _, err := range []error{
		&HTTPError{Endpoint: "/x", StatusCode: 404, Status: "404 Not Found", Body: `{"error":"not found"}`},
		&NetworkError{Endpoint: "/x", Err: errors.New("dial tcp: no such host")},
	} {
		for _, kind := range []Kind{KindResource, KindTool} {
			env := BuildError(kind, "getting room status", err)
			assert.NotContains(t, env.Message(), LoopMarker)
		}
	}
}

func TestBuildError_ToolPrefix(t *testing.T) {
	env := BuildError(KindTool, "getting market orders", errors.New("boom"))
	assert.Equal(t, "Error getting market orders: boom", env.Tool.Text)

	env = BuildError(KindTool, "", errors.New("boom"))
	assert.Equal(t, "Error: boom", env.Tool.Text)

	env = BuildError(KindTool, "x", nil)
	assert.Equal(t, "Error x: unknown error", env.Tool.Text)

	env = BuildError(KindTool, "x", 3.5)
	assert.Equal(t, "Error x: 3.5", env.Tool.Text)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "resource", KindResource.String())
	assert.Equal(t, "tool", KindTool.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
