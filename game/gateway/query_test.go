package gateway

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestEncodeQuery(t *testing.T) {
	var nilShard *string
	shard := "shard3"

	tests := []struct {
		name   string
		path   string
		params map[string]any
		want   string
	}{
		{"no params", "/game/time", nil, "/game/time"},
		{"empty map", "/game/time", map[string]any{}, "/game/time"},
		{"sorted keys", "/game/room-terrain", map[string]any{"shard": "shard0", "room": "E1N8"}, "/game/room-terrain?room=E1N8&shard=shard0"},
		{"nil omitted", "/game/room-status", map[string]any{"room": "W7N3", "shard": nil}, "/game/room-status?room=W7N3"},
		{"typed nil pointer omitted", "/game/room-status", map[string]any{"room": "W7N3", "shard": nilShard}, "/game/room-status?room=W7N3"},
		{"pointer dereferenced", "/game/room-status", map[string]any{"room": "W7N3", "shard": &shard}, "/game/room-status?room=W7N3&shard=shard3"},
		{"zero kept", "/user/money-history", map[string]any{"page": 0}, "/user/money-history?page=0"},
		{"false kept", "/game/room-terrain", map[string]any{"encoded": false, "room": "E1N8"}, "/game/room-terrain?encoded=false&room=E1N8"},
		{"empty string kept", "/game/market/orders", map[string]any{"resourceType": ""}, "/game/market/orders?resourceType="},
		{"json float integer", "/experimental/pvp", map[string]any{"interval": float64(100)}, "/experimental/pvp?interval=100"},
		{"json float fraction", "/experimental/pvp", map[string]any{"start": 1.5}, "/experimental/pvp?start=1.5"},
		{"string slice joined", "/game/map-stats", map[string]any{"rooms": []string{"E1N8", "W50N50"}}, "/game/map-stats?rooms=E1N8%2CW50N50"},
		{"any slice joined", "/game/map-stats", map[string]any{"rooms": []any{"E1N8", "E2N8"}}, "/game/map-stats?rooms=E1N8%2CE2N8"},
		{"existing query", "/game/room-objects?shard=shard0", map[string]any{"room": "E1N8"}, "/game/room-objects?shard=shard0&room=E1N8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeQuery(tt.path, tt.params)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("EncodeQuery() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeQuery_OrderIndependent(t *testing.T) {
	p1 := map[string]any{}
	p2 := map[string]any{}
	keys := []string{"room", "shard", "interval", "encoded", "statName"}
	values := []any{"E1N8", "shard0", "180", true, "owner0"}

	for i := range keys {
		p1[keys[i]] = values[i]
	}
	for i := len(keys) - 1; i >= 0; i-- {
		p2[keys[i]] = values[i]
	}

	for i := 0; i < 20; i++ {
		assert.Equal(t, EncodeQuery("/x", p1), EncodeQuery("/x", p2))
	}
}

func TestEncodeQuery_ZeroValueIncluded(t *testing.T) {
	got := EncodeQuery("/x", map[string]any{"a": 0})
	assert.True(t, strings.Contains(got, "a=0"), "got %s", got)
}

func TestSignature(t *testing.T) {
	assert.Equal(t, "GET /game/time", Signature("get", "/game/time"))
	assert.NotEqual(t, Signature("GET", "/game/map-stats"), Signature("POST", "/game/map-stats"))
}
