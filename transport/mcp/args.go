package mcp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/screeps-world-mcp/game/gateway"
	"github.com/wricardo/screeps-world-mcp/game/rooms"
)

type toolArgs map[string]any

func argsOf(request mcp.CallToolRequest) toolArgs {
	args := request.GetArguments()
	if args == nil {
		return toolArgs{}
	}
	return toolArgs(args)
}

// optString returns the trimmed string value, or "" when absent.
func (a toolArgs) optString(key string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &gateway.ValidationError{Field: key, Reason: "must be a string"}
	}
	return strings.TrimSpace(s), nil
}

func (a toolArgs) requireString(key string) (string, error) {
	s, err := a.optString(key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &gateway.ValidationError{Field: key, Reason: "is required"}
	}
	return s, nil
}

func (a toolArgs) requireRoom(key string) (string, error) {
	room, err := a.requireString(key)
	if err != nil {
		return "", err
	}
	if !rooms.Valid(room) {
		return "", &gateway.ValidationError{Field: key, Reason: fmt.Sprintf("invalid room name %q", room)}
	}
	return room, nil
}

// optNumber accepts JSON numbers and numeric strings. The bool result is false
// when the key is absent.
func (a toolArgs) optNumber(key string) (float64, bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false, &gateway.ValidationError{Field: key, Reason: "must be a number"}
		}
		return f, true, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false, &gateway.ValidationError{Field: key, Reason: "must be a number"}
		}
		return f, true, nil
	}
	return 0, false, &gateway.ValidationError{Field: key, Reason: "must be a number"}
}

func (a toolArgs) optBool(key string) (bool, bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return false, false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, true, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, false, &gateway.ValidationError{Field: key, Reason: "must be a boolean"}
		}
		return parsed, true, nil
	}
	return false, false, &gateway.ValidationError{Field: key, Reason: "must be a boolean"}
}

func (a toolArgs) requireStrings(key string) ([]string, error) {
	var out []string
	switch v := a[key].(type) {
	case nil:
	case []string:
		out = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &gateway.ValidationError{Field: key, Reason: "must be an array of strings"}
			}
			out = append(out, s)
		}
	case string:
		out = strings.Split(v, ",")
	default:
		return nil, &gateway.ValidationError{Field: key, Reason: "must be an array of strings"}
	}

	cleaned := out[:0:0]
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return nil, &gateway.ValidationError{Field: key, Reason: "is required"}
	}
	return cleaned, nil
}
