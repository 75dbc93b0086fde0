package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind selects which protocol shape an Envelope takes.
type Kind int

const (
	KindResource Kind = iota + 1
	KindTool
)

func (k Kind) String() string {
	switch k {
	case KindResource:
		return "resource"
	case KindTool:
		return "tool"
	default:
		return "unknown"
	}
}

// MIMEJSON is the MIME type of every resource envelope.
const MIMEJSON = "application/json"

// ResourceContents is the JSON document returned for a resource read. Exactly
// one of Data and Error is set.
type ResourceContents struct {
	Title        string          `json:"title,omitempty"`
	Endpoint     string          `json:"endpoint,omitempty"`
	Guidance     []string        `json:"guidance,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	Error        string          `json:"error,omitempty"`
	LoopDetected bool            `json:"loop_detected,omitempty"`
}

// ResourceEnvelope is the resource-read shape.
type ResourceEnvelope struct {
	URI      string
	MIMEType string
	Contents ResourceContents
}

// Text renders the contents as indented JSON.
func (r *ResourceEnvelope) Text() string {
	data, err := json.MarshalIndent(r.Contents, "", "  ")
	if err != nil {
		// Data is validated JSON, so this only happens on a corrupted RawMessage.
		fallback, _ := json.Marshal(ResourceContents{Error: err.Error()})
		return string(fallback)
	}
	return string(data)
}

// ToolEnvelope is the tool-invocation shape.
type ToolEnvelope struct {
	IsError bool
	Text    string
}

// Envelope is the uniform result of every gateway call. Kind says which of
// Resource or Tool is populated.
type Envelope struct {
	Kind     Kind
	Resource *ResourceEnvelope
	Tool     *ToolEnvelope

	data  json.RawMessage
	cause error
}

// IsError reports whether the envelope carries a failure.
func (e Envelope) IsError() bool { return e.cause != nil }

// Data returns the raw payload of a successful envelope, nil on failure.
func (e Envelope) Data() json.RawMessage { return e.data }

// Err returns the failure behind an error envelope, nil on success.
func (e Envelope) Err() error { return e.cause }

// Message returns the rendered error message, or "" on success.
func (e Envelope) Message() string {
	if e.cause == nil {
		return ""
	}
	switch e.Kind {
	case KindResource:
		return e.Resource.Contents.Error
	case KindTool:
		return e.Tool.Text
	}
	return e.cause.Error()
}

// BuildSuccess wraps data verbatim together with its provenance and guidance.
// For resources ref is the resource URI; for tools it is unused.
func BuildSuccess(kind Kind, ref string, data json.RawMessage, endpoint, title string, guidance []string) Envelope {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	guidance = append([]string(nil), guidance...)

	env := Envelope{Kind: kind, data: data}
	switch kind {
	case KindResource:
		env.Resource = &ResourceEnvelope{
			URI:      ref,
			MIMEType: MIMEJSON,
			Contents: ResourceContents{
				Title:    title,
				Endpoint: endpoint,
				Guidance: guidance,
				Data:     data,
			},
		}
	default:
		env.Kind = KindTool
		env.Tool = &ToolEnvelope{Text: renderToolText(title, endpoint, guidance, data)}
	}
	return env
}

// BuildError wraps any failure. For resources ref is the resource URI; for
// tools it is a short context such as "getting room terrain". Non-error values
// are stringified, nil becomes "unknown error".
func BuildError(kind Kind, ref string, failure any) Envelope {
	cause := asError(failure)
	message := cause.Error()
	loop := IsLoopDetected(cause)

	env := Envelope{Kind: kind, cause: cause}
	switch kind {
	case KindResource:
		env.Resource = &ResourceEnvelope{
			URI:      ref,
			MIMEType: MIMEJSON,
			Contents: ResourceContents{
				Error:        message,
				LoopDetected: loop,
			},
		}
	default:
		env.Kind = KindTool
		if loop {
			env.Tool = &ToolEnvelope{IsError: true, Text: renderLoopBanner(message)}
		} else {
			env.Tool = &ToolEnvelope{IsError: true, Text: errorPrefix(ref) + message}
		}
	}
	return env
}

func asError(failure any) error {
	switch v := failure.(type) {
	case nil:
		return errors.New("unknown error")
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return errors.New(fmt.Sprint(v))
	}
}

func errorPrefix(ref string) string {
	if ref == "" {
		return "Error: "
	}
	return "Error " + ref + ": "
}

func renderToolText(title, endpoint string, guidance []string, data json.RawMessage) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n")
	}
	if endpoint != "" {
		fmt.Fprintf(&b, "Endpoint: %s\n", endpoint)
	}
	if len(guidance) > 0 {
		b.WriteString("\nGuidance:\n")
		for _, line := range guidance {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	b.WriteString("\nData:\n")
	b.Write(data)
	return b.String()
}

func renderLoopBanner(message string) string {
	return "🚨 CRITICAL ERROR - " + LoopMarker + " 🚨\n\n" +
		message + "\n\n" +
		"⚠️ SYSTEM MESSAGE: This call was made repeatedly with identical parameters.\n" +
		"📊 SOLUTION: Analyze the data from previous calls instead of making new ones.\n" +
		"🛑 ACTION REQUIRED: Stop repeating this call and use the existing data."
}
