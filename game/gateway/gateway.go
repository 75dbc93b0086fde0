package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Requester performs the HTTP leg of a call. *Executor implements it.
type Requester interface {
	Execute(ctx context.Context, endpoint string, opts RequestOptions) (json.RawMessage, error)
}

// Call describes one logical remote call and how to present its result.
type Call struct {
	Kind Kind
	// Ref is the resource URI for resources, or a short context for tool
	// error messages ("getting room terrain").
	Ref    string
	Path   string
	Query  map[string]any
	Method string
	// Body is JSON-encoded unless it is already []byte or json.RawMessage.
	Body     any
	Title    string
	Guidance []string
	// Annotate derives extra guidance lines from the response, placed before
	// the static guidance.
	Annotate func(data json.RawMessage) []string
}

// CallEvent describes a finished call. Observers receive one per Gateway.Call.
type CallEvent struct {
	ID          string        `json:"id"`
	Kind        string        `json:"kind"`
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Endpoint    string        `json:"endpoint"`
	Outcome     string        `json:"outcome"`
	StatusCode  int           `json:"status_code,omitempty"`
	Repetitions int           `json:"repetitions,omitempty"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
	Time        time.Time     `json:"time"`
}

// Observer is notified after every call. Implementations must not block.
type Observer interface {
	ObserveCall(CallEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(CallEvent)

func (f ObserverFunc) ObserveCall(e CallEvent) { f(e) }

// Gateway is the façade every handler calls.
type Gateway struct {
	requester Requester
	tracker   *Tracker
	logger    *zap.Logger
	observers []Observer
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithObserver registers observers notified after each call.
func WithObserver(observers ...Observer) Option {
	return func(g *Gateway) {
		for _, o := range observers {
			if o != nil {
				g.observers = append(g.observers, o)
			}
		}
	}
}

// New creates a gateway. A nil tracker disables loop detection.
func New(requester Requester, tracker *Tracker, opts ...Option) *Gateway {
	if tracker == nil {
		tracker = NewTracker(0, 0)
	}
	g := &Gateway{
		requester: requester,
		tracker:   tracker,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Tracker returns the tracker consulted on every call.
func (g *Gateway) Tracker() *Tracker { return g.tracker }

// Call runs the full pipeline and always returns an envelope.
func (g *Gateway) Call(ctx context.Context, c Call) (env Envelope) {
	start := time.Now()
	method := normalizeMethod(c.Method)
	endpoint := EncodeQuery(c.Path, c.Query)

	event := CallEvent{
		ID:       uuid.NewString(),
		Kind:     c.Kind.String(),
		Method:   method,
		Path:     c.Path,
		Endpoint: endpoint,
		Time:     start,
	}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("gateway call panicked",
				zap.String("call_id", event.ID),
				zap.String("endpoint", endpoint),
				zap.Any("panic", r))
			env = BuildError(c.Kind, c.Ref, r)
		}
		event.Duration = time.Since(start)
		g.finish(event, env)
	}()

	body, err := encodeBody(c.Body)
	if err != nil {
		return BuildError(c.Kind, c.Ref, err)
	}

	signature := Signature(method, endpoint)
	decision := g.tracker.CheckAndRecord(signature)
	if !decision.Allowed {
		return BuildError(c.Kind, c.Ref, decision.Err(signature))
	}

	data, err := g.requester.Execute(ctx, endpoint, RequestOptions{Method: method, Body: body})
	if err != nil {
		return BuildError(c.Kind, c.Ref, err)
	}

	guidance := c.Guidance
	if c.Annotate != nil {
		guidance = append(c.Annotate(data), c.Guidance...)
	}
	return BuildSuccess(c.Kind, c.Ref, data, endpoint, c.Title, guidance)
}

func (g *Gateway) finish(event CallEvent, env Envelope) {
	err := env.Err()
	event.Outcome = Outcome(err)

	var (
		httpErr *HTTPError
		loopErr *LoopDetectedError
	)
	if errors.As(err, &httpErr) {
		event.StatusCode = httpErr.StatusCode
	}
	if errors.As(err, &loopErr) {
		event.Repetitions = loopErr.Count
	}
	if err != nil {
		event.Error = err.Error()
	}

	fields := []zap.Field{
		zap.String("call_id", event.ID),
		zap.String("kind", event.Kind),
		zap.String("method", event.Method),
		zap.String("endpoint", event.Endpoint),
		zap.String("outcome", event.Outcome),
		zap.Duration("duration", event.Duration),
	}
	switch {
	case err == nil:
		g.logger.Debug("gateway call", fields...)
	case event.Outcome == OutcomeBlocked:
		g.logger.Warn("gateway call blocked", append(fields, zap.Int("repetitions", event.Repetitions))...)
	default:
		g.logger.Warn("gateway call failed", append(fields, zap.Int("status", event.StatusCode), zap.Error(err))...)
	}

	for _, o := range g.observers {
		o.ObserveCall(event)
	}
}

func normalizeMethod(method string) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return http.MethodGet
	}
	return method
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, &ValidationError{Field: "body", Reason: "not valid JSON"}
		}
		return v, nil
	case []byte:
		if !json.Valid(v) {
			return nil, &ValidationError{Field: "body", Reason: "not valid JSON"}
		}
		return v, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, &ValidationError{Field: "body", Reason: err.Error()}
	}
	return data, nil
}
