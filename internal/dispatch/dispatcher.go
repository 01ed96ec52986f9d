package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/thegrumpylion/google-mcp/internal/gmailerr"
	"github.com/thegrumpylion/google-mcp/internal/metrics"
	"github.com/thegrumpylion/google-mcp/internal/model"
	"github.com/thegrumpylion/google-mcp/internal/phase"
	"github.com/thegrumpylion/google-mcp/internal/policy"
	"github.com/thegrumpylion/google-mcp/internal/session"
)

// Request is the parsed MCP call.
type Request struct {
	ToolName           string
	Input              json.RawMessage
	UserID             string
	SessionID          string
	TurnIndex          int
	DryRun             bool
	Confirmed          bool
	ConfirmationToken  string
	SecondConfirmToken string
}

// Response is the MCP-agnostic dispatcher response.
type Response struct {
	IsError bool
	Output  Result
}

// applyRulesTool is the one tool whose deadline is governed by
// ApplyRulesTimeoutMS rather than the general default.
const applyRulesTool = "apply_rules"

// minDefaultTimeout is the floor for the per-invocation deadline applied to
// every tool but apply_rules, regardless of DefaultTimeoutMS: DefaultTimeoutMS
// also drives the Gmail-client per-HTTP-call timeout (cmd/root.go), which
// defaults much lower (30s) than the deadline a multi-call tool invocation
// needs. An operator raising DefaultTimeoutMS above the floor still widens
// the invocation deadline accordingly.
const minDefaultTimeout = 120 * time.Second

// defaultApplyRulesTimeout is used when ApplyRulesTimeoutMS is unset (zero).
const defaultApplyRulesTimeout = 600 * time.Second

// Dispatcher implements the contract end to end.
type Dispatcher struct {
	registry  *Registry
	gate      *phase.Gate
	sessions  *session.Store
	validate  *validator.Validate
	logger    *zap.Logger
	metrics   *metrics.Metrics

	requireConfirmation bool
	defaultTimeout      time.Duration
	applyRulesTimeout   time.Duration
	clock               func() time.Time
}

// Config configures a Dispatcher.
type Config struct {
	RequireConfirmationForDestructive bool

	// DefaultTimeout bounds every tool invocation but apply_rules. Values
	// below minDefaultTimeout are raised to the floor; zero uses the floor.
	DefaultTimeout time.Duration

	// ApplyRulesTimeout bounds apply_rules invocations. Zero uses
	// defaultApplyRulesTimeout.
	ApplyRulesTimeout time.Duration
}

// New builds a Dispatcher.
func New(registry *Registry, gate *phase.Gate, sessions *session.Store, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultTimeout := cfg.DefaultTimeout
	if defaultTimeout < minDefaultTimeout {
		defaultTimeout = minDefaultTimeout
	}
	applyRulesTimeout := cfg.ApplyRulesTimeout
	if applyRulesTimeout <= 0 {
		applyRulesTimeout = defaultApplyRulesTimeout
	}
	return &Dispatcher{
		registry:            registry,
		gate:                gate,
		sessions:             sessions,
		validate:             validator.New(validator.WithRequiredStructEnabled()),
		logger:               logger,
		metrics:              m,
		requireConfirmation:  cfg.RequireConfirmationForDestructive,
		defaultTimeout:       defaultTimeout,
		applyRulesTimeout:    applyRulesTimeout,
		clock:                time.Now,
	}
}

// Dispatch runs the full contract for one tool call. Every invocation
// carries a deadline (apply_rules gets its own, longer one); cancellation
// propagates to outstanding Gmail calls via ctx.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	timeout := d.defaultTimeout
	if req.ToolName == applyRulesTool {
		timeout = d.applyRulesTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp := d.dispatch(ctx, req)
	d.recordMetrics(req.ToolName, resp, time.Since(start))
	d.appendSession(ctx, req, resp)
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) Response {
	handler, ok := d.registry.Lookup(req.ToolName)
	if !ok {
		return errorResponse(gmailerr.New(gmailerr.ToolNotFound, "unknown tool %q", req.ToolName))
	}

	// Phase gate rejection is an informational text result, not a protocol
	// error, to preserve client stability.
	if d.gate != nil && !d.gate.IsExposed(req.ToolName) {
		return Response{
			IsError: false,
			Output:  Result{Success: false, ErrorMessage: "not available in current phase"},
		}
	}

	rawMap, err := decodeToMap(req.Input)
	if err != nil {
		return errorResponse(gmailerr.Wrap(gmailerr.InvalidInput, err, "parsing input"))
	}
	normalized := normalizeArrayFields(rawMap, handler.ArrayFields)
	normalizedJSON, err := json.Marshal(normalized)
	if err != nil {
		return errorResponse(gmailerr.Wrap(gmailerr.InvalidInput, err, "re-encoding normalised input"))
	}

	input := handler.NewInput()
	if err := json.Unmarshal(normalizedJSON, input); err != nil {
		return errorResponse(gmailerr.Wrap(gmailerr.InvalidInput, err, "decoding input"))
	}
	if err := d.validate.Struct(input); err != nil {
		return errorResponse(gmailerr.Wrap(gmailerr.InvalidInput, err, "validating input"))
	}

	if err := policy.Check(policy.Request{
		ToolName:            req.ToolName,
		DryRun:              req.DryRun,
		Confirmed:           req.Confirmed,
		ConfirmationToken:   req.ConfirmationToken,
		SecondConfirmToken:  req.SecondConfirmToken,
		RequireConfirmation: d.requireConfirmation,
	}); err != nil {
		return errorResponse(err)
	}

	dctx := Context{
		UserID:             req.UserID,
		SessionID:          req.SessionID,
		ToolName:           req.ToolName,
		TurnIndex:          req.TurnIndex,
		Timestamp:          d.clock(),
		DryRun:             req.DryRun,
		Confirmed:          req.Confirmed,
		ConfirmationToken:  req.ConfirmationToken,
		SecondConfirmToken: req.SecondConfirmToken,
	}

	result := safeInvoke(ctx, handler, input, dctx)
	return Response{IsError: !result.Success, Output: result}
}

// safeInvoke recovers from handler panics so they never propagate past the
// dispatcher.
func safeInvoke(ctx context.Context, handler Handler, input any, dctx Context) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Success: false, ErrorMessage: fmt.Sprintf("internal error: %v", r)}
		}
	}()
	return handler.Handle(ctx, input, dctx)
}

func decodeToMap(raw json.RawMessage) (map[string]json.RawMessage, error) {
	if len(raw) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func errorResponse(err error) Response {
	return Response{
		IsError: true,
		Output:  Result{Success: false, ErrorMessage: err.Error()},
	}
}

func (d *Dispatcher) recordMetrics(tool string, resp Response, dur time.Duration) {
	if d.metrics == nil {
		return
	}
	outcome := "ok"
	if resp.IsError {
		outcome = "error"
	}
	d.metrics.ToolCallTotal.WithLabelValues(tool, outcome).Inc()
	d.metrics.ToolCallDuration.WithLabelValues(tool).Observe(dur.Seconds())
}

func (d *Dispatcher) appendSession(ctx context.Context, req Request, resp Response) {
	if d.sessions == nil {
		return
	}
	var outputOrError any = resp.Output
	d.sessions.Append(ctx, req.UserID, req.SessionID, model.SessionTurn{
		TurnIndex:     req.TurnIndex,
		ToolName:      req.ToolName,
		Input:         json.RawMessage(req.Input),
		OutputOrError: outputOrError,
		Timestamp:     d.clock(),
	})
}
