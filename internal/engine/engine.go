package engine

import (
	"go.uber.org/zap"

	"github.com/thegrumpylion/google-mcp/internal/dispatch"
	"github.com/thegrumpylion/google-mcp/internal/gmailops"
	"github.com/thegrumpylion/google-mcp/internal/metrics"
	"github.com/thegrumpylion/google-mcp/internal/rules"
	"github.com/thegrumpylion/google-mcp/internal/session"
)

// Engine threads every component together as an explicit value constructed
// at startup and passed into handlers, rather than process-wide singletons.
// Phase gating of the tool catalogue is handled by the dispatcher (per call)
// and toolset.Bind (catalogue listing); the engine itself is phase-agnostic.
type Engine struct {
	ops       *gmailops.Ops
	ruleStore *rules.Store
	ruleEng   *rules.Engine
	sessions  *session.Store
	registry  *dispatch.Registry
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// New builds an Engine and registers the full tool catalogue.
func New(ops *gmailops.Ops, ruleStore *rules.Store, sessions *session.Store, logger *zap.Logger, m *metrics.Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		ops:       ops,
		ruleStore: ruleStore,
		ruleEng:   rules.NewEngine(ruleStore, ops),
		sessions:  sessions,
		registry:  dispatch.NewRegistry(),
		logger:    logger,
		metrics:   m,
	}
	e.registerEmailTools()
	e.registerThreadTools()
	e.registerDraftTools()
	e.registerRuleTools()
	e.registerSettingsTools()
	return e
}

// Registry exposes the populated tool registry for the dispatcher/toolset.
func (e *Engine) Registry() *dispatch.Registry { return e.registry }

// dataResult is a convenience constructor for a successful handler Result.
func dataResult(data any) dispatch.Result {
	return dispatch.Result{Success: true, Data: data}
}

func errResult(err error) dispatch.Result {
	return dispatch.Result{Success: false, ErrorMessage: err.Error()}
}
