package engine

import (
	"context"

	"github.com/thegrumpylion/google-mcp/internal/dispatch"
	"github.com/thegrumpylion/google-mcp/internal/model"
	"github.com/thegrumpylion/google-mcp/internal/rules"
)

func (e *Engine) registerRuleTools() {
	e.registry.Register(dispatch.Handler{
		Name:     "list_rules",
		NewInput: func() any { return &listRulesInput{} },
		Handle:   e.handleListRules,
	})
	e.registry.Register(dispatch.Handler{
		Name:     "get_rule_details",
		NewInput: func() any { return &ruleIdentifierInput{} },
		Handle:   e.handleGetRuleDetails,
	})
	e.registry.Register(dispatch.Handler{
		Name:     "add_rule",
		NewInput: func() any { return &addRuleInput{} },
		Handle:   e.handleAddRule,
	})
	e.registry.Register(dispatch.Handler{
		Name:     "delete_rule",
		NewInput: func() any { return &ruleIdentifierInput{} },
		Handle:   e.handleDeleteRule,
	})
	e.registry.Register(dispatch.Handler{
		Name:        "apply_rules",
		NewInput:    func() any { return &applyRulesInput{} },
		ArrayFields: []string{"rule_ids"},
		Handle:      e.handleApplyRules,
	})
}

// ruleSummary is the list_rules(summary_view=true) projection.
type ruleSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsEnabled   bool   `json:"is_enabled"`
	Description string `json:"description,omitempty"`
}

func (e *Engine) handleListRules(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*listRulesInput)
	summaryView := true
	if in.SummaryView != nil {
		summaryView = *in.SummaryView
	}
	all, err := e.ruleStore.List()
	if err != nil {
		return errResult(err)
	}
	if !summaryView {
		return dataResult(all)
	}
	summaries := make([]ruleSummary, len(all))
	for i, r := range all {
		summaries[i] = ruleSummary{ID: r.ID, Name: r.Name, IsEnabled: r.IsEnabled, Description: r.Description}
	}
	return dataResult(summaries)
}

func (e *Engine) handleGetRuleDetails(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*ruleIdentifierInput)
	r, err := e.ruleStore.Lookup(in.RuleIDOrName)
	if err != nil {
		return errResult(err)
	}
	return dataResult(r)
}

func (e *Engine) handleAddRule(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*addRuleInput)

	conditions := make([]model.Condition, len(in.Conditions))
	for i, c := range in.Conditions {
		conditions[i] = model.Condition{
			Field:    model.ConditionField(c.Field),
			Operator: model.ConditionOperator(c.Operator),
			Value:    c.Value,
		}
	}
	actions := make([]model.Action, len(in.Actions))
	for i, a := range in.Actions {
		action := model.Action{Type: model.ActionType(a.Type)}
		action.Parameters.LabelName = a.Parameters.LabelName
		action.Parameters.CreateIfAbsent = a.Parameters.CreateIfAbsent
		actions[i] = action
	}

	conjunction := model.Conjunction(in.ConditionConjunction)
	if conjunction == "" {
		conjunction = model.ConjunctionAND
	}

	r, err := e.ruleStore.Add(model.Rule{
		Name:                 in.Name,
		Description:          in.Description,
		IsEnabled:            in.IsEnabled,
		Conditions:           conditions,
		ConditionConjunction: conjunction,
		Actions:              actions,
	})
	if err != nil {
		return errResult(err)
	}
	return dataResult(r)
}

func (e *Engine) handleDeleteRule(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*ruleIdentifierInput)
	if err := e.ruleStore.Delete(in.RuleIDOrName); err != nil {
		return errResult(err)
	}
	return dataResult(map[string]any{"deleted": true})
}

func (e *Engine) handleApplyRules(ctx context.Context, rawInput any, dctx dispatch.Context) dispatch.Result {
	in := rawInput.(*applyRulesInput)
	summary, err := e.ruleEng.Apply(ctx, rules.ApplyOptions{
		GlobalQuery:        in.GlobalQuery,
		RuleIDs:            in.RuleIDs,
		DryRun:             in.DryRun || dctx.DryRun,
		ScanLimit:          in.ScanLimit,
		DateAfter:          in.DateAfter,
		DateBefore:         in.DateBefore,
		AllMail:            in.AllMail,
		IncludeDetailedIDs: in.IncludeDetailedIDs,
	})
	if err != nil {
		return errResult(err)
	}
	return dataResult(summary)
}
