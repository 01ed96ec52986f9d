package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thegrumpylion/google-mcp/internal/dispatch"
	"github.com/thegrumpylion/google-mcp/internal/rules"
	"github.com/thegrumpylion/google-mcp/internal/session"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store := rules.NewStore(filepath.Join(t.TempDir(), "rules.json"))
	sessions := session.New(session.Config{}, nil, nil)
	return New(nil, store, sessions, nil, nil)
}

func TestNew_RegistersFullToolCatalogue(t *testing.T) {
	e := newTestEngine(t)
	names := e.Registry().Names()
	for _, want := range []string{
		"list_emails", "get_email_details", "trash_emails", "delete_emails_permanently",
		"label_emails", "mark_emails",
		"list_threads", "get_thread_details", "modify_thread_labels", "trash_thread", "delete_thread_permanently",
		"create_draft", "update_draft", "send_draft", "list_drafts", "get_draft_details", "delete_draft",
		"list_rules", "get_rule_details", "add_rule", "delete_rule", "apply_rules",
		"get_vacation_settings", "update_vacation_settings", "get_imap_settings", "update_imap_settings", "get_pop_settings", "update_pop_settings",
	} {
		assert.Contains(t, names, want)
	}
}

func TestDataResult_WrapsValueAsSuccess(t *testing.T) {
	res := dataResult(map[string]string{"k": "v"})
	assert.True(t, res.Success)
	assert.Equal(t, map[string]string{"k": "v"}, res.Data)
}

func TestErrResult_WrapsErrorMessage(t *testing.T) {
	res := errResult(assert.AnError)
	assert.False(t, res.Success)
	assert.Equal(t, assert.AnError.Error(), res.ErrorMessage)
}

func TestHandleAddRuleAndListRules_SummaryView(t *testing.T) {
	e := newTestEngine(t)

	addHandler, ok := e.Registry().Lookup("add_rule")
	require.True(t, ok)
	addResult := addHandler.Handle(context.Background(), &addRuleInput{
		Name:       "trash newsletters",
		IsEnabled:  true,
		Conditions: []conditionInput{{Field: "from", Operator: "contains", Value: "newsletter@example.com"}},
		Actions:    []actionInput{{Type: "trash"}},
	}, dispatch.Context{})
	require.True(t, addResult.Success)

	listHandler, ok := e.Registry().Lookup("list_rules")
	require.True(t, ok)
	listResult := listHandler.Handle(context.Background(), &listRulesInput{}, dispatch.Context{})
	require.True(t, listResult.Success)
	summaries, ok := listResult.Data.([]ruleSummary)
	require.True(t, ok)
	require.Len(t, summaries, 1)
	assert.Equal(t, "trash newsletters", summaries[0].Name)
}

func TestHandleGetRuleDetails_NotFound(t *testing.T) {
	e := newTestEngine(t)
	h, ok := e.Registry().Lookup("get_rule_details")
	require.True(t, ok)
	res := h.Handle(context.Background(), &ruleIdentifierInput{RuleIDOrName: "missing"}, dispatch.Context{})
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestHandleDeleteRule_RemovesByName(t *testing.T) {
	e := newTestEngine(t)

	addHandler, _ := e.Registry().Lookup("add_rule")
	addHandler.Handle(context.Background(), &addRuleInput{
		Name:       "to remove",
		Conditions: []conditionInput{{Field: "from", Operator: "contains", Value: "x@example.com"}},
		Actions:    []actionInput{{Type: "trash"}},
	}, dispatch.Context{})

	deleteHandler, ok := e.Registry().Lookup("delete_rule")
	require.True(t, ok)
	res := deleteHandler.Handle(context.Background(), &ruleIdentifierInput{RuleIDOrName: "to remove"}, dispatch.Context{})
	require.True(t, res.Success)

	getHandler, _ := e.Registry().Lookup("get_rule_details")
	getRes := getHandler.Handle(context.Background(), &ruleIdentifierInput{RuleIDOrName: "to remove"}, dispatch.Context{})
	assert.False(t, getRes.Success)
}
