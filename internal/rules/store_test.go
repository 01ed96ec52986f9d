package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thegrumpylion/google-mcp/internal/gmailerr"
	"github.com/thegrumpylion/google-mcp/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(filepath.Join(dir, "rules.json"))
}

func validRule(name string) model.Rule {
	return model.Rule{
		Name:       name,
		IsEnabled:  true,
		Conditions: []model.Condition{{Field: model.FieldFrom, Operator: model.OpContains, Value: "x@example.com"}},
		Actions:    []model.Action{{Type: model.ActionTrash}},
	}
}

func TestStore_AddAssignsIDAndTimestamps(t *testing.T) {
	s := newTestStore(t)
	r, err := s.Add(validRule("rule one"))
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())
	assert.Equal(t, model.ConjunctionAND, r.ConditionConjunction)
}

func TestStore_AddRejectsEmptyConditionsOrActions(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Add(model.Rule{Name: "no-conditions", Actions: []model.Action{{Type: model.ActionTrash}}})
	require.Error(t, err)
	assert.Equal(t, gmailerr.InvalidInput, gmailerr.KindOf(err))

	_, err = s.Add(model.Rule{Name: "no-actions", Conditions: []model.Condition{{Field: model.FieldFrom, Operator: model.OpContains, Value: "a"}}})
	require.Error(t, err)
	assert.Equal(t, gmailerr.InvalidInput, gmailerr.KindOf(err))
}

func TestStore_AddRejectsDuplicateName(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Add(validRule("dup"))
	require.NoError(t, err)
	_, err = s.Add(validRule("dup"))
	require.Error(t, err)
	assert.Equal(t, gmailerr.RuleConflict, gmailerr.KindOf(err))
}

func TestStore_LookupByIDAndName(t *testing.T) {
	s := newTestStore(t)
	r, err := s.Add(validRule("findme"))
	require.NoError(t, err)

	byID, err := s.Lookup(r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Name, byID.Name)

	byName, err := s.Lookup("findme")
	require.NoError(t, err)
	assert.Equal(t, r.ID, byName.ID)
}

func TestStore_LookupNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Lookup("nope")
	require.Error(t, err)
	assert.Equal(t, gmailerr.NotFound, gmailerr.KindOf(err))
}

func TestStore_DeleteByName(t *testing.T) {
	s := newTestStore(t)
	r, err := s.Add(validRule("deleteme"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(r.Name))
	_, err = s.Lookup(r.ID)
	require.Error(t, err)
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")

	s1 := NewStore(path)
	_, err := s1.Add(validRule("persisted"))
	require.NoError(t, err)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("rules.json not created: %v", err)
	}

	s2 := NewStore(path)
	rules, err := s2.List()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "persisted", rules[0].Name)
}

func TestStore_ListOnEmptyStore(t *testing.T) {
	s := newTestStore(t)
	rules, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, rules)
}
