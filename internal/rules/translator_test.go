package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thegrumpylion/google-mcp/internal/model"
)

func cond(field model.ConditionField, op model.ConditionOperator, value string) model.Condition {
	return model.Condition{Field: field, Operator: op, Value: value}
}

func TestTranslate_AllTranslatableAND_NoResidual(t *testing.T) {
	r := model.Rule{
		ConditionConjunction: model.ConjunctionAND,
		Conditions: []model.Condition{
			cond(model.FieldFrom, model.OpContains, "newsletter@example.com"),
			cond(model.FieldDateAge, model.OpOlderThan, "30d"),
		},
	}
	tr := Translate(r)
	assert.False(t, tr.HasResidual())
	assert.False(t, tr.NeedsFullMessage)
	assert.Contains(t, tr.ServerQuery, "from:newsletter@example.com")
	assert.Contains(t, tr.ServerQuery, "older_than:30d")
}

func TestTranslate_UntranslatableCondition_ResidualRequired(t *testing.T) {
	r := model.Rule{
		ConditionConjunction: model.ConjunctionAND,
		Conditions: []model.Condition{
			cond(model.FieldFrom, model.OpContains, "billing@example.com"),
			cond(model.FieldBodySnippet, model.OpContains, "invoice"),
		},
	}
	tr := Translate(r)
	require.True(t, tr.HasResidual())
	assert.True(t, tr.NeedsFullMessage)
	assert.Contains(t, tr.ServerQuery, "from:billing@example.com")
}

func TestTranslate_ORWithUntranslatableDisjunct_EmptyQueryFullScan(t *testing.T) {
	r := model.Rule{
		ConditionConjunction: model.ConjunctionOR,
		Conditions: []model.Condition{
			cond(model.FieldBodySnippet, model.OpContains, "unsubscribe"),
		},
	}
	tr := Translate(r)
	assert.Equal(t, "", tr.ServerQuery)
	require.True(t, tr.HasResidual())
	assert.True(t, tr.NeedsFullMessage)
}

func TestTranslate_ORAllTranslatable_NoResidual(t *testing.T) {
	r := model.Rule{
		ConditionConjunction: model.ConjunctionOR,
		Conditions: []model.Condition{
			cond(model.FieldFrom, model.OpContains, "a@example.com"),
			cond(model.FieldFrom, model.OpContains, "b@example.com"),
		},
	}
	tr := Translate(r)
	assert.Contains(t, tr.ServerQuery, "OR")
	assert.False(t, tr.HasResidual())
	assert.False(t, tr.NeedsFullMessage)
}

func TestTranslate_ORMixedTranslatable_ResidualSupersetCheck(t *testing.T) {
	r := model.Rule{
		ConditionConjunction: model.ConjunctionOR,
		Conditions: []model.Condition{
			cond(model.FieldFrom, model.OpContains, "a@example.com"),
			cond(model.FieldBodySnippet, model.OpContains, "promo"),
		},
	}
	tr := Translate(r)
	assert.NotEmpty(t, tr.ServerQuery)
	require.True(t, tr.HasResidual())
	assert.True(t, tr.NeedsFullMessage)
}

func TestTranslate_HeaderOnlyResidual_DoesNotNeedFullMessage(t *testing.T) {
	r := model.Rule{
		ConditionConjunction: model.ConjunctionAND,
		Conditions: []model.Condition{
			cond(model.FieldSubject, model.OpMatchesRegex, "^Re:"),
			cond(model.FieldFrom, model.OpContains, "x@example.com"),
		},
	}
	tr := Translate(r)
	require.True(t, tr.HasResidual())
	assert.False(t, tr.NeedsFullMessage)
	assert.Contains(t, tr.RequiredHeaders, "Subject")
}

func TestTranslate_ORHeaderOnlyResidual_DoesNotNeedFullMessage(t *testing.T) {
	r := model.Rule{
		ConditionConjunction: model.ConjunctionOR,
		Conditions: []model.Condition{
			cond(model.FieldSubject, model.OpMatchesRegex, "^Re:"),
			cond(model.FieldFrom, model.OpNotEquals, "noreply@example.com"),
		},
	}
	tr := Translate(r)
	assert.Equal(t, "", tr.ServerQuery)
	require.True(t, tr.HasResidual())
	assert.False(t, tr.NeedsFullMessage)
}

func TestTranslate_InvalidSizeValue_Warning(t *testing.T) {
	r := model.Rule{
		Conditions: []model.Condition{
			cond(model.FieldMessageSize, model.OpGreaterThan, "not-a-size"),
		},
	}
	tr := Translate(r)
	require.Len(t, tr.Warnings, 1)
	assert.Contains(t, tr.Warnings[0], "not-a-size")
}

func TestTranslate_RequiredHeaders(t *testing.T) {
	r := model.Rule{
		Conditions: []model.Condition{
			cond(model.FieldFrom, model.OpContains, "x@example.com"),
			cond(model.FieldSubject, model.OpEquals, "Weekly digest"),
		},
	}
	tr := Translate(r)
	assert.ElementsMatch(t, []string{"From", "Subject"}, tr.RequiredHeaders)
}

func TestEvalAge_OlderThan(t *testing.T) {
	orig := clockNow
	defer func() { clockNow = orig }()
	fixedNow := time.Unix(1_700_000_000, 0)
	clockNow = func() time.Time { return fixedNow }

	// internal date 40 days before the fixed clock.
	internalDateMillis := (fixedNow.Unix() - 40*86400) * 1000
	d := &model.EmailDetails{InternalDate: internalDateMillis}
	assert.True(t, evalCondition(cond(model.FieldDateAge, model.OpOlderThan, "30d"), d))
	assert.False(t, evalCondition(cond(model.FieldDateAge, model.OpNewerThan, "30d"), d))
}

func TestEvalCondition_HasAttachment(t *testing.T) {
	d := &model.EmailDetails{
		Parts: []model.MIMEPart{
			{MimeType: "text/plain", Body: "hello"},
			{MimeType: "application/pdf", Filename: "invoice.pdf"},
		},
	}
	assert.True(t, evalCondition(cond(model.FieldHasAttachment, model.OpIs, "true"), d))
	assert.False(t, evalCondition(cond(model.FieldHasAttachment, model.OpIs, "false"), d))
}

func TestEvalCondition_AttachmentFilename(t *testing.T) {
	d := &model.EmailDetails{
		Parts: []model.MIMEPart{
			{MimeType: "application/pdf", Filename: "invoice-march.pdf"},
		},
	}
	assert.True(t, evalCondition(cond(model.FieldAttachmentFilename, model.OpContains, "march"), d))
	assert.False(t, evalCondition(cond(model.FieldAttachmentFilename, model.OpContains, "april"), d))
}

func TestEvalCondition_MessageSize(t *testing.T) {
	d := &model.EmailDetails{SizeEstimate: 2 * 1024 * 1024}
	assert.True(t, evalCondition(cond(model.FieldMessageSize, model.OpGreaterThan, "1M"), d))
	assert.False(t, evalCondition(cond(model.FieldMessageSize, model.OpLessThan, "1M"), d))
}

func TestEvalConjunction_EmptyConditions(t *testing.T) {
	assert.True(t, evalConjunction(model.ConjunctionAND, nil, &model.EmailDetails{}))
}
