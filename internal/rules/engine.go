package rules

import (
	"context"
	"fmt"

	"github.com/thegrumpylion/google-mcp/internal/batch"
	"github.com/thegrumpylion/google-mcp/internal/gmailerr"
	"github.com/thegrumpylion/google-mcp/internal/model"
)

// Mailbox is the subset of the Gmail Operation Layer the Rule Engine needs.
// Implemented by gmailops.Ops; kept as an interface here so rules has no
// import-time dependency on the Gmail client wiring.
type Mailbox interface {
	ListMessageIDs(ctx context.Context, query, pageToken string, maxResults int64) (ids []string, nextPageToken string, err error)
	GetMessageDetails(ctx context.Context, id string, needsFull bool, headers []string) (model.EmailDetails, error)
	ResolveLabelID(ctx context.Context, name string, createIfAbsent bool) (string, error)
	TrashMessages(ctx context.Context, ids []string) []batch.Outcome[struct{}]
	DeleteMessagesForever(ctx context.Context, ids []string) []batch.Outcome[struct{}]
	BatchModifyMessageLabels(ctx context.Context, ids []string, addLabelIDs, removeLabelIDs []string) error
}

// Engine is the Rule Engine: it resolves active rules, streams
// candidates through the Query Translator and Batch Executor, and collapses
// matched messages into an ActionPlan.
type Engine struct {
	store   *Store
	mailbox Mailbox
	listPageSize int64
}

// NewEngine builds a rule Engine over store and mailbox.
func NewEngine(store *Store, mailbox Mailbox) *Engine {
	return &Engine{store: store, mailbox: mailbox, listPageSize: 100}
}

// ApplyOptions are the inputs to apply_rules_to_mailbox.
type ApplyOptions struct {
	GlobalQuery         string
	RuleIDs             []string // names or ids; empty means all enabled rules
	DryRun              bool
	ScanLimit           *int
	DateAfter           string
	DateBefore          string
	AllMail             bool
	IncludeDetailedIDs  bool
}

// Apply runs apply_rules_to_mailbox end to end.
func (e *Engine) Apply(ctx context.Context, opts ApplyOptions) (model.RuleApplicationSummary, error) {
	allRules, err := e.store.List()
	if err != nil {
		return model.RuleApplicationSummary{}, err
	}

	active := selectActiveRules(allRules, opts.RuleIDs)

	dateWindow := computeDateWindow(opts.AllMail, opts.DateAfter, opts.DateBefore)

	summary := model.RuleApplicationSummary{
		DryRun:     opts.DryRun,
		ActionIDs:  make(map[string][]string),
		RuleErrors: make(map[string]string),
		Failures:   make(map[string][]model.ActionFailure),
	}

	plan := model.NewActionPlan()
	matchedIDs := make(map[string]struct{})
	scanned := 0
	scanLimit := -1
	if opts.ScanLimit != nil {
		scanLimit = *opts.ScanLimit
	}

	for _, rule := range active {
		if scanLimit >= 0 && scanned >= scanLimit {
			summary.SkippedDueToScanLimit = append(summary.SkippedDueToScanLimit, rule.Name)
			continue
		}

		translation := Translate(rule)
		combinedQuery := joinNonEmpty(opts.GlobalQuery, dateWindow, translation.ServerQuery)
		if rule.ConditionConjunction == model.ConjunctionOR && translation.HasResidual() {
			// The translated disjuncts alone would miss messages matching only
			// an untranslatable one, so the whole window is listed and the
			// residual predicate decides.
			combinedQuery = joinNonEmpty(opts.GlobalQuery, dateWindow)
		}

		ruleScanned, ruleMatched, err := e.applyOneRule(ctx, rule, translation, combinedQuery, &scanned, scanLimit, plan, matchedIDs)
		summary.TotalMessagesScanned += ruleScanned
		summary.EmailsMatchingAnyRule += len(ruleMatched)
		summary.RulesEvaluated++
		if err != nil {
			summary.RuleErrors[rule.Name] = err.Error()
		}
	}

	e.collapseAndMaybeExecute(ctx, plan, opts.DryRun, &summary)

	if !opts.IncludeDetailedIDs {
		summary.ActionIDs = nil
	}

	return summary, nil
}

func selectActiveRules(all []model.Rule, ruleIDs []string) []model.Rule {
	filter := make(map[string]struct{}, len(ruleIDs))
	for _, id := range ruleIDs {
		filter[id] = struct{}{}
	}
	var active []model.Rule
	for _, r := range all {
		if !r.IsEnabled {
			continue
		}
		if len(filter) > 0 {
			_, byID := filter[r.ID]
			_, byName := filter[r.Name]
			if !byID && !byName {
				continue
			}
		}
		active = append(active, r)
	}
	return active
}

// computeDateWindow implements the Open Question decision recorded in
// DESIGN.md: explicit date_after/date_before are additive constraints
// independent of all_mail; the default 30-day window only applies when
// neither all_mail nor an explicit bound is given.
func computeDateWindow(allMail bool, dateAfter, dateBefore string) string {
	var parts []string
	if dateAfter != "" {
		parts = append(parts, "after:"+dateAfter)
	}
	if dateBefore != "" {
		parts = append(parts, "before:"+dateBefore)
	}
	if len(parts) > 0 {
		return joinNonEmpty(parts...)
	}
	if allMail {
		return ""
	}
	return "newer_than:30d"
}

func joinNonEmpty(parts ...string) string {
	var out string
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}

// applyOneRule pages through candidates for one rule, evaluates residuals,
// and accumulates matches into plan. Returns the count scanned for this
// rule and the set of matched ids.
func (e *Engine) applyOneRule(ctx context.Context, rule model.Rule, translation Translation, combinedQuery string, scanned *int, scanLimit int, plan *model.ActionPlan, globalMatched map[string]struct{}) (int, []string, error) {
	var ruleScanned int
	var matched []string
	pageToken := ""

	for {
		if scanLimit >= 0 && *scanned >= scanLimit {
			break
		}
		maxResults := e.listPageSize
		if scanLimit >= 0 {
			remaining := int64(scanLimit - *scanned)
			if remaining < maxResults {
				maxResults = remaining
			}
		}
		if maxResults <= 0 {
			break
		}

		ids, next, err := e.mailbox.ListMessageIDs(ctx, combinedQuery, pageToken, maxResults)
		if err != nil {
			return ruleScanned, matched, err
		}
		ruleScanned += len(ids)
		*scanned += len(ids)

		candidateMatches, err := e.evaluateCandidates(ctx, ids, translation)
		if err != nil {
			return ruleScanned, matched, err
		}
		for _, id := range candidateMatches {
			for _, action := range rule.Actions {
				plan.Add(action, id)
			}
			if _, seen := globalMatched[id]; !seen {
				globalMatched[id] = struct{}{}
				matched = append(matched, id)
			}
		}

		if next == "" || len(ids) == 0 {
			break
		}
		pageToken = next
	}
	return ruleScanned, matched, nil
}

// evaluateCandidates applies the translation's residual predicate (if any)
// to each candidate, fetching EmailDetails via the Batch Executor only when
// a residual check is required.
func (e *Engine) evaluateCandidates(ctx context.Context, ids []string, translation Translation) ([]string, error) {
	if !translation.HasResidual() {
		return ids, nil
	}

	outcomes := batch.Run(ctx, executorFor(e), ids, func(ctx context.Context, id string) (model.EmailDetails, error) {
		return e.mailbox.GetMessageDetails(ctx, id, translation.NeedsFullMessage, translation.RequiredHeaders)
	})

	var matched []string
	for _, o := range outcomes {
		if !o.OK() {
			continue // per-item fetch failure: excluded from matches, not fatal
		}
		details := o.Value
		if translation.Residual(&details) {
			matched = append(matched, details.ID)
		}
	}
	return matched, nil
}

// executorFor returns a batch.Executor sized to the engine's list page
// size; the rule engine shares the same chunking discipline as the tool
// layer.
func executorFor(e *Engine) *batch.Executor {
	return batch.New(batch.Config{ChunkSize: int(e.listPageSize)}, nil)
}

// collapseAndMaybeExecute implements step 4-6: collapse the ActionPlan
// into concrete batch operations and execute them unless dry_run.
func (e *Engine) collapseAndMaybeExecute(ctx context.Context, plan *model.ActionPlan, dryRun bool, summary *model.RuleApplicationSummary) {
	summary.ActionCounts = make(map[string]int)

	for _, key := range plan.Keys() {
		ids := plan.IDs(key)
		summary.ActionCounts[key] = len(ids)
		summary.ActionIDs[key] = ids

		if dryRun {
			continue
		}

		actionType, labelName := splitActionKey(key)
		switch model.ActionType(actionType) {
		case model.ActionTrash:
			outcomes := e.mailbox.TrashMessages(ctx, ids)
			e.recordBatchFailures(key, ids, summary, outcomes)

		case model.ActionDeletePermanently:
			outcomes := e.mailbox.DeleteMessagesForever(ctx, ids)
			e.recordBatchFailures(key, ids, summary, outcomes)

		case model.ActionAddLabel:
			e.applyLabelAction(ctx, key, labelName, ids, true, plan.CreateIfAbsent(key), summary)

		case model.ActionRemoveLabel:
			e.applyLabelAction(ctx, key, labelName, ids, false, false, summary)

		case model.ActionMarkRead:
			// mark_read == remove_label(UNREAD).
			if err := e.mailbox.BatchModifyMessageLabels(ctx, ids, nil, []string{"UNREAD"}); err != nil {
				summary.RuleErrors["mark_read:"+key] = err.Error()
			}

		case model.ActionMarkUnread:
			if err := e.mailbox.BatchModifyMessageLabels(ctx, ids, []string{"UNREAD"}, nil); err != nil {
				summary.RuleErrors["mark_unread:"+key] = err.Error()
			}
		}
	}
}

func (e *Engine) applyLabelAction(ctx context.Context, key, labelName string, ids []string, add, createIfAbsent bool, summary *model.RuleApplicationSummary) {
	labelID, err := e.mailbox.ResolveLabelID(ctx, labelName, createIfAbsent)
	if err != nil {
		summary.RuleErrors[key] = fmt.Sprintf("resolving label %q: %v", labelName, err)
		return
	}
	var addIDs, removeIDs []string
	if add {
		addIDs = []string{labelID}
	} else {
		removeIDs = []string{labelID}
	}
	if err := e.mailbox.BatchModifyMessageLabels(ctx, ids, addIDs, removeIDs); err != nil {
		summary.RuleErrors[key] = err.Error()
	}
}

func (e *Engine) recordBatchFailures(key string, ids []string, summary *model.RuleApplicationSummary, outcomes []batch.Outcome[struct{}]) {
	for _, o := range outcomes {
		if o.OK() {
			continue
		}
		id := ""
		if o.Index >= 0 && o.Index < len(ids) {
			id = ids[o.Index]
		}
		summary.Failures[key] = append(summary.Failures[key], model.ActionFailure{
			ID:   id,
			Kind: gmailerr.KindOf(o.Err).String(),
		})
	}
}

func splitActionKey(key string) (actionType, labelName string) {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
