// Package model holds the data types shared across the rule engine, the
// Gmail operation layer and the tool dispatcher.
package model

import (
	"sort"
	"time"
)

// ConditionField enumerates the fields a Condition may inspect.
type ConditionField string

const (
	FieldFrom               ConditionField = "from"
	FieldTo                 ConditionField = "to"
	FieldCc                 ConditionField = "cc"
	FieldSubject            ConditionField = "subject"
	FieldBodySnippet        ConditionField = "body_snippet"
	FieldLabel              ConditionField = "label"
	FieldHasAttachment      ConditionField = "has_attachment"
	FieldAttachmentFilename ConditionField = "attachment_filename"
	FieldMessageSize        ConditionField = "message_size"
	FieldDateAge            ConditionField = "date_age"
)

// ConditionOperator enumerates the recognised operators across all fields.
type ConditionOperator string

const (
	OpContains     ConditionOperator = "contains"
	OpNotContains  ConditionOperator = "not_contains"
	OpEquals       ConditionOperator = "equals"
	OpNotEquals    ConditionOperator = "not_equals"
	OpStartsWith   ConditionOperator = "starts_with"
	OpEndsWith     ConditionOperator = "ends_with"
	OpMatchesRegex ConditionOperator = "matches_regex"
	OpIs           ConditionOperator = "is"
	OpOlderThan    ConditionOperator = "older_than"
	OpNewerThan    ConditionOperator = "newer_than"
	OpGreaterThan  ConditionOperator = "greater_than"
	OpLessThan     ConditionOperator = "less_than"
)

// Conjunction joins a rule's conditions.
type Conjunction string

const (
	ConjunctionAND Conjunction = "AND"
	ConjunctionOR  Conjunction = "OR"
)

// ActionType enumerates the action kinds a rule may apply.
type ActionType string

const (
	ActionTrash             ActionType = "trash"
	ActionDeletePermanently ActionType = "delete_permanently"
	ActionAddLabel          ActionType = "add_label"
	ActionRemoveLabel       ActionType = "remove_label"
	ActionMarkRead          ActionType = "mark_read"
	ActionMarkUnread        ActionType = "mark_unread"
)

// Condition is a value object: one predicate over a message field.
type Condition struct {
	Field    ConditionField    `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value"`
}

// Action is a value object: one mutation applied to matched messages.
type Action struct {
	Type       ActionType `json:"type"`
	Parameters struct {
		LabelName      string `json:"label_name,omitempty"`
		CreateIfAbsent bool   `json:"create_if_absent,omitempty"`
	} `json:"parameters,omitempty"`
}

// Key returns the ActionPlan accumulator key for this action: the action
// type, further qualified by label name for label actions.
func (a Action) Key() string {
	switch a.Type {
	case ActionAddLabel, ActionRemoveLabel:
		return string(a.Type) + ":" + a.Parameters.LabelName
	default:
		return string(a.Type)
	}
}

// Rule is the persisted entity the Rule Engine applies.
type Rule struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Description          string      `json:"description,omitempty"`
	IsEnabled            bool        `json:"is_enabled"`
	Conditions           []Condition `json:"conditions"`
	ConditionConjunction Conjunction `json:"condition_conjunction"`
	Actions              []Action    `json:"actions"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// EmailStub is the lazy handle returned by listings.
type EmailStub struct {
	ID        string `json:"id"`
	ThreadID  string `json:"thread_id"`
	Snippet   string `json:"snippet,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Cc        string `json:"cc,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Date      string `json:"date,omitempty"`
	ReplyTo   string `json:"reply_to,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// EmailDetails is the fully materialised view of a message.
type EmailDetails struct {
	EmailStub
	Headers      map[string]string `json:"headers"`
	Parts        []MIMEPart        `json:"parts"`
	LabelIDs     []string          `json:"label_ids"`
	InternalDate int64             `json:"internal_date"`
	SizeEstimate int64             `json:"size_estimate"`
}

// MIMEPart is one node of a message's MIME parts tree.
type MIMEPart struct {
	MimeType string     `json:"mime_type"`
	Filename string     `json:"filename,omitempty"`
	Body     string     `json:"body,omitempty"`
	Parts    []MIMEPart `json:"parts,omitempty"`
}

// Thread aggregates the messages and labels of a Gmail conversation.
type Thread struct {
	ID       string      `json:"id"`
	Messages []EmailStub `json:"messages"`
	LabelIDs []string    `json:"label_ids"`
}

// Draft is a composed-but-unsent message.
type Draft struct {
	ID       string   `json:"id"`
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Cc       []string `json:"cc,omitempty"`
	Bcc      []string `json:"bcc,omitempty"`
	ThreadID string   `json:"thread_id,omitempty"`
}

// ActionFailure records one per-item failure surfaced alongside an
// ActionPlan or batch result.
type ActionFailure struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// ActionPlan accumulates matched message ids per action key, deduplicated
//. Zero value is ready to use.
type ActionPlan struct {
	byKey          map[string]map[string]struct{}
	order          []string
	createIfAbsent map[string]bool
}

// NewActionPlan returns an empty, ready-to-use ActionPlan.
func NewActionPlan() *ActionPlan {
	return &ActionPlan{
		byKey:          make(map[string]map[string]struct{}),
		createIfAbsent: make(map[string]bool),
	}
}

// Add records messageID under action a's key, deduplicating automatically.
// For add_label actions, CreateIfAbsent is OR-ed across every rule that
// contributes to the same key: if any rule asks for the label to be
// created, the collapsed action creates it.
func (p *ActionPlan) Add(a Action, messageID string) {
	key := a.Key()
	if p.byKey == nil {
		p.byKey = make(map[string]map[string]struct{})
		p.createIfAbsent = make(map[string]bool)
	}
	set, ok := p.byKey[key]
	if !ok {
		set = make(map[string]struct{})
		p.byKey[key] = set
		p.order = append(p.order, key)
	}
	set[messageID] = struct{}{}
	if a.Type == ActionAddLabel && a.Parameters.CreateIfAbsent {
		p.createIfAbsent[key] = true
	}
}

// CreateIfAbsent reports whether any rule contributing to key requested
// label creation on add_label.
func (p *ActionPlan) CreateIfAbsent(key string) bool { return p.createIfAbsent[key] }

// Keys returns action keys in first-seen order.
func (p *ActionPlan) Keys() []string { return p.order }

// IDs returns the deduplicated message ids for a key, sorted for
// deterministic output.
func (p *ActionPlan) IDs(key string) []string {
	set := p.byKey[key]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of distinct message ids for a key.
func (p *ActionPlan) Count(key string) int { return len(p.byKey[key]) }

// RuleApplicationSummary is the result of apply_rules_to_mailbox.
type RuleApplicationSummary struct {
	TotalMessagesScanned  int                       `json:"total_messages_scanned"`
	EmailsMatchingAnyRule int                       `json:"emails_matching_any_rule"`
	RulesEvaluated        int                       `json:"rules_evaluated"`
	ActionCounts          map[string]int            `json:"action_counts,omitempty"`
	ActionIDs             map[string][]string       `json:"action_ids,omitempty"`
	RuleErrors            map[string]string         `json:"rule_errors,omitempty"`
	SkippedDueToScanLimit []string                  `json:"skipped_due_to_scan_limit,omitempty"`
	Failures              map[string][]ActionFailure `json:"failures,omitempty"`
	DryRun                bool                      `json:"dry_run"`
}

// SessionTurn is one entry of a SessionContext append-only log.
type SessionTurn struct {
	TurnIndex     int       `json:"turn_index"`
	ToolName      string    `json:"tool_name"`
	Input         any       `json:"input"`
	OutputOrError any       `json:"output_or_error"`
	Timestamp     time.Time `json:"timestamp"`
}
