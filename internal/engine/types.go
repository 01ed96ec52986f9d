// Package engine wires the Gmail Operation Layer, Rule Store, Rule Engine
// and Session Store into the fixed tool catalogue, registered on a
// dispatch.Registry.
package engine

import "github.com/thegrumpylion/google-mcp/internal/model"

// --- email operations ---

type listEmailsInput struct {
	Query          string   `json:"query,omitempty"`
	MaxResults     int64    `json:"max_results,omitempty" validate:"omitempty,min=1,max=500"`
	PageToken      string   `json:"page_token,omitempty"`
	IncludeHeaders []string `json:"include_headers,omitempty"`
}

type listEmailsOutput struct {
	EmailSummaries []model.EmailStub `json:"email_summaries"`
	NextPageToken  string            `json:"next_page_token,omitempty"`
}

type getEmailDetailsInput struct {
	MessageID      string   `json:"message_id" validate:"required"`
	Format         string   `json:"format,omitempty" validate:"omitempty,oneof=full metadata raw"`
	IncludeHeaders []string `json:"include_headers,omitempty"`
}

type messageIDsInput struct {
	MessageIDs []string `json:"message_ids" validate:"required,min=1"`
}

type itemOutcomesOutput struct {
	TrashedCount  int                   `json:"trashed_count,omitempty"`
	ModifiedCount int                   `json:"modified_count,omitempty"`
	StatusMessage string                `json:"status_message,omitempty"`
	Failures      []model.ActionFailure `json:"failures,omitempty"`
}

type labelEmailsInput struct {
	MessageIDs       []string `json:"message_ids" validate:"required,min=1"`
	AddLabelNames    []string `json:"add_label_names,omitempty"`
	RemoveLabelNames []string `json:"remove_label_names,omitempty"`
}

type markEmailsInput struct {
	MessageIDs []string `json:"message_ids" validate:"required,min=1"`
	MarkAs     string   `json:"mark_as" validate:"required,oneof=read unread"`
}

// --- thread operations ---

type listThreadsInput struct {
	Query      string `json:"query,omitempty"`
	MaxResults int64  `json:"max_results,omitempty" validate:"omitempty,min=1,max=500"`
	PageToken  string `json:"page_token,omitempty"`
}

type getThreadDetailsInput struct {
	ThreadID string `json:"thread_id" validate:"required"`
	Format   string `json:"format,omitempty" validate:"omitempty,oneof=full metadata raw"`
}

type modifyThreadLabelsInput struct {
	ThreadID         string   `json:"thread_id" validate:"required"`
	AddLabelNames    []string `json:"add_label_names,omitempty"`
	RemoveLabelNames []string `json:"remove_label_names,omitempty"`
}

type threadIDInput struct {
	ThreadID string `json:"thread_id" validate:"required"`
}

// --- draft operations ---

type createDraftInput struct {
	To       []string `json:"to" validate:"required,min=1"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Cc       []string `json:"cc,omitempty"`
	Bcc      []string `json:"bcc,omitempty"`
	ThreadID string   `json:"thread_id,omitempty"`
}

type updateDraftInput struct {
	DraftID  string   `json:"draft_id" validate:"required"`
	To       []string `json:"to" validate:"required,min=1"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Cc       []string `json:"cc,omitempty"`
	Bcc      []string `json:"bcc,omitempty"`
	ThreadID string   `json:"thread_id,omitempty"`
}

type draftIDInput struct {
	DraftID string `json:"draft_id" validate:"required"`
}

type listDraftsInput struct {
	PageToken  string `json:"page_token,omitempty"`
	MaxResults int64  `json:"max_results,omitempty" validate:"omitempty,min=1,max=500"`
}

// --- rule operations ---

type listRulesInput struct {
	SummaryView *bool `json:"summary_view,omitempty"`
}

type ruleIdentifierInput struct {
	RuleIDOrName string `json:"rule_id_or_name" validate:"required"`
}

type conditionInput struct {
	Field    string `json:"field" validate:"required"`
	Operator string `json:"operator" validate:"required"`
	Value    string `json:"value" validate:"required"`
}

type actionInput struct {
	Type       string `json:"type" validate:"required"`
	Parameters struct {
		LabelName      string `json:"label_name,omitempty"`
		CreateIfAbsent bool   `json:"create_if_absent,omitempty"`
	} `json:"parameters,omitempty"`
}

type addRuleInput struct {
	Name                 string           `json:"name" validate:"required"`
	Description          string           `json:"description,omitempty"`
	IsEnabled            bool             `json:"is_enabled"`
	Conditions           []conditionInput `json:"conditions" validate:"required,min=1"`
	ConditionConjunction string           `json:"condition_conjunction,omitempty" validate:"omitempty,oneof=AND OR"`
	Actions              []actionInput    `json:"actions" validate:"required,min=1"`
}

type applyRulesInput struct {
	GlobalQuery        string   `json:"global_query,omitempty"`
	RuleIDs            []string `json:"rule_ids,omitempty"`
	DryRun             bool     `json:"dry_run"`
	ScanLimit          *int     `json:"scan_limit,omitempty"`
	DateAfter          string   `json:"date_after,omitempty"`
	DateBefore         string   `json:"date_before,omitempty"`
	AllMail            bool     `json:"all_mail,omitempty"`
	IncludeDetailedIDs bool     `json:"include_detailed_ids,omitempty"`
}

// --- settings operations ---

type updateVacationInput struct {
	EnableAutoReply     bool   `json:"enable_auto_reply"`
	ResponseSubject     string `json:"response_subject,omitempty"`
	ResponseBodyPlain   string `json:"response_body_plain_text,omitempty"`
	StartTime           int64  `json:"start_time,omitempty"`
	EndTime             int64  `json:"end_time,omitempty"`
	RestrictToContacts  bool   `json:"restrict_to_contacts,omitempty"`
	RestrictToDomain    bool   `json:"restrict_to_domain,omitempty"`
}

type updateImapInput struct {
	Enabled           bool   `json:"enabled"`
	AutoExpunge       bool   `json:"auto_expunge,omitempty"`
	ExpungeBehavior   string `json:"expunge_behavior,omitempty"`
	MaxFolderSize     int64  `json:"max_folder_size,omitempty"`
}

type updatePopInput struct {
	AccessWindow string `json:"access_window,omitempty"`
	Disposition  string `json:"disposition,omitempty"`
}
