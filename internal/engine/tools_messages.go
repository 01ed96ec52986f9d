package engine

import (
	"context"
	"fmt"

	"github.com/thegrumpylion/google-mcp/internal/dispatch"
	"github.com/thegrumpylion/google-mcp/internal/gmailclient"
)

func (e *Engine) registerEmailTools() {
	e.registry.Register(dispatch.Handler{
		Name:     "list_emails",
		NewInput: func() any { return &listEmailsInput{} },
		Handle:   e.handleListEmails,
	})
	e.registry.Register(dispatch.Handler{
		Name:        "get_email_details",
		NewInput:    func() any { return &getEmailDetailsInput{} },
		ArrayFields: []string{"include_headers"},
		Handle:      e.handleGetEmailDetails,
	})
	e.registry.Register(dispatch.Handler{
		Name:        "trash_emails",
		NewInput:    func() any { return &messageIDsInput{} },
		ArrayFields: []string{"message_ids"},
		Handle:      e.handleTrashEmails,
	})
	e.registry.Register(dispatch.Handler{
		Name:        "delete_emails_permanently",
		NewInput:    func() any { return &messageIDsInput{} },
		ArrayFields: []string{"message_ids"},
		Handle:      e.handleDeleteEmailsPermanently,
	})
	e.registry.Register(dispatch.Handler{
		Name:        "label_emails",
		NewInput:    func() any { return &labelEmailsInput{} },
		ArrayFields: []string{"message_ids", "add_label_names", "remove_label_names"},
		Handle:      e.handleLabelEmails,
	})
	e.registry.Register(dispatch.Handler{
		Name:        "mark_emails",
		NewInput:    func() any { return &markEmailsInput{} },
		ArrayFields: []string{"message_ids"},
		Handle:      e.handleMarkEmails,
	})
}

func (e *Engine) handleListEmails(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*listEmailsInput)
	maxResults := in.MaxResults
	if maxResults == 0 {
		maxResults = 100
	}
	res, err := e.ops.ListMessages(ctx, in.Query, in.PageToken, maxResults, in.IncludeHeaders)
	if err != nil {
		return errResult(err)
	}
	return dataResult(listEmailsOutput{EmailSummaries: res.Stubs, NextPageToken: res.NextPageToken})
}

func (e *Engine) handleGetEmailDetails(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*getEmailDetailsInput)
	format := gmailclient.FormatMetadata
	switch in.Format {
	case "full":
		format = gmailclient.FormatFull
	case "raw":
		format = gmailclient.FormatRaw
	}
	details, err := e.ops.GetMessageDetailsByFormat(ctx, in.MessageID, format, in.IncludeHeaders)
	if err != nil {
		return errResult(err)
	}
	return dataResult(details)
}

func (e *Engine) handleTrashEmails(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*messageIDsInput)
	out := e.ops.TrashEmails(ctx, in.MessageIDs)
	return dataResult(itemOutcomesOutput{
		TrashedCount:  out.ModifiedCount,
		StatusMessage: fmt.Sprintf("trashed %d of %d messages", out.ModifiedCount, len(in.MessageIDs)),
		Failures:      out.Failures,
	})
}

func (e *Engine) handleDeleteEmailsPermanently(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*messageIDsInput)
	out := e.ops.DeleteEmailsPermanently(ctx, in.MessageIDs)
	return dataResult(itemOutcomesOutput{
		TrashedCount:  out.ModifiedCount,
		StatusMessage: fmt.Sprintf("permanently deleted %d of %d messages", out.ModifiedCount, len(in.MessageIDs)),
		Failures:      out.Failures,
	})
}

func (e *Engine) handleLabelEmails(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*labelEmailsInput)
	if len(in.AddLabelNames) == 0 && len(in.RemoveLabelNames) == 0 {
		return errResult(fmt.Errorf("label_emails requires at least one of add_label_names or remove_label_names"))
	}
	out, err := e.ops.LabelEmails(ctx, in.MessageIDs, in.AddLabelNames, in.RemoveLabelNames)
	if err != nil {
		return errResult(err)
	}
	return dataResult(itemOutcomesOutput{ModifiedCount: out.ModifiedCount, Failures: out.Failures})
}

func (e *Engine) handleMarkEmails(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*markEmailsInput)
	out := e.ops.MarkEmails(ctx, in.MessageIDs, in.MarkAs == "read")
	return dataResult(itemOutcomesOutput{ModifiedCount: out.ModifiedCount, Failures: out.Failures})
}
