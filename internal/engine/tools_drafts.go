package engine

import (
	"context"

	"github.com/thegrumpylion/google-mcp/internal/dispatch"
	"github.com/thegrumpylion/google-mcp/internal/gmailops"
)

func (e *Engine) registerDraftTools() {
	e.registry.Register(dispatch.Handler{
		Name:        "create_draft",
		NewInput:    func() any { return &createDraftInput{} },
		ArrayFields: []string{"to", "cc", "bcc"},
		Handle:      e.handleCreateDraft,
	})
	e.registry.Register(dispatch.Handler{
		Name:        "update_draft",
		NewInput:    func() any { return &updateDraftInput{} },
		ArrayFields: []string{"to", "cc", "bcc"},
		Handle:      e.handleUpdateDraft,
	})
	e.registry.Register(dispatch.Handler{
		Name:     "send_draft",
		NewInput: func() any { return &draftIDInput{} },
		Handle:   e.handleSendDraft,
	})
	e.registry.Register(dispatch.Handler{
		Name:     "list_drafts",
		NewInput: func() any { return &listDraftsInput{} },
		Handle:   e.handleListDrafts,
	})
	e.registry.Register(dispatch.Handler{
		Name:     "get_draft_details",
		NewInput: func() any { return &draftIDInput{} },
		Handle:   e.handleGetDraftDetails,
	})
	e.registry.Register(dispatch.Handler{
		Name:     "delete_draft",
		NewInput: func() any { return &draftIDInput{} },
		Handle:   e.handleDeleteDraft,
	})
}

func (e *Engine) handleCreateDraft(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*createDraftInput)
	draft, err := e.ops.CreateDraft(ctx, gmailops.ComposeInput{
		To: in.To, Subject: in.Subject, Body: in.Body, Cc: in.Cc, Bcc: in.Bcc, ThreadID: in.ThreadID,
	})
	if err != nil {
		return errResult(err)
	}
	return dataResult(draft)
}

func (e *Engine) handleUpdateDraft(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*updateDraftInput)
	draft, err := e.ops.UpdateDraft(ctx, in.DraftID, gmailops.ComposeInput{
		To: in.To, Subject: in.Subject, Body: in.Body, Cc: in.Cc, Bcc: in.Bcc, ThreadID: in.ThreadID,
	})
	if err != nil {
		return errResult(err)
	}
	return dataResult(draft)
}

func (e *Engine) handleSendDraft(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*draftIDInput)
	msg, err := e.ops.SendDraft(ctx, in.DraftID)
	if err != nil {
		return errResult(err)
	}
	return dataResult(msg)
}

func (e *Engine) handleListDrafts(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*listDraftsInput)
	maxResults := in.MaxResults
	if maxResults == 0 {
		maxResults = 100
	}
	resp, err := e.ops.ListDrafts(ctx, in.PageToken, maxResults)
	if err != nil {
		return errResult(err)
	}
	return dataResult(resp)
}

func (e *Engine) handleGetDraftDetails(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*draftIDInput)
	draft, err := e.ops.GetDraftDetails(ctx, in.DraftID)
	if err != nil {
		return errResult(err)
	}
	return dataResult(draft)
}

func (e *Engine) handleDeleteDraft(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*draftIDInput)
	if err := e.ops.DeleteDraft(ctx, in.DraftID); err != nil {
		return errResult(err)
	}
	return dataResult(map[string]any{"deleted": true})
}
