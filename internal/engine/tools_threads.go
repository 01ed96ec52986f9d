package engine

import (
	"context"

	"github.com/thegrumpylion/google-mcp/internal/dispatch"
	"github.com/thegrumpylion/google-mcp/internal/gmailclient"
)

func (e *Engine) registerThreadTools() {
	e.registry.Register(dispatch.Handler{
		Name:     "list_threads",
		NewInput: func() any { return &listThreadsInput{} },
		Handle:   e.handleListThreads,
	})
	e.registry.Register(dispatch.Handler{
		Name:     "get_thread_details",
		NewInput: func() any { return &getThreadDetailsInput{} },
		Handle:   e.handleGetThreadDetails,
	})
	e.registry.Register(dispatch.Handler{
		Name:        "modify_thread_labels",
		NewInput:    func() any { return &modifyThreadLabelsInput{} },
		ArrayFields: []string{"add_label_names", "remove_label_names"},
		Handle:      e.handleModifyThreadLabels,
	})
	e.registry.Register(dispatch.Handler{
		Name:     "trash_thread",
		NewInput: func() any { return &threadIDInput{} },
		Handle:   e.handleTrashThread,
	})
	e.registry.Register(dispatch.Handler{
		Name:     "delete_thread_permanently",
		NewInput: func() any { return &threadIDInput{} },
		Handle:   e.handleDeleteThreadPermanently,
	})
}

func (e *Engine) handleListThreads(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*listThreadsInput)
	maxResults := in.MaxResults
	if maxResults == 0 {
		maxResults = 100
	}
	res, err := e.ops.ListThreads(ctx, in.Query, in.PageToken, maxResults)
	if err != nil {
		return errResult(err)
	}
	return dataResult(listEmailsOutput{EmailSummaries: res.Stubs, NextPageToken: res.NextPageToken})
}

func (e *Engine) handleGetThreadDetails(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*getThreadDetailsInput)
	format := gmailclient.FormatMetadata
	switch in.Format {
	case "full":
		format = gmailclient.FormatFull
	case "raw":
		format = gmailclient.FormatRaw
	}
	thread, err := e.ops.GetThreadDetails(ctx, in.ThreadID, format)
	if err != nil {
		return errResult(err)
	}
	return dataResult(thread)
}

func (e *Engine) handleModifyThreadLabels(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*modifyThreadLabelsInput)
	if err := e.ops.ModifyThreadLabels(ctx, in.ThreadID, in.AddLabelNames, in.RemoveLabelNames); err != nil {
		return errResult(err)
	}
	return dataResult(map[string]any{"modified_count": 1})
}

func (e *Engine) handleTrashThread(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*threadIDInput)
	if err := e.ops.TrashThread(ctx, in.ThreadID); err != nil {
		return errResult(err)
	}
	return dataResult(map[string]any{"trashed_count": 1})
}

func (e *Engine) handleDeleteThreadPermanently(ctx context.Context, rawInput any, _ dispatch.Context) dispatch.Result {
	in := rawInput.(*threadIDInput)
	if err := e.ops.DeleteThreadPermanently(ctx, in.ThreadID); err != nil {
		return errResult(err)
	}
	return dataResult(map[string]any{"trashed_count": 1})
}
