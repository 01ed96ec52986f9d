package gmailops

import (
	"context"
	"sync"

	"github.com/thegrumpylion/google-mcp/internal/batch"
	"github.com/thegrumpylion/google-mcp/internal/gmailclient"
	"github.com/thegrumpylion/google-mcp/internal/gmailerr"
	"github.com/thegrumpylion/google-mcp/internal/model"
)

// Ops is the Gmail Operation Layer: message, thread, draft and settings
// operations built over a rate-limited, retrying gmailclient.Client plus
// the Batch Executor. It satisfies rules.Mailbox.
type Ops struct {
	client *gmailclient.Client
	batch  *batch.Executor

	labelMu    sync.Mutex
	labelByName map[string]string // cached name -> id
}

// New builds an Ops over an authenticated client and shared batch executor.
func New(client *gmailclient.Client, executor *batch.Executor) *Ops {
	return &Ops{client: client, batch: executor, labelByName: make(map[string]string)}
}

// --- rules.Mailbox ---

func (o *Ops) ListMessageIDs(ctx context.Context, query, pageToken string, maxResults int64) ([]string, string, error) {
	res, err := o.client.ListMessages(ctx, query, pageToken, maxResults)
	if err != nil {
		return nil, "", err
	}
	return res.IDs, res.NextPageToken, nil
}

func (o *Ops) GetMessageDetails(ctx context.Context, id string, needsFull bool, headers []string) (model.EmailDetails, error) {
	format := gmailclient.FormatMetadata
	if needsFull {
		format = gmailclient.FormatFull
	}
	msg, err := o.client.GetMessage(ctx, id, format, headers)
	if err != nil {
		return model.EmailDetails{}, err
	}
	return detailsFromMessage(msg), nil
}

func (o *Ops) ResolveLabelID(ctx context.Context, name string, createIfAbsent bool) (string, error) {
	o.labelMu.Lock()
	if id, ok := o.labelByName[name]; ok {
		o.labelMu.Unlock()
		return id, nil
	}
	o.labelMu.Unlock()

	labels, err := o.client.ListLabels(ctx)
	if err != nil {
		return "", err
	}
	o.labelMu.Lock()
	for _, l := range labels {
		o.labelByName[l.Name] = l.Id
	}
	id, ok := o.labelByName[name]
	o.labelMu.Unlock()
	if ok {
		return id, nil
	}

	if !createIfAbsent {
		return "", gmailerr.New(gmailerr.NotFound, "label %q not found", name)
	}
	label, err := o.client.CreateLabel(ctx, name)
	if err != nil {
		return "", err
	}
	o.labelMu.Lock()
	o.labelByName[label.Name] = label.Id
	o.labelMu.Unlock()
	return label.Id, nil
}

func (o *Ops) TrashMessages(ctx context.Context, ids []string) []batch.Outcome[struct{}] {
	return batch.Run(ctx, o.batch, ids, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, o.client.TrashMessage(ctx, id)
	})
}

func (o *Ops) DeleteMessagesForever(ctx context.Context, ids []string) []batch.Outcome[struct{}] {
	return batch.Run(ctx, o.batch, ids, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, o.client.DeleteMessageForever(ctx, id)
	})
}

// BatchModifyMessageLabels applies add/remove label ids to up to 1000 ids
// per Gmail batchModify call, chunked when ids exceeds that.
func (o *Ops) BatchModifyMessageLabels(ctx context.Context, ids []string, addLabelIDs, removeLabelIDs []string) error {
	const gmailBatchModifyLimit = 1000
	for start := 0; start < len(ids); start += gmailBatchModifyLimit {
		end := start + gmailBatchModifyLimit
		if end > len(ids) {
			end = len(ids)
		}
		if err := o.client.BatchModifyMessages(ctx, ids[start:end], addLabelIDs, removeLabelIDs); err != nil {
			return err
		}
	}
	return nil
}

// --- tool-facing message ops ---

// ListMessagesResult is the list_emails response payload.
type ListMessagesResult struct {
	Stubs         []model.EmailStub
	NextPageToken string
}

func (o *Ops) ListMessages(ctx context.Context, query, pageToken string, maxResults int64, includeHeaders []string) (ListMessagesResult, error) {
	listed, err := o.client.ListMessages(ctx, query, pageToken, maxResults)
	if err != nil {
		return ListMessagesResult{}, err
	}
	if len(includeHeaders) == 0 {
		stubs := make([]model.EmailStub, len(listed.IDs))
		for i, id := range listed.IDs {
			stubs[i] = model.EmailStub{ID: id}
		}
		return ListMessagesResult{Stubs: stubs, NextPageToken: listed.NextPageToken}, nil
	}

	outcomes := batch.Run(ctx, o.batch, listed.IDs, func(ctx context.Context, id string) (model.EmailStub, error) {
		msg, err := o.client.GetMessage(ctx, id, gmailclient.FormatMetadata, includeHeaders)
		if err != nil {
			return model.EmailStub{}, err
		}
		return stubFromMessage(msg), nil
	})
	stubs := make([]model.EmailStub, 0, len(outcomes))
	for _, oc := range outcomes {
		if oc.OK() {
			stubs = append(stubs, oc.Value)
		}
	}
	return ListMessagesResult{Stubs: stubs, NextPageToken: listed.NextPageToken}, nil
}

func (o *Ops) GetMessageDetailsByFormat(ctx context.Context, id string, format gmailclient.Format, includeHeaders []string) (model.EmailDetails, error) {
	msg, err := o.client.GetMessage(ctx, id, format, includeHeaders)
	if err != nil {
		return model.EmailDetails{}, err
	}
	return detailsFromMessage(msg), nil
}

// ItemOutcomes is the label_emails/trash_emails-style per-item outcome set.
type ItemOutcomes struct {
	ModifiedCount int
	Failures      []model.ActionFailure
}

func outcomesToResult(ids []string, outcomes []batch.Outcome[struct{}]) ItemOutcomes {
	res := ItemOutcomes{}
	for _, oc := range outcomes {
		if oc.OK() {
			res.ModifiedCount++
			continue
		}
		id := ""
		if oc.Index >= 0 && oc.Index < len(ids) {
			id = ids[oc.Index]
		}
		res.Failures = append(res.Failures, model.ActionFailure{ID: id, Kind: gmailerr.KindOf(oc.Err).String()})
	}
	return res
}

func (o *Ops) TrashEmails(ctx context.Context, ids []string) ItemOutcomes {
	return outcomesToResult(ids, o.TrashMessages(ctx, ids))
}

func (o *Ops) DeleteEmailsPermanently(ctx context.Context, ids []string) ItemOutcomes {
	return outcomesToResult(ids, o.DeleteMessagesForever(ctx, ids))
}

// LabelEmails resolves add/remove label names, then issues one per-item
// modify call so partial failures (e.g. NotFound) surface individually
// rather than via the atomic batchModify
// endpoint, which has no per-item result.
func (o *Ops) LabelEmails(ctx context.Context, ids []string, addLabelNames, removeLabelNames []string) (ItemOutcomes, error) {
	addIDs, err := o.resolveLabelNames(ctx, addLabelNames)
	if err != nil {
		return ItemOutcomes{}, err
	}
	removeIDs, err := o.resolveLabelNames(ctx, removeLabelNames)
	if err != nil {
		return ItemOutcomes{}, err
	}
	outcomes := batch.Run(ctx, o.batch, ids, func(ctx context.Context, id string) (struct{}, error) {
		_, err := o.client.ModifyMessageLabels(ctx, id, addIDs, removeIDs)
		return struct{}{}, err
	})
	return outcomesToResult(ids, outcomes), nil
}

func (o *Ops) resolveLabelNames(ctx context.Context, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, err := o.ResolveLabelID(ctx, name, false)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// MarkEmails implements mark_read/mark_unread as label mutations on UNREAD
//.
func (o *Ops) MarkEmails(ctx context.Context, ids []string, markAsRead bool) ItemOutcomes {
	var add, remove []string
	if markAsRead {
		remove = []string{"UNREAD"}
	} else {
		add = []string{"UNREAD"}
	}
	outcomes := batch.Run(ctx, o.batch, ids, func(ctx context.Context, id string) (struct{}, error) {
		_, err := o.client.ModifyMessageLabels(ctx, id, add, remove)
		return struct{}{}, err
	})
	return outcomesToResult(ids, outcomes)
}

// --- thread ops ---

func (o *Ops) ListThreads(ctx context.Context, query, pageToken string, maxResults int64) (ListMessagesResult, error) {
	listed, err := o.client.ListThreads(ctx, query, pageToken, maxResults)
	if err != nil {
		return ListMessagesResult{}, err
	}
	stubs := make([]model.EmailStub, len(listed.IDs))
	for i, id := range listed.IDs {
		stubs[i] = model.EmailStub{ID: id}
	}
	return ListMessagesResult{Stubs: stubs, NextPageToken: listed.NextPageToken}, nil
}

func (o *Ops) GetThreadDetails(ctx context.Context, id string, format gmailclient.Format) (model.Thread, error) {
	t, err := o.client.GetThread(ctx, id, format)
	if err != nil {
		return model.Thread{}, err
	}
	return threadFromAPI(t), nil
}

func (o *Ops) ModifyThreadLabels(ctx context.Context, id string, addLabelNames, removeLabelNames []string) error {
	addIDs, err := o.resolveLabelNames(ctx, addLabelNames)
	if err != nil {
		return err
	}
	removeIDs, err := o.resolveLabelNames(ctx, removeLabelNames)
	if err != nil {
		return err
	}
	_, err = o.client.ModifyThreadLabels(ctx, id, addIDs, removeIDs)
	return err
}

func (o *Ops) TrashThread(ctx context.Context, id string) error {
	return o.client.TrashThread(ctx, id)
}

func (o *Ops) DeleteThreadPermanently(ctx context.Context, id string) error {
	return o.client.DeleteThreadForever(ctx, id)
}
