// Package gmailclient implements the Gmail Client component: an
// authenticated, rate-limited, retry-capable wrapper around the generated
// google.golang.org/api/gmail/v1 client.
package gmailclient

import (
	"context"
	"time"

	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/thegrumpylion/google-mcp/internal/gmailerr"
	"github.com/thegrumpylion/google-mcp/internal/metrics"
	"github.com/thegrumpylion/google-mcp/internal/ratelimit"
)

// Client wraps the Gmail Users service for the single authenticated mailbox
// ("me"), applying a per-operation timeout, a quota-aware rate limiter and
// an exponential backoff retry loop on top of every call.
type Client struct {
	svc     *gmailapi.UsersService
	limiter *ratelimit.Limiter
	retry   ratelimit.RetryPolicy
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Config configures a Client.
type Config struct {
	Timeout time.Duration
	Retry   ratelimit.RetryPolicy
}

// New builds a Client around an authenticated *gmailapi.Service.
func New(svc *gmailapi.Service, limiter *ratelimit.Limiter, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		svc:     svc.Users,
		limiter: limiter,
		retry:   cfg.Retry,
		timeout: cfg.Timeout,
		logger:  logger,
		metrics: m,
	}
}

// call runs fn under the client's timeout, rate limiter and retry policy,
// classifying the terminal error into the surface taxonomy. idempotent
// controls whether a RateLimited/TransientBackend outcome is retried at all:
// permanent delete calls pass idempotent=false so an ambiguous timeout
// surfaces as AmbiguousDeletion instead of being retried.
func (c *Client) call(ctx context.Context, class ratelimit.Class, cost int, op string, idempotent bool, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx, class, cost); err != nil {
		return gmailerr.Wrap(gmailerr.Cancelled, err, "%s: rate limiter wait", op)
	}

	start := time.Now()
	var lastKind gmailerr.Kind
	shouldRetry := func(err error) bool {
		if !idempotent {
			return false
		}
		lastKind = gmailerr.Classify(err)
		return gmailerr.Retryable(lastKind)
	}

	err := ratelimit.Retry(ctx, c.retry, shouldRetry, fn)
	dur := time.Since(start)

	if err != nil {
		kind := gmailerr.Classify(err)
		if !idempotent && kind == gmailerr.Cancelled {
			kind = gmailerr.AmbiguousDeletion
		}
		c.logger.Warn("gmail call failed", zap.String("op", op), zap.Duration("duration", dur), zap.String("kind", kind.String()), zap.Error(err))
		if c.metrics != nil {
			c.metrics.GmailCallTotal.WithLabelValues(op, kind.String()).Inc()
			c.metrics.GmailCallDuration.WithLabelValues(op).Observe(dur.Seconds())
		}
		return gmailerr.Wrap(kind, err, "%s", op)
	}

	c.logger.Debug("gmail call ok", zap.String("op", op), zap.Duration("duration", dur))
	if c.metrics != nil {
		c.metrics.GmailCallTotal.WithLabelValues(op, "ok").Inc()
		c.metrics.GmailCallDuration.WithLabelValues(op).Observe(dur.Seconds())
	}
	return nil
}

// --- messages ---

// ListMessagesResult is the page of message ids returned by ListMessages.
type ListMessagesResult struct {
	IDs                []string
	NextPageToken      string
	ResultSizeEstimate int64
}

func (c *Client) ListMessages(ctx context.Context, query string, pageToken string, maxResults int64) (*ListMessagesResult, error) {
	var out *ListMessagesResult
	err := c.call(ctx, ratelimit.ClassRead, 1, "messages.list", true, func(ctx context.Context) error {
		call := c.svc.Messages.List("me").Context(ctx).MaxResults(maxResults)
		if query != "" {
			call = call.Q(query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(resp.Messages))
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		out = &ListMessagesResult{IDs: ids, NextPageToken: resp.NextPageToken, ResultSizeEstimate: int64(resp.ResultSizeEstimate)}
		return nil
	})
	return out, err
}

// Format mirrors the Gmail message/thread get format parameter.
type Format string

const (
	FormatFull     Format = "full"
	FormatMetadata Format = "metadata"
	FormatRaw      Format = "raw"
)

func (c *Client) GetMessage(ctx context.Context, id string, format Format, headers []string) (*gmailapi.Message, error) {
	var out *gmailapi.Message
	err := c.call(ctx, ratelimit.ClassRead, 1, "messages.get", true, func(ctx context.Context) error {
		call := c.svc.Messages.Get("me", id).Context(ctx).Format(string(format))
		if format == FormatMetadata && len(headers) > 0 {
			call = call.MetadataHeaders(headers...)
		}
		msg, err := call.Do()
		if err != nil {
			return err
		}
		out = msg
		return nil
	})
	return out, err
}

func (c *Client) TrashMessage(ctx context.Context, id string) error {
	return c.call(ctx, ratelimit.ClassWrite, 1, "messages.trash", true, func(ctx context.Context) error {
		_, err := c.svc.Messages.Trash("me", id).Context(ctx).Do()
		return err
	})
}

// DeleteMessageForever permanently deletes a message. Not retried:
// idempotent=false so an ambiguous timeout is surfaced without a retry.
func (c *Client) DeleteMessageForever(ctx context.Context, id string) error {
	return c.call(ctx, ratelimit.ClassWrite, 5, "messages.delete", false, func(ctx context.Context) error {
		return c.svc.Messages.Delete("me", id).Context(ctx).Do()
	})
}

func (c *Client) ModifyMessageLabels(ctx context.Context, id string, addLabelIDs, removeLabelIDs []string) (*gmailapi.Message, error) {
	var out *gmailapi.Message
	err := c.call(ctx, ratelimit.ClassWrite, 1, "messages.modify", true, func(ctx context.Context) error {
		req := &gmailapi.ModifyMessageRequest{AddLabelIds: addLabelIDs, RemoveLabelIds: removeLabelIDs}
		msg, err := c.svc.Messages.Modify("me", id, req).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = msg
		return nil
	})
	return out, err
}

// BatchModifyMessages applies the same add/remove label set to up to 1000
// message ids in a single Gmail API call: one batchModify per action key.
// Unlike the per-item Batch Executor, Gmail's batchModify endpoint has no
// per-id result; see DESIGN.md.
func (c *Client) BatchModifyMessages(ctx context.Context, ids []string, addLabelIDs, removeLabelIDs []string) error {
	return c.call(ctx, ratelimit.ClassWrite, len(ids), "messages.batchModify", true, func(ctx context.Context) error {
		req := &gmailapi.BatchModifyMessagesRequest{Ids: ids, AddLabelIds: addLabelIDs, RemoveLabelIds: removeLabelIDs}
		return c.svc.Messages.BatchModify("me", req).Context(ctx).Do()
	})
}

// --- threads ---

func (c *Client) ListThreads(ctx context.Context, query string, pageToken string, maxResults int64) (*ListMessagesResult, error) {
	var out *ListMessagesResult
	err := c.call(ctx, ratelimit.ClassRead, 1, "threads.list", true, func(ctx context.Context) error {
		call := c.svc.Threads.List("me").Context(ctx).MaxResults(maxResults)
		if query != "" {
			call = call.Q(query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(resp.Threads))
		for _, t := range resp.Threads {
			ids = append(ids, t.Id)
		}
		out = &ListMessagesResult{IDs: ids, NextPageToken: resp.NextPageToken, ResultSizeEstimate: int64(resp.ResultSizeEstimate)}
		return nil
	})
	return out, err
}

func (c *Client) GetThread(ctx context.Context, id string, format Format) (*gmailapi.Thread, error) {
	var out *gmailapi.Thread
	err := c.call(ctx, ratelimit.ClassRead, 1, "threads.get", true, func(ctx context.Context) error {
		t, err := c.svc.Threads.Get("me", id).Context(ctx).Format(string(format)).Do()
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

func (c *Client) ModifyThreadLabels(ctx context.Context, id string, addLabelIDs, removeLabelIDs []string) (*gmailapi.Thread, error) {
	var out *gmailapi.Thread
	err := c.call(ctx, ratelimit.ClassWrite, 1, "threads.modify", true, func(ctx context.Context) error {
		req := &gmailapi.ModifyThreadRequest{AddLabelIds: addLabelIDs, RemoveLabelIds: removeLabelIDs}
		t, err := c.svc.Threads.Modify("me", id, req).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

func (c *Client) TrashThread(ctx context.Context, id string) error {
	return c.call(ctx, ratelimit.ClassWrite, 1, "threads.trash", true, func(ctx context.Context) error {
		_, err := c.svc.Threads.Trash("me", id).Context(ctx).Do()
		return err
	})
}

func (c *Client) DeleteThreadForever(ctx context.Context, id string) error {
	return c.call(ctx, ratelimit.ClassWrite, 5, "threads.delete", false, func(ctx context.Context) error {
		return c.svc.Threads.Delete("me", id).Context(ctx).Do()
	})
}

// --- labels ---

func (c *Client) ListLabels(ctx context.Context) ([]*gmailapi.Label, error) {
	var out []*gmailapi.Label
	err := c.call(ctx, ratelimit.ClassRead, 1, "labels.list", true, func(ctx context.Context) error {
		resp, err := c.svc.Labels.List("me").Context(ctx).Do()
		if err != nil {
			return err
		}
		out = resp.Labels
		return nil
	})
	return out, err
}

func (c *Client) CreateLabel(ctx context.Context, name string) (*gmailapi.Label, error) {
	var out *gmailapi.Label
	err := c.call(ctx, ratelimit.ClassWrite, 1, "labels.create", true, func(ctx context.Context) error {
		l, err := c.svc.Labels.Create("me", &gmailapi.Label{Name: name}).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = l
		return nil
	})
	return out, err
}

// --- drafts ---

func (c *Client) CreateDraft(ctx context.Context, draft *gmailapi.Draft) (*gmailapi.Draft, error) {
	var out *gmailapi.Draft
	err := c.call(ctx, ratelimit.ClassWrite, 1, "drafts.create", true, func(ctx context.Context) error {
		d, err := c.svc.Drafts.Create("me", draft).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = d
		return nil
	})
	return out, err
}

func (c *Client) UpdateDraft(ctx context.Context, id string, draft *gmailapi.Draft) (*gmailapi.Draft, error) {
	var out *gmailapi.Draft
	err := c.call(ctx, ratelimit.ClassWrite, 1, "drafts.update", true, func(ctx context.Context) error {
		d, err := c.svc.Drafts.Update("me", id, draft).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = d
		return nil
	})
	return out, err
}

func (c *Client) SendDraft(ctx context.Context, id string) (*gmailapi.Message, error) {
	var out *gmailapi.Message
	err := c.call(ctx, ratelimit.ClassWrite, 2, "drafts.send", true, func(ctx context.Context) error {
		m, err := c.svc.Drafts.Send("me", &gmailapi.Draft{Id: id}).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

func (c *Client) ListDrafts(ctx context.Context, pageToken string, maxResults int64) (*gmailapi.ListDraftsResponse, error) {
	var out *gmailapi.ListDraftsResponse
	err := c.call(ctx, ratelimit.ClassRead, 1, "drafts.list", true, func(ctx context.Context) error {
		call := c.svc.Drafts.List("me").Context(ctx).MaxResults(maxResults)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	return out, err
}

func (c *Client) GetDraft(ctx context.Context, id string) (*gmailapi.Draft, error) {
	var out *gmailapi.Draft
	err := c.call(ctx, ratelimit.ClassRead, 1, "drafts.get", true, func(ctx context.Context) error {
		d, err := c.svc.Drafts.Get("me", id).Context(ctx).Format("full").Do()
		if err != nil {
			return err
		}
		out = d
		return nil
	})
	return out, err
}

func (c *Client) DeleteDraft(ctx context.Context, id string) error {
	return c.call(ctx, ratelimit.ClassWrite, 1, "drafts.delete", true, func(ctx context.Context) error {
		return c.svc.Drafts.Delete("me", id).Context(ctx).Do()
	})
}

// --- settings ---

func (c *Client) GetVacation(ctx context.Context) (*gmailapi.VacationSettings, error) {
	var out *gmailapi.VacationSettings
	err := c.call(ctx, ratelimit.ClassRead, 1, "settings.vacation.get", true, func(ctx context.Context) error {
		v, err := c.svc.Settings.GetVacation("me").Context(ctx).Do()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (c *Client) UpdateVacation(ctx context.Context, v *gmailapi.VacationSettings) (*gmailapi.VacationSettings, error) {
	var out *gmailapi.VacationSettings
	err := c.call(ctx, ratelimit.ClassWrite, 1, "settings.vacation.update", true, func(ctx context.Context) error {
		updated, err := c.svc.Settings.UpdateVacation("me", v).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	return out, err
}

func (c *Client) GetImap(ctx context.Context) (*gmailapi.ImapSettings, error) {
	var out *gmailapi.ImapSettings
	err := c.call(ctx, ratelimit.ClassRead, 1, "settings.imap.get", true, func(ctx context.Context) error {
		v, err := c.svc.Settings.GetImap("me").Context(ctx).Do()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (c *Client) UpdateImap(ctx context.Context, v *gmailapi.ImapSettings) (*gmailapi.ImapSettings, error) {
	var out *gmailapi.ImapSettings
	err := c.call(ctx, ratelimit.ClassWrite, 1, "settings.imap.update", true, func(ctx context.Context) error {
		updated, err := c.svc.Settings.UpdateImap("me", v).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	return out, err
}

func (c *Client) GetPop(ctx context.Context) (*gmailapi.PopSettings, error) {
	var out *gmailapi.PopSettings
	err := c.call(ctx, ratelimit.ClassRead, 1, "settings.pop.get", true, func(ctx context.Context) error {
		v, err := c.svc.Settings.GetPop("me").Context(ctx).Do()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (c *Client) UpdatePop(ctx context.Context, v *gmailapi.PopSettings) (*gmailapi.PopSettings, error) {
	var out *gmailapi.PopSettings
	err := c.call(ctx, ratelimit.ClassWrite, 1, "settings.pop.update", true, func(ctx context.Context) error {
		updated, err := c.svc.Settings.UpdatePop("me", v).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	return out, err
}
