package gmailops

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand/v2"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/thegrumpylion/google-mcp/internal/gmailerr"
)

// ComposeInput holds the fields for composing a draft message via
// create_draft/update_draft. Attachments and Drive/local-file references
// from the wider ecosystem are out of scope: plain RFC-2822 text parts
// only, no remote fetch.
type ComposeInput struct {
	To       []string
	Subject  string
	Body     string
	Cc       []string
	Bcc      []string
	ThreadID string
}

// buildMessage builds a base64url-encoded RFC 2822 message from input.
func buildMessage(input ComposeInput) (string, error) {
	if len(input.To) == 0 {
		return "", gmailerr.New(gmailerr.InvalidInput, "create_draft requires at least one recipient")
	}
	raw := buildPlainMessage(input)
	return base64.URLEncoding.EncodeToString([]byte(raw)), nil
}

func buildPlainMessage(input ComposeInput) string {
	var raw strings.Builder
	writeCommonHeaders(&raw, input)
	raw.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	raw.WriteString("\r\n")
	raw.WriteString(input.Body)
	return raw.String()
}

func writeCommonHeaders(w *strings.Builder, input ComposeInput) {
	fmt.Fprintf(w, "To: %s\r\n", strings.Join(input.To, ", "))
	if len(input.Cc) > 0 {
		fmt.Fprintf(w, "Cc: %s\r\n", strings.Join(input.Cc, ", "))
	}
	if len(input.Bcc) > 0 {
		fmt.Fprintf(w, "Bcc: %s\r\n", strings.Join(input.Bcc, ", "))
	}
	fmt.Fprintf(w, "Subject: %s\r\n", input.Subject)
}

// generateBoundary creates a random MIME boundary string; retained for
// future multipart support even though the current compose path is
// text-only.
func generateBoundary() string {
	const chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, 32)
	for i := range b {
		b[i] = chars[rand.IntN(len(chars))]
	}
	return "engine_" + string(b)
}

var _ = generateBoundary // kept for multipart/mixed extension; not yet wired

// --- draft ops ---

func (o *Ops) CreateDraft(ctx context.Context, input ComposeInput) (*gmailapi.Draft, error) {
	raw, err := buildMessage(input)
	if err != nil {
		return nil, err
	}
	msg := &gmailapi.Message{Raw: raw}
	if input.ThreadID != "" {
		msg.ThreadId = input.ThreadID
	}
	return o.client.CreateDraft(ctx, &gmailapi.Draft{Message: msg})
}

func (o *Ops) UpdateDraft(ctx context.Context, draftID string, input ComposeInput) (*gmailapi.Draft, error) {
	raw, err := buildMessage(input)
	if err != nil {
		return nil, err
	}
	msg := &gmailapi.Message{Raw: raw}
	if input.ThreadID != "" {
		msg.ThreadId = input.ThreadID
	}
	return o.client.UpdateDraft(ctx, draftID, &gmailapi.Draft{Id: draftID, Message: msg})
}

func (o *Ops) SendDraft(ctx context.Context, draftID string) (*gmailapi.Message, error) {
	return o.client.SendDraft(ctx, draftID)
}

func (o *Ops) ListDrafts(ctx context.Context, pageToken string, maxResults int64) (*gmailapi.ListDraftsResponse, error) {
	return o.client.ListDrafts(ctx, pageToken, maxResults)
}

func (o *Ops) GetDraftDetails(ctx context.Context, draftID string) (*gmailapi.Draft, error) {
	return o.client.GetDraft(ctx, draftID)
}

func (o *Ops) DeleteDraft(ctx context.Context, draftID string) error {
	return o.client.DeleteDraft(ctx, draftID)
}
