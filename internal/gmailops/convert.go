// Package gmailops implements the thin Message/Thread/Draft/Settings
// Operation Layer: it translates between wire-level
// google.golang.org/api/gmail/v1 types and the engine's model types, and
// satisfies rules.Mailbox for the Rule Engine.
package gmailops

import (
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/thegrumpylion/google-mcp/internal/model"
)

func headerValue(headers []*gmailapi.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func stubFromMessage(msg *gmailapi.Message) model.EmailStub {
	stub := model.EmailStub{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
	}
	if msg.Payload != nil {
		stub.From = headerValue(msg.Payload.Headers, "From")
		stub.To = headerValue(msg.Payload.Headers, "To")
		stub.Cc = headerValue(msg.Payload.Headers, "Cc")
		stub.Subject = headerValue(msg.Payload.Headers, "Subject")
		stub.Date = headerValue(msg.Payload.Headers, "Date")
		stub.ReplyTo = headerValue(msg.Payload.Headers, "Reply-To")
		stub.MessageID = headerValue(msg.Payload.Headers, "Message-Id")
	}
	return stub
}

func partsFromPayload(p *gmailapi.MessagePart) []model.MIMEPart {
	if p == nil {
		return nil
	}
	part := model.MIMEPart{
		MimeType: p.MimeType,
	}
	if p.Filename != "" {
		part.Filename = p.Filename
	}
	if p.Body != nil && p.Body.Data != "" {
		part.Body = p.Body.Data
	}
	for _, child := range p.Parts {
		part.Parts = append(part.Parts, partsFromPayload(child))
	}
	return []model.MIMEPart{part}
}

func detailsFromMessage(msg *gmailapi.Message) model.EmailDetails {
	details := model.EmailDetails{
		EmailStub:    stubFromMessage(msg),
		Headers:      make(map[string]string),
		LabelIDs:     msg.LabelIds,
		InternalDate: msg.InternalDate,
		SizeEstimate: int64(msg.SizeEstimate),
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			details.Headers[h.Name] = h.Value
		}
		details.Parts = partsFromPayload(msg.Payload)
	}
	return details
}

func threadFromAPI(t *gmailapi.Thread) model.Thread {
	thread := model.Thread{ID: t.Id}
	labelSet := make(map[string]struct{})
	for _, m := range t.Messages {
		thread.Messages = append(thread.Messages, stubFromMessage(m))
		for _, l := range m.LabelIds {
			labelSet[l] = struct{}{}
		}
	}
	for l := range labelSet {
		thread.LabelIDs = append(thread.LabelIDs, l)
	}
	return thread
}
