package gmailops

import (
	"testing"

	"github.com/stretchr/testify/assert"

	gmailapi "google.golang.org/api/gmail/v1"
)

func header(name, value string) *gmailapi.MessagePartHeader {
	return &gmailapi.MessagePartHeader{Name: name, Value: value}
}

func TestStubFromMessage_ExtractsHeaders(t *testing.T) {
	msg := &gmailapi.Message{
		Id:       "m1",
		ThreadId: "t1",
		Snippet:  "preview",
		Payload: &gmailapi.MessagePart{
			Headers: []*gmailapi.MessagePartHeader{
				header("From", "a@example.com"),
				header("To", "b@example.com"),
				header("Subject", "Hello"),
				header("Message-Id", "<abc@mail>"),
			},
		},
	}
	stub := stubFromMessage(msg)
	assert.Equal(t, "m1", stub.ID)
	assert.Equal(t, "t1", stub.ThreadID)
	assert.Equal(t, "a@example.com", stub.From)
	assert.Equal(t, "b@example.com", stub.To)
	assert.Equal(t, "Hello", stub.Subject)
	assert.Equal(t, "<abc@mail>", stub.MessageID)
}

func TestStubFromMessage_NilPayloadLeavesHeaderFieldsEmpty(t *testing.T) {
	stub := stubFromMessage(&gmailapi.Message{Id: "m1"})
	assert.Empty(t, stub.From)
	assert.Empty(t, stub.Subject)
}

func TestHeaderValue_CaseInsensitive(t *testing.T) {
	headers := []*gmailapi.MessagePartHeader{header("Content-Type", "text/plain")}
	assert.Equal(t, "text/plain", headerValue(headers, "content-type"))
	assert.Equal(t, "", headerValue(headers, "missing"))
}

func TestPartsFromPayload_NestedParts(t *testing.T) {
	payload := &gmailapi.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmailapi.MessagePart{
			{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: "aGVsbG8"}},
			{MimeType: "application/pdf", Filename: "invoice.pdf"},
		},
	}
	parts := partsFromPayload(payload)
	require := assert.New(t)
	require.Len(parts, 1)
	require.Equal("multipart/mixed", parts[0].MimeType)
	require.Len(parts[0].Parts, 2)
	require.Equal("aGVsbG8", parts[0].Parts[0].Body)
	require.Equal("invoice.pdf", parts[0].Parts[1].Filename)
}

func TestPartsFromPayload_Nil(t *testing.T) {
	assert.Nil(t, partsFromPayload(nil))
}

func TestDetailsFromMessage_PopulatesHeaderMapAndMetadata(t *testing.T) {
	msg := &gmailapi.Message{
		Id:            "m1",
		LabelIds:      []string{"INBOX", "UNREAD"},
		InternalDate:  1700000000000,
		SizeEstimate:  2048,
		Payload: &gmailapi.MessagePart{
			MimeType: "text/plain",
			Headers:  []*gmailapi.MessagePartHeader{header("From", "a@example.com")},
			Body:     &gmailapi.MessagePartBody{Data: "aGVsbG8"},
		},
	}
	details := detailsFromMessage(msg)
	assert.Equal(t, "a@example.com", details.Headers["From"])
	assert.Equal(t, []string{"INBOX", "UNREAD"}, details.LabelIDs)
	assert.EqualValues(t, 1700000000000, details.InternalDate)
	assert.EqualValues(t, 2048, details.SizeEstimate)
	require := assert.New(t)
	require.Len(details.Parts, 1)
}

func TestThreadFromAPI_DeduplicatesLabels(t *testing.T) {
	thread := &gmailapi.Thread{
		Id: "t1",
		Messages: []*gmailapi.Message{
			{Id: "m1", LabelIds: []string{"INBOX"}},
			{Id: "m2", LabelIds: []string{"INBOX", "IMPORTANT"}},
		},
	}
	result := threadFromAPI(thread)
	assert.Equal(t, "t1", result.ID)
	require := assert.New(t)
	require.Len(result.Messages, 2)
	require.ElementsMatch([]string{"INBOX", "IMPORTANT"}, result.LabelIDs)
}
