package gmailclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/thegrumpylion/google-mcp/internal/gmailerr"
	"github.com/thegrumpylion/google-mcp/internal/ratelimit"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := gmailapi.NewService(context.Background(),
		option.WithHTTPClient(server.Client()),
		option.WithEndpoint(server.URL),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	limiter := ratelimit.New(ratelimit.Config{ReadTokensPerSecond: 1000, WriteTokensPerSecond: 1000, Burst: 1000})
	c := New(svc, limiter, Config{
		Timeout: 2 * time.Second,
		Retry:   ratelimit.RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, JitterMax: 0, CapDelay: 5 * time.Millisecond},
	}, nil, nil)
	return c, server
}

func TestListMessages_ParsesIDsAndPageToken(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/messages", r.URL.Path)
		assert.Equal(t, "is:unread", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(&gmailapi.ListMessagesResponse{
			Messages:           []*gmailapi.Message{{Id: "m1"}, {Id: "m2"}},
			NextPageToken:      "tok-2",
			ResultSizeEstimate: 2,
		})
	}))

	res, err := c.ListMessages(context.Background(), "is:unread", "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, res.IDs)
	assert.Equal(t, "tok-2", res.NextPageToken)
}

func TestGetMessage_ReturnsMessage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/messages/m1", r.URL.Path)
		json.NewEncoder(w).Encode(&gmailapi.Message{Id: "m1", Snippet: "hello"})
	}))

	msg, err := c.GetMessage(context.Background(), "m1", FormatFull, nil)
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.Id)
	assert.Equal(t, "hello", msg.Snippet)
}

func TestGetMessage_NotFoundClassifiedAsNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 404, "message": "not found"}})
	}))

	_, err := c.GetMessage(context.Background(), "missing", FormatMetadata, nil)
	require.Error(t, err)
	assert.Equal(t, gmailerr.NotFound, gmailerr.KindOf(err))
}

func TestTrashMessage_RetriesOnRateLimitThenSucceeds(t *testing.T) {
	attempts := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 429, "message": "rate limited"}})
			return
		}
		json.NewEncoder(w).Encode(&gmailapi.Message{Id: "m1"})
	}))

	err := c.TrashMessage(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDeleteMessageForever_NotRetriedOnRateLimit(t *testing.T) {
	attempts := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 429, "message": "rate limited"}})
	}))

	err := c.DeleteMessageForever(context.Background(), "m1")
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, gmailerr.RateLimited, gmailerr.KindOf(err))
}

func TestBatchModifyMessages_SendsIDsAndLabels(t *testing.T) {
	var gotReq gmailapi.BatchModifyMessagesRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/messages/batchModify", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusNoContent)
	}))

	err := c.BatchModifyMessages(context.Background(), []string{"m1", "m2"}, []string{"LABEL_A"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, gotReq.Ids)
	assert.Equal(t, []string{"LABEL_A"}, gotReq.AddLabelIds)
}

func TestCreateLabel_ReturnsCreatedLabel(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&gmailapi.Label{Id: "label-1", Name: "Invoices"})
	}))

	label, err := c.CreateLabel(context.Background(), "Invoices")
	require.NoError(t, err)
	assert.Equal(t, "label-1", label.Id)
}
