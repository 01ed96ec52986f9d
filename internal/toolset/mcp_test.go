package toolset

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thegrumpylion/google-mcp/internal/dispatch"
	"github.com/thegrumpylion/google-mcp/internal/phase"
	"github.com/thegrumpylion/google-mcp/internal/session"
)

type echoInput struct {
	Query string `json:"query"`
}

func newTestDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()
	reg := dispatch.NewRegistry()
	reg.Register(dispatch.Handler{
		Name:     "list_emails",
		NewInput: func() any { return &echoInput{} },
		Handle: func(ctx context.Context, input any, dctx dispatch.Context) dispatch.Result {
			return dispatch.Result{Success: true, Data: map[string]any{
				"query":      input.(*echoInput).Query,
				"user_id":    dctx.UserID,
				"session_id": dctx.SessionID,
				"turn_index": dctx.TurnIndex,
			}}
		},
	})
	gate, err := phase.NewGate(phase.Config{Tools: map[string]int{}}, 1)
	require.NoError(t, err)
	return dispatch.New(reg, gate, session.New(session.Config{}, nil, nil), dispatch.Config{}, nil, nil)
}

func contentText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHandle_ExtractsMetaAndStripsItFromInput(t *testing.T) {
	d := newTestDispatcher(t)
	input := map[string]any{
		"query": "is:unread",
		"_meta": map[string]any{
			"user_id":    "u1",
			"session_id": "s1",
			"turn_index": float64(2),
		},
	}

	result, _, err := handle(context.Background(), d, "list_emails", nil, input)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	_, metaStillPresent := input["_meta"]
	assert.False(t, metaStillPresent)

	var decoded dispatch.Result
	require.NoError(t, json.Unmarshal([]byte(contentText(t, result)), &decoded))
	data := decoded.Data.(map[string]any)
	assert.Equal(t, "u1", data["user_id"])
	assert.Equal(t, "s1", data["session_id"])
	assert.Equal(t, float64(2), data["turn_index"])
}

func TestHandle_ReturnsDispatcherOutputAsJSONContent(t *testing.T) {
	d := newTestDispatcher(t)
	input := map[string]any{"query": "from:a@example.com"}

	result, _, err := handle(context.Background(), d, "list_emails", nil, input)
	require.NoError(t, err)

	var decoded dispatch.Result
	require.NoError(t, json.Unmarshal([]byte(contentText(t, result)), &decoded))
	assert.True(t, decoded.Success)
}

func TestHandle_UnknownToolReturnsErrorResult(t *testing.T) {
	d := newTestDispatcher(t)
	result, _, err := handle(context.Background(), d, "does_not_exist", nil, map[string]any{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandle_MissingMetaDefaultsToSafeValues(t *testing.T) {
	d := newTestDispatcher(t)
	result, _, err := handle(context.Background(), d, "list_emails", nil, map[string]any{"query": "q"})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var decoded dispatch.Result
	require.NoError(t, json.Unmarshal([]byte(contentText(t, result)), &decoded))
	data := decoded.Data.(map[string]any)
	assert.Equal(t, "", data["user_id"])
	assert.Equal(t, float64(0), data["turn_index"])
}
