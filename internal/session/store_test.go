package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thegrumpylion/google-mcp/internal/model"
)

func TestStore_InMemory_AppendAndHistoryOrderPreserved(t *testing.T) {
	s := New(Config{}, nil, nil)
	ctx := context.Background()

	s.Append(ctx, "user1", "sess1", model.SessionTurn{TurnIndex: 0, ToolName: "list_emails"})
	s.Append(ctx, "user1", "sess1", model.SessionTurn{TurnIndex: 1, ToolName: "trash_emails"})

	turns, err := s.History(ctx, "user1", "sess1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "list_emails", turns[0].ToolName)
	assert.Equal(t, "trash_emails", turns[1].ToolName)
}

func TestStore_InMemory_SessionsAreIsolatedByKey(t *testing.T) {
	s := New(Config{}, nil, nil)
	ctx := context.Background()

	s.Append(ctx, "user1", "sessA", model.SessionTurn{ToolName: "list_emails"})
	s.Append(ctx, "user2", "sessA", model.SessionTurn{ToolName: "trash_emails"})

	turnsUser1, err := s.History(ctx, "user1", "sessA")
	require.NoError(t, err)
	require.Len(t, turnsUser1, 1)
	assert.Equal(t, "list_emails", turnsUser1[0].ToolName)

	turnsUser2, err := s.History(ctx, "user2", "sessA")
	require.NoError(t, err)
	require.Len(t, turnsUser2, 1)
	assert.Equal(t, "trash_emails", turnsUser2[0].ToolName)
}

func TestStore_History_UnknownSessionReturnsEmpty(t *testing.T) {
	s := New(Config{}, nil, nil)
	turns, err := s.History(context.Background(), "nobody", "nothing")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestStore_Close_NoRedisIsNoop(t *testing.T) {
	s := New(Config{}, nil, nil)
	assert.NoError(t, s.Close())
}

func TestKey_CombinesUserAndSession(t *testing.T) {
	assert.Equal(t, "u1:s1", key("u1", "s1"))
}
