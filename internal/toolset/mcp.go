// Package toolset binds the dispatch.Registry/Dispatcher to the real MCP
// server, adapting the server.AddTool wrapper to a single generic bridge
// handler per registered tool.
package toolset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/thegrumpylion/google-mcp/internal/dispatch"
	"github.com/thegrumpylion/google-mcp/internal/phase"
	"github.com/thegrumpylion/google-mcp/internal/policy"
	"github.com/thegrumpylion/google-mcp/internal/server"
)

// Bind registers every tool in reg on srv, routing every call through
// dispatcher.Dispatch, then hides the tools the phase gate doesn't expose
// at the current phase: tools/list must reflect the same subset the
// dispatcher enforces per-call, not just the static CLI --enable/--disable
// filter (server.ApplyFilter), which has no phase awareness.
func Bind(srv *server.Server, reg *dispatch.Registry, dispatcher *dispatch.Dispatcher, gate *phase.Gate) {
	names := reg.Names()
	for _, name := range names {
		name := name
		destructive := policy.IsDestructive(name)

		server.AddTool(srv, &mcp.Tool{
			Name:        name,
			Description: fmt.Sprintf("%s tool call, dispatched through the engine's tool registry.", name),
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:    !destructive,
				DestructiveHint: server.BoolPtr(destructive),
			},
		}, func(ctx context.Context, req *mcp.CallToolRequest, input map[string]any) (*mcp.CallToolResult, any, error) {
			return handle(ctx, dispatcher, name, req, input)
		})
	}

	if gate == nil {
		return
	}
	exposed := make(map[string]bool, len(names))
	for _, name := range gate.ExposedTools(names) {
		exposed[name] = true
	}
	var hidden []string
	for _, name := range names {
		if !exposed[name] {
			hidden = append(hidden, name)
		}
	}
	if len(hidden) > 0 {
		srv.RemoveTools(hidden...)
	}
}

// callMeta carries the session/policy fields the dispatcher needs but
// which aren't part of a tool's own input schema. Clients pass them inside
// the input object under a reserved "_meta" key; absent fields default to
// safe values (no confirmation, turn index 0).
type callMeta struct {
	UserID             string `json:"user_id,omitempty"`
	SessionID          string `json:"session_id,omitempty"`
	TurnIndex          int    `json:"turn_index,omitempty"`
	DryRun             bool   `json:"dry_run,omitempty"`
	Confirmed          bool   `json:"confirmed,omitempty"`
	ConfirmationToken  string `json:"confirmation_token,omitempty"`
	SecondConfirmToken string `json:"second_confirmation_token,omitempty"`
}

func handle(ctx context.Context, dispatcher *dispatch.Dispatcher, name string, _ *mcp.CallToolRequest, input map[string]any) (*mcp.CallToolResult, any, error) {
	meta := callMeta{}
	if rawMeta, ok := input["_meta"]; ok {
		if b, err := json.Marshal(rawMeta); err == nil {
			_ = json.Unmarshal(b, &meta)
		}
		delete(input, "_meta")
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, nil, fmt.Errorf("marshalling tool input: %w", err)
	}

	resp := dispatcher.Dispatch(ctx, dispatch.Request{
		ToolName:           name,
		Input:              payload,
		UserID:             meta.UserID,
		SessionID:          meta.SessionID,
		TurnIndex:          meta.TurnIndex,
		DryRun:             meta.DryRun,
		Confirmed:          meta.Confirmed,
		ConfirmationToken:  meta.ConfirmationToken,
		SecondConfirmToken: meta.SecondConfirmToken,
	})

	text, err := json.Marshal(resp.Output)
	if err != nil {
		text = []byte(fmt.Sprintf(`{"success":false,"error_message":%q}`, err.Error()))
	}

	return &mcp.CallToolResult{
		IsError: resp.IsError,
		Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
	}, nil, nil
}
