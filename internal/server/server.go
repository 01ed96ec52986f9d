// Package server provides a wrapper around the MCP SDK server that captures
// tool metadata at registration time, enabling runtime filtering by read-only
// status, whitelists, and blacklists.
package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/thegrumpylion/google-mcp/internal/auth"
)

// BoolPtr returns a pointer to a bool value. Useful for MCP ToolAnnotations
// fields like DestructiveHint and OpenWorldHint which are *bool.
func BoolPtr(v bool) *bool { return &v }

// ToolInfo describes a registered tool for filtering purposes.
type ToolInfo struct {
	Name     string
	ReadOnly bool
}

// Server wraps an mcp.Server to capture tool metadata at registration time.
// Use AddTool to register tools; it records each tool's name and read-only
// status automatically. After all tools are registered, call ApplyFilter to
// remove tools that don't match the desired filter.
type Server struct {
	*mcp.Server
	tools []ToolInfo
}

// NewServer creates a new Server wrapper around an mcp.Server.
func NewServer(impl *mcp.Implementation, opts *mcp.ServerOptions) *Server {
	return &Server{Server: mcp.NewServer(impl, opts)}
}

// Tools returns the metadata for all registered tools.
func (s *Server) Tools() []ToolInfo {
	return s.tools
}

// AddTool registers a typed tool on the server and records its metadata.
// This is a free generic function because Go does not allow generic methods
// on types, the same pattern the MCP SDK uses for mcp.AddTool.
func AddTool[In, Out any](s *Server, t *mcp.Tool, h mcp.ToolHandlerFor[In, Out]) {
	s.tools = append(s.tools, ToolInfo{
		Name:     t.Name,
		ReadOnly: t.Annotations != nil && t.Annotations.ReadOnlyHint,
	})
	mcp.AddTool(s.Server, t, h)
}

// ToolFilter configures which tools are exposed by an MCP server.
type ToolFilter struct {
	// ReadOnly limits the server to read-only tools.
	ReadOnly bool
	// Enable is a whitelist of tool names to expose. Mutually exclusive with Disable.
	Enable []string
	// Disable is a blacklist of tool names to hide. Mutually exclusive with Enable.
	Disable []string
}

// ApplyFilter removes tools from the server based on the filter configuration.
// Returns an error if the filter is invalid (e.g. enable and disable both set,
// or referencing unknown tool names).
func (s *Server) ApplyFilter(filter ToolFilter) error {
	if len(filter.Enable) > 0 && len(filter.Disable) > 0 {
		return fmt.Errorf("--enable and --disable are mutually exclusive")
	}

	// Build the base set: all tools or read-only only.
	baseSet := make(map[string]bool, len(s.tools))
	allTools := make(map[string]bool, len(s.tools))
	for _, t := range s.tools {
		allTools[t.Name] = true
		if filter.ReadOnly {
			if t.ReadOnly {
				baseSet[t.Name] = true
			}
		} else {
			baseSet[t.Name] = true
		}
	}

	// If read-only mode, remove all non-read-only tools first.
	if filter.ReadOnly {
		var remove []string
		for _, t := range s.tools {
			if !t.ReadOnly {
				remove = append(remove, t.Name)
			}
		}
		if len(remove) > 0 {
			s.RemoveTools(remove...)
		}
	}

	// Apply enable (whitelist).
	if len(filter.Enable) > 0 {
		for _, name := range filter.Enable {
			if !baseSet[name] {
				if allTools[name] && filter.ReadOnly {
					return fmt.Errorf("tool %q is not a read-only tool", name)
				}
				return fmt.Errorf("unknown tool %q", name)
			}
		}
		enabled := make(map[string]bool, len(filter.Enable))
		for _, name := range filter.Enable {
			enabled[name] = true
		}
		var remove []string
		for name := range baseSet {
			if !enabled[name] {
				remove = append(remove, name)
			}
		}
		if len(remove) > 0 {
			s.RemoveTools(remove...)
		}
	}

	// Apply disable (blacklist).
	if len(filter.Disable) > 0 {
		for _, name := range filter.Disable {
			if !baseSet[name] {
				if allTools[name] && filter.ReadOnly {
					return fmt.Errorf("tool %q is not a read-only tool", name)
				}
				return fmt.Errorf("unknown tool %q", name)
			}
		}
		s.RemoveTools(filter.Disable...)
	}

	return nil
}

// RegisterAuthStatusTool registers the auth_status tool, reporting whether
// the single configured mailbox is authenticated.
func RegisterAuthStatusTool(s *Server, mgr *auth.Manager) {
	AddTool(s, &mcp.Tool{
		Name:        "auth_status",
		Description: "Report whether the configured Gmail mailbox is authenticated.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint: true,
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		text := "not authenticated; run 'google-mcp auth login'"
		if mgr.IsAuthenticated() {
			text = "authenticated"
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	})
}
