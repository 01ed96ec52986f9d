// Package dispatch implements the Tool Registry & Dispatcher: a
// fixed catalogue of named tools with input validation, normalisation,
// policy enforcement and a uniform handler contract.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Context is passed to every tool handler.
type Context struct {
	UserID    string
	SessionID string
	ToolName  string
	TurnIndex int
	Timestamp time.Time

	DryRun             bool
	Confirmed          bool
	ConfirmationToken  string
	SecondConfirmToken string
}

// Result is the uniform handler return shape: "All handlers must
// return { success, data?, error_message? } and never throw past the
// dispatcher."
type Result struct {
	Success      bool   `json:"success"`
	Data         any    `json:"data,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Handler is a registered tool's business logic. newInput must return a
// fresh pointer to the tool's input struct; handle receives that struct
// (already normalised and validated) and the call context.
type Handler struct {
	Name        string
	NewInput    func() any
	ArrayFields []string // input fields that may arrive as JSON-encoded strings
	Handle      func(ctx context.Context, input any, dctx Context) Result
}

// Registry is the fixed tool catalogue.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	order    []string
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a tool. Panics on duplicate name: a programming error, not
// a runtime condition.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[h.Name]; exists {
		panic(fmt.Sprintf("tool %q already registered", h.Name))
	}
	r.handlers[h.Name] = h
	r.order = append(r.order, h.Name)
}

// Lookup returns the handler for name, if any.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns every registered tool name, in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
