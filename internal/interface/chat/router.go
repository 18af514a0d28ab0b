// Package chat implements the chat command interface: parsing incoming
// command lines, routing them through the middleware chain to handlers, and
// replying through a Gateway.
package chat

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT TYPES
// ══════════════════════════════════════════════════════════════════════════════

// CommandContext carries one command invocation through the chain.
type CommandContext struct {
	// Scope is the community the command came from.
	Scope string

	// UserID identifies the sender within the scope.
	UserID string

	// ChatID is the channel the reply should go to.
	ChatID string

	// Name is the resolved command name, e.g. "stocks buy".
	Name string

	// Args are the words after the command name.
	Args []string

	// AdminToken is the caller-supplied token for admin-only commands.
	AdminToken string

	// RequestID is set by the request-ID middleware.
	RequestID string
}

// HandlerFunc processes a command and returns the reply text.
type HandlerFunc func(ctx context.Context, cmd CommandContext) (string, error)

// Middleware wraps a HandlerFunc with cross-cutting behavior.
type Middleware func(next HandlerFunc) HandlerFunc

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	// Logger for structured logging.
	Logger *slog.Logger
}

// Router routes command lines to registered handlers. Command names are word
// sequences ("loyalty buylevel"); resolution takes the longest registered
// prefix of the input so priced names in the cost registry line up with what
// handlers see.
type Router struct {
	logger *slog.Logger

	mu             sync.RWMutex
	handlers       map[string]HandlerFunc
	maxNameWords   int
	chain          []Middleware
	defaultHandler HandlerFunc
}

// NewRouter creates a router with the unknown-command default handler.
func NewRouter(config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	r := &Router{
		logger:   config.Logger,
		handlers: make(map[string]HandlerFunc),
	}
	r.defaultHandler = r.handleUnknownCommand
	return r
}

// Use appends middleware to the chain. Middleware run in registration order
// around every dispatched command, including the default handler.
func (r *Router) Use(mw ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chain = append(r.chain, mw...)
}

// Register binds a handler to a command name.
func (r *Router) Register(name string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[name] = handler
	if words := len(strings.Fields(name)); words > r.maxNameWords {
		r.maxNameWords = words
	}
	r.logger.Debug("registered command handler", "command", name)
}

// SetDefaultHandler replaces the unknown-command handler.
func (r *Router) SetDefaultHandler(handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = handler
}

// Commands returns the registered command names, sorted.
func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch parses the input line, resolves the command, and runs it through
// the middleware chain. The returned string is the reply to send.
func (r *Router) Dispatch(ctx context.Context, cmd CommandContext, input string) (string, error) {
	words := strings.Fields(input)
	if len(words) == 0 {
		return "", nil
	}

	r.mu.RLock()
	name, handler := r.resolveLocked(words)
	if handler == nil {
		name = strings.Join(words[:min(len(words), max(r.maxNameWords, 1))], " ")
		handler = r.defaultHandler
	}
	wrapped := handler
	for i := len(r.chain) - 1; i >= 0; i-- {
		wrapped = r.chain[i](wrapped)
	}
	r.mu.RUnlock()

	cmd.Name = name
	cmd.Args = words[len(strings.Fields(name)):]

	r.logger.Debug("dispatching command",
		"command", cmd.Name,
		"scope", cmd.Scope,
		"user", cmd.UserID,
	)
	return wrapped(ctx, cmd)
}

// resolveLocked finds the longest registered prefix of the input words.
func (r *Router) resolveLocked(words []string) (string, HandlerFunc) {
	limit := len(words)
	if r.maxNameWords < limit {
		limit = r.maxNameWords
	}
	for n := limit; n >= 1; n-- {
		name := strings.Join(words[:n], " ")
		if h, ok := r.handlers[name]; ok {
			return name, h
		}
	}
	return "", nil
}

func (r *Router) handleUnknownCommand(ctx context.Context, cmd CommandContext) (string, error) {
	var b strings.Builder
	b.WriteString("Unknown command. Available commands:\n")
	for _, name := range r.Commands() {
		b.WriteString("  " + name + "\n")
	}
	return b.String(), nil
}
