package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(reply string) HandlerFunc {
	return func(ctx context.Context, cmd CommandContext) (string, error) {
		return reply, nil
	}
}

func TestDispatchEmptyInput(t *testing.T) {
	r := NewRouter(RouterConfig{})

	reply, err := r.Dispatch(context.Background(), CommandContext{}, "   ")
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestDispatchResolvesLongestPrefix(t *testing.T) {
	r := NewRouter(RouterConfig{})

	var got CommandContext
	r.Register("stocks", echoHandler("base"))
	r.Register("stocks buy", func(ctx context.Context, cmd CommandContext) (string, error) {
		got = cmd
		return "buy", nil
	})

	reply, err := r.Dispatch(context.Background(), CommandContext{Scope: "guild"}, "stocks buy NNTDO 3")
	require.NoError(t, err)
	assert.Equal(t, "buy", reply)
	assert.Equal(t, "stocks buy", got.Name)
	assert.Equal(t, []string{"NNTDO", "3"}, got.Args)

	reply, err = r.Dispatch(context.Background(), CommandContext{}, "stocks frobnicate")
	require.NoError(t, err)
	assert.Equal(t, "base", reply)
}

func TestDispatchUnknownCommandListsRegistered(t *testing.T) {
	r := NewRouter(RouterConfig{})
	r.Register("loyalty getlevel", echoHandler("level"))

	reply, err := r.Dispatch(context.Background(), CommandContext{}, "nosuchthing")
	require.NoError(t, err)
	assert.Contains(t, reply, "Unknown command")
	assert.Contains(t, reply, "loyalty getlevel")
}

func TestDispatchCustomDefaultHandler(t *testing.T) {
	r := NewRouter(RouterConfig{})
	r.Register("loyalty getlevel", echoHandler("level"))
	r.SetDefaultHandler(func(ctx context.Context, cmd CommandContext) (string, error) {
		return "fallback:" + cmd.Name, nil
	})

	reply, err := r.Dispatch(context.Background(), CommandContext{}, "loyalty wat huh")
	require.NoError(t, err)
	assert.Equal(t, "fallback:loyalty wat", reply)
}

func TestMiddlewareRunsInRegistrationOrder(t *testing.T) {
	r := NewRouter(RouterConfig{})

	var trace []string
	mw := func(label string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, cmd CommandContext) (string, error) {
				trace = append(trace, label+":before")
				reply, err := next(ctx, cmd)
				trace = append(trace, label+":after")
				return reply, err
			}
		}
	}

	r.Use(mw("outer"), mw("inner"))
	r.Register("ping", func(ctx context.Context, cmd CommandContext) (string, error) {
		trace = append(trace, "handler")
		return "pong", nil
	})

	reply, err := r.Dispatch(context.Background(), CommandContext{}, "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", reply)
	assert.Equal(t, []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}, trace)
}

func TestMiddlewareWrapsDefaultHandler(t *testing.T) {
	r := NewRouter(RouterConfig{})

	called := false
	r.Use(func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, cmd CommandContext) (string, error) {
			called = true
			return next(ctx, cmd)
		}
	})

	_, err := r.Dispatch(context.Background(), CommandContext{}, "unknown")
	require.NoError(t, err)
	assert.True(t, called)
}

func TestCommandsSorted(t *testing.T) {
	r := NewRouter(RouterConfig{})
	r.Register("store setcost", echoHandler(""))
	r.Register("loyalty top", echoHandler(""))
	r.Register("stocks buy", echoHandler(""))

	assert.Equal(t, []string{"loyalty top", "stocks buy", "store setcost"}, r.Commands())
}
