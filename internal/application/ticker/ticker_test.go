package ticker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejfett4/guildhub/internal/domain/stocks"
)

// recordingGateway captures broadcasts per scope.
type recordingGateway struct {
	mu     sync.Mutex
	boards map[string][]string
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{boards: make(map[string][]string)}
}

func (g *recordingGateway) Say(ctx context.Context, scope, chatID, text string) error {
	return nil
}

func (g *recordingGateway) Broadcast(ctx context.Context, scope, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.boards[scope] = append(g.boards[scope], text)
	return nil
}

func (g *recordingGateway) count(scope string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.boards[scope])
}

func TestTickerAnnouncesBoard(t *testing.T) {
	gateway := newRecordingGateway()
	market := stocks.NewMarket()
	ticker := New(market, gateway, Config{
		Interval: 5 * time.Millisecond,
		Scopes:   []string{"guild"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	ticker.Start(ctx)

	require.Eventually(t, func() bool {
		return gateway.count("guild") >= 2
	}, time.Second, time.Millisecond)

	cancel()
	ticker.Stop()

	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	assert.Contains(t, gateway.boards["guild"][0], "NNTDO")
}

func TestTickerStopsOnCancel(t *testing.T) {
	gateway := newRecordingGateway()
	ticker := New(stocks.NewMarket(), gateway, Config{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	ticker.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		ticker.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ticker did not stop after context cancellation")
	}
}
