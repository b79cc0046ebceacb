package lobby

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"setteemezzo-server/pkg/sevenhalf"
)

var errInsufficientFunds = errors.New("insufficient funds")

// memStore is an in-memory PlayerStore for tests
type memStore struct {
	mu       sync.Mutex
	balances map[int64]int
}

func newMemStore(balances map[int64]int) *memStore {
	return &memStore{balances: balances}
}

func (m *memStore) AdjustBalance(_ context.Context, playerID int64, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	balance, ok := m.balances[playerID]
	if !ok {
		return errors.New("player not found")
	}

	if balance+delta < 0 {
		return errInsufficientFunds
	}

	m.balances[playerID] = balance + delta
	return nil
}

func (m *memStore) balance(playerID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[playerID]
}

// fixedRNG always returns the same value
type fixedRNG struct{ n int }

func (f fixedRNG) Intn(int) int { return f.n }

func newTestLobby(store PlayerStore) *Lobby {
	return New(logrus.StandardLogger(), store, Options{})
}

func TestLobby_Create(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	store := newMemStore(map[int64]int{1: 100})
	l := newTestLobby(store)

	code, err := l.Create(ctx, 1, 10)
	a.NoError(err)
	a.Len(code, 4)
	a.Equal(90, store.balance(1))

	state, err := l.View(code, 1)
	a.NoError(err)
	a.Equal("waiting", state.Phase)
	a.Equal(38, state.DeckSize)
}

func TestLobby_Create_insufficientFunds(t *testing.T) {
	a := assert.New(t)

	store := newMemStore(map[int64]int{1: 5})
	l := newTestLobby(store)

	code, err := l.Create(context.Background(), 1, 10)
	a.Equal(errInsufficientFunds, err)
	a.Empty(code)
	a.Equal(5, store.balance(1))
}

func TestLobby_Create_invalidWager(t *testing.T) {
	store := newMemStore(map[int64]int{1: 100})
	l := newTestLobby(store)

	_, err := l.Create(context.Background(), 1, 0)
	assert.Equal(t, sevenhalf.ErrInvalidWager, err)
	assert.Equal(t, 100, store.balance(1))
}

func TestLobby_Create_codeExhaustion(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	store := newMemStore(map[int64]int{1: 100})
	l := New(logrus.StandardLogger(), store, Options{RNG: fixedRNG{}})

	code, err := l.Create(ctx, 1, 10)
	a.NoError(err)
	a.Equal("AAAA", code)

	// the only code this RNG can produce is taken; the escrow must be refunded
	_, err = l.Create(ctx, 1, 10)
	a.Equal(ErrNoCodesAvailable, err)
	a.Equal(90, store.balance(1))
}

func TestLobby_Join(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	store := newMemStore(map[int64]int{1: 100, 2: 100})
	l := newTestLobby(store)

	code, err := l.Create(ctx, 1, 20)
	a.NoError(err)

	a.NoError(l.Join(ctx, code, 2))
	a.Equal(80, store.balance(2))

	state, err := l.View(code, 2)
	a.NoError(err)
	a.Equal("playersActive", state.Phase)
	a.Equal(2, len(state.Participants))

	// third player
	store.mu.Lock()
	store.balances[3] = 100
	store.mu.Unlock()
	a.Equal(sevenhalf.ErrTableFull, l.Join(ctx, code, 3))
	a.Equal(100, store.balance(3))
}

func TestLobby_Join_insufficientFunds(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	store := newMemStore(map[int64]int{1: 100, 2: 5})
	l := newTestLobby(store)

	code, err := l.Create(ctx, 1, 20)
	a.NoError(err)

	a.Equal(errInsufficientFunds, l.Join(ctx, code, 2))
	a.Equal(5, store.balance(2))

	// the failed join seated nobody
	state, err := l.View(code, 1)
	a.NoError(err)
	a.Equal(1, len(state.Participants))
}

func TestLobby_unknownCode(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	l := newTestLobby(newMemStore(map[int64]int{1: 100}))

	a.Equal(ErrInvalidCode, l.Join(ctx, "XXXX", 1))

	_, err := l.Hit(ctx, "XXXX", 1)
	a.Equal(ErrInvalidCode, err)

	_, err = l.Stand(ctx, "XXXX", 1)
	a.Equal(ErrInvalidCode, err)

	_, err = l.View("XXXX", 1)
	a.Equal(ErrInvalidCode, err)
}

func TestLobby_soloEndToEnd(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	store := newMemStore(map[int64]int{1: 100})
	l := newTestLobby(store)

	code, err := l.Create(ctx, 1, 10)
	a.NoError(err)
	a.Equal(90, store.balance(1))

	state, err := l.Stand(ctx, code, 1)
	a.NoError(err)
	a.Equal("ended", state.Phase)
	a.NotNil(state.Dealer.Score)

	// settlement conservation: won nets +10, push 0, lost -10
	switch state.Participants[0].Result {
	case sevenhalf.ResultWon:
		a.Equal(110, store.balance(1))
	case sevenhalf.ResultPush:
		a.Equal(100, store.balance(1))
	case sevenhalf.ResultLost:
		a.Equal(90, store.balance(1))
	default:
		t.Errorf("unexpected result: %q", state.Participants[0].Result)
	}
}

func TestLobby_twoPlayerEndToEnd(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	store := newMemStore(map[int64]int{1: 100, 2: 100})
	l := newTestLobby(store)

	code, err := l.Create(ctx, 1, 20)
	a.NoError(err)
	a.NoError(l.Join(ctx, code, 2))
	a.Equal(80, store.balance(1))
	a.Equal(80, store.balance(2))

	_, err = l.Stand(ctx, code, 1)
	a.NoError(err)

	state, err := l.Stand(ctx, code, 2)
	a.NoError(err)
	a.Equal("ended", state.Phase)

	// one settlement pass credited both seats against a single dealer hand
	for _, ps := range state.Participants {
		expected := map[sevenhalf.Result]int{
			sevenhalf.ResultWon:  120,
			sevenhalf.ResultPush: 100,
			sevenhalf.ResultLost: 80,
		}[ps.Result]

		a.Equal(expected, store.balance(ps.PlayerID), "player %d (%s)", ps.PlayerID, ps.Result)
	}
}

func TestLobby_settlementCreditsOnce(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	store := newMemStore(map[int64]int{1: 100})
	l := newTestLobby(store)

	code, err := l.Create(ctx, 1, 10)
	a.NoError(err)

	_, err = l.Stand(ctx, code, 1)
	a.NoError(err)
	settled := store.balance(1)

	// further actions on the ended session change nothing
	_, err = l.Stand(ctx, code, 1)
	a.Equal(sevenhalf.ErrGameOver, err)

	_, err = l.Hit(ctx, code, 1)
	a.Equal(sevenhalf.ErrGameOver, err)

	a.Equal(settled, store.balance(1))
}

func TestLobby_Watch(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	store := newMemStore(map[int64]int{1: 100})
	l := newTestLobby(store)

	code, err := l.Create(ctx, 1, 10)
	a.NoError(err)

	w := NewWatcher(1)
	a.NoError(l.Watch(code, w))

	// subscribing pushes the current snapshot
	msg := <-w.Messages()
	state, ok := msg.(*sevenhalf.State)
	a.True(ok)
	a.Equal("waiting", state.Phase)

	_, err = l.Stand(ctx, code, 1)
	a.NoError(err)

	msg = <-w.Messages()
	state = msg.(*sevenhalf.State)
	a.Equal("ended", state.Phase)

	l.Unwatch(code, w)

	a.Equal(ErrInvalidCode, l.Watch("XXXX", w))
}

func TestLobby_evict_refundsUnsettledEscrows(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	store := newMemStore(map[int64]int{1: 100, 2: 100})
	l := newTestLobby(store)

	code, err := l.Create(ctx, 1, 10)
	a.NoError(err)
	a.NoError(l.Join(ctx, code, 2))
	a.Equal(90, store.balance(1))
	a.Equal(90, store.balance(2))

	// the game was never played to completion
	l.evict(time.Now().Add(l.idleTTL))
	_, err = l.View(code, 1)
	a.Equal(ErrInvalidCode, err)

	a.Equal(100, store.balance(1))
	a.Equal(100, store.balance(2))
}

func TestLobby_evict_keepsSettledBalances(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	store := newMemStore(map[int64]int{1: 100})
	l := newTestLobby(store)

	code, err := l.Create(ctx, 1, 10)
	a.NoError(err)
	_, err = l.Stand(ctx, code, 1)
	a.NoError(err)
	settled := store.balance(1)

	// eviction of a settled session must not move money again
	l.evict(time.Now().Add(l.idleTTL))
	_, err = l.View(code, 1)
	a.Equal(ErrInvalidCode, err)
	a.Equal(settled, store.balance(1))
}

func TestLobby_evict(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	store := newMemStore(map[int64]int{1: 100, 2: 100})
	l := newTestLobby(store)

	endedCode, err := l.Create(ctx, 1, 10)
	a.NoError(err)
	_, err = l.Stand(ctx, endedCode, 1)
	a.NoError(err)

	idleCode, err := l.Create(ctx, 2, 10)
	a.NoError(err)

	w := NewWatcher(1)
	a.NoError(l.Watch(endedCode, w))

	// neither TTL has elapsed
	l.evict(time.Now())
	_, err = l.View(endedCode, 1)
	a.NoError(err)

	// the ended TTL elapsed, but not the idle TTL
	l.evict(time.Now().Add(l.endedTTL))
	_, err = l.View(endedCode, 1)
	a.Equal(ErrInvalidCode, err)
	_, err = l.View(idleCode, 2)
	a.NoError(err)

	// the watcher was told to disconnect
	a.Equal("session ended", <-w.Close)

	// the idle TTL eventually elapses too
	l.evict(time.Now().Add(l.idleTTL))
	_, err = l.View(idleCode, 2)
	a.Equal(ErrInvalidCode, err)
}
