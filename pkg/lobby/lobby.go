package lobby

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"setteemezzo-server/internal/rng"
	"setteemezzo-server/pkg/sevenhalf"
)

// ErrInvalidCode is returned when no session exists for the given code
var ErrInvalidCode = errors.New("unknown session code")

// ErrNoCodesAvailable is returned when a free session code could not be allocated
var ErrNoCodesAvailable = errors.New("could not allocate a session code")

// ErrUnknownAction is returned when a client sends an unrecognized action
var ErrUnknownAction = errors.New("unknown action")

// PlayerStore escrows and credits wagers against a player's balance.
// AdjustBalance must be atomic: a negative delta fails without applying if
// the resulting balance would go below zero.
type PlayerStore interface {
	AdjustBalance(ctx context.Context, playerID int64, delta int) error
}

const codeLength = 4
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const maxCodeAttempts = 100

const defaultEndedTTL = time.Minute * 5
const defaultIdleTTL = time.Hour
const janitorInterval = time.Minute

// Options configures a Lobby
type Options struct {
	// EndedTTL is how long a finished session is kept before eviction
	EndedTTL time.Duration
	// IdleTTL is how long an inactive session is kept before eviction
	IdleTTL time.Duration
	// RNG generates session codes. Defaults to rng.Crypto
	RNG rng.Generator
}

// Lobby is the registry of live sessions.
// Lookups synchronize on the registry lock; every session entry carries its
// own lock so actions on the same session serialize while different
// sessions proceed in parallel.
type Lobby struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	store    PlayerStore
	rng      rng.Generator
	logger   logrus.FieldLogger
	endedTTL time.Duration
	idleTTL  time.Duration

	close chan bool
}

type sessionEntry struct {
	mu         sync.Mutex
	session    *sevenhalf.Session
	lastActive time.Time
	endedAt    time.Time
	settled    bool
	watchers   map[*Watcher]bool
}

// New returns a new lobby backed by the given player store
func New(logger logrus.FieldLogger, store PlayerStore, opts Options) *Lobby {
	if opts.EndedTTL <= 0 {
		opts.EndedTTL = defaultEndedTTL
	}

	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultIdleTTL
	}

	if opts.RNG == nil {
		opts.RNG = rng.Crypto{}
	}

	return &Lobby{
		sessions: make(map[string]*sessionEntry),
		store:    store,
		rng:      opts.RNG,
		logger:   logger,
		endedTTL: opts.EndedTTL,
		idleTTL:  opts.IdleTTL,
		close:    make(chan bool),
	}
}

// Start launches the eviction loop
func (l *Lobby) Start() {
	go l.runLoop()
}

// Stop terminates the eviction loop
func (l *Lobby) Stop() {
	close(l.close)
}

func (l *Lobby) runLoop() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evict(time.Now())
		case <-l.close:
			return
		}
	}
}

// Create escrows the wager, creates a session, and seats the player.
// It returns the new session's code.
func (l *Lobby) Create(ctx context.Context, playerID int64, wager int) (string, error) {
	if wager <= 0 {
		return "", sevenhalf.ErrInvalidWager
	}

	// escrow before the first card is dealt
	if err := l.store.AdjustBalance(ctx, playerID, -wager); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	code, err := l.newCode()
	if err != nil {
		l.refund(ctx, playerID, wager)
		return "", err
	}

	session, err := sevenhalf.NewSession(l.logger, code, playerID, wager)
	if err != nil {
		l.refund(ctx, playerID, wager)
		return "", err
	}

	l.sessions[code] = &sessionEntry{
		session:    session,
		lastActive: time.Now(),
		watchers:   make(map[*Watcher]bool),
	}

	return code, nil
}

// Join escrows the wager and seats a second participant.
// Nothing is mutated when a precondition fails.
func (l *Lobby) Join(ctx context.Context, code string, playerID int64) error {
	e, err := l.entry(code)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.session.CanJoin(playerID); err != nil {
		return err
	}

	if err := l.store.AdjustBalance(ctx, playerID, -e.session.Wager()); err != nil {
		return err
	}

	if err := e.session.Join(playerID); err != nil {
		// unreachable after CanJoin, but the escrow must not leak
		l.refund(ctx, playerID, e.session.Wager())
		return err
	}

	e.lastActive = time.Now()
	l.notify(e)
	return nil
}

// Hit draws a card for the player and returns their updated snapshot
func (l *Lobby) Hit(ctx context.Context, code string, playerID int64) (*sevenhalf.State, error) {
	e, err := l.entry(code)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.session.Hit(playerID); err != nil {
		return nil, err
	}

	e.lastActive = time.Now()
	l.settleIfEnded(ctx, e)
	l.notify(e)

	return e.session.State(playerID), nil
}

// Stand marks the player done and returns their updated snapshot
func (l *Lobby) Stand(ctx context.Context, code string, playerID int64) (*sevenhalf.State, error) {
	e, err := l.entry(code)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.session.Stand(playerID); err != nil {
		return nil, err
	}

	e.lastActive = time.Now()
	l.settleIfEnded(ctx, e)
	l.notify(e)

	return e.session.State(playerID), nil
}

// View returns the player's masked snapshot of the session
func (l *Lobby) View(code string, playerID int64) (*sevenhalf.State, error) {
	e, err := l.entry(code)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.session.State(playerID), nil
}

// Watch subscribes the watcher to session changes.
// The current snapshot is sent immediately.
func (l *Lobby) Watch(code string, w *Watcher) error {
	e, err := l.entry(code)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.watchers[w] = true
	w.Send(e.session.State(w.PlayerID))
	return nil
}

// Unwatch removes the watcher from the session
func (l *Lobby) Unwatch(code string, w *Watcher) {
	e, err := l.entry(code)
	if err != nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.watchers, w)
}

func (l *Lobby) entry(code string) (*sessionEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.sessions[code]
	if !ok {
		return nil, ErrInvalidCode
	}

	return e, nil
}

// newCode allocates an unused session code.
// Collisions retry rather than fail; the keyspace is 36^4.
// Must be called with the registry lock held.
func (l *Lobby) newCode() (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeAlphabet[l.rng.Intn(len(codeAlphabet))]
		}

		code := string(b)
		if _, taken := l.sessions[code]; !taken {
			return code, nil
		}
	}

	return "", ErrNoCodesAvailable
}

// settleIfEnded credits settlement results exactly once.
// Must be called with the entry lock held.
func (l *Lobby) settleIfEnded(ctx context.Context, e *sessionEntry) {
	if e.settled || e.session.Phase() != sevenhalf.PhaseEnded {
		return
	}

	e.settled = true
	e.endedAt = time.Now()

	adjustments, ok := e.session.Settlement()
	if !ok {
		// the session was aborted before settlement; hand the escrows back
		l.logger.WithField("code", e.session.Code()).Warn("session ended without settlement")
		for _, p := range e.session.Participants() {
			l.refund(ctx, p.PlayerID, e.session.Wager())
		}
		return
	}

	for playerID, credit := range adjustments {
		if credit == 0 {
			continue
		}

		if err := l.store.AdjustBalance(ctx, playerID, credit); err != nil {
			l.logger.WithError(err).WithFields(logrus.Fields{
				"code":     e.session.Code(),
				"playerId": playerID,
				"credit":   credit,
			}).Error("could not credit settlement")
		}
	}
}

// notify pushes fresh snapshots to every watcher.
// Must be called with the entry lock held.
func (l *Lobby) notify(e *sessionEntry) {
	for w := range e.watchers {
		w.Send(e.session.State(w.PlayerID))
	}
}

func (l *Lobby) refund(ctx context.Context, playerID int64, wager int) {
	if err := l.store.AdjustBalance(ctx, playerID, wager); err != nil {
		l.logger.WithError(err).WithField("playerId", playerID).Error("could not refund escrow")
	}
}

// evict drops sessions that ended or idled past their TTL
func (l *Lobby) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for code, e := range l.sessions {
		e.mu.Lock()

		expired := false
		reason := ""
		if e.settled && now.Sub(e.endedAt) >= l.endedTTL {
			expired = true
			reason = "session ended"
		} else if now.Sub(e.lastActive) >= l.idleTTL {
			expired = true
			reason = "session idle"
		}

		if expired {
			if !e.settled {
				// the session never settled; hand the escrows back
				for _, p := range e.session.Participants() {
					l.refund(context.Background(), p.PlayerID, e.session.Wager())
				}
			}

			for w := range e.watchers {
				w.requestClose(reason)
			}

			delete(l.sessions, code)
			l.logger.WithFields(logrus.Fields{
				"code":   code,
				"reason": reason,
			}).Debug("session evicted")
		}

		e.mu.Unlock()
	}
}
