// Package registry owns the process-wide map of live game sessions. Every
// mutation of a round goes through its session's lock, and a janitor sweeps
// out empty sessions and rounds stuck waiting on a play-again vote.
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog/log"

	"github.com/Richrosh3/online-casino/internal/game"
	"github.com/Richrosh3/online-casino/internal/game/blackjack"
	"github.com/Richrosh3/online-casino/internal/game/craps"
	"github.com/Richrosh3/online-casino/internal/game/poker"
	"github.com/Richrosh3/online-casino/internal/game/roulette"
	"github.com/Richrosh3/online-casino/internal/game/slots"
	"github.com/Richrosh3/online-casino/internal/store"
)

var ErrKindMismatch = errors.New("registry: session exists with a different game kind")

// newRound builds the concrete state machine for a game kind.
func newRound(kind game.Kind, deps game.Deps) game.Round {
	switch kind {
	case game.KindBlackjack:
		return blackjack.New(deps)
	case game.KindCraps:
		return craps.New(deps)
	case game.KindPoker:
		return poker.New(deps)
	case game.KindRoulette:
		return roulette.New(deps)
	case game.KindSlots:
		return slots.New(deps)
	default:
		return nil
	}
}

// Session pairs a round with the mutex that serializes every mutation on
// it. The timestamps feed the janitor and are only touched under mu.
type Session struct {
	ID   string
	Kind game.Kind

	mu            sync.Mutex
	round         game.Round
	clock         quartz.Clock
	emptySince    time.Time
	endingEntered time.Time
}

// Do runs fn with exclusive access to the session's round and refreshes
// the janitor timestamps from the state fn left behind.
func (s *Session) Do(fn func(game.Round)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.round)
	s.observeLocked()
}

func (s *Session) observeLocked() {
	now := s.clock.Now()
	if s.round.NumPlayers() == 0 {
		if s.emptySince.IsZero() {
			s.emptySince = now
		}
	} else {
		s.emptySince = time.Time{}
	}
	if s.round.Stage() == game.StageEnding {
		if s.endingEntered.IsZero() {
			s.endingEntered = now
		}
	} else {
		s.endingEntered = time.Time{}
	}
}

// Registry is the shared session table.
type Registry struct {
	deps        game.Deps
	clock       quartz.Clock
	grace       time.Duration
	voteTimeout time.Duration

	onForceReset func(sessionID string)

	mu       sync.Mutex
	sessions map[string]*Session
}

// New builds a registry. grace is how long an empty session survives
// before eviction; voteTimeout force-resets rounds stuck in their ending
// vote, with zero meaning wait forever.
func New(deps game.Deps, clock quartz.Clock, grace, voteTimeout time.Duration) *Registry {
	return &Registry{
		deps:        deps,
		clock:       clock,
		grace:       grace,
		voteTimeout: voteTimeout,
		sessions:    map[string]*Session{},
	}
}

// OnForceReset registers fn to run after the janitor force-resets a
// session's round, so the transport can push the fresh state. Register
// before StartJanitor; fn runs outside the session lock.
func (r *Registry) OnForceReset(fn func(sessionID string)) {
	r.onForceReset = fn
}

// NewID mints a fresh session identifier.
func (r *Registry) NewID() string {
	return store.NewID()
}

func (r *Registry) GetOrCreate(id string, kind game.Kind) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		if s.Kind != kind {
			return nil, ErrKindMismatch
		}
		return s, nil
	}
	round := newRound(kind, r.deps)
	if round == nil {
		return nil, game.ErrUnknownKind
	}
	s := &Session{ID: id, Kind: kind, round: round, clock: r.clock}
	s.emptySince = r.clock.Now()
	r.sessions[id] = s
	log.Info().Str("session", id).Str("kind", string(kind)).Msg("session created")
	return s, nil
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// ListActive maps session id to player count for one game kind.
func (r *Registry) ListActive(kind game.Kind) map[string]int {
	r.mu.Lock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.Kind == kind {
			snapshot = append(snapshot, s)
		}
	}
	r.mu.Unlock()

	out := map[string]int{}
	for _, s := range snapshot {
		s.Do(func(round game.Round) {
			out[s.ID] = round.NumPlayers()
		})
	}
	return out
}

const sweepInterval = 5 * time.Second

// StartJanitor sweeps until ctx is cancelled.
func (r *Registry) StartJanitor(ctx context.Context) {
	ticker := r.clock.TickerFunc(ctx, sweepInterval, func() error {
		r.Sweep(ctx)
		return nil
	}, "registry-janitor")
	go func() {
		_ = ticker.Wait()
	}()
}

// Sweep evicts sessions that have sat empty past the grace window and
// force-resets rounds whose ending vote has gone stale.
func (r *Registry) Sweep(ctx context.Context) {
	r.mu.Lock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.mu.Unlock()

	now := r.clock.Now()
	var resets []string
	for _, s := range snapshot {
		var evict, reset bool
		s.Do(func(round game.Round) {
			if !s.emptySince.IsZero() && now.Sub(s.emptySince) >= r.grace {
				evict = true
				return
			}
			if r.voteTimeout > 0 && !s.endingEntered.IsZero() && now.Sub(s.endingEntered) >= r.voteTimeout {
				log.Info().Str("session", s.ID).Msg("stale ending vote, forcing reset")
				round.ForceReset(ctx)
				reset = true
			}
		})
		if evict {
			log.Info().Str("session", s.ID).Str("kind", string(s.Kind)).Msg("evicting empty session")
			r.Remove(s.ID)
			continue
		}
		if reset {
			resets = append(resets, s.ID)
		}
	}
	if r.onForceReset != nil {
		for _, id := range resets {
			r.onForceReset(id)
		}
	}
}
