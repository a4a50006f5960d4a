// Package registry implements the process-wide table of live games
// described in spec §4.10/§4.13: a map of gameId to *game.Game guarded by
// its own lock, entirely independent of each Game's inner mutation lock.
// Grounded on the teacher's SessionManager (internal/services/tetris/
// session_manager.go), whose sessions map plays the same role for a
// single passcode-keyed Tetris match; generalized here from a
// channel-driven event loop to a plain RWMutex since nothing about
// registry bookkeeping needs serialization through a goroutine of its
// own once Scheduler already serializes each Game's mutations.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaktris/shaktris-server/internal/config"
	"github.com/shaktris/shaktris-server/internal/game"
	"github.com/shaktris/shaktris-server/internal/player"
	"github.com/shaktris/shaktris-server/internal/shakerr"
)

// Difficulty scales a computer player's MinMoveInterval, per spec §4.13's
// AddComputerPlayer: an "easy" bot waits longer between moves than a
// "hard" one.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

var difficultyScale = map[Difficulty]float64{
	Easy:   2.0,
	Medium: 1.0,
	Hard:   0.4,
}

// Registry owns every live Game in the process.
type Registry struct {
	mu    sync.RWMutex
	games map[string]*game.Game

	settings config.Tunables
}

func New(settings config.Tunables) *Registry {
	return &Registry{games: make(map[string]*game.Game), settings: settings}
}

// CreateGame starts a new, empty Game and registers it under a fresh id.
func (r *Registry) CreateGame() *game.Game {
	id := uuid.NewString()
	g := game.New(id, r.settings, time.Now().UnixNano())

	r.mu.Lock()
	r.games[id] = g
	r.mu.Unlock()

	return g
}

// Get looks up a Game by id.
func (r *Registry) Get(gameID string) (*game.Game, error) {
	r.mu.RLock()
	g, ok := r.games[gameID]
	r.mu.RUnlock()
	if !ok {
		return nil, shakerr.New(shakerr.NotFound, "unknown game")
	}
	return g, nil
}

// Join finds gameID and adds name to it as a new player.
func (r *Registry) Join(gameID, name string) (*game.Game, *player.Player, error) {
	g, err := r.Get(gameID)
	if err != nil {
		return nil, nil, err
	}
	p, err := g.Join(name)
	if err != nil {
		return nil, nil, err
	}
	return g, p, nil
}

// List returns every currently registered game id, for diagnostics and
// matchmaking UIs.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.games))
	for id := range r.games {
		ids = append(ids, id)
	}
	return ids
}

// Remove retires a game, e.g. once it has been StatusCompleted or
// StatusAbandoned for long enough that nothing references it.
func (r *Registry) Remove(gameID string) {
	r.mu.Lock()
	delete(r.games, gameID)
	r.mu.Unlock()
}

// AddComputerPlayer registers a bot-controlled player in gameID whose
// rate limit is scaled by difficulty, per spec §4.13.
func (r *Registry) AddComputerPlayer(gameID, name string, difficulty Difficulty) (*game.Game, *player.Player, error) {
	g, err := r.Get(gameID)
	if err != nil {
		return nil, nil, err
	}
	p, err := g.Join(name)
	if err != nil {
		return nil, nil, err
	}
	scale, ok := difficultyScale[difficulty]
	if !ok {
		scale = 1.0
	}
	p.IsComputer = true
	p.MoveIntervalScale = scale
	return g, p, nil
}

// ReapAbandoned retires every game that has gone StatusCompleted or
// StatusAbandoned and then sat untouched for longer than idleFor, per
// spec §4.10's abandonment-timeout rule.
func (r *Registry) ReapAbandoned(idleFor time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reaped []string
	cutoff := time.Now().Add(-idleFor)
	for id, g := range r.games {
		status, lastUpdatedAt := g.StatusSnapshot()
		if (status == game.StatusCompleted || status == game.StatusAbandoned) && lastUpdatedAt.Before(cutoff) {
			delete(r.games, id)
			reaped = append(reaped, id)
		}
	}
	return reaped
}
