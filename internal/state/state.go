package state

import (
	"errors"
	"sync"
)

var (
	ErrReleased = errors.New("result released")
	ErrNotFound = errors.New("result not found")
	ErrStale    = errors.New("batch superseded by a newer request")
)

type Phase int

const (
	IDLE Phase = iota
	GENERATING
	READY
	ERROR
)

func (p Phase) String() string {
	switch p {
	case GENERATING:
		return "generating"
	case READY:
		return "ready"
	case ERROR:
		return "error"
	default:
		return "idle"
	}
}

type State struct {
	Phase   Phase
	Token   uint64 // most recently started batch
	Err     string
	Current *ResultSet
}

// Store holds the single displayed result set. Only the orchestrator
// mutates it; readers take snapshots.
//
// While a request is queued or the latest batch is running, snapshots
// report GENERATING; otherwise they report the phase the last batch
// settled in.
type Store struct {
	mu      sync.RWMutex
	state   State
	queued  int
	running bool
}

func NewStore() *Store {
	return &Store{state: State{Phase: IDLE}}
}

func (store *Store) Snapshot() State {
	store.mu.RLock()
	defer store.mu.RUnlock()
	snap := store.state
	if store.queued > 0 || store.running {
		snap.Phase = GENERATING
	}
	return snap
}

// Queue records a request that will start a batch later.
func (store *Store) Queue() {
	store.mu.Lock()
	store.queued++
	store.mu.Unlock()
}

// Unqueue drops one queued request, either because its batch has begun or
// because it was cancelled.
func (store *Store) Unqueue() {
	store.mu.Lock()
	if store.queued > 0 {
		store.queued--
	}
	store.mu.Unlock()
}

// Begin marks batch token as in flight. Tokens older than the current one
// are ignored.
func (store *Store) Begin(token uint64) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if token < store.state.Token {
		return
	}
	store.state.Token = token
	store.running = true
}

// Install releases the previously displayed set, then displays rs.
func (store *Store) Install(rs *ResultSet) {
	store.mu.Lock()
	previous := store.state.Current
	if previous != nil && previous != rs {
		previous.Release()
	}
	store.state.Current = rs
	store.state.Phase = READY
	store.state.Err = ""
	store.running = false
	store.mu.Unlock()
}

// Fail replaces the output area with an error message. The displayed set
// is released.
func (store *Store) Fail(err error) {
	store.mu.Lock()
	if store.state.Current != nil {
		store.state.Current.Release()
		store.state.Current = nil
	}
	store.state.Phase = ERROR
	if err != nil {
		store.state.Err = err.Error()
	}
	store.running = false
	store.mu.Unlock()
}

// Abort ends the running batch without touching the output area.
func (store *Store) Abort() {
	store.mu.Lock()
	store.running = false
	store.mu.Unlock()
}

// Lookup returns file index of the displayed set if it belongs to token.
func (store *Store) Lookup(token uint64, index int) (File, error) {
	store.mu.RLock()
	current := store.state.Current
	store.mu.RUnlock()
	if current == nil || current.Token != token {
		return File{}, ErrNotFound
	}
	return current.File(index)
}

// Close releases whatever is displayed.
func (store *Store) Close() {
	store.mu.Lock()
	if store.state.Current != nil {
		store.state.Current.Release()
		store.state.Current = nil
	}
	store.state.Phase = IDLE
	store.queued = 0
	store.running = false
	store.mu.Unlock()
}
