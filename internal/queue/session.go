package queue

import (
	"context"
	"sync"

	"github.com/alfianmry16/open-mabar/internal/models"
)

// Snapshot is a consistent view of one project queue, ready to render.
// Project carries the current settings row so viewers notice mid-stream
// changes such as the queue being closed or a lane toggled.
type Snapshot struct {
	Project     *models.Project      `json:"project,omitempty"`
	Waiting     []models.QueueEntry  `json:"waiting"`
	Playing     []models.QueueEntry  `json:"playing"`
	Done        []models.QueueEntry  `json:"done"`
	Roles       []models.ProjectRole `json:"roles"`
	Leaderboard []LeaderboardRow     `json:"leaderboard"`
	Busy        bool                 `json:"busy"`
}

// Session is one viewer's live handle on a project queue. It caches the
// entry list, funnels mutations through the Store one at a time, and
// refreshes the cache after every write or external change signal. Create
// with NewSession and release with Close.
type Session struct {
	store     Store
	projectID uint
	actorID   uint
	pageSize  int
	lbSize    int

	mu      sync.Mutex
	project *models.Project
	entries []models.QueueEntry
	roles   []models.ProjectRole
	adding  bool
	lastErr error

	closeOnce sync.Once
	closed    chan struct{}
}

// NewSession creates a session for actorID viewing projectID. pageSize
// bounds the done bucket in snapshots and lbSize bounds the leaderboard;
// zero disables the respective limit.
func NewSession(store Store, projectID, actorID uint, pageSize, lbSize int) *Session {
	return &Session{
		store:     store,
		projectID: projectID,
		actorID:   actorID,
		pageSize:  pageSize,
		lbSize:    lbSize,
		closed:    make(chan struct{}),
	}
}

// Refresh reloads the project row, entries and roles from the store.
func (s *Session) Refresh(ctx context.Context) error {
	project, err := s.store.GetProject(ctx, s.projectID)
	if err != nil {
		s.setErr(err)
		return err
	}
	entries, err := s.store.ListEntries(ctx, s.projectID)
	if err != nil {
		s.setErr(err)
		return err
	}
	roles, err := s.store.ListRoles(ctx, s.projectID)
	if err != nil {
		s.setErr(err)
		return err
	}
	SortEntries(entries)

	s.mu.Lock()
	s.project = project
	s.entries = entries
	s.roles = roles
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// Watch refreshes the session whenever signals fires, until the channel
// closes, ctx is done or the session is closed. Bursts of queued signals
// collapse into a single refresh. Intended to be wired to a change-event
// subscription and run in its own goroutine.
func (s *Session) Watch(ctx context.Context, signals <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closed:
			return
		case _, ok := <-signals:
			if !ok {
				return
			}
			open := drainSignals(signals)
			// Best effort; the error lands in the session error slot.
			_ = s.Refresh(ctx)
			if !open {
				return
			}
		}
	}
}

// drainSignals empties any signals already queued so one refresh covers
// them all. Returns false when the channel is closed.
func drainSignals(signals <-chan struct{}) bool {
	for {
		select {
		case _, ok := <-signals:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}

// Snapshot renders the current cached state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]models.QueueEntry, len(s.entries))
	copy(entries, s.entries)
	waiting, playing, done := Partition(entries)
	return Snapshot{
		Project:     s.project,
		Waiting:     waiting,
		Playing:     playing,
		Done:        VisibleWindow(done, s.pageSize),
		Roles:       append([]models.ProjectRole(nil), s.roles...),
		Leaderboard: Leaderboard(entries, s.lbSize),
		Busy:        s.adding,
	}
}

// Filtered renders the cached entries narrowed by spec.
func (s *Session) Filtered(spec FilterSpec) []models.QueueEntry {
	s.mu.Lock()
	entries := make([]models.QueueEntry, len(s.entries))
	copy(entries, s.entries)
	s.mu.Unlock()
	return Filter(entries, spec)
}

// Err returns the last operation error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// AddPlayer submits a new player. Concurrent calls are rejected while one
// submission is in flight; the busy flag is visible in snapshots.
func (s *Session) AddPlayer(ctx context.Context, in AddPlayerInput) (*models.QueueEntry, error) {
	s.mu.Lock()
	if s.adding {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.adding = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.adding = false
		s.mu.Unlock()
	}()

	entry, err := s.store.AddPlayer(ctx, s.actorID, s.projectID, in)
	if err != nil {
		s.setErr(err)
		return nil, err
	}
	if err := s.Refresh(ctx); err != nil {
		return entry, err
	}
	return entry, nil
}

// UpdateStatus moves an entry between lifecycle states.
func (s *Session) UpdateStatus(ctx context.Context, entryID uint, status string) (*models.QueueEntry, error) {
	entry, err := s.store.UpdateStatus(ctx, s.actorID, s.projectID, entryID, status)
	if err != nil {
		s.setErr(err)
		return nil, err
	}
	if err := s.Refresh(ctx); err != nil {
		return entry, err
	}
	return entry, nil
}

// IncrementGamesPlayed bumps an entry's play counter.
func (s *Session) IncrementGamesPlayed(ctx context.Context, entryID uint) (*models.QueueEntry, error) {
	entry, err := s.store.IncrementGamesPlayed(ctx, s.actorID, s.projectID, entryID)
	if err != nil {
		s.setErr(err)
		return nil, err
	}
	if err := s.Refresh(ctx); err != nil {
		return entry, err
	}
	return entry, nil
}

// IncrementGamesRequested raises an entry's requested-games total.
func (s *Session) IncrementGamesRequested(ctx context.Context, entryID uint, delta int) (*models.QueueEntry, error) {
	entry, err := s.store.IncrementGamesRequested(ctx, s.actorID, s.projectID, entryID, delta)
	if err != nil {
		s.setErr(err)
		return nil, err
	}
	if err := s.Refresh(ctx); err != nil {
		return entry, err
	}
	return entry, nil
}

// ToggleFastTrack flips an entry's fast-track flag.
func (s *Session) ToggleFastTrack(ctx context.Context, entryID uint) (*models.QueueEntry, error) {
	entry, err := s.store.ToggleFastTrack(ctx, s.actorID, s.projectID, entryID)
	if err != nil {
		s.setErr(err)
		return nil, err
	}
	if err := s.Refresh(ctx); err != nil {
		return entry, err
	}
	return entry, nil
}

// RemovePlayer deletes an entry. The cached list drops the entry before the
// store call so the view updates immediately; a failed delete restores it
// via a full refresh.
func (s *Session) RemovePlayer(ctx context.Context, entryID uint) error {
	s.mu.Lock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.ID != entryID {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	s.mu.Unlock()

	if err := s.store.RemovePlayer(ctx, s.actorID, s.projectID, entryID); err != nil {
		s.setErr(err)
		_ = s.Refresh(ctx)
		return err
	}
	return s.Refresh(ctx)
}

// Close releases the session and stops any Watch loops.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

func (s *Session) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
