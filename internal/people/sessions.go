package people

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/stanstork/people-api/internal/directory"
	"github.com/stanstork/people-api/internal/notification"
)

// DirectoryFactory returns the Directory as seen by one signed-in user.
type DirectoryFactory func(viewerID string) directory.Directory

// Session is one user's registry and the coordinator that mutates it.
type Session struct {
	Registry    *Registry
	Coordinator *Coordinator
}

// Sessions keeps one Session per viewer, created on first use.
type Sessions struct {
	factory DirectoryFactory
	cfg     Config
	logger  zerolog.Logger
	events  notification.Service

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessions(factory DirectoryFactory, cfg Config, logger zerolog.Logger, events notification.Service) *Sessions {
	return &Sessions{
		factory:  factory,
		cfg:      cfg,
		logger:   logger,
		events:   events,
		sessions: make(map[string]*Session),
	}
}

func (s *Sessions) Get(viewerID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[viewerID]; ok {
		return sess
	}
	reg := NewRegistry(viewerID, s.factory(viewerID), s.cfg, s.logger, s.events)
	sess := &Session{Registry: reg, Coordinator: NewCoordinator(reg)}
	s.sessions[viewerID] = sess
	s.logger.Debug().Str("viewer_id", viewerID).Msg("people session opened")
	return sess
}

// Lookup returns the viewer's session without creating one.
func (s *Sessions) Lookup(viewerID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[viewerID]
	return sess, ok
}

// Close drops the viewer's session, e.g. on sign-out.
func (s *Sessions) Close(viewerID string) {
	s.mu.Lock()
	sess, ok := s.sessions[viewerID]
	delete(s.sessions, viewerID)
	s.mu.Unlock()
	if ok {
		sess.Registry.Close()
	}
}

func (s *Sessions) CloseAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
	for _, sess := range all {
		sess.Registry.Close()
	}
}
