// internal/services/draft_service.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/trendora/admin-backend/internal/config"
	"github.com/trendora/admin-backend/internal/draft"
)

// DraftService owns the live editing sessions. Each session holds one draft
// for one editor; idle sessions are swept so abandoned drafts release their
// staged files.
type DraftService struct {
	uploader draft.Uploader
	source   draft.CategorySource
	cfg      *config.Config

	mtx      sync.Mutex
	sessions map[uuid.UUID]*draft.Session

	stop chan struct{}
}

func NewDraftService(uploader draft.Uploader, source draft.CategorySource, cfg *config.Config) *DraftService {
	s := &DraftService{
		uploader: uploader,
		source:   source,
		cfg:      cfg,
		sessions: make(map[uuid.UUID]*draft.Session),
		stop:     make(chan struct{}),
	}

	// Sweep idle sessions every minute
	go s.sweepIdleSessions()

	return s
}

// Open starts a fresh editing session against the given save destination.
// The category tree is loaded up front so editing never waits on it.
func (s *DraftService) Open(ctx context.Context, saver draft.Saver) (*draft.Session, error) {
	resolver := draft.NewResolver(s.source)
	if err := resolver.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to open draft session: %w", err)
	}

	session := draft.NewSession(draft.New(s.uploader), resolver, saver)

	s.mtx.Lock()
	s.sessions[session.ID] = session
	s.mtx.Unlock()

	logrus.WithField("session_id", session.ID).Info("Draft session opened")
	return session, nil
}

func (s *DraftService) Get(id uuid.UUID) (*draft.Session, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	session, ok := s.sessions[id]
	return session, ok
}

// Close tears the session down and forgets it. Safe to call for unknown IDs.
func (s *DraftService) Close(id uuid.UUID) {
	s.mtx.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mtx.Unlock()

	if ok {
		session.Close()
		logrus.WithField("session_id", id).Info("Draft session closed")
	}
}

func (s *DraftService) Shutdown() {
	close(s.stop)

	s.mtx.Lock()
	sessions := make([]*draft.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.sessions = make(map[uuid.UUID]*draft.Session)
	s.mtx.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

func (s *DraftService) sweepIdleSessions() {
	ttl := time.Duration(s.cfg.Uploads.SessionTTL) * time.Minute
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		s.mtx.Lock()
		var expired []*draft.Session
		for id, session := range s.sessions {
			if time.Since(session.IdleSince()) > ttl {
				expired = append(expired, session)
				delete(s.sessions, id)
			}
		}
		s.mtx.Unlock()

		for _, session := range expired {
			session.Close()
			logrus.WithField("session_id", session.ID).Info("Idle draft session swept")
		}
	}
}
