// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session multiplexes conversations. Each session serializes its own
// turns; distinct sessions run in parallel and share nothing.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thesismate/topic-scout/internal/conversation"
	"github.com/thesismate/topic-scout/internal/route"
	"github.com/thesismate/topic-scout/pkg/types"
)

// Persister saves session state after handled turns. Implemented by the
// store package; a nil Persister disables persistence.
type Persister interface {
	SaveContext(ctx context.Context, sessionID string, conv types.ConversationContext) error
	SaveEvaluation(ctx context.Context, sessionID string, ev types.TopicEvaluation) error
}

// session pairs a conversation context with the mutex serializing its turns.
type session struct {
	mu   sync.Mutex
	conv types.ConversationContext
}

// Manager owns the sessions and drives the router for each turn.
type Manager struct {
	router *route.Router
	store  Persister
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewManager returns a manager over the router. store may be nil; a nil
// logger is replaced with a no-op logger.
func NewManager(router *route.Router, store Persister, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		router:   router,
		store:    store,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// Create registers a fresh conversation and returns its session ID.
func (m *Manager) Create() string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = &session{conv: types.NewConversationContext()}
	m.mu.Unlock()
	return id
}

// Attach registers an existing conversation under the given ID, replacing
// any current state for it. Used to resume a stored session.
func (m *Manager) Attach(id string, conv types.ConversationContext) {
	m.mu.Lock()
	m.sessions[id] = &session{conv: conv.Clone()}
	m.mu.Unlock()
}

// Get returns a snapshot of the session's context.
func (m *Manager) Get(id string) (types.ConversationContext, error) {
	sess, err := m.lookup(id)
	if err != nil {
		return types.ConversationContext{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.conv.Clone(), nil
}

// Handle processes one user turn on the session. Turns on the same session
// run strictly in arrival order.
func (m *Manager) Handle(ctx context.Context, id, userText string) (route.Directive, error) {
	sess, err := m.lookup(id)
	if err != nil {
		return route.Directive{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	start := time.Now()
	before := sess.conv.Stage
	dir, conv := m.router.Handle(ctx, sess.conv, userText)
	sess.conv = conv

	m.logger.Info("Handled turn",
		zap.String("session", id),
		zap.String("stage_before", string(before)),
		zap.String("stage_after", string(conv.Stage)),
		zap.String("directive", string(dir.Kind)),
		zap.Duration("duration", time.Since(start)))

	m.persist(ctx, id, conv, dir.Evaluations)
	return dir, nil
}

// Reset discards the session's conversation and starts over.
func (m *Manager) Reset(ctx context.Context, id string) error {
	sess, err := m.lookup(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.conv = conversation.Reset()
	m.persist(ctx, id, sess.conv, nil)
	return nil
}

// Revisit reopens a presented session for another proposal round.
func (m *Manager) Revisit(ctx context.Context, id string) error {
	sess, err := m.lookup(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.conv = route.Revisit(sess.conv)
	m.persist(ctx, id, sess.conv, nil)
	return nil
}

func (m *Manager) lookup(id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session %q", id)
	}
	return sess, nil
}

// persist snapshots the context and any fresh evaluations. Persistence
// failures never fail the turn.
func (m *Manager) persist(ctx context.Context, id string, conv types.ConversationContext, evals []types.TopicEvaluation) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveContext(ctx, id, conv); err != nil {
		m.logger.Warn("Saving session context failed", zap.String("session", id), zap.Error(err))
	}
	for _, ev := range evals {
		if err := m.store.SaveEvaluation(ctx, id, ev); err != nil {
			m.logger.Warn("Saving evaluation failed",
				zap.String("session", id), zap.String("topic", ev.Topic), zap.Error(err))
		}
	}
}
