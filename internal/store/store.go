// Package store owns the authoritative in-memory collections (users,
// transactions, tasks, mediation settings, per-user task completions) and the
// single session user. Every mutation runs under one lock, is persisted to the
// key-value repository before the lock is released and publishes an Event.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ArowuTest/easyearning-backend/internal/ledger"
	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/registry"
	"github.com/ArowuTest/easyearning-backend/internal/repositories"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

var (
	ErrNoSession       = errors.New("no active session")
	ErrAccessDenied    = errors.New("access denied")
	ErrAccountBanned   = fmt.Errorf("%w: account suspended", ErrAccessDenied)
	ErrNotFound        = errors.New("not found")
	ErrTaskOnCooldown  = errors.New("task is on cooldown")
	ErrInvalidIdentity = errors.New("identity is required")
)

// Collection keys, relative to the configured prefix
const (
	KeyUsers        = "all_users"
	KeyTransactions = "transactions"
	KeyTasks        = "tasks"
	KeyMediation    = "mediation"
	KeySession      = "user"
	KeyCompletions  = "task_completions"
)

const persistTimeout = 5 * time.Second

// Policy holds the configured business rules the store applies
type Policy struct {
	Withdrawal      ledger.WithdrawalPolicy
	StartingBalance int
	ReferralBonus   int
	RefundRejected  bool
	Location        *time.Location
	AdminName       string
	AdminEmail      string
}

// Options configures a Store. Zero values fall back to sensible defaults.
type Options struct {
	KeyPrefix string
	Policy    Policy
	Clock     func() time.Time
	NewID     func() string
	Rand      ledger.IntnSource // Referral codes
}

// Store is the session and data store
type Store struct {
	mu   sync.Mutex
	repo repositories.KVRepository

	prefix string
	policy Policy
	clock  func() time.Time
	newID  func() string
	rng    ledger.IntnSource

	users        []models.User
	transactions []models.Transaction // Newest first
	tasks        *registry.Registry
	mediation    models.MediationSettings
	completions  map[string]time.Time
	sessionID    string

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// New creates a store and hydrates it from repo
func New(ctx context.Context, repo repositories.KVRepository, opts Options) (*Store, error) {
	s := &Store{
		repo:   repo,
		prefix: opts.KeyPrefix,
		policy: opts.Policy,
		clock:  opts.Clock,
		newID:  opts.NewID,
		rng:    opts.Rand,
		subs:   make(map[int]chan Event),
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.policy.Location == nil {
		s.policy.Location = time.UTC
	}

	if err := s.hydrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func (s *Store) now() time.Time {
	return s.clock().In(s.policy.Location)
}

// hydrate loads every collection, falling back to defaults for missing or
// unreadable keys, then writes the result back so storage mirrors memory.
func (s *Store) hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = []models.User{s.seedAdmin()}
	if _, err := s.load(ctx, KeyUsers, &s.users); err != nil {
		return err
	}

	s.transactions = []models.Transaction{}
	if _, err := s.load(ctx, KeyTransactions, &s.transactions); err != nil {
		return err
	}

	tasks := registry.DefaultTasks()
	if _, err := s.load(ctx, KeyTasks, &tasks); err != nil {
		return err
	}
	s.tasks = registry.New(tasks)

	s.mediation = models.DefaultMediationSettings()
	if _, err := s.load(ctx, KeyMediation, &s.mediation); err != nil {
		return err
	}

	s.completions = make(map[string]time.Time)
	if _, err := s.load(ctx, KeyCompletions, &s.completions); err != nil {
		return err
	}

	var session models.User
	found, err := s.load(ctx, KeySession, &session)
	if err != nil {
		return err
	}
	if found {
		s.sessionID = session.ID
	}

	s.persist(KeyUsers, KeyTransactions, KeyTasks, KeyMediation, KeyCompletions)
	s.syncSession()
	slog.Info("Store hydrated", "users", len(s.users), "transactions", len(s.transactions), "tasks", s.tasks.Len(), "session", s.sessionID != "")
	return nil
}

// load decodes the value stored under name into dst. Corrupt values are
// logged and leave dst at its default.
func (s *Store) load(ctx context.Context, name string, dst interface{}) (bool, error) {
	raw, err := s.repo.Get(ctx, s.key(name))
	if errors.Is(err, repositories.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		slog.Warn("Discarding unreadable persisted collection", "key", s.key(name), "error", err)
		return false, nil
	}
	return true, nil
}

// persist writes the named collections. Must be called with mu held.
// Failures are logged; the in-memory state stays authoritative.
func (s *Store) persist(names ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	for _, name := range names {
		var value interface{}
		switch name {
		case KeyUsers:
			value = s.users
		case KeyTransactions:
			value = s.transactions
		case KeyTasks:
			value = s.tasks.List()
		case KeyMediation:
			value = s.mediation
		case KeyCompletions:
			value = s.completions
		case KeySession:
			s.persistSession(ctx)
			continue
		}

		raw, err := json.Marshal(value)
		if err != nil {
			slog.Error("Failed to encode collection", "key", s.key(name), "error", err)
			continue
		}
		if err := s.repo.Put(ctx, s.key(name), raw); err != nil {
			slog.Error("Failed to persist collection", "key", s.key(name), "error", err)
		}
	}
}

func (s *Store) persistSession(ctx context.Context) {
	if s.sessionID == "" {
		if err := s.repo.Delete(ctx, s.key(KeySession)); err != nil {
			slog.Error("Failed to clear persisted session", "error", err)
		}
		return
	}
	idx := s.userIndex(s.sessionID)
	if idx < 0 {
		return
	}
	raw, err := json.Marshal(s.users[idx])
	if err != nil {
		slog.Error("Failed to encode session", "error", err)
		return
	}
	if err := s.repo.Put(ctx, s.key(KeySession), raw); err != nil {
		slog.Error("Failed to persist session", "error", err)
	}
}

// syncSession re-validates the session against the user directory. A banned
// or vanished session user is logged out. Must be called with mu held after
// every directory mutation.
func (s *Store) syncSession() {
	if s.sessionID == "" {
		return
	}
	idx := s.userIndex(s.sessionID)
	if idx >= 0 && !s.users[idx].IsBanned() {
		s.persist(KeySession)
		return
	}

	userID := s.sessionID
	s.sessionID = ""
	s.persist(KeySession)
	slog.Warn("Session terminated", "userID", userID, "reason", "account suspended")
	s.publish(EventSessionSuspended, userID)
}

func (s *Store) userIndex(id string) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) txIndex(id string) int {
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) seedAdmin() models.User {
	return models.User{
		ID:           models.MasterAdminID,
		Name:         s.policy.AdminName,
		Email:        s.policy.AdminEmail,
		ReferralCode: "EE_ADMIN",
		Role:         models.RoleAdmin,
		Status:       models.UserStatusActive,
		JoinedAt:     s.clock(),
	}
}
