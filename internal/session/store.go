// Package session provides the ephemeral session store shared by all service
// instances through the cache.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "mngkeeper/pkg/domain-errors"
)

const (
	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "user_sessions:"

	// DefaultTTL is the absolute session lifetime when the caller supplies none.
	DefaultTTL = 8 * time.Hour

	// DefaultSlidingTTL is the renewal window applied on reads when sliding
	// expiry is enabled.
	DefaultSlidingTTL = 30 * time.Minute
)

var (
	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mngkeeper_sessions_created_total",
		Help: "Total number of sessions created",
	})
	sessionsInvalidated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mngkeeper_sessions_invalidated_total",
		Help: "Total number of sessions deleted or invalidated",
	})
	staleSessionsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mngkeeper_sessions_stale_pruned_total",
		Help: "Stale session ids removed from per-user indexes during listing",
	})
)

// Data is the session record stored per session id.
type Data struct {
	UserID       string         `json:"userId"`
	DomainID     string         `json:"domainId"`
	Username     string         `json:"username"`
	Roles        []string       `json:"roles"`
	Claims       map[string]any `json:"claims,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastAccessed time.Time      `json:"lastAccessed"`
}

// Store implements session CRUD with a per-user secondary index. One cache
// key holds the serialized Data per session; a set per user lists that user's
// live session ids.
type Store struct {
	cache         Cache
	logger        *slog.Logger
	defaultTTL    time.Duration
	slidingTTL    time.Duration
	slidingExpiry bool
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithDefaultTTL overrides the absolute session lifetime.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

// WithSlidingExpiry enables or disables TTL renewal on reads and sets the
// renewal window.
func WithSlidingExpiry(enabled bool, window time.Duration) Option {
	return func(s *Store) {
		s.slidingExpiry = enabled
		if window > 0 {
			s.slidingTTL = window
		}
	}
}

// NewStore creates a session store over the given cache.
func NewStore(cache Cache, opts ...Option) *Store {
	s := &Store{
		cache:         cache,
		logger:        slog.Default(),
		defaultTTL:    DefaultTTL,
		slidingTTL:    DefaultSlidingTTL,
		slidingExpiry: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func userSessionsKey(userID string) string { return userSessionKeyPrefix + userID }

// Create stores a new session and indexes it under the owning user. A zero
// ttl falls back to the store default. Returns the generated session id.
func (s *Store) Create(ctx context.Context, data *Data, ttl time.Duration) (string, error) {
	if data == nil || data.UserID == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "session data with user id is required")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := time.Now().UTC()
	if data.CreatedAt.IsZero() {
		data.CreatedAt = now
	}
	data.LastAccessed = now

	id := uuid.NewString()
	payload, err := json.Marshal(data)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "marshal session")
	}

	if err := s.cache.Set(ctx, sessionKey(id), payload, ttl); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "store session")
	}

	userKey := userSessionsKey(data.UserID)
	if err := s.cache.SAdd(ctx, userKey, id); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "index session")
	}
	// Refresh the index TTL alongside the newest session so the set never
	// outlives its last member by more than one lifetime.
	if err := s.cache.Expire(ctx, userKey, ttl); err != nil && !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("failed to refresh user session index ttl", "user_id", data.UserID, "error", err)
	}

	sessionsCreated.Inc()
	s.logger.Info("session created", "session_id", id, "user_id", data.UserID)
	return id, nil
}

// Get loads a session by id. When sliding expiry is enabled the session TTL
// is reset to the sliding window as a side effect of the read.
func (s *Store) Get(ctx context.Context, id string) (*Data, error) {
	payload, err := s.cache.Get(ctx, sessionKey(id))
	if errors.Is(err, ErrCacheMiss) {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load session")
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "unmarshal session")
	}

	if s.slidingExpiry {
		if err := s.Extend(ctx, id, s.slidingTTL); err != nil {
			// The session may have expired between the read and the renewal;
			// the caller still gets the data it read.
			s.logger.Warn("sliding renewal failed", "session_id", id, "error", err)
		}
	}

	return &data, nil
}

// Update replaces the session data while preserving its remaining TTL.
// It fails with not_found when the session no longer exists.
func (s *Store) Update(ctx context.Context, id string, data *Data) error {
	if data == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "session data is required")
	}

	key := sessionKey(id)
	ttl, err := s.cache.TTL(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		return dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "read session ttl")
	}

	data.LastAccessed = time.Now().UTC()
	payload, err := json.Marshal(data)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "marshal session")
	}

	if err := s.cache.Set(ctx, key, payload, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "update session")
	}
	return nil
}

// Delete removes a session and its entry in the owning user's index.
func (s *Store) Delete(ctx context.Context, id string) error {
	key := sessionKey(id)

	// Load first to learn the owning user; a concurrent expiry makes this a
	// no-op for the index.
	if payload, err := s.cache.Get(ctx, key); err == nil {
		var data Data
		if err := json.Unmarshal(payload, &data); err == nil && data.UserID != "" {
			if err := s.cache.SRem(ctx, userSessionsKey(data.UserID), id); err != nil {
				s.logger.Warn("failed to deindex session", "session_id", id, "error", err)
			}
		}
	}

	if err := s.cache.Delete(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "delete session")
	}
	sessionsInvalidated.Inc()
	return nil
}

// Extend resets the session TTL. A zero ttl falls back to the sliding window.
func (s *Store) Extend(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.slidingTTL
	}

	if err := s.cache.Expire(ctx, sessionKey(id), ttl); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "extend session")
	}
	return nil
}

// IsValid reports whether the session key still exists. It does not extend
// the TTL.
func (s *Store) IsValid(ctx context.Context, id string) (bool, error) {
	ok, err := s.cache.Exists(ctx, sessionKey(id))
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "check session")
	}
	return ok, nil
}

// ActiveSessionsForUser lists the user's live session ids. Ids whose session
// key already expired are pruned from the index lazily while listing.
func (s *Store) ActiveSessionsForUser(ctx context.Context, userID string) ([]string, error) {
	userKey := userSessionsKey(userID)
	ids, err := s.cache.SMembers(ctx, userKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list user sessions")
	}

	active := make([]string, 0, len(ids))
	for _, id := range ids {
		ok, err := s.cache.Exists(ctx, sessionKey(id))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "check session")
		}
		if !ok {
			if err := s.cache.SRem(ctx, userKey, id); err != nil {
				s.logger.Warn("failed to prune stale session id", "session_id", id, "error", err)
			}
			staleSessionsPruned.Inc()
			continue
		}
		active = append(active, id)
	}
	return active, nil
}

// InvalidateAllForUser deletes every session of the user and drops the index.
func (s *Store) InvalidateAllForUser(ctx context.Context, userID string) error {
	userKey := userSessionsKey(userID)
	ids, err := s.cache.SMembers(ctx, userKey)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "list user sessions")
	}

	for _, id := range ids {
		if err := s.cache.Delete(ctx, sessionKey(id)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "delete session")
		}
		sessionsInvalidated.Inc()
	}

	if err := s.cache.Delete(ctx, userKey); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "delete user session index")
	}

	s.logger.Info("all sessions invalidated", "user_id", userID, "count", len(ids))
	return nil
}
