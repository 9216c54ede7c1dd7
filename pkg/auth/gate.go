package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/telemetry/metrics"
)

// Authentication modes.
const (
	ModeShared    = "shared"
	ModeMultiUser = "multi_user"
)

// Gate authorizes callers and bills their quota. It is configured once
// at startup in one of two modes: "shared" accepts a single secret and
// hands every caller the same unlimited synthetic user; "multi_user"
// looks credentials up in the store and enforces per-user daily limits.
//
// Authorize never mutates quota state. The handler calls RecordUsage
// exactly once per admitted request, before dispatch, so a forward that
// later fails is still billed.
type Gate struct {
	mode      string
	sharedKey string
	store     Store
	metrics   *metrics.Collector

	// mu serializes the read-modify-write in RecordUsage.
	mu  sync.Mutex
	now func() time.Time
}

// NewGate creates a gate for the configured mode. The store is only
// consulted in "multi_user" mode; the collector may be nil.
func NewGate(cfg config.AuthConfig, store Store, collector *metrics.Collector) *Gate {
	mode := cfg.Mode
	if mode == "" {
		mode = config.DefaultAuthMode
	}

	return &Gate{
		mode:      mode,
		sharedKey: cfg.SharedKey,
		store:     store,
		metrics:   collector,
		now:       time.Now,
	}
}

// Mode returns the configured authentication mode.
func (g *Gate) Mode() string {
	return g.mode
}

// SharedKey returns the shared-mode secret. Empty in multi-user mode.
func (g *Gate) SharedKey() string {
	return g.sharedKey
}

// Authorize checks the credential and the user's remaining quota. It
// returns the user on success and a typed error otherwise: ErrInvalidKey
// for an unknown credential, InactiveUserError for a disabled account,
// QuotaExceededError when the daily limit is spent.
func (g *Gate) Authorize(ctx context.Context, apiKey string) (*User, error) {
	switch g.mode {
	case ModeMultiUser:
		return g.authorizeUser(ctx, apiKey)
	default:
		return g.authorizeShared(apiKey)
	}
}

func (g *Gate) authorizeShared(apiKey string) (*User, error) {
	if apiKey != g.sharedKey {
		slog.Warn("invalid API key attempted", "key", MaskKey(apiKey, 10))
		g.metrics.RecordAuthRejection("invalid_key")
		return nil, ErrInvalidKey
	}

	g.metrics.RecordAuthAdmitted(ModeShared)
	return &User{
		UserID:     SharedUserID,
		APIKey:     apiKey,
		DailyLimit: SharedUserDailyLimit,
		Active:     true,
		CreatedAt:  g.now(),
	}, nil
}

func (g *Gate) authorizeUser(ctx context.Context, apiKey string) (*User, error) {
	user, err := g.store.Get(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("looking up credential: %w", err)
	}
	if user == nil {
		slog.Warn("invalid API key attempted", "key", MaskKey(apiKey, 10))
		g.metrics.RecordAuthRejection("invalid_key")
		return nil, ErrInvalidKey
	}
	if !user.Active {
		slog.Warn("inactive user attempted access", "user", user.UserID)
		g.metrics.RecordAuthRejection("inactive_user")
		return nil, &InactiveUserError{UserID: user.UserID}
	}

	used := user.EffectiveRequestsToday(g.now())
	if used >= user.DailyLimit {
		slog.Warn("quota exceeded",
			"user", user.UserID,
			"limit", user.DailyLimit,
			"used", used,
		)
		g.metrics.RecordAuthRejection("quota_exceeded")
		return nil, &QuotaExceededError{
			UserID: user.UserID,
			Limit:  user.DailyLimit,
			Used:   used,
		}
	}

	g.metrics.RecordAuthAdmitted(ModeMultiUser)
	slog.DebugContext(ctx, "user authorized",
		"user", user.UserID,
		"requests_today", used,
		"daily_limit", user.DailyLimit,
	)
	return user, nil
}

// RecordUsage bills one request to the user and persists the updated
// counters. The caller's user record is refreshed with the new counts.
// In shared mode the synthetic user is billed in place and nothing is
// persisted.
func (g *Gate) RecordUsage(ctx context.Context, user *User) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.mode != ModeMultiUser {
		user.charge(now)
		return nil
	}

	// Re-read so concurrent requests for the same user accumulate
	// instead of overwriting each other.
	current, err := g.store.Get(ctx, user.APIKey)
	if err != nil {
		return fmt.Errorf("reloading user %s: %w", user.UserID, err)
	}
	if current == nil {
		// Removed by a reload mid-request. Bill the in-flight copy but
		// write nothing back.
		user.charge(now)
		return nil
	}

	current.charge(now)
	if err := g.store.Put(ctx, current); err != nil {
		return fmt.Errorf("persisting usage for %s: %w", user.UserID, err)
	}
	*user = *current
	return nil
}
