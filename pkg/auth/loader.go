package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"meridian-hq/meridian/pkg/config"
)

// usersFile is the on-disk shape of a users file: a top-level "users"
// list of the same entries the inline config carries.
type usersFile struct {
	Users []config.UserConfig `yaml:"users"`
}

// LoadUsers resolves the configured user table. A users file takes
// precedence over the inline list. Entries without a daily limit get the
// default one; users are active unless switched off.
func LoadUsers(cfg config.AuthConfig) ([]*User, error) {
	entries := cfg.Users
	if cfg.UsersFile != "" {
		data, err := os.ReadFile(cfg.UsersFile)
		if err != nil {
			return nil, fmt.Errorf("reading users file: %w", err)
		}
		var file usersFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing users file %s: %w", cfg.UsersFile, err)
		}
		entries = file.Users
	}

	now := time.Now()
	users := make([]*User, 0, len(entries))
	for i, entry := range entries {
		if entry.UserID == "" {
			return nil, fmt.Errorf("user %d: user_id is required", i)
		}
		if entry.APIKey == "" {
			return nil, fmt.Errorf("user %q: api_key is required", entry.UserID)
		}

		limit := entry.DailyLimit
		if limit <= 0 {
			limit = config.DefaultUserDailyLimit
		}
		active := entry.Active == nil || *entry.Active

		users = append(users, &User{
			UserID:     entry.UserID,
			APIKey:     entry.APIKey,
			DailyLimit: limit,
			Active:     active,
			CreatedAt:  now,
		})
	}
	return users, nil
}

// ApplyUsers writes a user table into the store. Users that already
// exist keep their live usage counters and creation time; users present
// in the store but missing from the table are deactivated rather than
// deleted.
func ApplyUsers(ctx context.Context, store Store, users []*User) error {
	existing, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("listing current users: %w", err)
	}

	keep := make(map[string]bool, len(users))
	for _, user := range users {
		keep[user.APIKey] = true

		current, err := store.Get(ctx, user.APIKey)
		if err != nil {
			return fmt.Errorf("loading user %s: %w", user.UserID, err)
		}
		if current != nil {
			user.RequestsToday = current.RequestsToday
			user.TotalRequests = current.TotalRequests
			user.LastRequest = current.LastRequest
			if !current.CreatedAt.IsZero() {
				user.CreatedAt = current.CreatedAt
			}
		}
		if err := store.Put(ctx, user); err != nil {
			return fmt.Errorf("storing user %s: %w", user.UserID, err)
		}
	}

	for _, current := range existing {
		if keep[current.APIKey] || !current.Active {
			continue
		}
		current.Active = false
		if err := store.Put(ctx, current); err != nil {
			return fmt.Errorf("deactivating user %s: %w", current.UserID, err)
		}
		slog.Info("user deactivated, no longer configured", "user", current.UserID)
	}
	return nil
}
