package db

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
)

// ErrProfileLocked is returned when another session holds the profile's run lock.
var ErrProfileLocked = errors.New("profile run already in progress")

// lockNamespace separates autopilot advisory locks from other users of the database.
const lockNamespace = "job-autopilot/profile/"

// LockKey maps a profile ID to its advisory lock key.
func LockKey(profileID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(lockNamespace + profileID))
	return int64(h.Sum64())
}

// LockProfile takes a session-level advisory lock for the profile without waiting.
// It returns ErrProfileLocked if the lock is held elsewhere. The returned function
// releases the lock and returns the connection to the pool.
func (db *DB) LockProfile(ctx context.Context, profileID string) (func(context.Context) error, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	key := LockKey(profileID)
	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to lock profile %s: %w", profileID, err)
	}
	if !locked {
		conn.Release()
		return nil, fmt.Errorf("%w: %s", ErrProfileLocked, profileID)
	}

	unlock := func(ctx context.Context) error {
		defer conn.Release()
		var released bool
		if err := conn.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, key).Scan(&released); err != nil {
			// Closing the session drops every lock it holds.
			_ = conn.Conn().Close(ctx)
			return fmt.Errorf("failed to unlock profile %s: %w", profileID, err)
		}
		if !released {
			return fmt.Errorf("profile %s lock was not held", profileID)
		}
		return nil
	}
	return unlock, nil
}
