// Package auth gates requests on credentials and daily quotas.
//
// # Overview
//
// The Gate runs in one of two modes fixed at startup. In "shared" mode
// a single secret admits every caller as the same unlimited synthetic
// user. In "multi_user" mode each credential maps to a User with a
// daily request limit; unknown credentials, deactivated accounts, and
// spent quotas are rejected with typed errors the HTTP layer translates
// to 401, 403, and 429.
//
// # Quota Accounting
//
// Daily counters roll over lazily: there is no midnight timer, the gate
// just compares the calendar day of the user's last request with today
// whenever it reads the count. Authorize only checks; the handler calls
// RecordUsage exactly once per admitted request, before dispatching
// upstream, so requests that later fail still count against the quota.
//
// # Storage
//
// User records live behind the Store interface with two backends: an
// in-memory map and a SQLite database (WAL mode, single write
// connection) for quota state that survives restarts. The user table
// comes from inline configuration or a users YAML file; with watching
// enabled a Watcher reloads the file on change, preserving the live
// counters of users that persist across the reload and deactivating
// users that were removed.
package auth
