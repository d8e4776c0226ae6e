// Package store defines the key-value persistence contract used for session
// history and accounts, the key scheme, and the errors shared by every
// backend. Implementations live in internal/platform/memory,
// internal/platform/postgres and internal/platform/sqlite.
package store
