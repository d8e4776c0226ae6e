// Package session drives one user's workflow. A Controller owns the live
// SessionState and the cached history for a single username; a Manager hands
// out controllers by username.
//
// The controller mutex guards memory only. The analysis call runs outside it,
// so snapshots and history stay readable while a request is pending. Each
// analysis request carries a token; a result whose token no longer matches
// (because the session was reset meanwhile) is discarded.
package session
