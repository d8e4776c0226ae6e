// Package auth issues and validates access tokens and manages the account
// directory. Accounts exist only to namespace history records, so the
// directory stores nothing beyond a username and a bcrypt hash.
package auth
