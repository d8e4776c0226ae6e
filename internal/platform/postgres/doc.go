// Package postgres implements store.KVStore on PostgreSQL through the pgx
// database/sql driver. The schema is owned by internal/platform/migrations.
package postgres
