// Package database provides connection pool management for the PostgreSQL
// listing store. The bulk drain path and point reads share one pgx pool.
package database
