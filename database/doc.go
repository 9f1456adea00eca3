// Package database provides connection management for MySQL, PostgreSQL
// and SQLite, table bootstrap migrations, driver error classification,
// configuration types, logging and health checks, all built on top of Bun.
package database
