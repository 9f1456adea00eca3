// Package model holds the Bun models persisted by the user directory.
package model
