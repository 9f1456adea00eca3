// Package repository provides a generic repository abstraction built on Bun
// for CRUD operations and a connection-scoped unit of work for
// transactional writes.
package repository
