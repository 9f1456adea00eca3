/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/uptrace/bun"
)

// ErrScopeReleased is returned by every Scope method once Release ran.
var ErrScopeReleased = errors.New("repository: scope already released")

// UnitOfWork opens transactional scopes, each bound to its own connection
// taken from the pool.
type UnitOfWork[T any] struct {
	db   *bun.DB
	repo Repository[T]
	opts *sql.TxOptions
}

// NewUnitOfWork returns a UnitOfWork for entities of type T. opts may be nil.
func NewUnitOfWork[T any](db *bun.DB, opts *sql.TxOptions) *UnitOfWork[T] {
	return &UnitOfWork[T]{db: db, repo: NewRepository[T](db), opts: opts}
}

// Begin acquires a connection and starts a transaction on it. The caller
// owns the returned scope and must call Release exactly once.
func (u *UnitOfWork[T]) Begin(ctx context.Context) (*Scope[T], error) {
	conn, err := u.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	tx, err := conn.BeginTx(ctx, u.opts)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Scope[T]{repo: u.repo, conn: conn, tx: tx}, nil
}

// Scope is one transaction on one acquired connection.
type Scope[T any] struct {
	repo Repository[T]
	conn bun.Conn

	mu       sync.Mutex
	tx       bun.Tx
	finished bool
	released bool
}

// Tx exposes the underlying transaction for queries beyond Save.
func (s *Scope[T]) Tx() *bun.Tx { return &s.tx }

// Save writes entity by primary key inside the transaction.
func (s *Scope[T]) Save(ctx context.Context, entity *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrScopeReleased
	}
	if s.finished {
		return sql.ErrTxDone
	}
	return s.repo.UpdateWithTx(ctx, &s.tx, entity)
}

// Insert adds new entities inside the transaction.
func (s *Scope[T]) Insert(ctx context.Context, entity ...*T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrScopeReleased
	}
	if s.finished {
		return sql.ErrTxDone
	}
	return s.repo.CreateWithTx(ctx, &s.tx, entity...)
}

func (s *Scope[T]) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrScopeReleased
	}
	if s.finished {
		return sql.ErrTxDone
	}
	s.finished = true
	return s.tx.Commit()
}

// Rollback aborts the transaction. Rolling back an already finished
// transaction is a no-op.
func (s *Scope[T]) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrScopeReleased
	}
	if s.finished {
		return nil
	}
	s.finished = true
	return s.tx.Rollback()
}

// Release returns the connection to the pool, rolling back first if the
// transaction is still open. A second call reports ErrScopeReleased.
func (s *Scope[T]) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrScopeReleased
	}
	s.released = true
	var rollbackErr error
	if !s.finished {
		s.finished = true
		rollbackErr = s.tx.Rollback()
	}
	return errors.Join(rollbackErr, s.conn.Close())
}
