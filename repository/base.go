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
	"fmt"

	"github.com/tomoncle/userdir/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db *bun.DB
}

// NewRepository returns a generic repository backed by the provided Bun DB.
// Entities are addressed by an "id" primary key column.
func NewRepository[T any](db *bun.DB) Repository[T] {
	return &baseRepositoryImpl[T]{db: db}
}

func (r *baseRepositoryImpl[T]) DB() *bun.DB { return r.db }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) GetOne(ctx context.Context, id any) (*T, error) {
	var entity T
	err := r.db.NewSelect().Model(&entity).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) GetAll(ctx context.Context) ([]*T, error) {
	var entities []*T
	err := r.db.NewSelect().Model(&entities).Scan(ctx)
	return entities, err
}

func (r *baseRepositoryImpl[T]) FindOne(ctx context.Context, filter *types.QueryFilter) (*T, error) {
	var entity T
	query := r.db.NewSelect().Model(&entity)
	if !filter.IsEmpty() {
		query = query.Where(filter.Schema, filter.Args...)
	}
	if err := query.Limit(1).Scan(ctx); err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	var entities []*T
	query := r.db.NewSelect().Model(&entities)
	if !filter.IsEmpty() {
		query = query.Where(filter.Schema, filter.Args...)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, filter *types.QueryFilter) (int, error) {
	query := r.db.NewSelect().Model((*T)(nil))
	if !filter.IsEmpty() {
		query = query.Where(filter.Schema, filter.Args...)
	}
	return query.Count(ctx)
}

// Preload loads the entity with the given id and applies merge to it in
// memory. Nothing is written; an unknown id yields sql.ErrNoRows.
func (r *baseRepositoryImpl[T]) Preload(ctx context.Context, id any, merge func(entity *T) error) (*T, error) {
	entity, err := r.GetOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if merge != nil {
		if err := merge(entity); err != nil {
			return nil, err
		}
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity ...*T) error {
	return r.insert(ctx, r.db, entity)
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T) error {
	_, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id any) error {
	return r.deleteByID(ctx, r.db, id)
}

// Remove deletes a previously loaded entity by its primary key.
func (r *baseRepositoryImpl[T]) Remove(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("remove: nil entity")
	}
	res, err := r.db.NewDelete().Model(entity).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *baseRepositoryImpl[T]) CreateWithTx(ctx context.Context, tx *bun.Tx, entity ...*T) error {
	return r.insert(ctx, tx, entity)
}

func (r *baseRepositoryImpl[T]) UpdateWithTx(ctx context.Context, tx *bun.Tx, entity *T) error {
	_, err := tx.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) DeleteWithTx(ctx context.Context, tx *bun.Tx, id any) error {
	return r.deleteByID(ctx, tx, id)
}

func (r *baseRepositoryImpl[T]) insert(ctx context.Context, db bun.IDB, entity []*T) error {
	switch len(entity) {
	case 0:
		return nil
	case 1:
		// A single struct model lets Bun scan generated columns back.
		_, err := db.NewInsert().Model(entity[0]).Exec(ctx)
		return err
	default:
		entities := make([]*T, len(entity))
		copy(entities, entity)
		_, err := db.NewInsert().Model(&entities).Exec(ctx)
		return err
	}
}

func (r *baseRepositoryImpl[T]) deleteByID(ctx context.Context, db bun.IDB, id any) error {
	res, err := db.NewDelete().Model((*T)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		// Not every driver reports affected rows; trust the statement.
		return nil
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
