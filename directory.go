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

package userdir

import (
	"context"
	"errors"
	"strings"

	"github.com/tomoncle/userdir/database"
	"github.com/tomoncle/userdir/model"
	"github.com/tomoncle/userdir/repository"
	"github.com/tomoncle/userdir/types"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the record store behind a Directory. Single-entity lookups
// report absence as sql.ErrNoRows.
type UserStore interface {
	Create(ctx context.Context, user ...*model.User) error
	GetOne(ctx context.Context, id any) (*model.User, error)
	FindOne(ctx context.Context, filter *types.QueryFilter) (*model.User, error)
	Preload(ctx context.Context, id any, merge func(user *model.User) error) (*model.User, error)
	Remove(ctx context.Context, user *model.User) error
}

// Scope is one open transaction. Release must be called exactly once,
// whatever happened to the transaction.
type Scope interface {
	Save(ctx context.Context, user *model.User) error
	Commit() error
	Rollback() error
	Release() error
}

// UnitOfWork opens transactional scopes.
type UnitOfWork interface {
	Begin(ctx context.Context) (Scope, error)
}

// CreateUserInput carries the attributes of a new user. IsActive defaults
// to true.
type CreateUserInput struct {
	Email    string           `json:"email"`
	Name     string           `json:"name"`
	Password string           `json:"password"`
	IsActive *bool            `json:"is_active,omitempty"`
	Profile  types.JsonObject `json:"profile,omitempty"`
}

// UpdateUserInput lists the attributes to change; nil fields are kept.
// Profile keys are merged into the stored profile, a null value removes
// the key.
type UpdateUserInput struct {
	Email    *string          `json:"email,omitempty"`
	Name     *string          `json:"name,omitempty"`
	Password *string          `json:"password,omitempty"`
	IsActive *bool            `json:"is_active,omitempty"`
	Profile  types.JsonObject `json:"profile,omitempty"`
}

// Directory manages the lifecycle of user records.
type Directory struct {
	store  UserStore
	uow    UnitOfWork
	hasher PasswordHasher
	ids    IdentifierClassifier
	logger database.Logger
}

type Option func(*Directory)

func WithHasher(h PasswordHasher) Option {
	return func(d *Directory) { d.hasher = h }
}

func WithClassifier(c IdentifierClassifier) Option {
	return func(d *Directory) { d.ids = c }
}

func WithLogger(l database.Logger) Option {
	return func(d *Directory) { d.logger = l }
}

// New returns a Directory over store and uow. Without options it hashes
// with bcrypt at DefaultHashCost, recognises UUID identifiers and logs
// through database.GetLogger.
func New(store UserStore, uow UnitOfWork, opts ...Option) *Directory {
	d := &Directory{store: store, uow: uow}
	for _, opt := range opts {
		opt(d)
	}
	if d.hasher == nil {
		d.hasher = &BcryptHasher{cost: DefaultHashCost}
	}
	if d.ids == nil {
		d.ids = UUIDClassifier{}
	}
	if d.logger == nil {
		d.logger = database.GetLogger()
	}
	return d
}

// NewFromDB wires a Directory to the bun repository and unit of work of db.
func NewFromDB(db *bun.DB, opts ...Option) *Directory {
	return New(
		repository.NewRepository[model.User](db),
		bunUnitOfWork{uow: repository.NewUnitOfWork[model.User](db, nil)},
		opts...,
	)
}

type bunUnitOfWork struct {
	uow *repository.UnitOfWork[model.User]
}

func (b bunUnitOfWork) Begin(ctx context.Context) (Scope, error) {
	s, err := b.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create hashes the password, stores the user and returns it without the
// password hash.
func (d *Directory) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, invalidInput("email is required")
	}
	if in.Password == "" {
		return nil, invalidInput("password is required")
	}
	hash, err := d.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:    in.Email,
		Name:     in.Name,
		Password: hash,
		IsActive: true,
		Profile:  in.Profile,
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if err := d.store.Create(ctx, user); err != nil {
		return nil, d.classifyStoreError(err)
	}
	d.logger.Debug("User created", "id", user.ID)
	return user.WithoutPassword(), nil
}

// FindOne looks term up by id when it is a UUID, otherwise by email
// (case-insensitive) or name. A blank term matches nobody. The returned
// user includes the password hash.
func (d *Directory) FindOne(ctx context.Context, term string) (*model.User, error) {
	if strings.TrimSpace(term) == "" {
		return nil, notFound(term)
	}
	var (
		user *model.User
		err  error
	)
	if id, ok := d.ids.Classify(term); ok {
		user, err = d.store.GetOne(ctx, id)
	} else {
		// Both sides go through the store's UPPER so its case folding applies
		// to the term and the column alike.
		user, err = d.store.FindOne(ctx, types.NewQueryFilter(
			"UPPER(?TableAlias.email) = UPPER(?) OR ?TableAlias.name = ?",
			term, strings.ToLower(term),
		))
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound(term)
		}
		return nil, d.classifyStoreError(err)
	}
	return user, nil
}

// FindAll is not supported; it always fails with Unimplemented.
func (d *Directory) FindAll(ctx context.Context) ([]*model.User, error) {
	return nil, &Error{Kind: Unimplemented, Message: "listing users is not supported"}
}

// Update applies in to the user with the given id inside a transaction and
// returns the user as stored afterwards. An unknown id fails with NotFound
// before any transaction is opened.
func (d *Directory) Update(ctx context.Context, id string, in UpdateUserInput) (*model.User, error) {
	uid, ok := d.ids.Classify(id)
	if !ok {
		return nil, notFound("id: " + id)
	}
	merge, err := d.changes(in)
	if err != nil {
		return nil, err
	}

	user, err := d.store.Preload(ctx, uid, merge)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("id: " + id)
		}
		return nil, d.classifyStoreError(err)
	}

	if err := d.save(ctx, user); err != nil {
		return nil, err
	}
	return d.FindOne(ctx, uid.String())
}

// Remove loads the user with the given id and deletes it.
func (d *Directory) Remove(ctx context.Context, id string) error {
	if _, ok := d.ids.Classify(id); !ok {
		return notFound(id)
	}
	user, err := d.FindOne(ctx, id)
	if err != nil {
		return err
	}
	if err := d.store.Remove(ctx, user); err != nil {
		if repository.IsNotFound(err) {
			return notFound(id)
		}
		return d.classifyStoreError(err)
	}
	d.logger.Debug("User removed", "id", user.ID)
	return nil
}

func (d *Directory) save(ctx context.Context, user *model.User) error {
	scope, err := d.uow.Begin(ctx)
	if err != nil {
		return d.classifyStoreError(err)
	}
	defer func() {
		if err := scope.Release(); err != nil {
			d.logger.Warn("Failed to release transaction scope", "error", err)
		}
	}()

	if err := scope.Save(ctx, user); err != nil {
		d.rollback(scope)
		return d.classifyStoreError(err)
	}
	if err := scope.Commit(); err != nil {
		d.rollback(scope)
		return d.classifyStoreError(err)
	}
	return nil
}

func (d *Directory) rollback(scope Scope) {
	if err := scope.Rollback(); err != nil {
		d.logger.Warn("Failed to roll back transaction", "error", err)
	}
}

// changes validates in and returns the merge applied on top of the
// stored user. The password is hashed here so the merge cannot fail.
func (d *Directory) changes(in UpdateUserInput) (func(*model.User) error, error) {
	if in.Email != nil && strings.TrimSpace(*in.Email) == "" {
		return nil, invalidInput("email must not be empty")
	}
	var hash string
	if in.Password != nil {
		if *in.Password == "" {
			return nil, invalidInput("password must not be empty")
		}
		h, err := d.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	return func(u *model.User) error {
		if in.Email != nil {
			u.Email = *in.Email
		}
		if in.Name != nil {
			u.Name = *in.Name
		}
		if in.Password != nil {
			u.Password = hash
		}
		if in.IsActive != nil {
			u.IsActive = *in.IsActive
		}
		if in.Profile != nil {
			u.Profile = u.Profile.Merge(in.Profile)
		}
		return nil
	}, nil
}

func (d *Directory) hash(plain string) (string, error) {
	hash, err := d.hasher.Hash(plain)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", invalidInput("password is too long")
		}
		d.logger.Error("Failed to hash password", "error", err)
		return "", &Error{Kind: InternalFailure, Message: "please check server logs", Err: err}
	}
	return hash, nil
}

// classifyStoreError is the single place store errors are translated. It
// always returns an *Error of kind DuplicateKey or InternalFailure.
func (d *Directory) classifyStoreError(err error) error {
	if database.IsDuplicateKey(err) {
		detail := database.ConstraintDetail(err)
		d.logger.Debug("Unique constraint violated", "detail", detail)
		return &Error{Kind: DuplicateKey, Message: "duplicate key", Detail: detail, Err: err}
	}
	d.logger.Error("User store failure", "error", err)
	return &Error{Kind: InternalFailure, Message: "please check server logs", Err: err}
}
