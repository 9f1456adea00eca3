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

package model

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tomoncle/userdir/database"
	"github.com/tomoncle/userdir/types"
	"github.com/uptrace/bun"
)

// User is a directory entry. Password only ever holds a one-way hash.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        uuid.UUID        `bun:"id,pk,type:varchar(36)" json:"id"`
	Email     string           `bun:"email,notnull,unique" json:"email"`
	Name      string           `bun:"name,notnull" json:"name"`
	Password  string           `bun:"password,notnull" json:"password,omitempty"`
	IsActive  bool             `bun:"is_active,notnull" json:"is_active"`
	Profile   types.JsonObject `bun:"profile,type:json" json:"profile,omitempty"`
	CreatedAt time.Time        `bun:"created_at,nullzero,notnull" json:"created_at"`
	UpdatedAt time.Time        `bun:"updated_at,nullzero,notnull" json:"updated_at"`
}

var _ bun.BeforeAppendModelHook = (*User)(nil)

func init() {
	database.RegisteredModel(database.NewModelAdapter((*User)(nil), 10))
}

// BeforeAppendModel assigns the id on insert, normalizes the lookup
// columns and maintains the timestamps.
func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		u.UpdatedAt = now
		u.Normalize()
	case *bun.UpdateQuery:
		u.UpdatedAt = now
		u.Normalize()
	}
	return nil
}

// Normalize trims the email and lower-cases the name, which is matched
// case-insensitively by lowering the search term.
func (u *User) Normalize() {
	u.Email = strings.TrimSpace(u.Email)
	u.Name = strings.ToLower(strings.TrimSpace(u.Name))
}

// WithoutPassword returns a shallow copy with the password hash cleared.
func (u *User) WithoutPassword() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Password = ""
	return &c
}
