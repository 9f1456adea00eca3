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
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tomoncle/userdir/database"
	"github.com/uptrace/bun"
)

func TestBeforeAppendModelInsert(t *testing.T) {
	u := &User{Email: "  A@x.com ", Name: " Bob "}
	if err := u.BeforeAppendModel(context.Background(), &bun.InsertQuery{}); err != nil {
		t.Fatal(err)
	}
	if u.ID == uuid.Nil || u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Fatalf("insert defaults not set: %+v", u)
	}
	if u.Email != "A@x.com" || u.Name != "bob" {
		t.Fatalf("normalized = %q %q", u.Email, u.Name)
	}

	id := uuid.New()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	kept := &User{ID: id, CreatedAt: created}
	_ = kept.BeforeAppendModel(context.Background(), &bun.InsertQuery{})
	if kept.ID != id || !kept.CreatedAt.Equal(created) {
		t.Fatalf("explicit id or created_at overwritten: %+v", kept)
	}
}

func TestBeforeAppendModelUpdate(t *testing.T) {
	id := uuid.New()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	u := &User{ID: id, Name: "ALICE", CreatedAt: created, UpdatedAt: created}
	_ = u.BeforeAppendModel(context.Background(), &bun.UpdateQuery{})
	if u.ID != id || !u.CreatedAt.Equal(created) || !u.UpdatedAt.After(created) || u.Name != "alice" {
		t.Fatalf("update hook = %+v", u)
	}

	// Selects leave the model untouched.
	s := &User{Name: "ALICE"}
	_ = s.BeforeAppendModel(context.Background(), &bun.SelectQuery{})
	if s.Name != "ALICE" || s.ID != uuid.Nil {
		t.Fatalf("select hook changed the model: %+v", s)
	}
}

func TestWithoutPassword(t *testing.T) {
	u := &User{ID: uuid.New(), Email: "a@x.com", Password: "$2a$10$hash"}
	c := u.WithoutPassword()
	if c.Password != "" || u.Password == "" {
		t.Fatalf("copy = %q, original = %q", c.Password, u.Password)
	}
	b, _ := json.Marshal(c)
	if strings.Contains(string(b), "password") {
		t.Fatalf("json = %s", b)
	}
	if (*User)(nil).WithoutPassword() != nil {
		t.Fatalf("nil receiver")
	}
}

func TestUserIsRegistered(t *testing.T) {
	for _, m := range database.RegisteredModelInstances() {
		if _, ok := m.(*User); ok {
			return
		}
	}
	t.Fatalf("User is not registered for table creation")
}
