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
	"errors"
	"fmt"
	"testing"

	"github.com/tomoncle/userdir/types"
)

func TestKindEnum(t *testing.T) {
	for _, k := range kinds {
		if !k.IsValid() {
			t.Fatalf("%d should be valid", k)
		}
		got, ok := ParseKind(k.Name())
		if !ok || got != k {
			t.Fatalf("ParseKind(%q) = %v, %v", k.Name(), got, ok)
		}
	}
	if Unknown.IsValid() || Unknown.Number() != types.IllegalValue || Unknown.Name() != types.IllegalName {
		t.Fatalf("Unknown must be illegal")
	}
	if _, ok := ParseKind("teapot"); ok {
		t.Fatalf("ParseKind accepted an unknown name")
	}
	if DuplicateKey.Desc() != "bad request" || InternalFailure.Desc() != "internal server error" {
		t.Fatalf("unexpected descriptions %q, %q", DuplicateKey.Desc(), InternalFailure.Desc())
	}
}

func TestErrorMatching(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("update: %w", &Error{Kind: DuplicateKey, Message: "duplicate key", Detail: "email taken", Err: cause})

	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("errors.Is by kind failed")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("matched the wrong kind")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not reachable")
	}
	if KindOf(err) != DuplicateKey || KindOf(cause) != Unknown || KindOf(nil) != Unknown {
		t.Fatalf("KindOf mismatch")
	}

	var e *Error
	if !errors.As(err, &e) || e.Error() != "duplicate key: email taken" {
		t.Fatalf("Error() = %q", e.Error())
	}
	if got := (&Error{Kind: Unimplemented}).Error(); got != "not implemented" {
		t.Fatalf("empty message falls back to %q", got)
	}
	if got := notFound("bob").Error(); got != "user with bob not found" {
		t.Fatalf("notFound message = %q", got)
	}
}
