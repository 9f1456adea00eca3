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

	"github.com/tomoncle/userdir/types"
)

// Kind classifies the failures returned by Directory.
type Kind int

const (
	Unknown Kind = iota
	// NotFound means no user matched the id or term.
	NotFound
	// DuplicateKey means the store rejected a write on a unique column.
	// Callers can correct the input and retry.
	DuplicateKey
	// InternalFailure hides any other store error from the caller.
	InternalFailure
	InvalidInput
	Unimplemented
)

var kinds = []Kind{NotFound, DuplicateKey, InternalFailure, InvalidInput, Unimplemented}

var _ types.BaseEnum = NotFound

func (k Kind) IsValid() bool { return k > Unknown && k <= Unimplemented }

func (k Kind) Number() int {
	if !k.IsValid() {
		return types.IllegalValue
	}
	return int(k)
}

func (k Kind) Name() string {
	switch k {
	case NotFound:
		return "not_found"
	case DuplicateKey:
		return "duplicate_key"
	case InternalFailure:
		return "internal_failure"
	case InvalidInput:
		return "invalid_input"
	case Unimplemented:
		return "unimplemented"
	default:
		return types.IllegalName
	}
}

func (k Kind) Desc() string {
	switch k {
	case NotFound:
		return "not found"
	case DuplicateKey, InvalidInput:
		return "bad request"
	case InternalFailure:
		return "internal server error"
	case Unimplemented:
		return "not implemented"
	default:
		return types.IllegalDesc
	}
}

func (k Kind) String() string { return k.Name() }

// ParseKind maps a Kind name back to its value.
func ParseKind(name string) (Kind, bool) {
	return types.EnumByName(kinds, name)
}

// Error is the typed failure returned by every Directory operation.
// Detail carries caller-safe information from the store, Err the cause.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Err     error
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrNotFound        = &Error{Kind: NotFound}
	ErrDuplicateKey    = &Error{Kind: DuplicateKey}
	ErrInternalFailure = &Error{Kind: InternalFailure}
	ErrInvalidInput    = &Error{Kind: InvalidInput}
	ErrUnimplemented   = &Error{Kind: Unimplemented}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Desc()
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func notFound(term string) error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf("user with %s not found", term)}
}

func invalidInput(msg string) error {
	return &Error{Kind: InvalidInput, Message: msg}
}
