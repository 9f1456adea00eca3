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

import "github.com/google/uuid"

// IdentifierClassifier decides whether a lookup term is a structured
// identifier rather than an email or a name.
type IdentifierClassifier interface {
	Classify(term string) (uuid.UUID, bool)
}

// UUIDClassifier accepts the canonical 36 character hyphenated form of an
// RFC 4122 UUID of versions 1 to 8, plus the nil and max UUIDs.
type UUIDClassifier struct{}

var maxUUID = uuid.UUID{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

func (UUIDClassifier) Classify(term string) (uuid.UUID, bool) {
	if len(term) != 36 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(term)
	if err != nil {
		return uuid.Nil, false
	}
	if id == uuid.Nil || id == maxUUID {
		return id, true
	}
	if v := id.Version(); v < 1 || v > 8 || id.Variant() != uuid.RFC4122 {
		return uuid.Nil, false
	}
	return id, true
}
