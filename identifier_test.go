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
	"testing"

	"github.com/google/uuid"
)

func TestUUIDClassifier(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		term string
		want bool
	}{
		{id.String(), true},
		{"6F9619FF-8B86-1011-B42D-00C04FC964FF", true},
		{"017f22e2-79b0-7cc3-98c4-dc0c0c07398f", true},
		{"00000000-0000-0000-0000-000000000000", true},
		{"ffffffff-ffff-ffff-ffff-ffffffffffff", true},
		{"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", false},
		{"6F9619FF-8B86-D011-B42D-00C04FC964FF", false},
		{"6f9619ff-8b86-4011-c42d-00c04fc964ff", false},
		{"6f9619ff-8b86-0011-b42d-00c04fc964ff", false},
		{"urn:uuid:" + id.String(), false},
		{"{" + id.String() + "}", false},
		{"6f9619ff8b86d011b42d00c04fc964ff", false},
		{"alice@example.com", false},
		{"zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz", false},
		{"", false},
	}
	var c UUIDClassifier
	for _, tt := range tests {
		got, ok := c.Classify(tt.term)
		if ok != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.term, ok, tt.want)
		}
		if !ok && got != uuid.Nil {
			t.Errorf("Classify(%q) returned %v on rejection", tt.term, got)
		}
	}
	if got, _ := c.Classify(id.String()); got != id {
		t.Errorf("Classify returned %v, want %v", got, id)
	}
}
