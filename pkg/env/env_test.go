// Copyright 2026 Tunera Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package env

import (
	"testing"
	"time"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("TUNERA_TEST_STRING", "hello")
	if got := GetEnvString("TUNERA_TEST_STRING", "default"); got != "hello" {
		t.Fatalf("GetEnvString valid = %q, want %q", got, "hello")
	}

	t.Setenv("TUNERA_TEST_STRING", "")
	if got := GetEnvString("TUNERA_TEST_STRING", "default"); got != "default" {
		t.Fatalf("GetEnvString empty = %q, want %q", got, "default")
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TUNERA_TEST_INT", "42")
	if got := GetEnvInt("TUNERA_TEST_INT", 7); got != 42 {
		t.Fatalf("GetEnvInt valid = %d, want 42", got)
	}

	t.Setenv("TUNERA_TEST_INT", "not-int")
	if got := GetEnvInt("TUNERA_TEST_INT", 7); got != 7 {
		t.Fatalf("GetEnvInt invalid = %d, want 7", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("TUNERA_TEST_BOOL", "true")
	if got := GetEnvBool("TUNERA_TEST_BOOL", false); got != true {
		t.Fatalf("GetEnvBool true = %v, want true", got)
	}

	t.Setenv("TUNERA_TEST_BOOL", "not-bool")
	if got := GetEnvBool("TUNERA_TEST_BOOL", true); got != true {
		t.Fatalf("GetEnvBool invalid = %v, want true", got)
	}
}

func TestGetEnvFloat64(t *testing.T) {
	t.Setenv("TUNERA_TEST_FLOAT", "3.14")
	if got := GetEnvFloat64("TUNERA_TEST_FLOAT", 1.0); got != 3.14 {
		t.Fatalf("GetEnvFloat64 valid = %v, want 3.14", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TUNERA_TEST_DURATION", "1h2m3s")
	want := time.Hour + 2*time.Minute + 3*time.Second
	if got := GetEnvDuration("TUNERA_TEST_DURATION", 5*time.Second); got != want {
		t.Fatalf("GetEnvDuration valid = %v, want %v", got, want)
	}

	t.Setenv("TUNERA_TEST_DURATION", "not-duration")
	if got := GetEnvDuration("TUNERA_TEST_DURATION", 5*time.Second); got != 5*time.Second {
		t.Fatalf("GetEnvDuration invalid = %v, want %v", got, 5*time.Second)
	}
}
