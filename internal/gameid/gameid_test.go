package gameid

import (
	"strings"
	"testing"

	"github.com/lox/holdem-tables/internal/randutil"
)

func TestGenerateProducesValidCodes(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := Generate()
		if len(id) != codeLength {
			t.Fatalf("expected %d characters, got %d (%q)", codeLength, len(id), id)
		}
		if err := Validate(id); err != nil {
			t.Errorf("generated id failed validation: %v", err)
		}
		for _, c := range id {
			if !strings.ContainsRune(alphabet, c) {
				t.Errorf("character %q not in alphabet", c)
			}
		}
	}
}

func TestGenerateIsDeterministicWithRandSource(t *testing.T) {
	a := NewGenerator(randSource{randutil.New(11)}).Generate()
	b := NewGenerator(randSource{randutil.New(11)}).Generate()
	if a != b {
		t.Errorf("same seed produced different ids: %q vs %q", a, b)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		id string
		ok bool
	}{
		{"abc123", true},
		{"my-table_1", true},
		{"", false},
		{strings.Repeat("a", maxIDLength), true},
		{strings.Repeat("a", maxIDLength+1), false},
		{"has space", false},
		{"semi;colon", false},
	}
	for _, tc := range cases {
		err := Validate(tc.id)
		if tc.ok && err != nil {
			t.Errorf("expected %q to validate, got %v", tc.id, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("expected %q to fail validation", tc.id)
		}
	}
}

type randSource struct {
	rng interface{ IntN(int) int }
}

func (r randSource) Intn(n int) int { return r.rng.IntN(n) }
