// Package gameid generates and validates table identifiers. Clients
// may supply their own id when creating a table; server-generated ids
// are short Crockford base32 codes.
package gameid

import (
	"crypto/rand"
	"fmt"
)

// Crockford's base32 alphabet: unambiguous, lowercase, URL-safe.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// codeLength is the length of generated table codes. 8 characters of
// base32 gives 40 bits, plenty for the table counts a single server
// hosts.
const codeLength = 8

// maxIDLength bounds client-supplied ids.
const maxIDLength = 64

// RandSource allows deterministic generation in tests.
type RandSource interface {
	Intn(n int) int
}

// Generator produces table codes with configurable randomness.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator. A nil RandSource uses crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate creates a new table code using crypto/rand.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new table code.
func (g *Generator) Generate() string {
	code := make([]byte, codeLength)
	if g.randSource != nil {
		for i := range code {
			code[i] = alphabet[g.randSource.Intn(len(alphabet))]
		}
		return string(code)
	}

	raw := make([]byte, codeLength)
	if _, err := rand.Read(raw); err != nil {
		panic("gameid: failed to read random bytes: " + err.Error())
	}
	for i, b := range raw {
		code[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(code)
}

// Validate checks a table id, generated or client-supplied: non-empty,
// bounded length, and limited to letters, digits, '-' and '_'.
func Validate(id string) error {
	if id == "" {
		return fmt.Errorf("table id must not be empty")
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("table id must be at most %d characters, got %d", maxIDLength, len(id))
	}
	for i, c := range id {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return fmt.Errorf("invalid character %q at position %d", c, i)
		}
	}
	return nil
}
