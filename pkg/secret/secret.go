// Package secret holds sensitive values (passwords, payment numbers) in
// encrypted memory.
//
// A Secret keeps its plaintext in a memguard Enclave. The plaintext is only
// decrypted inside Reveal and Equal, and it never appears in String, JSON
// or log output:
//
//	pw := secret.NewString("Password1234")
//	ok := pw.EqualString(input)
//	masked := card.Masked(4) // "*****3123"
//
// Secrets are never written to a cache.
package secret

import (
	"crypto/subtle"
	"log/slog"
	"strings"
	"sync"

	"github.com/awnumar/memguard"
)

// Redacted is what a secret prints as.
const Redacted = "[redacted]"

// Secret is an immutable sensitive value. The zero value is empty.
type Secret struct {
	mu      sync.RWMutex
	enclave *memguard.Enclave
	size    int
}

// New seals b into a secret. b is wiped.
func New(b []byte) *Secret {
	s := &Secret{size: len(b)}
	if len(b) > 0 {
		s.enclave = memguard.NewEnclave(b)
	}
	return s
}

// NewString seals s into a secret.
func NewString(s string) *Secret {
	return New([]byte(s))
}

// Len returns the plaintext length.
func (s *Secret) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// IsZero reports whether the secret is empty or destroyed.
func (s *Secret) IsZero() bool {
	return s.Len() == 0
}

// Reveal calls fn with the plaintext. The slice is wiped when fn returns
// and must not be retained.
func (s *Secret) Reveal(fn func(plaintext []byte) error) error {
	if s == nil {
		return fn(nil)
	}
	s.mu.RLock()
	enclave := s.enclave
	s.mu.RUnlock()

	if enclave == nil {
		return fn(nil)
	}

	buf, err := enclave.Open()
	if err != nil {
		return err
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// Equal reports whether b matches the plaintext, in constant time.
func (s *Secret) Equal(b []byte) bool {
	equal := false
	err := s.Reveal(func(plaintext []byte) error {
		if len(plaintext) == 0 {
			equal = len(b) == 0
			return nil
		}
		equal = subtle.ConstantTimeCompare(plaintext, b) == 1
		return nil
	})
	return err == nil && equal
}

// EqualString is Equal for strings.
func (s *Secret) EqualString(v string) bool {
	return s.Equal([]byte(v))
}

// Masked returns the plaintext with all but the last keep characters
// replaced by '*'.
func (s *Secret) Masked(keep int) string {
	var out string
	_ = s.Reveal(func(plaintext []byte) error {
		if keep < 0 {
			keep = 0
		}
		if keep > len(plaintext) {
			keep = len(plaintext)
		}
		hidden := len(plaintext) - keep
		out = strings.Repeat("*", hidden) + string(plaintext[hidden:])
		return nil
	})
	return out
}

// Destroy drops the sealed value. The secret is empty afterwards.
func (s *Secret) Destroy() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enclave = nil
	s.size = 0
}

// String implements fmt.Stringer without revealing the value.
func (s *Secret) String() string {
	return Redacted
}

// MarshalJSON never encodes the plaintext.
func (s *Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + Redacted + `"`), nil
}

// LogValue implements slog.LogValuer.
func (s *Secret) LogValue() slog.Value {
	return slog.StringValue(Redacted)
}

// Purge wipes all memguard-managed memory. Call once during shutdown.
func Purge() {
	memguard.Purge()
}
