// Package secretkey generates random secret keys and encodes them for storage
// in plain-text configuration such as .env files.
//
// Keys are always read from crypto/rand; the source can't be replaced.
package secretkey

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// DefaultSize is the key size in bytes used when the caller has no preference.
const DefaultSize = 32

// MaxSize is the largest key Generate will produce, 1 MiB.
const MaxSize = 1 << 20

var (
	// ErrInvalidArgument is returned for a key size outside [1, MaxSize].
	ErrInvalidArgument = errors.New("secretkey: invalid argument")
	// ErrEntropyUnavailable is returned when the secure random source can't be read.
	ErrEntropyUnavailable = errors.New("secretkey: entropy unavailable")
	// ErrInvalidEncoding is returned by Decode for input that isn't a stored key.
	ErrInvalidEncoding = errors.New("secretkey: invalid encoding")
)

// randReader is only replaced by tests.
var randReader io.Reader = rand.Reader

// Key is an immutable secret key.
type Key struct {
	b []byte
}

// Generate returns a new key of size bytes read from crypto/rand.
func Generate(size int) (Key, error) {
	if err := CheckSize(size); err != nil {
		return Key{}, err
	}
	b := make([]byte, size)
	if _, err := io.ReadFull(randReader, b); err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}
	return Key{b: b}, nil
}

// CheckSize returns ErrInvalidArgument if Generate would reject size.
func CheckSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidArgument, size)
	}
	if size > MaxSize {
		return fmt.Errorf("%w: size %d exceeds maximum of %d", ErrInvalidArgument, size, MaxSize)
	}
	return nil
}

// Encode renders k as a single line of standard, padded base64.
func Encode(k Key) string {
	return base64.StdEncoding.EncodeToString(k.b)
}

// Decode parses a key previously produced by Encode.
func Decode(s string) (Key, error) {
	if s == "" {
		return Key{}, fmt.Errorf("%w: empty key", ErrInvalidEncoding)
	}
	// The decoder silently skips newlines, a stored key never has them.
	if strings.ContainsAny(s, "\r\n") {
		return Key{}, fmt.Errorf("%w: key spans multiple lines", ErrInvalidEncoding)
	}
	b, err := base64.StdEncoding.Strict().DecodeString(s)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return Key{b: b}, nil
}

// Fingerprint returns a short identifier for k that can be shown or logged
// without revealing the key.
func Fingerprint(k Key) string {
	sum := blake2b.Sum256(k.b)
	return hex.EncodeToString(sum[:8])
}

// Len returns the key size in bytes.
func (k Key) Len() int {
	return len(k.b)
}

// Bytes returns a copy of the raw key material.
func (k Key) Bytes() []byte {
	return append([]byte(nil), k.b...)
}

// Equal reports whether k and o hold the same bytes, in constant time.
func (k Key) Equal(o Key) bool {
	return subtle.ConstantTimeCompare(k.b, o.b) == 1
}

// String never prints the key material.
func (k Key) String() string {
	return fmt.Sprintf("secretkey.Key(%d bytes)", len(k.b))
}

// GoString keeps %#v from printing the key material.
func (k Key) GoString() string {
	return k.String()
}
