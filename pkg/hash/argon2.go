// Package hash stores account passwords as argon2id strings in the
// $argon2id$v=19$m=...,t=...,p=...$salt$key format.
package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidHash         = errors.New("invalid hash format")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
	ErrInvalidParams       = errors.New("invalid argon2 parameters")
)

// Params are the argon2id cost settings. Memory is in KiB.
type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

func (p Params) validate() error {
	if p.Memory < 8*uint32(p.Parallelism) || p.Iterations == 0 || p.Parallelism == 0 {
		return ErrInvalidParams
	}
	if p.SaltLength < 8 || p.KeyLength < 16 {
		return ErrInvalidParams
	}
	return nil
}

// weakerThan reports whether p costs less than target on any axis
func (p Params) weakerThan(target Params) bool {
	return p.Memory < target.Memory ||
		p.Iterations < target.Iterations ||
		p.Parallelism < target.Parallelism ||
		p.KeyLength < target.KeyLength
}

// Hasher hashes new passwords with one set of params and verifies hashes
// produced with any params.
type Hasher struct {
	params Params
}

func NewHasher(params Params) (*Hasher, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Hasher{params: params}, nil
}

// Params returns the settings new hashes are produced with
func (h *Hasher) Params() Params {
	return h.params
}

func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against encoded. stale is true for a matching hash
// that was produced with cheaper params than h's, so callers can re-hash it.
func (h *Hasher) Verify(password, encoded string) (ok, stale bool, err error) {
	params, salt, key, err := decode(encoded)
	if err != nil {
		return false, false, err
	}

	other := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	if subtle.ConstantTimeCompare(key, other) != 1 {
		return false, false, nil
	}
	return true, params.weakerThan(h.params), nil
}

func decode(encoded string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return p, nil, nil, ErrIncompatibleVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))

	return p, salt, key, nil
}
