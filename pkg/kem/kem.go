// Package kem provides a registry of post-quantum key encapsulation
// mechanisms and a stateful handle type over them.
package kem

import "io"

// Scheme is the stateless backend for one KEM parameter set.
//
// A nil rng asks the backend to use its own source of randomness. When
// Deterministic reports true a non-nil rng is the only entropy the backend
// consumes, so the same stream yields the same keys and ciphertexts. Other
// backends still draw from rng but mix in randomness of their own.
type Scheme interface {
	Name() string
	PublicKeySize() int
	SecretKeySize() int
	CiphertextSize() int
	SharedSecretSize() int
	GenerateKey(rng io.Reader) (publicKey, secretKey []byte, err error)
	Encapsulate(publicKey []byte, rng io.Reader) (ciphertext, sharedSecret []byte, err error)
	Decapsulate(ciphertext, secretKey []byte) (sharedSecret []byte, err error)
	ValidatePublicKey(publicKey []byte) error
	Deterministic() bool
}

// ListEnabled returns the enabled algorithms of the default registry.
func ListEnabled() []string {
	return Default().ListEnabled()
}

// IsEnabled reports whether name is enabled in the default registry.
func IsEnabled(name string) bool {
	return Default().IsEnabled(name)
}

// NewKeyEncapsulation creates a handle from the default registry.
func NewKeyEncapsulation(name string, opts ...Option) (*KeyEncapsulation, error) {
	return Default().NewKeyEncapsulation(name, opts...)
}

func checkSize(what string, got, want int) error {
	if got != want {
		return errorf("invalid %s size: got %d, want %d", what, got, want)
	}
	return nil
}

func allZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}
