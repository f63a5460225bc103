package kem

import (
	"io"

	"github.com/pkg/errors"
)

type handleState uint8

const (
	stateUninitialized handleState = iota
	stateKeyed
	stateDestroyed
)

// Details describes the algorithm bound to a handle.
type Details struct {
	Name             string
	PublicKeySize    int
	SecretKeySize    int
	CiphertextSize   int
	SharedSecretSize int
	Hint             ResourceHint
	// Deterministic is false when a seeded handle may still produce
	// different keys or ciphertexts on each run.
	Deterministic bool
}

// Option configures a KeyEncapsulation.
type Option func(*KeyEncapsulation)

// WithRand sets the entropy source of the handle. The default lets the
// backend use crypto/rand.
func WithRand(rng io.Reader) Option {
	return func(k *KeyEncapsulation) {
		k.rng = rng
	}
}

// KeyEncapsulation is bound to one algorithm and serves one party. It keeps
// the secret key it generated and never hands it out unless asked to export
// it. A KeyEncapsulation is not safe for concurrent use.
type KeyEncapsulation struct {
	scheme Scheme
	hint   ResourceHint
	rng    io.Reader

	state     handleState
	publicKey []byte
	secretKey []byte
}

// NewKeyEncapsulation creates an uninitialized handle for name.
func (r *Registry) NewKeyEncapsulation(name string, opts ...Option) (*KeyEncapsulation, error) {
	s, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	k := &KeyEncapsulation{
		scheme: s,
		hint:   r.ResourceHint(name),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// NewKeyEncapsulationFromSecret creates a keyed handle from an exported
// secret key.
func (r *Registry) NewKeyEncapsulationFromSecret(name string, secretKey []byte, opts ...Option) (*KeyEncapsulation, error) {
	k, err := r.NewKeyEncapsulation(name, opts...)
	if err != nil {
		return nil, err
	}
	if err := checkSize("secret key", len(secretKey), k.scheme.SecretKeySize()); err != nil {
		return nil, err
	}
	k.secretKey = append([]byte(nil), secretKey...)
	k.state = stateKeyed
	return k, nil
}

func (k *KeyEncapsulation) Details() Details {
	return Details{
		Name:             k.scheme.Name(),
		PublicKeySize:    k.scheme.PublicKeySize(),
		SecretKeySize:    k.scheme.SecretKeySize(),
		CiphertextSize:   k.scheme.CiphertextSize(),
		SharedSecretSize: k.scheme.SharedSecretSize(),
		Hint:             k.hint,
		Deterministic:    k.scheme.Deterministic(),
	}
}

// GenerateKeyPair creates the handle's keypair and returns the public key.
// A handle is keyed at most once.
func (k *KeyEncapsulation) GenerateKeyPair() ([]byte, error) {
	switch k.state {
	case stateDestroyed:
		return nil, ErrDestroyed
	case stateKeyed:
		return nil, ErrAlreadyKeyed
	}

	pk, sk, err := k.scheme.GenerateKey(k.rng)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: generate keypair", k.scheme.Name())
	}
	k.publicKey = pk
	k.secretKey = sk
	k.state = stateKeyed
	return append([]byte(nil), pk...), nil
}

// EncapSecret derives a ciphertext and shared secret for the peer's public
// key. It does not need the handle to be keyed. Keys the backend rejects
// fail with ErrInvalidPublicKey before any randomness is drawn.
func (k *KeyEncapsulation) EncapSecret(publicKey []byte) (ciphertext, sharedSecret []byte, err error) {
	if k.state == stateDestroyed {
		return nil, nil, ErrDestroyed
	}
	if err := k.scheme.ValidatePublicKey(publicKey); err != nil {
		return nil, nil, errors.Wrapf(ErrInvalidPublicKey, "%s: %v", k.scheme.Name(), err)
	}
	ct, ss, err := k.scheme.Encapsulate(publicKey, k.rng)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s: encapsulate", k.scheme.Name())
	}
	return ct, ss, nil
}

// DecapSecret recovers the shared secret from a ciphertext made for this
// handle's public key.
func (k *KeyEncapsulation) DecapSecret(ciphertext []byte) ([]byte, error) {
	switch k.state {
	case stateDestroyed:
		return nil, ErrDestroyed
	case stateUninitialized:
		return nil, ErrNotKeyed
	}
	ss, err := k.scheme.Decapsulate(ciphertext, k.secretKey)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: decapsulate", k.scheme.Name())
	}
	return ss, nil
}

// PublicKey returns the public key made by GenerateKeyPair, nil for handles
// loaded from a secret key.
func (k *KeyEncapsulation) PublicKey() []byte {
	return append([]byte(nil), k.publicKey...)
}

// ExportSecretKey returns a copy of the retained secret key.
func (k *KeyEncapsulation) ExportSecretKey() ([]byte, error) {
	switch k.state {
	case stateDestroyed:
		return nil, ErrDestroyed
	case stateUninitialized:
		return nil, ErrNotKeyed
	}
	return append([]byte(nil), k.secretKey...), nil
}

// Clean zeroes the secret key. Every later call on the handle fails with
// ErrDestroyed. Clean is idempotent.
func (k *KeyEncapsulation) Clean() {
	zero(k.secretKey)
	k.secretKey = nil
	k.publicKey = nil
	k.state = stateDestroyed
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
