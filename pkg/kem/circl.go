package kem

import (
	"io"

	"github.com/cloudflare/circl/kem"
	"github.com/pkg/errors"
)

// CirclScheme implements Scheme on top of a CIRCL kem.Scheme.
type CirclScheme struct {
	name   string
	scheme kem.Scheme
	// randomized is set for schemes whose seeded derivation still reads
	// crypto/rand.
	randomized bool
}

// NewCirclScheme wraps s under the registry name.
func NewCirclScheme(name string, s kem.Scheme) *CirclScheme {
	return &CirclScheme{
		name:   name,
		scheme: s,
	}
}

// NewRandomizedCirclScheme wraps a scheme whose DeriveKeyPair and
// EncapsulateDeterministically are not reproducible. CIRCL's NIST-curve
// hybrids go through crypto/ecdh.GenerateKey, which may consume an extra
// byte of its reader at random.
func NewRandomizedCirclScheme(name string, s kem.Scheme) *CirclScheme {
	k := NewCirclScheme(name, s)
	k.randomized = true
	return k
}

func (k *CirclScheme) Name() string {
	return k.name
}

func (k *CirclScheme) PublicKeySize() int {
	return k.scheme.PublicKeySize()
}

func (k *CirclScheme) SecretKeySize() int {
	return k.scheme.PrivateKeySize()
}

func (k *CirclScheme) CiphertextSize() int {
	return k.scheme.CiphertextSize()
}

func (k *CirclScheme) SharedSecretSize() int {
	return k.scheme.SharedKeySize()
}

func (k *CirclScheme) Deterministic() bool {
	return !k.randomized
}

func (k *CirclScheme) GenerateKey(rng io.Reader) (publicKey, secretKey []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			publicKey, secretKey = nil, nil
			err = errors.Errorf("%s key generation panic: %v", k.name, r)
		}
	}()

	var (
		pk kem.PublicKey
		sk kem.PrivateKey
	)
	if rng == nil {
		pk, sk, err = k.scheme.GenerateKeyPair()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%s key generation failed", k.name)
		}
	} else {
		seed := make([]byte, k.scheme.SeedSize())
		if _, err := io.ReadFull(rng, seed); err != nil {
			return nil, nil, errors.Wrap(err, "failed to read key seed")
		}
		pk, sk = k.scheme.DeriveKeyPair(seed)
	}

	publicKey, err = pk.MarshalBinary()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to marshal public key")
	}

	secretKey, err = sk.MarshalBinary()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to marshal secret key")
	}

	return publicKey, secretKey, nil
}

func (k *CirclScheme) Encapsulate(publicKey []byte, rng io.Reader) (ciphertext, sharedSecret []byte, err error) {
	if err := checkSize("public key", len(publicKey), k.PublicKeySize()); err != nil {
		return nil, nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			ciphertext, sharedSecret = nil, nil
			err = errors.Errorf("encapsulation panic: %v", r)
		}
	}()

	pk, err := k.scheme.UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to unmarshal public key")
	}

	if rng == nil {
		ciphertext, sharedSecret, err = k.scheme.Encapsulate(pk)
	} else {
		seed := make([]byte, k.scheme.EncapsulationSeedSize())
		if _, err := io.ReadFull(rng, seed); err != nil {
			return nil, nil, errors.Wrap(err, "failed to read encapsulation seed")
		}
		ciphertext, sharedSecret, err = k.scheme.EncapsulateDeterministically(pk, seed)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "encapsulation failed")
	}

	return ciphertext, sharedSecret, nil
}

func (k *CirclScheme) Decapsulate(ciphertext, secretKey []byte) (sharedSecret []byte, err error) {
	if err := checkSize("ciphertext", len(ciphertext), k.CiphertextSize()); err != nil {
		return nil, err
	}
	if err := checkSize("secret key", len(secretKey), k.SecretKeySize()); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			sharedSecret = nil
			err = errors.Errorf("decapsulation panic: %v", r)
		}
	}()

	sk, err := k.scheme.UnmarshalBinaryPrivateKey(secretKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal secret key")
	}

	ss, err := k.scheme.Decapsulate(sk, ciphertext)
	if err != nil {
		return nil, errors.Wrap(err, "decapsulation failed")
	}

	return ss, nil
}

func (k *CirclScheme) ValidatePublicKey(publicKey []byte) error {
	if err := checkSize("public key", len(publicKey), k.PublicKeySize()); err != nil {
		return err
	}

	if _, err := k.scheme.UnmarshalBinaryPublicKey(publicKey); err != nil {
		return errors.Wrap(err, "invalid public key")
	}

	return nil
}
