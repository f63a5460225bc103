package kem

import (
	"crypto/rand"
	"io"

	"github.com/cloudflare/circl/kem/xwing"
	"github.com/pkg/errors"
)

// XWing implements Scheme with the packed X-Wing API from CIRCL.
// X-Wing is a hybrid of X25519 and ML-KEM-768.
//
// Specification: https://datatracker.ietf.org/doc/draft-connolly-cfrg-xwing-kem/
type XWing struct{}

func NewXWing() *XWing {
	return &XWing{}
}

func (k *XWing) Name() string {
	return "X-Wing"
}

func (k *XWing) Deterministic() bool {
	return true
}

func (k *XWing) PublicKeySize() int {
	return xwing.PublicKeySize
}

func (k *XWing) SecretKeySize() int {
	return xwing.PrivateKeySize
}

func (k *XWing) CiphertextSize() int {
	return xwing.CiphertextSize
}

func (k *XWing) SharedSecretSize() int {
	return xwing.SharedKeySize
}

func (k *XWing) GenerateKey(rng io.Reader) (publicKey, secretKey []byte, err error) {
	if rng == nil {
		rng = rand.Reader
	}

	// GenerateKeyPairPacked returns the private key first.
	secretKey, publicKey, err = xwing.GenerateKeyPairPacked(rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "X-Wing key generation failed")
	}
	return publicKey, secretKey, nil
}

func (k *XWing) Encapsulate(publicKey []byte, rng io.Reader) (ciphertext, sharedSecret []byte, err error) {
	if err := checkSize("public key", len(publicKey), xwing.PublicKeySize); err != nil {
		return nil, nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("encapsulation panic: %v", r)
			ciphertext = nil
			sharedSecret = nil
		}
	}()

	// A nil seed makes the library draw from crypto/rand.
	var seed []byte
	if rng != nil {
		seed = make([]byte, xwing.EncapsulationSeedSize)
		if _, err := io.ReadFull(rng, seed); err != nil {
			return nil, nil, errors.Wrap(err, "failed to read encapsulation seed")
		}
	}

	// Encapsulate returns the shared secret first.
	ss, ct, err := xwing.Encapsulate(publicKey, seed)
	if err != nil {
		return nil, nil, errors.Wrap(err, "encapsulation failed")
	}

	return ct, ss, nil
}

func (k *XWing) Decapsulate(ciphertext, secretKey []byte) (sharedSecret []byte, err error) {
	if err := checkSize("ciphertext", len(ciphertext), xwing.CiphertextSize); err != nil {
		return nil, err
	}
	if err := checkSize("secret key", len(secretKey), xwing.PrivateKeySize); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("decapsulation panic: %v", r)
			sharedSecret = nil
		}
	}()

	return xwing.Decapsulate(ciphertext, secretKey), nil
}

func (k *XWing) ValidatePublicKey(publicKey []byte) error {
	if err := checkSize("public key", len(publicKey), xwing.PublicKeySize); err != nil {
		return err
	}

	// The ML-KEM-768 part is checked by the library during encapsulation;
	// only the trailing X25519 component is checked here.
	if allZero(publicKey[xwing.PublicKeySize-32:]) {
		return errors.New("invalid X25519 public key: all-zero")
	}

	return nil
}
