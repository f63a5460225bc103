package kem

import (
	"crypto/rand"
	"io"

	sntrup "github.com/companyzero/sntrup4591761"
	"github.com/pkg/errors"
)

// Sntrup4591761 implements Scheme using Streamlined NTRU Prime 4591^761.
type Sntrup4591761 struct{}

func NewSntrup4591761() *Sntrup4591761 {
	return &Sntrup4591761{}
}

func (k *Sntrup4591761) Name() string {
	return "sntrup4591761"
}

func (k *Sntrup4591761) Deterministic() bool {
	return true
}

func (k *Sntrup4591761) PublicKeySize() int {
	return sntrup.PublicKeySize
}

func (k *Sntrup4591761) SecretKeySize() int {
	return sntrup.PrivateKeySize
}

func (k *Sntrup4591761) CiphertextSize() int {
	return sntrup.CiphertextSize
}

func (k *Sntrup4591761) SharedSecretSize() int {
	return sntrup.SharedKeySize
}

func (k *Sntrup4591761) GenerateKey(rng io.Reader) (publicKey, secretKey []byte, err error) {
	if rng == nil {
		rng = rand.Reader
	}

	pub, priv, err := sntrup.GenerateKey(rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "sntrup4591761 key generation failed")
	}

	return pub[:], priv[:], nil
}

func (k *Sntrup4591761) Encapsulate(publicKey []byte, rng io.Reader) (ciphertext, sharedSecret []byte, err error) {
	if err := checkSize("public key", len(publicKey), sntrup.PublicKeySize); err != nil {
		return nil, nil, err
	}
	if rng == nil {
		rng = rand.Reader
	}

	var pub sntrup.PublicKey
	copy(pub[:], publicKey)

	ct, ss, err := sntrup.Encapsulate(rng, &pub)
	if err != nil {
		return nil, nil, errors.Wrap(err, "encapsulation failed")
	}

	return ct[:], ss[:], nil
}

func (k *Sntrup4591761) Decapsulate(ciphertext, secretKey []byte) (sharedSecret []byte, err error) {
	if err := checkSize("ciphertext", len(ciphertext), sntrup.CiphertextSize); err != nil {
		return nil, err
	}
	if err := checkSize("secret key", len(secretKey), sntrup.PrivateKeySize); err != nil {
		return nil, err
	}

	var (
		ct   sntrup.Ciphertext
		priv sntrup.PrivateKey
	)
	copy(ct[:], ciphertext)
	copy(priv[:], secretKey)
	defer zero(priv[:])

	ss, rc := sntrup.Decapsulate(&ct, &priv)
	if rc != 1 {
		return nil, errors.Errorf("decapsulation failed with return code: %d", rc)
	}

	return ss[:], nil
}

func (k *Sntrup4591761) ValidatePublicKey(publicKey []byte) error {
	if err := checkSize("public key", len(publicKey), sntrup.PublicKeySize); err != nil {
		return err
	}

	// Full validation needs the polynomial decoding; Encapsulate rejects
	// malformed keys.
	if allZero(publicKey) {
		return errors.New("invalid public key: all-zero")
	}

	return nil
}
