// Package conformance checks that KEM backends agree with themselves: a
// client and a server handle must derive the same shared secret.
package conformance

import (
	"crypto/subtle"
	"io"

	"github.com/pkg/errors"

	"kemcheck/pkg/kem"
)

// ErrMismatch matches every *MismatchError via errors.Is.
var ErrMismatch = errors.New("shared secrets do not coincide")

// MismatchError reports a round trip whose two shared secrets differ.
type MismatchError struct {
	Name string
}

func (e *MismatchError) Error() string {
	return e.Name + ": shared secrets do not coincide"
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}

type verifyConfig struct {
	rng io.Reader
}

// VerifyOption configures Verify.
type VerifyOption func(*verifyConfig)

// WithRand makes both handles of a round trip draw from rng.
func WithRand(rng io.Reader) VerifyOption {
	return func(c *verifyConfig) {
		c.rng = rng
	}
}

// Verify runs one round trip for name: the client generates a keypair, the
// server encapsulates against the client's public key and the client
// decapsulates the ciphertext. The secrets must be equal.
//
// Unsupported names return the registry's *kem.UnsupportedAlgorithmError,
// differing secrets a *MismatchError, and backend failures are returned
// wrapped with the step that failed.
func Verify(reg *kem.Registry, name string, opts ...VerifyOption) error {
	var cfg verifyConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	var handleOpts []kem.Option
	if cfg.rng != nil {
		handleOpts = append(handleOpts, kem.WithRand(cfg.rng))
	}

	client, err := reg.NewKeyEncapsulation(name, handleOpts...)
	if err != nil {
		return err
	}
	defer client.Clean()

	clientPublicKey, err := client.GenerateKeyPair()
	if err != nil {
		return errors.Wrap(err, "client")
	}

	server, err := reg.NewKeyEncapsulation(name, handleOpts...)
	if err != nil {
		return err
	}
	defer server.Clean()

	ciphertext, serverSecret, err := server.EncapSecret(clientPublicKey)
	if err != nil {
		return errors.Wrap(err, "server")
	}

	clientSecret, err := client.DecapSecret(ciphertext)
	if err != nil {
		return errors.Wrap(err, "client")
	}

	if subtle.ConstantTimeCompare(clientSecret, serverSecret) != 1 {
		return &MismatchError{Name: name}
	}
	return nil
}
