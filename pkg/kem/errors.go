package kem

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedAlgorithm matches every *UnsupportedAlgorithmError via errors.Is.
	ErrUnsupportedAlgorithm = errors.New("kem: algorithm not supported")

	ErrNotKeyed     = errors.New("kem: handle has no keypair")
	ErrAlreadyKeyed = errors.New("kem: handle already holds a keypair")
	ErrDestroyed    = errors.New("kem: handle has been cleaned")

	ErrInvalidPublicKey = errors.New("kem: invalid public key")
)

// UnsupportedAlgorithmError is returned when a handle is requested for a name
// that is unknown or not enabled.
type UnsupportedAlgorithmError struct {
	Name string
}

func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("kem: %q is not supported or not enabled", e.Name)
}

func (e *UnsupportedAlgorithmError) Is(target error) bool {
	return target == ErrUnsupportedAlgorithm
}

func errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}
