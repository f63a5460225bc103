package main

import (
	"encoding/base64"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"kemcheck/pkg/kem"
)

// KeyFile is the JSON form of a key written by genkey. Exactly one of
// PublicKey and SecretKey is set.
type KeyFile struct {
	Algorithm string `json:"algorithm"`
	PublicKey string `json:"public_key,omitempty"` // base64 encoded
	SecretKey string `json:"secret_key,omitempty"` // base64 encoded
}

type keyKind int

const (
	publicKeyKind keyKind = iota
	secretKeyKind
)

func (k keyKind) String() string {
	if k == secretKeyKind {
		return "secret key"
	}
	return "public key"
}

func (k keyKind) perm() os.FileMode {
	if k == secretKeyKind {
		return 0600
	}
	// #nosec G306 - public keys are meant to be readable
	return 0644
}

func (k keyKind) size(d kem.Details) int {
	if k == secretKeyKind {
		return d.SecretKeySize
	}
	return d.PublicKeySize
}

func (k keyKind) field(f *KeyFile) *string {
	if k == secretKeyKind {
		return &f.SecretKey
	}
	return &f.PublicKey
}

// SavePublicKey saves a public key to a JSON file
func SavePublicKey(filename string, algorithm string, publicKey []byte) error {
	return saveKey(filename, publicKeyKind, algorithm, publicKey)
}

// SaveSecretKey saves a secret key to a JSON file readable by the owner only
func SaveSecretKey(filename string, algorithm string, secretKey []byte) error {
	return saveKey(filename, secretKeyKind, algorithm, secretKey)
}

// LoadPublicKey loads a public key and checks it has the size its algorithm
// expects in reg
func LoadPublicKey(reg *kem.Registry, filename string) (algorithm string, publicKey []byte, err error) {
	return loadKey(reg, filename, publicKeyKind)
}

// LoadSecretKey loads a secret key and checks it has the size its algorithm
// expects in reg
func LoadSecretKey(reg *kem.Registry, filename string) (algorithm string, secretKey []byte, err error) {
	return loadKey(reg, filename, secretKeyKind)
}

func saveKey(filename string, kind keyKind, algorithm string, key []byte) error {
	keyFile := KeyFile{Algorithm: algorithm}
	*kind.field(&keyFile) = base64.StdEncoding.EncodeToString(key)

	data, err := json.MarshalIndent(keyFile, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s", kind)
	}

	if err := os.WriteFile(filename, data, kind.perm()); err != nil {
		return errors.Wrapf(err, "failed to write %s file", kind)
	}

	return nil
}

func loadKey(reg *kem.Registry, filename string, kind keyKind) (string, []byte, error) {
	// #nosec G304 - filename comes from CLI args
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", nil, errors.Wrapf(err, "failed to read %s file", kind)
	}

	var keyFile KeyFile
	if err := json.Unmarshal(data, &keyFile); err != nil {
		return "", nil, errors.Wrapf(err, "failed to unmarshal %s", kind)
	}

	encoded := *kind.field(&keyFile)
	if encoded == "" {
		return "", nil, errors.Errorf("%s: no %s in file", filename, kind)
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, errors.Wrapf(err, "failed to decode %s", kind)
	}

	k, err := reg.NewKeyEncapsulation(keyFile.Algorithm)
	if err != nil {
		return "", nil, errors.Wrap(err, filename)
	}
	defer k.Clean()

	if want := kind.size(k.Details()); len(key) != want {
		return "", nil, errors.Errorf("%s: %s %s is %d bytes, want %d", filename, keyFile.Algorithm, kind, len(key), want)
	}

	return keyFile.Algorithm, key, nil
}

// writeBase64 stores data base64 encoded
func writeBase64(filename string, data []byte, perm os.FileMode) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	if err := os.WriteFile(filename, []byte(encoded), perm); err != nil {
		return errors.Wrapf(err, "failed to write %s", filename)
	}
	return nil
}

// readBase64 is the inverse of writeBase64
func readBase64(filename string) ([]byte, error) {
	// #nosec G304 - filename comes from CLI args
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", filename)
	}
	decoded, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", filename)
	}
	return decoded, nil
}
