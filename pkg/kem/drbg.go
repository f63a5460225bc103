package kem

import (
	"encoding/binary"
	"io"

	"golang.org/x/crypto/sha3"
)

const drbgDomain = "kemcheck drbg v1"

// NewDRBG returns a deterministic byte stream expanded from seed with
// SHAKE256. It is for reproducible test runs only.
func NewDRBG(seed []byte) io.Reader {
	return DRBGFor(seed, "")
}

// DRBGFor derives an independent stream per algorithm name so that
// concurrent round trips never share a reader.
func DRBGFor(seed []byte, name string) io.Reader {
	h := sha3.NewShake256()
	var n [8]byte
	h.Write([]byte(drbgDomain))
	binary.BigEndian.PutUint64(n[:], uint64(len(name)))
	h.Write(n[:])
	h.Write([]byte(name))
	h.Write(seed)
	return h
}
