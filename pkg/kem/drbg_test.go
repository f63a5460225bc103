package kem

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readN(t *testing.T, r io.Reader, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := io.ReadFull(r, b)
	require.NoError(t, err)
	return b
}

func TestDRBG(t *testing.T) {
	a := readN(t, NewDRBG([]byte("seed")), 64)
	assert.Equal(t, a, readN(t, NewDRBG([]byte("seed")), 64))
	assert.NotEqual(t, a, readN(t, NewDRBG([]byte("seed2")), 64))

	// Per-name streams are independent of each other and of the unnamed one.
	x := readN(t, DRBGFor([]byte("seed"), "Kyber512"), 64)
	y := readN(t, DRBGFor([]byte("seed"), "Kyber768"), 64)
	assert.NotEqual(t, x, y)
	assert.NotEqual(t, a, x)

	// The name is length-prefixed, so moving bytes between name and seed
	// changes the stream.
	assert.NotEqual(t,
		readN(t, DRBGFor([]byte("bc"), "a"), 32),
		readN(t, DRBGFor([]byte("c"), "ab"), 32))
}
