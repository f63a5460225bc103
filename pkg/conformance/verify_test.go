package conformance

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kemcheck/pkg/kem"
)

func TestVerifyKyber512(t *testing.T) {
	reg := kem.Default().Only("Kyber512")
	require.Equal(t, []string{"Kyber512"}, reg.ListEnabled())
	require.NoError(t, Verify(reg, "Kyber512"))
}

func TestVerifyFixedVector(t *testing.T) {
	reg := kem.NewRegistry(fakeEntry(&fakeScheme{name: "Fake"}, kem.HintNone))
	require.NoError(t, Verify(reg, "Fake"))
}

func TestVerifyMismatch(t *testing.T) {
	bad := append([]byte(nil), testVector...)
	bad[31] ^= 1
	reg := kem.NewRegistry(fakeEntry(&fakeScheme{name: "Broken", decapSecret: bad}, kem.HintNone))

	err := Verify(reg, "Broken")
	var merr *MismatchError
	require.True(t, errors.As(err, &merr), "got %v", err)
	assert.Equal(t, "Broken", merr.Name)
	assert.True(t, errors.Is(err, ErrMismatch))
	assert.EqualError(t, err, "Broken: shared secrets do not coincide")
}

func TestVerifyShortSecretIsMismatch(t *testing.T) {
	reg := kem.NewRegistry(fakeEntry(&fakeScheme{name: "Short", decapSecret: testVector[:16]}, kem.HintNone))
	assert.True(t, errors.Is(Verify(reg, "Short"), ErrMismatch))
}

func TestVerifyBackendError(t *testing.T) {
	boom := errors.New("boom")
	reg := kem.NewRegistry(fakeEntry(&fakeScheme{name: "Failing", keygenErr: boom}, kem.HintNone))

	err := Verify(reg, "Failing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.False(t, errors.Is(err, ErrMismatch))
	assert.Contains(t, err.Error(), "generate keypair")
}

func TestVerifyUnsupported(t *testing.T) {
	for i := 0; i < 3; i++ {
		err := Verify(kem.Default(), "unsupported_kem")
		var uerr *kem.UnsupportedAlgorithmError
		require.True(t, errors.As(err, &uerr))
		assert.Equal(t, "unsupported_kem", uerr.Name)
	}
}

func TestVerifyIsRepeatable(t *testing.T) {
	for _, name := range []string{"ML-KEM-768", "sntrup4591761", "X-Wing"} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, Verify(kem.Default(), name))
			require.NoError(t, Verify(kem.Default(), name))
			require.NoError(t, Verify(kem.Default(), name, WithRand(kem.NewDRBG([]byte(name)))))
		})
	}
}
