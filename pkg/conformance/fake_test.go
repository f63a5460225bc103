package conformance

import (
	"bytes"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"kemcheck/pkg/kem"
)

// testVector is the shared secret every well-behaved fake derives.
var testVector = []byte{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
	0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17,
	0x18, 0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f,
}

// fakeScheme is a deterministic backend. Decapsulation returns decapSecret
// when set, which lets tests force a mismatch.
type fakeScheme struct {
	name        string
	decapSecret []byte
	keygenErr   error
	onKeygen    func(name string, rng io.Reader)
}

func (f *fakeScheme) Name() string          { return f.name }
func (f *fakeScheme) PublicKeySize() int    { return 32 }
func (f *fakeScheme) SecretKeySize() int    { return 32 }
func (f *fakeScheme) CiphertextSize() int   { return 32 }
func (f *fakeScheme) SharedSecretSize() int { return len(testVector) }

func (f *fakeScheme) GenerateKey(rng io.Reader) ([]byte, []byte, error) {
	if f.onKeygen != nil {
		f.onKeygen(f.name, rng)
	}
	if f.keygenErr != nil {
		return nil, nil, f.keygenErr
	}
	return bytes.Repeat([]byte{1}, 32), bytes.Repeat([]byte{2}, 32), nil
}

func (f *fakeScheme) Encapsulate(publicKey []byte, rng io.Reader) ([]byte, []byte, error) {
	return bytes.Repeat([]byte{3}, 32), append([]byte(nil), testVector...), nil
}

func (f *fakeScheme) Decapsulate(ciphertext, secretKey []byte) ([]byte, error) {
	if f.decapSecret != nil {
		return append([]byte(nil), f.decapSecret...), nil
	}
	return append([]byte(nil), testVector...), nil
}

func (f *fakeScheme) ValidatePublicKey(publicKey []byte) error { return nil }
func (f *fakeScheme) Deterministic() bool                      { return true }

func fakeEntry(f *fakeScheme, hint kem.ResourceHint) kem.Entry {
	return kem.Entry{
		Name:    f.name,
		Enabled: true,
		Hint:    hint,
		New:     func() kem.Scheme { return f },
	}
}

// goroutineID parses the current goroutine's id from its stack header.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))
	id, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		panic(err)
	}
	return id
}

// callerRecorder notes which goroutine generated each algorithm's keys.
type callerRecorder struct {
	mu  sync.Mutex
	ids map[string]uint64
}

func newCallerRecorder() *callerRecorder {
	return &callerRecorder{ids: make(map[string]uint64)}
}

func (c *callerRecorder) record(name string, _ io.Reader) {
	id := goroutineID()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[name] = id
}

func (c *callerRecorder) id(name string) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.ids[name]
	return id, ok
}
