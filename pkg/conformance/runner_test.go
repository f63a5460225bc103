package conformance

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kemcheck/pkg/kem"
)

func TestRunnerAllEnabled(t *testing.T) {
	reg := kem.Default()

	r := &Runner{Registry: reg}
	rep := r.Run()
	require.NoError(t, rep.Err())
	require.True(t, rep.OK())

	enabled := reg.ListEnabled()
	require.Len(t, rep.Results, len(enabled))
	for i, res := range rep.Results {
		assert.Equal(t, enabled[i], res.Name)
		assert.Equal(t, "pass", res.Status())
		assert.Equal(t, reg.ResourceHint(res.Name) == kem.HintLargeStack, res.Inline, res.Name)
	}
}

func TestRunnerEmptyRegistry(t *testing.T) {
	r := &Runner{Registry: kem.NewRegistry()}
	rep := r.Run()
	assert.Empty(t, rep.Results)
	assert.True(t, rep.OK())
	assert.NoError(t, rep.Err())
}

func TestRunnerLargeStackRunsOnCaller(t *testing.T) {
	rec := newCallerRecorder()
	reg := kem.NewRegistry(
		fakeEntry(&fakeScheme{name: "Ordinary1", onKeygen: rec.record}, kem.HintNone),
		fakeEntry(&fakeScheme{name: "BigStackAlgo", onKeygen: rec.record}, kem.HintLargeStack),
		fakeEntry(&fakeScheme{name: "Ordinary2", onKeygen: rec.record}, kem.HintNone),
	)

	caller := goroutineID()
	rep := (&Runner{Registry: reg}).Run()
	require.True(t, rep.OK())

	id, ok := rec.id("BigStackAlgo")
	require.True(t, ok)
	assert.Equal(t, caller, id)
	assert.True(t, rep.Results[1].Inline)

	for _, name := range []string{"Ordinary1", "Ordinary2"} {
		id, ok := rec.id(name)
		require.True(t, ok)
		assert.NotEqual(t, caller, id, name)
	}
	assert.False(t, rep.Results[0].Inline)
	assert.False(t, rep.Results[2].Inline)
}

func TestRunnerContinuesAfterFailures(t *testing.T) {
	bad := bytes.Repeat([]byte{0xff}, 32)
	boom := errors.New("boom")
	reg := kem.NewRegistry(
		fakeEntry(&fakeScheme{name: "Broken", decapSecret: bad}, kem.HintNone),
		fakeEntry(&fakeScheme{name: "Good"}, kem.HintNone),
		fakeEntry(&fakeScheme{name: "Failing", keygenErr: boom}, kem.HintLargeStack),
		fakeEntry(&fakeScheme{name: "BrokenBig", decapSecret: bad}, kem.HintLargeStack),
		fakeEntry(&fakeScheme{name: "GoodBig"}, kem.HintLargeStack),
	)

	var out bytes.Buffer
	r := &Runner{Registry: reg, Sink: NewSink(&out, logrus.InfoLevel)}
	rep := r.Run()

	require.Len(t, rep.Results, 5)
	statuses := make(map[string]string)
	for _, res := range rep.Results {
		statuses[res.Name] = res.Status()
	}
	assert.Equal(t, map[string]string{
		"Broken":    "mismatch",
		"Good":      "pass",
		"Failing":   "error",
		"BrokenBig": "mismatch",
		"GoodBig":   "pass",
	}, statuses)
	assert.False(t, rep.OK())
	assert.Len(t, rep.Failed(), 3)

	err := rep.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMismatch))
	assert.True(t, errors.Is(err, boom))

	assert.Contains(t, out.String(), "Broken: shared secrets do not coincide")
	assert.Contains(t, out.String(), "BrokenBig: shared secrets do not coincide")
}

func TestRunnerUnknownName(t *testing.T) {
	rep := (&Runner{Registry: kem.NewRegistry()}).Run("unsupported_kem")
	require.Len(t, rep.Results, 1)
	assert.Equal(t, "unsupported", rep.Results[0].Status())
	assert.True(t, errors.Is(rep.Err(), kem.ErrUnsupportedAlgorithm))
}

func TestRunnerConcurrentOutput(t *testing.T) {
	const n = 64
	var entries []kem.Entry
	for i := 0; i < n; i++ {
		entries = append(entries, fakeEntry(&fakeScheme{name: fmt.Sprintf("Fake%02d", i)}, kem.HintNone))
	}
	reg := kem.NewRegistry(entries...)

	var out bytes.Buffer
	rep := (&Runner{Registry: reg, Sink: NewSink(&out, logrus.DebugLevel)}).Run()
	require.Len(t, rep.Results, n)
	require.True(t, rep.OK())

	seen := make(map[string]int)
	lines := 0
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		line := sc.Text()
		lines++
		require.True(t, strings.HasPrefix(line, "level="), "garbled line %q", line)
		for _, f := range strings.Fields(line) {
			if strings.HasPrefix(f, "algorithm=") {
				seen[strings.TrimPrefix(f, "algorithm=")]++
			}
		}
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, 2*n, lines)
	require.Len(t, seen, n)
	for name, count := range seen {
		assert.Equal(t, 2, count, name)
	}
}

func TestRunnerWorkerLimit(t *testing.T) {
	var active, peak int32
	slow := func(string, io.Reader) {
		cur := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
	}
	var entries []kem.Entry
	for i := 0; i < 12; i++ {
		entries = append(entries, fakeEntry(&fakeScheme{name: fmt.Sprintf("Slow%d", i), onKeygen: slow}, kem.HintNone))
	}

	rep := (&Runner{Registry: kem.NewRegistry(entries...), Workers: 2}).Run()
	require.True(t, rep.OK())
	assert.Len(t, rep.Results, 12)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRunnerDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	advance := func(string, io.Reader) { clock.Advance(3 * time.Second) }
	reg := kem.NewRegistry(fakeEntry(&fakeScheme{name: "Timed", onKeygen: advance}, kem.HintLargeStack))

	rep := (&Runner{Registry: reg, Clock: clock}).Run()
	require.Len(t, rep.Results, 1)
	assert.Equal(t, 3*time.Second, rep.Results[0].Duration)
}

func TestRunnerRand(t *testing.T) {
	var got []string
	var readers []io.Reader
	record := func(name string, rng io.Reader) {
		readers = append(readers, rng)
	}
	reg := kem.NewRegistry(fakeEntry(&fakeScheme{name: "Seeded", onKeygen: record}, kem.HintLargeStack))

	r := &Runner{
		Registry: reg,
		Rand: func(name string) io.Reader {
			got = append(got, name)
			return kem.DRBGFor([]byte("seed"), name)
		},
	}
	require.True(t, r.Run().OK())
	assert.Equal(t, []string{"Seeded"}, got)
	require.Len(t, readers, 1)
	assert.NotNil(t, readers[0])
}

func TestRunnerMetrics(t *testing.T) {
	reg := kem.NewRegistry(
		fakeEntry(&fakeScheme{name: "Good"}, kem.HintNone),
		fakeEntry(&fakeScheme{name: "Broken", decapSecret: make([]byte, 32)}, kem.HintLargeStack),
	)
	promReg := prometheus.NewRegistry()
	m := NewMetrics(promReg)

	r := &Runner{Registry: reg, Metrics: m}
	r.Run()
	r.Run("Good")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.roundTrips.WithLabelValues("Good", "pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.roundTrips.WithLabelValues("Broken", "mismatch")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestSinkSummary(t *testing.T) {
	var out bytes.Buffer
	s := NewSink(&out, logrus.InfoLevel)
	s.Summary(Report{Results: []Result{
		{Name: "Kyber512", Duration: time.Millisecond},
		{Name: "FrodoKEM-640-SHAKE", Hint: kem.HintLargeStack, Err: &MismatchError{Name: "FrodoKEM-640-SHAKE"}},
	}})

	text := out.String()
	assert.Contains(t, text, "ALGORITHM")
	assert.Contains(t, text, "large-stack")
	assert.Contains(t, text, "mismatch")
	assert.Contains(t, text, "2 algorithms, 1 passed, 1 failed")
}
