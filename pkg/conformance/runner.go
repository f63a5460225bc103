package conformance

import (
	stderrors "errors"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"kemcheck/pkg/kem"
)

// Result is the outcome of one algorithm's round trip.
type Result struct {
	Name string
	Hint kem.ResourceHint
	// Inline is set when the round trip ran on the goroutine that called Run.
	Inline   bool
	Duration time.Duration
	Err      error
}

// Status is one of "pass", "mismatch", "unsupported" or "error".
func (r Result) Status() string {
	switch {
	case r.Err == nil:
		return "pass"
	case errors.Is(r.Err, ErrMismatch):
		return "mismatch"
	case errors.Is(r.Err, kem.ErrUnsupportedAlgorithm):
		return "unsupported"
	default:
		return "error"
	}
}

// Report holds one Result per requested algorithm, in request order.
type Report struct {
	Results []Result
}

func (r Report) OK() bool {
	return len(r.Failed()) == 0
}

func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err joins the errors of every failed round trip, nil if all passed.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, errors.Wrap(res.Err, res.Name))
	}
	return stderrors.Join(errs...)
}

// Runner verifies many algorithms. Ordinary algorithms get a goroutine each;
// algorithms hinted kem.HintLargeStack run one after another on the goroutine
// calling Run.
type Runner struct {
	Registry *kem.Registry
	Sink     *Sink
	// Workers bounds the number of concurrent round trips; zero or less
	// means one goroutine per algorithm.
	Workers int
	Metrics *Metrics
	Clock   clockwork.Clock
	// Rand, when set, supplies the entropy for each algorithm's round trip.
	// It must return a distinct reader per call.
	Rand func(name string) io.Reader
}

// Run verifies names, or every enabled algorithm when names is empty. It
// always attempts every algorithm and returns once all have finished.
func (r *Runner) Run(names ...string) Report {
	reg := r.Registry
	if reg == nil {
		reg = kem.Default()
	}
	if len(names) == 0 {
		names = reg.ListEnabled()
	}

	results := make([]Result, len(names))
	var eg errgroup.Group
	if r.Workers > 0 {
		eg.SetLimit(r.Workers)
	}

	var inline []int
	for i, name := range names {
		if reg.ResourceHint(name) == kem.HintLargeStack {
			inline = append(inline, i)
			continue
		}
		i, name := i, name
		eg.Go(func() error {
			results[i] = r.verify(reg, name, false)
			return nil
		})
	}

	for _, i := range inline {
		results[i] = r.verify(reg, names[i], true)
	}

	_ = eg.Wait()
	return Report{Results: results}
}

func (r *Runner) verify(reg *kem.Registry, name string, inline bool) Result {
	sink := r.Sink
	if sink == nil {
		sink = DiscardSink()
	}
	clock := r.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	hint := reg.ResourceHint(name)
	sink.Start(name, hint, inline)

	var opts []VerifyOption
	if r.Rand != nil {
		opts = append(opts, WithRand(r.Rand(name)))
	}
	start := clock.Now()
	err := Verify(reg, name, opts...)
	res := Result{
		Name:     name,
		Hint:     hint,
		Inline:   inline,
		Duration: clock.Now().Sub(start),
		Err:      err,
	}

	if errors.Is(err, ErrMismatch) {
		sink.Mismatch(name)
	}
	sink.Result(res)
	r.Metrics.observe(res)
	return res
}
