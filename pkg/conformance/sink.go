package conformance

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"kemcheck/pkg/kem"
)

// Sink serializes the runner's output. Every method writes whole lines while
// holding the sink's lock, so concurrent round trips never interleave.
type Sink struct {
	mu  sync.Mutex
	log *logrus.Logger
}

// NewSink logs to w at the given level with logrus' text formatter.
func NewSink(w io.Writer, level logrus.Level) *Sink {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})
	return &Sink{log: l}
}

// NewSinkFromLogger uses an existing logger.
func NewSinkFromLogger(l *logrus.Logger) *Sink {
	return &Sink{log: l}
}

// DiscardSink drops everything.
func DiscardSink() *Sink {
	return NewSink(io.Discard, logrus.PanicLevel)
}

func (s *Sink) Start(name string, hint kem.ResourceHint, inline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.WithFields(logrus.Fields{
		"algorithm": name,
		"hint":      hint.String(),
		"inline":    inline,
	}).Info("round trip")
}

// Mismatch is reported as soon as it is detected, ahead of the summary.
func (s *Sink) Mismatch(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Error(name + ": shared secrets do not coincide")
}

func (s *Sink) Result(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.log.WithFields(logrus.Fields{
		"algorithm": r.Name,
		"status":    r.Status(),
		"duration":  r.Duration,
	})
	if r.Err != nil {
		entry.WithError(r.Err).Error("round trip failed")
		return
	}
	entry.Debug("round trip passed")
}

// Summary writes one row per algorithm to the logger's output.
func (s *Sink) Summary(rep Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tw := tabwriter.NewWriter(s.log.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ALGORITHM\tHINT\tSTATUS\tDURATION")
	for _, r := range rep.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Hint, r.Status(), r.Duration)
	}
	_ = tw.Flush()

	failed := len(rep.Failed())
	fmt.Fprintf(s.log.Out, "%d algorithms, %d passed, %d failed\n", len(rep.Results), len(rep.Results)-failed, failed)
}
