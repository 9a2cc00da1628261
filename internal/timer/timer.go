// Package timer measures wall-clock elapsed time for long-running commands:
// named splits, remaining-time estimates, throttled progress lines and
// simple loop benchmarks. All readings are timeval.Duration values.
package timer

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/timeval"
)

// DefaultProgressInterval is the minimum spacing between progress lines.
const DefaultProgressInterval = time.Second

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// Split is one named reading taken with Timer.Split.
type Split struct {
	Label   string           `json:"label"`
	Elapsed timeval.Duration `json:"elapsed"` // since Start
	Lap     timeval.Duration `json:"lap"`     // since the previous split
}

// Timer is a stopwatch. It is not safe for concurrent use.
type Timer struct {
	now     Clock
	start   time.Time
	last    time.Time
	splits  []Split
	limiter *rate.Limiter
}

// Option configures a Timer.
type Option func(*Timer)

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(t *Timer) { t.now = c }
}

// WithProgressInterval sets how often Progress may write.
func WithProgressInterval(d time.Duration) Option {
	return func(t *Timer) { t.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// New returns a started Timer.
func New(opts ...Option) *Timer {
	t := &Timer{
		now:     time.Now,
		limiter: rate.NewLimiter(rate.Every(DefaultProgressInterval), 1),
	}
	for _, o := range opts {
		o(t)
	}
	t.Start()
	return t
}

// Start resets the timer and discards recorded splits.
func (t *Timer) Start() {
	t.start = t.now()
	t.last = t.start
	t.splits = nil
}

// Elapsed returns the time since Start.
func (t *Timer) Elapsed() timeval.Duration {
	return timeval.FromStd(t.now().Sub(t.start))
}

// Split records a labelled reading and returns it.
func (t *Timer) Split(label string) Split {
	now := t.now()
	s := Split{
		Label:   label,
		Elapsed: timeval.FromStd(now.Sub(t.start)),
		Lap:     timeval.FromStd(now.Sub(t.last)),
	}
	t.last = now
	t.splits = append(t.splits, s)
	slog.Debug("timer split", "label", label, "elapsed", s.Elapsed.Standard(), "lap", s.Lap.Standard())
	return s
}

// Splits returns the recorded splits in order.
func (t *Timer) Splits() []Split {
	out := make([]Split, len(t.splits))
	copy(out, t.splits)
	return out
}

// Togo estimates the time remaining once done of total items are finished,
// assuming a constant rate.
func (t *Timer) Togo(done, total int) (timeval.Duration, error) {
	if done <= 0 {
		return timeval.Duration{}, fmt.Errorf("togo: no items done yet")
	}
	if done >= total {
		return timeval.Duration{}, nil
	}
	return t.Elapsed().Mul(float64(total-done) / float64(done)), nil
}

// Progress writes a one-line status for done of total items. Lines are
// throttled to the progress interval except the final one. It reports
// whether a line was written.
func (t *Timer) Progress(w io.Writer, done, total int) bool {
	final := done >= total
	if !final && !t.limiter.AllowN(t.now(), 1) {
		return false
	}
	elapsed := t.Elapsed()
	pct := 100.0
	if total > 0 {
		pct = 100 * float64(done) / float64(total)
	}
	line := fmt.Sprintf("%d/%d  %5.1f%%  elapsed %s", done, total, pct, elapsed.Standard())
	if togo, err := t.Togo(done, total); err == nil && !final {
		line += "  eta " + togo.Standard()
	}
	fmt.Fprintln(w, line)
	return true
}

// ─── Benchmarks ───────────────────────────────────────────────────────────────

// Benchmark calls fn loops times and reports total and per-call time.
func (t *Timer) Benchmark(name string, loops int, fn func()) model.BenchResult {
	if loops < 1 {
		loops = 1
	}
	begin := t.now()
	for i := 0; i < loops; i++ {
		fn()
	}
	total := timeval.FromStd(t.now().Sub(begin))
	per, _ := total.Div(float64(loops))
	slog.Debug("benchmark", "name", name, "loops", loops, "total", total.Standard())
	return model.BenchResult{Name: name, Loops: loops, Total: total, PerOp: per}
}

// Timeit returns how long fn takes to run once.
func Timeit(fn func()) timeval.Duration {
	begin := time.Now()
	fn()
	return timeval.FromStd(time.Since(begin))
}
