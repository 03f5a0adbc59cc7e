package listset

import (
	"github.com/go-kit/kit/log"
)

const (
	// DefaultStripes is the lock count of the Striped variant.
	DefaultStripes = 16

	// DefaultYieldAfter is the number of failed attempts an operation makes
	// before it starts yielding the processor between attempts.
	DefaultYieldAfter = 32
)

// settings holds construction-time configuration of a Set.
type settings struct {
	logger      log.Logger
	instruments Instruments

	// stripes is the lock count of the Striped variant.
	stripes int

	// hasher binds a new node to a stripe. Without one, stripes are drawn
	// at random.
	hasher func(elem any) uint64

	// yieldAfter and warnAfter tune the retry loops; zero disables each.
	yieldAfter int
	warnAfter  int
}

// Option configures a Set.
type Option func(*settings)

func defaultSettings() settings {
	return settings{
		logger:      log.NewNopLogger(),
		instruments: DiscardInstruments(),
		stripes:     DefaultStripes,
		yieldAfter:  DefaultYieldAfter,
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(logger log.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInstruments exports operation counters through the given go-kit
// instruments in addition to the set's own Stats.
func WithInstruments(inst Instruments) Option {
	return func(s *settings) { s.instruments = inst.orDiscard() }
}

// WithStripes sets the lock count of the Striped variant. It panics if n is
// not positive.
func WithStripes(n int) Option {
	if n <= 0 {
		panic("listset: stripe count must be positive")
	}
	return func(s *settings) { s.stripes = n }
}

// WithHasher sets the function binding elements to stripes. It receives the
// element boxed as any.
func WithHasher(hash func(elem any) uint64) Option {
	return func(s *settings) { s.hasher = hash }
}

// WithYieldAfter makes an operation call runtime.Gosched between attempts
// once it has failed n times. Zero disables yielding.
func WithYieldAfter(n int) Option {
	return func(s *settings) { s.yieldAfter = max(n, 0) }
}

// WithWarnAfter logs one warning when an operation reaches n failed
// attempts. Zero disables the warning.
func WithWarnAfter(n int) Option {
	return func(s *settings) { s.warnAfter = max(n, 0) }
}
