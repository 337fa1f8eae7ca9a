package retry

import (
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
)

// ClockAdjuster is the part of a transfer client the corrector drives.
type ClockAdjuster interface {
	Endpoint() string
	SetClockOffset(offset time.Duration) error
}

// SkewCorrector measures and applies signing-clock offsets per endpoint.
// The first measurement for an endpoint is cached and reused until Reset.
type SkewCorrector struct {
	mu      sync.Mutex
	enabled bool
	offsets *lru.Cache[string, time.Duration]
	now     func() time.Time
	logger  *slog.Logger
}

// SkewOption configures a SkewCorrector.
type SkewOption func(*SkewCorrector)

// WithClock overrides the local clock used to measure offsets.
func WithClock(now func() time.Time) SkewOption {
	return func(s *SkewCorrector) {
		s.now = now
	}
}

// WithSkewLogger sets the logger used to report corrections.
func WithSkewLogger(logger *slog.Logger) SkewOption {
	return func(s *SkewCorrector) {
		s.logger = logger
	}
}

// NewSkewCorrector creates a corrector caching offsets for up to size endpoints.
func NewSkewCorrector(enabled bool, size int, opts ...SkewOption) (*SkewCorrector, error) {
	cache, err := lru.New[string, time.Duration](size)
	if err != nil {
		return nil, errors.NewSenderError("newSkewCorrector", errors.ErrInvalidInput).WithMessage(err.Error())
	}

	s := &SkewCorrector{
		enabled: enabled,
		offsets: cache,
		now:     time.Now,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Enabled reports whether automatic correction is active.
func (s *SkewCorrector) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetEnabled turns automatic correction on or off.
func (s *SkewCorrector) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// PreRequest applies the cached offset for the client's endpoint. It runs
// before every attempt so a corrected offset is in effect before the
// attempt's signature is computed.
func (s *SkewCorrector) PreRequest(client ClockAdjuster) error {
	if !s.Enabled() {
		return nil
	}
	offset, ok := s.offsets.Get(client.Endpoint())
	if !ok {
		return nil
	}
	return client.SetClockOffset(offset)
}

// Correct records the offset implied by serverTime for the client's endpoint
// and returns the offset now in effect. An endpoint that already has a
// measurement keeps it. It reports false when correction is disabled or no
// server time is known.
func (s *SkewCorrector) Correct(client ClockAdjuster, serverTime time.Time) (time.Duration, bool) {
	if serverTime.IsZero() || !s.Enabled() {
		return 0, false
	}

	endpoint := client.Endpoint()
	measured := serverTime.Sub(s.now())
	if prev, found, _ := s.offsets.PeekOrAdd(endpoint, measured); found {
		return prev, true
	}

	s.logger.Info("clock skew corrected",
		"endpoint", endpoint,
		"offset", measured)
	return measured, true
}

// Offset returns the cached offset for endpoint.
func (s *SkewCorrector) Offset(endpoint string) (time.Duration, bool) {
	return s.offsets.Peek(endpoint)
}

// Reset drops the cached offset for endpoint.
func (s *SkewCorrector) Reset(endpoint string) {
	s.offsets.Remove(endpoint)
}

// Disable suspends automatic correction until the returned scope is
// released. Scopes nest: releasing one restores the state observed when it
// was acquired.
func (s *SkewCorrector) Disable() *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope := &Scope{owner: s, prior: s.enabled}
	s.enabled = false
	return scope
}

// Scope is a held suspension of automatic clock-skew correction.
type Scope struct {
	owner *SkewCorrector
	prior bool
	once  sync.Once
}

// Release restores the enabled state captured when the scope was acquired.
// Subsequent calls do nothing.
func (sc *Scope) Release() {
	sc.once.Do(func() {
		sc.owner.SetEnabled(sc.prior)
	})
}
