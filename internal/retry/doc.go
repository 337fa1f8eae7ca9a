// Package retry decides whether and when a failed part is attempted again.
//
// It holds the table-driven backoff, the sender/transient classification,
// and the clock-skew corrector that keeps request signatures valid when the
// local clock drifts from the service clock.
package retry
