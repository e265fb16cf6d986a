package remote

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without contacting the server while a method's circuit is open
var ErrCircuitOpen = errors.New("circuit breaker open")

// circuitState represents the state of a circuit breaker
type circuitState int

const (
	stateClosed   circuitState = iota // Normal operation
	stateOpen                         // Server failing, calls rejected
	stateHalfOpen                     // One trial call allowed
)

func (s circuitState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// circuitBreaker tracks consecutive server failures per XRPC method and
// rejects calls to a failing method until openDuration has passed.
type circuitBreaker struct {
	failures         map[string]int
	lastFailure      map[string]time.Time
	state            map[string]circuitState
	now              func() time.Time
	logger           *slog.Logger
	failureThreshold int
	openDuration     time.Duration
	mu               sync.Mutex
}

func newCircuitBreaker(threshold int, openDuration time.Duration, logger *slog.Logger) *circuitBreaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &circuitBreaker{
		failureThreshold: threshold,
		openDuration:     openDuration,
		failures:         make(map[string]int),
		lastFailure:      make(map[string]time.Time),
		state:            make(map[string]circuitState),
		now:              time.Now,
		logger:           logger,
	}
}

// canAttempt reports whether a call to method may go out.
// An open circuit turns half-open once openDuration has elapsed.
func (cb *circuitBreaker) canAttempt(method string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state[method] {
	case stateOpen:
		lastFail := cb.lastFailure[method]
		if cb.now().Sub(lastFail) >= cb.openDuration {
			cb.setState(method, stateHalfOpen)
			return nil
		}
		return fmt.Errorf("%w for %s (failures: %d, next retry: %s)",
			ErrCircuitOpen, method, cb.failures[method], lastFail.Add(cb.openDuration).Format("15:04:05"))
	default:
		return nil
	}
}

// recordSuccess closes the circuit for method
func (cb *circuitBreaker) recordSuccess(method string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	delete(cb.failures, method)
	delete(cb.lastFailure, method)
	if cb.state[method] != stateClosed {
		cb.setState(method, stateClosed)
	}
}

// recordFailure counts a server-side failure. A failed half-open trial
// reopens the circuit immediately.
func (cb *circuitBreaker) recordFailure(method string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures[method]++
	cb.lastFailure[method] = cb.now()

	if cb.failures[method] >= cb.failureThreshold || cb.state[method] == stateHalfOpen {
		if cb.state[method] != stateOpen {
			cb.logger.Warn("opening circuit after consecutive failures",
				"method", method, "failures", cb.failures[method], "error", err)
		}
		cb.state[method] = stateOpen
		return
	}
	cb.logger.Debug("store call failed",
		"method", method, "failures", cb.failures[method], "threshold", cb.failureThreshold, "error", err)
}

// setState must be called with the lock held
func (cb *circuitBreaker) setState(method string, next circuitState) {
	cb.state[method] = next
	cb.logger.Info("circuit state changed", "method", method, "state", next.String())
}
