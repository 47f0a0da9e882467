package timer

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const DefaultPeriod = time.Second

// UpdateLoop invokes a refresh callback once per period until stopped.
type UpdateLoop struct {
	mu      sync.Mutex
	clock   clock.Clock
	period  time.Duration
	stop    chan struct{}
	done    chan struct{}
	running bool
}

func NewUpdateLoop(clk clock.Clock, period time.Duration) *UpdateLoop {
	if clk == nil {
		clk = clock.New()
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	return &UpdateLoop{clock: clk, period: period}
}

// Start begins ticking. It reports false when the loop is already running.
func (l *UpdateLoop) Start(refresh func()) bool {
	if refresh == nil {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return false
	}

	ticker := l.clock.Ticker(l.period)
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	l.running = true

	go l.run(ticker, l.stop, l.done, refresh)
	return true
}

func (l *UpdateLoop) run(ticker *clock.Ticker, stop, done chan struct{}, refresh func()) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			refresh()
		}
	}
}

// Stop cancels the loop and waits for an in-flight refresh to return. It must
// not be called from inside the refresh callback.
func (l *UpdateLoop) Stop() bool {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return false
	}
	close(l.stop)
	done := l.done
	l.running = false
	l.mu.Unlock()

	<-done
	return true
}

func (l *UpdateLoop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.running
}

func (l *UpdateLoop) Period() time.Duration {
	return l.period
}
