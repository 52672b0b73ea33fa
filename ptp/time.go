package ptp

import (
	"time"

	"go.uber.org/atomic"
)

// MutableTicker ticks on C like time.Ticker, but its interval can be
// changed and ticking paused while it runs. The first tick is
// immediate. Ticks are dropped while nobody reads C.
type MutableTicker struct {
	C <-chan bool
	d *atomic.Int64
	e *atomic.Bool
	i chan bool

	done   chan struct{}
	closed *atomic.Bool
}

func NewMutableTicker(d time.Duration) *MutableTicker {
	c := make(chan bool, 1)
	mt := &MutableTicker{
		C:      c,
		d:      atomic.NewInt64(int64(d)),
		e:      atomic.NewBool(true),
		i:      make(chan bool, 1),
		done:   make(chan struct{}),
		closed: atomic.NewBool(false),
	}

	go func() {
		for {
			if mt.e.Load() {
				select {
				case c <- true:
				default:
				}
			}

			t := time.NewTimer(time.Duration(mt.d.Load()))
			select {
			case <-t.C:
			case <-mt.i:
				t.Stop()
			case <-mt.done:
				t.Stop()
				return
			}
		}
	}()

	return mt
}

func (mt *MutableTicker) SetInterval(d time.Duration) {
	mt.d.Store(int64(d))
	mt.interrupt()
}

func (mt *MutableTicker) Interval() time.Duration {
	return time.Duration(mt.d.Load())
}

// Stop pauses ticking; Start resumes it.
func (mt *MutableTicker) Stop() {
	mt.e.Store(false)
	mt.interrupt()
}

func (mt *MutableTicker) Start() {
	mt.e.Store(true)
	mt.interrupt()
}

// Close ends the ticker goroutine. The ticker cannot be restarted.
func (mt *MutableTicker) Close() {
	if mt.closed.CAS(false, true) {
		close(mt.done)
	}
}

func (mt *MutableTicker) interrupt() {
	select {
	case mt.i <- true:
	default:
	}
}
