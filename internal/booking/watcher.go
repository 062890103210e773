package booking

import (
	"sync"
	"time"

	"github.com/wolfman30/healthconnect/internal/appointments"
)

const (
	DefaultPollInterval = time.Minute
	watcherBuffer       = 4
)

// AccessUpdate is one evaluation of a confirmed booking's access window.
type AccessUpdate struct {
	BookingID string                         `json:"bookingId"`
	Mode      appointments.CommunicationMode `json:"mode"`
	Status    appointments.AccessStatus      `json:"status"`
	Open      bool                           `json:"open"`
	Window    appointments.Window            `json:"window"`
	CheckedAt time.Time                      `json:"checkedAt"`
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	BookingID string
	Mode      appointments.CommunicationMode
	Window    appointments.Window
	HasWindow bool
	Interval  time.Duration
	Now       func() time.Time
	OnPoll    func(AccessUpdate)
}

// Watcher re-evaluates the access window on a fixed cadence while a booking
// sits in Confirmed. There is no push when the window opens, so clients
// learn about it from the next poll.
type Watcher struct {
	cfg WatcherConfig

	mu      sync.Mutex
	last    *AccessUpdate
	subs    map[int]chan AccessUpdate
	nextSub int
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

func NewWatcher(cfg WatcherConfig) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Watcher{cfg: cfg, subs: make(map[int]chan AccessUpdate)}
}

// Start begins polling. It evaluates once immediately. Calling Start on a
// running or closed watcher does nothing.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.closed || w.stop != nil {
		w.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	w.stop, w.done = stop, done
	w.mu.Unlock()

	go w.loop(stop, done)
}

func (w *Watcher) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	w.Poll()
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.Poll()
		}
	}
}

// Stop cancels polling and waits for the loop to exit. Subscribers stay
// attached so a later Start resumes delivery.
func (w *Watcher) Stop() {
	w.mu.Lock()
	stop, done := w.stop, w.done
	w.stop, w.done = nil, nil
	w.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running reports whether the poll loop is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stop != nil
}

// Poll evaluates the window at the current time and fans the result out.
func (w *Watcher) Poll() AccessUpdate {
	now := w.cfg.Now()
	update := AccessUpdate{
		BookingID: w.cfg.BookingID,
		Mode:      w.cfg.Mode,
		Status:    appointments.AccessClosed,
		Window:    w.cfg.Window,
		CheckedAt: now,
	}
	if w.cfg.HasWindow {
		update.Status = w.cfg.Window.Status(now)
	}
	update.Open = update.Status == appointments.AccessOpen

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return update
	}
	w.last = &update
	for _, ch := range w.subs {
		select {
		case ch <- update:
		default:
		}
	}
	w.mu.Unlock()

	if w.cfg.OnPoll != nil {
		w.cfg.OnPoll(update)
	}
	return update
}

// Last returns the most recent evaluation.
func (w *Watcher) Last() (AccessUpdate, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last == nil {
		return AccessUpdate{}, false
	}
	return *w.last, true
}

// Subscribe streams evaluations. The latest known result, if any, is
// delivered first. The channel closes on Close or cancel.
func (w *Watcher) Subscribe() (<-chan AccessUpdate, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch := make(chan AccessUpdate, watcherBuffer)
	if w.closed {
		close(ch)
		return ch, func() {}
	}
	if w.last != nil {
		ch <- *w.last
	}
	id := w.nextSub
	w.nextSub++
	w.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			if sub, ok := w.subs[id]; ok {
				delete(w.subs, id)
				close(sub)
			}
		})
	}
}

// Close stops polling for good and ends every subscription.
func (w *Watcher) Close() {
	w.Stop()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	for id, ch := range w.subs {
		close(ch)
		delete(w.subs, id)
	}
}
