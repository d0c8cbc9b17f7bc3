package scheduling

import (
	"sync"
	"time"
)

// Task is a cancellable handle to a scheduled callback.
type Task interface {
	Cancel()
}

// Scheduler abstracts deferred and repeating execution. Once fires a
// callback after a delay, Repeat fires it at a fixed interval until
// cancelled, NextFrame coalesces work into the next evaluation frame.
type Scheduler interface {
	Once(delay time.Duration, fn func()) Task
	Repeat(interval time.Duration, fn func()) Task
	NextFrame(fn func()) Task
}

// TaskSet tracks scheduled tasks so a tracker can cancel them all at flush.
type TaskSet struct {
	mu    sync.Mutex
	tasks []Task
	done  bool
}

// Add registers a task with the set. Tasks added after CancelAll are
// cancelled immediately.
func (ts *TaskSet) Add(task Task) {
	ts.mu.Lock()
	if ts.done {
		ts.mu.Unlock()
		task.Cancel()
		return
	}
	ts.tasks = append(ts.tasks, task)
	ts.mu.Unlock()
}

// CancelAll cancels every registered task. Idempotent.
func (ts *TaskSet) CancelAll() {
	ts.mu.Lock()
	tasks := ts.tasks
	ts.tasks = nil
	ts.done = true
	ts.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
}

// TimerScheduler runs tasks on real timers.
type TimerScheduler struct {
	// FrameInterval is the delay used by NextFrame. Zero means a 16ms
	// frame, matching a display refresh cadence.
	FrameInterval time.Duration
}

// NewTimerScheduler creates a real-timer scheduler with the given frame
// interval.
func NewTimerScheduler(frameInterval time.Duration) *TimerScheduler {
	return &TimerScheduler{FrameInterval: frameInterval}
}

type timerTask struct {
	timer  *time.Timer
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

func (t *timerTask) Cancel() {
	t.once.Do(func() {
		if t.timer != nil {
			t.timer.Stop()
		}
		if t.ticker != nil {
			t.ticker.Stop()
		}
		if t.stop != nil {
			close(t.stop)
		}
	})
}

func (s *TimerScheduler) Once(delay time.Duration, fn func()) Task {
	task := &timerTask{stop: make(chan struct{})}
	task.timer = time.AfterFunc(delay, func() {
		select {
		case <-task.stop:
		default:
			fn()
		}
	})
	return task
}

func (s *TimerScheduler) Repeat(interval time.Duration, fn func()) Task {
	task := &timerTask{
		ticker: time.NewTicker(interval),
		stop:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-task.stop:
				return
			case <-task.ticker.C:
				fn()
			}
		}
	}()
	return task
}

func (s *TimerScheduler) NextFrame(fn func()) Task {
	frame := s.FrameInterval
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	return s.Once(frame, fn)
}

// ManualScheduler queues tasks for explicit firing in tests.
type ManualScheduler struct {
	mu     sync.Mutex
	nextID int
	onces  map[int]*manualEntry
	ticks  map[int]*manualEntry
	frames map[int]*manualEntry
}

type manualEntry struct {
	fn        func()
	cancelled bool
}

// NewManualScheduler creates an empty manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{
		onces:  make(map[int]*manualEntry),
		ticks:  make(map[int]*manualEntry),
		frames: make(map[int]*manualEntry),
	}
}

type manualTask struct {
	entry *manualEntry
	mu    *sync.Mutex
}

func (t *manualTask) Cancel() {
	t.mu.Lock()
	t.entry.cancelled = true
	t.mu.Unlock()
}

func (s *ManualScheduler) add(m map[int]*manualEntry, fn func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry := &manualEntry{fn: fn}
	m[s.nextID] = entry
	return &manualTask{entry: entry, mu: &s.mu}
}

func (s *ManualScheduler) Once(_ time.Duration, fn func()) Task {
	return s.add(s.onces, fn)
}

func (s *ManualScheduler) Repeat(_ time.Duration, fn func()) Task {
	return s.add(s.ticks, fn)
}

func (s *ManualScheduler) NextFrame(fn func()) Task {
	return s.add(s.frames, fn)
}

func (s *ManualScheduler) fire(m map[int]*manualEntry, consume bool) {
	s.mu.Lock()
	var fns []func()
	for id, entry := range m {
		if !entry.cancelled {
			fns = append(fns, entry.fn)
		}
		if consume {
			delete(m, id)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// FireOnces runs and consumes all pending one-shot tasks.
func (s *ManualScheduler) FireOnces() { s.fire(s.onces, true) }

// Tick runs all live repeating tasks once.
func (s *ManualScheduler) Tick() { s.fire(s.ticks, false) }

// FireFrames runs and consumes all pending frame tasks.
func (s *ManualScheduler) FireFrames() { s.fire(s.frames, true) }
