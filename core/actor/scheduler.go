package actor

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// SchedulerConfig tunes the worker pool and the watcher.
type SchedulerConfig struct {
	// Workers is the number of worker goroutines. Default: GOMAXPROCS.
	Workers int
	// MaxThroughput caps the number of messages an actor may process per
	// scheduling visit, so one busy actor cannot starve the rest of its
	// worker. Default: 50.
	MaxThroughput uint64
	// MinPollInterval and MaxPollInterval bound the watcher's adaptive
	// poll interval. The interval shrinks to the minimum whenever an
	// inactive actor became ready and grows toward the maximum while none
	// did. Defaults: 10ms and 50ms.
	MinPollInterval time.Duration
	MaxPollInterval time.Duration
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.MaxThroughput == 0 {
		c.MaxThroughput = 50
	}
	if c.MinPollInterval <= 0 {
		c.MinPollInterval = 10 * time.Millisecond
	}
	if c.MaxPollInterval <= 0 {
		c.MaxPollInterval = 50 * time.Millisecond
	}
	if c.MaxPollInterval < c.MinPollInterval {
		c.MaxPollInterval = c.MinPollInterval
	}
	return c
}

// scheduler moves actors between two FIFO queues: waiting (ready to run)
// and inactive (blocked on input or timers). Workers drain waiting;
// the watcher periodically scans inactive and promotes actors that have
// pending messages or due timers.
//
// An actor token lives in exactly one place at a time: the waiting queue,
// the inactive queue, or a worker currently running it. That invariant is
// what makes all non-mailbox actor state single-writer.
type scheduler struct {
	cfg SchedulerConfig
	log *slog.Logger
	m   Metrics

	mu       sync.Mutex
	cond     *sync.Cond
	waiting  []*Actor
	inactive []*Actor

	// Advisory queue sizes, used for round sizing and liveness checks
	// without taking the queue lock. Eventually consistent by design.
	approxWaiting  atomic.Int64
	approxInactive atomic.Int64

	active      atomic.Bool
	watcherDone atomic.Bool
	watchStop   chan struct{}

	workerWG  sync.WaitGroup
	watcherWG sync.WaitGroup
}

func newScheduler(cfg SchedulerConfig, log *slog.Logger, m Metrics) *scheduler {
	s := &scheduler{
		cfg:       cfg.withDefaults(),
		log:       log,
		m:         m,
		watchStop: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *scheduler) start() {
	s.active.Store(true)
	for i := 0; i < s.cfg.Workers; i++ {
		s.workerWG.Add(1)
		go s.worker()
	}
	s.watcherWG.Add(1)
	go s.watcher()
}

// enqueue hands a new actor to the scheduler.
func (s *scheduler) enqueue(a *Actor) {
	s.mu.Lock()
	s.waiting = append(s.waiting, a)
	s.mu.Unlock()
	s.approxWaiting.Add(1)
	s.cond.Signal()
}

func (s *scheduler) pushWaiting(a *Actor) {
	s.mu.Lock()
	s.waiting = append(s.waiting, a)
	s.mu.Unlock()
	s.approxWaiting.Add(1)
	s.cond.Signal()
}

func (s *scheduler) pushInactive(a *Actor) {
	s.mu.Lock()
	if !s.active.Load() {
		// Shutdown may already have flushed the inactive queue; parking
		// here would strand the actor. Route it to the kill-drain instead.
		s.waiting = append(s.waiting, a)
		s.mu.Unlock()
		s.approxWaiting.Add(1)
		s.cond.Signal()
		return
	}
	s.inactive = append(s.inactive, a)
	s.mu.Unlock()
	s.approxInactive.Add(1)
}

// takeBatch pops up to approxWaiting/Workers (at least one) actors, or
// blocks until work arrives. It returns nil once the scheduler is shut
// down, the watcher has flushed, and the waiting queue is drained.
func (s *scheduler) takeBatch() []*Actor {
	want := int(s.approxWaiting.Load())/s.cfg.Workers + 1

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.waiting) == 0 {
		if !s.active.Load() && s.watcherDone.Load() {
			return nil
		}
		s.cond.Wait()
	}
	if want > len(s.waiting) {
		want = len(s.waiting)
	}
	batch := make([]*Actor, want)
	copy(batch, s.waiting[:want])
	s.waiting = append(s.waiting[:0], s.waiting[want:]...)
	s.approxWaiting.Add(int64(-want))
	return batch
}

func (s *scheduler) worker() {
	defer s.workerWG.Done()
	for {
		batch := s.takeBatch()
		if batch == nil {
			return
		}
		draining := !s.active.Load()
		for _, a := range batch {
			s.runVisit(a, draining)
		}
		s.m.QueueDepth(int(s.approxWaiting.Load()), int(s.approxInactive.Load()))
	}
}

// runVisit gives one actor a scheduling visit: Process in a loop while it
// makes progress, up to the throughput budget. Zero progress parks the
// actor on the inactive queue; a stopped actor is released instead of
// requeued. During shutdown draining, a kill is injected first and the
// actor is run to completion.
func (s *scheduler) runVisit(a *Actor, draining bool) {
	if draining {
		a.self.Value().putSystem(SystemExitMsg{Reason: ExitKill})
	}

	t := s.m.ProcessDuration()
	var total uint64
	for {
		n := a.Process(time.Now())
		total += uint64(n)
		if n == 0 || !a.Alive() {
			break
		}
		if total >= s.cfg.MaxThroughput && !draining {
			break
		}
	}
	t.ObserveDuration()
	if total > 0 {
		s.m.MessagesProcessed(int(total))
	}

	if draining {
		for a.Alive() {
			a.Process(time.Now())
		}
	}
	if !a.Alive() {
		s.release(a)
		return
	}
	if total == 0 {
		s.pushInactive(a)
	} else {
		s.pushWaiting(a)
	}
}

// release deallocates a stopped actor's queue slot: the scheduler's strong
// handle goes away and weak addresses stop upgrading.
func (s *scheduler) release(a *Actor) {
	s.m.ActorStopped(a.exitReason.String())
	a.self.Release()
}

// watcher periodically scans the inactive queue, promoting actors that
// became ready and adapting its poll interval: it shrinks to the minimum
// whenever traffic resumed and grows toward the maximum (bounded by the
// nearest timer deadline) while everything stayed quiet. On shutdown it
// flushes the remaining inactive actors back to waiting for the final
// kill-drain.
func (s *scheduler) watcher() {
	defer s.watcherWG.Done()

	poll := s.cfg.MinPollInterval
	timer := time.NewTimer(poll)
	defer timer.Stop()

	for {
		select {
		case <-s.watchStop:
			s.flushInactive()
			s.watcherDone.Store(true)
			s.cond.Broadcast()
			return
		case <-timer.C:
		}

		now := time.Now()
		s.mu.Lock()
		batch := s.inactive
		s.inactive = nil
		s.mu.Unlock()
		s.approxInactive.Add(int64(-len(batch)))

		anyReady := false
		nearest := s.cfg.MaxPollInterval
		var parked []*Actor
		for _, a := range batch {
			if !a.Alive() {
				s.release(a)
				continue
			}
			if a.ready(now) {
				s.pushWaiting(a)
				anyReady = true
				continue
			}
			if t, ok := a.nextTimer(); ok {
				if until := t.Sub(now); until < nearest {
					nearest = until
				}
			}
			parked = append(parked, a)
		}
		if len(parked) > 0 {
			s.mu.Lock()
			s.inactive = append(s.inactive, parked...)
			s.mu.Unlock()
			s.approxInactive.Add(int64(len(parked)))
		}

		if anyReady {
			poll = s.cfg.MinPollInterval
		} else {
			poll = clampPoll(2*poll, s.cfg.MinPollInterval, s.cfg.MaxPollInterval)
			if nearest < poll {
				poll = clampPoll(nearest, s.cfg.MinPollInterval, s.cfg.MaxPollInterval)
			}
		}
		s.m.PollInterval(poll)
		timer.Reset(poll)
	}
}

func (s *scheduler) flushInactive() {
	s.mu.Lock()
	n := len(s.inactive)
	s.waiting = append(s.waiting, s.inactive...)
	s.inactive = nil
	s.mu.Unlock()
	s.approxInactive.Add(int64(-n))
	s.approxWaiting.Add(int64(n))
}

func clampPoll(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// shutdown stops the scheduler: no new rounds are started, the watcher
// flushes its inactive actors back to waiting and exits, then workers
// drain the waiting queue once more with a kill injected per actor before
// joining.
func (s *scheduler) shutdown() {
	if !s.active.CompareAndSwap(true, false) {
		return
	}
	s.cond.Broadcast()
	close(s.watchStop)
	s.watcherWG.Wait()
	s.cond.Broadcast()
	s.workerWG.Wait()
}
