package sim

import (
	"sort"

	"github.com/milk9111/discbox/host"
)

type task struct {
	handle host.Handle
	fn     func()
	due    int
	every  int
}

// Scheduler is a deterministic tick scheduler. Tasks due on the same tick
// run in the order they were scheduled.
type Scheduler struct {
	now   int
	next  host.Handle
	tasks map[host.Handle]*task
}

func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[host.Handle]*task)}
}

// RunTimeout runs fn once after ticks. Values below one mean next tick.
func (s *Scheduler) RunTimeout(fn func(), ticks int) host.Handle {
	return s.add(fn, ticks, 0)
}

// RunInterval runs fn every ticks until cleared.
func (s *Scheduler) RunInterval(fn func(), ticks int) host.Handle {
	if ticks < 1 {
		ticks = 1
	}
	return s.add(fn, ticks, ticks)
}

func (s *Scheduler) ClearRun(h host.Handle) {
	delete(s.tasks, h)
}

func (s *Scheduler) add(fn func(), ticks, every int) host.Handle {
	if ticks < 1 {
		ticks = 1
	}
	s.next++
	s.tasks[s.next] = &task{handle: s.next, fn: fn, due: s.now + ticks, every: every}
	return s.next
}

// Step advances one tick and runs everything due. Tasks cleared by an
// earlier task in the same step do not run.
func (s *Scheduler) Step() {
	s.advance()
	s.runDue()
}

func (s *Scheduler) advance() {
	s.now++
}

func (s *Scheduler) runDue() {
	var due []*task
	for _, t := range s.tasks {
		if t.due <= s.now {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].handle < due[j].handle
	})

	for _, t := range due {
		if _, live := s.tasks[t.handle]; !live {
			continue
		}
		if t.every == 0 {
			delete(s.tasks, t.handle)
		} else {
			t.due += t.every
		}
		if t.fn != nil {
			t.fn()
		}
	}
}

func (s *Scheduler) Now() int {
	return s.now
}

func (s *Scheduler) Pending() int {
	return len(s.tasks)
}

// Reset drops every pending task. The clock keeps running.
func (s *Scheduler) Reset() {
	clear(s.tasks)
}
