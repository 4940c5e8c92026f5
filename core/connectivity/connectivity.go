// Package connectivity reports whether the host can reach the network and
// notifies subscribers when that changes.
package connectivity

import "sync"

type Checker interface {
	IsOnline() bool
}

// Watcher is a Checker that can also push changes.
type Watcher interface {
	Checker
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// Static always reports the same state.
type Static bool

func (s Static) IsOnline() bool { return bool(s) }

// Switch holds a connectivity state that is set by hand, either by a host
// that has its own signal or by a Monitor.
type Switch struct {
	mu          sync.Mutex
	online      bool
	nextID      int
	subscribers map[int]func(bool)
}

func NewSwitch(online bool) *Switch {
	return &Switch{online: online, subscribers: map[int]func(bool){}}
}

func (s *Switch) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Set updates the state. Subscribers are only notified on a change.
func (s *Switch) Set(online bool) {
	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return
	}
	s.online = online
	subscribers := make([]func(bool), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(online)
	}
}

func (s *Switch) Subscribe(fn func(online bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribers == nil {
		s.subscribers = map[int]func(bool){}
	}
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}
