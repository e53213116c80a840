package airkiss

/*------------------------------------------------------------------
 *
 * Purpose:	Session registry (C3). Demultiplexes captured symbols by
 *		(BSSID, SA) key, owning one Session per transmitter.
 *
 * Description:	Replaces the source's process-wide linked list and its
 *		"all-zero key means empty slot" sentinel (which would
 *		otherwise make a legitimate all-zero MAC unrepresentable)
 *		with an explicit owned slice indexed directly - no
 *		sentinel value is ever consulted to decide whether a slot
 *		is in use, per spec §9's design notes.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"

	"github.com/charmbracelet/log"
)

type slot struct {
	session *Session
	touched uint64
}

// Registry owns every live session and is the sole mutable shared state
// of the decoder (spec §5). It is not safe for concurrent use: callers
// must serialise calls to Feed and the query operations.
type Registry struct {
	slots       []slot
	maxSessions int // 0 = unbounded
	touchClock  uint64
	log         *log.Logger
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithMaxSessions bounds the number of live sessions the registry will
// hold concurrently. When the bound is reached and a brand-new key
// arrives with every slot occupied, Feed evicts the least-recently-
// touched non-DONE session to make room (spec §3 EXPANSION). Zero (the
// default) means unbounded, matching "sessions live until explicit
// reset."
func WithMaxSessions(n int) RegistryOption {
	return func(r *Registry) { r.maxSessions = n }
}

// WithLogger attaches a structured logger. A nil logger (the default)
// disables logging entirely; the registry never requires one.
func WithLogger(logger *log.Logger) RegistryOption {
	return func(r *Registry) { r.log = logger }
}

// NewRegistry returns an empty registry (spec §6 init()).
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) debugf(format string, args ...any) {
	if r.log == nil {
		return
	}
	r.log.Debug(fmt.Sprintf(format, args...))
}

// Feed dispatches one captured (bssid, sa, length) triple (spec §6
// feed()). It looks up the session for key, allocating one as needed
// (reusing an evicted slot under pressure), then forwards the symbol.
func (r *Registry) Feed(bssid, sa [6]byte, length int) error {
	var key Key
	copy(key[:6], bssid[:])
	copy(key[6:], sa[:])

	idx, err := r.indexOrCreate(key)
	if err != nil {
		return err
	}

	r.touchClock++
	r.slots[idx].touched = r.touchClock

	if err := r.slots[idx].session.Feed(length); err != nil {
		r.errorf("airkiss: feed failed: %v", err)
		return err
	}
	return nil
}

func (r *Registry) errorf(format string, args ...any) {
	if r.log == nil {
		return
	}
	r.log.Error(fmt.Sprintf(format, args...))
}

func (r *Registry) indexOrCreate(key Key) (int, error) {
	for i := range r.slots {
		if r.slots[i].session.Key() == key {
			return i, nil
		}
	}

	if r.maxSessions > 0 && len(r.slots) >= r.maxSessions {
		victim := r.evict()
		if victim < 0 {
			return -1, ErrRegistryFull
		}
		r.slots[victim] = slot{session: NewSession(key)}
		r.debugf("airkiss: evicted session to admit new key")
		return victim, nil
	}

	r.slots = append(r.slots, slot{session: NewSession(key)})
	r.debugf("airkiss: new session allocated, %d live", len(r.slots))
	return len(r.slots) - 1, nil
}

// evict returns the index of the least-recently-touched, not-yet-DONE
// session, or -1 if every slot is DONE (those are left for a caller to
// read via the query operations before a Reset).
func (r *Registry) evict() int {
	victim := -1
	for i := range r.slots {
		if r.slots[i].session.State() == PhaseDone {
			continue
		}
		if victim < 0 || r.slots[i].touched < r.slots[victim].touched {
			victim = i
		}
	}
	return victim
}

// GlobalState returns the maximum phase reached by any live session, a
// coarse progress indicator (spec §6 global_state()).
func (r *Registry) GlobalState() Phase {
	max := PhaseInit
	for i := range r.slots {
		if r.slots[i].session.State() > max {
			max = r.slots[i].session.State()
		}
	}
	return max
}

// firstDone returns the first session in PhaseDone, or nil.
func (r *Registry) firstDone() *Session {
	for i := range r.slots {
		if r.slots[i].session.State() == PhaseDone {
			return r.slots[i].session
		}
	}
	return nil
}

// Password copies the decoded password into out and returns its length,
// or 0 if no session has one ready yet. It returns an in-progress
// password from a session still in SEQUENCE once enough fragments have
// arrived, in addition to completed sessions (spec §6 password()).
func (r *Registry) Password(out []byte) int {
	for i := range r.slots {
		if pwd, ok := r.slots[i].session.Password(); ok {
			return copy(out, pwd)
		}
	}
	return 0
}

// SSID copies the decoded SSID into out and returns its length, or 0 if
// no session has completed yet (spec §6 ssid()).
func (r *Registry) SSID(out []byte) int {
	s := r.firstDone()
	if s == nil {
		return 0
	}
	ssid, _ := s.SSID()
	return copy(out, ssid)
}

// RandomToken returns the decoded random token, or 0xFF if no session has
// completed yet (spec §6 random_token()).
func (r *Registry) RandomToken() byte {
	s := r.firstDone()
	if s == nil {
		return 0xFF
	}
	tok, _ := s.RandomToken()
	return tok
}

// Reset zeroes every session but retains the slot list (spec §6 reset()).
func (r *Registry) Reset() {
	for i := range r.slots {
		r.slots[i].session.Reset()
		r.slots[i].touched = 0
	}
	r.touchClock = 0
}

// Teardown frees all sessions (spec §6 teardown()).
func (r *Registry) Teardown() {
	r.slots = nil
	r.touchClock = 0
}

// Len reports the number of live session slots. Mainly useful for tests
// and diagnostics.
func (r *Registry) Len() int {
	return len(r.slots)
}
