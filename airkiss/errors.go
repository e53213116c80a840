package airkiss

import "errors"

// ErrUnknownPhase is returned by Feed when a session has somehow ended up
// in a phase value outside the known enumeration. This is a programming
// error (spec §7): it is never produced by normal symbol traffic, however
// noisy, and is surfaced to the caller rather than handled locally.
var ErrUnknownPhase = errors.New("airkiss: session in unknown phase")

// ErrRegistryFull is returned by Feed when the registry has a configured
// capacity, every slot is occupied by a session in PhaseDone (the only
// sessions that are never evicted), and the symbol's key does not match
// any of them. It is a resource failure
// (spec §7): the registry remains consistent and the symbol is dropped.
var ErrRegistryFull = errors.New("airkiss: session registry at capacity")
