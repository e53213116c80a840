package airkiss

/*------------------------------------------------------------------
 *
 * Purpose:	Per-transmitter state machine (C2). Consumes one captured
 *		frame length at a time and reconstructs a Wi-Fi credential
 *		tuple (password, random token, SSID) once enough fragments
 *		have arrived.
 *
 * Description:	Mirrors the five stages described in spec §4.2:
 *		preamble lock, magic field, prefix field, sequence/
 *		fragment reassembly, and the DONE terminal state. All
 *		malformed input (bad CRC, duplicate fragment, impossible
 *		residual) is handled locally - see spec §7 - so Feed only
 *		returns an error for a genuine programming mistake.
 *
 *------------------------------------------------------------------*/

// Key identifies a transmitter: 6 bytes of BSSID followed by 6 bytes of SA.
type Key [12]byte

// maxSeqTotal bounds seq_total: data_len <= 97 so seq_total <= 25 (spec §3).
const maxSeqTotal = 25

// Session is one record per (BSSID, SA) transmitter pair (spec §3).
type Session struct {
	key   Key
	state Phase

	base int

	// leading holds the sliding window of raw symbols used only while
	// in PhaseLeading to detect the four-consecutive-values preamble.
	leading []int

	dataLen   int
	ssidCRC   byte
	pwdLen    int
	pwdLenCRC byte

	seqTotal         int
	seqsOutstanding  []bool // true while a fragment is still missing
	sequence         int
	seqCRC           byte
	assembly         [6]byte // assembly[1]=seq byte, assembly[2:6]=payload bytes
	payload          []byte
	substate         byte
	tmpLen           int

	// magic/prefix field scratch, valid only within their own phase.
	dataLenHi, dataLenLo     byte
	ssidCRCHi, ssidCRCLo     byte
	pwdLenHi, pwdLenLo       byte
	pwdLenCRCHi, pwdLenCRCLo byte
}

// NewSession returns a freshly-initialised session for key: all fields
// zeroed except the key itself (spec §3 invariant).
func NewSession(key Key) *Session {
	return &Session{key: key, state: PhaseInit}
}

// Key returns the session's (BSSID, SA) identity.
func (s *Session) Key() Key { return s.key }

// State returns the session's current phase.
func (s *Session) State() Phase { return s.state }

// Reset returns the session to PhaseInit, clearing every field but the key
// (spec §6 reset()).
func (s *Session) Reset() {
	key := s.key
	*s = Session{key: key, state: PhaseInit}
}

// Feed dispatches one captured symbol (a frame length) to the state
// machine. It returns a non-nil error only for a programming error (an
// unrecognised phase value); every other malformed input is absorbed
// silently per spec §7.
func (s *Session) Feed(length int) error {
	if s.state == PhaseDone {
		return nil
	}

	if s.state >= PhaseLeadingFin {
		if length < s.base {
			// Impossible residual: strong evidence of lost lock (spec §4.2.9).
			key := s.key
			*s = Session{key: key, state: PhaseInit}
			return nil
		}
	}

	switch s.state {
	case PhaseInit:
		s.feedInit(length)
	case PhaseLeading:
		s.feedLeading(length)
	case PhaseLeadingFin:
		s.feedLeadingFin(length)
	case PhaseMagic:
		s.feedMagic(length)
	case PhaseMagicFin:
		s.feedMagicFin(length)
	case PhasePrefix:
		s.feedPrefix(length)
	case PhasePrefixFin:
		s.feedPrefixFin(length)
	case PhaseSequence:
		s.feedSequence(length)
	default:
		return ErrUnknownPhase
	}
	return nil
}

// feedInit records the first symbol ever seen and starts preamble search.
func (s *Session) feedInit(length int) {
	s.leading = []int{length}
	s.state = PhaseLeading
}

// feedLeading fills/slides the 4-symbol preamble window and locks base
// once it holds x, x+1, x+2, x+3 (spec §4.2.1).
func (s *Session) feedLeading(length int) {
	if len(s.leading) < 4 {
		s.leading = append(s.leading, length)
	} else {
		copy(s.leading, s.leading[1:])
		s.leading[3] = length
	}
	if len(s.leading) == 4 && consecutive(s.leading) {
		s.base = s.leading[0] - 1
		s.state = PhaseLeadingFin
		s.leading = nil
	}
}

func consecutive(w []int) bool {
	for i := 0; i < len(w)-1; i++ {
		if w[i+1] != w[i]+1 {
			return false
		}
	}
	return true
}

// feedLeadingFin waits for the first symbol past the preamble range
// (d > 4) to advance to PhaseMagic (spec §4.2.2). Every symbol seen here,
// including the one that advances the phase, is also offered to the magic
// field: the idx-0 magic symbol (d = data_len >> 4) can itself fall in
// the preamble range. A leftover preamble symbol is therefore recorded as
// an idx-0 nibble until a later idx-0 symbol overwrites it.
func (s *Session) feedLeadingFin(length int) {
	d := length - s.base
	if d > 4 {
		s.state = PhaseMagic
	}
	s.feedMagic(length)
}

// feedMagic accumulates the four magic-field nibbles (data_len and
// ssid_crc, high then low) and advances to PhaseMagicFin once all four
// have arrived (spec §4.2.3).
func (s *Session) feedMagic(length int) {
	d := length - s.base
	idx := (d >> 4) & 0x1F
	nib := byte(d & 0x0F)

	switch idx {
	case 0x00:
		s.dataLenHi = nib
		s.substate |= 1 << 0
	case 0x01:
		s.dataLenLo = nib
		s.substate |= 1 << 1
	case 0x02:
		s.ssidCRCHi = nib
		s.substate |= 1 << 2
	case 0x03:
		s.ssidCRCLo = nib
		s.substate |= 1 << 3
	default:
		// idx > 0x03 signals the sender has already advanced; no-op (spec §4.2.3).
		return
	}

	if s.substate != 0x0F {
		return
	}

	s.dataLen = int(s.dataLenHi<<4 | s.dataLenLo)
	s.ssidCRC = s.ssidCRCHi<<4 | s.ssidCRCLo
	s.seqTotal = (s.dataLen + 3) / 4
	if s.seqTotal > maxSeqTotal {
		s.seqTotal = maxSeqTotal
	}
	s.seqsOutstanding = make([]bool, s.seqTotal)
	for i := range s.seqsOutstanding {
		s.seqsOutstanding[i] = true
	}
	s.payload = make([]byte, s.dataLen)
	s.substate = 0
	s.state = PhaseMagicFin
}

// feedMagicFin drops leftover magic symbols and waits for the first
// prefix-field symbol (spec §4.2.4), which is also consumed by the prefix
// field.
func (s *Session) feedMagicFin(length int) {
	d := length - s.base
	idx := (d >> 4) & 0x1F
	if idx > 0x03 {
		s.state = PhasePrefix
		s.feedPrefix(length)
	}
}

// feedPrefix accumulates the four prefix-field nibbles (pwd_len and
// pwd_len_crc, high then low) and advances to PhasePrefixFin once all
// four have arrived (spec §4.2.5).
func (s *Session) feedPrefix(length int) {
	d := length - s.base
	idx := (d >> 4) & 0x1F
	nib := byte(d & 0x0F)

	switch idx {
	case 0x04:
		s.pwdLenHi = nib
		s.substate |= 1 << 0
	case 0x05:
		s.pwdLenLo = nib
		s.substate |= 1 << 1
	case 0x06:
		s.pwdLenCRCHi = nib
		s.substate |= 1 << 2
	case 0x07:
		s.pwdLenCRCLo = nib
		s.substate |= 1 << 3
	default:
		// idx < 0x04 is leftover magic data; silently dropped (spec §4.2.5).
		return
	}

	if s.substate != 0x0F {
		return
	}

	s.pwdLen = int(s.pwdLenHi<<4 | s.pwdLenLo)
	s.pwdLenCRC = s.pwdLenCRCHi<<4 | s.pwdLenCRCLo
	s.substate = 0
	s.state = PhasePrefixFin
}

// feedPrefixFin waits for the first sequence-phase symbol. The source
// consumes the triggering symbol again in SEQUENCE; this implementation
// preserves that fall-through exactly (spec §9 design note).
func (s *Session) feedPrefixFin(length int) {
	d := length - s.base
	idx := (d >> 4) & 0x1F
	if idx > 0x07 {
		s.state = PhaseSequence
		s.feedSequence(length)
	}
}

// feedSequence classifies a symbol as a 7-bit header or 8-bit data byte by
// the top two bits of the 9-bit residual, then drives fragment assembly
// (spec §4.2.7).
func (s *Session) feedSequence(length int) {
	d := length - s.base
	top := (d >> 8) & 1
	next := (d >> 7) & 1

	switch {
	case top == 0 && next == 1:
		s.sequenceHeader(d & 0x7F)
	case top == 1:
		s.sequenceData(byte(d & 0xFF))
	default:
		// d in 0..127 is not a valid sequence-phase symbol; ignore.
	}
}

func (s *Session) sequenceHeader(value int) {
	switch s.tmpLen {
	case 0:
		s.seqCRC = byte(value)
		s.tmpLen = 1
		s.sequence = 0
	case 1:
		s.sequence = value
		if s.sequence >= s.seqTotal {
			// Out-of-range sequence: abort this fragment and await re-sync.
			s.tmpLen = 0
			return
		}
		s.assembly[1] = byte(s.sequence)
		s.tmpLen = 2
	default:
		// A header mid-fragment is not described by spec §4.2.7; ignored.
	}
}

func (s *Session) sequenceData(b byte) {
	if s.tmpLen < 2 {
		// Data with no header: abort the fragment (spec §4.2.7 rule 4).
		s.tmpLen = 0
		return
	}

	s.assembly[s.tmpLen] = b
	s.tmpLen++
	dlen := s.tmpLen - 2

	complete := dlen == 4
	if !complete && s.sequence == s.seqTotal-1 {
		want := s.dataLen & 0x03
		if want == 0 {
			want = 4
		}
		complete = dlen == want
	}
	if !complete {
		return
	}

	s.tmpLen = 0

	if !s.seqsOutstanding[s.sequence] {
		// Duplicate fragment: accept silently, no side effect (spec §8 property 4).
		return
	}

	crc := crc8(s.assembly[1 : 2+dlen])
	if crc&0x7F != s.seqCRC {
		// Corrupted fragment: discard, remains outstanding for retransmission.
		return
	}

	copy(s.payload[s.sequence*4:], s.assembly[2:2+dlen])
	s.seqsOutstanding[s.sequence] = false

	if allClear(s.seqsOutstanding) {
		s.state = PhaseDone
	}
}

func allClear(outstanding []bool) bool {
	for _, missing := range outstanding {
		if missing {
			return false
		}
	}
	return true
}

// passwordReady reports whether every fragment covering payload[0:pwdLen]
// has arrived, so the password can be read before the session reaches
// DONE (spec §4.3's early-association allowance).
func (s *Session) passwordReady() bool {
	if s.seqsOutstanding == nil || s.state < PhaseSequence {
		return false
	}
	if s.pwdLen == 0 {
		return true
	}
	need := (s.pwdLen + 3) / 4
	for i := 0; i < need && i < len(s.seqsOutstanding); i++ {
		if s.seqsOutstanding[i] {
			return false
		}
	}
	return true
}

// Password returns the decoded password and true once enough fragments
// have arrived to cover it, even before the session reaches DONE.
func (s *Session) Password() ([]byte, bool) {
	if !s.passwordReady() {
		return nil, false
	}
	out := make([]byte, s.pwdLen)
	copy(out, s.payload[:s.pwdLen])
	return out, true
}

// RandomToken returns the decoded random acknowledgement token and true,
// once the session has reached DONE.
func (s *Session) RandomToken() (byte, bool) {
	if s.state != PhaseDone {
		return 0, false
	}
	return s.payload[s.pwdLen], true
}

// SSID returns the decoded SSID once the session has reached DONE.
func (s *Session) SSID() ([]byte, bool) {
	if s.state != PhaseDone {
		return nil, false
	}
	out := make([]byte, s.dataLen-s.pwdLen-1)
	copy(out, s.payload[s.pwdLen+1:])
	return out, true
}
