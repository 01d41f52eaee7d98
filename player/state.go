// SPDX-License-Identifier: EPL-2.0

package player

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ik5/musa/audio"
	"github.com/ik5/musa/pipeline"
	"github.com/ik5/musa/utils"
)

// DefaultRefillThreshold is the buffered sample count below which Fill
// decodes another packet.
const DefaultRefillThreshold = 1024

const (
	maxVolume = 1
	maxSpeed  = 4
)

// PacketSource is what State pulls decoded audio from. *pipeline.Pipeline
// implements it.
type PacketSource interface {
	NextPacket() (pipeline.Packet, error)
	SeekFrame(frame int64) error
	SampleRate() int
	Channels() int
}

// State is the playback record shared by the device callback and the
// transport calls. One mutex guards all of it, so a slow decode inside
// Fill also delays transport calls.
type State struct {
	mtx sync.Mutex

	src       PacketSource
	rate      int
	channels  int
	threshold int

	buf    []float32
	cursor float64 // in samples, into buf
	lastTS int64   // first frame of the last decoded packet
	ended  bool    // source hit EOF or an I/O failure

	paused bool
	volume float32
	speed  float32

	poisoned bool
	scratch  []float32 // Read only
}

// NewState builds a state reading from src. threshold <= 0 selects
// DefaultRefillThreshold.
func NewState(src PacketSource, threshold int) *State {
	if threshold <= 0 {
		threshold = DefaultRefillThreshold
	}
	return &State{
		src:       src,
		rate:      src.SampleRate(),
		channels:  src.Channels(),
		threshold: threshold,
		volume:    1,
		speed:     1,
	}
}

// Fill renders len(out) interleaved samples. It never fails: missing audio
// is rendered as silence.
func (s *State) Fill(out []float32) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			clear(out)
		}
	}()

	if s.poisoned || s.paused || s.src == nil {
		clear(out)
		return
	}

	for i := range out {
		if !s.ended && len(s.buf)-int(s.cursor) < s.threshold {
			s.decodeNext()
		}

		idx := int(s.cursor)
		var v float32
		switch {
		case idx+1 < len(s.buf):
			v = utils.Lerp(s.buf[idx], s.buf[idx+1], float32(s.cursor-float64(idx)))
		case idx < len(s.buf):
			v = s.buf[idx]
		}
		out[i] = v * s.volume

		if len(s.buf) == 0 {
			continue
		}
		// speed is not applied to the advance
		s.cursor++
		if s.cursor >= float64(len(s.buf)) {
			s.drop(int(s.cursor))
		}
	}
}

// drop removes n consumed samples from the head of the queue and keeps the
// cursor's fractional part.
func (s *State) drop(n int) {
	n = min(n, len(s.buf))
	s.buf = s.buf[:copy(s.buf, s.buf[n:])]
	s.cursor -= float64(n)
	if len(s.buf) == 0 || s.cursor < 0 {
		s.cursor = 0
	}
}

// decodeNext appends one packet. Bad packets are skipped; EOF and I/O
// failures stop the queue from growing.
func (s *State) decodeNext() {
	pkt, err := s.src.NextPacket()
	if err != nil {
		if !errors.Is(err, audio.ErrDecode) {
			s.ended = true
		}
		return
	}

	if consumed := int(s.cursor); consumed > 0 {
		s.drop(consumed)
	}
	s.buf = append(s.buf, pkt.Samples...)
	s.lastTS = pkt.TS
}

// Read renders into p as little-endian float32 samples. It is the reader
// handed to the output device.
func (s *State) Read(p []byte) (int, error) {
	n := len(p) / 4
	if cap(s.scratch) < n {
		s.scratch = make([]float32, n)
	}
	s.scratch = s.scratch[:n]

	s.Fill(s.scratch)
	return utils.PutFloat32LE(p, s.scratch), nil
}

// detach stops the state from touching its source; later Fill calls render
// silence.
func (s *State) detach() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.src = nil
	s.buf = nil
	s.cursor = 0
}

func (s *State) SetPaused(paused bool) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.poisoned {
		return ErrLockPoisoned
	}
	s.paused = paused
	return nil
}

func (s *State) SetVolume(v float32) error {
	if !(v >= 0 && v <= maxVolume) {
		return fmt.Errorf("%w: volume %v not in [0, %d]", ErrInvalidParameter, v, maxVolume)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.poisoned {
		return ErrLockPoisoned
	}
	s.volume = v
	return nil
}

// SetSpeed stores the playback speed. Rendering does not use it yet.
func (s *State) SetSpeed(v float32) error {
	if !(v > 0 && v <= maxSpeed) {
		return fmt.Errorf("%w: speed %v not in (0, %d]", ErrInvalidParameter, v, maxSpeed)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.poisoned {
		return ErrLockPoisoned
	}
	s.speed = v
	return nil
}

// Seek moves playback to sec seconds, drops everything buffered and decodes
// one packet from the new position. It returns sec.
func (s *State) Seek(sec float64) (float64, error) {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 {
		return 0, fmt.Errorf("%w: seek to %v", ErrInvalidParameter, sec)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.poisoned {
		return 0, ErrLockPoisoned
	}
	if s.src == nil {
		return 0, ErrNoActiveTrack
	}

	frame := int64(math.Round(sec * float64(s.rate)))
	if err := s.src.SeekFrame(frame); err != nil {
		if !errors.Is(err, ErrSeekFailed) {
			err = fmt.Errorf("%w: %w", ErrSeekFailed, err)
		}
		return 0, err
	}

	s.buf = s.buf[:0]
	s.cursor = 0
	s.lastTS = frame
	s.ended = false
	s.decodeNext()

	return sec, nil
}

// CurrentTime estimates the play position in seconds from the last decoded
// packet and the cursor. It runs ahead of what is audible by up to the
// queued audio.
func (s *State) CurrentTime() (float64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.poisoned {
		return 0, ErrLockPoisoned
	}
	if s.rate <= 0 || s.channels <= 0 {
		return 0, nil
	}
	return float64(s.lastTS)/float64(s.rate) + s.cursor/float64(s.channels*s.rate), nil
}

func (s *State) Volume() float32 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.volume
}

func (s *State) Speed() float32 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.speed
}

func (s *State) Paused() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.paused
}

// Snapshot is a consistent view of the queue, for diagnostics and tests.
type Snapshot struct {
	Buffered int
	Cursor   float64
	LastTS   int64
	Poisoned bool
}

func (s *State) Snapshot() Snapshot {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return Snapshot{
		Buffered: len(s.buf),
		Cursor:   s.cursor,
		LastTS:   s.lastTS,
		Poisoned: s.poisoned,
	}
}
