// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/musa/audio"
	"github.com/ik5/musa/utils"
)

// go-mp3 always produces 16-bit little-endian stereo.
const (
	channels      = 2
	bytesPerFrame = 4
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	Length() int64
	SampleRate() int
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 2 } // sample capacity, not bytes

// Frames is derived from the decoded byte length; -1 from go-mp3 (input
// not seekable) reports unknown.
func (s *source) Frames() int64 {
	if l := s.dec.Length(); l > 0 {
		return l / bytesPerFrame
	}
	return 0
}

func (s *source) SeekFrame(frame int64) error {
	if _, err := s.dec.Seek(frame*bytesPerFrame, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	need := (len(dst) - len(dst)%channels) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	n, err := io.ReadFull(s.dec, s.buf)
	samples := n / 2
	for i := range samples {
		dst[i] = utils.Int16ToFloat32(int16(uint16(s.buf[2*i]) | uint16(s.buf[2*i+1])<<8))
	}

	switch {
	case err == nil:
		return samples, nil
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return samples, io.EOF
	default:
		return samples, fmt.Errorf("%w", err)
	}
}

type Decoder struct{}

// Sniff accepts an ID3v2 tag or an MPEG audio frame sync.
func (Decoder) Sniff(header []byte) bool {
	if bytes.HasPrefix(header, []byte("ID3")) {
		return true
	}
	return len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0
}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}, nil
}
