// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	beepflac "github.com/gopxl/beep/v2/flac"
	"github.com/ik5/musa/audio"
)

// streamer is the part of beep.StreamSeekCloser the source uses
type streamer interface {
	Stream(samples [][2]float64) (n int, ok bool)
	Err() error
	Len() int
	Seek(p int) error
	Close() error
}

// source adapts a beep streamer, which always yields stereo pairs, back to
// the file's own channel count.
type source struct {
	st         streamer
	sampleRate int
	channels   int
	buf        [][2]float64
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) BufSize() int    { return cap(s.buf) * s.channels }
func (s *source) Frames() int64   { return int64(s.st.Len()) }

func (s *source) Close() error {
	if err := s.st.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *source) SeekFrame(frame int64) error {
	if err := s.st.Seek(int(frame)); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) / s.channels
	if want == 0 {
		return 0, nil
	}
	if cap(s.buf) < want {
		s.buf = make([][2]float64, want)
	}
	s.buf = s.buf[:want]

	n, ok := s.st.Stream(s.buf)
	for i, pair := range s.buf[:n] {
		if s.channels == 1 {
			dst[i] = float32(pair[0])
			continue
		}
		dst[2*i] = float32(pair[0])
		dst[2*i+1] = float32(pair[1])
	}

	if !ok || n == 0 {
		if err := s.st.Err(); err != nil {
			return n * s.channels, fmt.Errorf("%w: %w", audio.ErrDecode, err)
		}
		return n * s.channels, io.EOF
	}
	return n * s.channels, nil
}

type Decoder struct{}

func (Decoder) Sniff(header []byte) bool {
	return bytes.HasPrefix(header, []byte("fLaC"))
}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// beep only seeks when handed an io.ReadSeeker
	rs, err := audio.AsReadSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("reading flac data: %w", err)
	}

	st, format, err := beepflac.Decode(rs)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return newSource(st, format), nil
}

func newSource(st streamer, format beep.Format) *source {
	channels := format.NumChannels
	if channels > 2 {
		// beep folds every layout into two channels
		channels = 2
	}
	return &source{
		st:         st,
		sampleRate: int(format.SampleRate),
		channels:   channels,
		buf:        make([][2]float64, 2048),
	}
}
