// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/ik5/musa/audio"
	"github.com/ik5/musa/utils"
)

// aiffReader is an interface for aiff.Decoder to allow testing
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// source wraps go-audio aiff.Decoder to implement audio.Source
type source struct {
	rs         io.ReadSeeker
	dec        aiffReader
	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
	intBuf     *goaudio.IntBuffer
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Frames() int64   { return s.frames }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	want := len(dst) - len(dst)%s.channels

	if s.intBuf == nil || cap(s.intBuf.Data) < want {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, want),
			Format: s.dec.Format(),
		}
	}
	s.intBuf.Data = s.intBuf.Data[:want]

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil && err != io.EOF {
			return 0, fmt.Errorf("%w", err)
		}
		return 0, io.EOF
	}

	for i, v := range s.intBuf.Data[:n] {
		dst[i] = utils.IntToFloat32(v, s.bitDepth)
	}

	// fewer samples than requested without an error means the SSND chunk ended
	if n < want && err == nil {
		return n, io.EOF
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w", err)
	}
	return n, err
}

// SeekFrame re-reads the header and discards frames up to frame. A frame
// past the end fails before the stream is touched.
func (s *source) SeekFrame(frame int64) error {
	if frame < 0 || frame > s.frames {
		return fmt.Errorf("%w: frame %d of %d", audio.ErrSeekOutOfRange, frame, s.frames)
	}
	if _, err := s.rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	dec, err := open(s.rs)
	if err != nil {
		return err
	}
	s.dec = dec
	s.intBuf = nil
	return audio.SkipFrames(s, frame)
}

type Decoder struct{}

// Sniff matches a FORM/AIFF or FORM/AIFC header.
func (Decoder) Sniff(header []byte) bool {
	if len(header) < 12 || !bytes.Equal(header[:4], []byte("FORM")) {
		return false
	}
	form := string(header[8:12])
	return form == "AIFF" || form == "AIFC"
}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio requires io.ReadSeeker
	rs, err := audio.AsReadSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("reading aiff data: %w", err)
	}

	// measured before the header is parsed, the whole file bounds the frame count
	size, sizeErr := audio.Remaining(rs)

	dec, err := open(rs)
	if err != nil {
		return nil, err
	}

	format := dec.Format()
	frames := int64(dec.NumSampleFrames)
	if bpf := int64(format.NumChannels) * int64(dec.BitDepth/8); sizeErr == nil && bpf > 0 {
		frames = min(frames, size/bpf)
	}
	return &source{
		rs:         rs,
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		bitDepth:   int(dec.BitDepth),
		frames:     frames,
	}, nil
}

func open(rs io.ReadSeeker) (*aiff.Decoder, error) {
	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}

	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedAiffLayout, err)
	}

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, dec.BitDepth)
	}

	if dec.Format() == nil {
		return nil, ErrUnsupportedAiffLayout
	}
	return dec, nil
}
