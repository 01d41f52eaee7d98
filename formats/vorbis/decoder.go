// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ik5/musa/audio"
	"github.com/jfreymuth/oggvorbis"
)

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Length() int64
	SetPosition(pos int64) error
	Read([]float32) (int, error)
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 }
func (s *source) Frames() int64   { return s.dec.Length() }

func (s *source) SeekFrame(frame int64) error {
	if err := s.dec.SetPosition(frame); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// ReadSamples hands dst straight to the decoder; oggvorbis already counts
// interleaved values and keeps them frame aligned.
func (s *source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst[:want])
	switch {
	case err == nil:
		return n, nil
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return n, io.EOF
	default:
		// a corrupt page does not end the stream
		return n, fmt.Errorf("%w: %w", audio.ErrDecode, err)
	}
}

type Decoder struct{}

func (Decoder) Sniff(header []byte) bool {
	return bytes.HasPrefix(header, []byte("OggS"))
}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// SetPosition needs random access
	rs, err := audio.AsReadSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("reading ogg data: %w", err)
	}

	dec, err := oggvorbis.NewReader(rs)
	if err != nil {
		// an Ogg container that holds no Vorbis stream (Opus, Theora)
		return nil, fmt.Errorf("%w: %w", audio.ErrNoTrack, err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
	}, nil
}
