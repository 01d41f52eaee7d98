// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/ik5/musa/audio"
	"github.com/ik5/musa/utils"
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// pcmReader is the part of wav.Decoder the source reads from, to allow testing
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	rs         io.ReadSeeker
	dec        pcmReader
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
			Data:           make([]int, want),
			Format:         &goaudio.Format{NumChannels: s.channels, SampleRate: s.sampleRate},
			SourceBitDepth: s.bitDepth,
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
		if s.bitDepth == 8 {
			v -= 128 // 8-bit WAV is unsigned
		}
		dst[i] = utils.IntToFloat32(v, s.bitDepth)
	}

	if err == io.EOF {
		return n, io.EOF
	}
	if err != nil {
		return n, fmt.Errorf("%w", err)
	}
	return n, nil
}

// SeekFrame rewinds to the PCM chunk and discards frames up to frame. A
// frame past the end fails before the stream is touched.
func (s *source) SeekFrame(frame int64) error {
	if frame < 0 || frame > s.frames {
		return fmt.Errorf("%w: frame %d of %d", audio.ErrSeekOutOfRange, frame, s.frames)
	}
	if _, err := s.rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	dec, _, err := open(s.rs)
	if err != nil {
		return err
	}
	s.dec = dec
	return audio.SkipFrames(s, frame)
}

type Decoder struct{}

// Sniff matches a RIFF/WAVE header.
func (Decoder) Sniff(header []byte) bool {
	return len(header) >= 12 &&
		bytes.Equal(header[:4], []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("WAVE"))
}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := audio.AsReadSeeker(r)
	if err != nil {
		return nil, err
	}

	dec, info, err := open(rs)
	if err != nil {
		return nil, err
	}

	return &source{
		rs:         rs,
		dec:        dec,
		sampleRate: info.sampleRate,
		channels:   info.channels,
		bitDepth:   info.bitDepth,
		frames:     info.frames,
	}, nil
}

type info struct {
	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
}

// open parses the header of rs and leaves the decoder at the first PCM frame.
func open(rs io.ReadSeeker) (*wav.Decoder, info, error) {
	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, info{}, ErrNotWavFile
	}

	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, info{}, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, info{}, fmt.Errorf("%w: format tag %d", ErrOnlyPCMSupported, dec.WavAudioFormat)
	}

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, info{}, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, info{}, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	var frames int64
	if bpf := int64(dec.NumChans) * int64(bitDepth/8); bpf > 0 {
		frames = audio.ClampFrames(rs, int64(dec.PCMSize)/bpf, bpf)
	}

	return dec, info{
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		bitDepth:   bitDepth,
		frames:     frames,
	}, nil
}
