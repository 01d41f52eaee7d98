// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/ik5/musa/audio"
	"github.com/ik5/musa/formats"
	"github.com/ik5/musa/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	// DefaultPacketFrames is the packet size used when Options leaves it 0.
	DefaultPacketFrames = 1024

	headerSize = 64

	// empty reads tolerated in a row before a packet counts as failed
	maxEmptyReads = 8
)

// Options controls how a file is opened and which format packets come out in.
type Options struct {
	// Fs is the filesystem files are opened from. Defaults to the OS.
	Fs afero.Fs
	// Registry supplies decoders. Defaults to formats.Default().
	Registry *audio.Registry

	// SampleRate and Channels select the packet format. Zero keeps the
	// track's own value.
	SampleRate int
	Channels   int

	PacketFrames int
	Logger       logrus.FieldLogger
}

// Track describes the opened stream in its native format.
type Track struct {
	Path       string
	Format     string
	SampleRate int
	Channels   int
	// Frames is the native length when the container reports one, else 0.
	Frames int64
}

// Packet is one decoded block of interleaved samples. TS is the index of
// its first frame in the pipeline's output format. Samples is reused by the
// next call to NextPacket.
type Packet struct {
	TS      int64
	Samples []float32
}

// Pipeline owns an open file, its decoder and the format adapters in front
// of it. It is not safe for concurrent use.
type Pipeline struct {
	opts    Options
	file    afero.File
	tracker *trackingReader
	dec     audio.Decoder
	src     audio.Source
	track   Track
	log     logrus.FieldLogger

	pos     int64 // next frame, output format
	buf     []float32
	pending error
	eof     bool
}

// Open opens path, probes its format and prepares a decoder for it.
func Open(path string, opts Options) (*Pipeline, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Registry == nil {
		opts.Registry = formats.Default()
	}
	if opts.PacketFrames <= 0 {
		opts.PacketFrames = DefaultPacketFrames
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	log := logger.WithComponent(opts.Logger, "pipeline").WithField("path", path)

	f, err := opts.Fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	p := &Pipeline{
		opts:    opts,
		file:    f,
		tracker: &trackingReader{rs: f},
		log:     log,
	}
	if err := p.probe(path); err != nil {
		_ = f.Close()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"format":      p.track.Format,
		"sample_rate": p.track.SampleRate,
		"channels":    p.track.Channels,
		"frames":      p.track.Frames,
	}).Debug("track opened")

	return p, nil
}

func (p *Pipeline) probe(path string) error {
	header := make([]byte, headerSize)
	n, err := io.ReadFull(p.file, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if _, err := p.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	format, dec, ok := p.opts.Registry.Probe(filepath.Base(path), header[:n])
	if !ok {
		return fmt.Errorf("%w: %s", ErrFormatUnsupported, path)
	}
	p.dec = dec

	raw, err := p.decode()
	if err != nil {
		return err
	}
	if raw.SampleRate() <= 0 || raw.Channels() <= 0 {
		_ = raw.Close()
		return fmt.Errorf("%w: %d Hz, %d channels", ErrFormatUnsupported, raw.SampleRate(), raw.Channels())
	}

	var frames int64
	if l, ok := raw.(audio.Lengther); ok {
		frames = max(l.Frames(), 0)
	}
	p.track = Track{
		Path:       path,
		Format:     format,
		SampleRate: raw.SampleRate(),
		Channels:   raw.Channels(),
		Frames:     frames,
	}
	p.setSource(raw)
	return nil
}

// decode runs the decoder from the start of the file.
func (p *Pipeline) decode() (audio.Source, error) {
	if _, err := p.tracker.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	raw, err := p.dec.Decode(p.tracker)
	switch {
	case err == nil:
		return raw, nil
	case p.tracker.err != nil:
		return nil, fmt.Errorf("%w: %w", ErrIO, p.tracker.err)
	case errors.Is(err, audio.ErrNoTrack):
		return nil, fmt.Errorf("%w: %w", ErrNoDecodableTrack, err)
	default:
		return nil, fmt.Errorf("%w: %w", ErrDecoderUnsupported, err)
	}
}

func (p *Pipeline) setSource(raw audio.Source) {
	src := audio.NewChannelMixer(raw, p.opts.Channels)
	if p.opts.SampleRate > 0 && p.opts.SampleRate != src.SampleRate() {
		src = audio.NewResampler(src, p.opts.SampleRate)
	}
	p.src = src
	p.buf = make([]float32, p.opts.PacketFrames*src.Channels())
}

func (p *Pipeline) Track() Track { return p.track }

// SampleRate is the rate of the packets handed out.
func (p *Pipeline) SampleRate() int { return p.src.SampleRate() }

// Channels is the channel count of the packets handed out.
func (p *Pipeline) Channels() int { return p.src.Channels() }

// Frames estimates the stream length in output frames, 0 when unknown.
func (p *Pipeline) Frames() int64 {
	if p.track.Frames <= 0 {
		return 0
	}
	return p.track.Frames * int64(p.SampleRate()) / int64(p.track.SampleRate)
}

// Position is the output frame the next packet starts at.
func (p *Pipeline) Position() int64 { return p.pos }

// NextPacket decodes the next packet. It returns io.EOF at the end of the
// stream, an error wrapping audio.ErrDecode for a packet that failed but may
// be skipped, and ErrIO when the file itself can no longer be read.
func (p *Pipeline) NextPacket() (Packet, error) {
	if p.src == nil {
		return Packet{}, ErrClosed
	}
	if p.eof {
		return Packet{}, io.EOF
	}
	if err := p.takePending(); err != nil {
		return Packet{}, err
	}

	ch := p.src.Channels()
	reset := false
	for empty := 0; ; {
		n, err := p.src.ReadSamples(p.buf)
		n -= n % ch
		if n > 0 {
			pkt := Packet{TS: p.pos, Samples: p.buf[:n]}
			p.pos += int64(n / ch)
			p.pending = err
			return pkt, nil
		}

		switch {
		case err == nil:
			empty++
			if empty < maxEmptyReads {
				continue
			}
			return Packet{}, fmt.Errorf("%w: %w", audio.ErrDecode, io.ErrNoProgress)
		case errors.Is(err, audio.ErrResetRequired):
			if reset {
				return Packet{}, fmt.Errorf("%w: %w", audio.ErrDecode, err)
			}
			reset = true
			if err := p.Reset(); err != nil {
				return Packet{}, err
			}
			continue
		}
		return Packet{}, p.classify(err)
	}
}

// takePending handles an error that arrived together with the samples of
// the previous packet. Those samples were good, so a decode error is dropped.
func (p *Pipeline) takePending() error {
	err := p.pending
	p.pending = nil
	switch {
	case err == nil:
		return nil
	case errors.Is(err, audio.ErrResetRequired):
		return p.Reset()
	}
	if err := p.classify(err); !errors.Is(err, audio.ErrDecode) {
		return err
	}
	return nil
}

// classify maps a source error to the pipeline's taxonomy.
func (p *Pipeline) classify(err error) error {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		p.eof = true
		return io.EOF
	case p.tracker.err != nil:
		return fmt.Errorf("%w: %w", ErrIO, p.tracker.err)
	case errors.Is(err, audio.ErrDecode):
		return err
	}
	return fmt.Errorf("%w: %w", audio.ErrDecode, err)
}

// Reset rebuilds the decoder and repositions it at the current frame.
func (p *Pipeline) Reset() error {
	if p.src == nil {
		return ErrClosed
	}
	p.log.WithField("frame", p.pos).Warn("rebuilding decoder")

	raw, err := p.decode()
	if err != nil {
		return err
	}
	_ = p.src.Close()
	p.setSource(raw)
	if p.pos == 0 {
		return nil
	}
	if err := p.reposition(p.pos); err != nil {
		return fmt.Errorf("%w: %w", ErrSeekFailed, err)
	}
	return nil
}

// SeekFrame moves to output frame frame. The next packet starts there.
func (p *Pipeline) SeekFrame(frame int64) error {
	if p.src == nil {
		return ErrClosed
	}
	if frame < 0 {
		return fmt.Errorf("%w: negative frame %d", ErrSeekFailed, frame)
	}
	if err := p.reposition(frame); err != nil {
		return fmt.Errorf("%w: %w", ErrSeekFailed, err)
	}
	p.pos = frame
	p.pending = nil
	p.eof = false
	return nil
}

// reposition seeks the source chain, falling back to decoding from the
// start and discarding when a source cannot seek.
func (p *Pipeline) reposition(frame int64) error {
	if s, ok := p.src.(audio.FrameSeeker); ok {
		err := s.SeekFrame(frame)
		if !errors.Is(err, audio.ErrSeekUnsupported) {
			return err
		}
	}

	raw, err := p.decode()
	if err != nil {
		return err
	}
	_ = p.src.Close()
	p.setSource(raw)
	return audio.SkipFrames(p.src, frame)
}

// Close releases the decoder and the file. It is safe to call twice.
func (p *Pipeline) Close() error {
	if p.src == nil {
		return nil
	}
	_ = p.src.Close()
	p.src = nil

	if err := p.file.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
