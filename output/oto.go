// SPDX-License-Identifier: EPL-2.0

// Package output plays float32 sample streams on the system audio device
// through github.com/ebitengine/oto/v3.
package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/ik5/musa/player"
)

const (
	DefaultSampleRate = 44100
	DefaultChannels   = 2
	DefaultBuffer     = 100 * time.Millisecond
)

// Config selects the device format. Zero values take the defaults.
type Config struct {
	SampleRate int
	Channels   int
	Buffer     time.Duration
}

// oto allows a single context per process; the first Open fixes its format.
var (
	ctxOnce sync.Once
	ctx     *oto.Context
	ctxCfg  Config
	errCtx  error
)

// Device is the oto backed player.Output.
type Device struct {
	ctx *oto.Context
	cfg Config
}

// Open initializes the audio device. Later calls return a Device sharing
// the first context and report that context's format.
func Open(cfg Config) (*Device, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.Channels <= 0 {
		cfg.Channels = DefaultChannels
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultBuffer
	}

	ctxOnce.Do(func() {
		c, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   cfg.Buffer,
		})
		if err != nil {
			errCtx = err
			return
		}
		<-ready
		ctx, ctxCfg = c, cfg
	})
	if errCtx != nil {
		return nil, fmt.Errorf("%w: %w", player.ErrDeviceUnavailable, errCtx)
	}

	return &Device{ctx: ctx, cfg: ctxCfg}, nil
}

func (d *Device) Format() (sampleRate, channels int) {
	return d.cfg.SampleRate, d.cfg.Channels
}

// Open creates a paused player pulling from r.
func (d *Device) Open(r io.Reader) (player.Stream, error) {
	if err := d.ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", player.ErrDeviceUnavailable, err)
	}
	p := d.ctx.NewPlayer(r)
	if p == nil {
		return nil, player.ErrStreamBuild
	}
	return &stream{p: p}, nil
}

type stream struct {
	p *oto.Player
}

func (s *stream) Play() error {
	s.p.Play()
	return s.err()
}

func (s *stream) Pause() error {
	s.p.Pause()
	return s.err()
}

func (s *stream) Close() error {
	if err := s.p.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *stream) err() error {
	if err := s.p.Err(); err != nil {
		return fmt.Errorf("%w: %w", player.ErrStreamBuild, err)
	}
	return nil
}
