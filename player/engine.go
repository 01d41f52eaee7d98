// SPDX-License-Identifier: EPL-2.0

package player

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ik5/musa/audio"
	"github.com/ik5/musa/logger"
	"github.com/ik5/musa/pipeline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Output is an audio device that pulls samples from a reader.
type Output interface {
	// Format is the sample rate and channel count the device plays.
	Format() (sampleRate, channels int)
	// Open builds a paused stream reading little-endian float32 samples
	// from r. Failures wrap ErrDeviceUnavailable or ErrStreamBuild.
	Open(r io.Reader) (Stream, error)
}

// Stream is one open output stream.
type Stream interface {
	Play() error
	Pause() error
	Close() error
}

// Options configures an Engine.
type Options struct {
	Output   Output
	Fs       afero.Fs
	Registry *audio.Registry

	RefillThreshold int
	PacketFrames    int

	// Volume is applied to every loaded track. nil means full volume.
	Volume *float32

	Logger logrus.FieldLogger
}

// Engine plays one track at a time on an Output.
type Engine struct {
	mtx    sync.Mutex
	opts   Options
	log    logrus.FieldLogger
	closed bool

	state  *State
	pipe   *pipeline.Pipeline
	stream Stream
	track  pipeline.Track

	volume float32
	speed  float32
}

func New(opts Options) (*Engine, error) {
	if opts.Output == nil {
		return nil, fmt.Errorf("%w: no output configured", ErrDeviceUnavailable)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	e := &Engine{
		opts:   opts,
		log:    logger.WithComponent(opts.Logger, "player"),
		volume: 1,
		speed:  1,
	}
	if opts.Volume != nil {
		if v := *opts.Volume; !(v >= 0 && v <= maxVolume) {
			return nil, fmt.Errorf("%w: volume %v not in [0, %d]", ErrInvalidParameter, v, maxVolume)
		}
		e.volume = *opts.Volume
	}
	return e, nil
}

// Load stops the current track, if any, and starts playing path.
func (e *Engine) Load(path string) (err error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	e.teardown()

	rate, channels := e.opts.Output.Format()
	pipe, err := pipeline.Open(path, pipeline.Options{
		Fs:           e.opts.Fs,
		Registry:     e.opts.Registry,
		SampleRate:   rate,
		Channels:     channels,
		PacketFrames: e.opts.PacketFrames,
		Logger:       e.opts.Logger,
	})
	if err != nil {
		return err
	}

	state := NewState(pipe, e.opts.RefillThreshold)
	state.volume = e.volume
	state.speed = e.speed

	var stream Stream
	defer func() {
		if err == nil {
			return
		}
		state.detach()
		if stream != nil {
			e.release(stream)
		}
		if cerr := pipe.Close(); cerr != nil {
			e.log.WithError(cerr).Warn("closing pipeline")
		}
	}()

	stream, err = e.opts.Output.Open(state)
	if err != nil {
		if !errors.Is(err, ErrDeviceUnavailable) && !errors.Is(err, ErrStreamBuild) {
			err = fmt.Errorf("%w: %w", ErrStreamBuild, err)
		}
		return err
	}
	if err := stream.Play(); err != nil {
		return fmt.Errorf("%w: %w", ErrStreamBuild, err)
	}

	e.state, e.pipe, e.stream = state, pipe, stream
	e.track = pipe.Track()
	e.log.WithFields(logrus.Fields{
		"path":   path,
		"format": e.track.Format,
	}).Info("playing")

	return nil
}

// teardown pauses and closes the stream and releases the track. Failures
// are logged only. Callers hold e.mtx.
func (e *Engine) teardown() {
	if e.stream != nil {
		e.release(e.stream)
		e.stream = nil
	}
	if e.state != nil {
		e.state.detach()
		e.state = nil
	}
	if e.pipe != nil {
		if err := e.pipe.Close(); err != nil {
			e.log.WithError(err).Warn("closing pipeline")
		}
		e.pipe = nil
	}
	e.track = pipeline.Track{}
}

func (e *Engine) release(s Stream) {
	if err := s.Pause(); err != nil {
		e.log.WithError(err).Warn("pausing stream on teardown")
	}
	if err := s.Close(); err != nil {
		e.log.WithError(err).Warn("closing stream")
	}
}

func (e *Engine) active() (*State, error) {
	if e.closed {
		return nil, ErrEngineClosed
	}
	if e.state == nil {
		return nil, ErrNoActiveTrack
	}
	return e.state, nil
}

// Play resumes rendering. It only clears the paused flag.
func (e *Engine) Play() error {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	st, err := e.active()
	if err != nil {
		return err
	}
	return st.SetPaused(false)
}

// Pause makes the callback render silence without moving the cursor.
func (e *Engine) Pause() error {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	st, err := e.active()
	if err != nil {
		return err
	}
	return st.SetPaused(true)
}

// SetVolume sets the gain for this and later tracks. v must be in [0, 1].
func (e *Engine) SetVolume(v float32) error {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.state != nil {
		if err := e.state.SetVolume(v); err != nil {
			return err
		}
	} else if !(v >= 0 && v <= maxVolume) {
		return fmt.Errorf("%w: volume %v not in [0, %d]", ErrInvalidParameter, v, maxVolume)
	}
	e.volume = v
	return nil
}

// SetSpeed stores a speed in (0, 4]. It is kept and reported by Speed but
// does not change the render rate.
func (e *Engine) SetSpeed(v float32) error {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.state != nil {
		if err := e.state.SetSpeed(v); err != nil {
			return err
		}
	} else if !(v > 0 && v <= maxSpeed) {
		return fmt.Errorf("%w: speed %v not in (0, %d]", ErrInvalidParameter, v, maxSpeed)
	}
	e.speed = v
	return nil
}

// Seek jumps to sec seconds and returns it.
func (e *Engine) Seek(sec float64) (float64, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	st, err := e.active()
	if err != nil {
		if sec < 0 {
			return 0, fmt.Errorf("%w: seek to %v", ErrInvalidParameter, sec)
		}
		return 0, err
	}
	return st.Seek(sec)
}

// CurrentTime is the approximate play position in seconds, 0 without a
// track.
func (e *Engine) CurrentTime() (float64, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.state == nil {
		return 0, nil
	}
	return e.state.CurrentTime()
}

func (e *Engine) Volume() float32 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.volume
}

func (e *Engine) Speed() float32 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.speed
}

// Paused reports whether the current track is paused; false without one.
func (e *Engine) Paused() bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.state == nil {
		return false
	}
	return e.state.Paused()
}

// Track describes the loaded track. ok is false when nothing is loaded.
func (e *Engine) Track() (pipeline.Track, bool) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.track, e.state != nil
}

// Duration is the length of the loaded track in seconds, 0 when unknown.
func (e *Engine) Duration() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.track.SampleRate <= 0 {
		return 0
	}
	return float64(e.track.Frames) / float64(e.track.SampleRate)
}

// Close tears down the current track. The engine cannot be used afterwards.
func (e *Engine) Close() error {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.closed {
		return nil
	}
	e.teardown()
	e.closed = true
	e.log.Debug("engine closed")
	return nil
}
