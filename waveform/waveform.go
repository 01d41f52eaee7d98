// SPDX-License-Identifier: EPL-2.0

// Package waveform turns an audio file into a short amplitude envelope for
// display.
package waveform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ik5/musa/audio"
	"github.com/ik5/musa/logger"
	"github.com/ik5/musa/pipeline"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	DefaultPoints = 100

	// assumed duration when the container does not report a length
	fallbackSeconds = 240

	// evaluated frames per output point in streaming mode
	oversample = 10

	// consecutive bad packets after which decoding gives up
	maxDecodeErrors = 64

	// upper bound on the exact mode buffer reserved from a header length
	maxPrealloc = 1 << 22
)

var ErrExtractionFailed = errors.New("waveform extraction failed")

// Mode selects the extraction algorithm.
type Mode int

const (
	// Exact decodes the whole file and takes the peak of every segment.
	Exact Mode = iota
	// Streaming samples every stride-th frame in a single pass without
	// keeping the decoded signal.
	Streaming
)

func (m Mode) String() string {
	switch m {
	case Exact:
		return "exact"
	case Streaming:
		return "streaming"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "exact" or "streaming".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact", "":
		return Exact, nil
	case "streaming", "stream":
		return Streaming, nil
	}
	return Exact, fmt.Errorf("unknown waveform mode %q", s)
}

type Options struct {
	Fs       afero.Fs
	Registry *audio.Registry
	Logger   logrus.FieldLogger
}

// Extractor computes envelopes. Each call opens its own pipeline, so one
// Extractor may serve concurrent calls.
type Extractor struct {
	opts Options
	log  logrus.FieldLogger
}

func New(opts Options) *Extractor {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Extractor{
		opts: opts,
		log:  logger.WithComponent(opts.Logger, "waveform"),
	}
}

// Extract returns points values in [0, 1]. The loudest point is 1 unless
// the whole signal is silent. Failing to open or probe path is an error
// wrapping ErrExtractionFailed; failing to decode audio is not, and
// yields zeros.
func (x *Extractor) Extract(ctx context.Context, path string, points int, mode Mode) ([]float32, error) {
	if points <= 0 {
		return []float32{}, nil
	}

	p, err := pipeline.Open(path, pipeline.Options{
		Fs:       x.opts.Fs,
		Registry: x.opts.Registry,
		Channels: 1,
		Logger:   x.opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	defer p.Close()

	log := x.log.WithFields(logrus.Fields{"path": path, "mode": mode.String(), "points": points})

	var out []float32
	switch mode {
	case Streaming:
		out, err = x.streaming(ctx, p, points, log)
	default:
		out, err = x.exact(ctx, p, points, log)
	}
	if err != nil {
		return nil, err
	}

	normalize(out)
	return out, nil
}

// packets feeds every decoded mono packet to fn until the stream ends, fn
// returns false, or decoding keeps failing.
func packets(ctx context.Context, p *pipeline.Pipeline, log logrus.FieldLogger, fn func([]float32) bool) error {
	bad := 0
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrExtractionFailed, err)
		}

		pkt, err := p.NextPacket()
		switch {
		case err == nil:
			bad = 0
			if !fn(pkt.Samples) {
				return nil
			}
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, audio.ErrDecode):
			bad++
			if bad >= maxDecodeErrors {
				log.WithError(err).Warn("too many bad packets, stopping")
				return nil
			}
		default:
			log.WithError(err).Warn("decoding stopped")
			return nil
		}
	}
}

func (x *Extractor) exact(ctx context.Context, p *pipeline.Pipeline, points int, log logrus.FieldLogger) ([]float32, error) {
	mono := make([]float32, 0, min(p.Frames(), maxPrealloc))
	err := packets(ctx, p, log, func(s []float32) bool {
		mono = append(mono, s...)
		return true
	})
	if err != nil {
		return nil, err
	}

	log.WithField("frames", len(mono)).Debug("decoded")
	return Peaks(mono, points), nil
}

func (x *Extractor) streaming(ctx context.Context, p *pipeline.Pipeline, points int, log logrus.FieldLogger) ([]float32, error) {
	estimate := p.Frames()
	if estimate <= 0 {
		estimate = int64(p.SampleRate()) * fallbackSeconds
	}

	env := newEnvelope(points, estimate)
	err := packets(ctx, p, log, func(s []float32) bool {
		for _, v := range s {
			env.add(v)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"frames":   env.count,
		"estimate": env.estimate,
	}).Debug("scanned")
	return env.points, nil
}

// Peaks splits mono into points segments, the last one taking the
// remainder, and returns the largest magnitude in each. With fewer samples
// than points each value is the magnitude of the nearest sample instead.
// The result is not normalized.
func Peaks(mono []float32, points int) []float32 {
	out := make([]float32, points)
	total := len(mono)
	if total == 0 || points <= 0 {
		return out
	}

	per := total / points
	if per == 0 {
		for i := range out {
			out[i] = abs(mono[i*total/points])
		}
		return out
	}

	for i := range out {
		end := (i + 1) * per
		if i == points-1 {
			end = total
		}
		var peak float32
		for _, v := range mono[i*per : end] {
			peak = max(peak, abs(v))
		}
		out[i] = peak
	}
	return out
}

// envelope keeps a running per-point peak over a stream of unknown exact
// length.
type envelope struct {
	points   []float32
	estimate int64
	stride   int64
	count    int64
}

func newEnvelope(points int, estimate int64) *envelope {
	e := &envelope{points: make([]float32, points), estimate: max(estimate, 1)}
	e.restride()
	return e
}

func (e *envelope) restride() {
	e.stride = max(e.estimate/int64(len(e.points)*oversample), 1)
}

func (e *envelope) add(v float32) {
	e.count++
	if e.count > e.estimate {
		e.grow()
	}
	if e.count%e.stride != 0 {
		return
	}

	n := int64(len(e.points))
	idx := min(e.count*n/e.estimate, n-1)
	e.points[idx] = max(e.points[idx], abs(v))
}

// grow doubles the estimate when the stream outlives it. Every pair of
// points folds into one so frames already seen keep their place.
func (e *envelope) grow() {
	n := len(e.points)
	for q := range n {
		var v float32
		if a := 2 * q; a < n {
			v = e.points[a]
		}
		if b := 2*q + 1; b < n {
			v = max(v, e.points[b])
		}
		e.points[q] = v
	}
	e.estimate *= 2
	e.restride()
}

// normalize scales values so the largest is 1. All-zero input is left as is.
func normalize(values []float32) {
	peak := lo.Max(values)
	if peak <= 0 {
		return
	}
	for i := range values {
		values[i] /= peak
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
