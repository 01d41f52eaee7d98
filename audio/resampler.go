// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/musa/utils"
)

// Resampler streams from src to target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// A one-pole low-pass runs ahead of the interpolator when downsampling.
type Resampler struct {
	src      Source
	dstRate  float64
	ratio    float64 // source frames per output frame
	channels int

	// frames[0] = t-1, frames[1] = t0, frames[2] = t+1, frames[3] = t+2
	frames   [4][]float32
	hasFrame [4]bool
	primed   bool
	warm     bool // filterState seeded from the first frame

	// position between frames[1] and frames[2], in source frames
	pos float64

	srcBuf []float32
	eof    bool

	filterState []float32
	useFilter   bool
	filterAlpha float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	ratio := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:         src,
		dstRate:     float64(dstRate),
		ratio:       ratio,
		channels:    channels,
		srcBuf:      make([]float32, channels),
		useFilter:   ratio > 1.0,
		filterAlpha: 0.5,
		filterState: make([]float32, channels),
	}
	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return int(r.dstRate) }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// Frames reports the source length converted to output frames.
func (r *Resampler) Frames() int64 {
	n := frames(r.src)
	if n <= 0 {
		return 0
	}
	return int64(float64(n) / r.ratio)
}

// SeekFrame positions the stream at output frame frame. The interpolation
// window is discarded and refilled from the new source position.
func (r *Resampler) SeekFrame(frame int64) error {
	if err := seekFrame(r.src, int64(float64(frame)*r.ratio)); err != nil {
		return err
	}
	r.reset()
	return nil
}

func (r *Resampler) reset() {
	r.hasFrame = [4]bool{}
	r.primed = false
	r.warm = false
	r.pos = 0
	r.eof = false
}

// readFrame reads one source frame into dst.
func (r *Resampler) readFrame(dst []float32) (bool, error) {
	n, err := r.src.ReadSamples(r.srcBuf)
	if n > 0 {
		copy(dst, r.srcBuf[:n])
		if r.useFilter {
			if !r.warm {
				copy(r.filterState, dst)
				r.warm = true
			}
			for c := range r.channels {
				dst[c] = r.filterAlpha*dst[c] + (1-r.filterAlpha)*r.filterState[c]
				r.filterState[c] = dst[c]
			}
		}
	}
	if err == io.EOF {
		r.eof = true
		return n > 0, nil
	}
	if err != nil {
		return n > 0, fmt.Errorf("%w", err)
	}
	return n > 0, nil
}

// prime loads the first source frames into frames[1:].
func (r *Resampler) prime() error {
	for i := 1; i < 4 && !r.eof; i++ {
		ok, err := r.readFrame(r.frames[i])
		if err != nil {
			return err
		}
		r.hasFrame[i] = ok
	}
	if !r.hasFrame[1] {
		return io.EOF
	}
	r.primed = true
	return nil
}

// advance shifts the window by one source frame.
func (r *Resampler) advance() error {
	first := r.frames[0]
	copy(r.frames[:], r.frames[1:])
	r.frames[3] = first
	copy(r.hasFrame[:], r.hasFrame[1:])
	r.hasFrame[3] = false

	if !r.eof {
		ok, err := r.readFrame(r.frames[3])
		if err != nil {
			return err
		}
		r.hasFrame[3] = ok
	}
	if !r.hasFrame[1] {
		return io.EOF
	}
	return nil
}

// ReadSamples produces dst samples at the target rate.
// dst length should be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	want := len(dst) / r.channels

	for written < want {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.advance(); err != nil {
				if written == 0 {
					return 0, err
				}
				return written * r.channels, err
			}
		}

		alpha := float32(r.pos)
		for c := range r.channels {
			y1 := r.frames[1][c]
			y0, y2 := y1, y1
			if r.hasFrame[0] {
				y0 = r.frames[0][c]
			}
			if r.hasFrame[2] {
				y2 = r.frames[2][c]
			}
			y3 := y2
			if r.hasFrame[3] {
				y3 = r.frames[3][c]
			}
			dst[written*r.channels+c] = utils.CubicInterpolate(y0, y1, y2, y3, alpha)
		}

		written++
		r.pos += r.ratio
	}

	return written * r.channels, nil
}
