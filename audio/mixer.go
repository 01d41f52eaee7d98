// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// MonoMixer downmixes every frame of src to one sample by averaging its
// channels. Mono sources pass through untouched.
type MonoMixer struct {
	src Source
	tmp []float32
}

func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{
		src: src,
		tmp: make([]float32, 4096),
	}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) BufSize() int    { return m.src.BufSize() }

func (m *MonoMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// SeekFrame forwards to src; frame indices are unchanged by downmixing.
func (m *MonoMixer) SeekFrame(frame int64) error { return seekFrame(m.src, frame) }

// Frames forwards to src when it reports a length.
func (m *MonoMixer) Frames() int64 { return frames(m.src) }

func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	channels := m.src.Channels()
	if channels == 1 {
		return m.src.ReadSamples(dst)
	}

	need := len(dst) * channels
	m.tmp = grow(m.tmp, need)

	n, err := m.src.ReadSamples(m.tmp[:need])
	if n == 0 {
		return 0, err
	}
	nframes := n / channels

	switch channels {
	case 2:
		for f := range nframes {
			dst[f] = (m.tmp[2*f] + m.tmp[2*f+1]) * 0.5
		}
	default:
		inv := float32(1) / float32(channels)
		for f := range nframes {
			var sum float32
			for _, v := range m.tmp[f*channels : (f+1)*channels] {
				sum += v
			}
			dst[f] = sum * inv
		}
	}

	return nframes, err
}

// ChannelMixer maps src onto a fixed output channel count. Mono input is
// duplicated to every output channel, wider input keeps its first channels,
// and a single output channel averages all inputs.
type ChannelMixer struct {
	src Source
	out int
	tmp []float32
}

// NewChannelMixer returns src unchanged when it already has channels
// outputs, a MonoMixer for one output, and a ChannelMixer otherwise.
func NewChannelMixer(src Source, channels int) Source {
	switch {
	case channels <= 0 || src.Channels() == channels:
		return src
	case channels == 1:
		return NewMonoMixer(src)
	}
	return &ChannelMixer{src: src, out: channels, tmp: make([]float32, 4096)}
}

func (c *ChannelMixer) SampleRate() int             { return c.src.SampleRate() }
func (c *ChannelMixer) Channels() int               { return c.out }
func (c *ChannelMixer) BufSize() int                { return c.src.BufSize() }
func (c *ChannelMixer) SeekFrame(frame int64) error { return seekFrame(c.src, frame) }
func (c *ChannelMixer) Frames() int64               { return frames(c.src) }

func (c *ChannelMixer) Close() error {
	if err := c.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (c *ChannelMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst)%c.out != 0 {
		return 0, ErrInvalidDstSize
	}
	in := c.src.Channels()
	want := len(dst) / c.out
	c.tmp = grow(c.tmp, want*in)

	n, err := c.src.ReadSamples(c.tmp[:want*in])
	if n == 0 {
		return 0, err
	}
	nframes := n / in

	for f := range nframes {
		frame := c.tmp[f*in : (f+1)*in]
		for ch := range c.out {
			if in == 1 {
				dst[f*c.out+ch] = frame[0]
			} else if ch < in {
				dst[f*c.out+ch] = frame[ch]
			} else {
				dst[f*c.out+ch] = 0
			}
		}
	}

	return nframes * c.out, err
}

func grow(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, max(n, 8192))
	}
	return buf[:n]
}

func seekFrame(src Source, frame int64) error {
	s, ok := src.(FrameSeeker)
	if !ok {
		return ErrSeekUnsupported
	}
	return s.SeekFrame(frame)
}

func frames(src Source) int64 {
	if l, ok := src.(Lengther); ok {
		return l.Frames()
	}
	return 0
}
