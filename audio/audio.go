// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"path/filepath"
	"strings"
	"sync"
)

type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}

// FrameSeeker is implemented by sources that can reposition to an absolute
// frame (one sample per channel) in their native sample rate.
type FrameSeeker interface {
	SeekFrame(frame int64) error
}

// Lengther is implemented by sources whose container reports the total
// number of frames. A value <= 0 means unknown.
type Lengther interface {
	Frames() int64
}

// Decoder constructs a Source from an input reader.
// Decoders that need random access type-assert r to io.ReadSeeker.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Sniffer reports whether header (the first bytes of a file) looks like
// the decoder's container.
type Sniffer interface {
	Sniff(header []byte) bool
}

type entry struct {
	format string
	dec    Decoder
	exts   []string
}

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg vorbis").
// Registration order is the content sniffing order.
type Registry struct {
	codecs map[string]Decoder
	order  []entry

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.Mutex{},
	}
}

// Register adds d under format. exts are file extensions (without the dot)
// used as probing hints.
func (r *Registry) Register(format string, d Decoder, exts ...string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.codecs[format]; ok {
		for i := range r.order {
			if r.order[i].format == format {
				r.order[i] = entry{format: format, dec: d, exts: exts}
			}
		}
	} else {
		r.order = append(r.order, entry{format: format, dec: d, exts: exts})
	}
	r.codecs[format] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[format]
	return d, ok
}

// Formats returns the registered format keys in sniffing order.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	out := make([]string, 0, len(r.order))
	for _, e := range r.order {
		out = append(out, e.format)
	}
	return out
}

// Probe selects a decoder for a file named name whose first bytes are
// header. The extension hint is tried first and must be confirmed by the
// decoder's Sniff when it has one; then every decoder is sniffed in
// registration order.
func (r *Registry) Probe(name string, header []byte) (string, Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext != "" {
		for _, e := range r.order {
			if !hasExt(e.exts, ext) {
				continue
			}
			if s, ok := e.dec.(Sniffer); !ok || s.Sniff(header) {
				return e.format, e.dec, true
			}
		}
	}

	for _, e := range r.order {
		if s, ok := e.dec.(Sniffer); ok && s.Sniff(header) {
			return e.format, e.dec, true
		}
	}

	return "", nil, false
}

func hasExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}
