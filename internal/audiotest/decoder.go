// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/ik5/musa/audio"
)

// Magic starts every file the mock Decoder accepts.
const Magic = "MOCK"

// ErrDecoderRejected is returned by Decoder when Reject is set.
var ErrDecoderRejected = errors.New("mock decoder rejected input")

// Decoder hands out sources built by New for any file starting with Magic.
// It remembers how often Decode ran so tests can observe decoder rebuilds.
type Decoder struct {
	New func() *MockSource
	// Reject makes Decode fail with this error (wrapped with
	// ErrDecoderRejected) instead of building a source.
	Reject error

	mtx     sync.Mutex
	decodes int
	last    *MockSource
}

func (d *Decoder) Sniff(header []byte) bool {
	return bytes.HasPrefix(header, []byte(Magic))
}

func (d *Decoder) Decode(r io.Reader) (audio.Source, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}

	d.mtx.Lock()
	defer d.mtx.Unlock()

	d.decodes++
	if d.Reject != nil {
		return nil, errors.Join(ErrDecoderRejected, d.Reject)
	}
	d.last = d.New()
	return d.last, nil
}

// Decodes reports how many times Decode was called.
func (d *Decoder) Decodes() int {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.decodes
}

// Last returns the most recently decoded source.
func (d *Decoder) Last() *MockSource {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.last
}
