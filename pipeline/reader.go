// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"errors"
	"io"
)

// trackingReader remembers the first non-EOF error of the file so decode
// failures can be told apart from I/O failures. It deliberately does not
// implement io.Closer: decoders never own the file.
type trackingReader struct {
	rs  io.ReadSeeker
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.rs.Read(p)
	t.note(err)
	return n, err
}

func (t *trackingReader) Seek(offset int64, whence int) (int64, error) {
	n, err := t.rs.Seek(offset, whence)
	t.note(err)
	return n, err
}

func (t *trackingReader) note(err error) {
	if err != nil && t.err == nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
}
