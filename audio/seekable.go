// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bytes"
	"fmt"
	"io"
)

// AsReadSeeker returns r itself when it can seek, otherwise the whole
// stream buffered in memory.
func AsReadSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffering input: %w", err)
	}
	return bytes.NewReader(data), nil
}

// SkipFrames reads and discards n frames from src.
func SkipFrames(src Source, n int64) error {
	ch := int64(src.Channels())
	buf := make([]float32, 4096*ch)
	left := n * ch
	for left > 0 {
		want := min(left, int64(len(buf)))
		got, err := src.ReadSamples(buf[:want])
		left -= int64(got)
		if err != nil {
			if err == io.EOF && left <= 0 {
				return nil
			}
			return err
		}
		if got == 0 {
			return io.ErrNoProgress
		}
	}
	return nil
}

// Remaining reports how many bytes are left between the current position
// of rs and its end. The position is restored.
func Remaining(rs io.Seeker) (int64, error) {
	cur, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("%w", err)
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("%w", err)
	}
	if _, err := rs.Seek(cur, io.SeekStart); err != nil {
		return 0, fmt.Errorf("%w", err)
	}
	return max(end-cur, 0), nil
}

// ClampFrames limits a frame count taken from a header to what the bytes
// left in rs can hold. Streamed recordings often leave the size field at
// its maximum.
func ClampFrames(rs io.Seeker, frames, bytesPerFrame int64) int64 {
	if bytesPerFrame <= 0 {
		return frames
	}
	left, err := Remaining(rs)
	if err != nil {
		return frames
	}
	return min(frames, left/bytesPerFrame)
}
