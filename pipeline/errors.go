// SPDX-License-Identifier: EPL-2.0

package pipeline

import "errors"

var (
	ErrNotFound = errors.New("audio file not found")
	ErrIO       = errors.New("audio file i/o failed")

	// ErrFormatUnsupported means no registered decoder recognized the file,
	// or the stream reports an unusable sample rate or channel count.
	ErrFormatUnsupported = errors.New("unsupported audio format")

	ErrNoDecodableTrack   = errors.New("no decodable audio track")
	ErrDecoderUnsupported = errors.New("decoder rejected the stream")
	ErrSeekFailed         = errors.New("seek failed")
	ErrClosed             = errors.New("pipeline closed")
)
