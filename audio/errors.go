// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// ErrNoTrack is wrapped by decoders when the container was recognized
	// but holds no stream the decoder can handle.
	ErrNoTrack = errors.New("no decodable track")

	// ErrDecode is wrapped by sources when a single packet failed to decode
	// and reading may continue.
	ErrDecode = errors.New("packet decode failed")

	// ErrResetRequired asks the caller to rebuild the decoder at the
	// current position before reading again.
	ErrResetRequired = errors.New("decoder reset required")

	ErrSeekUnsupported = errors.New("source does not support seeking")

	// ErrSeekOutOfRange is returned by SeekFrame for a frame past the end.
	// The source keeps its position.
	ErrSeekOutOfRange = errors.New("seek frame out of range")
)
