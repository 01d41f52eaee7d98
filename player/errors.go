// SPDX-License-Identifier: EPL-2.0

package player

import (
	"errors"

	"github.com/ik5/musa/pipeline"
)

// Errors surfaced by Engine. The load-time ones are the pipeline's own
// sentinels, so errors.Is matches at either layer.
var (
	ErrNotFound           = pipeline.ErrNotFound
	ErrIO                 = pipeline.ErrIO
	ErrFormatUnsupported  = pipeline.ErrFormatUnsupported
	ErrNoDecodableTrack   = pipeline.ErrNoDecodableTrack
	ErrDecoderUnsupported = pipeline.ErrDecoderUnsupported
	ErrSeekFailed         = pipeline.ErrSeekFailed

	ErrDeviceUnavailable = errors.New("audio output device unavailable")
	ErrStreamBuild       = errors.New("failed to build output stream")
	ErrInvalidParameter  = errors.New("invalid parameter")

	// ErrLockPoisoned is returned by every call on a state whose render
	// path panicked. The state has no way back.
	ErrLockPoisoned = errors.New("playback state poisoned")

	ErrNoActiveTrack = errors.New("no active track")
	ErrEngineClosed  = errors.New("engine closed")
)
