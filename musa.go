// SPDX-License-Identifier: EPL-2.0

package musa

import (
	"context"

	"github.com/ik5/musa/waveform"
)

var defaultExtractor = waveform.New(waveform.Options{})

// ExtractWaveform decodes the whole file at path and returns points peak
// values in [0, 1].
func ExtractWaveform(path string, points int) ([]float32, error) {
	return defaultExtractor.Extract(context.Background(), path, points, waveform.Exact)
}

// ExtractWaveformStreaming is ExtractWaveform with the single pass strided
// estimate. It is faster on long files and less exact.
func ExtractWaveformStreaming(path string, points int) ([]float32, error) {
	return defaultExtractor.Extract(context.Background(), path, points, waveform.Streaming)
}
