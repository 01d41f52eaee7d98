// SPDX-License-Identifier: EPL-2.0

package config

import "time"

const (
	KeyOutputSampleRate        = "output.sample_rate"
	KeyOutputChannels          = "output.channels"
	KeyOutputBuffer            = "output.buffer"
	KeyPlaybackRefillThreshold = "playback.refill_threshold"
	KeyPlaybackPacketFrames    = "playback.packet_frames"
	KeyPlaybackVolume          = "playback.volume"
	KeyWaveformPoints          = "waveform.points"
	KeyWaveformMode            = "waveform.mode"
	KeyLoggingLevel            = "logging.level"
	KeyLoggingFormat           = "logging.format"
)

// Field is one configuration key with its default value.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Default lists every key musa reads, by key.
var Default = map[string]Field{}

func init() {
	for _, f := range []Field{
		{KeyOutputSampleRate, 44100, "Sample rate the output device is opened at"},
		{KeyOutputChannels, 2, "Channel count of the output device"},
		{KeyOutputBuffer, 100 * time.Millisecond, "Device buffer length"},
		{KeyPlaybackRefillThreshold, 1024, "Decode another packet when fewer samples than this remain buffered"},
		{KeyPlaybackPacketFrames, 1024, "Frames decoded per packet"},
		{KeyPlaybackVolume, 1.0, "Initial volume, 0 to 1"},
		{KeyWaveformPoints, 100, "Number of waveform points"},
		{KeyWaveformMode, "exact", "Waveform algorithm: exact or streaming"},
		{KeyLoggingLevel, "info", "Log level"},
		{KeyLoggingFormat, "text", "Log format: text or json"},
	} {
		Default[f.Key] = f
	}
}
