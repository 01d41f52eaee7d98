// SPDX-License-Identifier: EPL-2.0

// Package flac decodes FLAC files through the beep flac streamer
// (github.com/gopxl/beep/v2/flac).
package flac
