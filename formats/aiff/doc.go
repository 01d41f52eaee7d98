// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF and AIFF-C (uncompressed) files with
// github.com/go-audio/aiff.
//
// The COMM chunk supplies sample rate, channel count, bit depth and the
// total frame count used for duration estimates. Seeking re-parses the
// header and discards frames, so it is exact but linear in the target
// position.
package aiff
