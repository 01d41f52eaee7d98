// SPDX-License-Identifier: EPL-2.0

// Package player renders a decoded track to an audio output.
//
// State holds the sample queue and the transport parameters. The output
// device pulls from it through State.Read; when fewer than the refill
// threshold samples are queued the callback decodes the next packet itself,
// so a slow decode stalls the device. Output samples are a linear blend of
// the two queued samples around the cursor, scaled by the volume. The
// cursor moves one sample per output sample whatever the stored speed.
//
// Engine owns one State, the pipeline feeding it and the output stream.
// Every path that drops a track pauses and closes its stream first.
package player
