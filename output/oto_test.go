// SPDX-License-Identifier: EPL-2.0

package output

import (
	"bytes"
	"os"
	"testing"
	"time"
)

// Opening a real device needs sound hardware; set MUSA_DEVICE_TEST=1 to run.
func TestDevice(t *testing.T) {
	if os.Getenv("MUSA_DEVICE_TEST") == "" {
		t.Skip("MUSA_DEVICE_TEST not set")
	}

	d, err := Open(Config{SampleRate: 48000, Channels: 2, Buffer: 50 * time.Millisecond})
	if err != nil {
		t.Skipf("no audio device: %v", err)
	}
	if rate, ch := d.Format(); rate != 48000 || ch != 2 {
		t.Errorf("Format() = %d, %d; want 48000, 2", rate, ch)
	}

	again, err := Open(Config{SampleRate: 22050, Channels: 1})
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	if rate, _ := again.Format(); rate != 48000 {
		t.Errorf("second Open() format rate = %d, want the first context's 48000", rate)
	}

	s, err := d.Open(bytes.NewReader(make([]byte, 48000*2*4/10)))
	if err != nil {
		t.Fatalf("Open(stream) error = %v", err)
	}
	if err := s.Play(); err != nil {
		t.Errorf("Play() error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := s.Pause(); err != nil {
		t.Errorf("Pause() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
