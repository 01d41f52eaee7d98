// SPDX-License-Identifier: EPL-2.0

// Command musa plays audio files and prints their waveforms.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
