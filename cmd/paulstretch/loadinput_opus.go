//go:build opus

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cwsl/paulstretch/audio"
	"github.com/cwsl/paulstretch/internal/opusload"
	"github.com/cwsl/paulstretch/wavio"
)

// loadInput reads path as WAV, or as a length-prefixed raw Opus packet
// stream (see opusload.Load) when it has a .opus extension, the same build-tag gate ka9q_ubersdr's opus_support.go uses
// around real libopus support.
func loadInput(path string) (*audio.Block, error) {
	if strings.EqualFold(filepath.Ext(path), ".opus") {
		return opusload.Load(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return wavio.Decode(f)
}
