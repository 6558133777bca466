//go:build !opus

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwsl/paulstretch/audio"
	"github.com/cwsl/paulstretch/wavio"
)

// loadInput reads path as WAV. Without the opus build tag, a .opus input
// fails fast with an actionable message instead of being mis-decoded as raw
// PCM, matching opus_support.go's own "rebuild with -tags opus" guidance.
func loadInput(path string) (*audio.Block, error) {
	if strings.EqualFold(filepath.Ext(path), ".opus") {
		return nil, fmt.Errorf("opus input %q requires rebuilding with -tags opus", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return wavio.Decode(f)
}
