// Package extract drives per-topic extraction of a recorded bag capture:
// lidar scan messages into PLY point clouds, compressed images into files,
// and single-valued sensor streams into delimited text.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/bag.report/internal/fsutil"
)

// Artifact is one exported file, recorded into overview.csv and the run
// index so a run never ends with silent partial output.
type Artifact struct {
	Path    string
	MsgType string
	Topic   string
}

// Runner holds the shared state of one extraction run over one bag file.
type Runner struct {
	BagPath string
	OutDir  string // Unpack directory; defaults to the bag name without extension
	FS      fsutil.FileSystem
	Workers int // Parallel scan-message decoders; <=1 means sequential

	artifacts []Artifact
}

// NewRunner prepares the unpack directory for a bag file.
func NewRunner(fs fsutil.FileSystem, bagPath, outDir string) (*Runner, error) {
	if outDir == "" {
		base := filepath.Base(bagPath)
		outDir = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := fs.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("extract: prepare %s: %w", outDir, err)
	}
	return &Runner{BagPath: bagPath, OutDir: outDir, FS: fs, Workers: 1}, nil
}

func (r *Runner) recordArtifact(path, msgType, topic string) {
	r.artifacts = append(r.artifacts, Artifact{Path: path, MsgType: msgType, Topic: topic})
}

// Artifacts returns everything exported so far, in export order.
func (r *Runner) Artifacts() []Artifact {
	return r.artifacts
}
