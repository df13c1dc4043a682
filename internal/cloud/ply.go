// Package cloud persists assembled scan point clouds as PLY files.
package cloud

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/bag.report/internal/fsutil"
	"github.com/banshee-data/bag.report/internal/monitoring"
	"github.com/banshee-data/bag.report/internal/pandar"
)

// PLYWriter writes ASCII PLY point clouds into a fixed output directory,
// one file per scan message, named by the scan's timestamp identity.
type PLYWriter struct {
	fs  fsutil.FileSystem
	dir string
}

// NewPLYWriter creates the output directory and returns a writer bound to
// it. The directory is typically <bag-name>/<sensor-name>.
func NewPLYWriter(fs fsutil.FileSystem, dir string) (*PLYWriter, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ply writer: %w", err)
	}
	return &PLYWriter{fs: fs, dir: dir}, nil
}

// WriteCloud persists one assembled cloud as <secs>.<nsecs>.ply. The file is
// written atomically: an interrupted run leaves no partial cloud behind.
// Reflectance is stored as a grey colour channel (r = g = b = reflectance),
// matching the capture tooling's convention.
func (w *PLYWriter) WriteCloud(c *pandar.ScanCloud) (string, error) {
	name := filepath.Join(w.dir, c.Stamp.Identity()+".ply")

	data := MarshalPLY(c.Points)
	if err := w.fs.WriteFileAtomic(name, data, 0o644); err != nil {
		return "", fmt.Errorf("ply writer: %w", err)
	}

	monitoring.Logf("exported %d points to %s", len(c.Points), name)
	return name, nil
}

// MarshalPLY renders points as an ASCII PLY document. An empty slice still
// produces a valid zero-vertex file so degraded scans are never silently
// absent from the output tree.
func MarshalPLY(points []pandar.Point) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "ply\n")
	fmt.Fprintf(&buf, "format ascii 1.0\n")
	fmt.Fprintf(&buf, "element vertex %d\n", len(points))
	fmt.Fprintf(&buf, "property double x\n")
	fmt.Fprintf(&buf, "property double y\n")
	fmt.Fprintf(&buf, "property double z\n")
	fmt.Fprintf(&buf, "property uchar red\n")
	fmt.Fprintf(&buf, "property uchar green\n")
	fmt.Fprintf(&buf, "property uchar blue\n")
	fmt.Fprintf(&buf, "end_header\n")

	for _, p := range points {
		fmt.Fprintf(&buf, "%.6f %.6f %.6f %d %d %d\n",
			p.X, p.Y, p.Z, p.Reflectance, p.Reflectance, p.Reflectance)
	}

	return buf.Bytes()
}
