package cloud

import (
	"strings"
	"testing"

	"github.com/banshee-data/bag.report/internal/fsutil"
	"github.com/banshee-data/bag.report/internal/pandar"
)

func TestMarshalPLY(t *testing.T) {
	points := []pandar.Point{
		{X: 1, Y: 0, Z: 0, Reflectance: 42},
		{X: -2.5, Y: 3.25, Z: 0.125, Reflectance: 255},
	}

	got := string(MarshalPLY(points))
	want := strings.Join([]string{
		"ply",
		"format ascii 1.0",
		"element vertex 2",
		"property double x",
		"property double y",
		"property double z",
		"property uchar red",
		"property uchar green",
		"property uchar blue",
		"end_header",
		"1.000000 0.000000 0.000000 42 42 42",
		"-2.500000 3.250000 0.125000 255 255 255",
		"",
	}, "\n")

	if got != want {
		t.Errorf("PLY output mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestMarshalPLYEmpty(t *testing.T) {
	got := string(MarshalPLY(nil))
	if !strings.Contains(got, "element vertex 0") {
		t.Errorf("empty cloud should still produce a valid zero-vertex file:\n%s", got)
	}
	if !strings.HasSuffix(got, "end_header\n") {
		t.Errorf("zero-vertex file should end at the header:\n%s", got)
	}
}

func TestWriteCloudNamesFileByStamp(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	writer, err := NewPLYWriter(fs, "out/lidar_0")
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}

	c := &pandar.ScanCloud{
		Stamp:  pandar.ScanStamp{Secs: 1648118406, Nsecs: 12345},
		Points: []pandar.Point{{X: 1, Reflectance: 9}},
	}

	name, err := writer.WriteCloud(c)
	if err != nil {
		t.Fatalf("failed to write cloud: %v", err)
	}
	if name != "out/lidar_0/1648118406.12345.ply" {
		t.Errorf("unexpected file name %q", name)
	}
	if !fs.Exists(name) {
		t.Errorf("cloud file %q was not written", name)
	}

	data, err := fs.ReadFile(name)
	if err != nil {
		t.Fatalf("failed to read back cloud: %v", err)
	}
	if !strings.Contains(string(data), "element vertex 1") {
		t.Errorf("written file has wrong vertex count:\n%s", data)
	}
}
