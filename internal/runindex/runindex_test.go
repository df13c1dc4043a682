package runindex

import (
	"path/filepath"
	"testing"

	"github.com/banshee-data/bag.report/internal/extract"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()

	idx, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestRunLifecycle(t *testing.T) {
	idx := openTestIndex(t)

	runID, err := idx.StartRun("/captures/trip.bag")
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}
	if runID == "" {
		t.Fatal("empty run ID")
	}

	summary := extract.CloudSummary{
		Scans: 5, SkippedScans: 1,
		PacketsDecoded: 250, PacketsDropped: 2,
		Points: 9999,
	}
	if err := idx.FinishRun(runID, summary); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	var scans, skipped, points int
	err = idx.QueryRow(`SELECT scans, skipped_scans, points FROM runs WHERE id = ?`, runID).
		Scan(&scans, &skipped, &points)
	if err != nil {
		t.Fatalf("failed to read run row: %v", err)
	}
	if scans != 5 || skipped != 1 || points != 9999 {
		t.Errorf("stored counters (%d, %d, %d) do not match summary", scans, skipped, points)
	}
}

func TestRecordArtifacts(t *testing.T) {
	idx := openTestIndex(t)

	runID, err := idx.StartRun("trip.bag")
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}

	artifacts := []extract.Artifact{
		{Path: "trip/lidar_0", MsgType: "hesai_msgs/PandarScan", Topic: "/hesai/pandar_packets"},
		{Path: "trip/gnss_0.csv", MsgType: "sensor_msgs/NavSatFix", Topic: "/phone1/android/fix"},
	}
	for _, a := range artifacts {
		if err := idx.RecordArtifact(runID, a); err != nil {
			t.Fatalf("failed to record artifact: %v", err)
		}
	}

	got, err := idx.RunArtifacts(runID)
	if err != nil {
		t.Fatalf("failed to list artifacts: %v", err)
	}
	if len(got) != len(artifacts) {
		t.Fatalf("expected %d artifacts, got %d", len(artifacts), len(got))
	}
	for i := range artifacts {
		if got[i] != artifacts[i] {
			t.Errorf("artifact %d: got %+v, want %+v", i, got[i], artifacts[i])
		}
	}
}

// Re-opening the same database must be a no-op for the schema.
func TestOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := Open(path)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	idx.Close()

	idx, err = Open(path)
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	idx.Close()
}
