package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/banshee-data/bag.report/internal/bag"
	"github.com/banshee-data/bag.report/internal/cloud"
	"github.com/banshee-data/bag.report/internal/monitoring"
	"github.com/banshee-data/bag.report/internal/pandar"
)

// CloudSummary aggregates the run-end counters for one point-cloud topic.
type CloudSummary struct {
	Scans        int // Scan messages that reached assembly
	SkippedScans int // Scan messages aborted by a calibration failure or carrying no packets

	PacketsDecoded  int
	PacketsDropped  int
	PacketsMismatch int
	UnknownModes    int
	Points          int
}

func (s CloudSummary) String() string {
	return fmt.Sprintf("%d scans (%d skipped), %d packets decoded (%d dropped, %d mismatched), %d unknown return modes, %d points",
		s.Scans, s.SkippedScans, s.PacketsDecoded, s.PacketsDropped, s.PacketsMismatch, s.UnknownModes, s.Points)
}

// scanMessage is one lidar scan message ready for assembly.
type scanMessage struct {
	stamp   pandar.ScanStamp
	packets [][]byte
}

// scanSource streams scan messages in record order through fn. Iteration
// stops on the first error; bag.ErrStop ends a pass cleanly.
type scanSource func(fn func(scanMessage) error) error

type scanResult struct {
	cloud *pandar.ScanCloud
	err   error
}

type scanJob struct {
	index   int
	stamp   pandar.ScanStamp
	packets [][]byte
	done    chan scanResult
}

// ExportPointClouds decodes every lidar scan message on the topic and
// persists one PLY cloud per scan under <out>/<sensorName>.
func (r *Runner) ExportPointClouds(ctx context.Context, topic, sensorName string) (CloudSummary, error) {
	source := func(fn func(scanMessage) error) error {
		index := 0
		return bag.ForEachMessage(r.BagPath, topic, func(m *bag.Message) error {
			var scan bag.PandarScan
			if err := m.View(&scan); err != nil {
				return fmt.Errorf("extract: decode scan message %d: %w", index, err)
			}
			index++

			msg := scanMessage{packets: make([][]byte, len(scan.Packets))}
			for i, p := range scan.Packets {
				msg.packets[i] = p.Data
			}
			if len(scan.Packets) > 0 {
				lead := scan.Packets[0].Stamp
				msg.stamp = pandar.ScanStamp{
					Secs:  uint32(lead.Unix()),
					Nsecs: uint32(lead.Nanosecond()),
				}
			}
			return fn(msg)
		})
	}

	dir := filepath.Join(r.OutDir, sensorName)
	summary, err := r.exportClouds(ctx, source, dir)
	if err != nil {
		return summary, err
	}

	r.recordArtifact(dir, "hesai_msgs/PandarScan", topic)
	monitoring.Logf("point cloud export %s: %s", topic, summary)
	return summary, nil
}

// exportClouds runs the fan-out/collect pipeline over a scan-message source.
//
// Scan messages are independent, so decoding fans out across Workers;
// results are collected back in scan-message order so file naming and the
// overview stay deterministic. Cancelling ctx stops scheduling further scan
// messages without failing the run: clouds already assembled are still
// written atomically, nothing partial ever appears, and the caller still
// gets its summary.
func (r *Runner) exportClouds(ctx context.Context, source scanSource, dir string) (CloudSummary, error) {
	var summary CloudSummary

	writer, err := cloud.NewPLYWriter(r.FS, dir)
	if err != nil {
		return summary, err
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan *scanJob, workers)
	pending := make(chan *scanJob, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				c, err := pandar.AssembleScan(job.stamp, job.packets)
				job.done <- scanResult{cloud: c, err: err}
			}
		}()
	}

	// Collector drains pending in schedule order, which is scan-message
	// order, so parallel decoding cannot reorder output files.
	var collectErr error
	collectDone := make(chan struct{})
	go func() {
		defer close(collectDone)
		for job := range pending {
			res := <-job.done
			if res.err != nil {
				summary.SkippedScans++
				monitoring.Logf("skipping scan message %d: %v", job.index, res.err)
				continue
			}

			stats := res.cloud.Stats
			summary.Scans++
			summary.PacketsDecoded += stats.PacketsDecoded
			summary.PacketsDropped += stats.PacketsDropped
			summary.PacketsMismatch += stats.PacketsMismatch
			summary.UnknownModes += stats.UnknownModes
			summary.Points += len(res.cloud.Points)

			if _, err := writer.WriteCloud(res.cloud); err != nil && collectErr == nil {
				collectErr = err
			}
		}
	}()

	// Producer-side skip count is merged after the collector drains, so the
	// two goroutines never touch the summary at the same time.
	emptyScans := 0
	index := 0
	err = source(func(msg scanMessage) error {
		if ctx.Err() != nil {
			return bag.ErrStop
		}

		if len(msg.packets) == 0 {
			emptyScans++
			monitoring.Logf("skipping scan message %d: no packets", index)
			index++
			return nil
		}

		job := &scanJob{
			index:   index,
			stamp:   msg.stamp,
			packets: msg.packets,
			done:    make(chan scanResult, 1),
		}
		pending <- job
		jobs <- job
		index++
		return nil
	})

	close(jobs)
	wg.Wait()
	close(pending)
	<-collectDone
	summary.SkippedScans += emptyScans

	if err != nil && !errors.Is(err, bag.ErrStop) {
		return summary, err
	}
	return summary, collectErr
}
