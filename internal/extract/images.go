package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/bag.report/internal/bag"
	"github.com/banshee-data/bag.report/internal/monitoring"
)

// ExportImages writes every compressed image on the topic to
// <out>/<sensorName>/<secs>.<nsecs>.<ext>. The payload is already encoded
// (jpeg or png per the message's format field), so this is a straight copy.
// Cancelling ctx stops the export early without failing it; every frame
// written so far is a complete file.
func (r *Runner) ExportImages(ctx context.Context, topic, sensorName string) (int, error) {
	dir := filepath.Join(r.OutDir, sensorName)
	if err := r.FS.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("extract: prepare %s: %w", dir, err)
	}

	count := 0
	err := bag.ForEachMessage(r.BagPath, topic, func(m *bag.Message) error {
		if ctx.Err() != nil {
			return bag.ErrStop
		}

		var img bag.CompressedImage
		if err := m.View(&img); err != nil {
			return fmt.Errorf("extract: decode image message %d: %w", count, err)
		}

		stamp := img.Header.Stamp
		if stamp.IsZero() {
			stamp = m.Time
		}

		name := filepath.Join(dir, fmt.Sprintf("%d.%d.%s",
			stamp.Unix(), stamp.Nanosecond(), imageExtension(img.Format)))
		if err := r.FS.WriteFileAtomic(name, img.Data, 0o644); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}

	r.recordArtifact(dir, "sensor_msgs/CompressedImage", topic)
	monitoring.Logf("image export %s: %d frames", topic, count)
	return count, nil
}

// imageExtension maps a CompressedImage format string to a file extension.
// Formats look like "jpeg", "png" or "bgr8; jpeg compressed bgr8".
func imageExtension(format string) string {
	if strings.Contains(strings.ToLower(format), "png") {
		return "png"
	}
	return "jpg"
}
