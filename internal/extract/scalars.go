package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/bag.report/internal/bag"
	"github.com/banshee-data/bag.report/internal/monitoring"
)

// ScalarKind selects the message view and column layout for a single-valued
// sensor stream export.
type ScalarKind int

const (
	KindFluidPressure ScalarKind = iota
	KindIlluminance
	KindImu
	KindMagneticField
	KindNavSatFix
)

// scalarSchema is the single source of truth for each stream's ROS message
// type, default file name and column header.
var scalarSchema = map[ScalarKind]struct {
	msgType     string
	defaultName string
	header      string
}{
	KindFluidPressure: {"sensor_msgs/FluidPressure", "pressure_sensor_0", "timestamp fluid_pressure variance"},
	KindIlluminance:   {"sensor_msgs/Illuminance", "illuminance_sensor_0", "timestamp illuminance variance"},
	KindImu:           {"sensor_msgs/Imu", "inertial_measurement_unit_0", "timestamp or_x or_y or_z or_w li_ac_x li_ac_y li_ac_z an_ve_x an_ve_y an_ve_z"},
	KindMagneticField: {"sensor_msgs/MagneticField", "magnetic_field_sensor_0", "timestamp x y z"},
	KindNavSatFix:     {"sensor_msgs/NavSatFix", "gnss_0", "timestamp lat lon alt"},
}

// MsgType returns the ROS message type recorded for the kind.
func (k ScalarKind) MsgType() string { return scalarSchema[k].msgType }

// ExportScalars writes one space-delimited text file for the topic, one row
// per message with the record timestamp first and every value rendered with
// %.12f. sensorName selects the file name; empty means the kind's default.
// Cancelling ctx stops the export early without failing it; the file holds
// the rows read up to that point.
func (r *Runner) ExportScalars(ctx context.Context, topic string, kind ScalarKind, sensorName string) (int, error) {
	schema, ok := scalarSchema[kind]
	if !ok {
		return 0, fmt.Errorf("extract: unknown scalar kind %d", kind)
	}
	if sensorName == "" {
		sensorName = schema.defaultName
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, schema.header)

	count := 0
	err := bag.ForEachMessage(r.BagPath, topic, func(m *bag.Message) error {
		if ctx.Err() != nil {
			return bag.ErrStop
		}

		ts := float64(m.Time.UnixNano()) / 1e9
		row, err := scalarRow(kind, m)
		if err != nil {
			return fmt.Errorf("extract: decode %s message %d: %w", schema.msgType, count, err)
		}

		fmt.Fprintf(&buf, "%.12f", ts)
		for _, v := range row {
			fmt.Fprintf(&buf, " %.12f", v)
		}
		fmt.Fprintln(&buf)
		count++
		return nil
	})
	if err != nil {
		return count, err
	}

	name := filepath.Join(r.OutDir, sensorName+".csv")
	if err := r.FS.WriteFileAtomic(name, buf.Bytes(), 0o644); err != nil {
		return count, err
	}

	r.recordArtifact(name, schema.msgType, topic)
	monitoring.Logf("scalar export %s: %d rows to %s", topic, count, name)
	return count, nil
}

// scalarRow flattens one message into its column values, matching the
// header order declared in scalarSchema.
func scalarRow(kind ScalarKind, m *bag.Message) ([]float64, error) {
	switch kind {
	case KindFluidPressure:
		var v bag.FluidPressure
		if err := m.View(&v); err != nil {
			return nil, err
		}
		return []float64{v.FluidPressure, v.Variance}, nil

	case KindIlluminance:
		var v bag.Illuminance
		if err := m.View(&v); err != nil {
			return nil, err
		}
		return []float64{v.Illuminance, v.Variance}, nil

	case KindImu:
		var v bag.Imu
		if err := m.View(&v); err != nil {
			return nil, err
		}
		return []float64{
			v.Orientation.X, v.Orientation.Y, v.Orientation.Z, v.Orientation.W,
			v.LinearAcceleration.X, v.LinearAcceleration.Y, v.LinearAcceleration.Z,
			v.AngularVelocity.X, v.AngularVelocity.Y, v.AngularVelocity.Z,
		}, nil

	case KindMagneticField:
		var v bag.MagneticField
		if err := m.View(&v); err != nil {
			return nil, err
		}
		return []float64{v.MagneticField.X, v.MagneticField.Y, v.MagneticField.Z}, nil

	case KindNavSatFix:
		var v bag.NavSatFix
		if err := m.View(&v); err != nil {
			return nil, err
		}
		return []float64{v.Latitude, v.Longitude, v.Altitude}, nil
	}

	return nil, fmt.Errorf("extract: unknown scalar kind %d", kind)
}
