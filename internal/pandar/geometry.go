package pandar

import (
	"fmt"
	"math"
)

// Point is one reconstructed Cartesian measurement in metres, with the
// sensor-reported reflectance carried alongside for use as an intensity or
// colour channel.
type Point struct {
	X, Y, Z     float64
	Reflectance uint8
}

// ReconstructBlock converts one authoritative firing block into Cartesian
// points using the scan's calibration table.
//
// Elevation angles in the calibration are measured from the horizontal
// plane; the conversion below uses the zenith-referenced angle
// (π/2 − elevation), so:
//
//	x = d·sin(elev)·cos(az)
//	y = d·sin(elev)·sin(az)
//	z = d·cos(elev)
//
// A channel with zero distance is the sensor's "no return" signal and is
// skipped outright, never reconstructed as a point at the origin. Points are
// appended to dst in channel-index order and the extended slice is returned.
func ReconstructBlock(dst []Point, block *FiringBlock, cal CalibrationTable) ([]Point, error) {
	if len(cal) != len(block.Channels) {
		return dst, fmt.Errorf("%w: table has %d entries, block has %d channels",
			ErrCalibrationMismatch, len(cal), len(block.Channels))
	}

	blockAzimuthRad := block.AzimuthDeg * math.Pi / 180.0

	for ch := range block.Channels {
		reading := block.Channels[ch]
		if reading.DistanceMM == 0 {
			continue
		}

		distance := float64(reading.DistanceMM) / 1000.0
		elevationRad := math.Pi/2 - cal[ch].ElevationDeg*math.Pi/180.0
		azimuthRad := cal[ch].AzimuthOffsetDeg*math.Pi/180.0 + blockAzimuthRad

		sinElev := math.Sin(elevationRad)
		dst = append(dst, Point{
			X:           distance * sinElev * math.Cos(azimuthRad),
			Y:           distance * sinElev * math.Sin(azimuthRad),
			Z:           distance * math.Cos(elevationRad),
			Reflectance: reading.Reflectance,
		})
	}

	return dst, nil
}
