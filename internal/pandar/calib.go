package pandar

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// CALIBRATION_HEADER_SIZE is the binary prefix preceding the UTF-8
// calibration table in the trailing packet of a scan message.
const CALIBRATION_HEADER_SIZE = 8

// CalibrationEntry holds the angular corrections for one laser channel.
// Entries are ordered by channel index and correspond positionally to the
// channels of a firing block.
type CalibrationEntry struct {
	Channel          int     // Laser channel number as reported by the sensor
	ElevationDeg     float64 // Vertical angle in degrees relative to the horizontal plane
	AzimuthOffsetDeg float64 // Horizontal angle correction in degrees
}

// CalibrationTable is the per-scan-message calibration, rebuilt from the
// trailing packet every time. Firmware may update the table between
// captures, so it is never cached across scan messages.
type CalibrationTable []CalibrationEntry

// ParseCalibration extracts the calibration table from the raw payload of a
// scan message's final packet. The payload carries an 8-byte prefix followed
// by a UTF-8 CSV table with one header row. Fails with ErrCalibrationFormat
// when the payload cannot be decoded as text or a row has fewer than three
// fields.
func ParseCalibration(payload []byte) (CalibrationTable, error) {
	if len(payload) <= CALIBRATION_HEADER_SIZE {
		return nil, fmt.Errorf("%w: payload too short (%d bytes)", ErrCalibrationFormat, len(payload))
	}

	text := payload[CALIBRATION_HEADER_SIZE:]
	if !utf8.Valid(text) {
		return nil, fmt.Errorf("%w: payload is not valid UTF-8", ErrCalibrationFormat)
	}

	reader := csv.NewReader(strings.NewReader(string(text)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalibrationFormat, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: need a header row and at least one channel row", ErrCalibrationFormat)
	}

	// Skip the header row; each data row is Channel,Elevation,Azimuth.
	table := make(CalibrationTable, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 3 {
			return nil, fmt.Errorf("%w: row %d has %d fields, need 3", ErrCalibrationFormat, i+2, len(record))
		}

		channel, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid channel at row %d: %v", ErrCalibrationFormat, i+2, err)
		}
		elevation, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid elevation at row %d: %v", ErrCalibrationFormat, i+2, err)
		}
		azimuth, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid azimuth offset at row %d: %v", ErrCalibrationFormat, i+2, err)
		}

		table = append(table, CalibrationEntry{
			Channel:          channel,
			ElevationDeg:     elevation,
			AzimuthOffsetDeg: azimuth,
		})
	}

	return table, nil
}
