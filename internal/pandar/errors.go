package pandar

import "errors"

// Error taxonomy for scan-message processing. Calibration format failures
// abort the whole scan message; malformed packets and calibration mismatches
// are isolated to the one packet and counted.
var (
	ErrCalibrationFormat   = errors.New("pandar: calibration payload format")
	ErrMalformedPacket     = errors.New("pandar: malformed packet")
	ErrCalibrationMismatch = errors.New("pandar: calibration channel count mismatch")
)
