package bag

import "time"

// Typed views over the recorded message definitions. Field names follow the
// ROS message definitions captured in the bag; go-rosbag matches them
// through the `rosbag` tags.

// Vector3 mirrors geometry_msgs/Vector3.
type Vector3 struct {
	X float64 `rosbag:"x"`
	Y float64 `rosbag:"y"`
	Z float64 `rosbag:"z"`
}

// Quaternion mirrors geometry_msgs/Quaternion.
type Quaternion struct {
	X float64 `rosbag:"x"`
	Y float64 `rosbag:"y"`
	Z float64 `rosbag:"z"`
	W float64 `rosbag:"w"`
}

// Header mirrors std_msgs/Header.
type Header struct {
	Seq     uint32    `rosbag:"seq"`
	Stamp   time.Time `rosbag:"stamp"`
	FrameID string    `rosbag:"frame_id"`
}

// PandarPacket is one captured lidar UDP packet inside a scan message.
type PandarPacket struct {
	Stamp time.Time `rosbag:"stamp"`
	Data  []byte    `rosbag:"data"`
}

// PandarScan bundles all UDP packets received during one mechanical
// rotation. The last packet carries the calibration payload.
type PandarScan struct {
	Packets []PandarPacket `rosbag:"packets"`
}

// CompressedImage mirrors sensor_msgs/CompressedImage. Data holds the
// already-encoded image bytes (jpeg or png per Format).
type CompressedImage struct {
	Header Header `rosbag:"header"`
	Format string `rosbag:"format"`
	Data   []byte `rosbag:"data"`
}

// FluidPressure mirrors sensor_msgs/FluidPressure.
type FluidPressure struct {
	FluidPressure float64 `rosbag:"fluid_pressure"`
	Variance      float64 `rosbag:"variance"`
}

// Illuminance mirrors sensor_msgs/Illuminance.
type Illuminance struct {
	Illuminance float64 `rosbag:"illuminance"`
	Variance    float64 `rosbag:"variance"`
}

// Imu mirrors sensor_msgs/Imu.
type Imu struct {
	Orientation        Quaternion `rosbag:"orientation"`
	AngularVelocity    Vector3    `rosbag:"angular_velocity"`
	LinearAcceleration Vector3    `rosbag:"linear_acceleration"`
}

// MagneticField mirrors sensor_msgs/MagneticField.
type MagneticField struct {
	MagneticField Vector3 `rosbag:"magnetic_field"`
}

// NavSatFix mirrors sensor_msgs/NavSatFix.
type NavSatFix struct {
	Latitude  float64 `rosbag:"latitude"`
	Longitude float64 `rosbag:"longitude"`
	Altitude  float64 `rosbag:"altitude"`
}
