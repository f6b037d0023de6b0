package schema

import "time"

// ImuData is one inertial reading from the chassis. The chassis carries no
// clock of its own, so At is the local receipt time.
type ImuData struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`

	AccelX float64 `json:"accel_x"`
	AccelY float64 `json:"accel_y"`
	AccelZ float64 `json:"accel_z"`

	GyroX float64 `json:"gyro_x"`
	GyroY float64 `json:"gyro_y"`
	GyroZ float64 `json:"gyro_z"`

	MagX float64 `json:"mag_x"`
	MagY float64 `json:"mag_y"`
	MagZ float64 `json:"mag_z"`

	Temp float64 `json:"temp"`

	At time.Time `json:"at"`
}

// ChassisFeedback is the drive-level feedback returned with each command.
type ChassisFeedback struct {
	LeftSpeed  float64 `json:"left_speed"`
	RightSpeed float64 `json:"right_speed"`
	Voltage    float64 `json:"voltage"`
	Temp       float64 `json:"temp"`

	At time.Time `json:"at"`
}

// Frame is one decoded camera image. Seq is assigned by the camera client
// and is monotonically non-decreasing across reconnects; downstream code
// detects a repeated frame by comparing sequence numbers, never by bytes.
type Frame struct {
	JPEG []byte    `json:"-"`
	Seq  uint64    `json:"seq"`
	At   time.Time `json:"at"`
}

// Empty reports whether the frame carries no image data.
func (f Frame) Empty() bool { return len(f.JPEG) == 0 }

// State is the immutable snapshot returned from one Agent step. All three
// sources share the step index even though their acquisition times differ.
type State struct {
	Index     uint64    `json:"index"`
	At        time.Time `json:"at"` // chassis receipt time, control-authoritative

	Sensors  ImuData         `json:"sensors"`
	Feedback ChassisFeedback `json:"feedback"`
	Image    Frame           `json:"image"`

	// FrameRepeated is set when the image is carried over from an earlier
	// step because the camera had nothing newer.
	FrameRepeated bool `json:"frame_repeated"`
}

// Staleness is how far the image lags the telemetry within this snapshot.
func (s State) Staleness() time.Duration {
	if s.Image.Empty() || s.Image.At.IsZero() {
		return 0
	}
	if d := s.At.Sub(s.Image.At); d > 0 {
		return d
	}
	return 0
}
