package agent

import "github.com/AdityaNG/ugv-cam/pkg/schema"

// aggregator merges chassis telemetry and the camera's latest frame into
// one snapshot per step. It tracks frame sequence numbers so a repeated
// frame (camera stalled, stream reconnecting, or outright fetch failure)
// is flagged rather than treated as fresh imagery.
type aggregator struct {
	lastSeq   uint64
	lastFrame schema.Frame
}

// combine stamps the snapshot with the chassis receipt time and attaches
// whatever frame the camera currently holds. It never waits for a fresher
// frame: image and telemetry timestamps may diverge by up to the camera's
// refresh interval, and the control loop's responsiveness wins over strict
// synchronization.
func (g *aggregator) combine(index uint64, imu schema.ImuData, fb schema.ChassisFeedback, frame schema.Frame, frameErr error) schema.State {
	repeated := false
	switch {
	case frameErr != nil:
		// Camera outage is never fatal; carry the prior frame forward.
		frame = g.lastFrame
		repeated = true
	case frame.Seq <= g.lastSeq:
		// Nothing newer since the last step. A sequence number that
		// repeats after a stream reconnect lands here too.
		repeated = true
	default:
		g.lastSeq = frame.Seq
		g.lastFrame = frame
	}

	return schema.State{
		Index:         index,
		At:            fb.At,
		Sensors:       imu,
		Feedback:      fb,
		Image:         frame,
		FrameRepeated: repeated,
	}
}
