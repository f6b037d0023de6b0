// Package kinematics models the vehicle's tank-drive motion. The frame is
// right-handed with x right, y down, and z forward (direction of travel).
package kinematics

import "math"

// WheelBase is the distance between the left and right wheels in meters.
const WheelBase = 0.22

// Pose is a position and heading in the world frame. Yaw is in radians.
type Pose struct {
	X, Y, Z float64
	Yaw     float64
}

// Point is one position along a trajectory.
type Point struct {
	X, Y, Z float64
}

// Speeds is one pair of wheel velocities in m/s.
type Speeds struct {
	Left, Right float64
}

// Step advances the pose by dt seconds of tank-drive motion at the given
// wheel speeds.
func Step(pose Pose, s Speeds, dt float64) Pose {
	vCenter := (s.Right + s.Left) / 2.0
	omega := (s.Right - s.Left) / WheelBase

	yaw := pose.Yaw + omega*dt

	// Local-frame displacement: straight segments and arcs separately,
	// since the arc formula divides by omega.
	var dx, dz float64
	if math.Abs(omega) < 1e-6 {
		dz = vCenter * dt
	} else {
		r := vCenter / omega
		dx = r * (1 - math.Cos(omega*dt))
		dz = r * math.Sin(omega*dt)
	}

	return Pose{
		X:   pose.X + dx*math.Cos(pose.Yaw) - dz*math.Sin(pose.Yaw),
		Y:   pose.Y,
		Z:   pose.Z + dx*math.Sin(pose.Yaw) + dz*math.Cos(pose.Yaw),
		Yaw: yaw,
	}
}

// PredictTrajectory integrates a sequence of wheel speeds from the origin
// and returns the positions visited, starting with the origin itself. At
// most steps entries of speeds are consumed.
func PredictTrajectory(speeds []Speeds, dt float64, steps int) []Point {
	if steps > len(speeds) {
		steps = len(speeds)
	}

	pose := Pose{}
	trajectory := make([]Point, 0, steps+1)
	trajectory = append(trajectory, Point{})

	for i := 0; i < steps; i++ {
		pose = Step(pose, speeds[i], dt)
		trajectory = append(trajectory, Point{X: pose.X, Y: pose.Y, Z: pose.Z})
	}
	return trajectory
}
