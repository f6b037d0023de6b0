// Package projection maps predicted trajectories into camera pixel space
// and draws them onto JPEG frames. Camera geometry is estimated from the
// mount pose and horizontal field of view rather than calibrated.
package projection

import (
	"image"
	"math"

	"github.com/AdityaNG/ugv-cam/pkg/kinematics"
)

// Default camera geometry for the stock mount: lens 15 cm above the deck
// (y points down), tilted 5 degrees, M5 TimerCam optics at 640x480.
const (
	DefaultFOVX   = 66.5
	DefaultWidth  = 640.0
	DefaultHeight = 480.0

	DefaultMountY    = -0.15
	DefaultMountRoll = 5.0
)

// minDepth discards points at or behind the image plane.
const minDepth = 0.05

// Intrinsics is the pinhole camera model: focal lengths and principal
// point in pixels.
type Intrinsics struct {
	Fx, Fy float64
	Cx, Cy float64
}

// EstimateIntrinsics derives intrinsics from the horizontal field of view
// (degrees) and the image dimensions, assuming square pixels and a
// centered principal point.
func EstimateIntrinsics(fovXDeg, width, height float64) Intrinsics {
	fovX := fovXDeg * math.Pi / 180
	fx := (width / 2) / math.Tan(fovX/2)
	return Intrinsics{
		Fx: fx,
		Fy: fx,
		Cx: width / 2,
		Cy: height / 2,
	}
}

// Extrinsics is the camera pose in the world frame: rotation matrix plus
// translation.
type Extrinsics struct {
	R [3][3]float64
	T [3]float64
}

// EstimateExtrinsics builds a camera pose from a position and Euler angles
// in degrees, composed in Z-Y-X (yaw-pitch-roll) order.
func EstimateExtrinsics(x, y, z, rollDeg, pitchDeg, yawDeg float64) Extrinsics {
	roll := rollDeg * math.Pi / 180
	pitch := pitchDeg * math.Pi / 180
	yaw := yawDeg * math.Pi / 180

	cr, sr := math.Cos(roll), math.Sin(roll)
	cp, sp := math.Cos(pitch), math.Sin(pitch)
	cy, sy := math.Cos(yaw), math.Sin(yaw)

	// Rz(yaw) * Ry(pitch) * Rx(roll)
	return Extrinsics{
		R: [3][3]float64{
			{cy * cp, cy*sp*sr - sy*cr, cy*sp*cr + sy*sr},
			{sy * cp, sy*sp*sr + cy*cr, sy*sp*cr - cy*sr},
			{-sp, cp * sr, cp * cr},
		},
		T: [3]float64{x, y, z},
	}
}

// DefaultExtrinsics is the stock mount pose.
func DefaultExtrinsics() Extrinsics {
	return EstimateExtrinsics(0, DefaultMountY, 0, DefaultMountRoll, 0, 0)
}

// DefaultIntrinsics is the stock camera model.
func DefaultIntrinsics() Intrinsics {
	return EstimateIntrinsics(DefaultFOVX, DefaultWidth, DefaultHeight)
}

// worldToCamera applies the inverse pose: for a rigid transform the
// inverse is R' (p - t) with R' the transpose.
func (e Extrinsics) worldToCamera(p kinematics.Point) (x, y, z float64) {
	dx := p.X - e.T[0]
	dy := p.Y - e.T[1]
	dz := p.Z - e.T[2]

	x = e.R[0][0]*dx + e.R[1][0]*dy + e.R[2][0]*dz
	y = e.R[0][1]*dx + e.R[1][1]*dy + e.R[2][1]*dz
	z = e.R[0][2]*dx + e.R[1][2]*dy + e.R[2][2]*dz
	return x, y, z
}

// Project maps trajectory points into pixel coordinates. Points behind
// the camera are dropped.
func Project(in Intrinsics, ex Extrinsics, trajectory []kinematics.Point) []image.Point {
	pixels := make([]image.Point, 0, len(trajectory))
	for _, p := range trajectory {
		x, y, z := ex.worldToCamera(p)
		if z < minDepth {
			continue
		}

		u := in.Fx*x/z + in.Cx
		v := in.Fy*y/z + in.Cy
		if math.Abs(u) > 1e6 || math.Abs(v) > 1e6 {
			continue
		}
		pixels = append(pixels, image.Pt(int(u), int(v)))
	}
	return pixels
}

// VerticalFOV derives the vertical field of view (degrees) from the
// horizontal one and the aspect ratio.
func VerticalFOV(fovXDeg, width, height float64) float64 {
	fovX := fovXDeg * math.Pi / 180
	aspect := width / height
	fovY := 2 * math.Atan(math.Tan(fovX/2)/aspect)
	return fovY * 180 / math.Pi
}
