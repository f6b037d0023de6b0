package projection

import (
	"fmt"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/AdityaNG/ugv-cam/pkg/kinematics"
)

// trajectory overlay style
var (
	overlayColor  = color.RGBA{G: 255}
	overlayRadius = 3
)

// DrawTrajectory decodes a JPEG frame, draws the projected trajectory
// onto it, and re-encodes it. The input bytes are not modified.
func DrawTrajectory(jpeg []byte, trajectory []kinematics.Point, in Intrinsics, ex Extrinsics) ([]byte, error) {
	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("projection: decode frame: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("projection: decode frame: empty image")
	}

	for _, pt := range Project(in, ex, trajectory) {
		gocv.Circle(&img, pt, overlayRadius, overlayColor, -1)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("projection: encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
