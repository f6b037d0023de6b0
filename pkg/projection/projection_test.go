package projection

import (
	"math"
	"testing"

	"github.com/AdityaNG/ugv-cam/pkg/kinematics"
)

func TestEstimateIntrinsics(t *testing.T) {
	in := EstimateIntrinsics(90, 640, 480)
	if math.Abs(in.Fx-320) > 1e-9 {
		t.Errorf("Fx = %v, want 320 for 90 degree FOV", in.Fx)
	}
	if in.Fx != in.Fy {
		t.Error("square pixels expected")
	}
	if in.Cx != 320 || in.Cy != 240 {
		t.Errorf("principal point = (%v, %v)", in.Cx, in.Cy)
	}
}

func TestIdentityExtrinsics(t *testing.T) {
	ex := EstimateExtrinsics(0, 0, 0, 0, 0, 0)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(ex.R[i][j]-want) > 1e-12 {
				t.Fatalf("R[%d][%d] = %v, want %v", i, j, ex.R[i][j], want)
			}
		}
	}
}

func TestProjectPointOnAxis(t *testing.T) {
	in := DefaultIntrinsics()
	ex := EstimateExtrinsics(0, 0, 0, 0, 0, 0)

	// A point straight ahead lands on the principal point.
	px := Project(in, ex, []kinematics.Point{{Z: 2.0}})
	if len(px) != 1 {
		t.Fatalf("projected %d points, want 1", len(px))
	}
	if px[0].X != int(in.Cx) || px[0].Y != int(in.Cy) {
		t.Errorf("on-axis point = %v, want (%v, %v)", px[0], in.Cx, in.Cy)
	}
}

func TestProjectDropsPointsBehindCamera(t *testing.T) {
	in := DefaultIntrinsics()
	ex := EstimateExtrinsics(0, 0, 0, 0, 0, 0)

	px := Project(in, ex, []kinematics.Point{
		{Z: -1.0},
		{Z: 0.0}, // at the image plane, below minimum depth
		{Z: 1.0},
	})
	if len(px) != 1 {
		t.Fatalf("projected %d points, want 1", len(px))
	}
}

func TestProjectOffsetScalesWithDepth(t *testing.T) {
	in := DefaultIntrinsics()
	ex := EstimateExtrinsics(0, 0, 0, 0, 0, 0)

	near := Project(in, ex, []kinematics.Point{{X: 0.5, Z: 1.0}})
	far := Project(in, ex, []kinematics.Point{{X: 0.5, Z: 2.0}})
	if len(near) != 1 || len(far) != 1 {
		t.Fatal("projection dropped visible points")
	}

	nearOff := near[0].X - int(in.Cx)
	farOff := far[0].X - int(in.Cx)
	if nearOff <= 0 || farOff <= 0 {
		t.Fatalf("offsets = %d, %d, want positive", nearOff, farOff)
	}
	if nearOff <= farOff {
		t.Errorf("closer point should project farther from center: near %d, far %d", nearOff, farOff)
	}
}

func TestDefaultExtrinsicsMount(t *testing.T) {
	ex := DefaultExtrinsics()
	if ex.T != [3]float64{0, DefaultMountY, 0} {
		t.Errorf("mount translation = %v", ex.T)
	}

	// A ground point far ahead must land inside the frame.
	px := Project(DefaultIntrinsics(), ex, []kinematics.Point{{Y: 0, Z: 3.0}})
	if len(px) != 1 {
		t.Fatal("ground point not visible")
	}
	if px[0].X < 0 || px[0].X >= int(DefaultWidth) || px[0].Y < 0 || px[0].Y >= int(DefaultHeight) {
		t.Errorf("ground point projected off-frame: %v", px[0])
	}
}

func TestVerticalFOV(t *testing.T) {
	got := VerticalFOV(DefaultFOVX, DefaultWidth, DefaultHeight)
	if got <= 0 || got >= DefaultFOVX {
		t.Errorf("VerticalFOV = %v, want between 0 and %v", got, DefaultFOVX)
	}

	// Square image: vertical equals horizontal.
	if got := VerticalFOV(60, 512, 512); math.Abs(got-60) > 1e-9 {
		t.Errorf("square VerticalFOV = %v, want 60", got)
	}
}
