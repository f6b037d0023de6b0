package replay

import (
	"math"
	"testing"
	"time"

	"github.com/AdityaNG/ugv-cam/pkg/schema"
	"github.com/AdityaNG/ugv-cam/pkg/session"
)

// recordSession writes a small session to disk through the real logger and
// returns its directory.
func recordSession(t *testing.T, n int, withImages bool) string {
	t.Helper()
	s, err := session.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	var jpeg []byte
	if withImages {
		jpeg = []byte{0xFF, 0xD8, 0xAA, 0xBB}
	}
	for i := 0; i < n; i++ {
		st := schema.State{
			Index: uint64(i),
			At:    base.Add(time.Duration(i) * 100 * time.Millisecond),
			Feedback: schema.ChassisFeedback{
				LeftSpeed:  0.4,
				RightSpeed: 0.2,
				Voltage:    11.9,
			},
			Sensors: schema.ImuData{Roll: 0.5, Pitch: -0.25},
			Image:   schema.Frame{JPEG: jpeg, Seq: uint64(i + 1)},
		}
		s.Record(st, schema.Stop())
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	return s.Dir()
}

func TestLoadSession(t *testing.T) {
	dir := recordSession(t, 4, true)

	l, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(l.Entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(l.Entries))
	}

	e := l.Entries[2]
	if e.Step != 2 {
		t.Errorf("step = %d, want 2", e.Step)
	}
	if e.LeftSpeed != 0.4 || e.RightSpeed != 0.2 {
		t.Errorf("speeds = %v, %v", e.LeftSpeed, e.RightSpeed)
	}
	if e.Voltage != 11.9 || e.Roll != 0.5 {
		t.Errorf("telemetry = %+v", e)
	}
	if e.ImagePath == "" {
		t.Error("image path missing")
	}
	if e.FrameRepeated {
		t.Error("frame_repeated set, want false")
	}
}

func TestLoadRejectsNonSessionDir(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("Load accepted a directory without logs.csv")
	}
}

func TestDt(t *testing.T) {
	dir := recordSession(t, 5, false)
	l, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got := l.Dt(); math.Abs(got-0.1) > 1e-6 {
		t.Errorf("Dt() = %v, want 0.1", got)
	}

	short := &Log{Entries: l.Entries[:1]}
	if got := short.Dt(); got != defaultDt {
		t.Errorf("single-entry Dt() = %v, want %v", got, defaultDt)
	}
}

func TestFutureSpeeds(t *testing.T) {
	dir := recordSession(t, 10, false)
	l, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	// 0.55s at 0.1s cadence covers five entries.
	speeds := l.FutureSpeeds(0, 0.55)
	if len(speeds) != 5 {
		t.Fatalf("speeds = %d, want 5", len(speeds))
	}
	if speeds[0].Left != 0.4 || speeds[0].Right != 0.2 {
		t.Errorf("speeds[0] = %+v", speeds[0])
	}

	// Near the end the horizon is truncated by the log's length.
	tail := l.FutureSpeeds(8, 0.55)
	if len(tail) != 2 {
		t.Errorf("tail speeds = %d, want 2", len(tail))
	}
}

func TestImage(t *testing.T) {
	dir := recordSession(t, 2, true)
	l, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	data, err := l.Image(0)
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if len(data) != 4 || data[0] != 0xFF {
		t.Errorf("image bytes = %x", data)
	}
}

func TestImageAbsent(t *testing.T) {
	dir := recordSession(t, 2, false)
	l, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	data, err := l.Image(0)
	if err != nil || data != nil {
		t.Errorf("Image() = %v, %v, want nil, nil", data, err)
	}
}
