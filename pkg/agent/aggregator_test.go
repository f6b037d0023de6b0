package agent

import (
	"errors"
	"testing"
	"time"

	"github.com/AdityaNG/ugv-cam/pkg/schema"
)

func TestCombineFreshFrame(t *testing.T) {
	var g aggregator
	at := time.Now()
	fb := schema.ChassisFeedback{Voltage: 12, At: at}
	frame := schema.Frame{JPEG: []byte{0xFF, 0xD8}, Seq: 1, At: at.Add(-50 * time.Millisecond)}

	st := g.combine(0, schema.ImuData{Roll: 1}, fb, frame, nil)
	if st.FrameRepeated {
		t.Error("fresh frame flagged repeated")
	}
	if !st.At.Equal(at) {
		t.Error("snapshot time is not the chassis receipt time")
	}
	if st.Staleness() != 50*time.Millisecond {
		t.Errorf("Staleness() = %v", st.Staleness())
	}
}

func TestCombineRepeatedSeq(t *testing.T) {
	var g aggregator
	frame := schema.Frame{JPEG: []byte{0xFF, 0xD8}, Seq: 3}

	st := g.combine(0, schema.ImuData{}, schema.ChassisFeedback{}, frame, nil)
	if st.FrameRepeated {
		t.Fatal("first frame flagged repeated")
	}

	// Same sequence again: the camera had nothing newer.
	st = g.combine(1, schema.ImuData{}, schema.ChassisFeedback{}, frame, nil)
	if !st.FrameRepeated {
		t.Error("unchanged sequence not flagged repeated")
	}

	// A lower sequence (stream restart replay) is repeated too.
	st = g.combine(2, schema.ImuData{}, schema.ChassisFeedback{}, schema.Frame{JPEG: []byte{1}, Seq: 2}, nil)
	if !st.FrameRepeated {
		t.Error("regressed sequence not flagged repeated")
	}
}

func TestCombineFetchErrorCarriesPriorFrame(t *testing.T) {
	var g aggregator
	first := schema.Frame{JPEG: []byte{0xFF, 0xD8, 0x01}, Seq: 1}
	g.combine(0, schema.ImuData{}, schema.ChassisFeedback{}, first, nil)

	st := g.combine(1, schema.ImuData{}, schema.ChassisFeedback{}, schema.Frame{}, errors.New("stream down"))
	if !st.FrameRepeated {
		t.Error("fetch failure not flagged repeated")
	}
	if st.Image.Seq != first.Seq || len(st.Image.JPEG) != len(first.JPEG) {
		t.Errorf("prior frame not carried forward: %+v", st.Image)
	}
}

func TestCombineErrorBeforeAnyFrame(t *testing.T) {
	var g aggregator
	st := g.combine(0, schema.ImuData{}, schema.ChassisFeedback{}, schema.Frame{}, errors.New("no frame"))
	if !st.FrameRepeated {
		t.Error("missing frame not flagged repeated")
	}
	if !st.Image.Empty() {
		t.Error("image should be empty before any frame arrives")
	}
	if st.Staleness() != 0 {
		t.Errorf("Staleness() = %v, want 0 for empty image", st.Staleness())
	}
}
