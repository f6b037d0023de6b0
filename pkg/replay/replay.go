// Package replay loads a recorded session and renders the driven
// trajectory back onto its frames: for each step the wheel speeds of the
// following seconds are integrated through the tank model and projected
// into the frame. The headless counterpart of watching a drive back.
package replay

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/AdityaNG/ugv-cam/internal/log"
	"github.com/AdityaNG/ugv-cam/pkg/kinematics"
	"github.com/AdityaNG/ugv-cam/pkg/projection"
	"github.com/AdityaNG/ugv-cam/pkg/session"
)

// defaultDt is assumed between steps when a log is too short to measure
// its own cadence.
const defaultDt = 0.1

// Entry is one parsed log row.
type Entry struct {
	Step      uint64
	At        time.Time
	ImagePath string
	Action    string

	LeftSpeed  float64
	RightSpeed float64
	Roll       float64
	Pitch      float64
	Voltage    float64
	Temp       float64

	FrameRepeated bool
}

// Log is one loaded session.
type Log struct {
	Dir     string
	Entries []Entry
}

// Load parses <dir>/logs.csv into memory.
func Load(dir string) (*Log, error) {
	f, err := os.Open(filepath.Join(dir, "logs.csv"))
	if err != nil {
		return nil, fmt.Errorf("replay: open log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("replay: parse log: %w", err)
	}
	if len(rows) == 0 || len(rows[0]) != len(session.Header) || rows[0][0] != session.Header[0] {
		return nil, fmt.Errorf("replay: %s/logs.csv is not a session log", dir)
	}

	entries := make([]Entry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		e, err := parseRow(row)
		if err != nil {
			log.Warn("skipping malformed log row", "error", err)
			continue
		}
		entries = append(entries, e)
	}

	return &Log{Dir: dir, Entries: entries}, nil
}

func parseRow(row []string) (Entry, error) {
	if len(row) != len(session.Header) {
		return Entry{}, fmt.Errorf("row has %d columns, want %d", len(row), len(session.Header))
	}

	step, err := strconv.ParseUint(row[0], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("step %q: %w", row[0], err)
	}
	at, err := time.Parse(time.RFC3339Nano, row[1])
	if err != nil {
		return Entry{}, fmt.Errorf("timestamp %q: %w", row[1], err)
	}

	num := func(s string) float64 {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}

	return Entry{
		Step:          step,
		At:            at,
		ImagePath:     row[2],
		Action:        row[3],
		LeftSpeed:     num(row[4]),
		RightSpeed:    num(row[5]),
		Roll:          num(row[6]),
		Pitch:         num(row[7]),
		Voltage:       num(row[8]),
		Temp:          num(row[9]),
		FrameRepeated: row[16] == "true",
	}, nil
}

// Dt estimates the session's step interval from its timestamps.
func (l *Log) Dt() float64 {
	if len(l.Entries) < 2 {
		return defaultDt
	}
	span := l.Entries[len(l.Entries)-1].At.Sub(l.Entries[0].At).Seconds()
	if span <= 0 {
		return defaultDt
	}
	return span / float64(len(l.Entries)-1)
}

// FutureSpeeds collects the wheel speeds of the entries covering the next
// horizon seconds after index i.
func (l *Log) FutureSpeeds(i int, horizon float64) []kinematics.Speeds {
	dt := l.Dt()
	n := int(horizon / dt)
	speeds := make([]kinematics.Speeds, 0, n)
	for j := i; j < len(l.Entries) && len(speeds) < n; j++ {
		speeds = append(speeds, kinematics.Speeds{
			Left:  l.Entries[j].LeftSpeed,
			Right: l.Entries[j].RightSpeed,
		})
	}
	return speeds
}

// Image reads the frame recorded for entry i. Entries without an image
// (camera outage at step 0) return nil, nil.
func (l *Log) Image(i int) ([]byte, error) {
	path := l.Entries[i].ImagePath
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(l.Dir, path))
	if err != nil {
		return nil, fmt.Errorf("replay: read frame: %w", err)
	}
	return data, nil
}

// Annotate renders entry i's frame with the trajectory the vehicle
// actually drove over the next horizon seconds.
func (l *Log) Annotate(i int, horizon float64) ([]byte, error) {
	frame, err := l.Image(i)
	if err != nil || frame == nil {
		return nil, err
	}

	speeds := l.FutureSpeeds(i, horizon)
	trajectory := kinematics.PredictTrajectory(speeds, l.Dt(), len(speeds))

	return projection.DrawTrajectory(frame, trajectory,
		projection.DefaultIntrinsics(), projection.DefaultExtrinsics())
}

// Render writes annotated frames for the whole session into outDir and
// returns how many were produced.
func (l *Log) Render(outDir string, horizon float64) (int, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("replay: create output dir: %w", err)
	}

	rendered := 0
	for i := range l.Entries {
		annotated, err := l.Annotate(i, horizon)
		if err != nil {
			log.Warn("could not annotate frame", "step", l.Entries[i].Step, "error", err)
			continue
		}
		if annotated == nil {
			continue
		}

		name := fmt.Sprintf("%06d.jpg", l.Entries[i].Step)
		if err := os.WriteFile(filepath.Join(outDir, name), annotated, 0o644); err != nil {
			return rendered, fmt.Errorf("replay: write frame: %w", err)
		}
		rendered++
	}
	return rendered, nil
}
