// Package session persists one durable record per control step: a CSV row
// of telemetry and control inputs, plus the step's camera frame on disk.
// Persistence runs on its own goroutine behind a bounded queue, so a full
// disk or a slow filesystem can never stall or fail a control step.
package session

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AdityaNG/ugv-cam/internal/log"
	"github.com/AdityaNG/ugv-cam/pkg/schema"
)

// queueDepth bounds the pending record queue. A full queue drops the
// record and counts a warning rather than blocking the control loop.
const queueDepth = 256

// idFormat names the session directory after its start time.
const idFormat = "20060102_150405"

// Header is the column layout of logs.csv, exposed for replay tooling.
var Header = []string{
	"step",
	"timestamp",
	"image_path",
	"action",
	"left_speed",
	"right_speed",
	"roll",
	"pitch",
	"voltage",
	"temperature",
	"accel_x",
	"accel_y",
	"accel_z",
	"gyro_x",
	"gyro_y",
	"gyro_z",
	"frame_repeated",
}

type record struct {
	state  schema.State
	action schema.Action
}

// Session owns one logging lifetime and its on-disk directory:
//
//	<root>/<YYYYmmdd_HHMMSS>/logs.csv
//	<root>/<YYYYmmdd_HHMMSS>/data/<id>_<step>.jpg
//
// No other component writes into a session's directory.
type Session struct {
	id      string
	dir     string
	dataDir string

	file *os.File
	csv  *csv.Writer

	records chan record
	done    chan struct{}
	once    sync.Once

	// mu guards closed so Record can never send on a closed channel.
	mu     sync.RWMutex
	closed bool

	written  atomic.Uint64
	warnings atomic.Uint64
}

// Open creates a new session directory under root and starts the
// persistence goroutine.
func Open(root string) (*Session, error) {
	id := time.Now().Format(idFormat)
	dir := filepath.Join(root, id)
	dataDir := filepath.Join(dir, "data")

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("session: create directory: %w", err)
	}

	file, err := os.Create(filepath.Join(dir, "logs.csv"))
	if err != nil {
		return nil, fmt.Errorf("session: create log file: %w", err)
	}

	w := csv.NewWriter(file)
	if err := w.Write(Header); err != nil {
		file.Close()
		return nil, fmt.Errorf("session: write header: %w", err)
	}
	w.Flush()

	s := &Session{
		id:      id,
		dir:     dir,
		dataDir: dataDir,
		file:    file,
		csv:     w,
		records: make(chan record, queueDepth),
		done:    make(chan struct{}),
	}
	go s.drain()

	log.Info("session opened", "dir", dir)
	return s, nil
}

// ID returns the session identifier (its start timestamp).
func (s *Session) ID() string { return s.id }

// Dir returns the session's directory.
func (s *Session) Dir() string { return s.dir }

// Record submits one step for persistence. It never blocks: when the
// queue is full, or the session is already closed, the record is dropped
// and counted as a warning.
func (s *Session) Record(state schema.State, action schema.Action) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.warnings.Add(1)
		log.Warn("session closed, dropping record", "step", state.Index)
		return
	}

	select {
	case s.records <- record{state: state, action: action}:
	default:
		s.warnings.Add(1)
		log.Warn("session queue full, dropping record", "step", state.Index)
	}
}

// Written returns how many records have been persisted.
func (s *Session) Written() uint64 { return s.written.Load() }

// Warnings returns how many records failed to persist (dropped or
// write errors). Logging problems never surface anywhere else.
func (s *Session) Warnings() uint64 { return s.warnings.Load() }

// Close drains the pending queue, flushes the log, and releases the
// session's files. Idempotent.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.records)
		<-s.done

		s.csv.Flush()
		if ferr := s.csv.Error(); ferr != nil {
			err = fmt.Errorf("session: flush log: %w", ferr)
		}
		if cerr := s.file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("session: close log: %w", cerr)
		}
		log.Info("session closed", "dir", s.dir, "records", s.written.Load(), "warnings", s.warnings.Load())
	})
	return err
}

func (s *Session) drain() {
	defer close(s.done)
	for r := range s.records {
		s.write(r)
	}
}

func (s *Session) write(r record) {
	imagePath := ""
	if !r.state.Image.Empty() {
		name := fmt.Sprintf("%s_%06d.jpg", s.id, r.state.Index)
		if err := os.WriteFile(filepath.Join(s.dataDir, name), r.state.Image.JPEG, 0o644); err != nil {
			s.warnings.Add(1)
			log.Warn("session image write failed", "step", r.state.Index, "error", err)
		} else {
			imagePath = filepath.Join("data", name)
		}
	}

	if err := s.csv.Write(row(r, imagePath)); err != nil {
		s.warnings.Add(1)
		log.Warn("session row write failed", "step", r.state.Index, "error", err)
		return
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		s.warnings.Add(1)
		log.Warn("session log flush failed", "step", r.state.Index, "error", err)
		return
	}

	s.written.Add(1)
}

func row(r record, imagePath string) []string {
	st := r.state
	return []string{
		strconv.FormatUint(st.Index, 10),
		st.At.Format(time.RFC3339Nano),
		imagePath,
		r.action.String(),
		ftoa(st.Feedback.LeftSpeed),
		ftoa(st.Feedback.RightSpeed),
		ftoa(st.Sensors.Roll),
		ftoa(st.Sensors.Pitch),
		ftoa(st.Feedback.Voltage),
		ftoa(st.Sensors.Temp),
		ftoa(st.Sensors.AccelX),
		ftoa(st.Sensors.AccelY),
		ftoa(st.Sensors.AccelZ),
		ftoa(st.Sensors.GyroX),
		ftoa(st.Sensors.GyroY),
		ftoa(st.Sensors.GyroZ),
		strconv.FormatBool(st.FrameRepeated),
	}
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
