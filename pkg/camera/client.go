// Package camera maintains a background connection to the vehicle camera's
// MJPEG endpoint and keeps only the most recently decoded frame. Older
// frames are discarded as they arrive: stale imagery is worthless for
// control feedback, so the slot has last-value-wins semantics.
package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AdityaNG/ugv-cam/internal/httpc"
	"github.com/AdityaNG/ugv-cam/internal/log"
	"github.com/AdityaNG/ugv-cam/pkg/schema"
)

// ErrNoFrame is returned by Latest until the stream has produced at least
// one frame.
var ErrNoFrame = errors.New("camera: no frame received yet")

const (
	// reconnectWait is the pause before re-dialing a dropped stream. It
	// doubles as the poll interval when the endpoint serves single JPEG
	// snapshots instead of a multipart stream.
	reconnectWait = 500 * time.Millisecond

	// maxFrameBytes caps one decoded frame.
	maxFrameBytes = 4 << 20

	// jpegHeaderLen is the minimum plausible JPEG size; shorter parts are
	// boundary noise and get dropped.
	jpegHeaderLen = 128
)

// Client reads the camera stream in the background. The "latest frame"
// slot is the only state shared with the control loop and is swapped
// atomically; Latest never touches the network.
type Client struct {
	url  string
	http *http.Client

	latest atomic.Pointer[schema.Frame]
	seq    atomic.Uint64

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewClient creates a camera client for the given stream URL,
// e.g. "http://192.168.4.6".
func NewClient(url string) *Client {
	return &Client{
		url:  strings.TrimRight(url, "/"),
		http: httpc.NewStreamClient(),
	}
}

// Start launches the background stream reader. Reconnection on stream drop
// is automatic; callers only ever observe it as a pause in frame updates.
func (c *Client) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		log.Warn("camera stream already running", "url", c.url)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	go c.run(ctx, c.done)
	log.Info("camera stream started", "url", c.url)
}

// Stop halts the stream reader and waits for it to exit. Safe to call more
// than once.
func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.cancel()
	<-c.done
	c.running = false
	log.Info("camera stream stopped", "url", c.url)
}

// Latest returns a copy of the most recent frame. It fails with ErrNoFrame
// until the stream produces one, and never blocks on the network.
func (c *Client) Latest() (schema.Frame, error) {
	p := c.latest.Load()
	if p == nil {
		return schema.Frame{}, ErrNoFrame
	}
	frame := schema.Frame{
		JPEG: make([]byte, len(p.JPEG)),
		Seq:  p.Seq,
		At:   p.At,
	}
	copy(frame.JPEG, p.JPEG)
	return frame, nil
}

// WaitForFrame polls until a frame is available or the timeout expires.
// Used at connect time to give the stream a chance to come up.
func (c *Client) WaitForFrame(timeout time.Duration) (schema.Frame, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if frame, err := c.Latest(); err == nil {
			return frame, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return schema.Frame{}, fmt.Errorf("camera: timeout waiting for first frame: %w", ErrNoFrame)
}

func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn("camera stream interrupted", "url", c.url, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectWait):
		}
	}
}

// consume reads one stream connection until it drops or ctx is cancelled.
func (c *Client) consume(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return fmt.Errorf("parse content type: %w", err)
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		return c.consumeMultipart(resp.Body, params["boundary"])

	case mediaType == "image/jpeg":
		// Snapshot endpoint: one image per request. The run loop's
		// reconnect pause becomes the poll interval.
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		c.publish(data)
		return nil

	default:
		return fmt.Errorf("unsupported content type %q", mediaType)
	}
}

func (c *Client) consumeMultipart(body io.Reader, boundary string) error {
	if boundary == "" {
		return errors.New("multipart stream without boundary")
	}

	reader := multipart.NewReader(body, boundary)
	for {
		part, err := reader.NextPart()
		if err != nil {
			return fmt.Errorf("next part: %w", err)
		}

		data, err := io.ReadAll(io.LimitReader(part, maxFrameBytes))
		part.Close()
		if err != nil {
			return fmt.Errorf("read part: %w", err)
		}

		c.publish(data)
	}
}

// publish swaps the new frame into the latest slot. The sequence counter
// belongs to the client, not the stream, so it keeps rising across
// reconnects and the slot never moves backwards.
func (c *Client) publish(data []byte) {
	if len(data) < jpegHeaderLen || data[0] != 0xFF || data[1] != 0xD8 {
		return
	}

	frame := &schema.Frame{
		JPEG: data,
		Seq:  c.seq.Add(1),
		At:   time.Now(),
	}
	c.latest.Store(frame)
}
