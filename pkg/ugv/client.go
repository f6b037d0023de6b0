// Package ugv talks to the chassis REST API. One Send is one synchronous
// command round trip: the validated action goes out as flattened JSON and
// the firmware's reply comes back as typed telemetry.
package ugv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AdityaNG/ugv-cam/internal/httpc"
	"github.com/AdityaNG/ugv-cam/pkg/schema"
)

// RequestTimeout bounds one chassis round trip. The firmware answers in
// tens of milliseconds on a healthy link; anything slower is a transport
// problem, not a slow command.
const RequestTimeout = 2 * time.Second

// Response type codes the firmware uses.
const (
	feedbackType = 1001
	imuType      = 1002
)

// maxResponseBytes caps how much of a chassis reply is read.
const maxResponseBytes = 64 * 1024

// Client sends validated commands to one chassis endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a chassis client for the given base URL,
// e.g. "http://192.168.4.1".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpc.NewClient(RequestTimeout),
	}
}

// BaseURL returns the configured chassis endpoint.
func (c *Client) BaseURL() string { return c.baseURL }

// wireResponse mirrors the firmware's reply. Pointer fields let the parser
// distinguish an absent field from a zero one.
type wireResponse struct {
	T *int `json:"T"`

	L *float64 `json:"L"`
	R *float64 `json:"R"`

	Roll  *float64 `json:"r"`
	Pitch *float64 `json:"p"`

	Voltage *float64 `json:"v"`
	Temp    *float64 `json:"temp"`

	Ax *float64 `json:"ax"`
	Ay *float64 `json:"ay"`
	Az *float64 `json:"az"`
	Gx *float64 `json:"gx"`
	Gy *float64 `json:"gy"`
	Gz *float64 `json:"gz"`
	Mx *float64 `json:"mx"`
	My *float64 `json:"my"`
	Mz *float64 `json:"mz"`
}

// Send dispatches one action and parses the synchronous reply into typed
// telemetry, both stamped with the local receipt time. Network failures
// surface as *TransportError, malformed replies as *ProtocolError; the
// client itself never retries.
//
// A feedback reply (T=1001) fills both records; an IMU reply (T=1002)
// fills the sensor record and leaves the feedback scalars zero.
func (c *Client) Send(ctx context.Context, action schema.Action) (schema.ImuData, schema.ChassisFeedback, error) {
	body, err := json.Marshal(action)
	if err != nil {
		return schema.ImuData{}, schema.ChassisFeedback{}, fmt.Errorf("ugv: encode action: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/js", bytes.NewReader(body))
	if err != nil {
		return schema.ImuData{}, schema.ChassisFeedback{}, fmt.Errorf("ugv: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return schema.ImuData{}, schema.ChassisFeedback{}, &TransportError{Op: "send " + action.Kind().String(), Err: err}
	}
	defer resp.Body.Close()

	receipt := time.Now()

	if resp.StatusCode != http.StatusOK {
		return schema.ImuData{}, schema.ChassisFeedback{}, &ProtocolError{
			Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return schema.ImuData{}, schema.ChassisFeedback{}, &TransportError{Op: "read response", Err: err}
	}

	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return schema.ImuData{}, schema.ChassisFeedback{}, &ProtocolError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if wire.T == nil {
		return schema.ImuData{}, schema.ChassisFeedback{}, &ProtocolError{Reason: "missing type code"}
	}

	switch *wire.T {
	case feedbackType:
		return parseFeedback(wire, receipt)
	case imuType:
		return parseIMU(wire, receipt)
	default:
		return schema.ImuData{}, schema.ChassisFeedback{}, &ProtocolError{
			Code:   *wire.T,
			Reason: "unknown response type",
		}
	}
}

func parseFeedback(wire wireResponse, receipt time.Time) (schema.ImuData, schema.ChassisFeedback, error) {
	if wire.L == nil || wire.R == nil || wire.Roll == nil || wire.Pitch == nil || wire.Voltage == nil {
		return schema.ImuData{}, schema.ChassisFeedback{}, &ProtocolError{
			Code:   feedbackType,
			Reason: "missing required feedback fields",
		}
	}

	fb := schema.ChassisFeedback{
		LeftSpeed:  *wire.L,
		RightSpeed: *wire.R,
		Voltage:    *wire.Voltage,
		At:         receipt,
	}
	imu := schema.ImuData{
		Roll:  *wire.Roll,
		Pitch: *wire.Pitch,
		At:    receipt,
	}
	if wire.Temp != nil {
		fb.Temp = *wire.Temp
		imu.Temp = *wire.Temp
	}
	return imu, fb, nil
}

func parseIMU(wire wireResponse, receipt time.Time) (schema.ImuData, schema.ChassisFeedback, error) {
	if wire.Roll == nil || wire.Pitch == nil {
		return schema.ImuData{}, schema.ChassisFeedback{}, &ProtocolError{
			Code:   imuType,
			Reason: "missing required IMU fields",
		}
	}

	imu := schema.ImuData{
		Roll:  *wire.Roll,
		Pitch: *wire.Pitch,
		At:    receipt,
	}
	assign := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&imu.AccelX, wire.Ax)
	assign(&imu.AccelY, wire.Ay)
	assign(&imu.AccelZ, wire.Az)
	assign(&imu.GyroX, wire.Gx)
	assign(&imu.GyroY, wire.Gy)
	assign(&imu.GyroZ, wire.Gz)
	assign(&imu.MagX, wire.Mx)
	assign(&imu.MagY, wire.My)
	assign(&imu.MagZ, wire.Mz)
	assign(&imu.Temp, wire.Temp)

	return imu, schema.ChassisFeedback{At: receipt}, nil
}
