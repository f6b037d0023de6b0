package ugv

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/AdityaNG/ugv-cam/pkg/schema"
)

// chassisStub records received commands and serves canned replies.
type chassisStub struct {
	mu       sync.Mutex
	received []map[string]any
	reply    string
	status   int
}

func (s *chassisStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd map[string]any
		if err := json.NewDecoder(r.Body).Decode(&cmd); err == nil {
			s.mu.Lock()
			s.received = append(s.received, cmd)
			s.mu.Unlock()
		}
		if s.status != 0 {
			w.WriteHeader(s.status)
		}
		w.Write([]byte(s.reply))
	}
}

func (s *chassisStub) last(t *testing.T) map[string]any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.received) == 0 {
		t.Fatal("chassis received no commands")
	}
	return s.received[len(s.received)-1]
}

func TestSendFeedback(t *testing.T) {
	stub := &chassisStub{reply: `{"T":1001,"L":0.31,"R":-0.29,"r":1.5,"p":-0.8,"v":11.7,"temp":36.2}`}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewClient(srv.URL)
	action, err := schema.SpeedCtrl(0.3, -0.3)
	if err != nil {
		t.Fatal(err)
	}

	imu, fb, err := c.Send(context.Background(), action)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	sent := stub.last(t)
	if sent["T"] != float64(1) {
		t.Errorf(`sent T = %v, want 1`, sent["T"])
	}
	if sent["L"] != 0.3 || sent["R"] != -0.3 {
		t.Errorf("sent speeds L=%v R=%v", sent["L"], sent["R"])
	}

	if fb.LeftSpeed != 0.31 || fb.RightSpeed != -0.29 {
		t.Errorf("feedback speeds L=%v R=%v", fb.LeftSpeed, fb.RightSpeed)
	}
	if fb.Voltage != 11.7 || fb.Temp != 36.2 {
		t.Errorf("feedback v=%v temp=%v", fb.Voltage, fb.Temp)
	}
	if imu.Roll != 1.5 || imu.Pitch != -0.8 {
		t.Errorf("imu roll=%v pitch=%v", imu.Roll, imu.Pitch)
	}
	if fb.At.IsZero() || imu.At.IsZero() {
		t.Error("receipt times not stamped")
	}
	if !fb.At.Equal(imu.At) {
		t.Error("feedback and imu receipt times differ within one reply")
	}
}

func TestSendIMU(t *testing.T) {
	stub := &chassisStub{reply: `{"T":1002,"r":2.0,"p":-1.0,"ax":0.1,"ay":0.2,"az":9.8,"gx":0.01,"gy":0.02,"gz":0.03,"mx":30,"my":-12,"mz":44,"temp":35.5}`}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewClient(srv.URL)
	a, err := schema.Validate(schema.KindGetIMUData, nil)
	if err != nil {
		t.Fatal(err)
	}

	imu, fb, err := c.Send(context.Background(), a)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if imu.Roll != 2.0 || imu.Pitch != -1.0 || imu.AccelZ != 9.8 || imu.MagZ != 44 || imu.Temp != 35.5 {
		t.Errorf("imu parse: %+v", imu)
	}
	if fb.LeftSpeed != 0 || fb.RightSpeed != 0 || fb.Voltage != 0 {
		t.Errorf("IMU reply should leave feedback scalars zero: %+v", fb)
	}
	if fb.At.IsZero() {
		t.Error("feedback receipt time not stamped")
	}
}

func TestSendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // port is now dead

	c := NewClient(srv.URL)
	_, _, err := c.Send(context.Background(), schema.BaseFeedback())
	if err == nil {
		t.Fatal("Send to closed server succeeded")
	}
	if !IsTransport(err) {
		t.Fatalf("error %v (%T), want transport", err, err)
	}
	if IsProtocol(err) {
		t.Error("transport failure also matched protocol")
	}
}

func TestSendProtocolErrors(t *testing.T) {
	cases := []struct {
		name   string
		reply  string
		status int
		code   int
	}{
		{"bad status", `{}`, http.StatusInternalServerError, 0},
		{"invalid json", `not json`, 0, 0},
		{"missing type", `{"L":0.1}`, 0, 0},
		{"unknown type", `{"T":7777}`, 0, 7777},
		{"feedback missing fields", `{"T":1001,"L":0.1}`, 0, 1001},
		{"imu missing fields", `{"T":1002,"ax":0.1}`, 0, 1002},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &chassisStub{reply: tc.reply, status: tc.status}
			srv := httptest.NewServer(stub.handler())
			defer srv.Close()

			c := NewClient(srv.URL)
			_, _, err := c.Send(context.Background(), schema.BaseFeedback())
			if err == nil {
				t.Fatal("Send accepted malformed reply")
			}
			if !IsProtocol(err) {
				t.Fatalf("error %v (%T), want protocol", err, err)
			}
			if IsTransport(err) {
				t.Error("protocol failure also matched transport")
			}
			if tc.code != 0 {
				var perr *ProtocolError
				if !errors.As(err, &perr) || perr.Code != tc.code {
					t.Errorf("ProtocolError = %v, want code %d", err, tc.code)
				}
			}
		})
	}
}

func TestSendRejectsInvalidAction(t *testing.T) {
	stub := &chassisStub{reply: `{"T":1001,"L":0,"R":0,"r":0,"p":0,"v":12}`}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewClient(srv.URL)
	_, _, err := c.Send(context.Background(), schema.Action{})
	if err == nil {
		t.Fatal("Send accepted a zero action")
	}

	stub.mu.Lock()
	n := len(stub.received)
	stub.mu.Unlock()
	if n != 0 {
		t.Errorf("zero action reached the chassis %d times", n)
	}
}
