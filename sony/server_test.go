package sony

import (
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/hanwen/go-sonyptp/ptp"
)

func TestDecodePayload(t *testing.T) {
	cases := []struct {
		fn   Function
		raw  string
		want interface{}
	}{
		{SetISO, `{"kind":"native","value":400}`, ISO{Kind: ISONative, Value: 400}},
		{SetShutterSpeed, `{"numerator":1,"denominator":250}`, ShutterSpeed{1, 250}},
		{SetAperture, `5.6`, Aperture(5.6)},
		{SetSelfTimerDuration, `10`, float64(10)},
		{StartZooming, `"in"`, ZoomIn},
		{SetStillSize, `{"aspectRatio":"3:2","size":"L"}`, StillSize{AspectRatio: "3:2", Size: "L"}},
		{TakePicture, ``, nil},
		{TakePicture, `null`, nil},
	}
	for _, c := range cases {
		got, err := DecodePayload(c.fn, json.RawMessage(c.raw))
		if err != nil {
			t.Fatalf("DecodePayload(%s, %s): %v", c.fn, c.raw, err)
		}
		if got != c.want {
			t.Errorf("DecodePayload(%s, %s): got %#v, want %#v", c.fn, c.raw, got, c.want)
		}
	}

	if _, err := DecodePayload(SetISO, json.RawMessage(`"400"`)); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("string ISO: got %v", err)
	}
}

func testLogger() *logrus.Logger {
	return &logrus.Logger{Out: ioutil.Discard, Level: logrus.ErrorLevel, Formatter: &logrus.TextFormatter{}}
}

func startEventServer(t *testing.T, s *Session) *httptest.Server {
	ctx, cancel := context.WithCancel(context.Background())
	es := NewEventServer(s, 10*time.Millisecond, testLogger(), ctx)
	done := make(chan error, 1)
	go func() {
		done <- es.Run()
	}()
	ts := httptest.NewServer(es.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
	})
	return ts
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s): %v", url, err)
	}
	t.Cleanup(func() { c.Close() })
	c.SetReadDeadline(time.Now().Add(5 * time.Second))
	return c
}

func TestEventServerStreamsEvents(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f, stillModeProp(StillSingle, StillSingle))
	ts := startEventServer(t, s)

	c := dial(t, ts, "/events")
	var ev struct {
		ShootMode struct {
			Current ShootMode `json:"current"`
		} `json:"shootMode"`
		AvailableFunctions []Function `json:"availableFunctions"`
	}
	if err := c.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if ev.ShootMode.Current != ShootPhoto {
		t.Errorf("shoot mode %q", ev.ShootMode.Current)
	}
	if !hasFunction(ev.AvailableFunctions, TakePicture) {
		t.Errorf("available %v", ev.AvailableFunctions)
	}
}

func readResult(t *testing.T, c *websocket.Conn) ControlMessage {
	for {
		var msg ControlMessage
		if err := c.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if msg.Type == "result" {
			return msg
		}
	}
}

func TestEventServerControl(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)
	ts := startEventServer(t, s)
	c := dial(t, ts, "/control")

	req := ControlRequest{ID: 1, Function: SetISO, Payload: json.RawMessage(`{"kind":"native","value":400}`)}
	if err := c.WriteJSON(req); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	msg := readResult(t, c)
	if msg.ID != 1 || msg.Error != "" {
		t.Fatalf("got %+v", msg)
	}
	want := mustValue(t, ISO{Kind: ISONative, Value: 400})
	calls := f.setCalls()
	if len(calls) != 1 || calls[0].Value != want {
		t.Errorf("got %v, want %v", calls, want)
	}

	req = ControlRequest{ID: 2, Function: SetISO, Payload: json.RawMessage(`"400"`)}
	if err := c.WriteJSON(req); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if msg := readResult(t, c); msg.ID != 2 || !strings.Contains(msg.Error, ErrInvalidPayload.Error()) {
		t.Errorf("got %+v", msg)
	}

	f.setProp(plainProp(ptp.DPC_SONY_LiveViewURL, "http://192.168.1.1/lv"))
	req = ControlRequest{ID: 3, Function: StartLiveView}
	if err := c.WriteJSON(req); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if msg := readResult(t, c); msg.ID != 3 || msg.Result != "http://192.168.1.1/lv" {
		t.Errorf("got %+v", msg)
	}
}
