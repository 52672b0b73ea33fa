package remoteapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

type fakeAPI struct {
	t        *testing.T
	requests []request
	paths    []string
	reply    map[string]string
	status   map[string]int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.t.Errorf("Decode: %v", err)
	}
	f.requests = append(f.requests, req)
	f.paths = append(f.paths, r.URL.Path)

	if code, ok := f.status[req.Method]; ok {
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(f.reply[req.Method]))
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	f := &fakeAPI{t: t, reply: map[string]string{}, status: map[string]int{}}
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)
	return f, New(ts.URL+"/sony", 0, nil)
}

func TestCallRequestShape(t *testing.T) {
	f, c := newFakeAPI(t)
	f.reply["getVersions"] = `{"result":[["1.0","1.1"]],"id":1}`

	got, err := c.GetVersions()
	if err != nil {
		t.Fatalf("GetVersions: %v", err)
	}
	if want := []string{"1.0", "1.1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	want := request{Method: "getVersions", Params: []interface{}{}, ID: 1, Version: "1.0"}
	if !reflect.DeepEqual(f.requests[0], want) {
		t.Errorf("request %+v, want %+v", f.requests[0], want)
	}
	if f.paths[0] != "/sony/camera" {
		t.Errorf("path %q", f.paths[0])
	}
}

func TestMethodTypes(t *testing.T) {
	f, c := newFakeAPI(t)
	f.reply["getMethodTypes"] = `{"results":[["getVersions",[],["string*"],"1.0"]],"id":1}`

	got, err := c.GetMethodTypes("1.0")
	if err != nil {
		t.Fatalf("GetMethodTypes: %v", err)
	}
	if len(got) != 1 || got[0][0] != "getVersions" {
		t.Errorf("got %v", got)
	}
	if params := f.requests[0].Params; !reflect.DeepEqual(params, []interface{}{"1.0"}) {
		t.Errorf("params %v", params)
	}
}

func TestErrorTable(t *testing.T) {
	cases := []struct {
		body string
		kind Kind
	}{
		{`{"error":[1,"Any"]}`, KindAny},
		{`{"error":[3,"Illegal Argument"]}`, KindIllegalArgument},
		{`{"error":[12,"No Such Method"]}`, KindNoSuchMethod},
		{`{"error":[15,"Unsupported Operation"]}`, KindUnsupportedOperation},
		{`{"error":[40400,"Shooting Fail"]}`, KindShootingFail},
		{`{"error":[40403,"Still Capturing Not Finished"]}`, KindStillCapturingNotFinished},
		{`{"error":[41003,"Some content could not be deleted"]}`, KindSomeContentCouldNotBeDeleted},
		{`{"error":[1,"Not Available Now"]}`, KindNotAvailable},
		{`{"error":[40401,"not available now"]}`, KindNotAvailable},
	}
	for _, c := range cases {
		var r response
		if err := json.Unmarshal([]byte(c.body), &r); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		err := decodeError("actTakePicture", r.Error)
		var e *Error
		if !errors.As(err, &e) || e.Kind != c.kind {
			t.Errorf("%s: got %v, want %s", c.body, err, c.kind)
		}
	}

	for _, body := range []string{`{"error":[0,"OK"]}`, `{"error":[99999,"?"]}`, `{"result":[0]}`} {
		var r response
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if err := decodeError("actTakePicture", r.Error); err != nil {
			t.Errorf("%s: got %v", body, err)
		}
	}
}

func TestCallError(t *testing.T) {
	f, c := newFakeAPI(t)
	f.reply["getAvailableApiList"] = `{"error":[7,"Illegal State"],"id":1}`

	_, err := c.GetAvailableAPIList()
	if !errors.Is(err, &Error{Kind: KindIllegalState}) {
		t.Fatalf("got %v", err)
	}
}

func TestLegacyRecordModePolicy(t *testing.T) {
	var p LegacyRecordModePolicy

	f, c := newFakeAPI(t)
	f.reply["startRecMode"] = `{"error":[12,"No Such Method"],"id":1}`
	if err := c.EnterRecordMode(p); err != nil {
		t.Errorf("noSuchMethod: %v", err)
	}

	f.status["startRecMode"] = http.StatusNotFound
	if err := c.EnterRecordMode(p); err != nil {
		t.Errorf("404: %v", err)
	}

	f.status["startRecMode"] = http.StatusInternalServerError
	var he *HTTPError
	if err := c.EnterRecordMode(p); !errors.As(err, &he) || he.StatusCode != http.StatusInternalServerError {
		t.Errorf("500: got %v", err)
	}

	delete(f.status, "startRecMode")
	f.reply["startRecMode"] = `{"error":[40401,"Camera Not Ready"],"id":1}`
	if err := c.EnterRecordMode(p); !errors.Is(err, &Error{Kind: KindCameraNotReady}) {
		t.Errorf("cameraNotReady: got %v", err)
	}

	f.reply["startRecMode"] = `{"result":[0],"id":1}`
	if err := c.EnterRecordMode(p); err != nil {
		t.Errorf("success: %v", err)
	}

	if p.Accept(&Error{Kind: KindIllegalState}) {
		t.Errorf("illegalState accepted")
	}
}
