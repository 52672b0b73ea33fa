package ptp

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type request struct {
	Phase uint32
	Code  uint16
	Param []uint32
	Data  []byte
}

// fakeResponder plays the camera side of a PTP/IP connection.
type fakeResponder struct {
	t   *testing.T
	cmd net.Conn
	evt net.Conn

	// Codes whose data-out phase is announced but never sent.
	emptyDataPhase map[uint16]bool
	handle         func(req *request) (rc uint16, data []byte)

	mu   sync.Mutex
	reqs []request
}

func newPipeDevice(t *testing.T) (*DeviceIP, *fakeResponder) {
	cmdC, cmdS := net.Pipe()
	evtC, evtS := net.Pipe()
	conns := []net.Conn{cmdC, evtC}

	d := NewDeviceIP("camera", 0, "test", uuid.New(), nil)
	d.Dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		c := conns[0]
		conns = conns[1:]
		return c, nil
	}
	f := &fakeResponder{
		t:              t,
		cmd:            cmdS,
		evt:            evtS,
		emptyDataPhase: map[uint16]bool{},
		handle: func(*request) (uint16, []byte) {
			return RC_OK, nil
		},
	}
	go f.serve()
	return d, f
}

func (f *fakeResponder) serve() {
	typ, _, err := readPacket(f.cmd)
	if err != nil || typ != PTPIP_InitCommandRequest {
		f.t.Errorf("got %d %v, want InitCommandRequest", typ, err)
		return
	}
	var ack bytes.Buffer
	binary.Write(&ack, byteOrder, uint32(7))
	ack.Write(make([]byte, 16))
	writeUTF16Z(&ack, "cam")
	binary.Write(&ack, byteOrder, uint32(PTPIP_ProtocolVersion))
	writePacket(f.cmd, PTPIP_InitCommandAck, ack.Bytes())

	typ, payload, err := readPacket(f.evt)
	if err != nil || typ != PTPIP_InitEventRequest || byteOrder.Uint32(payload) != 7 {
		f.t.Errorf("got %d %x %v, want InitEventRequest", typ, payload, err)
		return
	}
	writePacket(f.evt, PTPIP_InitEventAck, nil)

	for {
		typ, payload, err := readPacket(f.cmd)
		if err != nil {
			return
		}
		if typ != PTPIP_CmdRequest {
			f.t.Errorf("got packet type %d", typ)
			return
		}
		req := request{
			Phase: byteOrder.Uint32(payload),
			Code:  byteOrder.Uint16(payload[4:]),
		}
		tid := byteOrder.Uint32(payload[6:])
		for p := payload[10:]; len(p) >= 4; p = p[4:] {
			req.Param = append(req.Param, byteOrder.Uint32(p))
		}
		if req.Phase == PTPIP_DataPhaseOut && !f.emptyDataPhase[req.Code] {
			if req.Data, err = f.readData(); err != nil {
				f.t.Errorf("readData: %v", err)
				return
			}
		}

		f.mu.Lock()
		f.reqs = append(f.reqs, req)
		f.mu.Unlock()

		rc, out := f.handle(&req)
		if out != nil {
			var start [12]byte
			byteOrder.PutUint32(start[:], tid)
			byteOrder.PutUint64(start[4:], uint64(len(out)))
			writePacket(f.cmd, PTPIP_StartData, start[:])
			end := make([]byte, 4+len(out))
			byteOrder.PutUint32(end, tid)
			copy(end[4:], out)
			writePacket(f.cmd, PTPIP_EndData, end)
		}
		var rep [6]byte
		byteOrder.PutUint16(rep[:], rc)
		byteOrder.PutUint32(rep[2:], tid)
		writePacket(f.cmd, PTPIP_CmdResponse, rep[:])
	}
}

func (f *fakeResponder) readData() ([]byte, error) {
	typ, _, err := readPacket(f.cmd)
	if err != nil {
		return nil, err
	}
	if typ != PTPIP_StartData {
		return nil, SyncError("want StartData")
	}
	var data []byte
	for {
		typ, payload, err := readPacket(f.cmd)
		if err != nil {
			return nil, err
		}
		data = append(data, payload[4:]...)
		if typ == PTPIP_EndData {
			return data, nil
		}
	}
}

func (f *fakeResponder) requests() []request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]request(nil), f.reqs...)
}

func TestDeviceIPSession(t *testing.T) {
	d, f := newPipeDevice(t)
	list := parseHex("0100 0000 0000 0000" + fNumberDescStr)
	f.handle = func(req *request) (uint16, []byte) {
		if req.Code == OC_SONY_GetAllDevicePropData {
			return RC_OK, list
		}
		return RC_OK, nil
	}

	if err := d.Configure(); err != nil {
		t.Fatalf("unexpected Configure error %v", err)
	}
	if d.ConnectionNumber != 7 || d.ResponderName != "cam" {
		t.Errorf("got connection %d name %q", d.ConnectionNumber, d.ResponderName)
	}

	props, err := GetAllDevicePropData(d, true)
	if err != nil {
		t.Fatalf("unexpected GetAllDevicePropData error %v", err)
	}
	if len(props) != 1 || props[0].CurrentValue != uint16(280) {
		t.Fatalf("got props %v", props)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("unexpected Close error %v", err)
	}

	reqs := f.requests()
	var codes []uint16
	for _, r := range reqs {
		codes = append(codes, r.Code)
	}
	want := []uint16{OC_OpenSession, OC_SONY_GetAllDevicePropData, OC_CloseSession}
	if !reflect.DeepEqual(codes, want) {
		t.Fatalf("got codes %x, want %x", codes, want)
	}
	if !reflect.DeepEqual(reqs[1].Param, []uint32{1}) {
		t.Errorf("got params %v, want [1]", reqs[1].Param)
	}
}

func TestDeviceIPSetControlDevice(t *testing.T) {
	d, f := newPipeDevice(t)
	f.emptyDataPhase[OC_SONY_SetControlDeviceB] = true
	if err := d.Configure(); err != nil {
		t.Fatalf("unexpected Configure error %v", err)
	}
	defer d.Close()

	// Written as bank A so the responder expects a data phase.
	v := PropValue{Code: DPC_SONY_ISO, Type: DTC_UINT32, Value: 0xc80}
	if err := SetControlDevice(d, false, &v); err != nil {
		t.Fatalf("unexpected SetControlDevice error %v", err)
	}
	if err := ReleaseControl(d, DPC_SONY_PerformZoom); err != nil {
		t.Fatalf("unexpected ReleaseControl error %v", err)
	}

	reqs := f.requests()
	want := []request{
		{Phase: PTPIP_DataPhaseNone, Code: OC_OpenSession, Param: reqs[0].Param},
		{Phase: PTPIP_DataPhaseOut, Code: OC_SONY_SetControlDeviceA, Param: []uint32{DPC_SONY_ISO}, Data: parseHex("800c 0000")},
		{Phase: PTPIP_DataPhaseOut, Code: OC_SONY_SetControlDeviceB, Param: []uint32{DPC_SONY_PerformZoom}},
	}
	if !reflect.DeepEqual(reqs, want) {
		t.Fatalf("got %#v, want %#v", reqs, want)
	}
}

func TestDeviceIPReturnCode(t *testing.T) {
	d, f := newPipeDevice(t)
	if err := d.Configure(); err != nil {
		t.Fatalf("unexpected Configure error %v", err)
	}
	defer d.Close()

	f.handle = func(req *request) (uint16, []byte) {
		return RC_DeviceBusy, nil
	}
	err := SonyUnknownHandshake(d)
	if !IsRC(err, RC_DeviceBusy) {
		t.Fatalf("got %v, want DeviceBusy", err)
	}
	if _, ok := err.(Catastrophic); ok {
		t.Fatalf("return code reported as catastrophic")
	}
}

func TestDeviceIPEvents(t *testing.T) {
	d, f := newPipeDevice(t)
	if err := d.Configure(); err != nil {
		t.Fatalf("unexpected Configure error %v", err)
	}
	defer d.Close()

	if err := writePacket(f.evt, PTPIP_Ping, nil); err != nil {
		t.Fatalf("ping: %v", err)
	}
	typ, _, err := readPacket(f.evt)
	if err != nil || typ != PTPIP_Pong {
		t.Fatalf("got %d %v, want Pong", typ, err)
	}

	var ev [10]byte
	byteOrder.PutUint16(ev[:], EC_SONY_ObjectAdded)
	byteOrder.PutUint32(ev[6:], 0xffffc001)
	if err := writePacket(f.evt, PTPIP_Event, ev[:]); err != nil {
		t.Fatalf("event: %v", err)
	}

	select {
	case c := <-d.Events():
		if c.Code != EC_SONY_ObjectAdded || !reflect.DeepEqual(c.Param, []uint32{0xffffc001}) {
			t.Errorf("got event %x %x", c.Code, c.Param)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event delivered")
	}
}
