package ptp

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"strconv"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hanwen/go-sonyptp/log"
)

const ptpipHdrLen = 8

// DeviceIP implements Device over the two TCP connections of PTP/IP:
// one for commands and data, one for events.
type DeviceIP struct {
	Host    string
	Port    int
	Name    string
	GUID    uuid.UUID
	Timeout time.Duration

	// Dial opens the connections. Defaults to a net.Dialer.
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)

	// ConnectionNumber is assigned by the responder.
	ConnectionNumber uint32
	// ResponderName is the friendly name sent back by the camera.
	ResponderName string

	cmd   net.Conn
	evt   net.Conn
	wlock sync.Mutex // guards writes to cmd, shared with the event reader's pongs.
	tlock sync.Mutex // one transaction at a time.

	session *sessionData

	events chan Container
	eg     *errgroup.Group
	cancel context.CancelFunc

	log *log.Children
}

func NewDeviceIP(host string, port int, name string, guid uuid.UUID, lc *log.Children) *DeviceIP {
	if port == 0 {
		port = PTPIP_DefaultPort
	}
	if lc == nil {
		lc = log.Discard()
	}
	return &DeviceIP{
		Host: host,
		Port: port,
		Name: name,
		GUID: guid,
		log:  lc,
	}
}

func (d *DeviceIP) addr() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

func (d *DeviceIP) connected() bool {
	return d.cmd != nil
}

func (d *DeviceIP) Events() <-chan Container {
	return d.events
}

func (d *DeviceIP) dial(ctx context.Context) (net.Conn, error) {
	if d.Dial != nil {
		return d.Dial(ctx, "tcp", d.addr())
	}
	var nd net.Dialer
	return nd.DialContext(ctx, "tcp", d.addr())
}

// Open performs the PTP/IP init handshake on both connections and
// starts the event reader.
func (d *DeviceIP) Open() error {
	if d.connected() {
		return fmt.Errorf("already open")
	}
	ctx := context.Background()
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	cmd, err := d.dial(ctx)
	if err != nil {
		return fmt.Errorf("failed to open command connection: %w", err)
	}

	var req bytes.Buffer
	req.Write(d.GUID[:])
	writeUTF16Z(&req, d.Name)
	binary.Write(&req, byteOrder, uint32(PTPIP_ProtocolVersion))
	if err := writePacket(cmd, PTPIP_InitCommandRequest, req.Bytes()); err != nil {
		cmd.Close()
		return err
	}

	typ, payload, err := readPacket(cmd)
	if err != nil {
		cmd.Close()
		return err
	}
	switch typ {
	case PTPIP_InitCommandAck:
	case PTPIP_InitFail:
		cmd.Close()
		return initFail(payload)
	default:
		cmd.Close()
		return SyncError(fmt.Sprintf("got %s, want InitCommandAck", getName(PTPIP_names, int(typ))))
	}
	if len(payload) < 4 {
		cmd.Close()
		return SyncError("short InitCommandAck")
	}
	d.ConnectionNumber = byteOrder.Uint32(payload)
	if len(payload) > 20 {
		d.ResponderName = readUTF16Z(payload[20:])
	}
	d.log.PTP.Debugf("connection number %d, responder %q", d.ConnectionNumber, d.ResponderName)

	evt, err := d.dial(ctx)
	if err != nil {
		cmd.Close()
		return fmt.Errorf("failed to open event connection: %w", err)
	}
	var er [4]byte
	byteOrder.PutUint32(er[:], d.ConnectionNumber)
	if err := writePacket(evt, PTPIP_InitEventRequest, er[:]); err != nil {
		cmd.Close()
		evt.Close()
		return err
	}
	typ, payload, err = readPacket(evt)
	if err == nil && typ == PTPIP_InitFail {
		err = initFail(payload)
	} else if err == nil && typ != PTPIP_InitEventAck {
		err = SyncError(fmt.Sprintf("got %s, want InitEventAck", getName(PTPIP_names, int(typ))))
	}
	if err != nil {
		cmd.Close()
		evt.Close()
		return err
	}

	d.cmd = cmd
	d.evt = evt
	d.events = make(chan Container, 16)

	var egCtx context.Context
	egCtx, d.cancel = context.WithCancel(context.Background())
	d.eg, egCtx = errgroup.WithContext(egCtx)
	d.eg.Go(func() error {
		return d.readEvents(egCtx)
	})
	return nil
}

func initFail(payload []byte) error {
	if len(payload) < 4 {
		return InitFailError(0)
	}
	return InitFailError(byteOrder.Uint32(payload))
}

func (d *DeviceIP) readEvents(ctx context.Context) error {
	defer close(d.events)
	for {
		typ, payload, err := readPacket(d.evt)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			d.log.Event.Warningf("event stream closed: %v", err)
			return err
		}
		d.dataPrint("recv event", payload)

		switch typ {
		case PTPIP_Event:
			ev, err := decodeOperation(payload)
			if err != nil {
				d.log.Event.Warningf("bad event packet: %v", err)
				continue
			}
			d.log.Event.Debugf("event %s %v", getName(EC_names, int(ev.Code)), ev.Param)
			select {
			case d.events <- ev:
			case <-ctx.Done():
				return nil
			}
		case PTPIP_Ping:
			if err := writePacket(d.evt, PTPIP_Pong, nil); err != nil {
				return err
			}
		default:
			d.log.Event.Debugf("ignoring %s on event connection", getName(PTPIP_names, int(typ)))
		}
	}
}

// Close closes the session and both connections.
func (d *DeviceIP) Close() error {
	if !d.connected() {
		return nil
	}

	if d.session != nil {
		var req, rep Container
		req.Code = OC_CloseSession
		// RunTransaction runs close, so can't use CloseSession().
		err := d.runTransaction(&req, &rep, nil, nil, 0)
		if err != nil {
			d.log.PTP.Debugf("failed to close session: %v", err)
		}
		d.session = nil
	}

	d.cancel()
	d.cmd.Close()
	d.evt.Close()
	d.eg.Wait()

	d.cmd = nil
	d.evt = nil
	return nil
}

// Runs a single PTP transaction. dest and src cannot be specified at
// the same time. If the return code is an error, this function will
// return an RCError instance. Connection failures and lost
// synchronization are returned as Catastrophic; the device must be
// reopened afterwards.
func (d *DeviceIP) RunTransaction(req *Container, rep *Container,
	dest io.Writer, src io.Reader, writeSize int64) error {
	if !d.connected() {
		return Catastrophic("not connected")
	}
	d.tlock.Lock()
	defer d.tlock.Unlock()

	if err := d.runTransaction(req, rep, dest, src, writeSize); err != nil {
		var se SyncError
		var ne net.Error
		if errors.As(err, &se) || errors.As(err, &ne) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Catastrophic(fmt.Sprintf("fatal error: %s", err))
		}
		return err
	}
	return nil
}

func (d *DeviceIP) runTransaction(req *Container, rep *Container,
	dest io.Writer, src io.Reader, writeSize int64) error {
	if d.session != nil {
		req.SessionID = d.session.sid
		req.TransactionID = d.session.tid
		d.session.tid++
	}
	if d.Timeout > 0 {
		d.cmd.SetDeadline(time.Now().Add(d.Timeout))
		defer d.cmd.SetDeadline(time.Time{})
	}

	d.log.PTP.Debugf("request %s %v", getName(OC_names, int(req.Code)), req.Param)

	phase := uint32(PTPIP_DataPhaseNone)
	if src != nil {
		phase = PTPIP_DataPhaseOut
	}
	var buf bytes.Buffer
	binary.Write(&buf, byteOrder, phase)
	binary.Write(&buf, byteOrder, req.Code)
	binary.Write(&buf, byteOrder, req.TransactionID)
	binary.Write(&buf, byteOrder, req.Param)
	if err := d.send(PTPIP_CmdRequest, buf.Bytes()); err != nil {
		return err
	}

	if src != nil && writeSize > 0 {
		if err := d.sendData(req.TransactionID, src, writeSize); err != nil {
			return err
		}
	}

	var unexpectedData bool
	for {
		typ, payload, err := readPacket(d.cmd)
		if err != nil {
			return err
		}
		d.dataPrint("recv", payload)

		switch typ {
		case PTPIP_StartData:
			if len(payload) < 12 {
				return SyncError("short StartData")
			}
			if dest == nil {
				unexpectedData = true
				dest = ioutil.Discard
				d.log.PTP.Debugf("discarding unexpected data 0x%x bytes", byteOrder.Uint64(payload[4:]))
			}
		case PTPIP_Data, PTPIP_EndData:
			if len(payload) < 4 {
				return SyncError("short data packet")
			}
			if dest == nil {
				unexpectedData = true
				dest = ioutil.Discard
			}
			if _, err := dest.Write(payload[4:]); err != nil {
				return err
			}
		case PTPIP_CmdResponse:
			r, err := decodeOperation(payload)
			if err != nil {
				return SyncError(err.Error())
			}
			rep.Code = r.Code
			rep.TransactionID = r.TransactionID
			rep.Param = r.Param
			rep.SessionID = req.SessionID
			d.log.PTP.Debugf("response %s %v", getName(RC_names, int(rep.Code)), rep.Param)

			if unexpectedData {
				return SyncError(fmt.Sprintf("unexpected data for code %s", getName(OC_names, int(req.Code))))
			}
			if rep.TransactionID != req.TransactionID {
				return SyncError(fmt.Sprintf("transaction ID mismatch got %x want %x",
					rep.TransactionID, req.TransactionID))
			}
			if rep.Code != RC_OK {
				return RCError(rep.Code)
			}
			return nil
		case PTPIP_Ping:
			if err := d.send(PTPIP_Pong, nil); err != nil {
				return err
			}
		default:
			return SyncError(fmt.Sprintf("got %s during transaction", getName(PTPIP_names, int(typ))))
		}
	}
}

func (d *DeviceIP) sendData(tid uint32, src io.Reader, size int64) error {
	var start [12]byte
	byteOrder.PutUint32(start[:], tid)
	byteOrder.PutUint64(start[4:], uint64(size))
	if err := d.send(PTPIP_StartData, start[:]); err != nil {
		return err
	}

	chunk := make([]byte, 4+rwBufSize)
	byteOrder.PutUint32(chunk, tid)
	for size > 0 {
		n := int64(rwBufSize)
		typ := uint32(PTPIP_Data)
		if size <= n {
			n = size
			typ = PTPIP_EndData
		}
		if _, err := io.ReadFull(src, chunk[4:4+n]); err != nil {
			return err
		}
		if err := d.send(typ, chunk[:4+n]); err != nil {
			return err
		}
		size -= n
	}
	return nil
}

func (d *DeviceIP) send(typ uint32, payload []byte) error {
	d.wlock.Lock()
	defer d.wlock.Unlock()
	d.dataPrint("send "+getName(PTPIP_names, int(typ)), payload)
	return writePacket(d.cmd, typ, payload)
}

func (d *DeviceIP) dataPrint(what string, data []byte) {
	if !d.log.Data.IsDebug() {
		return
	}
	d.log.Data.Debugf("%s: 0x%x bytes:\n%s", what, len(data), hexDump(data))
}

// Configure is a robust version of OpenSession. A session left open by
// an earlier client is closed and reopened.
func (d *DeviceIP) Configure() error {
	if err := d.Open(); err != nil {
		return err
	}

	err := d.OpenSession()
	if IsRC(err, RC_SessionAlreadyOpened) {
		d.CloseSession()
		err = d.OpenSession()
	}
	if err != nil {
		d.Close()
		return fmt.Errorf("OpenSession: %w", err)
	}
	return nil
}

func (d *DeviceIP) OpenSession() error {
	if d.session != nil {
		return fmt.Errorf("session already open")
	}
	var req, rep Container
	req.Code = OC_OpenSession
	sid := newSessionID()
	req.Param = []uint32{sid}
	if err := d.RunTransaction(&req, &rep, nil, nil, 0); err != nil {
		return err
	}
	d.session = &sessionData{
		tid: 1,
		sid: sid,
	}
	return nil
}

// Closes a sessions. This is done automatically if the device is closed.
func (d *DeviceIP) CloseSession() error {
	var req, rep Container
	req.Code = OC_CloseSession
	err := d.RunTransaction(&req, &rep, nil, nil, 0)
	d.session = nil
	return err
}

func writePacket(w io.Writer, typ uint32, payload []byte) error {
	pkt := make([]byte, ptpipHdrLen+len(payload))
	byteOrder.PutUint32(pkt, uint32(len(pkt)))
	byteOrder.PutUint32(pkt[4:], typ)
	copy(pkt[ptpipHdrLen:], payload)
	_, err := w.Write(pkt)
	return err
}

func readPacket(r io.Reader) (typ uint32, payload []byte, err error) {
	var hdr [ptpipHdrLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}
	l := byteOrder.Uint32(hdr[:])
	if l < ptpipHdrLen {
		return 0, nil, SyncError(fmt.Sprintf("packet length %d too small", l))
	}
	payload = make([]byte, l-ptpipHdrLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return byteOrder.Uint32(hdr[4:]), payload, nil
}

// decodeOperation parses the common layout of CmdResponse and Event
// payloads: code, transaction id and up to five parameters.
func decodeOperation(payload []byte) (Container, error) {
	var c Container
	if len(payload) < 6 {
		return c, fmt.Errorf("operation payload of %d bytes", len(payload))
	}
	c.Code = byteOrder.Uint16(payload)
	c.TransactionID = byteOrder.Uint32(payload[2:])
	rest := payload[6:]
	for len(rest) >= 4 {
		c.Param = append(c.Param, byteOrder.Uint32(rest))
		rest = rest[4:]
	}
	return c, nil
}

func writeUTF16Z(w *bytes.Buffer, s string) {
	var char [2]byte
	for _, u := range utf16.Encode([]rune(s)) {
		byteOrder.PutUint16(char[:], u)
		w.Write(char[:])
	}
	w.Write([]byte{0, 0})
}

func readUTF16Z(b []byte) string {
	var units []uint16
	for i := 0; i+1 < len(b); i += 2 {
		u := byteOrder.Uint16(b[i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}
