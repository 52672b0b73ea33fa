package ptp

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"regexp"
	"strings"
	"time"

	"github.com/google/gousb"
	"golang.org/x/sync/errgroup"

	"github.com/hanwen/go-sonyptp/log"
)

// DeviceUSB implements Device over the bulk and interrupt endpoints of
// a PTP still image interface, via gousb.
type DeviceUSB struct {
	dev         *gousb.Device
	devDesc     *gousb.DeviceDesc
	sendEPDesc  gousb.EndpointDesc
	fetchEPDesc gousb.EndpointDesc
	eventEPDesc gousb.EndpointDesc

	iConfiguration int
	iInterface     int
	iAltSetting    int

	config  *gousb.Config
	iface   *gousb.Interface
	sendEP  *gousb.OutEndpoint
	fetchEP *gousb.InEndpoint
	eventEP *gousb.InEndpoint

	session *sessionData

	events chan Container
	eg     *errgroup.Group
	cancel context.CancelFunc

	log *log.Children
}

func (d *DeviceUSB) connected() bool {
	return d.sendEP != nil
}

func (d *DeviceUSB) Events() <-chan Container {
	return d.events
}

// ID identifies the device by manufacturer, product and serial number.
func (d *DeviceUSB) ID() string {
	manu, _ := d.dev.Manufacturer()
	prod, _ := d.dev.Product()
	serial, _ := d.dev.SerialNumber()
	return fmt.Sprintf("%s %s %s", manu, prod, serial)
}

// Close releases the interface, and closes the device.
func (d *DeviceUSB) Close() error {
	if !d.connected() {
		return nil
	}

	if d.session != nil {
		var req, rep Container
		req.Code = OC_CloseSession
		// RunTransaction runs close, so can't use CloseSession().
		err := d.runTransaction(&req, &rep, nil, nil, 0)
		if err != nil {
			d.log.USB.Errorf("failed to close session: %v", err)
		}
		d.session = nil
	}

	// The event reader may be blocked in an interrupt transfer; it
	// exits once the interface is gone.
	d.cancel()

	d.iface.Close()
	if err := d.config.Close(); err != nil {
		d.log.USB.Errorf("failed to close configuration: %s", err)
	}

	d.sendEP = nil
	d.fetchEP = nil
	d.eventEP = nil
	return nil
}

// Open claims the PTP interface and its endpoints.
func (d *DeviceUSB) Open() error {
	cfg, err := d.dev.Config(d.iConfiguration)
	if err != nil {
		return fmt.Errorf("failed to open configuration: %w", err)
	}

	iface, err := cfg.Interface(d.iInterface, d.iAltSetting)
	if err != nil {
		cfg.Close()
		return fmt.Errorf("failed to open interface: %w", err)
	}
	if iface.Setting.Class != gousb.ClassPTP {
		iface.Close()
		cfg.Close()
		return fmt.Errorf("interface has no PTP/Image class")
	}

	d.sendEP, err = iface.OutEndpoint(d.sendEPDesc.Number)
	if err == nil {
		d.fetchEP, err = iface.InEndpoint(d.fetchEPDesc.Number)
	}
	if err == nil {
		d.eventEP, err = iface.InEndpoint(d.eventEPDesc.Number)
	}
	if err != nil {
		iface.Close()
		cfg.Close()
		d.sendEP = nil
		return fmt.Errorf("failed to open endpoint: %w", err)
	}
	d.config = cfg
	d.iface = iface

	d.events = make(chan Container, 16)
	var egCtx context.Context
	egCtx, d.cancel = context.WithCancel(context.Background())
	d.eg, egCtx = errgroup.WithContext(egCtx)
	ep := d.eventEP
	d.eg.Go(func() error {
		return d.readEvents(egCtx, ep)
	})
	return nil
}

func (d *DeviceUSB) readEvents(ctx context.Context, ep *gousb.InEndpoint) error {
	defer close(d.events)
	buf := make([]byte, d.eventEPDesc.MaxPacketSize)
	for {
		n, err := ep.Read(buf)
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err != nil {
			d.log.Event.Warningf("event endpoint: %v", err)
			return err
		}
		d.dataPrint(d.eventEPDesc, buf[:n])

		var h usbBulkHeader
		if err := binary.Read(bytes.NewReader(buf[:n]), byteOrder, &h); err != nil || h.Type != USB_CONTAINER_EVENT {
			continue
		}
		ev := Container{Code: h.Code, TransactionID: h.TransactionID}
		rest := buf[usbHdrLen:n]
		for len(rest) >= 4 {
			ev.Param = append(ev.Param, byteOrder.Uint32(rest))
			rest = rest[4:]
		}
		d.log.Event.Debugf("event %s %v", getName(EC_names, int(ev.Code)), ev.Param)
		select {
		case d.events <- ev:
		case <-ctx.Done():
			return nil
		}
	}
}

func (d *DeviceUSB) sendReq(req *Container) error {
	c := usbBulkContainer{
		usbBulkHeader: usbBulkHeader{
			Length:        uint32(usbHdrLen + 4*len(req.Param)),
			Type:          USB_CONTAINER_COMMAND,
			Code:          req.Code,
			TransactionID: req.TransactionID,
		},
	}
	copy(c.Param[:], req.Param)

	var wData [usbBulkLen]byte
	buf := bytes.NewBuffer(wData[:0])

	binary.Write(buf, byteOrder, c.usbBulkHeader)
	if err := binary.Write(buf, byteOrder, c.Param[:len(req.Param)]); err != nil {
		return err
	}

	d.dataPrint(d.sendEPDesc, buf.Bytes())
	_, err := d.sendEP.Write(buf.Bytes())
	return err
}

// Fetches one USB packet. The header is split off, and the remainder is returned.
// dest should be at least 512bytes.
func (d *DeviceUSB) fetchPacket(dest []byte, header *usbBulkHeader) (rest []byte, err error) {
	n, err := d.fetchEP.Read(dest[:d.fetchEPDesc.MaxPacketSize])
	if n > 0 {
		d.dataPrint(d.fetchEPDesc, dest[:n])
	}
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(dest[:n])
	if err = binary.Read(buf, byteOrder, header); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *DeviceUSB) decodeRep(h *usbBulkHeader, rest []byte, rep *Container) error {
	if h.Type != USB_CONTAINER_RESPONSE {
		return SyncError(fmt.Sprintf("got type %d (%s) in response, want CONTAINER_RESPONSE.", h.Type, getName(USB_names, int(h.Type))))
	}

	rep.Code = h.Code
	rep.TransactionID = h.TransactionID

	restLen := int(h.Length) - usbHdrLen
	if restLen > len(rest) {
		return fmt.Errorf("header specified 0x%x bytes, but have 0x%x",
			restLen, len(rest))
	}
	nParam := restLen / 4
	for i := 0; i < nParam; i++ {
		rep.Param = append(rep.Param, byteOrder.Uint32(rest[4*i:]))
	}

	if rep.Code != RC_OK {
		return RCError(rep.Code)
	}
	return nil
}

// Runs a single PTP transaction. dest and src cannot be specified at
// the same time.  The request should fill out Code and Param as
// necessary. The response is provided here, but usually only the
// return code is of interest.  If the return code is an error, this
// function will return an RCError instance.
//
// Errors that are likely to affect future transactions lead to
// closing the connection. Such errors include: invalid transaction
// IDs, USB errors (BUSY, IO, ACCESS etc.), and receiving data for
// operations that expect no data.
func (d *DeviceUSB) RunTransaction(req *Container, rep *Container,
	dest io.Writer, src io.Reader, writeSize int64) error {
	if !d.connected() {
		return Catastrophic("not connected")
	}
	if err := d.runTransaction(req, rep, dest, src, writeSize); err != nil {
		var se SyncError
		var ue gousb.Error
		var ts gousb.TransferStatus
		if errors.As(err, &se) || errors.As(err, &ue) || errors.As(err, &ts) {
			return Catastrophic(fmt.Sprintf("fatal error: %s", err))
		}
		return err
	}
	return nil
}

func (d *DeviceUSB) runTransaction(req *Container, rep *Container,
	dest io.Writer, src io.Reader, writeSize int64) error {
	var finalPacket []byte
	if d.session != nil {
		req.SessionID = d.session.sid
		req.TransactionID = d.session.tid
		d.session.tid++
	}

	d.log.PTP.Debugf("request %s %v", getName(OC_names, int(req.Code)), req.Param)

	if err := d.sendReq(req); err != nil {
		d.log.PTP.Debugf("sendreq failed: %v", err)
		return err
	}

	if src != nil && writeSize > 0 {
		hdr := usbBulkHeader{
			Type:          USB_CONTAINER_DATA,
			Code:          req.Code,
			TransactionID: req.TransactionID,
		}
		if _, err := d.bulkWrite(&hdr, src, writeSize); err != nil {
			return err
		}
	}
	fetchPacketSize := d.fetchEPDesc.MaxPacketSize
	data := make([]byte, fetchPacketSize)
	h := &usbBulkHeader{}
	rest, err := d.fetchPacket(data[:], h)
	if err != nil {
		return err
	}
	var unexpectedData bool
	if h.Type == USB_CONTAINER_DATA {
		if dest == nil {
			dest = ioutil.Discard
			unexpectedData = true
			d.log.PTP.Debugf("discarding unexpected data 0x%x bytes", h.Length)
		}
		d.log.PTP.Debugf("data 0x%x bytes", h.Length)

		dest.Write(rest)

		if len(rest)+usbHdrLen == fetchPacketSize {
			// If this was a full packet, read until we
			// have a short read.
			_, finalPacket, err = d.bulkRead(dest)
			if err != nil {
				return err
			}
		}

		h = &usbBulkHeader{}
		if len(finalPacket) > 0 {
			d.log.PTP.Debugf("reusing final packet")
			rest = finalPacket[usbHdrLen:]
			err = binary.Read(bytes.NewReader(finalPacket), byteOrder, h)
		} else {
			rest, err = d.fetchPacket(data[:], h)
		}
		if err != nil {
			return err
		}
	}

	err = d.decodeRep(h, rest, rep)
	d.log.PTP.Debugf("response %s %v", getName(RC_names, int(rep.Code)), rep.Param)
	if unexpectedData {
		return SyncError(fmt.Sprintf("unexpected data for code %s", getName(OC_names, int(req.Code))))
	}

	if err != nil {
		return err
	}
	if d.session != nil && rep.TransactionID != req.TransactionID {
		return SyncError(fmt.Sprintf("transaction ID mismatch got %x want %x",
			rep.TransactionID, req.TransactionID))
	}
	rep.SessionID = req.SessionID
	return nil
}

// Prints data going over the USB connection.
func (d *DeviceUSB) dataPrint(epDesc gousb.EndpointDesc, data []byte) {
	if !d.log.Data.IsDebug() {
		return
	}
	dir := "send"
	if epDesc.Direction == gousb.EndpointDirectionIn {
		dir = "recv"
	}
	d.log.Data.Debugf("%s: 0x%x bytes with ep 0x%x:\n%s", dir, len(data), uint8(epDesc.Address), hexDump(data))
}

// bulkWrite returns the number of non-header bytes written.
func (d *DeviceUSB) bulkWrite(hdr *usbBulkHeader, r io.Reader, size int64) (n int64, err error) {
	packetSize := d.sendEPDesc.MaxPacketSize
	if hdr != nil {
		if size+usbHdrLen > 0xFFFFFFFF {
			hdr.Length = 0xFFFFFFFF
		} else {
			hdr.Length = uint32(size + usbHdrLen)
		}

		packet := make([]byte, 0, packetSize)
		buf := bytes.NewBuffer(packet)
		binary.Write(buf, byteOrder, hdr)
		cpSize := int64(packetSize - usbHdrLen)
		if cpSize > size {
			cpSize = size
		}

		if _, err = io.CopyN(buf, r, cpSize); err != nil {
			return 0, err
		}
		d.dataPrint(d.sendEPDesc, buf.Bytes())
		_, err = d.sendEP.Write(buf.Bytes())
		if err != nil {
			return cpSize, err
		}
		size -= cpSize
		n += cpSize
	}

	var buf [rwBufSize]byte
	var lastTransfer int
	for size > 0 {
		var m int
		toread := buf[:]
		if int64(len(toread)) > size {
			toread = buf[:int(size)]
		}

		m, err = r.Read(toread)
		if err != nil {
			break
		}
		size -= int64(m)

		d.dataPrint(d.sendEPDesc, buf[:m])
		lastTransfer, err = d.sendEP.Write(buf[:m])
		n += int64(lastTransfer)

		if err != nil || lastTransfer == 0 {
			break
		}
	}
	if lastTransfer%packetSize == 0 {
		// write a short packet just to be sure.
		d.sendEP.Write(buf[:0])
	}

	return n, err
}

func (d *DeviceUSB) bulkRead(w io.Writer) (n int64, lastPacket []byte, err error) {
	var buf [rwBufSize]byte
	var lastRead int
	for {
		toread := buf[:]
		lastRead, err = d.fetchEP.Read(toread)
		if err != nil {
			break
		}
		if lastRead > 0 {
			d.dataPrint(d.fetchEPDesc, buf[:lastRead])

			w, err := w.Write(buf[:lastRead])
			n += int64(w)
			if err != nil {
				break
			}
		}
		d.log.PTP.Debugf("bulk read 0x%x bytes.", lastRead)
		if lastRead < len(toread) {
			// short read.
			break
		}
	}
	packetSize := d.fetchEPDesc.MaxPacketSize
	if lastRead%packetSize == 0 {
		// This should be a null packet, but on Linux + XHCI it's actually
		// CONTAINER_OK instead. To be liberal with the XHCI behavior, return
		// the final packet and inspect it in the calling function.
		var nullReadSize int
		nullReadSize, err = d.fetchEP.Read(buf[:])
		d.log.PTP.Debugf("expected null packet, read %d bytes", nullReadSize)
		return n, buf[:nullReadSize], err
	}
	return n, buf[:0], err
}

// Configure is a robust version of OpenSession. On failure, it resets
// the device and reopens the device and the session.
func (d *DeviceUSB) Configure() error {
	if err := d.Open(); err != nil {
		return err
	}

	err := d.OpenSession()
	if IsRC(err, RC_SessionAlreadyOpened) {
		// It's open, so close the session. Fortunately, this
		// even works without a transaction ID.
		d.CloseSession()
		err = d.OpenSession()
	}

	if err != nil {
		d.log.USB.Warningf("OpenSession failed: %v; attempting reset", err)
		d.Close()

		// Give the device some rest.
		time.Sleep(1000 * time.Millisecond)
		if err := d.Open(); err != nil {
			return fmt.Errorf("opening after reset: %w", err)
		}
		if err := d.OpenSession(); err != nil {
			return fmt.Errorf("OpenSession after reset: %w", err)
		}
	}
	return nil
}

func (d *DeviceUSB) OpenSession() error {
	if d.session != nil {
		return fmt.Errorf("session already open")
	}

	var req, rep Container
	req.Code = OC_OpenSession

	sid := newSessionID()
	req.Param = []uint32{sid} // session

	// If opening the session fails, we want to be able to reset
	// the device, so don't do sanity checks afterwards.
	if err := d.runTransaction(&req, &rep, nil, nil, 0); err != nil {
		return err
	}

	d.session = &sessionData{
		tid: 1,
		sid: sid,
	}
	return nil
}

// Closes a sessions. This is done automatically if the device is closed.
func (d *DeviceUSB) CloseSession() error {
	var req, rep Container
	req.Code = OC_CloseSession
	err := d.RunTransaction(&req, &rep, nil, nil, 0)
	d.session = nil
	return err
}

// findEndpoints picks the bulk in, bulk out and interrupt in endpoints
// of a PTP interface setting.
func findEndpoints(s gousb.InterfaceSetting) (send, fetch, event gousb.EndpointDesc, ok bool) {
	var haveSend, haveFetch, haveEvent bool
	for _, ep := range s.Endpoints {
		switch {
		case ep.Direction == gousb.EndpointDirectionIn && ep.TransferType == gousb.TransferTypeInterrupt:
			event, haveEvent = ep, true
		case ep.Direction == gousb.EndpointDirectionIn && ep.TransferType == gousb.TransferTypeBulk:
			fetch, haveFetch = ep, true
		case ep.Direction == gousb.EndpointDirectionOut && ep.TransferType == gousb.TransferTypeBulk:
			send, haveSend = ep, true
		}
	}
	return send, fetch, event, haveSend && haveFetch && haveEvent
}

// FindDevicesUSB opens every USB device exposing a PTP interface.
func FindDevicesUSB(ctx *gousb.Context, lc *log.Children) ([]*DeviceUSB, error) {
	if lc == nil {
		lc = log.Discard()
	}
	var cands []*DeviceUSB
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		for _, cfg := range desc.Configs {
			for _, iface := range cfg.Interfaces {
				for _, s := range iface.AltSettings {
					if s.Class != gousb.ClassPTP {
						continue
					}
					if _, _, _, ok := findEndpoints(s); ok {
						return true
					}
				}
			}
		}
		return false
	})
	if err != nil && len(devs) == 0 {
		return nil, err
	}

	for _, dev := range devs {
		found := false
		for _, cfg := range dev.Desc.Configs {
			for _, iface := range cfg.Interfaces {
				for _, s := range iface.AltSettings {
					send, fetch, event, ok := findEndpoints(s)
					if found || s.Class != gousb.ClassPTP || !ok {
						continue
					}
					found = true
					cands = append(cands, &DeviceUSB{
						dev:            dev,
						devDesc:        dev.Desc,
						sendEPDesc:     send,
						fetchEPDesc:    fetch,
						eventEPDesc:    event,
						iConfiguration: cfg.Number,
						iInterface:     iface.Number,
						iAltSetting:    s.Alternate,
						log:            lc,
					})
				}
			}
		}
		if !found {
			dev.Close()
		}
	}
	return cands, nil
}

// SelectDeviceUSB returns the single PTP device whose ID matches the
// pattern. The device is not yet configured.
func SelectDeviceUSB(ctx *gousb.Context, pattern string, lc *log.Children) (*DeviceUSB, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	cands, err := FindDevicesUSB(ctx, lc)
	if err != nil {
		return nil, err
	}

	var found []*DeviceUSB
	var ids []string
	for _, cand := range cands {
		id := cand.ID()
		if pattern == "" || re.FindString(id) != "" {
			found = append(found, cand)
			ids = append(ids, id)
		} else {
			cand.dev.Close()
		}
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("no PTP devices found")
	}
	if len(found) > 1 {
		for _, f := range found {
			f.dev.Close()
		}
		return nil, fmt.Errorf("ambiguous devices: %s", strings.Join(ids, ", "))
	}

	cand := found[0]
	cand.dev.SetAutoDetach(true)
	return cand, nil
}
