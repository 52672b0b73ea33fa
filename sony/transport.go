package sony

import (
	"fmt"
	"io"

	"github.com/hanwen/go-sonyptp/log"
	"github.com/hanwen/go-sonyptp/ptp"
)

// Transport is what the camera session needs from the wire. Bank B
// writes trigger device actions (shutter, focus, zoom, movie); bank A
// writes change settings.
type Transport interface {
	// Connect opens the device and runs the Sony handshake.
	Connect() error
	Close() error

	SetProperty(v ptp.PropValue, bankB bool) error
	ReleaseControl(code uint16) error

	// AllProperties fetches every descriptor, or only the changed
	// ones when partial is set.
	AllProperties(partial bool) ([]ptp.SonyDevicePropDesc, error)
	Properties(codes ...uint16) ([]ptp.SonyDevicePropDesc, error)

	ObjectInfo(handle uint32) (*ptp.ObjectInfo, error)
	PartialObject(handle uint32, w io.Writer, offset, size uint32) error

	// Events delivers pushed event containers. It is only valid after
	// Connect.
	Events() <-chan ptp.Container
}

// ptpTransport implements Transport on a ptp.Device.
type ptpTransport struct {
	dev  ptp.Device
	info ptp.DeviceInfo
	log  *log.Children
}

// NewTransport wraps a PTP/IP or USB device.
func NewTransport(dev ptp.Device, lc *log.Children) Transport {
	if lc == nil {
		lc = log.Discard()
	}
	return &ptpTransport{dev: dev, log: lc}
}

func (t *ptpTransport) Connect() error {
	if err := t.dev.Configure(); err != nil {
		return t.connectError(err)
	}
	t.info = ptp.DeviceInfo{}
	if err := ptp.GetDeviceInfo(t.dev, &t.info); err != nil {
		t.dev.Close()
		return fmt.Errorf("GetDeviceInfo: %w", err)
	}
	t.log.PTP.Debugf("device info: %v", &t.info)

	if t.info.SupportsOperation(ptp.OC_SONY_SDIOGetExtDeviceInfo) {
		for _, phase := range []uint32{1, 2} {
			if err := ptp.SDIOConnect(t.dev, phase); err != nil {
				t.dev.Close()
				return fmt.Errorf("SDIOConnect %d: %w", phase, t.connectError(err))
			}
		}
		var ext ptp.SDIOExtDeviceInfo
		if err := ptp.SDIOGetExtDeviceInfo(t.dev, &ext); err != nil {
			t.dev.Close()
			return fmt.Errorf("SDIOGetExtDeviceInfo: %w", t.connectError(err))
		}
		t.info.Update(&ext)
		t.log.PTP.Debugf("extended device info version %#x, %d codes", ext.Version, len(ext.Codes))

		if err := ptp.SDIOConnect(t.dev, 3); err != nil {
			t.log.PTP.Debugf("SDIOConnect 3: %v", err)
		}
	}

	if err := ptp.SonyUnknownHandshake(t.dev); err != nil {
		t.log.PTP.Debugf("handshake %#x: %v", ptp.OC_SONY_Unknown, err)
	}
	return nil
}

func (t *ptpTransport) connectError(err error) error {
	switch {
	case ptp.IsRC(err, ptp.RC_SONY_AnotherSessionOpen):
		return ErrAnotherSessionOpen
	case ptp.IsRC(err, ptp.RC_OperationNotSupported):
		return ErrOperationNotSupported
	}
	return commandError(err)
}

func (t *ptpTransport) Close() error {
	return t.dev.Close()
}

func (t *ptpTransport) Events() <-chan ptp.Container {
	return t.dev.Events()
}

func (t *ptpTransport) SetProperty(v ptp.PropValue, bankB bool) error {
	t.log.PTP.Debugf("set %v (bank B %v)", &v, bankB)
	return commandError(ptp.SetControlDevice(t.dev, bankB, &v))
}

func (t *ptpTransport) ReleaseControl(code uint16) error {
	return commandError(ptp.ReleaseControl(t.dev, code))
}

func (t *ptpTransport) AllProperties(partial bool) ([]ptp.SonyDevicePropDesc, error) {
	props, err := ptp.GetAllDevicePropData(t.dev, partial)
	return props, commandError(err)
}

// Properties fetches the descriptors for codes with the best operation
// the camera offers: the all-properties fetch, the Sony per-property
// fetch, or the standard one.
func (t *ptpTransport) Properties(codes ...uint16) ([]ptp.SonyDevicePropDesc, error) {
	switch {
	case t.info.SupportsOperation(ptp.OC_SONY_GetAllDevicePropData):
		all, err := ptp.GetAllDevicePropData(t.dev, false)
		if err != nil {
			return nil, commandError(err)
		}
		var props []ptp.SonyDevicePropDesc
		for _, p := range all {
			for _, c := range codes {
				if p.DevicePropertyCode == c {
					props = append(props, p)
					break
				}
			}
		}
		if len(props) == 0 {
			return nil, ErrPropCodeNotFound
		}
		return props, nil

	case t.info.SupportsOperation(ptp.OC_SONY_GetDevicePropDesc):
		var props []ptp.SonyDevicePropDesc
		for _, c := range codes {
			var p ptp.SonyDevicePropDesc
			if err := ptp.SonyGetDevicePropDesc(t.dev, c, &p); err != nil {
				t.log.PTP.Debugf("SonyGetDevicePropDesc %#x: %v", c, err)
				continue
			}
			props = append(props, p)
		}
		if len(props) != len(codes) {
			return nil, ErrPropCodeNotFound
		}
		return props, nil

	case t.info.SupportsOperation(ptp.OC_GetDevicePropDesc):
		var props []ptp.SonyDevicePropDesc
		for _, c := range codes {
			var p ptp.DevicePropDesc
			if err := ptp.GetDevicePropDesc(t.dev, c, &p); err != nil {
				t.log.PTP.Debugf("GetDevicePropDesc %#x: %v", c, err)
				continue
			}
			props = append(props, p.Sony())
		}
		if len(props) != len(codes) {
			return nil, ErrPropCodeNotFound
		}
		return props, nil
	}
	return nil, ErrOperationNotSupported
}

func (t *ptpTransport) ObjectInfo(handle uint32) (*ptp.ObjectInfo, error) {
	var info ptp.ObjectInfo
	if err := ptp.GetObjectInfo(t.dev, handle, &info); err != nil {
		return nil, commandError(err)
	}
	return &info, nil
}

func (t *ptpTransport) PartialObject(handle uint32, w io.Writer, offset, size uint32) error {
	return commandError(ptp.GetPartialObject(t.dev, handle, w, offset, size))
}
