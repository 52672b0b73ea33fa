package ptp

import (
	"bytes"
	"io"
	"math/rand"
	"time"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

// avoid 0xFFFFFFFF and 0x00000000 for session IDs.
func newSessionID() uint32 {
	return uint32(rand.Int31()) | 1
}

// GetData runs a transaction with a data-in phase and decodes the
// payload into info.
func GetData(d Device, req *Container, info interface{}) error {
	var buf bytes.Buffer
	var rep Container
	if err := d.RunTransaction(req, &rep, &buf, nil, 0); err != nil {
		return err
	}
	return Decode(&buf, info)
}

// SendData runs a transaction with a data-out phase carrying value.
func SendData(d Device, req *Container, value interface{}) error {
	var buf bytes.Buffer
	if err := Encode(&buf, value); err != nil {
		return err
	}
	var rep Container
	return d.RunTransaction(req, &rep, nil, &buf, int64(buf.Len()))
}

func GetDeviceInfo(d Device, info *DeviceInfo) error {
	var req Container
	req.Code = OC_GetDeviceInfo
	return GetData(d, &req, info)
}

func GetDevicePropDesc(d Device, propCode uint16, info *DevicePropDesc) error {
	var req Container
	req.Code = OC_GetDevicePropDesc
	req.Param = []uint32{uint32(propCode)}
	return GetData(d, &req, info)
}

func GetObjectInfo(d Device, handle uint32, info *ObjectInfo) error {
	var req Container
	req.Code = OC_GetObjectInfo
	req.Param = []uint32{handle}
	return GetData(d, &req, info)
}

func GetPartialObject(d Device, handle uint32, w io.Writer, offset uint32, size uint32) error {
	var req, rep Container
	req.Code = OC_GetPartialObject
	req.Param = []uint32{handle, offset, size}
	return d.RunTransaction(&req, &rep, w, nil, 0)
}

// SDIOConnect runs one phase of the Sony connect handshake.
func SDIOConnect(d Device, phase uint32) error {
	var req, rep Container
	req.Code = OC_SONY_SDIOConnect
	req.Param = []uint32{phase, 0, 0}
	return d.RunTransaction(&req, &rep, &NullWriter{}, nil, 0)
}

// SDIOGetExtDeviceInfo fetches the extended code lists. The parameter is
// the protocol version the initiator speaks.
func SDIOGetExtDeviceInfo(d Device, info *SDIOExtDeviceInfo) error {
	var req Container
	req.Code = OC_SONY_SDIOGetExtDeviceInfo
	req.Param = []uint32{0x12c}
	return GetData(d, &req, info)
}

// SonyUnknownHandshake sends the undocumented operation the vendor
// application issues once connected.
func SonyUnknownHandshake(d Device) error {
	var req, rep Container
	req.Code = OC_SONY_Unknown
	return d.RunTransaction(&req, &rep, &NullWriter{}, nil, 0)
}

// SonyGetDevicePropDesc fetches a single descriptor in Sony layout.
func SonyGetDevicePropDesc(d Device, propCode uint16, info *SonyDevicePropDesc) error {
	var req Container
	req.Code = OC_SONY_GetDevicePropDesc
	req.Param = []uint32{uint32(propCode)}
	return GetData(d, &req, info)
}

// GetAllDevicePropData fetches every descriptor, or only the ones
// changed since the previous call when partial is set. Descriptors
// decoded before a malformed entry are returned together with the
// decode error.
func GetAllDevicePropData(d Device, partial bool) ([]SonyDevicePropDesc, error) {
	var req Container
	req.Code = OC_SONY_GetAllDevicePropData
	req.Param = []uint32{0}
	if partial {
		req.Param[0] = 1
	}
	var list SonyDevicePropList
	err := GetData(d, &req, &list)
	return list.Props, err
}

// SetControlDevice writes a property value with SetControlDeviceA
// (settings) or SetControlDeviceB (device actions).
func SetControlDevice(d Device, bankB bool, v *PropValue) error {
	var req Container
	req.Code = OC_SONY_SetControlDeviceA
	if bankB {
		req.Code = OC_SONY_SetControlDeviceB
	}
	req.Param = []uint32{uint32(v.Code)}
	return SendData(d, &req, v)
}

// ReleaseControl issues SetControlDeviceB for code with an announced but
// empty data phase. Zooming is stopped this way.
func ReleaseControl(d Device, code uint16) error {
	var req, rep Container
	req.Code = OC_SONY_SetControlDeviceB
	req.Param = []uint32{uint32(code)}
	return d.RunTransaction(&req, &rep, nil, &bytes.Buffer{}, 0)
}
