// The ptp package defines data types and procedures for communicating
// with a PTP camera, either over PTP/IP or over USB. Beyond the
// communication primitive, it implements the Sony SDIO operations in the
// file ops.go.
package ptp

import (
	"fmt"
	"io"
	"time"
)

// Container is the data type for sending/receiving PTP requests and
// responses.
type Container struct {
	Code          uint16
	SessionID     uint32
	TransactionID uint32
	Param         []uint32
}

type DeviceInfo struct {
	StandardVersion           uint16
	VendorExtensionID         uint32
	VendorExtensionVersion    uint16
	VendorExtensionDesc       string
	FunctionalMode            uint16
	OperationsSupported       []uint16
	EventsSupported           []uint16
	DevicePropertiesSupported []uint16
	CaptureFormats            []uint16
	PlaybackFormats           []uint16
	Manufacturer              string
	Model                     string
	DeviceVersion             string
	SerialNumber              string
}

func hasCode(codes []uint16, code uint16) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// SupportsOperation reports whether the device listed the operation code.
func (i *DeviceInfo) SupportsOperation(code uint16) bool {
	return hasCode(i.OperationsSupported, code)
}

// SupportsEvent reports whether the device listed the event code.
func (i *DeviceInfo) SupportsEvent(code uint16) bool {
	return hasCode(i.EventsSupported, code)
}

// Update folds the codes of a Sony extended device info into the
// standard lists. The code class is taken from bits 12-14.
func (i *DeviceInfo) Update(ext *SDIOExtDeviceInfo) {
	for _, c := range ext.Codes {
		switch c & 0x7000 {
		case 0x1000:
			if !hasCode(i.OperationsSupported, c) {
				i.OperationsSupported = append(i.OperationsSupported, c)
			}
		case 0x4000:
			if !hasCode(i.EventsSupported, c) {
				i.EventsSupported = append(i.EventsSupported, c)
			}
		case 0x5000:
			if !hasCode(i.DevicePropertiesSupported, c) {
				i.DevicePropertiesSupported = append(i.DevicePropertiesSupported, c)
			}
		}
	}
}

// SDIOExtDeviceInfo is the payload of OC_SONY_SDIOGetExtDeviceInfo.
type SDIOExtDeviceInfo struct {
	Version uint16
	Codes   []uint16
}

// DataTypeSelector is the special type to indicate the actual type of
// fields of DataDependentType.
type DataTypeSelector uint16
type DataDependentType interface{}

func (s DataTypeSelector) String() string {
	n, ok := DTC_names[int(s)]
	if ok {
		return n
	}
	return fmt.Sprintf("DTC %#x", uint16(s))
}

// The Decoder interface is for types that need special decoding
// support, eg. the ones using DataDependentType.
type Decoder interface {
	Decode(r io.Reader) error
}

type Encoder interface {
	Encode(w io.Writer) error
}

type PropDescRangeForm struct {
	MinimumValue DataDependentType
	MaximumValue DataDependentType
	StepSize     DataDependentType
}

type PropDescEnumForm struct {
	Values []DataDependentType
}

type DevicePropDescFixed struct {
	DevicePropertyCode  uint16
	DataType            DataTypeSelector
	GetSet              uint8
	FactoryDefaultValue DataDependentType
	CurrentValue        DataDependentType
	FormFlag            uint8
}

// DevicePropDesc is the standard PTP property descriptor.
type DevicePropDesc struct {
	DevicePropDescFixed
	Form interface{}
}

// SonyPropDescEnumForm carries both value lists Sony reports for an
// enumerated property.
type SonyPropDescEnumForm struct {
	Available []DataDependentType
	Supported []DataDependentType
}

type SonyDevicePropDescFixed struct {
	DevicePropertyCode  uint16
	DataType            DataTypeSelector
	GetSetSupported     uint8
	GetSetAvailable     uint8
	FactoryDefaultValue DataDependentType
	CurrentValue        DataDependentType
	FormFlag            uint8
}

// SonyDevicePropDesc is the descriptor returned by the Sony SDIO
// property operations. Form is nil, *PropDescRangeForm or
// *SonyPropDescEnumForm.
type SonyDevicePropDesc struct {
	SonyDevicePropDescFixed
	Form interface{}
}

// SonyDevicePropList is the payload of OC_SONY_GetAllDevicePropData.
type SonyDevicePropList struct {
	Props []SonyDevicePropDesc
}

type ObjectInfo struct {
	StorageID           uint32
	ObjectFormat        uint16
	ProtectionStatus    uint16
	CompressedSize      uint32
	ThumbFormat         uint16
	ThumbCompressedSize uint32
	ThumbPixWidth       uint32
	ThumbPixHeight      uint32
	ImagePixWidth       uint32
	ImagePixHeight      uint32
	ImageBitDepth       uint32
	ParentObject        uint32
	AssociationType     uint16
	AssociationDesc     uint32
	SequenceNumber      uint32
	Filename            string
	CaptureDate         time.Time
	ModificationDate    time.Time
	Keywords            string
}

// PropValue is a single property value written with one of the Sony
// control operations. Value is truncated to the width of Type.
type PropValue struct {
	Code  uint16
	Type  DataTypeSelector
	Value int64
}

func (v *PropValue) String() string {
	return fmt.Sprintf("%s=%#x (%s)", getName(DPC_names, int(v.Code)), v.Value, v.Type)
}

type Uint16Value struct {
	Value uint16
}

type StringValue struct {
	Value string
}

// USB stuff.

type usbBulkHeader struct {
	Length        uint32
	Type          uint16
	Code          uint16
	TransactionID uint32
}

type usbBulkContainer struct {
	usbBulkHeader
	Param [5]uint32
}

const usbHdrLen = 2*2 + 2*4
const usbBulkLen = 5*4 + usbHdrLen
