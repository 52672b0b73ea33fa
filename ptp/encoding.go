package ptp

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"
	"unicode/utf16"
)

var byteOrder = binary.LittleEndian

type DecodeHints struct {
	Selector DataTypeSelector
	PropDesc bool // PropDesc is set when decode props
}

func decodeStr(r io.Reader) (string, error) {
	var szSlice [1]byte
	if _, err := io.ReadFull(r, szSlice[:]); err != nil {
		return "", err
	}
	sz := int(szSlice[0])
	if sz == 0 {
		return "", nil
	}
	data := make([]byte, 2*sz)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", fmt.Errorf("underflow: %w", err)
	}
	units := make([]uint16, 0, sz)
	for i := 0; i < 2*sz; i += 2 {
		units = append(units, byteOrder.Uint16(data[i:]))
	}
	if units[len(units)-1] == 0 {
		units = units[:len(units)-1]
	}
	return string(utf16.Decode(units)), nil
}

func encodeStr(buf []byte, s string) ([]byte, error) {
	if s == "" {
		return append(buf[:0], 0), nil
	}

	units := utf16.Encode([]rune(s))
	units = append(units, 0)
	if len(units) > 255 {
		return nil, fmt.Errorf("string too long")
	}

	buf = append(buf[:0], byte(len(units)))
	var char [2]byte
	for _, u := range units {
		byteOrder.PutUint16(char[:], u)
		buf = append(buf, char[0], char[1])
	}
	return buf, nil
}

func encodeStrField(w io.Writer, f reflect.Value) error {
	out := make([]byte, 2*f.Len()+4)
	enc, err := encodeStr(out, f.Interface().(string))
	if err != nil {
		return err
	}
	_, err = w.Write(enc)
	return err
}

func kindSize(k reflect.Kind) (int, error) {
	switch k {
	case reflect.Int8, reflect.Uint8:
		return 1, nil
	case reflect.Int16, reflect.Uint16:
		return 2, nil
	case reflect.Int32, reflect.Uint32:
		return 4, nil
	case reflect.Int64, reflect.Uint64:
		return 8, nil
	}
	return 0, fmt.Errorf("unknown kind %v", k)
}

var nullValue reflect.Value

func decodeArray(r io.Reader, t reflect.Type, hint DecodeHints) (reflect.Value, error) {
	var sz int
	if hint.PropDesc {
		var s uint16
		if err := binary.Read(r, byteOrder, &s); err != nil {
			return nullValue, err
		}
		sz = int(s)
	} else {
		var s uint32
		if err := binary.Read(r, byteOrder, &s); err != nil {
			return nullValue, err
		}
		sz = int(s)
	}

	slice := reflect.MakeSlice(t, 0, sz)
	kind := t.Elem().Kind()
	if kind == reflect.Interface {
		// Values of a data dependent type may be strings, so each one
		// is decoded on its own.
		for i := 0; i < sz; i++ {
			val, err := InstantiateType(hint)
			if err != nil {
				return nullValue, err
			}
			if err := decodeField(r, val, hint); err != nil {
				return nullValue, err
			}
			slice = reflect.Append(slice, val)
		}
		return slice, nil
	}

	ksz, err := kindSize(kind)
	if err != nil {
		return nullValue, err
	}
	data := make([]byte, sz*ksz)
	if _, err := io.ReadFull(r, data); err != nil {
		return nullValue, err
	}

	slice = reflect.MakeSlice(t, sz, sz)
	for i := 0; i < sz; i++ {
		from := data[i*ksz:]
		var val uint64
		switch ksz {
		case 1:
			val = uint64(from[0])
		case 2:
			val = uint64(byteOrder.Uint16(from[0:]))
		case 4:
			val = uint64(byteOrder.Uint32(from[0:]))
		case 8:
			val = byteOrder.Uint64(from[0:])
		}

		switch kind {
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			slice.Index(i).SetInt(signExtend(val, ksz))
		default:
			slice.Index(i).SetUint(val)
		}
	}
	return slice, nil
}

func signExtend(v uint64, size int) int64 {
	shift := uint(64 - 8*size)
	return int64(v<<shift) >> shift
}

func encodeArray(w io.Writer, val reflect.Value, propDesc bool) error {
	if propDesc {
		sz := uint16(val.Len())
		if err := binary.Write(w, byteOrder, &sz); err != nil {
			return err
		}
	} else {
		sz := uint32(val.Len())
		if err := binary.Write(w, byteOrder, &sz); err != nil {
			return err
		}
	}

	for i := 0; i < val.Len(); i++ {
		if err := encodeField(w, val.Index(i), propDesc); err != nil {
			return err
		}
	}
	return nil
}

var timeType = reflect.ValueOf(time.Now()).Type()

const timeFormat = "20060102T150405"
const timeFormatNumTZ = "20060102T150405-0700"

var zeroTime = time.Time{}

func encodeTime(w io.Writer, f reflect.Value) error {
	t := f.Interface().(time.Time)
	s := ""
	if !t.Equal(zeroTime) {
		s = t.Format(timeFormat)
	}

	out := make([]byte, 2*len(s)+3)
	enc, err := encodeStr(out, s)
	if err != nil {
		return err
	}
	_, err = w.Write(enc)
	return err
}

func decodeTime(r io.Reader, f reflect.Value) error {
	s, err := decodeStr(r)
	if err != nil {
		return err
	}
	var t time.Time
	if s != "" {
		// Some firmwares append a fraction or a zone letter.
		if i := strings.IndexByte(s, '.'); i > 0 {
			s = s[:i]
		}
		s = strings.TrimRight(s, "Z")

		t, err = time.Parse(timeFormat, s)
		if err != nil {
			t, err = time.Parse(timeFormatNumTZ, s)
			if err != nil {
				return err
			}
		}
	}
	f.Set(reflect.ValueOf(t))
	return nil
}

func decodeField(r io.Reader, f reflect.Value, hint DecodeHints) error {
	if !f.CanAddr() {
		return fmt.Errorf("canaddr false")
	}

	if f.Type() == timeType {
		return decodeTime(r, f)
	}

	switch f.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return binary.Read(r, byteOrder, f.Addr().Interface())
	case reflect.Array:
		return binary.Read(r, byteOrder, f.Addr().Interface())
	case reflect.String:
		s, err := decodeStr(r)
		if err != nil {
			return err
		}
		f.SetString(s)
	case reflect.Slice:
		sl, err := decodeArray(r, f.Type(), hint)
		if err != nil {
			return err
		}
		f.Set(sl)
	case reflect.Interface:
		val, err := InstantiateType(hint)
		if err != nil {
			return err
		}
		if err := decodeField(r, val, hint); err != nil {
			return err
		}
		f.Set(val)
	default:
		return fmt.Errorf("unimplemented kind %v", f.Kind())
	}
	return nil
}

func encodeField(w io.Writer, f reflect.Value, propDesc bool) error {
	if f.Type() == timeType {
		return encodeTime(w, f)
	}

	switch f.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Array:
		return binary.Write(w, byteOrder, f.Interface())
	case reflect.String:
		return encodeStrField(w, f)
	case reflect.Slice:
		return encodeArray(w, f, propDesc)
	case reflect.Interface, reflect.Ptr:
		if f.IsNil() {
			return nil
		}
		return encodeField(w, f.Elem(), propDesc)
	case reflect.Struct:
		for i := 0; i < f.NumField(); i++ {
			if err := encodeField(w, f.Field(i), propDesc); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unimplemented kind %v", f.Kind())
	}
}

// Decode PTP data stream into data structure.
func Decode(r io.Reader, iface interface{}) error {
	decoder, ok := iface.(Decoder)
	if ok {
		return decoder.Decode(r)
	}
	return decodeWithSelector(r, iface, DecodeHints{Selector: DataTypeSelector(0xfe)})
}

func decodeWithSelector(r io.Reader, iface interface{}, hint DecodeHints) error {
	val := reflect.ValueOf(iface)
	if val.Kind() != reflect.Ptr {
		return fmt.Errorf("need ptr argument: %T", iface)
	}
	val = val.Elem()
	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		if err := decodeField(r, val.Field(i), hint); err != nil {
			return err
		}
		if val.Field(i).Type().Name() == "DataTypeSelector" {
			hint.Selector = val.Field(i).Interface().(DataTypeSelector)
		}
	}
	return nil
}

// Encode PTP data stream into data structure.
func Encode(w io.Writer, iface interface{}) error {
	encoder, ok := iface.(Encoder)
	if ok {
		return encoder.Encode(w)
	}
	return encodeWithHint(w, iface, false)
}

func encodeWithHint(w io.Writer, iface interface{}, propDesc bool) error {
	val := reflect.ValueOf(iface)
	if val.Kind() != reflect.Ptr {
		return fmt.Errorf("need ptr argument: %T", iface)
	}
	val = val.Elem()
	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		if err := encodeField(w, val.Field(i), propDesc); err != nil {
			return err
		}
	}
	return nil
}

// Instantiates an object of wanted type as addressable value.
func InstantiateType(hint DecodeHints) (reflect.Value, error) {
	var val interface{}
	switch hint.Selector {
	case DTC_INT8:
		v := int8(0)
		val = &v
	case DTC_UINT8:
		v := uint8(0)
		val = &v
	case DTC_INT16:
		v := int16(0)
		val = &v
	case DTC_UINT16:
		v := uint16(0)
		val = &v
	case DTC_INT32:
		v := int32(0)
		val = &v
	case DTC_UINT32:
		v := uint32(0)
		val = &v
	case DTC_INT64:
		v := int64(0)
		val = &v
	case DTC_UINT64:
		v := uint64(0)
		val = &v
	case DTC_INT128:
		v := [16]byte{}
		val = &v
	case DTC_UINT128:
		v := [16]byte{}
		val = &v
	case DTC_STR:
		s := ""
		val = &s
	default:
		return nullValue, fmt.Errorf("type not known %#x", uint16(hint.Selector))
	}

	return reflect.ValueOf(val).Elem(), nil
}

func decodePropDescForm(r io.Reader, hint DecodeHints, formFlag uint8) (DataDependentType, error) {
	if formFlag == DPFF_Range {
		f := PropDescRangeForm{}
		err := decodeWithSelector(r, &f, hint)
		return &f, err
	} else if formFlag == DPFF_Enumeration {
		f := PropDescEnumForm{}
		err := decodeWithSelector(r, &f, hint)
		return &f, err
	}
	return nil, nil
}

func (pd *DevicePropDesc) Decode(r io.Reader) error {
	if err := Decode(r, &pd.DevicePropDescFixed); err != nil {
		return err
	}
	form, err := decodePropDescForm(r, DecodeHints{Selector: pd.DataType, PropDesc: true}, pd.FormFlag)
	pd.Form = form
	return err
}

func (pd *DevicePropDesc) Encode(w io.Writer) error {
	if err := Encode(w, &pd.DevicePropDescFixed); err != nil {
		return err
	}
	if pd.Form == nil {
		return nil
	}
	return encodeWithHint(w, pd.Form, true)
}

// Sony converts a standard descriptor into the Sony shape. A settable
// property is taken to be settable right now.
func (pd *DevicePropDesc) Sony() SonyDevicePropDesc {
	s := SonyDevicePropDesc{
		SonyDevicePropDescFixed: SonyDevicePropDescFixed{
			DevicePropertyCode:  pd.DevicePropertyCode,
			DataType:            pd.DataType,
			GetSetSupported:     pd.GetSet,
			GetSetAvailable:     DPGA_SONY_Get,
			FactoryDefaultValue: pd.FactoryDefaultValue,
			CurrentValue:        pd.CurrentValue,
			FormFlag:            pd.FormFlag,
		},
	}
	if pd.GetSet == DPGS_GetSet {
		s.GetSetAvailable = DPGA_SONY_GetSet
	}
	switch f := pd.Form.(type) {
	case *PropDescRangeForm:
		s.Form = f
	case *PropDescEnumForm:
		s.Form = &SonyPropDescEnumForm{Available: f.Values, Supported: f.Values}
	}
	return s
}

func (pd *SonyDevicePropDesc) Decode(r io.Reader) error {
	if err := Decode(r, &pd.SonyDevicePropDescFixed); err != nil {
		return err
	}
	hint := DecodeHints{Selector: pd.DataType, PropDesc: true}
	switch pd.FormFlag {
	case DPFF_Range:
		f := PropDescRangeForm{}
		if err := decodeWithSelector(r, &f, hint); err != nil {
			return err
		}
		pd.Form = &f
	case DPFF_Enumeration:
		f := SonyPropDescEnumForm{}
		if err := decodeWithSelector(r, &f, hint); err != nil {
			return err
		}
		pd.Form = &f
	default:
		pd.Form = nil
	}
	return nil
}

func (pd *SonyDevicePropDesc) Encode(w io.Writer) error {
	if err := Encode(w, &pd.SonyDevicePropDescFixed); err != nil {
		return err
	}
	if pd.Form == nil {
		return nil
	}
	return encodeWithHint(w, pd.Form, true)
}

// Decode reads a u64 count and that many descriptors. Descriptors
// decoded before a malformed one are kept, and the error is returned
// alongside them.
func (l *SonyDevicePropList) Decode(r io.Reader) error {
	var n uint64
	if err := binary.Read(r, byteOrder, &n); err != nil {
		return err
	}
	l.Props = l.Props[:0]
	for i := uint64(0); i < n; i++ {
		var pd SonyDevicePropDesc
		if err := pd.Decode(r); err != nil {
			return fmt.Errorf("property %d of %d: %w", i, n, err)
		}
		l.Props = append(l.Props, pd)
	}
	return nil
}

func (l *SonyDevicePropList) Encode(w io.Writer) error {
	n := uint64(len(l.Props))
	if err := binary.Write(w, byteOrder, &n); err != nil {
		return err
	}
	for i := range l.Props {
		if err := l.Props[i].Encode(w); err != nil {
			return err
		}
	}
	return nil
}

func (v *PropValue) Encode(w io.Writer) error {
	var err error
	switch v.Type {
	case DTC_INT8:
		err = binary.Write(w, byteOrder, int8(v.Value))
	case DTC_UINT8:
		err = binary.Write(w, byteOrder, uint8(v.Value))
	case DTC_INT16:
		err = binary.Write(w, byteOrder, int16(v.Value))
	case DTC_UINT16:
		err = binary.Write(w, byteOrder, uint16(v.Value))
	case DTC_INT32:
		err = binary.Write(w, byteOrder, int32(v.Value))
	case DTC_UINT32:
		err = binary.Write(w, byteOrder, uint32(v.Value))
	case DTC_INT64:
		err = binary.Write(w, byteOrder, v.Value)
	case DTC_UINT64:
		err = binary.Write(w, byteOrder, uint64(v.Value))
	default:
		err = fmt.Errorf("cannot encode %s value", v.Type)
	}
	return err
}

// Size returns the number of payload bytes Encode writes.
func (v *PropValue) Size() int {
	switch v.Type {
	case DTC_INT8, DTC_UINT8:
		return 1
	case DTC_INT16, DTC_UINT16:
		return 2
	case DTC_INT32, DTC_UINT32:
		return 4
	}
	return 8
}

// Int64 converts a decoded data dependent value to int64. Strings and
// 128 bit values are not numeric.
func Int64(v DataDependentType) (int64, bool) {
	switch x := v.(type) {
	case int8:
		return int64(x), true
	case uint8:
		return int64(x), true
	case int16:
		return int64(x), true
	case uint16:
		return int64(x), true
	case int32:
		return int64(x), true
	case uint32:
		return int64(x), true
	case int64:
		return x, true
	case uint64:
		return int64(x), true
	}
	return 0, false
}
