package sony

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/hanwen/go-sonyptp/ptp"
)

type setCall struct {
	Value ptp.PropValue
	BankB bool
}

// fakeTransport is an in-memory camera. AllProperties returns the
// queued batches in order and repeats the last one.
type fakeTransport struct {
	mu sync.Mutex

	batches  [][]ptp.SonyDevicePropDesc
	partials []bool
	allErr   error

	props   map[uint16]ptp.SonyDevicePropDesc
	fetched [][]uint16

	sets     []setCall
	setErrs  map[uint16]error
	released []uint16
	onSet    func(v ptp.PropValue, bankB bool)

	connectErrs []error
	connects    int

	objects    map[uint32]*ptp.ObjectInfo
	objectData map[uint32][]byte
	onPartial  func(handle uint32)

	events chan ptp.Container
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		props:      map[uint16]ptp.SonyDevicePropDesc{},
		setErrs:    map[uint16]error{},
		objects:    map[uint32]*ptp.ObjectInfo{},
		objectData: map[uint32][]byte{},
		events:     make(chan ptp.Container, 16),
	}
}

func (f *fakeTransport) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if len(f.connectErrs) > 0 {
		err := f.connectErrs[0]
		f.connectErrs = f.connectErrs[1:]
		return err
	}
	return nil
}

func (f *fakeTransport) Close() error {
	return nil
}

func (f *fakeTransport) SetProperty(v ptp.PropValue, bankB bool) error {
	f.mu.Lock()
	f.sets = append(f.sets, setCall{v, bankB})
	err := f.setErrs[v.Code]
	hook := f.onSet
	f.mu.Unlock()

	if hook != nil {
		hook(v, bankB)
	}
	return err
}

func (f *fakeTransport) ReleaseControl(code uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, code)
	return nil
}

func (f *fakeTransport) AllProperties(partial bool) ([]ptp.SonyDevicePropDesc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.partials = append(f.partials, partial)
	if f.allErr != nil {
		return nil, f.allErr
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	b := f.batches[0]
	if len(f.batches) > 1 {
		f.batches = f.batches[1:]
	}
	return b, nil
}

func (f *fakeTransport) Properties(codes ...uint16) ([]ptp.SonyDevicePropDesc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, codes)
	var props []ptp.SonyDevicePropDesc
	for _, c := range codes {
		if p, ok := f.props[c]; ok {
			props = append(props, p)
		}
	}
	if len(props) == 0 {
		return nil, ErrPropCodeNotFound
	}
	return props, nil
}

func (f *fakeTransport) ObjectInfo(handle uint32) (*ptp.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.objects[handle]
	if !ok {
		return nil, &CommandFailedError{Code: ptp.RCError(ptp.RC_InvalidObjectHandle)}
	}
	return info, nil
}

func (f *fakeTransport) PartialObject(handle uint32, w io.Writer, offset, size uint32) error {
	f.mu.Lock()
	data := f.objectData[handle]
	hook := f.onPartial
	f.mu.Unlock()
	if int(offset+size) > len(data) {
		size = uint32(len(data)) - offset
	}
	if _, err := w.Write(data[offset : offset+size]); err != nil {
		return err
	}
	if hook != nil {
		hook(handle)
	}
	return nil
}

func (f *fakeTransport) Events() <-chan ptp.Container {
	return f.events
}

func (f *fakeTransport) setProp(p ptp.SonyDevicePropDesc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.props[p.DevicePropertyCode] = p
}

func (f *fakeTransport) setCalls() []setCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]setCall(nil), f.sets...)
}

// fetchedCode reports whether a targeted fetch asked for code.
func (f *fakeTransport) fetchedCode(code uint16) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, codes := range f.fetched {
		for _, c := range codes {
			if c == code {
				return true
			}
		}
	}
	return false
}

func values(vs ...interface{}) []ptp.DataDependentType {
	l := make([]ptp.DataDependentType, len(vs))
	for i, v := range vs {
		l[i] = v
	}
	return l
}

func enumProp(code uint16, cur interface{}, avail, supp []ptp.DataDependentType) ptp.SonyDevicePropDesc {
	return ptp.SonyDevicePropDesc{
		SonyDevicePropDescFixed: ptp.SonyDevicePropDescFixed{
			DevicePropertyCode: code,
			GetSetSupported:    ptp.DPGS_SONY_GetSet,
			GetSetAvailable:    ptp.DPGA_SONY_GetSet,
			CurrentValue:       cur,
			FormFlag:           ptp.DPFF_Enumeration,
		},
		Form: &ptp.SonyPropDescEnumForm{Available: avail, Supported: supp},
	}
}

func rangeProp(code uint16, cur, min, max, step interface{}) ptp.SonyDevicePropDesc {
	return ptp.SonyDevicePropDesc{
		SonyDevicePropDescFixed: ptp.SonyDevicePropDescFixed{
			DevicePropertyCode: code,
			GetSetSupported:    ptp.DPGS_SONY_GetSet,
			GetSetAvailable:    ptp.DPGA_SONY_GetSet,
			CurrentValue:       cur,
			FormFlag:           ptp.DPFF_Range,
		},
		Form: &ptp.PropDescRangeForm{MinimumValue: min, MaximumValue: max, StepSize: step},
	}
}

func plainProp(code uint16, cur interface{}) ptp.SonyDevicePropDesc {
	return ptp.SonyDevicePropDesc{
		SonyDevicePropDescFixed: ptp.SonyDevicePropDescFixed{
			DevicePropertyCode: code,
			GetSetSupported:    ptp.DPGS_SONY_Get,
			GetSetAvailable:    ptp.DPGA_SONY_Get,
			CurrentValue:       cur,
		},
	}
}

func stillModeProp(cur StillCaptureMode, avail ...StillCaptureMode) ptp.SonyDevicePropDesc {
	var l []ptp.DataDependentType
	for _, m := range avail {
		l = append(l, uint32(m))
	}
	return enumProp(ptp.DPC_StillCaptureMode, uint32(cur), l, l)
}

func exposureProp(cur uint32, avail ...uint32) ptp.SonyDevicePropDesc {
	var l []ptp.DataDependentType
	for _, m := range avail {
		l = append(l, m)
	}
	return enumProp(ptp.DPC_ExposureProgramMode, cur, l, l)
}

func focusProp(cur uint16) ptp.SonyDevicePropDesc {
	return enumProp(ptp.DPC_FocusMode, cur, values(uint16(1), uint16(2)), values(uint16(1), uint16(2)))
}

func testOptions(t *testing.T) Options {
	return Options{
		FocusTimeout:  200 * time.Millisecond,
		ObjectTimeout: 300 * time.Millisecond,
		PollInterval:  5 * time.Millisecond,
		DownloadDir:   t.TempDir(),
		LiveViewURL:   "http://camera/liveview",
	}
}

// connectedSession returns a session on f that has fetched batch.
func connectedSession(t *testing.T, f *fakeTransport, batch ...ptp.SonyDevicePropDesc) *Session {
	f.batches = [][]ptp.SonyDevicePropDesc{batch}
	s := NewSession(f, testOptions(t), nil)
	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
