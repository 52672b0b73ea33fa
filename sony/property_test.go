package sony

import (
	"reflect"
	"testing"

	"github.com/hanwen/go-sonyptp/ptp"
)

func testTable() PropertyTable {
	return Merge(nil, []ptp.SonyDevicePropDesc{
		plainProp(ptp.DPC_SONY_ISO, uint32(100)),
		plainProp(ptp.DPC_FNumber, uint16(280)),
		plainProp(ptp.DPC_FocusMode, uint16(1)),
	}, false)
}

func TestMergeEmptyPartial(t *testing.T) {
	tab := testTable()
	got := Merge(tab, nil, true)
	if !reflect.DeepEqual(got, tab) {
		t.Fatalf("got %v, want %v", got, tab)
	}
}

func TestMergeFull(t *testing.T) {
	got := Merge(testTable(), []ptp.SonyDevicePropDesc{
		plainProp(ptp.DPC_SONY_ShutterSpeed, uint32(0x000100fa)),
	}, false)
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if _, ok := got[ptp.DPC_SONY_ShutterSpeed]; !ok {
		t.Fatalf("shutter speed missing: %v", got)
	}
}

func TestMergePartial(t *testing.T) {
	tab := testTable()
	got := Merge(tab, []ptp.SonyDevicePropDesc{
		plainProp(ptp.DPC_SONY_ShutterSpeed, uint32(0x000100fa)),
	}, true)
	if len(got) != 4 {
		t.Fatalf("disjoint merge: got %d entries, want 4", len(got))
	}

	got = Merge(tab, []ptp.SonyDevicePropDesc{
		plainProp(ptp.DPC_SONY_ISO, uint32(200)),
		plainProp(ptp.DPC_SONY_ShutterSpeed, uint32(0x000100fa)),
	}, true)
	if len(got) != 4 {
		t.Fatalf("overlapping merge: got %d entries, want 4", len(got))
	}
	if v := got[ptp.DPC_SONY_ISO].CurrentValue; v != uint32(200) {
		t.Errorf("ISO %v, want 200", v)
	}
	if v := tab[ptp.DPC_SONY_ISO].CurrentValue; v != uint32(100) {
		t.Errorf("previous table modified: ISO %v", v)
	}
}

func TestMergePartialIntoEmpty(t *testing.T) {
	got := Merge(nil, []ptp.SonyDevicePropDesc{plainProp(ptp.DPC_SONY_ISO, uint32(100))}, true)
	if len(got) != 1 {
		t.Fatalf("got %v", got)
	}
}

func TestListSorted(t *testing.T) {
	l := testTable().List()
	var codes []uint16
	for _, p := range l {
		codes = append(codes, p.DevicePropertyCode)
	}
	want := []uint16{ptp.DPC_FNumber, ptp.DPC_FocusMode, ptp.DPC_SONY_ISO}
	if !reflect.DeepEqual(codes, want) {
		t.Fatalf("got %x, want %x", codes, want)
	}
}
