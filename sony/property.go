package sony

import (
	"sort"

	"github.com/hanwen/go-sonyptp/ptp"
)

// PropertyTable holds the last descriptor reported for each property
// code.
type PropertyTable map[uint16]ptp.SonyDevicePropDesc

// Merge folds a batch of descriptors into prev and returns the new
// table; prev is not modified. A full batch replaces the table. A
// partial batch replaces matching codes and keeps all others.
func Merge(prev PropertyTable, incoming []ptp.SonyDevicePropDesc, partial bool) PropertyTable {
	t := make(PropertyTable, len(prev)+len(incoming))
	if partial {
		for c, p := range prev {
			t[c] = p
		}
	}
	for _, p := range incoming {
		t[p.DevicePropertyCode] = p
	}
	return t
}

// List returns the descriptors ordered by property code.
func (t PropertyTable) List() []ptp.SonyDevicePropDesc {
	l := make([]ptp.SonyDevicePropDesc, 0, len(t))
	for _, p := range t {
		l = append(l, p)
	}
	sort.Slice(l, func(i, j int) bool {
		return l[i].DevicePropertyCode < l[j].DevicePropertyCode
	})
	return l
}

func enumForm(p *ptp.SonyDevicePropDesc) (*ptp.SonyPropDescEnumForm, bool) {
	f, ok := p.Form.(*ptp.SonyPropDescEnumForm)
	return f, ok && f != nil
}

func rangeForm(p *ptp.SonyDevicePropDesc) (*ptp.PropDescRangeForm, bool) {
	f, ok := p.Form.(*ptp.PropDescRangeForm)
	return f, ok && f != nil
}

func findProperty(props []ptp.SonyDevicePropDesc, code uint16) *ptp.SonyDevicePropDesc {
	for i := range props {
		if props[i].DevicePropertyCode == code {
			return &props[i]
		}
	}
	return nil
}
