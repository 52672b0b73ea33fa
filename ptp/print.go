package ptp

import (
	"encoding/hex"
	"fmt"
	"strings"
)

func getNames(m map[int]string, vals []uint16) string {
	r := []string{}
	for _, v := range vals {
		n, ok := m[int(v)]
		if !ok {
			n = fmt.Sprintf("0x%x", v)
		}
		r = append(r, n)
	}
	return strings.Join(r, ", ")
}

func hexDump(data []byte) string {
	return hex.Dump(data)
}

func (i *DeviceInfo) String() string {
	return fmt.Sprintf("stdv: %x, ext: %x, ext v%x, ext desc: %q fmod: %x ops: %s evs: %s "+
		"dprops: %s manu: %q model: %q devv: %q serno: %q",
		i.StandardVersion,
		i.VendorExtensionID,
		i.VendorExtensionVersion,
		i.VendorExtensionDesc,
		i.FunctionalMode,
		getNames(OC_names, i.OperationsSupported),
		getNames(EC_names, i.EventsSupported),
		getNames(DPC_names, i.DevicePropertiesSupported),

		i.Manufacturer,
		i.Model,
		i.DeviceVersion,
		i.SerialNumber)
}

func (pd *SonyDevicePropDesc) String() string {
	return fmt.Sprintf("%s %s get/set %d/%d current %v form %d",
		getName(DPC_names, int(pd.DevicePropertyCode)),
		pd.DataType,
		pd.GetSetSupported,
		pd.GetSetAvailable,
		pd.CurrentValue,
		pd.FormFlag)
}
