package ptp

// Sony SDIO extension codes. These overlap with other vendors' ranges, so
// they live outside the generated tables and are registered into the name
// maps at init time.

// operation code
const OC_SONY_SDIOConnect = 0x9201
const OC_SONY_SDIOGetExtDeviceInfo = 0x9202
const OC_SONY_GetDevicePropDesc = 0x9203
const OC_SONY_GetDevicePropertyValue = 0x9204
const OC_SONY_SetControlDeviceA = 0x9205
const OC_SONY_GetControlDeviceDesc = 0x9206
const OC_SONY_SetControlDeviceB = 0x9207
const OC_SONY_GetAllDevicePropData = 0x9209
const OC_SONY_Unknown = 0x920D

// event code
const EC_SONY_ObjectAdded = 0xC201
const EC_SONY_ObjectRemoved = 0xC202
const EC_SONY_PropertyChanged = 0xC203

// return code
const RC_SONY_AnotherSessionOpen = 0xA101

// device property code
const DPC_SONY_DPCCompensation = 0xD200
const DPC_SONY_DRangeOptimize = 0xD201
const DPC_SONY_ImageSize = 0xD203
const DPC_SONY_ShutterSpeed = 0xD20D
const DPC_SONY_Unknown = 0xD20E
const DPC_SONY_ColorTemp = 0xD20F
const DPC_SONY_CCFilter = 0xD210
const DPC_SONY_AspectRatio = 0xD211
const DPC_SONY_FocusFound = 0xD213
const DPC_SONY_ObjectInMemory = 0xD215
const DPC_SONY_ExposeIndex = 0xD216
const DPC_SONY_BatteryLevel = 0xD218
const DPC_SONY_PictureEffect = 0xD21B
const DPC_SONY_ABFilter = 0xD21C
const DPC_SONY_ISO = 0xD21E
const DPC_SONY_ExposureSettingsLockStatus = 0xD22A
const DPC_SONY_MovieFormat = 0xD241
const DPC_SONY_MovieQuality = 0xD242
const DPC_SONY_StorageState = 0xD248
const DPC_SONY_RemainingShots = 0xD249
const DPC_SONY_RemainingCaptureTime = 0xD24A
const DPC_SONY_StillQuality = 0xD252
const DPC_SONY_StillFormat = 0xD253
const DPC_SONY_ExposureProgramModeControl = 0xD25A
const DPC_SONY_ZoomPosition = 0xD25D
const DPC_SONY_RecordingDuration = 0xD261
const DPC_SONY_LiveViewQuality = 0xD26A
const DPC_SONY_LiveViewURL = 0xD278
const DPC_SONY_AutoFocus = 0xD2C1
const DPC_SONY_Capture = 0xD2C2
const DPC_SONY_StillImage = 0xD2C7
const DPC_SONY_Movie = 0xD2C8
const DPC_SONY_ExposureSettingsLock = 0xD2D5
const DPC_SONY_PerformZoom = 0xD2DD

// Getter/setter availability as reported in Sony descriptors.
const DPGS_SONY_Get = 0x00
const DPGS_SONY_GetSet = 0x01

const DPGA_SONY_Unavailable = 0x00
const DPGA_SONY_GetSet = 0x01
const DPGA_SONY_Get = 0x02

// Sony descriptors use this data type for strings.
const DTC_SONY_STR = 0xFFFF

func init() {
	for k, v := range map[int]string{
		OC_SONY_SDIOConnect:            "SONY_SDIOConnect",
		OC_SONY_SDIOGetExtDeviceInfo:   "SONY_SDIOGetExtDeviceInfo",
		OC_SONY_GetDevicePropDesc:      "SONY_GetDevicePropDesc",
		OC_SONY_GetDevicePropertyValue: "SONY_GetDevicePropertyValue",
		OC_SONY_SetControlDeviceA:      "SONY_SetControlDeviceA",
		OC_SONY_GetControlDeviceDesc:   "SONY_GetControlDeviceDesc",
		OC_SONY_SetControlDeviceB:      "SONY_SetControlDeviceB",
		OC_SONY_GetAllDevicePropData:   "SONY_GetAllDevicePropData",
		OC_SONY_Unknown:                "SONY_Unknown",
	} {
		OC_names[k] = v
	}

	for k, v := range map[int]string{
		EC_SONY_ObjectAdded:     "SONY_ObjectAdded",
		EC_SONY_ObjectRemoved:   "SONY_ObjectRemoved",
		EC_SONY_PropertyChanged: "SONY_PropertyChanged",
	} {
		EC_names[k] = v
	}

	RC_names[RC_SONY_AnotherSessionOpen] = "SONY_AnotherSessionOpen"

	for k, v := range map[int]string{
		DPC_SONY_DPCCompensation:            "SONY_DPCCompensation",
		DPC_SONY_DRangeOptimize:             "SONY_DRangeOptimize",
		DPC_SONY_ImageSize:                  "SONY_ImageSize",
		DPC_SONY_ShutterSpeed:               "SONY_ShutterSpeed",
		DPC_SONY_Unknown:                    "SONY_Unknown",
		DPC_SONY_ColorTemp:                  "SONY_ColorTemp",
		DPC_SONY_CCFilter:                   "SONY_CCFilter",
		DPC_SONY_AspectRatio:                "SONY_AspectRatio",
		DPC_SONY_FocusFound:                 "SONY_FocusFound",
		DPC_SONY_ObjectInMemory:             "SONY_ObjectInMemory",
		DPC_SONY_ExposeIndex:                "SONY_ExposeIndex",
		DPC_SONY_BatteryLevel:               "SONY_BatteryLevel",
		DPC_SONY_PictureEffect:              "SONY_PictureEffect",
		DPC_SONY_ABFilter:                   "SONY_ABFilter",
		DPC_SONY_ISO:                        "SONY_ISO",
		DPC_SONY_ExposureSettingsLockStatus: "SONY_ExposureSettingsLockStatus",
		DPC_SONY_MovieFormat:                "SONY_MovieFormat",
		DPC_SONY_MovieQuality:               "SONY_MovieQuality",
		DPC_SONY_StorageState:               "SONY_StorageState",
		DPC_SONY_RemainingShots:             "SONY_RemainingShots",
		DPC_SONY_RemainingCaptureTime:       "SONY_RemainingCaptureTime",
		DPC_SONY_StillQuality:               "SONY_StillQuality",
		DPC_SONY_StillFormat:                "SONY_StillFormat",
		DPC_SONY_ExposureProgramModeControl: "SONY_ExposureProgramModeControl",
		DPC_SONY_ZoomPosition:               "SONY_ZoomPosition",
		DPC_SONY_RecordingDuration:          "SONY_RecordingDuration",
		DPC_SONY_LiveViewQuality:            "SONY_LiveViewQuality",
		DPC_SONY_LiveViewURL:                "SONY_LiveViewURL",
		DPC_SONY_AutoFocus:                  "SONY_AutoFocus",
		DPC_SONY_Capture:                    "SONY_Capture",
		DPC_SONY_StillImage:                 "SONY_StillImage",
		DPC_SONY_Movie:                      "SONY_Movie",
		DPC_SONY_ExposureSettingsLock:       "SONY_ExposureSettingsLock",
		DPC_SONY_PerformZoom:                "SONY_PerformZoom",
	} {
		DPC_names[k] = v
	}
}

// PTP/IP packet types.
const (
	PTPIP_InitCommandRequest = 1
	PTPIP_InitCommandAck     = 2
	PTPIP_InitEventRequest   = 3
	PTPIP_InitEventAck       = 4
	PTPIP_InitFail           = 5
	PTPIP_CmdRequest         = 6
	PTPIP_CmdResponse        = 7
	PTPIP_Event              = 8
	PTPIP_StartData          = 9
	PTPIP_Data               = 10
	PTPIP_Cancel             = 11
	PTPIP_EndData            = 12
	PTPIP_Ping               = 13
	PTPIP_Pong               = 14
)

var PTPIP_names = map[int]string{
	PTPIP_InitCommandRequest: "InitCommandRequest",
	PTPIP_InitCommandAck:     "InitCommandAck",
	PTPIP_InitEventRequest:   "InitEventRequest",
	PTPIP_InitEventAck:       "InitEventAck",
	PTPIP_InitFail:           "InitFail",
	PTPIP_CmdRequest:         "CmdRequest",
	PTPIP_CmdResponse:        "CmdResponse",
	PTPIP_Event:              "Event",
	PTPIP_StartData:          "StartData",
	PTPIP_Data:               "Data",
	PTPIP_Cancel:             "Cancel",
	PTPIP_EndData:            "EndData",
	PTPIP_Ping:               "Ping",
	PTPIP_Pong:               "Pong",
}

// Data phase values of a PTP/IP command request.
const (
	PTPIP_DataPhaseNone = 1
	PTPIP_DataPhaseOut  = 2
)

const PTPIP_DefaultPort = 15740
const PTPIP_ProtocolVersion = 0x00010000
