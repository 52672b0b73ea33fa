package ptp

// DO NOT EDIT : generated automatically

// device property code
const DPC_Undefined = 0x5000
const DPC_BatteryLevel = 0x5001
const DPC_FunctionalMode = 0x5002
const DPC_ImageSize = 0x5003
const DPC_CompressionSetting = 0x5004
const DPC_WhiteBalance = 0x5005
const DPC_RGBGain = 0x5006
const DPC_FNumber = 0x5007
const DPC_FocalLength = 0x5008
const DPC_FocusDistance = 0x5009
const DPC_FocusMode = 0x500A
const DPC_ExposureMeteringMode = 0x500B
const DPC_FlashMode = 0x500C
const DPC_ExposureTime = 0x500D
const DPC_ExposureProgramMode = 0x500E
const DPC_ExposureIndex = 0x500F
const DPC_ExposureBiasCompensation = 0x5010
const DPC_DateTime = 0x5011
const DPC_CaptureDelay = 0x5012
const DPC_StillCaptureMode = 0x5013
const DPC_Contrast = 0x5014
const DPC_Sharpness = 0x5015
const DPC_DigitalZoom = 0x5016
const DPC_EffectMode = 0x5017
const DPC_BurstNumber = 0x5018
const DPC_BurstInterval = 0x5019
const DPC_TimelapseNumber = 0x501A
const DPC_TimelapseInterval = 0x501B
const DPC_FocusMeteringMode = 0x501C
const DPC_UploadURL = 0x501D
const DPC_Artist = 0x501E
const DPC_CopyrightInfo = 0x501F

var DPC_names = map[int]string{0x5000: "Undefined",
	0x5001: "BatteryLevel",
	0x5002: "FunctionalMode",
	0x5003: "ImageSize",
	0x5004: "CompressionSetting",
	0x5005: "WhiteBalance",
	0x5006: "RGBGain",
	0x5007: "FNumber",
	0x5008: "FocalLength",
	0x5009: "FocusDistance",
	0x500A: "FocusMode",
	0x500B: "ExposureMeteringMode",
	0x500C: "FlashMode",
	0x500D: "ExposureTime",
	0x500E: "ExposureProgramMode",
	0x500F: "ExposureIndex",
	0x5010: "ExposureBiasCompensation",
	0x5011: "DateTime",
	0x5012: "CaptureDelay",
	0x5013: "StillCaptureMode",
	0x5014: "Contrast",
	0x5015: "Sharpness",
	0x5016: "DigitalZoom",
	0x5017: "EffectMode",
	0x5018: "BurstNumber",
	0x5019: "BurstInterval",
	0x501A: "TimelapseNumber",
	0x501B: "TimelapseInterval",
	0x501C: "FocusMeteringMode",
	0x501D: "UploadURL",
	0x501E: "Artist",
	0x501F: "CopyrightInfo",
}

// device property form field
const DPFF_None = 0x00
const DPFF_Range = 0x01
const DPFF_Enumeration = 0x02

var DPFF_names = map[int]string{0x00: "None",
	0x01: "Range",
	0x02: "Enumeration",
}

// device property get/set
const DPGS_Get = 0x00
const DPGS_GetSet = 0x01

var DPGS_names = map[int]string{0x00: "Get",
	0x01: "GetSet",
}

// data type code
const DTC_UNDEF = 0x0000
const DTC_INT8 = 0x0001
const DTC_UINT8 = 0x0002
const DTC_INT16 = 0x0003
const DTC_UINT16 = 0x0004
const DTC_INT32 = 0x0005
const DTC_UINT32 = 0x0006
const DTC_INT64 = 0x0007
const DTC_UINT64 = 0x0008
const DTC_INT128 = 0x0009
const DTC_UINT128 = 0x000A
const DTC_STR = 0xFFFF

var DTC_names = map[int]string{0x0000: "UNDEF",
	0x0001: "INT8",
	0x0002: "UINT8",
	0x0003: "INT16",
	0x0004: "UINT16",
	0x0005: "INT32",
	0x0006: "UINT32",
	0x0007: "INT64",
	0x0008: "UINT64",
	0x0009: "INT128",
	0x000A: "UINT128",
	0xFFFF: "STR",
}

// event code
const EC_Undefined = 0x4000
const EC_CancelTransaction = 0x4001
const EC_ObjectAdded = 0x4002
const EC_ObjectRemoved = 0x4003
const EC_StoreAdded = 0x4004
const EC_StoreRemoved = 0x4005
const EC_DevicePropChanged = 0x4006
const EC_ObjectInfoChanged = 0x4007
const EC_DeviceInfoChanged = 0x4008
const EC_RequestObjectTransfer = 0x4009
const EC_StoreFull = 0x400A
const EC_DeviceReset = 0x400B
const EC_StorageInfoChanged = 0x400C
const EC_CaptureComplete = 0x400D
const EC_UnreportedStatus = 0x400E

var EC_names = map[int]string{0x4000: "Undefined",
	0x4001: "CancelTransaction",
	0x4002: "ObjectAdded",
	0x4003: "ObjectRemoved",
	0x4004: "StoreAdded",
	0x4005: "StoreRemoved",
	0x4006: "DevicePropChanged",
	0x4007: "ObjectInfoChanged",
	0x4008: "DeviceInfoChanged",
	0x4009: "RequestObjectTransfer",
	0x400A: "StoreFull",
	0x400B: "DeviceReset",
	0x400C: "StorageInfoChanged",
	0x400D: "CaptureComplete",
	0x400E: "UnreportedStatus",
}

// operation code
const OC_Undefined = 0x1000
const OC_GetDeviceInfo = 0x1001
const OC_OpenSession = 0x1002
const OC_CloseSession = 0x1003
const OC_GetStorageIDs = 0x1004
const OC_GetStorageInfo = 0x1005
const OC_GetNumObjects = 0x1006
const OC_GetObjectHandles = 0x1007
const OC_GetObjectInfo = 0x1008
const OC_GetObject = 0x1009
const OC_GetThumb = 0x100A
const OC_DeleteObject = 0x100B
const OC_SendObjectInfo = 0x100C
const OC_SendObject = 0x100D
const OC_InitiateCapture = 0x100E
const OC_FormatStore = 0x100F
const OC_ResetDevice = 0x1010
const OC_SelfTest = 0x1011
const OC_SetObjectProtection = 0x1012
const OC_PowerDown = 0x1013
const OC_GetDevicePropDesc = 0x1014
const OC_GetDevicePropValue = 0x1015
const OC_SetDevicePropValue = 0x1016
const OC_ResetDevicePropValue = 0x1017
const OC_TerminateOpenCapture = 0x1018
const OC_MoveObject = 0x1019
const OC_CopyObject = 0x101A
const OC_GetPartialObject = 0x101B
const OC_InitiateOpenCapture = 0x101C

var OC_names = map[int]string{0x1000: "Undefined",
	0x1001: "GetDeviceInfo",
	0x1002: "OpenSession",
	0x1003: "CloseSession",
	0x1004: "GetStorageIDs",
	0x1005: "GetStorageInfo",
	0x1006: "GetNumObjects",
	0x1007: "GetObjectHandles",
	0x1008: "GetObjectInfo",
	0x1009: "GetObject",
	0x100A: "GetThumb",
	0x100B: "DeleteObject",
	0x100C: "SendObjectInfo",
	0x100D: "SendObject",
	0x100E: "InitiateCapture",
	0x100F: "FormatStore",
	0x1010: "ResetDevice",
	0x1011: "SelfTest",
	0x1012: "SetObjectProtection",
	0x1013: "PowerDown",
	0x1014: "GetDevicePropDesc",
	0x1015: "GetDevicePropValue",
	0x1016: "SetDevicePropValue",
	0x1017: "ResetDevicePropValue",
	0x1018: "TerminateOpenCapture",
	0x1019: "MoveObject",
	0x101A: "CopyObject",
	0x101B: "GetPartialObject",
	0x101C: "InitiateOpenCapture",
}

// return code
const RC_Undefined = 0x2000
const RC_OK = 0x2001
const RC_GeneralError = 0x2002
const RC_SessionNotOpen = 0x2003
const RC_InvalidTransactionID = 0x2004
const RC_OperationNotSupported = 0x2005
const RC_ParameterNotSupported = 0x2006
const RC_IncompleteTransfer = 0x2007
const RC_InvalidStorageId = 0x2008
const RC_InvalidObjectHandle = 0x2009
const RC_DevicePropNotSupported = 0x200A
const RC_InvalidObjectFormatCode = 0x200B
const RC_StoreFull = 0x200C
const RC_ObjectWriteProtected = 0x200D
const RC_StoreReadOnly = 0x200E
const RC_AccessDenied = 0x200F
const RC_NoThumbnailPresent = 0x2010
const RC_SelfTestFailed = 0x2011
const RC_PartialDeletion = 0x2012
const RC_StoreNotAvailable = 0x2013
const RC_SpecificationByFormatUnsupported = 0x2014
const RC_NoValidObjectInfo = 0x2015
const RC_InvalidCodeFormat = 0x2016
const RC_UnknownVendorCode = 0x2017
const RC_CaptureAlreadyTerminated = 0x2018
const RC_DeviceBusy = 0x2019
const RC_InvalidParentObject = 0x201A
const RC_InvalidDevicePropFormat = 0x201B
const RC_InvalidDevicePropValue = 0x201C
const RC_InvalidParameter = 0x201D
const RC_SessionAlreadyOpened = 0x201E
const RC_TransactionCanceled = 0x201F
const RC_SpecificationOfDestinationUnsupported = 0x2020
const RC_InvalidEnumHandle = 0x2021
const RC_NoStreamEnabled = 0x2022
const RC_InvalidDataSet = 0x2023

var RC_names = map[int]string{0x2000: "Undefined",
	0x2001: "OK",
	0x2002: "GeneralError",
	0x2003: "SessionNotOpen",
	0x2004: "InvalidTransactionID",
	0x2005: "OperationNotSupported",
	0x2006: "ParameterNotSupported",
	0x2007: "IncompleteTransfer",
	0x2008: "InvalidStorageId",
	0x2009: "InvalidObjectHandle",
	0x200A: "DevicePropNotSupported",
	0x200B: "InvalidObjectFormatCode",
	0x200C: "StoreFull",
	0x200D: "ObjectWriteProtected",
	0x200E: "StoreReadOnly",
	0x200F: "AccessDenied",
	0x2010: "NoThumbnailPresent",
	0x2011: "SelfTestFailed",
	0x2012: "PartialDeletion",
	0x2013: "StoreNotAvailable",
	0x2014: "SpecificationByFormatUnsupported",
	0x2015: "NoValidObjectInfo",
	0x2016: "InvalidCodeFormat",
	0x2017: "UnknownVendorCode",
	0x2018: "CaptureAlreadyTerminated",
	0x2019: "DeviceBusy",
	0x201A: "InvalidParentObject",
	0x201B: "InvalidDevicePropFormat",
	0x201C: "InvalidDevicePropValue",
	0x201D: "InvalidParameter",
	0x201E: "SessionAlreadyOpened",
	0x201F: "TransactionCanceled",
	0x2020: "SpecificationOfDestinationUnsupported",
	0x2021: "InvalidEnumHandle",
	0x2022: "NoStreamEnabled",
	0x2023: "InvalidDataSet",
}

// usb container type
const USB_CONTAINER_UNDEFINED = 0x0000
const USB_CONTAINER_COMMAND = 0x0001
const USB_CONTAINER_DATA = 0x0002
const USB_CONTAINER_RESPONSE = 0x0003
const USB_CONTAINER_EVENT = 0x0004

var USB_names = map[int]string{0x0000: "CONTAINER_UNDEFINED",
	0x0001: "CONTAINER_COMMAND",
	0x0002: "CONTAINER_DATA",
	0x0003: "CONTAINER_RESPONSE",
	0x0004: "CONTAINER_EVENT",
}

