package sony

import "github.com/hanwen/go-sonyptp/ptp"

// Function identifies an operation that can be performed on a camera.
type Function string

const (
	SetAperture                           Function = "setAperture"
	GetAperture                           Function = "getAperture"
	SetISO                                Function = "setISO"
	GetISO                                Function = "getISO"
	SetWhiteBalance                       Function = "setWhiteBalance"
	GetWhiteBalance                       Function = "getWhiteBalance"
	SetupCustomWhiteBalanceFromShot       Function = "setupCustomWhiteBalanceFromShot"
	SetShootMode                          Function = "setShootMode"
	GetShootMode                          Function = "getShootMode"
	SetProgramShift                       Function = "setProgramShift"
	GetProgramShift                       Function = "getProgramShift"
	TakePicture                           Function = "takePicture"
	SetExposureSettingsLock               Function = "setExposureSettingsLock"
	GetExposureSettingsLock               Function = "getExposureSettingsLock"
	RecordHighFrameRateCapture            Function = "recordHighFrameRateCapture"
	StartContinuousShooting               Function = "startContinuousShooting"
	EndContinuousShooting                 Function = "endContinuousShooting"
	StartVideoRecording                   Function = "startVideoRecording"
	EndVideoRecording                     Function = "endVideoRecording"
	StartAudioRecording                   Function = "startAudioRecording"
	EndAudioRecording                     Function = "endAudioRecording"
	StartIntervalStillRecording           Function = "startIntervalStillRecording"
	EndIntervalStillRecording             Function = "endIntervalStillRecording"
	StartBulbCapture                      Function = "startBulbCapture"
	EndBulbCapture                        Function = "endBulbCapture"
	StartLoopRecording                    Function = "startLoopRecording"
	EndLoopRecording                      Function = "endLoopRecording"
	StartLiveView                         Function = "startLiveView"
	StartLiveViewWithQuality              Function = "startLiveViewWithQuality"
	EndLiveView                           Function = "endLiveView"
	GetLiveViewQuality                    Function = "getLiveViewQuality"
	SetLiveViewQuality                    Function = "setLiveViewQuality"
	SetSendLiveViewFrameInfo              Function = "setSendLiveViewFrameInfo"
	GetSendLiveViewFrameInfo              Function = "getSendLiveViewFrameInfo"
	StartZooming                          Function = "startZooming"
	StopZooming                           Function = "stopZooming"
	SetZoomSetting                        Function = "setZoomSetting"
	GetZoomSetting                        Function = "getZoomSetting"
	HalfPressShutter                      Function = "halfPressShutter"
	CancelHalfPressShutter                Function = "cancelHalfPressShutter"
	SetTouchAFPosition                    Function = "setTouchAFPosition"
	GetTouchAFPosition                    Function = "getTouchAFPosition"
	CancelTouchAFPosition                 Function = "cancelTouchAFPosition"
	StartTrackingFocus                    Function = "startTrackingFocus"
	StopTrackingFocus                     Function = "stopTrackingFocus"
	SetTrackingFocus                      Function = "setTrackingFocus"
	GetTrackingFocus                      Function = "getTrackingFocus"
	SetContinuousShootingMode             Function = "setContinuousShootingMode"
	GetContinuousShootingMode             Function = "getContinuousShootingMode"
	SetContinuousShootingSpeed            Function = "setContinuousShootingSpeed"
	GetContinuousShootingSpeed            Function = "getContinuousShootingSpeed"
	SetSelfTimerDuration                  Function = "setSelfTimerDuration"
	GetSelfTimerDuration                  Function = "getSelfTimerDuration"
	SetExposureMode                       Function = "setExposureMode"
	GetExposureMode                       Function = "getExposureMode"
	SetExposureModeDialControl            Function = "setExposureModeDialControl"
	GetExposureModeDialControl            Function = "getExposureModeDialControl"
	SetFocusMode                          Function = "setFocusMode"
	GetFocusMode                          Function = "getFocusMode"
	SetExposureCompensation               Function = "setExposureCompensation"
	GetExposureCompensation               Function = "getExposureCompensation"
	SetShutterSpeed                       Function = "setShutterSpeed"
	GetShutterSpeed                       Function = "getShutterSpeed"
	SetFlashMode                          Function = "setFlashMode"
	GetFlashMode                          Function = "getFlashMode"
	SetStillSize                          Function = "setStillSize"
	GetStillSize                          Function = "getStillSize"
	SetStillQuality                       Function = "setStillQuality"
	GetStillQuality                       Function = "getStillQuality"
	SetStillFormat                        Function = "setStillFormat"
	GetStillFormat                        Function = "getStillFormat"
	GetPostviewImageSize                  Function = "getPostviewImageSize"
	SetPostviewImageSize                  Function = "setPostviewImageSize"
	SetVideoFileFormat                    Function = "setVideoFileFormat"
	GetVideoFileFormat                    Function = "getVideoFileFormat"
	SetVideoQuality                       Function = "setVideoQuality"
	GetVideoQuality                       Function = "getVideoQuality"
	SetSteadyMode                         Function = "setSteadyMode"
	GetSteadyMode                         Function = "getSteadyMode"
	SetViewAngle                          Function = "setViewAngle"
	GetViewAngle                          Function = "getViewAngle"
	SetScene                              Function = "setScene"
	GetScene                              Function = "getScene"
	SetColorSetting                       Function = "setColorSetting"
	GetColorSetting                       Function = "getColorSetting"
	SetIntervalTime                       Function = "setIntervalTime"
	GetIntervalTime                       Function = "getIntervalTime"
	SetLoopRecordDuration                 Function = "setLoopRecordDuration"
	GetLoopRecordDuration                 Function = "getLoopRecordDuration"
	SetWindNoiseReduction                 Function = "setWindNoiseReduction"
	GetWindNoiseReduction                 Function = "getWindNoiseReduction"
	SetAudioRecording                     Function = "setAudioRecording"
	GetAudioRecording                     Function = "getAudioRecording"
	SetFlipSetting                        Function = "setFlipSetting"
	GetFlipSetting                        Function = "getFlipSetting"
	SetTVColorSystem                      Function = "setTVColorSystem"
	GetTVColorSystem                      Function = "getTVColorSystem"
	ListContent                           Function = "listContent"
	GetContentCount                       Function = "getContentCount"
	ListSchemes                           Function = "listSchemes"
	ListSources                           Function = "listSources"
	DeleteContent                         Function = "deleteContent"
	SetStreamingContent                   Function = "setStreamingContent"
	StartStreaming                        Function = "startStreaming"
	PauseStreaming                        Function = "pauseStreaming"
	SeekStreamingPosition                 Function = "seekStreamingPosition"
	StopStreaming                         Function = "stopStreaming"
	GetStreamingStatus                    Function = "getStreamingStatus"
	SetInfraredRemoteControl              Function = "setInfraredRemoteControl"
	GetInfraredRemoteControl              Function = "getInfraredRemoteControl"
	SetAutoPowerOff                       Function = "setAutoPowerOff"
	GetAutoPowerOff                       Function = "getAutoPowerOff"
	SetBeepMode                           Function = "setBeepMode"
	GetBeepMode                           Function = "getBeepMode"
	SetCurrentTime                        Function = "setCurrentTime"
	GetStorageInformation                 Function = "getStorageInformation"
	GetEvent                              Function = "getEvent"
	SetCameraFunction                     Function = "setCameraFunction"
	GetCameraFunction                     Function = "getCameraFunction"
	Ping                                  Function = "ping"
	StartRecordMode                       Function = "startRecordMode"
	StartContinuousBracketShooting        Function = "startContinuousBracketShooting"
	StopContinuousBracketShooting         Function = "stopContinuousBracketShooting"
	TakeSingleBracketShot                 Function = "takeSingleBracketShot"
	SetContinuousBracketedShootingBracket Function = "setContinuousBracketedShootingBracket"
	GetContinuousBracketedShootingBracket Function = "getContinuousBracketedShootingBracket"
	SetSingleBracketedShootingBracket     Function = "setSingleBracketedShootingBracket"
	GetSingleBracketedShootingBracket     Function = "getSingleBracketedShootingBracket"
)

// setFunctions lists the functions a settable property enables.
var setFunctions = map[uint16][]Function{
	ptp.DPC_ExposureBiasCompensation:        {SetExposureCompensation},
	ptp.DPC_ImageSize:                       {SetStillSize},
	ptp.DPC_SONY_ImageSize:                  {SetStillSize},
	ptp.DPC_WhiteBalance:                    {SetWhiteBalance},
	ptp.DPC_FNumber:                         {SetAperture},
	ptp.DPC_FocusMode:                       {SetFocusMode},
	ptp.DPC_FlashMode:                       {SetFlashMode},
	ptp.DPC_ExposureTime:                    {SetShutterSpeed},
	ptp.DPC_SONY_ShutterSpeed:               {SetShutterSpeed},
	ptp.DPC_ExposureProgramMode:             {SetExposureMode},
	ptp.DPC_SONY_ExposureProgramModeControl: {SetExposureModeDialControl},
	ptp.DPC_DateTime:                        {SetCurrentTime},
	ptp.DPC_CaptureDelay:                    {SetSelfTimerDuration},
	ptp.DPC_StillCaptureMode:                {SetShootMode},
	ptp.DPC_DigitalZoom:                     {StartZooming, StopZooming},
	ptp.DPC_SONY_PerformZoom:                {StartZooming, StopZooming},
	ptp.DPC_SONY_ZoomPosition:               {StartZooming, StopZooming},
	ptp.DPC_SONY_ISO:                        {SetISO},
	ptp.DPC_SONY_LiveViewQuality:            {SetLiveViewQuality, StartLiveViewWithQuality},
	ptp.DPC_SONY_Movie:                      {StartVideoRecording, EndVideoRecording},
	ptp.DPC_SONY_MovieFormat:                {SetVideoFileFormat},
	ptp.DPC_SONY_MovieQuality:               {SetVideoQuality},
	ptp.DPC_SONY_AutoFocus:                  {HalfPressShutter, CancelHalfPressShutter},
	ptp.DPC_SONY_Capture:                    {TakePicture},
	ptp.DPC_SONY_StillQuality:               {SetStillQuality},
	ptp.DPC_SONY_StillFormat:                {SetStillFormat},
	ptp.DPC_SONY_ExposureSettingsLockStatus: {SetExposureSettingsLock},
}

// getFunction is the getter a readable property enables.
var getFunction = map[uint16]Function{
	ptp.DPC_ExposureBiasCompensation:        GetExposureCompensation,
	ptp.DPC_ImageSize:                       GetStillSize,
	ptp.DPC_SONY_ImageSize:                  GetStillSize,
	ptp.DPC_WhiteBalance:                    GetWhiteBalance,
	ptp.DPC_FNumber:                         GetAperture,
	ptp.DPC_FocusMode:                       GetFocusMode,
	ptp.DPC_FlashMode:                       GetFlashMode,
	ptp.DPC_ExposureTime:                    GetShutterSpeed,
	ptp.DPC_SONY_ShutterSpeed:               GetShutterSpeed,
	ptp.DPC_ExposureProgramMode:             GetExposureMode,
	ptp.DPC_SONY_ExposureProgramModeControl: GetExposureModeDialControl,
	ptp.DPC_CaptureDelay:                    GetSelfTimerDuration,
	ptp.DPC_StillCaptureMode:                GetShootMode,
	ptp.DPC_SONY_ISO:                        GetISO,
	ptp.DPC_SONY_MovieFormat:                GetVideoFileFormat,
	ptp.DPC_SONY_MovieQuality:               GetVideoQuality,
	ptp.DPC_SONY_RemainingShots:             GetStorageInformation,
	ptp.DPC_SONY_RemainingCaptureTime:       GetStorageInformation,
	ptp.DPC_SONY_StorageState:               GetStorageInformation,
	ptp.DPC_SONY_StillQuality:               GetStillQuality,
	ptp.DPC_SONY_StillFormat:                GetStillFormat,
	ptp.DPC_SONY_ExposureSettingsLockStatus: GetExposureSettingsLock,
	ptp.DPC_SONY_ExposureSettingsLock:       GetExposureSettingsLock,
	ptp.DPC_SONY_LiveViewQuality:            GetLiveViewQuality,
}

// supportedFunctions returns the functions a property enables on this
// camera model.
func supportedFunctions(code uint16, getSetSupported uint8) []Function {
	if getSetSupported == ptp.DPGS_SONY_GetSet {
		return withGetter(code, setFunctions[code])
	}
	return withGetter(code, nil)
}

// availableFunctions returns the functions a property enables right
// now.
func availableFunctions(code uint16, getSetAvailable uint8) []Function {
	switch getSetAvailable {
	case ptp.DPGA_SONY_Get:
		return withGetter(code, nil)
	case ptp.DPGA_SONY_GetSet:
		return withGetter(code, setFunctions[code])
	}
	return nil
}

func withGetter(code uint16, setters []Function) []Function {
	var fs []Function
	if g, ok := getFunction[code]; ok {
		fs = append(fs, g)
	}
	return append(fs, setters...)
}
