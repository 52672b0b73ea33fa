package sony

import (
	"sort"

	"github.com/hanwen/go-sonyptp/log"
	"github.com/hanwen/go-sonyptp/ptp"
)

// Synthesize decodes a property batch into a CameraEvent. Properties
// whose values do not decode are left out of the event. The still
// capture modes are returned separately; they are nil when the batch
// has no still capture mode.
func Synthesize(props []ptp.SonyDevicePropDesc, lg *log.ChildLogger) (*CameraEvent, *StillCaptureModes) {
	s := &synth{
		lg:    lg,
		props: props,
		ev: &CameraEvent{
			ShootMode: ShootModeSetting{
				Current:   ShootPhoto,
				Available: []ShootMode{},
				Supported: []ShootMode{},
			},
			AvailableFunctions: []Function{},
			SupportedFunctions: []Function{},
		},
	}
	for i := range props {
		p := &props[i]
		s.ev.SupportedFunctions = append(s.ev.SupportedFunctions, supportedFunctions(p.DevicePropertyCode, p.GetSetSupported)...)
		s.ev.AvailableFunctions = append(s.ev.AvailableFunctions, availableFunctions(p.DevicePropertyCode, p.GetSetAvailable)...)
		s.property(p)
	}
	s.derive()
	return s.ev, s.modes
}

type synth struct {
	lg    *log.ChildLogger
	props []ptp.SonyDevicePropDesc
	ev    *CameraEvent
	modes *StillCaptureModes

	recordingDurationAvailable uint8
}

func (s *synth) miss(p *ptp.SonyDevicePropDesc) {
	if s.lg != nil {
		s.lg.Debugf("skipping %s (%#04x): value %v does not decode",
			ptp.DPC_names[int(p.DevicePropertyCode)], p.DevicePropertyCode, p.CurrentValue)
	}
}

func (s *synth) addAvailable(fns ...Function) {
	s.ev.AvailableFunctions = append(s.ev.AvailableFunctions, fns...)
}

func (s *synth) addSupported(fns ...Function) {
	s.ev.SupportedFunctions = append(s.ev.SupportedFunctions, fns...)
}

func (s *synth) property(p *ptp.SonyDevicePropDesc) {
	ev := s.ev
	code := p.DevicePropertyCode
	switch code {
	case ptp.DPC_BatteryLevel, ptp.DPC_SONY_BatteryLevel:
		if _, ok := rangeForm(p); !ok {
			return
		}
		level, ok := ptp.Int64(p.CurrentValue)
		if !ok {
			s.miss(p)
			return
		}
		ev.Battery = []BatteryInfo{{Level: float64(level) / 100, NearEnd: level < 10}}

	case ptp.DPC_SONY_ExposureSettingsLockStatus:
		if _, ok := enumForm(p); !ok {
			return
		}
		if n, ok := lockStatuses.name(p.CurrentValue); ok {
			st := LockStatus(n)
			ev.ExposureSettingsLockStatus = &st
		}

	case ptp.DPC_SONY_FocusFound:
		if _, ok := enumForm(p); !ok {
			return
		}
		if n, ok := focusStatuses.name(p.CurrentValue); ok {
			st := FocusStatus(n)
			ev.FocusStatus = &st
		}

	case ptp.DPC_StillCaptureMode:
		s.stillCaptureMode(p)

	case ptp.DPC_SONY_RecordingDuration:
		s.recordingDurationAvailable = p.GetSetAvailable
		if d, ok := ptp.Int64(p.CurrentValue); ok {
			secs := float64(d)
			ev.RecordingDuration = &secs
		}

	case ptp.DPC_SONY_StorageState:
		if st, ok := ptp.Int64(p.CurrentValue); ok {
			s.storage().NoMedia = st == 0x02
		}

	case ptp.DPC_SONY_RemainingShots:
		if n, ok := ptp.Int64(p.CurrentValue); ok {
			s.storage().SpaceForImages = intPtr(n)
		}

	case ptp.DPC_SONY_RemainingCaptureTime:
		if n, ok := ptp.Int64(p.CurrentValue); ok {
			s.storage().RecordableTime = intPtr(n)
		}

	case ptp.DPC_SONY_ZoomPosition:
		if p.Form != nil {
			return
		}
		if z, ok := zoomPosition(p.CurrentValue); ok {
			ev.ZoomPosition = &z
		} else {
			s.miss(p)
		}

	case ptp.DPC_SONY_ImageSize, ptp.DPC_ImageSize:
		s.stillSize(p)

	case ptp.DPC_WhiteBalance:
		s.whiteBalance(p)

	default:
		s.enumProperty(p)
	}
}

// enumProperty decodes the settings that are plain (current, available,
// supported) triples.
func (s *synth) enumProperty(p *ptp.SonyDevicePropDesc) {
	f, ok := enumForm(p)
	if !ok {
		return
	}
	ev := s.ev
	switch p.DevicePropertyCode {
	case ptp.DPC_ExposureProgramMode:
		n, ok := exposureModes.name(p.CurrentValue)
		if !ok {
			s.miss(p)
			return
		}
		ev.ExposureMode = &ExposureModeSetting{
			Current:   ExposureMode(n),
			Available: exposureModeList(f.Available),
			Supported: exposureModeList(f.Supported),
		}

	case ptp.DPC_SONY_ExposureProgramModeControl:
		n, ok := dialControls.name(p.CurrentValue)
		if !ok {
			s.miss(p)
			return
		}
		c := &DialControlSetting{Current: DialControl(n)}
		for _, n := range dialControls.decodeAll(f.Available) {
			c.Available = append(c.Available, DialControl(n))
		}
		for _, n := range dialControls.decodeAll(f.Supported) {
			c.Supported = append(c.Supported, DialControl(n))
		}
		ev.ExposureModeDialControl = c

	case ptp.DPC_FlashMode:
		n, ok := flashModes.name(p.CurrentValue)
		if !ok {
			s.miss(p)
			return
		}
		c := &FlashModeSetting{Current: FlashMode(n)}
		for _, n := range flashModes.decodeAll(f.Available) {
			c.Available = append(c.Available, FlashMode(n))
		}
		for _, n := range flashModes.decodeAll(f.Supported) {
			c.Supported = append(c.Supported, FlashMode(n))
		}
		ev.FlashMode = c

	case ptp.DPC_SONY_LiveViewQuality:
		n, ok := liveViewQualities.name(p.CurrentValue)
		if !ok {
			s.miss(p)
			return
		}
		c := &LiveViewQualitySetting{Current: LiveViewQuality(n)}
		for _, n := range liveViewQualities.decodeAll(f.Available) {
			c.Available = append(c.Available, LiveViewQuality(n))
		}
		for _, n := range liveViewQualities.decodeAll(f.Supported) {
			c.Supported = append(c.Supported, LiveViewQuality(n))
		}
		ev.LiveViewQuality = c

	case ptp.DPC_ExposureBiasCompensation:
		cur, ok := decodeExposureCompensation(p.CurrentValue)
		if !ok {
			s.miss(p)
			return
		}
		ev.ExposureCompensation = &ExposureCompensationSetting{
			Current:   cur,
			Available: compensationList(f.Available),
			Supported: compensationList(f.Supported),
		}

	case ptp.DPC_FocusMode:
		n, ok := focusModes.name(p.CurrentValue)
		if !ok {
			s.miss(p)
			return
		}
		c := &FocusModeSetting{Current: FocusMode(n)}
		// Supported mirrors the available list.
		for _, n := range focusModes.decodeAll(f.Available) {
			c.Available = append(c.Available, FocusMode(n))
			c.Supported = append(c.Supported, FocusMode(n))
		}
		ev.FocusMode = c

	case ptp.DPC_SONY_ISO:
		cur, ok := decodeISO(p.CurrentValue)
		if !ok {
			s.miss(p)
			return
		}
		ev.ISO = &ISOSetting{Current: cur, Available: isoList(f.Available), Supported: isoList(f.Supported)}

	case ptp.DPC_SONY_ShutterSpeed:
		cur, ok := decodeShutterSpeed(p.CurrentValue)
		if !ok {
			s.miss(p)
			return
		}
		c := &ShutterSpeedSetting{
			Current:   cur,
			Available: shutterSpeedList(f.Available),
			Supported: shutterSpeedList(f.Supported),
		}
		ev.ShutterSpeed = c
		if hasBulb(c.Supported) && !hasFunction(ev.SupportedFunctions, StartBulbCapture) {
			s.addSupported(StartBulbCapture, EndBulbCapture)
		}
		// Bulb capture is only available while the shutter is at BULB.
		if hasBulb(c.Available) && cur.IsBulb() && !hasFunction(ev.AvailableFunctions, StartBulbCapture) {
			s.addAvailable(StartBulbCapture, EndBulbCapture)
		}

	case ptp.DPC_SONY_StillFormat:
		n, ok := stillFormats.name(p.CurrentValue)
		if !ok {
			s.miss(p)
			return
		}
		c := &StillFormatSetting{Current: StillFormat(n)}
		for _, n := range stillFormats.decodeAll(f.Available) {
			c.Available = append(c.Available, StillFormat(n))
		}
		for _, n := range stillFormats.decodeAll(f.Supported) {
			c.Supported = append(c.Supported, StillFormat(n))
		}
		ev.StillFormat = c

	case ptp.DPC_SONY_StillQuality:
		n, ok := stillQualities.name(p.CurrentValue)
		if !ok {
			s.miss(p)
			return
		}
		c := &StillQualitySetting{Current: StillQuality(n)}
		for _, n := range stillQualities.decodeAll(f.Available) {
			c.Available = append(c.Available, StillQuality(n))
		}
		for _, n := range stillQualities.decodeAll(f.Supported) {
			c.Supported = append(c.Supported, StillQuality(n))
		}
		ev.StillQuality = c

	case ptp.DPC_FNumber:
		cur, ok := decodeAperture(p.CurrentValue)
		if !ok {
			s.miss(p)
			return
		}
		ev.Aperture = &ApertureSetting{Current: cur, Available: apertureList(f.Available), Supported: apertureList(f.Supported)}

	case ptp.DPC_SONY_MovieFormat:
		n, ok := videoFileFormats.name(p.CurrentValue)
		if !ok {
			s.miss(p)
			return
		}
		c := &VideoFileFormatSetting{Current: VideoFileFormat(n)}
		for _, n := range videoFileFormats.decodeAll(f.Available) {
			c.Available = append(c.Available, VideoFileFormat(n))
		}
		for _, n := range videoFileFormats.decodeAll(f.Supported) {
			c.Supported = append(c.Supported, VideoFileFormat(n))
		}
		ev.VideoFileFormat = c

	case ptp.DPC_SONY_MovieQuality:
		n, ok := videoQualities.name(p.CurrentValue)
		if !ok {
			s.miss(p)
			return
		}
		c := &VideoQualitySetting{Current: VideoQuality(n)}
		for _, n := range videoQualities.decodeAll(f.Available) {
			c.Available = append(c.Available, VideoQuality(n))
		}
		for _, n := range videoQualities.decodeAll(f.Supported) {
			c.Supported = append(c.Supported, VideoQuality(n))
		}
		ev.VideoQuality = c
	}
}

func (s *synth) stillCaptureMode(p *ptp.SonyDevicePropDesc) {
	f, ok := enumForm(p)
	if !ok {
		return
	}
	current, ok := decodeStillCaptureMode(p.CurrentValue)
	if !ok {
		s.miss(p)
		return
	}
	available := stillCaptureModeList(f.Available)
	supported := stillCaptureModeList(f.Supported)
	s.modes = &StillCaptureModes{Available: available, Supported: supported}

	shoot := &s.ev.ShootMode
	for _, m := range available {
		if sm, ok := m.ShootMode(); ok && !hasShootMode(shoot.Available, sm) {
			shoot.Available = append(shoot.Available, sm)
		}
	}
	for _, m := range supported {
		if sm, ok := m.ShootMode(); ok && !hasShootMode(shoot.Supported, sm) {
			shoot.Supported = append(shoot.Supported, sm)
		}
	}

	for _, sm := range shoot.Supported {
		switch sm {
		case ShootAudio:
			s.addSupported(StartAudioRecording, EndAudioRecording)
		case ShootBulb:
			s.addSupported(StartBulbCapture, EndBulbCapture)
		case ShootPhoto:
			s.addSupported(TakePicture)
		case ShootVideo:
			s.addSupported(StartVideoRecording, EndVideoRecording)
		case ShootContinuous:
			s.addSupported(StartContinuousShooting, EndContinuousShooting)
		case ShootLoop:
			s.addSupported(StartLoopRecording, EndLoopRecording)
		case ShootInterval:
			s.addSupported(StartIntervalStillRecording, EndIntervalStillRecording)
		case ShootContinuousBracket:
			s.addSupported(StartContinuousBracketShooting, StopContinuousBracketShooting)
		case ShootSingleBracket:
			s.addSupported(TakeSingleBracketShot)
		}
	}

	// Video, bulb and high frame rate availability follow from the
	// exposure mode and the shutter speed instead.
	currentShoot, hasShoot := current.ShootMode()
	switch currentShoot {
	case ShootPhoto:
		s.addAvailable(TakePicture)
	case ShootContinuous:
		s.addAvailable(StartContinuousShooting, EndContinuousShooting)
	case ShootSingleBracket:
		s.addAvailable(TakeSingleBracketShot)
	case ShootContinuousBracket:
		s.addAvailable(StartContinuousBracketShooting, StopContinuousBracketShooting)
	}
	if hasShoot {
		shoot.Current = currentShoot
	}

	s.continuous(current, available)
	s.selfTimer(current, available, supported)
	s.brackets(current, available, supported)

	if hasShootMode(shoot.Available, ShootPhoto) {
		shoot.Available = append(shoot.Available, ShootTimelapse)
	}
	if hasShootMode(shoot.Supported, ShootPhoto) {
		shoot.Supported = append(shoot.Supported, ShootTimelapse)
	}
}

// continuous derives the continuous shooting mode and speed. The
// camera's supported list is not consulted; both sides come from the
// available modes.
func (s *synth) continuous(current StillCaptureMode, available []StillCaptureMode) {
	var modes []StillCaptureMode
	for _, m := range available {
		if sm, _ := m.ShootMode(); sm == ShootContinuous {
			modes = append(modes, m)
		}
	}
	if len(modes) == 0 {
		return
	}

	var speeds []ContinuousShootingSpeed
	var kinds []ContinuousShootingMode
	for _, m := range modes {
		if sp, ok := m.ContinuousShootingSpeed(); ok && !hasSpeed(speeds, sp) {
			speeds = append(speeds, sp)
		}
		if k, ok := m.ContinuousShootingMode(); ok && !hasContinuousMode(kinds, k) {
			kinds = append(kinds, k)
		}
	}

	speed := &ContinuousShootingSpeedSetting{Available: speeds, Supported: speeds}
	if sp, ok := current.ContinuousShootingSpeed(); ok {
		speed.Current = &sp
	}
	mode := &ContinuousShootingModeSetting{Available: kinds, Supported: kinds}
	if k, ok := current.ContinuousShootingMode(); ok {
		mode.Current = &k
	}
	s.ev.ContinuousShootingSpeed = speed
	s.ev.ContinuousShootingMode = mode

	if len(kinds) > 0 {
		s.addAvailable(SetContinuousShootingMode, GetContinuousShootingMode)
		s.addSupported(SetContinuousShootingMode, GetContinuousShootingMode)
	}
	if len(speeds) > 0 {
		s.addAvailable(SetContinuousShootingSpeed, GetContinuousShootingSpeed)
		// Supported speeds advertise the mode functions.
		s.addSupported(SetContinuousShootingMode, GetContinuousShootingMode)
	}
}

func (s *synth) selfTimer(current StillCaptureMode, available, supported []StillCaptureMode) {
	durations := func(modes []StillCaptureMode) (l []float64, n int) {
		for _, m := range modes {
			if m.IsSingleTimerMode() {
				l = append(l, m.TimerDuration())
				n++
			}
		}
		l = append(l, 0)
		sort.Float64s(l)
		return l, n
	}
	avail, nAvail := durations(available)
	supp, nSupp := durations(supported)
	if nAvail == 0 && nSupp == 0 {
		return
	}
	s.ev.SelfTimer = &SelfTimerSetting{Current: current.TimerDuration(), Available: avail, Supported: supp}
	if nAvail > 0 {
		s.addAvailable(SetSelfTimerDuration, GetSelfTimerDuration)
	}
	s.addSupported(SetSelfTimerDuration, GetSelfTimerDuration)
}

func (s *synth) brackets(current StillCaptureMode, available, supported []StillCaptureMode) {
	collect := func(modes []StillCaptureMode, get func(StillCaptureMode) (Bracket, bool)) []Bracket {
		var l []Bracket
		for _, m := range modes {
			if b, ok := get(m); ok {
				l = append(l, b)
			}
		}
		return l
	}
	setting := func(get func(StillCaptureMode) (Bracket, bool)) *BracketSetting {
		b := &BracketSetting{
			Available: collect(available, get),
			Supported: collect(supported, get),
		}
		if len(b.Available) == 0 && len(b.Supported) == 0 {
			return nil
		}
		if cur, ok := get(current); ok {
			b.Current = &cur
		}
		return b
	}

	if b := setting(StillCaptureMode.SingleBracket); b != nil {
		s.ev.SingleBrackets = b
		if len(b.Available) > 0 {
			s.addAvailable(SetSingleBracketedShootingBracket, GetSingleBracketedShootingBracket)
		}
		s.addSupported(SetSingleBracketedShootingBracket, GetSingleBracketedShootingBracket)
	}
	if b := setting(StillCaptureMode.ContinuousBracket); b != nil {
		s.ev.ContinuousBrackets = b
		if len(b.Available) > 0 {
			s.addAvailable(SetContinuousBracketedShootingBracket, GetContinuousBracketedShootingBracket)
		}
		s.addSupported(SetContinuousBracketedShootingBracket, GetContinuousBracketedShootingBracket)
	}
}

// stillSize combines the image size with the aspect ratio property of
// the same batch. The camera reports them independently, so the
// listed sizes are the cross product of both lists.
func (s *synth) stillSize(p *ptp.SonyDevicePropDesc) {
	f, ok := enumForm(p)
	if !ok {
		return
	}
	size, ok := imageSizes.name(p.CurrentValue)
	if !ok {
		s.miss(p)
		return
	}
	availSizes := imageSizes.decodeAll(f.Available)
	suppSizes := imageSizes.decodeAll(f.Supported)

	c := &StillSizeSetting{Current: StillSize{Size: size}}
	s.ev.StillSize = c

	var ratio *ptp.SonyPropDescEnumForm
	rp := findProperty(s.props, ptp.DPC_SONY_AspectRatio)
	if rp != nil {
		ratio, _ = enumForm(rp)
	}
	if ratio == nil {
		for _, sz := range availSizes {
			c.Available = append(c.Available, StillSize{Size: sz})
		}
		for _, sz := range suppSizes {
			c.Supported = append(c.Supported, StillSize{Size: sz})
		}
		return
	}

	c.Current.AspectRatio, _ = aspectRatios.name(rp.CurrentValue)
	cross := func(sizes, ratios []string) []StillSize {
		var l []StillSize
		for _, sz := range sizes {
			for _, r := range ratios {
				l = append(l, StillSize{AspectRatio: r, Size: sz})
			}
		}
		return l
	}
	c.Available = cross(availSizes, aspectRatios.decodeAll(ratio.Available))
	c.Supported = cross(suppSizes, aspectRatios.decodeAll(ratio.Supported))
}

// whiteBalance expands the color temperature mode into one entry per
// temperature step of the colorTemp range property, when the batch
// carries one.
func (s *synth) whiteBalance(p *ptp.SonyDevicePropDesc) {
	f, ok := enumForm(p)
	if !ok {
		return
	}
	n, ok := whiteBalanceModes.name(p.CurrentValue)
	if !ok {
		s.miss(p)
		return
	}
	mode := WhiteBalanceMode(n)
	availModes := whiteBalanceModeList(f.Available)
	suppModes := whiteBalanceModeList(f.Supported)

	var temps *ptp.PropDescRangeForm
	ct := findProperty(s.props, ptp.DPC_SONY_ColorTemp)
	if ct != nil {
		temps, _ = rangeForm(ct)
	}

	c := &WhiteBalanceSetting{Current: WhiteBalance{Mode: mode}}
	s.ev.WhiteBalance = c
	if temps == nil {
		c.Available = plainWhiteBalances(availModes)
		c.Supported = plainWhiteBalances(suppModes)
		return
	}

	var current *int
	if t, ok := ptp.Int64(ct.CurrentValue); ok {
		current = intPtr(t)
	}
	expand := func(modes []WhiteBalanceMode) []WhiteBalance {
		if !hasWhiteBalanceMode(modes, WhiteBalanceColorTemp) {
			current = nil
			return plainWhiteBalances(modes)
		}
		var l []WhiteBalance
		for _, m := range modes {
			if m != WhiteBalanceColorTemp {
				l = append(l, WhiteBalance{Mode: m})
			}
		}
		min, ok1 := ptp.Int64(temps.MinimumValue)
		max, ok2 := ptp.Int64(temps.MaximumValue)
		step, ok3 := ptp.Int64(temps.StepSize)
		if !ok1 || !ok2 || !ok3 || step <= 0 {
			return append(l, WhiteBalance{Mode: WhiteBalanceColorTemp})
		}
		for t := min; t < max; t += step {
			l = append(l, WhiteBalance{Mode: WhiteBalanceColorTemp, Temperature: intPtr(t)})
		}
		return l
	}
	c.Available = expand(availModes)
	c.Supported = expand(suppModes)

	if mode == WhiteBalanceColorTemp {
		c.Current.Temperature = current
	}
}

// derive applies the rules that span several properties, in order.
func (s *synth) derive() {
	ev := s.ev
	shoot := &ev.ShootMode

	if ev.ShutterSpeed != nil && ev.ShutterSpeed.Current.IsBulb() {
		shoot.Current = ShootBulb
	}

	em := ev.ExposureMode
	if em == nil {
		return
	}
	if hasExposureFamily(em.Supported, ExposureMode.IsVideo) && !hasShootMode(shoot.Supported, ShootVideo) {
		shoot.Supported = append(shoot.Supported, ShootVideo)
		s.addSupported(StartVideoRecording, EndVideoRecording)
	}
	if hasExposureFamily(em.Supported, ExposureMode.IsHighFrameRate) && !hasShootMode(shoot.Supported, ShootHighFrameRate) {
		shoot.Supported = append(shoot.Supported, ShootHighFrameRate)
		s.addSupported(RecordHighFrameRateCapture)
	}

	switch {
	case em.Current.IsVideo():
		shoot.Current = ShootVideo
		shoot.Available = []ShootMode{ShootVideo}
		s.addAvailable(StartVideoRecording, EndVideoRecording)
		kept := ev.AvailableFunctions[:0]
		for _, fn := range ev.AvailableFunctions {
			switch fn {
			case TakePicture, StartBulbCapture, EndBulbCapture, EndContinuousShooting,
				StartContinuousShooting, RecordHighFrameRateCapture:
				continue
			}
			kept = append(kept, fn)
		}
		ev.AvailableFunctions = kept

	case em.Current.IsHighFrameRate():
		shoot.Current = ShootHighFrameRate
		shoot.Available = []ShootMode{ShootHighFrameRate}
		lock := ev.ExposureSettingsLockStatus
		if lock != nil && *lock == LockLocked {
			s.addAvailable(RecordHighFrameRateCapture)
		}
		st := HighFrameRateIdle
		switch {
		case s.recordingDurationAvailable == ptp.DPGA_SONY_GetSet || (lock != nil && *lock == LockRecording):
			st = HighFrameRateRecording
		case lock != nil && *lock == LockBuffering:
			st = HighFrameRateBuffering
		}
		ev.HighFrameRateStatus = &st
	}
}

func (s *synth) storage() *StorageInfo {
	if len(s.ev.Storage) == 0 {
		s.ev.Storage = []StorageInfo{{RecordTarget: true}}
	}
	return &s.ev.Storage[0]
}

func intPtr(i int64) *int {
	v := int(i)
	return &v
}

// decodeAll decodes a value list, dropping values without a name.
func (t *enumTable) decodeAll(vs []ptp.DataDependentType) []string {
	var l []string
	for _, v := range vs {
		if n, ok := t.name(v); ok {
			l = append(l, n)
		}
	}
	return l
}

func exposureModeList(vs []ptp.DataDependentType) []ExposureMode {
	var l []ExposureMode
	for _, n := range exposureModes.decodeAll(vs) {
		l = append(l, ExposureMode(n))
	}
	return l
}

func whiteBalanceModeList(vs []ptp.DataDependentType) []WhiteBalanceMode {
	var l []WhiteBalanceMode
	for _, n := range whiteBalanceModes.decodeAll(vs) {
		l = append(l, WhiteBalanceMode(n))
	}
	return l
}

func stillCaptureModeList(vs []ptp.DataDependentType) []StillCaptureMode {
	var l []StillCaptureMode
	for _, v := range vs {
		if m, ok := decodeStillCaptureMode(v); ok {
			l = append(l, m)
		}
	}
	return l
}

func compensationList(vs []ptp.DataDependentType) []ExposureCompensation {
	var l []ExposureCompensation
	for _, v := range vs {
		if c, ok := decodeExposureCompensation(v); ok {
			l = append(l, c)
		}
	}
	sort.Slice(l, func(i, j int) bool { return l[i] < l[j] })
	return l
}

func isoList(vs []ptp.DataDependentType) []ISO {
	var l []ISO
	for _, v := range vs {
		if i, ok := decodeISO(v); ok {
			l = append(l, i)
		}
	}
	return l
}

func shutterSpeedList(vs []ptp.DataDependentType) []ShutterSpeed {
	var l []ShutterSpeed
	for _, v := range vs {
		if s, ok := decodeShutterSpeed(v); ok {
			l = append(l, s)
		}
	}
	return l
}

func apertureList(vs []ptp.DataDependentType) []Aperture {
	var l []Aperture
	for _, v := range vs {
		if a, ok := decodeAperture(v); ok {
			l = append(l, a)
		}
	}
	return l
}

func plainWhiteBalances(modes []WhiteBalanceMode) []WhiteBalance {
	var l []WhiteBalance
	for _, m := range modes {
		l = append(l, WhiteBalance{Mode: m})
	}
	return l
}

func hasWhiteBalanceMode(l []WhiteBalanceMode, m WhiteBalanceMode) bool {
	for _, x := range l {
		if x == m {
			return true
		}
	}
	return false
}

func hasBulb(l []ShutterSpeed) bool {
	for _, s := range l {
		if s.IsBulb() {
			return true
		}
	}
	return false
}

func hasSpeed(l []ContinuousShootingSpeed, s ContinuousShootingSpeed) bool {
	for _, x := range l {
		if x == s {
			return true
		}
	}
	return false
}

func hasContinuousMode(l []ContinuousShootingMode, m ContinuousShootingMode) bool {
	for _, x := range l {
		if x == m {
			return true
		}
	}
	return false
}

func hasExposureFamily(l []ExposureMode, in func(ExposureMode) bool) bool {
	for _, m := range l {
		if in(m) {
			return true
		}
	}
	return false
}
