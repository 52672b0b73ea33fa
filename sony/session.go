package sony

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/hanwen/go-sonyptp/log"
	"github.com/hanwen/go-sonyptp/ptp"
)

const connectAttempts = 3

// Options tune the capture waits and where captured files go.
type Options struct {
	// FocusTimeout bounds the wait for focus after the shutter is pressed
	// in an auto focus mode.
	FocusTimeout time.Duration

	// ObjectTimeout bounds the wait for the captured object after the
	// shutter is released.
	ObjectTimeout time.Duration

	PollInterval time.Duration

	// DownloadDir receives captured objects. Empty means the system
	// temporary directory.
	DownloadDir string

	// LiveViewURL is returned by startLiveView when the camera does not
	// report one.
	LiveViewURL string
}

func (o *Options) setDefaults() {
	if o.FocusTimeout == 0 {
		o.FocusTimeout = time.Second
	}
	if o.ObjectTimeout == 0 {
		o.ObjectTimeout = 35 * time.Second
	}
	if o.PollInterval == 0 {
		o.PollInterval = 50 * time.Millisecond
	}
	if o.LiveViewURL == "" {
		o.LiveViewURL = "http://192.168.122.1:8080/liveview/liveviewstream"
	}
}

// HighFrameRateUpdate reports a high frame rate capture moving through
// buffering and recording. The channel is closed after the idle update
// or an error.
type HighFrameRateUpdate struct {
	Status HighFrameRateStatus
	Err    error
}

type hfrWatch struct {
	ch   chan HighFrameRateUpdate
	last HighFrameRateStatus
}

// Session is a connected camera. It owns the property table built from
// event fetches and the state of the capture in progress.
type Session struct {
	t    Transport
	opts Options
	log  *log.Children

	propMu      sync.Mutex
	props       PropertyTable
	fullFetched bool

	eventMu    sync.Mutex
	lastEvent  *CameraEvent
	stillModes *StillCaptureModes

	packetMu   sync.Mutex
	lastPacket *ptp.Container

	objectMu         sync.Mutex
	awaitingObjectID *uint32
	isAwaitingObject *atomic.Bool
	// set while an object found in memory is fetched without an
	// ObjectAdded event; the next ObjectAdded is the same image.
	fetchedFromMemory *atomic.Bool

	zoomMu  sync.Mutex
	zooming *ZoomDirection

	urlMu     sync.Mutex
	imageURLs map[ShootMode][]string

	hfrMu sync.Mutex
	hfr   *hfrWatch

	notifyMu sync.Mutex
	onEvent  func()

	cancel    context.CancelFunc
	eg        *errgroup.Group
	downloads sync.WaitGroup
}

func NewSession(t Transport, opts Options, lc *log.Children) *Session {
	if lc == nil {
		lc = log.Discard()
	}
	opts.setDefaults()
	return &Session{
		t:                t,
		opts:             opts,
		log:              lc,
		isAwaitingObject:  atomic.NewBool(false),
		fetchedFromMemory: atomic.NewBool(false),
		imageURLs:         map[ShootMode][]string{},
	}
}

// OnEventAvailable registers fn to be called whenever the camera
// signals a change or a captured object has been downloaded. fn must
// not block.
func (s *Session) OnEventAvailable(fn func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.onEvent = fn
}

func (s *Session) eventAvailable() {
	s.notifyMu.Lock()
	fn := s.onEvent
	s.notifyMu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Session) reset() {
	s.propMu.Lock()
	s.props = nil
	s.fullFetched = false
	s.propMu.Unlock()

	s.eventMu.Lock()
	s.lastEvent = nil
	s.stillModes = nil
	s.eventMu.Unlock()

	s.setEventPacket(nil)
	s.fetchedFromMemory.Store(false)

	s.zoomMu.Lock()
	s.zooming = nil
	s.zoomMu.Unlock()

	s.hfrMu.Lock()
	if s.hfr != nil {
		close(s.hfr.ch)
		s.hfr = nil
	}
	s.hfrMu.Unlock()
}

// Connect opens the camera, retrying while another session holds it,
// and starts listening for pushed events. The first event fetch is
// done before Connect returns; its failure is not fatal.
func (s *Session) Connect() error {
	s.reset()

	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		s.log.PTP.Debugf("connect attempt %d", attempt)
		err = s.t.Connect()
		if err == nil {
			break
		}
		if !errors.Is(err, ErrAnotherSessionOpen) && !errors.Is(err, ErrOperationNotSupported) {
			return err
		}
		s.log.PTP.Infof("connect attempt %d: %v", attempt, err)
	}
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.eg, ctx = errgroup.WithContext(ctx)
	events := s.t.Events()
	s.eg.Go(func() error {
		return s.listen(ctx, events)
	})

	if _, err := s.Event(); err != nil {
		s.log.Event.Warningf("initial event fetch: %v", err)
	}
	return nil
}

// Close stops the event listener, closes the transport and waits for
// pending downloads.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	err := s.t.Close()
	if s.eg != nil {
		s.eg.Wait()
	}
	s.downloads.Wait()
	return err
}

func (s *Session) listen(ctx context.Context, events <-chan ptp.Container) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-events:
			if !ok {
				s.log.Event.Debug("event channel closed")
				return nil
			}
			s.handlePTPIPEvent(c)
		}
	}
}

func (s *Session) handlePTPIPEvent(c ptp.Container) {
	s.log.Event.Debugf("event %s %#x", ptp.EC_names[int(c.Code)], c.Param)

	switch c.Code {
	case ptp.EC_SONY_PropertyChanged:
		s.setEventPacket(&c)
		s.eventAvailable()
	case ptp.EC_SONY_ObjectAdded:
		if len(c.Param) == 0 {
			s.setEventPacket(&c)
			return
		}
		id := c.Param[0]
		if s.isAwaitingObject.Load() {
			s.objectMu.Lock()
			s.awaitingObjectID = &id
			s.objectMu.Unlock()
		}
		s.setEventPacket(&c)

		if s.fetchedFromMemory.CAS(true, false) {
			s.log.Capture.Debugf("object %#x already fetched from memory", id)
			return
		}
		s.download(id)
	default:
		s.setEventPacket(&c)
	}
}

func (s *Session) setEventPacket(c *ptp.Container) {
	s.packetMu.Lock()
	defer s.packetMu.Unlock()
	if c == nil {
		s.lastPacket = nil
		return
	}
	cp := *c
	s.lastPacket = &cp
}

func (s *Session) eventPacket() *ptp.Container {
	s.packetMu.Lock()
	defer s.packetMu.Unlock()
	if s.lastPacket == nil {
		return nil
	}
	cp := *s.lastPacket
	return &cp
}

// takeAwaitingObject returns and clears the handle reported while a
// capture was waiting for it.
func (s *Session) takeAwaitingObject() (uint32, bool) {
	s.objectMu.Lock()
	defer s.objectMu.Unlock()
	if s.awaitingObjectID == nil {
		return 0, false
	}
	id := *s.awaitingObjectID
	s.awaitingObjectID = nil
	return id, true
}

// LastEvent returns the most recent snapshot, or nil before the first
// successful fetch.
func (s *Session) LastEvent() *CameraEvent {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()
	return s.lastEvent
}

func (s *Session) lastStillModes() *StillCaptureModes {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()
	return s.stillModes
}

// Event returns the camera state. When captured files are waiting to
// be reported the previous snapshot is returned with them, without a
// round trip. Otherwise the changed properties are fetched and merged
// into the table.
func (s *Session) Event() (*CameraEvent, error) {
	if last := s.LastEvent(); last != nil && s.hasURLs() {
		return last.withURLs(s.takeURLs()), nil
	}

	s.propMu.Lock()
	partial := s.fullFetched
	incoming, err := s.t.AllProperties(partial)
	if err != nil {
		s.propMu.Unlock()
		s.failHighFrameRate(err)
		return nil, err
	}
	s.props = Merge(s.props, incoming, partial)
	s.fullFetched = true
	list := s.props.List()
	s.propMu.Unlock()

	ev, modes := Synthesize(list, s.log.Event)
	s.eventMu.Lock()
	s.stillModes = modes
	s.eventMu.Unlock()

	s.handleEvent(ev)
	return ev.withURLs(s.takeURLs()), nil
}

func (s *Session) handleEvent(ev *CameraEvent) {
	s.eventMu.Lock()
	s.lastEvent = ev
	s.eventMu.Unlock()

	if ev.HighFrameRateStatus == nil {
		return
	}
	status := *ev.HighFrameRateStatus

	s.hfrMu.Lock()
	defer s.hfrMu.Unlock()
	w := s.hfr
	if w == nil || status == w.last {
		return
	}
	w.last = status
	s.sendHighFrameRate(HighFrameRateUpdate{Status: status})
	if status == HighFrameRateIdle {
		close(w.ch)
		s.hfr = nil
	}
}

// sendHighFrameRate drops the update if the reader is behind. Callers
// hold hfrMu.
func (s *Session) sendHighFrameRate(u HighFrameRateUpdate) {
	select {
	case s.hfr.ch <- u:
	default:
		s.log.Event.Warningf("dropped high frame rate update %v", u.Status)
	}
}

func (s *Session) watchHighFrameRate() <-chan HighFrameRateUpdate {
	s.hfrMu.Lock()
	defer s.hfrMu.Unlock()
	if s.hfr != nil {
		close(s.hfr.ch)
	}
	s.hfr = &hfrWatch{
		ch:   make(chan HighFrameRateUpdate, 8),
		last: HighFrameRateBuffering,
	}
	s.sendHighFrameRate(HighFrameRateUpdate{Status: HighFrameRateBuffering})
	return s.hfr.ch
}

func (s *Session) failHighFrameRate(err error) {
	s.hfrMu.Lock()
	defer s.hfrMu.Unlock()
	if s.hfr == nil {
		return
	}
	s.sendHighFrameRate(HighFrameRateUpdate{Err: err})
	close(s.hfr.ch)
	s.hfr = nil
}

func (s *Session) hasURLs() bool {
	s.urlMu.Lock()
	defer s.urlMu.Unlock()
	return len(s.imageURLs) > 0
}

func (s *Session) takeURLs() map[ShootMode][]string {
	s.urlMu.Lock()
	defer s.urlMu.Unlock()
	urls := s.imageURLs
	s.imageURLs = map[ShootMode][]string{}
	return urls
}

func (s *Session) addURL(mode ShootMode, url string) {
	s.urlMu.Lock()
	defer s.urlMu.Unlock()
	s.imageURLs[mode] = append(s.imageURLs[mode], url)
}

// fetch reads the given properties and decodes them on their own. The
// result only has the settings those properties describe.
func (s *Session) fetch(codes ...uint16) (*CameraEvent, *StillCaptureModes, error) {
	props, err := s.t.Properties(codes...)
	if err != nil {
		return nil, nil, err
	}
	ev, modes := Synthesize(props, s.log.Event)
	return ev, modes, nil
}
