package sony

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/paulbellamy/ratecounter"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/hanwen/go-sonyptp/log"
	"github.com/hanwen/go-sonyptp/ptp"
)

// EventServer polls a session and serves its events over websocket.
// /events streams every CameraEvent as JSON. /control runs functions
// and streams server info once a second.
type EventServer struct {
	session *Session

	event     []byte
	eventLock sync.Mutex
	newEvent  chan bool

	notifyRate *ratecounter.RateCounter
	polls      *atomic.Int64

	upgrader       websocket.Upgrader
	eventClients   map[*websocket.Conn]bool
	streamLock     sync.Mutex
	controlClients map[*websocket.Conn]bool
	controlLock    sync.Mutex

	pollTicker *ptp.MutableTicker
	fetchNow   chan bool

	eg  *errgroup.Group
	ctx context.Context
	log *logrus.Logger
}

func NewEventServer(session *Session, pollInterval time.Duration, log *logrus.Logger, ctx context.Context) *EventServer {
	eg, egCtx := errgroup.WithContext(ctx)
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &EventServer{
		session:  session,
		newEvent: make(chan bool, 1),

		notifyRate: ratecounter.NewRateCounter(time.Second),
		polls:      atomic.NewInt64(0),

		eventClients:   map[*websocket.Conn]bool{},
		controlClients: map[*websocket.Conn]bool{},

		pollTicker: ptp.NewMutableTicker(pollInterval),
		fetchNow:   make(chan bool, 1),

		eg:  eg,
		ctx: egCtx,
		log: log,
	}
}

// Handler routes /events and /control.
func (s *EventServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.HandleEvents)
	mux.HandleFunc("/control", s.HandleControl)
	return log.HTTPLogHandler(mux)
}

// HTTP handler / WebSocket

func (s *EventServer) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithField("prefix", "sony.HandleEvents").Errorf("failed to upgrade: %s", err)
		return
	}
	defer ws.Close()

	s.registerEventClient(ws)
	if ev := s.copyEvent(); len(ev) > 0 {
		s.streamLock.Lock()
		err := ws.WriteMessage(websocket.TextMessage, ev)
		s.streamLock.Unlock()
		if err != nil {
			s.log.WithField("prefix", "sony.HandleEvents").Errorf("failed to send an event: %s", err)
		}
	}
	for {
		var mes struct{}
		err := ws.ReadJSON(&mes)
		if err != nil {
			s.log.WithField("prefix", "sony.HandleEvents").Debugf("client gone: %s", err)
			s.unregisterEventClient(ws)
			return
		}
	}
}

func (s *EventServer) registerEventClient(c *websocket.Conn) {
	s.streamLock.Lock()
	defer s.streamLock.Unlock()
	s.eventClients[c] = true
}

func (s *EventServer) unregisterEventClient(c *websocket.Conn) {
	s.streamLock.Lock()
	defer s.streamLock.Unlock()
	delete(s.eventClients, c)
}

// ControlRequest runs Function with Payload. Poll and PollInterval
// (milliseconds) pause or retune the event polling; they may be sent
// without a function.
type ControlRequest struct {
	ID           int             `json:"id"`
	Function     Function        `json:"function,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Poll         *bool           `json:"poll,omitempty"`
	PollInterval *int            `json:"poll_interval,omitempty"`
}

// ControlMessage is sent on /control. Type is "result", "info" or
// "highFrameRate".
type ControlMessage struct {
	Type   string       `json:"type"`
	ID     int          `json:"id,omitempty"`
	Result interface{}  `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
	Info   *InfoPayload `json:"info,omitempty"`
}

type InfoPayload struct {
	Notifications int64 `json:"notifications_per_second"`
	Polls         int64 `json:"polls"`
	PollInterval  int64 `json:"poll_interval"`
	EventClients  int   `json:"event_clients"`
}

func (s *EventServer) HandleControl(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithField("prefix", "sony.HandleControl").Errorf("failed to upgrade: %s", err)
		return
	}
	defer ws.Close()

	s.registerControlClient(ws)
	for {
		var req ControlRequest
		err := ws.ReadJSON(&req)
		if err != nil {
			s.log.WithField("prefix", "sony.HandleControl").Debugf("client gone: %s", err)
			s.unregisterControlClient(ws)
			return
		}

		if req.Poll != nil {
			if *req.Poll {
				s.log.WithField("prefix", "sony.HandleControl").Debug("enable polling")
				s.pollTicker.Start()
			} else {
				s.log.WithField("prefix", "sony.HandleControl").Debug("disable polling")
				s.pollTicker.Stop()
			}
		}
		if req.PollInterval != nil {
			if *req.PollInterval < 1 {
				s.log.WithField("prefix", "sony.HandleControl").Errorf("invalid poll interval: %d", *req.PollInterval)
			} else {
				s.pollTicker.SetInterval(time.Duration(*req.PollInterval) * time.Millisecond)
				s.log.WithField("prefix", "sony.HandleControl").Debugf("set poll interval: %dms", *req.PollInterval)
			}
		}
		if req.Function == "" {
			continue
		}

		s.reply(ws, req, s.perform(ws, req))
	}
}

func (s *EventServer) perform(ws *websocket.Conn, req ControlRequest) ControlMessage {
	msg := ControlMessage{Type: "result", ID: req.ID}
	payload, err := DecodePayload(req.Function, req.Payload)
	if err != nil {
		msg.Error = err.Error()
		return msg
	}
	if err := s.session.MakeFunctionAvailable(s.ctx, req.Function); err != nil {
		s.log.WithField("prefix", "sony.HandleControl").Warningf("prepare %s: %s", req.Function, err)
	}
	res, err := s.session.PerformFunction(s.ctx, req.Function, payload)
	if err != nil {
		msg.Error = err.Error()
		return msg
	}
	if updates, ok := res.(<-chan HighFrameRateUpdate); ok {
		s.eg.Go(func() error {
			s.forwardHighFrameRate(ws, updates)
			return nil
		})
		return msg
	}
	msg.Result = res
	return msg
}

func (s *EventServer) reply(ws *websocket.Conn, req ControlRequest, msg ControlMessage) {
	s.controlLock.Lock()
	defer s.controlLock.Unlock()
	if err := ws.WriteJSON(msg); err != nil {
		s.log.WithField("prefix", "sony.HandleControl").Errorf("failed to reply to %s: %s", req.Function, err)
	}
}

func (s *EventServer) forwardHighFrameRate(ws *websocket.Conn, updates <-chan HighFrameRateUpdate) {
	for u := range updates {
		msg := ControlMessage{Type: "highFrameRate", Result: u.Status}
		if u.Err != nil {
			msg.Error = u.Err.Error()
		}
		s.controlLock.Lock()
		err := ws.WriteJSON(msg)
		s.controlLock.Unlock()
		if err != nil {
			s.log.WithField("prefix", "sony.forwardHighFrameRate").Errorf("failed to send an update: %s", err)
		}
	}
}

func (s *EventServer) registerControlClient(c *websocket.Conn) {
	s.controlLock.Lock()
	defer s.controlLock.Unlock()
	s.controlClients[c] = true
}

func (s *EventServer) unregisterControlClient(c *websocket.Conn) {
	s.controlLock.Lock()
	defer s.controlLock.Unlock()
	delete(s.controlClients, c)
}

var payloadTypes = map[Function]reflect.Type{
	SetISO:                                reflect.TypeOf(ISO{}),
	SetShutterSpeed:                       reflect.TypeOf(ShutterSpeed{}),
	SetAperture:                           reflect.TypeOf(Aperture(0)),
	SetExposureCompensation:               reflect.TypeOf(ExposureCompensation(0)),
	SetFocusMode:                          reflect.TypeOf(FocusMode("")),
	SetExposureMode:                       reflect.TypeOf(ExposureMode("")),
	SetExposureModeDialControl:            reflect.TypeOf(DialControl("")),
	SetFlashMode:                          reflect.TypeOf(FlashMode("")),
	SetContinuousShootingSpeed:            reflect.TypeOf(ContinuousShootingSpeed("")),
	SetContinuousShootingMode:             reflect.TypeOf(ContinuousShootingMode("")),
	SetStillQuality:                       reflect.TypeOf(StillQuality("")),
	SetStillFormat:                        reflect.TypeOf(StillFormat("")),
	SetVideoFileFormat:                    reflect.TypeOf(VideoFileFormat("")),
	SetVideoQuality:                       reflect.TypeOf(VideoQuality("")),
	SetLiveViewQuality:                    reflect.TypeOf(LiveViewQuality("")),
	StartLiveViewWithQuality:              reflect.TypeOf(LiveViewQuality("")),
	SetContinuousBracketedShootingBracket: reflect.TypeOf(Bracket{}),
	SetSingleBracketedShootingBracket:     reflect.TypeOf(Bracket{}),
	SetSelfTimerDuration:                  reflect.TypeOf(float64(0)),
	SetStillSize:                          reflect.TypeOf(StillSize{}),
	SetWhiteBalance:                       reflect.TypeOf(WhiteBalance{}),
	SetShootMode:                          reflect.TypeOf(ShootMode("")),
	StartZooming:                          reflect.TypeOf(ZoomDirection("")),
}

// DecodePayload decodes a JSON payload into the type PerformFunction
// expects for fn.
// Functions without a payload type get the payload as decoded by
// encoding/json.
func DecodePayload(fn Function, raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	t, ok := payloadTypes[fn]
	if !ok {
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, invalidPayload(fn, err)
		}
		return v, nil
	}
	p := reflect.New(t)
	if err := json.Unmarshal(raw, p.Interface()); err != nil {
		return nil, invalidPayload(fn, string(raw))
	}
	return p.Elem().Interface(), nil
}

// Workers

// Run polls the session until the context is done.
func (s *EventServer) Run() error {
	defer s.pollTicker.Close()

	s.session.OnEventAvailable(s.notify)
	defer s.session.OnEventAvailable(nil)

	s.eg.Go(s.workerPoll)
	s.eg.Go(s.workerBroadcastEvent)
	s.eg.Go(s.workerBroadcastInfo)
	return s.eg.Wait()
}

// notify is called by the session for every camera notification.
func (s *EventServer) notify() {
	s.notifyRate.Incr(1)
	select {
	case s.fetchNow <- true:
	default:
	}
}

func (s *EventServer) workerPoll() error {
	for {
		select {
		case <-s.pollTicker.C:
			// Let's go!
		case <-s.fetchNow:
			// Do it now
		case <-s.ctx.Done():
			return nil
		}

		ev, err := s.session.Event()
		if err != nil {
			s.log.WithField("prefix", "sony.workerPoll").Warning(err)
			continue
		}
		s.polls.Inc()

		j, err := json.Marshal(ev)
		if err != nil {
			s.log.WithField("prefix", "sony.workerPoll").Errorf("failed to marshal event: %s", err)
			continue
		}
		s.eventLock.Lock()
		s.event = j
		s.eventLock.Unlock()
		select {
		case s.newEvent <- true:
		default:
		}
	}
}

func (s *EventServer) copyEvent() []byte {
	s.eventLock.Lock()
	defer s.eventLock.Unlock()
	return s.event
}

func (s *EventServer) workerBroadcastEvent() error {
	broadcast := func(ev []byte) {
		s.streamLock.Lock()
		defer s.streamLock.Unlock()

		for c := range s.eventClients {
			err := c.WriteMessage(websocket.TextMessage, ev)
			if err != nil {
				s.log.WithField("prefix", "sony.workerBroadcastEvent").Errorf("failed to send an event: %s", err)
			}
		}
	}

	for {
		select {
		case <-s.ctx.Done():
			return nil
		case <-s.newEvent:
		}

		ev := s.copyEvent()
		if len(ev) == 0 {
			continue
		}
		broadcast(ev)
	}
}

func (s *EventServer) info() *InfoPayload {
	s.streamLock.Lock()
	clients := len(s.eventClients)
	s.streamLock.Unlock()

	return &InfoPayload{
		Notifications: s.notifyRate.Rate(),
		Polls:         s.polls.Load(),
		PollInterval:  s.pollTicker.Interval().Milliseconds(),
		EventClients:  clients,
	}
}

func (s *EventServer) workerBroadcastInfo() error {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	broadcast := func() {
		info := s.info()

		s.controlLock.Lock()
		defer s.controlLock.Unlock()

		for c := range s.controlClients {
			err := c.WriteJSON(ControlMessage{Type: "info", Info: info})
			if err != nil {
				s.log.WithField("prefix", "sony.workerBroadcastInfo").Errorf("failed to send info: %s", err)
			}
		}
	}

	for {
		select {
		case <-s.ctx.Done():
			return nil
		case <-tick.C:
			// Let's go!
		}

		broadcast()
	}
}
