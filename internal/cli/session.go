package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/synheart/synheart-breath/internal/calibration"
	"github.com/synheart/synheart-breath/internal/config"
	"github.com/synheart/synheart-breath/internal/display"
	"github.com/synheart/synheart-breath/internal/encoding"
	"github.com/synheart/synheart-breath/internal/loop"
	"github.com/synheart/synheart-breath/internal/models"
	"github.com/synheart/synheart-breath/internal/recorder"
	"github.com/synheart/synheart-breath/internal/transport"
)

const frameBuffer = 100

type sessionOptions struct {
	Duration string
	Fast     bool
	Servers  bool
	Out      string
	OnRecord func()
}

// breathSession wires one source through the control loop to every
// configured consumer
type breathSession struct {
	cfg      config.Config
	opts     sessionOptions
	interval time.Duration

	src        *openedSource
	store      calibration.Store
	runner     *loop.Runner
	frames     chan models.Frame
	dispatcher *transport.Dispatcher
	sink       display.Sink
	pngs       *display.PNGSink
	rec        *recorder.Recorder

	ws  *transport.WebSocketServer
	sse *transport.SSEServer
	udp *transport.UDPServer

	closers []func() error

	ctx       context.Context
	cancel    context.CancelFunc
	consumers sync.WaitGroup
	servers   sync.WaitGroup
}

func newBreathSession(ctx context.Context, cfg config.Config, opts sessionOptions) (*breathSession, error) {
	interval, err := parseTickRate(cfg.Rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate: %w", err)
	}
	if _, err := encoding.ParseFormat(cfg.Server.Format); err != nil {
		return nil, err
	}

	s := &breathSession{cfg: cfg, opts: opts, interval: interval}
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.store, err = openStore(cfg)
	if err != nil {
		return nil, err
	}

	s.src, err = openSource(ctx, cfg, opts.Duration, opts.Fast)
	if err != nil {
		s.store.Close()
		return nil, err
	}

	if cfg.Frames.Dir != "" {
		s.pngs, err = display.NewPNGSink(cfg.Frames.Dir, cfg.Frames.Every)
		if err != nil {
			s.release()
			return nil, err
		}
		s.sink = display.NewScaled(s.pngs, cfg.Frames.Scale)
	}

	sceneName := cfg.Scene
	if sceneName == "none" {
		sceneName = ""
	}

	s.frames = make(chan models.Frame, frameBuffer)
	s.runner, err = loop.New(loop.Config{
		Thresholds: loadThresholds(ctx, s.store),
		Source:     s.src.source,
		SourceInfo: s.src.info,
		Session:    s.src.session,
		SceneName:  sceneName,
		Sink:       s.sink,
		Frames:     s.frames,
		Advance:    s.src.advance,
	}, 0)
	if err != nil {
		s.release()
		return nil, err
	}

	s.dispatcher = transport.NewDispatcher(s.frames, frameBuffer)
	return s, nil
}

// Subscribe adds a consumer; call it before start
func (s *breathSession) Subscribe() <-chan models.Frame {
	return s.dispatcher.Subscribe()
}

// start launches the servers, publishers and recorder
func (s *breathSession) start() error {
	format, _ := encoding.ParseFormat(s.cfg.Server.Format)
	enc := encoding.NewEncoder(format)

	if s.opts.Servers {
		host, port := s.cfg.Server.Host, s.cfg.Server.Port
		s.ws = transport.NewWebSocketServer(host, port, enc)
		s.sse = transport.NewSSEServer(host, port+1, enc)
		s.udp = transport.NewUDPServer(host, port+2, enc)

		s.serve("WebSocket", s.ws.Start)
		s.serve("SSE", s.sse.Start)
		s.serve("UDP", s.udp.Start)

		s.pump("websocket", s.ws)
		s.pump("sse", s.sse)
		s.pump("udp", s.udp)
	}

	if s.cfg.MQTT.Broker != "" {
		pub, err := transport.ConnectMQTT(s.cfg.MQTT.Broker, s.cfg.MQTT.ClientID, s.cfg.MQTT.Topic, enc)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, pub.Close)
		s.pump("mqtt", pub)
	}

	if s.cfg.NATS.URL != "" {
		pub, err := transport.ConnectNATS(s.cfg.NATS.URL, s.cfg.NATS.Subject, enc)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, pub.Close)
		s.pump("nats", pub)
	}

	if s.opts.Out != "" {
		rec, err := recorder.NewRecorder(s.opts.Out)
		if err != nil {
			return fmt.Errorf("failed to create recorder: %w", err)
		}
		s.rec = rec
		frames := s.dispatcher.SubscribeLossless()
		s.consumers.Add(1)
		go func() {
			defer s.consumers.Done()
			if err := rec.RecordFromChannel(s.ctx, frames, s.opts.OnRecord); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Recording error: %v", err)
			}
		}()
	}

	s.consumers.Add(1)
	go func() {
		defer s.consumers.Done()
		s.dispatcher.Run(s.ctx)
	}()

	if s.opts.Servers {
		time.Sleep(200 * time.Millisecond)
	}
	return nil
}

func (s *breathSession) serve(name string, start func(context.Context) error) {
	s.servers.Add(1)
	go func() {
		defer s.servers.Done()
		if err := start(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("%s error: %v", name, err)
		}
	}()
}

func (s *breathSession) pump(name string, b transport.Broadcaster) {
	frames := s.Subscribe()
	s.consumers.Add(1)
	go func() {
		defer s.consumers.Done()
		if err := transport.Pump(s.ctx, name, frames, b); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("%s error: %v", name, err)
		}
	}()
}

// run drives the control loop until the source is done or the session is
// cancelled
func (s *breathSession) run() error {
	var err error
	if s.opts.Fast {
		err = s.runner.Simulate(s.ctx, s.interval, 0)
	} else {
		err = s.runner.Run(s.ctx, s.interval)
	}
	close(s.frames)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop cancels the session from another goroutine
func (s *breathSession) Stop() {
	s.cancel()
}

// finish drains the consumers, stops the servers, stores the session
// summary and releases every resource
func (s *breathSession) finish() models.SessionSummary {
	s.consumers.Wait()
	s.cancel()
	s.servers.Wait()

	for _, c := range s.closers {
		if err := c(); err != nil {
			log.Printf("publisher close error: %v", err)
		}
	}

	sum := s.runner.Summary()
	if hist, ok := s.store.(sessionStore); ok && sum.DurationMs > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := hist.SaveSession(ctx, sum); err != nil {
			log.Printf("failed to save session: %v", err)
		}
		cancel()
	}

	s.release()
	return sum
}

func (s *breathSession) release() {
	if s.sink != nil {
		s.sink.Close()
	}
	if s.src != nil {
		s.src.Close(context.Background())
	}
	if s.store != nil {
		s.store.Close()
	}
	s.cancel()
}

func printBanner(title string, s *breathSession) {
	fmt.Printf("%s\n\n", title)
	fmt.Printf("Source:       %s (%s)\n", s.src.info.Type, s.src.info.ID)
	if s.src.scenario != nil {
		fmt.Printf("Scenario:     %s\n", s.src.scenario.Name)
	}
	fmt.Printf("Rate:         %s\n", s.cfg.Rate)
	th := s.runner.Record().Thresholds()
	fmt.Printf("Thresholds:   inhale %.1f Pa / exhale %.1f Pa\n", th.Inhale, th.Exhale)
	if sc := s.runner.Scene(); sc != nil {
		fmt.Printf("Scene:        %s\n", sc.Name())
	}
	if s.ws != nil {
		fmt.Printf("WebSocket:    %s\n", s.ws.GetAddress())
		fmt.Printf("SSE:          %s\n", s.sse.GetAddress())
		fmt.Printf("UDP:          %s\n", s.udp.GetAddress())
		fmt.Printf("Format:       %s\n", s.cfg.Server.Format)
	}
	if s.cfg.MQTT.Broker != "" {
		fmt.Printf("MQTT:         %s (%s/)\n", s.cfg.MQTT.Broker, s.cfg.MQTT.Topic)
	}
	if s.cfg.NATS.URL != "" {
		fmt.Printf("NATS:         %s (%s.>)\n", s.cfg.NATS.URL, s.cfg.NATS.Subject)
	}
	if s.pngs != nil {
		fmt.Printf("Frames:       %s\n", s.cfg.Frames.Dir)
	}
	if s.rec != nil {
		fmt.Printf("Recording:    %s\n", s.opts.Out)
	}
	fmt.Println()
}

func printSummary(sum models.SessionSummary) {
	fmt.Println("Session summary")
	fmt.Printf("  Session:      %s\n", sum.SessionID)
	fmt.Printf("  Duration:     %s\n", (time.Duration(sum.DurationMs) * time.Millisecond).Round(time.Millisecond))
	fmt.Printf("  Breaths:      %d\n", sum.BreathCount)
	fmt.Printf("  Avg cycle:    %.0f ms\n", sum.AvgCycleMs)
	fmt.Printf("  Rate:         %.1f breaths/min\n", sum.BreathsPerMinute())
	if sum.Scene == "balloon" {
		fmt.Printf("  Score:        %d\n", sum.Score)
	}
}
