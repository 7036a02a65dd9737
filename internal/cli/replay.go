package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/synheart/synheart-breath/internal/encoding"
	"github.com/synheart/synheart-breath/internal/models"
	"github.com/synheart/synheart-breath/internal/recorder"
	"github.com/synheart/synheart-breath/internal/transport"
	"github.com/synheart/synheart-breath/internal/tui"
)

var (
	replayIn    string
	replaySpeed float64
	replayLoop  bool
	replayTUI   bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay recorded frames",
	Long: `Replay frames from a previously recorded NDJSON file over WebSocket, SSE
and UDP, or in the terminal monitor.

Examples:
  breath replay --in box.ndjson
  breath replay --in box.ndjson --speed 2.0 --loop
  breath replay --in box.ndjson --tui`,
	RunE: runReplay,
}

func init() {
	addServerFlags(replayCmd)
	replayCmd.Flags().StringVar(&replayIn, "in", "", "Input file to replay (required)")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayLoop, "loop", false, "Loop playback continuously")
	replayCmd.Flags().BoolVar(&replayTUI, "tui", false, "Show the replay in the terminal monitor")
	replayCmd.MarkFlagRequired("in")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	if err := applyOverrides(cmd, &cfg); err != nil {
		return err
	}
	if replaySpeed <= 0 {
		return fmt.Errorf("speed must be positive")
	}
	format, err := encoding.ParseFormat(cfg.Server.Format)
	if err != nil {
		return err
	}

	rep := recorder.NewReplayer(replayIn, replaySpeed, replayLoop)

	count, err := rep.CountFrames()
	if err != nil {
		return fmt.Errorf("failed to read recording: %w", err)
	}
	first, err := rep.GetFirstFrame()
	if err != nil {
		return fmt.Errorf("failed to read first frame: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	frames := make(chan models.Frame, frameBuffer)
	dispatcher := transport.NewDispatcher(frames, frameBuffer)

	var wg sync.WaitGroup
	var ws *transport.WebSocketServer
	var sse *transport.SSEServer
	var udp *transport.UDPServer
	var uiFrames <-chan models.Frame

	if replayTUI {
		uiFrames = dispatcher.Subscribe()
	} else {
		enc := encoding.NewEncoder(format)
		host, port := cfg.Server.Host, cfg.Server.Port
		ws = transport.NewWebSocketServer(host, port, enc)
		sse = transport.NewSSEServer(host, port+1, enc)
		udp = transport.NewUDPServer(host, port+2, enc)

		servers := map[string]func(context.Context) error{
			"WebSocket": ws.Start,
			"SSE":       sse.Start,
			"UDP":       udp.Start,
		}
		for name, start := range servers {
			wg.Add(1)
			go func(name string, start func(context.Context) error) {
				defer wg.Done()
				if err := start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("%s server error: %v", name, err)
				}
			}(name, start)
		}

		broadcasters := map[string]transport.Broadcaster{"websocket": ws, "sse": sse, "udp": udp}
		for name, b := range broadcasters {
			sub := dispatcher.Subscribe()
			go func(name string, b transport.Broadcaster) {
				if err := transport.Pump(ctx, name, sub, b); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("%s error: %v", name, err)
				}
			}(name, b)
		}

		// Give servers time to start
		time.Sleep(100 * time.Millisecond)
	}

	go dispatcher.Run(ctx)

	fmt.Printf("▶️  Replay Session Started\n\n")
	fmt.Printf("File:         %s\n", replayIn)
	fmt.Printf("Frames:       %d\n", count)
	fmt.Printf("Source:       %s (%s)\n", first.Source.Type, first.Source.ID)
	if first.Session.Scenario != "" {
		fmt.Printf("Scenario:     %s\n", first.Session.Scenario)
	}
	fmt.Printf("Speed:        %.1fx\n", replaySpeed)
	fmt.Printf("Loop:         %v\n", replayLoop)
	if ws != nil {
		fmt.Printf("WebSocket:    %s\n", ws.GetAddress())
		fmt.Printf("SSE:          %s\n", sse.GetAddress())
		fmt.Printf("UDP:          %s\n\n", udp.GetAddress())
		fmt.Println("Press Ctrl+C to stop")
	}

	replayErr := make(chan error, 1)
	go func() {
		err := rep.Replay(ctx, frames)
		close(frames)
		replayErr <- err
	}()

	if replayTUI {
		restore := muteLogs()
		uiErr := tui.Run(ctx, "replay · "+replayIn, uiFrames)
		restore()
		cancel()
		if uiErr != nil {
			return uiErr
		}
	}

	err = <-replayErr
	cancel()
	wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("replay error: %w", err)
	}

	fmt.Println("\nReplay complete")
	return nil
}
