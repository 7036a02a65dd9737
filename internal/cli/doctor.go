package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/synheart/synheart-breath/internal/config"
	"github.com/synheart/synheart-breath/internal/flux"
	"github.com/synheart/synheart-breath/internal/sensor"
)

var doctorProbe bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment and print connection info",
	Long: `Validates the configuration, checks port availability and the calibration
store, optionally probes the pressure sensor, and prints client examples.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorProbe, "probe", false, "Try to open the configured hardware sensor")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg := appCfg

	fmt.Println("🏥 Synheart Breath Environment Check")

	fmt.Printf("Go Version:        %s\n", runtime.Version())
	fmt.Printf("OS/Arch:           %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("Config:            %s\n\n", configSource())

	registry, err := loadRegistry()
	if err != nil {
		fmt.Printf("❌ Scenarios: %v\n\n", err)
	} else {
		names := registry.List()
		fmt.Printf("✅ Found %d scenarios: %v\n", len(names), names)
		if _, err := registry.Get(cfg.Scenario); err != nil {
			fmt.Printf("⚠️  Configured scenario %q not found\n", cfg.Scenario)
		}
		fmt.Println()
	}

	checkStore(cfg)
	checkSensor(cfg)

	ports := []struct {
		name string
		port int
	}{
		{"WebSocket", cfg.Server.Port},
		{"SSE", cfg.Server.Port + 1},
		{"UDP", cfg.Server.Port + 2},
	}
	for _, p := range ports {
		if isPortAvailable(cfg.Server.Host, p.port, p.name == "UDP") {
			fmt.Printf("✅ %s port %d is available\n", p.name, p.port)
		} else {
			fmt.Printf("⚠️  %s port %d is in use\n", p.name, p.port)
		}
	}
	fmt.Println("   Use --port to move all three")
	fmt.Println()

	printConnectionExamples(cfg)

	fmt.Println("✅ Environment check complete")
	return nil
}

func configSource() string {
	path := globalOpts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err != nil {
		return path + " (not found, using defaults)"
	}
	return path
}

func checkStore(cfg config.Config) {
	store, err := openStore(cfg)
	if err != nil {
		fmt.Printf("❌ Calibration store: %v\n\n", err)
		return
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	th, err := store.Load(ctx)
	if err != nil {
		fmt.Printf("❌ Calibration store %s: %v\n\n", cfg.Calibration.Store, err)
		return
	}
	fmt.Printf("✅ Calibration store %s: inhale %.1f Pa / exhale %.1f Pa\n\n", cfg.Calibration.Store, th.Inhale, th.Exhale)
}

func checkSensor(cfg config.Config) {
	kind := strings.ToLower(cfg.Sensor.Kind)
	fmt.Printf("Sensor:            %s\n", kind)

	if cfg.Sensor.Filter != "" {
		f, err := flux.Load(context.Background(), cfg.Sensor.Filter)
		if err != nil {
			fmt.Printf("❌ Filter %s: %v\n", cfg.Sensor.Filter, err)
		} else {
			fmt.Printf("✅ Filter %s loaded (%s)\n", f.Name(), cfg.Sensor.Filter)
			f.Close(context.Background())
		}
	}

	if !doctorProbe || kind == "simulated" {
		fmt.Println()
		return
	}

	var reader sensor.PressureReader
	switch kind {
	case "bmp280":
		dev, err := sensor.OpenBMP280(cfg.Sensor.I2CBus)
		if err != nil {
			fmt.Printf("❌ BMP280: %v\n\n", err)
			return
		}
		fmt.Printf("✅ BMP280 found at 0x%02x\n", dev.Address())
		reader = dev
	case "serial":
		port, err := sensor.OpenSerial(cfg.Sensor.SerialPort, cfg.Sensor.Baud)
		if err != nil {
			fmt.Printf("❌ Serial: %v\n\n", err)
			return
		}
		fmt.Printf("✅ Serial port %s opened\n", port.Name())
		reader = port
	}
	defer reader.Close()

	p, t, err := reader.Sense()
	if err != nil {
		fmt.Printf("❌ Read failed: %v\n\n", err)
		return
	}
	fmt.Printf("   Pressure %.1f Pa, temperature %.1f °C\n\n", p, t)
}

func printConnectionExamples(cfg config.Config) {
	url := fmt.Sprintf("ws://localhost:%d/breath", cfg.Server.Port)

	fmt.Println("📡 Connection Examples:")
	fmt.Println()

	fmt.Println("JavaScript/Node.js:")
	fmt.Printf("  const ws = new WebSocket('%s');\n", url)
	fmt.Println("  ws.onmessage = (event) => {")
	fmt.Println("    const frame = JSON.parse(event.data);")
	fmt.Println("    console.log(frame.breath.phase, frame.breath.normalized);")
	fmt.Println("  };")
	fmt.Println()

	fmt.Println("Python:")
	fmt.Println("  import websocket")
	fmt.Println("  import json")
	fmt.Println("  ws = websocket.WebSocket()")
	fmt.Printf("  ws.connect('%s')\n", url)
	fmt.Println("  while True:")
	fmt.Println("    frame = json.loads(ws.recv())")
	fmt.Println("    print(frame['breath']['phase'])")
	fmt.Println()

	fmt.Println("Go:")
	fmt.Printf("  conn, _, err := websocket.DefaultDialer.Dial(%q, nil)\n", url)
	fmt.Println("  for {")
	fmt.Println("    _, message, err := conn.ReadMessage()")
	fmt.Println("    var frame Frame")
	fmt.Println("    json.Unmarshal(message, &frame)")
	fmt.Println("  }")
	fmt.Println()

	fmt.Println("curl (SSE):")
	fmt.Printf("  curl -N http://localhost:%d/breath/sse\n", cfg.Server.Port+1)
	fmt.Println()

	fmt.Println("Latest frame:")
	fmt.Printf("  curl http://localhost:%d/breath/latest\n", cfg.Server.Port)
	fmt.Println()
}

func isPortAvailable(host string, port int, udp bool) bool {
	addr := net.JoinHostPort(host, fmt.Sprint(port))
	if udp {
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	listener.Close()
	return true
}
