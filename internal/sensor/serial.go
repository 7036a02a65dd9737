package sensor

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"
)

// Serial reads absolute pressure from a microcontroller streaming lines of
// the form "pressure_pa[,temp_c]". Blank lines and lines starting with '#'
// are skipped.
type Serial struct {
	port   io.ReadCloser
	reader *bufio.Reader
	name   string
}

// OpenSerial opens portName at baud, 8N1
func OpenSerial(portName string, baud uint) (*Serial, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	log.Printf("serial: pressure port opened on %s at %d baud", portName, baud)
	return NewSerialReader(portName, port), nil
}

// NewSerialReader reads the line protocol from any stream
func NewSerialReader(name string, rc io.ReadCloser) *Serial {
	return &Serial{port: rc, reader: bufio.NewReader(rc), name: name}
}

func (s *Serial) Name() string { return s.name }

func (s *Serial) Sense() (float64, float64, error) {
	for {
		line, err := s.reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			p, temp, perr := ParseLine(line)
			if perr == nil {
				return p, temp, nil
			}
			// partial lines right after the port opens are normal
			log.Printf("serial: skipping %q: %v", line, perr)
		}
		if err != nil {
			return 0, 0, fmt.Errorf("serial read: %w", err)
		}
	}
}

func (s *Serial) Close() error {
	return s.port.Close()
}

// ParseLine parses "pressure_pa[,temp_c]"
func ParseLine(line string) (pressurePa, tempC float64, err error) {
	fields := strings.Split(line, ",")
	if len(fields) > 2 {
		return 0, 0, fmt.Errorf("expected at most 2 fields, got %d", len(fields))
	}

	pressurePa, err = strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pressure: %w", err)
	}
	if pressurePa <= 0 {
		return 0, 0, fmt.Errorf("pressure must be positive, got %v", pressurePa)
	}

	if len(fields) == 2 {
		tempC, err = strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid temperature: %w", err)
		}
	}
	return pressurePa, tempC, nil
}
