package sensor

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

// bmpAddresses are tried in order; breakout boards strap SDO either way
var bmpAddresses = []uint16{0x76, 0x77}

// BMP280 reads a Bosch BMP280/BME280 over I2C
type BMP280 struct {
	bus  i2c.BusCloser
	dev  *bmxx80.Dev
	addr uint16
}

// OpenBMP280 opens the named I2C bus ("" for the first one) and probes the
// sensor at 0x76, then 0x77.
func OpenBMP280(busName string) (*BMP280, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to init periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", busName, err)
	}

	opts := bmxx80.Opts{
		Temperature: bmxx80.O2x,
		Pressure:    bmxx80.O16x,
		Filter:      bmxx80.F16,
	}

	var lastErr error
	for _, addr := range bmpAddresses {
		dev, err := bmxx80.NewI2C(bus, addr, &opts)
		if err != nil {
			log.Printf("bmp280: no sensor at %#x: %v", addr, err)
			lastErr = err
			continue
		}
		log.Printf("bmp280: %s initialized at %#x", dev, addr)
		return &BMP280{bus: bus, dev: dev, addr: addr}, nil
	}

	bus.Close()
	return nil, fmt.Errorf("failed to find BMP280 at 0x76 or 0x77: %w", lastErr)
}

// Address returns the I2C address the sensor answered on
func (b *BMP280) Address() uint16 {
	return b.addr
}

func (b *BMP280) Sense() (float64, float64, error) {
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return 0, 0, fmt.Errorf("bmp280 sense: %w", err)
	}
	return float64(e.Pressure) / float64(physic.Pascal), e.Temperature.Celsius(), nil
}

func (b *BMP280) Close() error {
	if err := b.dev.Halt(); err != nil {
		b.bus.Close()
		return fmt.Errorf("failed to halt bmp280: %w", err)
	}
	return b.bus.Close()
}
