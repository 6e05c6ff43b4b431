/*
Copyright 2024 Tim St. Pierre
Options for a character LCD driven through an I2C expander backpack
*/
package i2clcd

import (
	"errors"
	"fmt"
)

var (
	ErrAddress     = errors.New("given address not supported by device")
	ErrPinRange    = errors.New("pin bit index out of range")
	ErrPinConflict = errors.New("two signals share the same pin")
)

// Pins maps each LCD signal to a bit of the expander output register.
type Pins struct {
	RS        uint8
	RW        uint8
	E         uint8
	Backlight uint8
	D4        uint8
	D5        uint8
	D6        uint8
	D7        uint8
}

// DefaultPins is the wiring used by most PCF8574 LCD backpacks.
var DefaultPins = Pins{
	RS:        0,
	RW:        1,
	E:         2,
	Backlight: 3,
	D4:        4,
	D5:        5,
	D6:        6,
	D7:        7,
}

type Opts struct {
	// The I²C slave address
	I2CAddr uint16
	// Expander bit used by each signal. The zero value selects DefaultPins.
	Pins Pins
}

var DefaultOpts = Opts{
	I2CAddr: 0x27,
	Pins:    DefaultPins,
}

func (o *Opts) i2cAddr() (uint16, error) {
	switch o.I2CAddr {
	case 0:
		// Default address.
		return 0x27, nil
	case 0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27:
		// PCF8574
		return o.I2CAddr, nil
	case 0x38, 0x39, 0x3A, 0x3B, 0x3C, 0x3D, 0x3E, 0x3F:
		// PCF8574A
		return o.I2CAddr, nil
	default:
		return 0, ErrAddress
	}
}

func (o *Opts) pins() Pins {
	if o.Pins == (Pins{}) {
		return DefaultPins
	}
	return o.Pins
}

// masks holds the precomputed register bit for every signal.
type masks struct {
	rs, rw, e, bl byte
	data          [4]byte // D4..D7
}

func (p Pins) named() []struct {
	name string
	bit  uint8
} {
	return []struct {
		name string
		bit  uint8
	}{
		{"RS", p.RS}, {"RW", p.RW}, {"E", p.E}, {"Backlight", p.Backlight},
		{"D4", p.D4}, {"D5", p.D5}, {"D6", p.D6}, {"D7", p.D7},
	}
}

// validate checks every index is a register bit and no two signals overlap.
func (p Pins) validate() error {
	var used byte
	owner := map[uint8]string{}
	for _, s := range p.named() {
		if s.bit > 7 {
			return fmt.Errorf("%s=%d: %w", s.name, s.bit, ErrPinRange)
		}
		m := byte(1) << s.bit
		if used&m != 0 {
			return fmt.Errorf("%s and %s both on bit %d: %w", owner[s.bit], s.name, s.bit, ErrPinConflict)
		}
		used |= m
		owner[s.bit] = s.name
	}
	return nil
}

func (p Pins) masks() masks {
	return masks{
		rs:   pinMask(p.RS),
		rw:   pinMask(p.RW),
		e:    pinMask(p.E),
		bl:   pinMask(p.Backlight),
		data: [4]byte{pinMask(p.D4), pinMask(p.D5), pinMask(p.D6), pinMask(p.D7)},
	}
}

func pinMask(pin uint8) byte {
	return 0x01 << pin
}
