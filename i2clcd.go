/*
Copyright 2024 Tim St. Pierre
Controls an HD44780 character LCD through a PCF8574 I2C backpack
*/
package i2clcd

import (
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

const (
	// Commands
	CMD_Clear_Display   = 0x01
	CMD_Return_Home     = 0x02
	CMD_Display_Control = 0x08
	CMD_Function_Set    = 0x20
	CMD_DDRAM_Set       = 0x80

	// Options
	OPT_Enable_Display = 0x04 // CMD_Display_Control
	OPT_Enable_Cursor  = 0x02 // CMD_Display_Control
	OPT_Enable_Blink   = 0x01 // CMD_Display_Control
	OPT_4_Bit_Mode     = 0x00 // CMD_Function_Set 0x10 = 8 bit
	OPT_2_Lines        = 0x08 // CMD_Function_Set 0 = 1 line
	OPT_5x8_Dots       = 0x00 // CMD_Function_Set 0x04 = 5x10 dots

	// Second line of a two line display starts here in DDRAM.
	secondLineOffset = 0x40
)

// Minimum settle times. The backpack does not wire the busy flag so the
// controller is never polled.
const (
	// Time for the controller to come out of power on reset.
	powerOnDelay = 100 * time.Millisecond
	// After the first 0x3 nibble of the wake up sequence.
	wakeDelay = 5 * time.Millisecond
	// After the remaining wake up nibbles and the function set.
	commandDelay = 1 * time.Millisecond
	// Clear display and return home.
	clearDelay = 2 * time.Millisecond
)

type initState int

const (
	stateUnknown initState = iota
	stateForcedIdle
	stateFunctionConfigured
	stateCleared
	stateReady
)

func (s initState) String() string {
	switch s {
	case stateUnknown:
		return "unknown"
	case stateForcedIdle:
		return "forced-idle"
	case stateFunctionConfigured:
		return "function-configured"
	case stateCleared:
		return "cleared"
	case stateReady:
		return "ready"
	}
	return fmt.Sprintf("initState(%d)", int(s))
}

// Dev is a character LCD reached through one 8 bit expander register.
//
// Dev is not safe for concurrent use.
type Dev struct {
	c     conn.Conn
	m     masks
	reg   byte
	buf   [1]byte
	video byte
	state initState
	sleep func(time.Duration)
}

func (d *Dev) String() string {
	return fmt.Sprintf("i2clcd{%s}", d.c)
}

// NewI2C returns a new device that communicates over I²C
//
// Use default options if nil is used. The display is not touched until Init
// is called.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	addr, err := opts.i2cAddr()
	if err != nil {
		return nil, fmt.Errorf("i2clcd %#x: %w", opts.I2CAddr, err)
	}
	return New(&i2c.Dev{Bus: b, Addr: addr}, opts)
}

// New returns a device writing register bytes to c. Every write to c is a
// single byte.
func New(c conn.Conn, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	pins := opts.pins()
	if err := pins.validate(); err != nil {
		return nil, fmt.Errorf("i2clcd: %w", err)
	}
	return &Dev{
		c:     c,
		m:     pins.masks(),
		video: CMD_Display_Control | OPT_Enable_Display,
		sleep: time.Sleep,
	}, nil
}

// Init runs the power on sequence that leaves the controller in 4 bit, 2
// line, 5x8 dot mode with the display on and the cursor hidden. It is safe
// to call whatever state the controller was left in.
func (d *Dev) Init() error {
	d.state = stateUnknown
	d.sleep(powerOnDelay)

	// The driver never reads from the controller.
	if err := d.setRW(false); err != nil {
		return fmt.Errorf("i2clcd: init write mode: %w", err)
	}
	if err := d.setRS(modeCommand); err != nil {
		return fmt.Errorf("i2clcd: init command mode: %w", err)
	}

	// Three 0x3 nibbles resync the controller whatever transfer it was in the
	// middle of.
	for _, delay := range []time.Duration{wakeDelay, commandDelay, commandDelay} {
		if err := d.writeNibble(0x03); err != nil {
			return fmt.Errorf("i2clcd: init wake up: %w", err)
		}
		d.sleep(delay)
	}
	d.advance(stateForcedIdle)

	if err := d.writeNibble(0x02); err != nil {
		return fmt.Errorf("i2clcd: init 4 bit mode: %w", err)
	}
	d.sleep(commandDelay)

	if err := d.writeCmd(CMD_Function_Set | OPT_4_Bit_Mode | OPT_2_Lines | OPT_5x8_Dots); err != nil {
		return fmt.Errorf("i2clcd: init function set: %w", err)
	}
	d.sleep(commandDelay)
	d.advance(stateFunctionConfigured)

	if err := d.writeCmd(CMD_Clear_Display); err != nil {
		return fmt.Errorf("i2clcd: init clear: %w", err)
	}
	d.sleep(clearDelay)
	d.advance(stateCleared)

	if err := d.writeVideo(CMD_Display_Control | OPT_Enable_Display); err != nil {
		return fmt.Errorf("i2clcd: init display on: %w", err)
	}
	d.advance(stateReady)
	log.Infof("%s: initialized", d)
	return nil
}

func (d *Dev) advance(s initState) {
	log.WithFields(log.Fields{"from": d.state, "to": s}).Debug("i2clcd: init")
	d.state = s
}

// Backlight turns the backlight on or off. The display state is not changed.
func (d *Dev) Backlight(on bool) error {
	return d.setBacklight(on)
}

func (d *Dev) BacklightOn() error {
	return d.setBacklight(true)
}

func (d *Dev) BacklightOff() error {
	return d.setBacklight(false)
}

func (d *Dev) DisplayOn() error {
	return d.writeVideo(d.video | OPT_Enable_Display)
}

func (d *Dev) DisplayOff() error {
	return d.writeVideo(d.video &^ OPT_Enable_Display)
}

// SetCursorMode shows or hides the underline cursor and sets whether the
// cursor cell blinks. The display on/off setting is kept.
func (d *Dev) SetCursorMode(visible, blink bool) error {
	video := d.video &^ (OPT_Enable_Cursor | OPT_Enable_Blink)
	if visible {
		video |= OPT_Enable_Cursor
	}
	if blink {
		video |= OPT_Enable_Blink
	}
	return d.writeVideo(video)
}

// writeVideo sends a display control command and records it once it has
// been transmitted.
func (d *Dev) writeVideo(video byte) error {
	if err := d.writeCmd(video); err != nil {
		return err
	}
	d.video = video
	return nil
}

// SetCursorPosition moves the cursor to col on row 0 or 1. The column is not
// checked against the width of the display.
func (d *Dev) SetCursorPosition(row, col uint8) error {
	return d.writeCmd(CMD_DDRAM_Set | cursorAddress(row, col))
}

func cursorAddress(row, col uint8) byte {
	address := col
	if row == 1 {
		address += secondLineOffset
	}
	return address
}

// Clear blanks the display and moves the cursor to the first cell. It
// returns once the controller has had time to finish.
func (d *Dev) Clear() error {
	if err := d.writeCmd(CMD_Clear_Display); err != nil {
		return err
	}
	d.sleep(clearDelay)
	return nil
}

// Home moves the cursor to the first cell and undoes any display shift.
func (d *Dev) Home() error {
	if err := d.writeCmd(CMD_Return_Home); err != nil {
		return err
	}
	d.sleep(clearDelay)
	return nil
}

// WriteText writes text starting at row, col, one character code per rune
// as WriteString does. Text running past the end of the line is left to the
// controller's own address wrapping.
func (d *Dev) WriteText(row, col uint8, text string) error {
	if err := d.SetCursorPosition(row, col); err != nil {
		return err
	}
	_, err := d.WriteString(text)
	return err
}

// Write sends every byte of buf as a character code at the current cursor
// position. No UTF-8 decoding is done.
func (d *Dev) Write(buf []byte) (int, error) {
	for i, c := range buf {
		if err := d.writeChar(c); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

// WriteString sends one character code per rune of s at the current cursor
// position. Runes up to 0xFF are sent as their code point, anything else
// (including invalid UTF-8) as '?'. The count returned is in bytes of s.
func (d *Dev) WriteString(s string) (int, error) {
	for i, r := range s {
		if err := d.writeChar(charCode(r)); err != nil {
			return i, err
		}
	}
	return len(s), nil
}

func charCode(r rune) byte {
	if r < 0 || r > 0xFF {
		return '?'
	}
	return byte(r)
}

// Halt blanks the screen and turns off the backlight.
func (d *Dev) Halt() error {
	if err := d.Clear(); err != nil {
		return err
	}
	return d.BacklightOff()
}

var _ conn.Resource = &Dev{}
var _ io.Writer = &Dev{}
