package i2clcd

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestI2CAddr(t *testing.T) {
	var tests = []struct {
		addr uint16
		want uint16
		err  error
	}{
		{addr: 0, want: 0x27},
		{addr: 0x20, want: 0x20},
		{addr: 0x27, want: 0x27},
		{addr: 0x38, want: 0x38},
		{addr: 0x3F, want: 0x3F},
		{addr: 0x28, err: ErrAddress},
		{addr: 0x76, err: ErrAddress},
	}
	for _, test := range tests {
		o := Opts{I2CAddr: test.addr}
		got, err := o.i2cAddr()
		if !errors.Is(err, test.err) {
			t.Errorf("%#x: expected error %v, got %v", test.addr, test.err, err)
		}
		if got != test.want {
			t.Errorf("%#x: expected address %#x, got %#x", test.addr, test.want, got)
		}
	}
}

func TestNewI2CBadAddress(t *testing.T) {
	_, err := NewI2C(&i2ctest.Record{}, &Opts{I2CAddr: 0x50})
	if !errors.Is(err, ErrAddress) {
		t.Errorf("expected ErrAddress, got %v", err)
	}
}

func TestPinsValidate(t *testing.T) {
	var tests = []struct {
		name string
		pins Pins
		err  error
	}{
		{name: "default", pins: DefaultPins},
		{name: "reversed", pins: Pins{RS: 7, RW: 6, E: 5, Backlight: 4, D4: 3, D5: 2, D6: 1, D7: 0}},
		{name: "range", pins: Pins{RS: 8, RW: 1, E: 2, Backlight: 3, D4: 4, D5: 5, D6: 6, D7: 7}, err: ErrPinRange},
		{name: "data out of range", pins: Pins{RS: 0, RW: 1, E: 2, Backlight: 3, D4: 4, D5: 5, D6: 6, D7: 200}, err: ErrPinRange},
		{name: "conflict", pins: Pins{RS: 0, RW: 1, E: 2, Backlight: 2, D4: 4, D5: 5, D6: 6, D7: 7}, err: ErrPinConflict},
		{name: "data conflict", pins: Pins{RS: 0, RW: 1, E: 2, Backlight: 3, D4: 4, D5: 4, D6: 6, D7: 7}, err: ErrPinConflict},
	}
	for _, test := range tests {
		err := test.pins.validate()
		if !errors.Is(err, test.err) {
			t.Errorf("%s: expected %v, got %v", test.name, test.err, err)
		}
	}
}

func TestNewRejectsBadPins(t *testing.T) {
	opts := &Opts{Pins: Pins{RS: 0, RW: 0, E: 2, Backlight: 3, D4: 4, D5: 5, D6: 6, D7: 7}}
	d, err := New(&fakeConn{}, opts)
	if !errors.Is(err, ErrPinConflict) {
		t.Errorf("expected ErrPinConflict, got %v", err)
	}
	if d != nil {
		t.Error("expected no device on error")
	}
}

func TestNewWritesNothing(t *testing.T) {
	bus := &i2ctest.Record{}
	if _, err := NewI2C(bus, nil); err != nil {
		t.Fatal(err)
	}
	if len(bus.Ops) != 0 {
		t.Errorf("construction wrote to the bus: %#v", bus.Ops)
	}
}

func TestZeroPinsUseDefault(t *testing.T) {
	o := Opts{}
	if o.pins() != DefaultPins {
		t.Errorf("expected DefaultPins, got %#v", o.pins())
	}
	m := o.pins().masks()
	want := masks{rs: 0x01, rw: 0x02, e: 0x04, bl: 0x08, data: [4]byte{0x10, 0x20, 0x40, 0x80}}
	if m != want {
		t.Errorf("masks %#v, want %#v", m, want)
	}
}
