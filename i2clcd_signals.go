/*
Copyright 2024 Tim St. Pierre
Expander register and 4-bit transfer to the HD44780
*/
package i2clcd

import (
	log "github.com/sirupsen/logrus"
)

const (
	modeCommand = false
	modeData    = true
)

// commit sends the whole shadow register to the expander as a single byte.
func (d *Dev) commit() error {
	d.buf[0] = d.reg
	return d.c.Tx(d.buf[:], nil)
}

func (d *Dev) set(mask byte, value bool) error {
	d.reg = pinInterpret(mask, d.reg, value)
	return d.commit()
}

func (d *Dev) setRS(value bool) error {
	return d.set(d.m.rs, value)
}

func (d *Dev) setRW(value bool) error {
	return d.set(d.m.rw, value)
}

func (d *Dev) setE(value bool) error {
	return d.set(d.m.e, value)
}

func (d *Dev) setBacklight(value bool) error {
	return d.set(d.m.bl, value)
}

// setDataNibble puts the low four bits of nibble on D4..D7, leaving the
// other lines as they are.
func (d *Dev) setDataNibble(nibble byte) error {
	for i, mask := range d.m.data {
		d.reg = pinInterpret(mask, d.reg, nibble&(1<<i) != 0)
	}
	return d.commit()
}

// writeNibble latches one nibble with an enable pulse.
func (d *Dev) writeNibble(nibble byte) error {
	if err := d.setE(true); err != nil {
		return err
	}
	if err := d.setDataNibble(nibble); err != nil {
		return err
	}
	return d.setE(false)
}

func (d *Dev) writeByte(rs bool, data byte) error {
	log.Debugf("i2clcd: writing rs=%t %#02x", rs, data)
	if err := d.setRS(rs); err != nil {
		return err
	}
	if err := d.writeNibble(data >> 4); err != nil {
		return err
	}
	return d.writeNibble(data & 0x0F)
}

func (d *Dev) writeCmd(cmd byte) error {
	return d.writeByte(modeCommand, cmd)
}

func (d *Dev) writeChar(char byte) error {
	return d.writeByte(modeData, char)
}

func pinInterpret(mask, data byte, value bool) byte {
	if value {
		return data | mask
	}
	return data &^ mask
}
