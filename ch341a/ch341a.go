package ch341a

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/google/gousb"
)

const (
	VendorID  = 0x1a86
	ProductID = 0x5512

	endpointOut = 2
	endpointIn  = 2

	packetLength = 32

	cmdSPIStream = 0xa8
	cmdI2CStream = 0xaa
	cmdUIOStream = 0xab

	i2cSetSpeed = 0x60
	i2cEnd      = 0x00

	uioOut = 0x80
	uioDir = 0x40
	uioEnd = 0x20

	/* D0 is chip select, D3/D5 are clock and MOSI */
	pinsIdle     = 0x37
	pinsSelected = 0x36
	pinsOutputs  = 0x3f

	MaxTransactionSize = 4096
)

var ErrorNotFound = errors.New("CH341A not found")

type CH341A struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	intf *gousb.Interface
	done func()

	epOut *gousb.OutEndpoint
	epIn  *gousb.InEndpoint
}

// New opens the first CH341A on the bus. speed is the clock divider
// setting of the bridge (0..3).
func New(speed int) (*CH341A, error) {
	if speed < 0 || speed > 3 {
		return nil, fmt.Errorf("invalid speed index %d", speed)
	}

	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(VendorID, ProductID)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("USB error: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, ErrorNotFound
	}

	/* Not supported everywhere */
	dev.SetAutoDetach(true)

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}

	c := &CH341A{
		ctx:  ctx,
		dev:  dev,
		intf: intf,
		done: done,
	}

	if c.epOut, err = intf.OutEndpoint(endpointOut); err != nil {
		c.Close()
		return nil, err
	}
	if c.epIn, err = intf.InEndpoint(endpointIn); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.write([]byte{cmdI2CStream, i2cSetSpeed | byte(speed), i2cEnd}); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.pins(pinsIdle); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func (c *CH341A) Close() error {
	if c.done != nil {
		c.done()
		c.done = nil
	}
	if c.dev != nil {
		c.dev.Close()
		c.dev = nil
	}
	if c.ctx != nil {
		err := c.ctx.Close()
		c.ctx = nil
		return err
	}
	return nil
}

func (c *CH341A) write(buf []byte) error {
	n, err := c.epOut.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("short USB write: %d of %d", n, len(buf))
	}
	return nil
}

func (c *CH341A) read(buf []byte) error {
	for len(buf) > 0 {
		n, err := c.epIn.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("empty USB read")
		}
		buf = buf[n:]
	}
	return nil
}

func (c *CH341A) pins(state byte) error {
	return c.write([]byte{cmdUIOStream, uioOut | state, uioDir | pinsOutputs, uioEnd})
}

/* The CH341A shifts LSB first */
func reverseInto(dst []byte, src []byte) {
	for i, m := range src {
		dst[i] = bits.Reverse8(m)
	}
}

func (c *CH341A) stream(buf []byte) error {
	var pkt [packetLength]byte

	for len(buf) > 0 {
		chunk := buf
		if len(chunk) > packetLength-1 {
			chunk = chunk[:packetLength-1]
		}

		pkt[0] = cmdSPIStream
		reverseInto(pkt[1:], chunk)
		if err := c.write(pkt[:1+len(chunk)]); err != nil {
			return err
		}

		if err := c.read(pkt[:len(chunk)]); err != nil {
			return err
		}
		reverseInto(chunk, pkt[:len(chunk)])

		buf = buf[len(chunk):]
	}

	return nil
}

// SPI sends out and then clocks in len(in) bytes with chip select held.
func (c *CH341A) SPI(out []byte, in []byte) error {
	if len(out)+len(in) > MaxTransactionSize {
		return errors.New("transaction too long")
	}

	buf := make([]byte, len(out)+len(in))
	copy(buf, out)

	if err := c.pins(pinsSelected); err != nil {
		return err
	}

	err := c.stream(buf)

	if err2 := c.pins(pinsIdle); err == nil {
		err = err2
	}
	if err != nil {
		return err
	}

	copy(in, buf[len(out):])
	return nil
}
