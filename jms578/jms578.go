// Package jms578 drives the SPI flash port of a JMicron JMS578 USB to SATA
// bridge through the vendor XDATA commands of its stock firmware.
package jms578

import (
	"errors"
	"time"
)

const (
	VendorID  = 0x152d
	ProductID = 0x0578

	regSPITx      = 0x7140
	regSPIRxIndex = 0x7141
	regSPIStart   = 0x714c
	regSPIRx      = 0x7150

	/* PIO engine limit for command plus response */
	MaxTransactionSize = 16

	spiTimeout = time.Second
)

var ErrorSPIViolated = errors.New("SPI interface cannot handle transaction")

type commander interface {
	Read(cmd []byte, data []byte) error
	Write(cmd []byte, data []byte) error
	Close() error
}

type JMS578 struct {
	dev commander
}

// New opens the bridge at path, either a block device node or "vvvv:pppp".
// An empty path looks for the default JMS578 IDs.
func New(path string) (*JMS578, error) {
	if path == "" {
		path = "152d:0578"
	}

	dev, err := openSG(path)
	if err != nil {
		return nil, err
	}

	return &JMS578{dev: dev}, nil
}

func (d *JMS578) Close() error {
	return d.dev.Close()
}

// SPI sends out and then receives len(in) bytes in one chip select cycle.
func (d *JMS578) SPI(out []byte, in []byte) error {
	if len(out)+len(in) > MaxTransactionSize {
		return ErrorSPIViolated
	}

	for _, m := range out {
		if err := d.XDATAWriteByte(regSPITx, m); err != nil {
			return err
		}
	}

	/* Write readback scheme */
	for i := range in {
		if err := d.XDATAWriteByte(regSPIRxIndex, byte(i)); err != nil {
			return err
		}
	}

	if err := d.XDATAWriteByte(regSPIStart, 1); err != nil {
		return err
	}

	timeout := time.Now().Add(spiTimeout)
	for {
		value, err := d.XDATAReadByte(regSPIStart)
		if err != nil {
			return err
		}
		if value == 0 {
			break
		}
		if time.Now().After(timeout) {
			return errors.New("SPI transaction timed out")
		}
	}

	_, err := d.XDATARead(regSPIRx, in)
	return err
}
