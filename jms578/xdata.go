package jms578

import (
	"encoding/binary"
)

const (
	cmdXDATA       = 0xdf
	xdataMemory    = 0xfd
	xdataMemoryW   = 0xfe
	xdataMaxLength = 255
)

/* The stock firmware exposes 8051 XDATA through vendor CDB 0xdf. The last
 * byte selects the memory type and direction. */
func xdataCommand(offset uint16, length int, write bool) [12]byte {
	var cmd [12]byte
	cmd[0] = cmdXDATA
	cmd[4] = byte(length)
	binary.BigEndian.PutUint16(cmd[6:], offset)

	cmd[11] = xdataMemory
	if write {
		cmd[11] = xdataMemoryW
	}

	return cmd
}

func (d *JMS578) xdataRead(offset uint16, buf []byte) (int, error) {
	if len(buf) > xdataMaxLength {
		buf = buf[:xdataMaxLength]
	}

	cmd := xdataCommand(offset, len(buf), false)
	if err := d.dev.Read(cmd[:], buf); err != nil {
		return 0, err
	}

	return len(buf), nil
}

func (d *JMS578) xdataWrite(offset uint16, buf []byte) (int, error) {
	if len(buf) > xdataMaxLength {
		buf = buf[:xdataMaxLength]
	}

	cmd := xdataCommand(offset, len(buf), true)
	if err := d.dev.Write(cmd[:], buf); err != nil {
		return 0, err
	}

	return len(buf), nil
}

func completeIO(offset uint16, buf []byte, f func(offset uint16, buf []byte) (int, error)) (int, error) {
	if len(buf)+int(offset) > 0x10000 {
		buf = buf[:(0x10000 - int(offset))]
	}

	index := 0

	for len(buf) > 0 {
		n, err := f(offset, buf)
		index += n
		offset += uint16(n)

		if err != nil {
			return index, err
		}

		buf = buf[n:]
	}

	return index, nil
}

func (d *JMS578) XDATARead(offset uint16, buf []byte) (int, error) {
	return completeIO(offset, buf, d.xdataRead)
}

func (d *JMS578) XDATAWrite(offset uint16, buf []byte) (int, error) {
	return completeIO(offset, buf, d.xdataWrite)
}

func (d *JMS578) XDATAReadByte(offset uint16) (byte, error) {
	var buf [1]byte

	_, err := d.XDATARead(offset, buf[:])
	return buf[0], err
}

func (d *JMS578) XDATAWriteByte(offset uint16, value byte) error {
	_, err := d.XDATAWrite(offset, []byte{value})
	return err
}
