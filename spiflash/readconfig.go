package spiflash

import (
	"fmt"
)

// ReadConfig is the command shape used for array reads: the opcode, the
// number of address bytes and the number of dummy clocks before data.
type ReadConfig struct {
	Opcode    uint8
	AddrWidth uint8
	Dummy     uint8
}

var (
	readConfigDefault = ReadConfig{Opcode: opcodeRead, AddrWidth: 3}
	readConfigSFDP    = ReadConfig{Opcode: opcodeReadSFDP, AddrWidth: 3, Dummy: 8}
)

/* Builds opcode, big-endian address and dummy bytes (one byte per 8 clocks
 * on a single data line) */
func (c ReadConfig) header(offset uint32) []byte {
	hdr := make([]byte, 1+int(c.AddrWidth)+int(c.Dummy)/8)
	hdr[0] = c.Opcode

	for i := 0; i < int(c.AddrWidth); i++ {
		hdr[int(c.AddrWidth)-i] = byte(offset >> (8 * i))
	}

	return hdr
}

func (c ReadConfig) String() string {
	return fmt.Sprintf("opcode=%02x addr=%d dummy=%d", c.Opcode, c.AddrWidth, c.Dummy)
}

// withReadConfig installs cfg as the active read configuration for the
// duration of fn. The previous configuration is put back on every return
// path, panics included.
func withReadConfig(active *ReadConfig, cfg ReadConfig, fn func() error) error {
	saved := *active
	*active = cfg
	defer func() {
		*active = saved
	}()

	return fn()
}

type transferFunc func(offset uint32, buf []byte) (int, error)

// sfdpReader issues reads in the SFDP address space. It borrows the active
// read configuration of the device, and xfer must honour it.
type sfdpReader struct {
	active *ReadConfig
	xfer   transferFunc
}

func (r *sfdpReader) read(offset uint32, buf []byte) error {
	return withReadConfig(r.active, readConfigSFDP, func() error {
		for len(buf) > 0 {
			n, err := r.xfer(offset, buf)
			if err != nil {
				return err
			}

			if n <= 0 || n > len(buf) {
				return fmt.Errorf("%w: requested %d bytes at %06x, transport returned %d", ErrorTransferInconsistent, len(buf), offset, n)
			}

			offset += uint32(n)
			buf = buf[n:]
		}

		return nil
	})
}
