package spiflash

import (
	"encoding/binary"
	"fmt"
)

/* simChip answers SPI NOR commands the way a real part would */
type simChip struct {
	id   [4]byte
	sfdp []byte

	/* Programmed bytes, everything else reads as erased */
	array map[uint32]byte

	fourByteMode bool
	sfdpErr      error

	ops       []byte
	sfdpReads []int
}

func newSimChip(id uint32, sfdp []byte) *simChip {
	c := &simChip{
		sfdp:  sfdp,
		array: make(map[uint32]byte),
	}
	binary.BigEndian.PutUint32(c.id[:], id)
	return c
}

func (c *simChip) address(cmd []byte, width int) (uint32, []byte, error) {
	if len(cmd) < 1+width {
		return 0, nil, fmt.Errorf("command %02x too short: %d", cmd[0], len(cmd))
	}

	var addr uint32
	for _, m := range cmd[1 : 1+width] {
		addr = addr<<8 | uint32(m)
	}
	return addr, cmd[1+width:], nil
}

func (c *simChip) width() int {
	if c.fourByteMode {
		return 4
	}
	return 3
}

func (c *simChip) spi(out []byte, in []byte) error {
	c.ops = append(c.ops, out[0])

	switch out[0] {
	case opcodeReadID:
		copy(in, c.id[:])

	case opcodeReadSFDP:
		addr, rest, err := c.address(out, c.width())
		if err != nil {
			return err
		}
		if len(rest) != 1 {
			return fmt.Errorf("SFDP read needs one dummy byte, got %d", len(rest))
		}
		if c.sfdpErr != nil {
			return c.sfdpErr
		}
		c.sfdpReads = append(c.sfdpReads, len(in))
		for i := range in {
			in[i] = 0xff
			if int(addr)+i < len(c.sfdp) {
				in[i] = c.sfdp[int(addr)+i]
			}
		}

	case opcodeRead, opcodeRead4B:
		width := c.width()
		if out[0] == opcodeRead4B {
			width = 4
		}
		addr, rest, err := c.address(out, width)
		if err != nil {
			return err
		}
		if len(rest) != 0 {
			return fmt.Errorf("unexpected dummy bytes for read")
		}
		for i := range in {
			v, ok := c.array[addr+uint32(i)]
			if !ok {
				v = 0xff
			}
			in[i] = v
		}

	case opcodePageProgram, opcodePageProgram4B:
		width := c.width()
		if out[0] == opcodePageProgram4B {
			width = 4
		}
		addr, data, err := c.address(out, width)
		if err != nil {
			return err
		}
		for i, m := range data {
			v, ok := c.array[addr+uint32(i)]
			if !ok {
				v = 0xff
			}
			c.array[addr+uint32(i)] = v & m
		}

	case 0x20, 0x21:
		width := c.width()
		if out[0] == 0x21 {
			width = 4
		}
		addr, _, err := c.address(out, width)
		if err != nil {
			return err
		}
		addr &^= 4095
		for a := range c.array {
			if a >= addr && a < addr+4096 {
				delete(c.array, a)
			}
		}

	case opcodeEnter4ByteMode:
		c.fourByteMode = true

	case opcodeExit4ByteMode:
		c.fourByteMode = false

	case opcodeStatusRead:
		if len(in) > 0 {
			in[0] = 0
		}

	case opcodeWriteEnable:

	default:
		return fmt.Errorf("unknown opcode %02x", out[0])
	}

	return nil
}

func (c *simChip) sawOpcode(op byte) bool {
	for _, m := range c.ops {
		if m == op {
			return true
		}
	}
	return false
}

func encodeDescriptor(d Descriptor) []byte {
	return []byte{
		byte(d.ID), d.Minor, d.Major, d.Length,
		byte(d.Pointer), byte(d.Pointer >> 8), byte(d.Pointer >> 16),
		byte(d.ID >> 8),
	}
}

/* Builds an SFDP space with the given header revision, descriptors and
 * tables placed at their descriptor pointers */
func buildSFDP(major, minor uint8, basic Descriptor, extra []Descriptor, tables map[uint32][]uint32) []byte {
	out := []byte{'S', 'F', 'D', 'P', minor, major, byte(len(extra)), 0xff}
	out = append(out, encodeDescriptor(basic)...)
	for _, m := range extra {
		out = append(out, encodeDescriptor(m)...)
	}

	for ptr, words := range tables {
		end := int(ptr) + 4*len(words)
		for len(out) < end {
			out = append(out, 0xff)
		}
		for i, w := range words {
			binary.LittleEndian.PutUint32(out[int(ptr)+4*i:], w)
		}
	}

	return out
}

func basicWords(n int, word16 uint32) []uint32 {
	words := make([]uint32, n)
	if n >= 16 {
		words[15] = word16
	}
	return words
}
