package spiflash

import (
	"github.com/snksoft/crc"
)

var crcTable = crc.NewTable(crc.CRC32)

// CRC32 returns the standard CRC-32 of buf.
func CRC32(buf []byte) uint32 {
	h := crc.NewHashWithTable(crcTable)
	h.Update(buf)
	return h.CRC32()
}

// Checksum reads length bytes starting at offset and returns their CRC-32.
func (f *Flash) Checksum(offset uint32, length uint32) (uint32, error) {
	if uint64(offset)+uint64(length) > uint64(f.device.ChipSize) {
		return 0, ErrorOutOfRange
	}

	h := crc.NewHashWithTable(crcTable)

	var buf [4096]byte
	for length > 0 {
		chunk := buf[:]
		if uint32(len(chunk)) > length {
			chunk = chunk[:length]
		}

		if _, err := f.Read(offset, chunk); err != nil {
			return 0, err
		}
		h.Update(chunk)

		offset += uint32(len(chunk))
		length -= uint32(len(chunk))
	}

	return h.CRC32(), nil
}
