package spiflash

import "testing"

func TestCRC32(t *testing.T) {
	if c := CRC32([]byte("123456789")); c != 0xcbf43926 {
		t.Errorf("CRC Error: %08x", c)
	}
}

func TestChecksum(t *testing.T) {
	chip := newSimChip(0xef301200, nil)

	f, err := New(chip.spi, 64, WithoutSFDP())
	if err != nil {
		t.Fatal("New failed:", err)
	}

	data := make([]byte, 10000)
	for i := range data {
		data[i] = byte(i * 7)
	}
	for i, m := range data {
		chip.array[0x100+uint32(i)] = m
	}

	c, err := f.Checksum(0x100, uint32(len(data)))
	if err != nil {
		t.Fatal("Checksum failed:", err)
	}

	if c != CRC32(data) {
		t.Errorf("Checksum mismatch: %08x != %08x", c, CRC32(data))
	}
}
