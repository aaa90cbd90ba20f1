package spiflash

import (
	"encoding/binary"
	"fmt"
)

const (
	bfptWordsMin = 9
	bfptWordsMax = 16

	bfptFourByteOpcodesWord = 16
	bfptFourByteOpcodesBit  = 29
)

// BasicTable holds the basic flash parameter table. Words are numbered from
// 1 as in JESD216; only the first Valid words were advertised by the chip.
type BasicTable struct {
	words [bfptWordsMax]uint32
	Valid int
}

func parseBasicTable(r *sfdpReader, d Descriptor) (BasicTable, error) {
	var t BasicTable

	if d.Length < bfptWordsMin {
		return t, fmt.Errorf("%w: %d words", ErrorSFDPTableTooShort, d.Length)
	}

	t.Valid = int(d.Length)
	if t.Valid > bfptWordsMax {
		t.Valid = bfptWordsMax
	}

	var raw [bfptWordsMax * 4]byte
	if err := r.read(d.Pointer, raw[:t.Valid*4]); err != nil {
		return t, err
	}

	for i := 0; i < t.Valid; i++ {
		t.words[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}

	return t, nil
}

// Word returns dword n (1-based) and whether the chip advertised it.
func (t *BasicTable) Word(n int) (uint32, bool) {
	if n < 1 || n > t.Valid {
		return 0, false
	}
	return t.words[n-1], true
}

func (t *BasicTable) Caps() Caps {
	var c Caps

	if w, ok := t.Word(bfptFourByteOpcodesWord); ok && w&(1<<bfptFourByteOpcodesBit) != 0 {
		c |= CapFourByteOpcodes
	}

	return c
}

// Density returns the array size in bytes.
func (t *BasicTable) Density() (uint64, bool) {
	w, ok := t.Word(2)
	if !ok {
		return 0, false
	}

	if w&(1<<31) == 0 {
		return (uint64(w) + 1) / 8, true
	}

	n := w &^ (1 << 31)
	if n < 3 || n > 63 {
		return 0, false
	}
	return uint64(1) << (n - 3), true
}

// Erase4KOpcode returns the 4 KiB erase opcode if uniform 4 KiB erase is
// supported.
func (t *BasicTable) Erase4KOpcode() (uint8, bool) {
	w, ok := t.Word(1)
	if !ok || w&3 != 1 {
		return 0, false
	}

	op := uint8(w >> 8)
	if op == 0xff {
		return 0, false
	}
	return op, true
}
