package spiflash

import "testing"

func tableOf(words ...uint32) BasicTable {
	var t BasicTable
	copy(t.words[:], words)
	t.Valid = len(words)
	return t
}

func TestBasicTableWord(t *testing.T) {
	table := tableOf(1, 2, 3, 4, 5, 6, 7, 8, 9)

	if w, ok := table.Word(1); !ok || w != 1 {
		t.Error("Word 1 wrong:", w, ok)
	}
	if w, ok := table.Word(9); !ok || w != 9 {
		t.Error("Word 9 wrong:", w, ok)
	}
	if _, ok := table.Word(10); ok {
		t.Error("Word beyond table length reported valid")
	}
	if _, ok := table.Word(0); ok {
		t.Error("Word 0 reported valid")
	}
}

func TestBasicTableDensity(t *testing.T) {
	tests := []struct {
		word2 uint32
		size  uint64
		ok    bool
	}{
		{0x00ffffff, 2 * 1024 * 1024, true},
		{0x0fffffff, 32 * 1024 * 1024, true},
		{0x80000022, 2 * 1024 * 1024 * 1024, true},
		{0x80000001, 0, false},
	}

	for _, m := range tests {
		table := tableOf(0, m.word2, 0, 0, 0, 0, 0, 0, 0)
		size, ok := table.Density()
		if size != m.size || ok != m.ok {
			t.Errorf("%08x: got %d/%v, expected %d/%v", m.word2, size, ok, m.size, m.ok)
		}
	}
}

func TestBasicTableErase4K(t *testing.T) {
	tests := []struct {
		word1 uint32
		op    uint8
		ok    bool
	}{
		{0xfff120e5, 0x20, true},
		{0xfff1ffe5, 0, false},
		{0xfff120e7, 0, false},
	}

	for _, m := range tests {
		table := tableOf(m.word1, 0, 0, 0, 0, 0, 0, 0, 0)
		op, ok := table.Erase4KOpcode()
		if op != m.op || ok != m.ok {
			t.Errorf("%08x: got %02x/%v, expected %02x/%v", m.word1, op, ok, m.op, m.ok)
		}
	}
}

func TestBasicTableCaps(t *testing.T) {
	full := tableOf(0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1<<29)
	if !full.Caps().Has(CapFourByteOpcodes) {
		t.Error("Capability not found in word 16")
	}

	/* Same contents, but only 15 words advertised */
	short := full
	short.Valid = 15
	if short.Caps() != 0 {
		t.Error("Capability read from word beyond the table length")
	}
}
