package spiflash

import "strings"

// Caps is a set of independent capability facts about a chip. Sources only
// ever add bits.
type Caps uint32

const (
	// CapFourByteOpcodes: the chip has a dedicated 4-byte address
	// instruction set.
	CapFourByteOpcodes Caps = 1 << iota
)

var capNames = []struct {
	c    Caps
	name string
}{
	{CapFourByteOpcodes, "4byte-opcodes"},
}

func (c Caps) Has(o Caps) bool {
	return c&o == o
}

func (c Caps) String() string {
	var names []string
	for _, m := range capNames {
		if c.Has(m.c) {
			names = append(names, m.name)
		}
	}

	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}
