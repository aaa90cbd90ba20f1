package spiflash

// Device describes the static, ID-table derived properties of a chip.
type Device struct {
	DeviceID uint32
	Name     string

	OpcodeChipErase   uint8
	OpcodeSectorErase uint8

	SectorSize uint32
	PageSize   uint32
	ChipSize   uint32

	/* The chip implements the dedicated 4-byte address opcodes */
	FourByteOpcodes bool
}

const mfrSpansion = 0x01

var devices = []Device{
	{DeviceID: 0x1f65, Name: "Adesto AT25DN512", OpcodeChipErase: 0x60, OpcodeSectorErase: 0x20, SectorSize: 4096, PageSize: 256, ChipSize: 64 * 1024},
	{DeviceID: 0xef3012, Name: "Winbond W25X20", OpcodeChipErase: 0xC7, OpcodeSectorErase: 0x20, SectorSize: 4096, PageSize: 256, ChipSize: 256 * 1024},
	{DeviceID: 0xef4018, Name: "Winbond W25Q128", OpcodeChipErase: 0xC7, OpcodeSectorErase: 0x20, SectorSize: 4096, PageSize: 256, ChipSize: 16 * 1024 * 1024},
	{DeviceID: 0xef4019, Name: "Winbond W25Q256", OpcodeChipErase: 0xC7, OpcodeSectorErase: 0x20, SectorSize: 4096, PageSize: 256, ChipSize: 32 * 1024 * 1024},
	{DeviceID: 0xc22019, Name: "Macronix MX25L25635F", OpcodeChipErase: 0xC7, OpcodeSectorErase: 0x20, SectorSize: 4096, PageSize: 256, ChipSize: 32 * 1024 * 1024},
	{DeviceID: 0x20ba19, Name: "Micron N25Q256A", OpcodeChipErase: 0xC7, OpcodeSectorErase: 0x20, SectorSize: 4096, PageSize: 256, ChipSize: 32 * 1024 * 1024, FourByteOpcodes: true},
	{DeviceID: 0x010219, Name: "Spansion S25FL256S", OpcodeChipErase: 0x60, OpcodeSectorErase: 0x20, SectorSize: 4096, PageSize: 256, ChipSize: 32 * 1024 * 1024},
}

func rightAlign(in uint32) (uint32, uint32) {
	mask := uint32(0)

	for (in >> 24) == 0 {
		in <<= 8
		mask <<= 8
		mask |= 0xFF
	}
	return in, ^mask
}

func deviceLookup(table []Device, id uint32) (Device, bool) {
	for _, m := range table {
		compare, mask := rightAlign(m.DeviceID)

		if id&mask == compare {
			return m, true
		}
	}
	return Device{}, false
}

/* Some vendors only offer a sane 4-byte mode through the dedicated opcodes,
 * regardless of what the ID table or SFDP say */
func manufacturerWants4ByteOpcodes(id [4]byte) bool {
	return id[0] == mfrSpansion
}
