package spiflash

import (
	"encoding/binary"
	"fmt"
)

const (
	sfdpSignature = 0x50444653 // "SFDP"
	sfdpMajor     = 1

	/* JESD216 1.0 is accepted. Raise this, and check Header.Minor against
	 * it, to reject older revisions. */
	sfdpMinorMin = 0

	sfdpHeaderSize     = 8
	sfdpDescriptorSize = 8
)

// TableID identifies an SFDP parameter table.
type TableID uint16

const (
	TableBasic           TableID = 0xff00
	TableSectorMap       TableID = 0xff81
	TableFourByteOpcodes TableID = 0xff84
)

func (t TableID) String() string {
	switch t {
	case TableBasic:
		return "basic"
	case TableSectorMap:
		return "sector-map"
	case TableFourByteOpcodes:
		return "4byte-opcodes"
	default:
		return fmt.Sprintf("%04x", uint16(t))
	}
}

// Descriptor locates one parameter table in the SFDP address space.
type Descriptor struct {
	ID    TableID
	Major uint8
	Minor uint8

	/* In dwords */
	Length  uint8
	Pointer uint32
}

func decodeDescriptor(b []byte) Descriptor {
	return Descriptor{
		ID:      TableID(uint16(b[7])<<8 | uint16(b[0])),
		Minor:   b[1],
		Major:   b[2],
		Length:  b[3],
		Pointer: uint32(b[4]) | uint32(b[5])<<8 | uint32(b[6])<<16,
	}
}

// betterThan reports whether d should replace the incumbent descriptor of
// the same table: a newer minor wins, then a longer table.
func (d Descriptor) betterThan(incumbent Descriptor) bool {
	if d.Minor != incumbent.Minor {
		return d.Minor > incumbent.Minor
	}
	return d.Length > incumbent.Length
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s v%d.%d len=%d ptr=%06x", d.ID, d.Major, d.Minor, d.Length, d.Pointer)
}

// Header is the fixed record at offset 0 of the SFDP space, including the
// embedded basic table descriptor.
type Header struct {
	Signature uint32
	Major     uint8
	Minor     uint8

	/* Descriptors following the embedded one */
	NumDescriptors int

	Basic Descriptor
}

func decodeHeader(b []byte) Header {
	return Header{
		Signature:      binary.LittleEndian.Uint32(b),
		Minor:          b[4],
		Major:          b[5],
		NumDescriptors: int(b[6]),
		Basic:          decodeDescriptor(b[sfdpHeaderSize:]),
	}
}

func (h Header) validate() error {
	if h.Signature != sfdpSignature {
		return fmt.Errorf("%w: %08x", ErrorSFDPSignature, h.Signature)
	}

	if h.Major != sfdpMajor {
		return fmt.Errorf("%w: %d.%d", ErrorSFDPVersion, h.Major, h.Minor)
	}

	if h.Basic.ID != TableBasic || h.Basic.Major != sfdpMajor {
		return fmt.Errorf("%w: first table is %s", ErrorSFDPNoBasicTable, h.Basic)
	}

	return nil
}

// SFDPInfo is the outcome of one discovery pass.
type SFDPInfo struct {
	Header Header

	/* Additional descriptors in the order the chip lists them */
	Descriptors []Descriptor

	/* Basic table that was interpreted */
	Basic      Descriptor
	BasicTable BasicTable

	Caps Caps
}

func discover(r *sfdpReader, logf func(format string, params ...any)) (*SFDPInfo, error) {
	var hdrBuf [sfdpHeaderSize + sfdpDescriptorSize]byte
	if err := r.read(0, hdrBuf[:]); err != nil {
		return nil, err
	}

	hdr := decodeHeader(hdrBuf[:])
	if err := hdr.validate(); err != nil {
		return nil, err
	}

	info := &SFDPInfo{
		Header: hdr,
		Basic:  hdr.Basic,
	}

	if hdr.NumDescriptors > 0 {
		raw := make([]byte, hdr.NumDescriptors*sfdpDescriptorSize)
		if err := r.read(uint32(len(hdrBuf)), raw); err != nil {
			return nil, err
		}

		info.Descriptors = make([]Descriptor, hdr.NumDescriptors)
		for i := range info.Descriptors {
			info.Descriptors[i] = decodeDescriptor(raw[i*sfdpDescriptorSize:])
		}
	}

	for _, m := range info.Descriptors {
		if m.ID == TableBasic && m.Major == sfdpMajor && m.betterThan(info.Basic) {
			info.Basic = m
		}
	}

	table, err := parseBasicTable(r, info.Basic)
	if err != nil {
		return nil, err
	}
	info.BasicTable = table
	info.Caps = table.Caps()

	/* Optional tables are informational only and never fail discovery */
	for _, m := range info.Descriptors {
		switch m.ID {
		case TableBasic:
			/* Interpreted above */
		case TableSectorMap:
			logf("SFDP: sector map table present, non-uniform erase maps are not supported")
		}
	}

	return info, nil
}
