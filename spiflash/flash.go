package spiflash

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

type SPIFunc func(out []byte, in []byte) error

const (
	opcodeWriteEnable      = 0x06
	opcodeStatusRead       = 0x05
	opcodeReadID           = 0x9f
	opcodeRead             = 0x03
	opcodeRead4B           = 0x13
	opcodePageProgram      = 0x02
	opcodePageProgram4B    = 0x12
	opcodeReadSFDP         = 0x5a
	opcodeEnter4ByteMode   = 0xb7
	opcodeExit4ByteMode    = 0xe9
	addressLimit3Byte      = 1 << 24
	minBytesPerTransaction = 16
)

/* Erase opcodes and their dedicated 4-byte address counterparts */
var erase4ByteOpcodes = map[uint8]uint8{
	0x20: 0x21,
	0x52: 0x5c,
	0xd8: 0xdc,
}

type Flash struct {
	spi SPIFunc

	deviceID [4]byte
	device   Device

	maxBytesPerTransaction int

	/* Active array read command, temporarily replaced during discovery */
	readCfg ReadConfig

	addrWidth         uint8
	fourByteMode      bool
	fourByteOpcodes   bool
	opcodeProgram     uint8
	opcodeSectorErase uint8

	caps    Caps
	sfdp    *SFDPInfo
	sfdpErr error

	opts options
}

func New(spi SPIFunc, maxBytesPerTransaction int, opts ...Option) (*Flash, error) {
	if maxBytesPerTransaction < minBytesPerTransaction {
		return nil, ErrorTransactionSize
	}

	f := &Flash{
		spi: spi,

		maxBytesPerTransaction: maxBytesPerTransaction,

		readCfg:   readConfigDefault,
		addrWidth: 3,
	}

	for _, m := range opts {
		m(&f.opts)
	}

	known := true
	if err := f.readDeviceID(); err != nil {
		if err := f.readDeviceID(); err != nil {
			if !errors.Is(err, ErrorUnsupportedDevice) {
				return nil, err
			}
			known = false
		}
	}

	if err := f.scan(known); err != nil {
		return nil, err
	}

	return f, nil
}

func (f *Flash) log(format string, params ...any) {
	if f.opts.logFunc != nil {
		f.opts.logFunc(format, params...)
	}
}

func (f *Flash) readDeviceID() error {
	if err := f.spi([]byte{opcodeReadID}, f.deviceID[:]); err != nil {
		return err
	}

	t := binary.BigEndian.Uint32(f.deviceID[:])
	var ok bool
	f.device, ok = deviceLookup(f.opts.devices, t)
	if !ok {
		f.device, ok = deviceLookup(devices, t)
	}
	if !ok {
		return fmt.Errorf("%w: %08x", ErrorUnsupportedDevice, t)
	}

	return nil
}

func (f *Flash) scan(known bool) error {
	if !f.opts.noSFDP {
		f.sfdp, f.sfdpErr = discover(f.sfdpReader(), f.log)
		if f.sfdpErr != nil {
			f.log("SFDP unavailable: %v", f.sfdpErr)
		} else {
			f.caps |= f.sfdp.Caps
		}
	} else {
		f.sfdpErr = ErrorSFDPDisabled
	}

	if !known {
		dev, err := f.deviceFromSFDP()
		if err != nil {
			return err
		}
		f.device = dev
	}

	if f.device.FourByteOpcodes {
		f.caps |= CapFourByteOpcodes
	}

	return f.selectAddressMode()
}

/* Builds a generic description for a chip that is only known through SFDP */
func (f *Flash) deviceFromSFDP() (Device, error) {
	id := binary.BigEndian.Uint32(f.deviceID[:])
	if f.sfdp == nil {
		return Device{}, fmt.Errorf("%w: %08x", ErrorUnsupportedDevice, id)
	}

	size, ok := f.sfdp.BasicTable.Density()
	if !ok || size == 0 || size > 1<<31 {
		return Device{}, fmt.Errorf("%w: %08x has no usable SFDP density", ErrorUnsupportedDevice, id)
	}

	dev := Device{
		DeviceID:          id >> 8,
		Name:              fmt.Sprintf("SFDP %06x", id>>8),
		OpcodeChipErase:   0xc7,
		OpcodeSectorErase: 0x20,
		SectorSize:        4096,
		PageSize:          256,
		ChipSize:          uint32(size),
	}

	if op, ok := f.sfdp.BasicTable.Erase4KOpcode(); ok {
		dev.OpcodeSectorErase = op
	}

	return dev, nil
}

func (f *Flash) selectAddressMode() error {
	f.addrWidth = 3
	f.fourByteMode = false
	f.fourByteOpcodes = false
	f.opcodeProgram = opcodePageProgram
	f.opcodeSectorErase = f.device.OpcodeSectorErase
	f.readCfg = readConfigDefault

	if f.device.ChipSize <= addressLimit3Byte {
		return nil
	}

	f.addrWidth = 4

	if manufacturerWants4ByteOpcodes(f.deviceID) || f.caps.Has(CapFourByteOpcodes) {
		if erase, ok := erase4ByteOpcodes[f.device.OpcodeSectorErase]; ok {
			f.fourByteOpcodes = true
			f.opcodeProgram = opcodePageProgram4B
			f.opcodeSectorErase = erase
			f.readCfg = ReadConfig{Opcode: opcodeRead4B, AddrWidth: 4}

			f.log("%s: using 4-byte opcodes", f.device.Name)
			return nil
		}

		f.log("%s: no 4-byte variant of erase opcode %02x", f.device.Name, f.device.OpcodeSectorErase)
	}

	if err := f.spi([]byte{opcodeEnter4ByteMode}, nil); err != nil {
		return err
	}
	f.fourByteMode = true
	f.readCfg = ReadConfig{Opcode: opcodeRead, AddrWidth: 4}

	f.log("%s: using 4-byte address mode", f.device.Name)
	return nil
}

func (f *Flash) DeviceID() [4]byte {
	return f.deviceID
}

func (f *Flash) Device() Device {
	return f.device
}

func (f *Flash) Caps() Caps {
	return f.caps
}

func (f *Flash) AddressWidth() int {
	return int(f.addrWidth)
}

func (f *Flash) FourByteOpcodes() bool {
	return f.fourByteOpcodes
}

func (f *Flash) ReadConfig() ReadConfig {
	return f.readCfg
}

// SFDP returns the result of the discovery done during New.
func (f *Flash) SFDP() (*SFDPInfo, error) {
	return f.sfdp, f.sfdpErr
}

func (f *Flash) sfdpReader() *sfdpReader {
	return &sfdpReader{
		active: &f.readCfg,
		xfer:   f.read,
	}
}

// ReadSFDP reads raw bytes from the SFDP address space. A chip switched to
// 4-byte address mode is taken out of it for the duration of the read, so
// the 3-byte SFDP command shape stays valid.
func (f *Flash) ReadSFDP(offset uint32, data []byte) (err error) {
	if f.fourByteMode {
		if err := f.spi([]byte{opcodeExit4ByteMode}, nil); err != nil {
			return err
		}

		defer func() {
			if err2 := f.spi([]byte{opcodeEnter4ByteMode}, nil); err == nil {
				err = err2
			}
		}()
	}

	return f.sfdpReader().read(offset, data)
}

func (f *Flash) command(opcode uint8, address uint32) []byte {
	return ReadConfig{Opcode: opcode, AddrWidth: f.addrWidth}.header(address)
}

func (f *Flash) writeEnable() error {
	return f.spi([]byte{opcodeWriteEnable}, nil)
}

func (f *Flash) statusRead() (uint8, error) {
	var result [1]byte
	err := f.spi([]byte{opcodeStatusRead}, result[:])
	return result[0], err
}

func (f *Flash) waitIdle(maxDuration time.Duration) error {
	timeout := time.Now().Add(maxDuration)
	for time.Now().Before(timeout) {
		if status, err := f.statusRead(); err != nil {
			return err
		} else {
			if status&1 == 0 {
				if status&(1<<5) > 0 {
					return errors.New("program operation failed")
				}
				return nil
			}
		}
	}
	return errors.New("timeout")
}

func (f *Flash) EraseChip() error {
	if err := f.writeEnable(); err != nil {
		return err
	}

	if err := f.spi([]byte{f.device.OpcodeChipErase}, nil); err != nil {
		return err
	}

	/* Large parts take minutes */
	err := f.waitIdle(time.Duration(f.device.ChipSize/(64*1024)+2) * time.Second)
	return err
}

func (f *Flash) EraseSector(address uint32) error {
	if address >= f.device.ChipSize {
		return ErrorOutOfRange
	}

	if err := f.writeEnable(); err != nil {
		return err
	}

	if err := f.spi(f.command(f.opcodeSectorErase, address), nil); err != nil {
		return err
	}

	err := f.waitIdle(2 * time.Second)
	return err
}

func (f *Flash) write(offset uint32, data []byte) (int, error) {
	/* Do not write over page boundary */
	maxLen := pageCrossLength(offset, f.device.PageSize)
	if len(data) > maxLen {
		data = data[:maxLen]
	}

	/* Do not waste time writing large 0xFFFFFF blocks */
	skippedFront := 0
	for i, m := range data {
		if m != 0xFF {
			offset += uint32(i)
			skippedFront = i
			data = data[i:]
			break
		}
	}

	skippedEnd := 0
	for len(data) > 0 && data[len(data)-1] == 0xFF {
		data = data[:len(data)-1]
		skippedEnd++
	}
	if len(data) == 0 {
		return skippedFront + skippedEnd, nil
	}

	cmd := f.command(f.opcodeProgram, offset)

	/* Ensure the transmission is not too long */
	if len(data)+len(cmd) > f.maxBytesPerTransaction {
		data = data[:f.maxBytesPerTransaction-len(cmd)]
		skippedEnd = 0
	}

	cmd = append(cmd, data...)

	if err := f.writeEnable(); err != nil {
		return 0, err
	}

	if err := f.spi(cmd, nil); err != nil {
		return 0, err
	}

	if err := f.waitIdle(time.Second); err != nil {
		return 0, err
	}

	return skippedFront + skippedEnd + len(data), nil
}

func (f *Flash) Write(offset uint32, data []byte) (int, error) {
	if uint64(offset)+uint64(len(data)) > uint64(f.device.ChipSize) {
		return 0, ErrorOutOfRange
	}

	return completeIO(offset, data, f.write)
}

func (f *Flash) read(offset uint32, data []byte) (int, error) {
	hdr := f.readCfg.header(offset)

	if len(data)+len(hdr) > f.maxBytesPerTransaction {
		data = data[:f.maxBytesPerTransaction-len(hdr)]
	}

	if err := f.spi(hdr, data); err != nil {
		return 0, err
	}

	return len(data), nil
}

func (f *Flash) Read(offset uint32, data []byte) (int, error) {
	if uint64(offset)+uint64(len(data)) > uint64(f.device.ChipSize) {
		return 0, ErrorOutOfRange
	}

	return completeIO(offset, data, f.read)
}
