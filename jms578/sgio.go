package jms578

import (
	"errors"
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	SG_DXFER_TO_DEV   = -2
	SG_DXFER_FROM_DEV = -3

	SG_INFO_OK_MASK = 0x1
	SG_INFO_OK      = 0x0

	SG_IO = 0x2285
)

type SGIOHdr struct {
	InterfaceID    int32   // 'S' for SCSI generic (required)
	DxferDirection int32   // data transfer direction
	CmdLen         uint8   // SCSI command length (<= 16 bytes)
	MxSbLen        uint8   // max length to write to sbp
	IovecCount     uint16  // 0 implies no scatter gather
	DxferLen       uint32  // byte count of data transfer
	DxferP         uintptr // points to data transfer memory or scatter gather list
	CmdP           uintptr // points to command to perform
	SbP            uintptr // points to sense_buffer memory
	Timeout        uint32  // MAX_UINT -> no timeout (unit: millisec)
	Flags          uint32  // 0 -> default, see SG_FLAG...
	PackID         int32   // unused internally (normally)
	UsrPtr         uintptr // unused internally
	Status         uint8   // SCSI status
	MaskedStatus   uint8   // shifted, masked scsi status
	MsgStatus      uint8   // messaging level data (optional)
	SbLenWr        uint8   // byte count actually written to sbp
	HostStatus     uint16  // errors from host adapter
	DriverStatus   uint16  // errors from software driver
	ResID          int32   // dxfer_len - actual_transferred
	Duration       uint32  // time taken by cmd (unit: millisec)
	Info           uint32  // auxiliary information
}

/* Vendor commands are tunneled as SCSI CDBs to the bridge's block device */
type sgDevice struct {
	path    string
	fd      int
	timeout time.Duration
}

func openSG(path string) (*sgDevice, error) {
	if vid, pid, ok := isUsbPath(path); ok {
		devs, err := FindUSBDevices(vid, pid)
		if err != nil {
			return nil, err
		}
		if len(devs) == 0 {
			return nil, errors.New("USB device not found")
		}
		if len(devs) > 1 {
			return nil, errors.New("more than one USB device found")
		}

		path = devs[0]
	}

	fd, err := unix.Open(path, unix.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}

	return &sgDevice{
		path:    path,
		fd:      fd,
		timeout: 3 * time.Second,
	}, nil
}

func (s *sgDevice) Close() error {
	if s.fd < 0 {
		return nil
	}

	fd := s.fd
	s.fd = -1

	return unix.Close(fd)
}

func (s *sgDevice) sgio(hdr *SGIOHdr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(s.fd), SG_IO, uintptr(unsafe.Pointer(hdr)))
	if errno != 0 {
		return errno
	}

	if hdr.Info&SG_INFO_OK_MASK != SG_INFO_OK {
		return fmt.Errorf("SCSI Status: %08x, Host Status: %08x, Driver Status: %08x", hdr.Status, hdr.HostStatus, hdr.DriverStatus)
	}

	return nil
}

func (s *sgDevice) transfer(cmd []byte, data []byte, direction int32) error {
	if s.fd < 0 {
		return errors.New("device is closed")
	}

	var senseBuf [32]byte

	hdr := SGIOHdr{
		InterfaceID:    'S',
		SbP:            uintptr(unsafe.Pointer(&senseBuf[0])),
		Timeout:        uint32(s.timeout / time.Millisecond),
		MxSbLen:        uint8(len(senseBuf)),
		DxferDirection: direction,

		CmdLen: uint8(len(cmd)),
		CmdP:   uintptr(unsafe.Pointer(&cmd[0])),
	}

	if len(data) > 0 {
		hdr.DxferP = uintptr(unsafe.Pointer(&data[0]))
		hdr.DxferLen = uint32(len(data))
	}

	err := s.sgio(&hdr)
	runtime.KeepAlive(cmd)
	runtime.KeepAlive(data)
	runtime.KeepAlive(&senseBuf)

	return err
}

func (s *sgDevice) Read(cmd []byte, data []byte) error {
	return s.transfer(cmd, data, SG_DXFER_FROM_DEV)
}

func (s *sgDevice) Write(cmd []byte, data []byte) error {
	return s.transfer(cmd, data, SG_DXFER_TO_DEV)
}
