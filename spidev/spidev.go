package spidev

import (
	"errors"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	SPI_IOC_WR_MODE          = 0x40016b01
	SPI_IOC_WR_BITS_PER_WORD = 0x40016b03
	SPI_IOC_WR_MAX_SPEED_HZ  = 0x40046b04

	spiIOCTransferSize = 32

	/* Default bufsiz of the spidev kernel module */
	MaxTransactionSize = 4096
)

func spiIOCMessage(n int) uintptr {
	return uintptr(0x40006b00 | (n*spiIOCTransferSize)<<16)
}

type SPIIOCTransfer struct {
	TxBuf       uint64 // userspace pointer, nil for read only
	RxBuf       uint64 // userspace pointer, nil for write only
	Len         uint32 // bytes in both buffers
	SpeedHz     uint32 // 0 -> device default
	DelayUsecs  uint16 // delay before next transfer or deselect
	BitsPerWord uint8
	CSChange    uint8 // deselect before the next transfer
	TxNBits     uint8
	RxNBits     uint8
	WordDelay   uint8
	Pad         uint8
}

type SPIDev struct {
	path    string
	fd      int
	SpeedHz uint32
	Mode    uint8
}

func New(path string, speedHz uint32, mode uint8) (*SPIDev, error) {
	s := &SPIDev{
		path:    path,
		fd:      -1,
		SpeedHz: speedHz,
		Mode:    mode,
	}

	err := s.open()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SPIDev) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(s.fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func (s *SPIDev) open() error {
	var err error
	s.fd, err = unix.Open(s.path, unix.O_RDWR, 0600)
	if err != nil {
		return err
	}

	bits := uint8(8)
	if err := s.ioctl(SPI_IOC_WR_MODE, unsafe.Pointer(&s.Mode)); err != nil {
		s.Close()
		return err
	}
	if err := s.ioctl(SPI_IOC_WR_BITS_PER_WORD, unsafe.Pointer(&bits)); err != nil {
		s.Close()
		return err
	}
	if s.SpeedHz > 0 {
		if err := s.ioctl(SPI_IOC_WR_MAX_SPEED_HZ, unsafe.Pointer(&s.SpeedHz)); err != nil {
			s.Close()
			return err
		}
	}

	return nil
}

func (s *SPIDev) Close() error {
	if s.fd < 0 {
		return nil
	}

	fd := s.fd
	s.fd = -1

	return unix.Close(fd)
}

// SPI sends out and then clocks in len(in) bytes while chip select stays
// asserted.
func (s *SPIDev) SPI(out []byte, in []byte) error {
	if s.fd < 0 {
		return errors.New("device is closed")
	}
	if len(out)+len(in) > MaxTransactionSize {
		return errors.New("transaction too long for spidev")
	}

	var xfer [2]SPIIOCTransfer
	n := 0

	if len(out) > 0 {
		xfer[n] = SPIIOCTransfer{
			TxBuf:       uint64(uintptr(unsafe.Pointer(&out[0]))),
			Len:         uint32(len(out)),
			SpeedHz:     s.SpeedHz,
			BitsPerWord: 8,
		}
		n++
	}

	if len(in) > 0 {
		xfer[n] = SPIIOCTransfer{
			RxBuf:       uint64(uintptr(unsafe.Pointer(&in[0]))),
			Len:         uint32(len(in)),
			SpeedHz:     s.SpeedHz,
			BitsPerWord: 8,
		}
		n++
	}

	if n == 0 {
		return nil
	}

	err := s.ioctl(spiIOCMessage(n), unsafe.Pointer(&xfer[0]))
	runtime.KeepAlive(out)
	runtime.KeepAlive(in)

	return err
}
