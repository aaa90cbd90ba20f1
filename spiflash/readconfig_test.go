package spiflash

import (
	"bytes"
	"errors"
	"testing"
)

func TestReadConfigHeader(t *testing.T) {
	tests := []struct {
		cfg    ReadConfig
		offset uint32
		want   []byte
	}{
		{readConfigDefault, 0x123456, []byte{0x03, 0x12, 0x34, 0x56}},
		{readConfigSFDP, 0x000010, []byte{0x5a, 0x00, 0x00, 0x10, 0x00}},
		{ReadConfig{Opcode: 0x13, AddrWidth: 4}, 0x01020304, []byte{0x13, 0x01, 0x02, 0x03, 0x04}},
		{ReadConfig{Opcode: 0x0b, AddrWidth: 3, Dummy: 16}, 0xabcdef, []byte{0x0b, 0xab, 0xcd, 0xef, 0, 0}},
	}

	for _, m := range tests {
		if hdr := m.cfg.header(m.offset); !bytes.Equal(hdr, m.want) {
			t.Errorf("%v: got %x, expected %x", m.cfg, hdr, m.want)
		}
	}
}

func TestSFDPReaderRestoresConfig(t *testing.T) {
	active := ReadConfig{Opcode: 0x13, AddrWidth: 4, Dummy: 0}
	saved := active
	failure := errors.New("bus error")

	tests := []struct {
		name string
		xfer transferFunc
		want error
	}{
		{"success", func(offset uint32, buf []byte) (int, error) {
			return len(buf), nil
		}, nil},
		{"failure", func(offset uint32, buf []byte) (int, error) {
			return 0, failure
		}, failure},
		{"partial failure", func(offset uint32, buf []byte) (int, error) {
			if offset > 0 {
				return 0, failure
			}
			return 3, nil
		}, failure},
		{"zero length", func(offset uint32, buf []byte) (int, error) {
			return 0, nil
		}, ErrorTransferInconsistent},
		{"too long", func(offset uint32, buf []byte) (int, error) {
			return len(buf) + 1, nil
		}, ErrorTransferInconsistent},
	}

	for _, m := range tests {
		xfer := m.xfer
		r := &sfdpReader{
			active: &active,
			xfer: func(offset uint32, buf []byte) (int, error) {
				if active != readConfigSFDP {
					t.Errorf("%s: transfer issued with %v", m.name, active)
				}
				return xfer(offset, buf)
			},
		}

		var buf [8]byte
		if err := r.read(0, buf[:]); !errors.Is(err, m.want) {
			t.Errorf("%s: expected %v, got %v", m.name, m.want, err)
		}

		if active != saved {
			t.Errorf("%s: configuration not restored: %v", m.name, active)
		}
	}
}

func TestSFDPReaderSplitsTransfers(t *testing.T) {
	space := make([]byte, 64)
	for i := range space {
		space[i] = byte(i)
	}

	cfg := readConfigDefault
	var calls int
	r := &sfdpReader{
		active: &cfg,
		xfer: func(offset uint32, buf []byte) (int, error) {
			calls++
			if len(buf) > 5 {
				buf = buf[:5]
			}
			return copy(buf, space[offset:]), nil
		},
	}

	var buf [23]byte
	if err := r.read(7, buf[:]); err != nil {
		t.Fatal("Read failed:", err)
	}

	if !bytes.Equal(buf[:], space[7:30]) {
		t.Error("Wrong data:", buf)
	}

	if calls != 5 {
		t.Error("Unexpected number of transfers:", calls)
	}
}

func TestWithReadConfigPanic(t *testing.T) {
	active := readConfigDefault

	func() {
		defer func() {
			recover()
		}()

		withReadConfig(&active, readConfigSFDP, func() error {
			panic("transport crashed")
		})
	}()

	if active != readConfigDefault {
		t.Error("Configuration not restored after panic:", active)
	}
}
