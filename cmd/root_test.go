package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func resetFlags() {
	configPath, transport, devicePath = "", "", ""
	speedHz = 0
	noSFDP = false
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	defer resetFlags()

	path := filepath.Join(t.TempDir(), "spinor.yaml")
	data := "transport: ch341a\nspidev:\n  path: /dev/spidev2.0\nmax_transaction: 256\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	configPath = path
	transport = "spidev"
	speedHz = 5000000
	noSFDP = true

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Transport != "spidev" || cfg.SPIDev.Path != "/dev/spidev2.0" || cfg.SPIDev.SpeedHz != 5000000 {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.MaxTransaction != 256 {
		t.Errorf("file value lost: %d", cfg.MaxTransaction)
	}
	if cfg.SFDPEnabled() {
		t.Error("--no-sfdp ignored")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	defer resetFlags()

	transport = "parallel"
	if _, err := loadConfig(); err == nil {
		t.Error("invalid transport accepted")
	}
}

func TestLoadConfigJMS578Device(t *testing.T) {
	defer resetFlags()

	transport = "jms578"
	devicePath = "152d:0578"

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.JMS578.Path != "152d:0578" || cfg.SPIDev.Path != "/dev/spidev0.0" {
		t.Errorf("--device routed wrongly: %+v", cfg)
	}
}
