package config

import (
	"fmt"
)

func isPowerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

// Validate checks the configuration without modifying it.
func Validate(cfg *Config) error {
	switch cfg.Transport {
	case TransportSPIDev:
		if cfg.SPIDev.Path == "" {
			return fmt.Errorf("spidev: path is required")
		}
		if cfg.SPIDev.Mode > 3 {
			return fmt.Errorf("spidev: mode %d is not 0..3", cfg.SPIDev.Mode)
		}

	case TransportCH341A:
		if cfg.CH341A.Speed < 0 || cfg.CH341A.Speed > 3 {
			return fmt.Errorf("ch341a: speed %d is not 0..3", cfg.CH341A.Speed)
		}

	case TransportJMS578:
		/* Empty path searches for the bridge by USB ID */

	default:
		return fmt.Errorf("unknown transport %q", cfg.Transport)
	}

	if cfg.MaxTransaction < 16 || cfg.MaxTransaction > 4096 {
		return fmt.Errorf("max_transaction %d is not 16..4096", cfg.MaxTransaction)
	}

	seen := make(map[uint32]string)
	for _, m := range cfg.Chips {
		if m.ID == 0 {
			return fmt.Errorf("chip %q: id is required", m.Name)
		}
		if other, ok := seen[m.ID]; ok {
			return fmt.Errorf("chip %q: id %06x already used by %q", m.Name, m.ID, other)
		}
		seen[m.ID] = m.Name

		if !isPowerOfTwo(m.PageSize) {
			return fmt.Errorf("chip %q: page_size %d is not a power of two", m.Name, m.PageSize)
		}
		if !isPowerOfTwo(m.SectorSize) || m.SectorSize < m.PageSize {
			return fmt.Errorf("chip %q: invalid sector_size %d", m.Name, m.SectorSize)
		}
		if m.ChipSize == 0 || m.ChipSize%m.SectorSize != 0 {
			return fmt.Errorf("chip %q: chip_size %d is not a multiple of the sector size", m.Name, m.ChipSize)
		}
	}

	return nil
}
