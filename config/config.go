package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BertoldVdb/spinor/spiflash"
)

type Config struct {
	Transport      string       `yaml:"transport"`
	SPIDev         SPIDevConfig `yaml:"spidev"`
	CH341A         CH341AConfig `yaml:"ch341a"`
	JMS578         JMS578Config `yaml:"jms578"`
	MaxTransaction int          `yaml:"max_transaction"`
	SFDP           *bool        `yaml:"sfdp"`
	Chips          []ChipConfig `yaml:"chips"`
}

type SPIDevConfig struct {
	Path    string `yaml:"path"`
	SpeedHz uint32 `yaml:"speed_hz"`
	Mode    uint8  `yaml:"mode"`
}

type CH341AConfig struct {
	Speed int `yaml:"speed"`
}

type JMS578Config struct {
	// Block device node or "vvvv:pppp" USB ID
	Path string `yaml:"path"`
}

// ChipConfig adds a part to the static ID table.
type ChipConfig struct {
	ID                uint32 `yaml:"id"`
	Name              string `yaml:"name"`
	ChipSize          uint32 `yaml:"chip_size"`
	PageSize          uint32 `yaml:"page_size"`
	SectorSize        uint32 `yaml:"sector_size"`
	OpcodeSectorErase uint8  `yaml:"opcode_sector_erase"`
	OpcodeChipErase   uint8  `yaml:"opcode_chip_erase"`
	FourByteOpcodes   bool   `yaml:"four_byte_opcodes"`
}

const (
	TransportSPIDev = "spidev"
	TransportCH341A = "ch341a"
	TransportJMS578 = "jms578"
)

func Default() *Config {
	return &Config{
		Transport: TransportSPIDev,
		SPIDev: SPIDevConfig{
			Path:    "/dev/spidev0.0",
			SpeedHz: 1000000,
		},
		CH341A: CH341AConfig{
			Speed: 1,
		},
		MaxTransaction: 4096,
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) SFDPEnabled() bool {
	return c.SFDP == nil || *c.SFDP
}

func (c *Config) Devices() []spiflash.Device {
	var devs []spiflash.Device

	for _, m := range c.Chips {
		devs = append(devs, spiflash.Device{
			DeviceID:          m.ID,
			Name:              m.Name,
			OpcodeChipErase:   m.OpcodeChipErase,
			OpcodeSectorErase: m.OpcodeSectorErase,
			SectorSize:        m.SectorSize,
			PageSize:          m.PageSize,
			ChipSize:          m.ChipSize,
			FourByteOpcodes:   m.FourByteOpcodes,
		})
	}

	return devs
}
