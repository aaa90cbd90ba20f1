package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/BertoldVdb/spinor/ch341a"
	"github.com/BertoldVdb/spinor/config"
	"github.com/BertoldVdb/spinor/jms578"
	"github.com/BertoldVdb/spinor/spidev"
	"github.com/BertoldVdb/spinor/spiflash"
)

var (
	// Global flags
	verbose    bool
	configPath string
	transport  string
	devicePath string
	speedHz    uint32
	noSFDP     bool
)

var rootCmd = &cobra.Command{
	Use:   "spinor",
	Short: "SPI NOR flash probe and reader",
	Long: `Identify SPI NOR flash chips, read their SFDP parameters and
read or checksum their contents over spidev, a CH341A or a JMS578 bridge.

Examples:
  spinor probe --device /dev/spidev1.0       # Identify the chip
  spinor sfdp --dump 256                     # Show SFDP tables
  spinor read --length 0x100000 --out fw.bin # Read the first MiB`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&transport, "transport", "t", "", "transport: spidev, ch341a or jms578")
	rootCmd.PersistentFlags().StringVarP(&devicePath, "device", "d", "", "spidev device node, or jms578 block device / USB ID")
	rootCmd.PersistentFlags().Uint32Var(&speedHz, "speed", 0, "spidev clock in Hz")
	rootCmd.PersistentFlags().BoolVar(&noSFDP, "no-sfdp", false, "skip SFDP discovery")
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}

	if transport != "" {
		cfg.Transport = transport
	}
	if devicePath != "" {
		if cfg.Transport == config.TransportJMS578 {
			cfg.JMS578.Path = devicePath
		} else {
			cfg.SPIDev.Path = devicePath
		}
	}
	if speedHz != 0 {
		cfg.SPIDev.SpeedHz = speedHz
	}
	if noSFDP {
		off := false
		cfg.SFDP = &off
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func openTransport(cfg *config.Config) (spiflash.SPIFunc, int, func() error, error) {
	switch cfg.Transport {
	case config.TransportCH341A:
		dev, err := ch341a.New(cfg.CH341A.Speed)
		if err != nil {
			return nil, 0, nil, err
		}
		return dev.SPI, min(cfg.MaxTransaction, ch341a.MaxTransactionSize), dev.Close, nil

	case config.TransportJMS578:
		dev, err := jms578.New(cfg.JMS578.Path)
		if err != nil {
			return nil, 0, nil, err
		}
		return dev.SPI, min(cfg.MaxTransaction, jms578.MaxTransactionSize), dev.Close, nil

	default:
		dev, err := spidev.New(cfg.SPIDev.Path, cfg.SPIDev.SpeedHz, cfg.SPIDev.Mode)
		if err != nil {
			return nil, 0, nil, err
		}
		return dev.SPI, min(cfg.MaxTransaction, spidev.MaxTransactionSize), dev.Close, nil
	}
}

/* Opens the configured transport and scans the chip on it */
func openFlash() (*spiflash.Flash, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	spi, maxTxfr, closeFunc, err := openTransport(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []spiflash.Option{spiflash.WithDevices(cfg.Devices()...)}
	if verbose {
		opts = append(opts, spiflash.WithLogFunc(log.Printf))
	}
	if !cfg.SFDPEnabled() {
		opts = append(opts, spiflash.WithoutSFDP())
	}

	flash, err := spiflash.New(spi, maxTxfr, opts...)
	if err != nil {
		closeFunc()
		return nil, nil, err
	}

	return flash, closeFunc, nil
}
