package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BertoldVdb/spinor/spiflash"
)

var (
	regionOffset uint32
	regionLength uint32
	readOut      string
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read a flash region to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if readOut == "" {
			return fmt.Errorf("--out is required")
		}

		flash, closeFunc, err := openFlash()
		if err != nil {
			return err
		}
		defer closeFunc()

		length, err := regionSize(flash)
		if err != nil {
			return err
		}

		buf := make([]byte, length)
		if _, err := flash.Read(regionOffset, buf); err != nil {
			return err
		}

		return os.WriteFile(readOut, buf, 0644)
	},
}

var checksumCmd = &cobra.Command{
	Use:   "checksum",
	Short: "Print the CRC-32 of a flash region",
	RunE: func(cmd *cobra.Command, args []string) error {
		flash, closeFunc, err := openFlash()
		if err != nil {
			return err
		}
		defer closeFunc()

		length, err := regionSize(flash)
		if err != nil {
			return err
		}

		crc, err := flash.Checksum(regionOffset, length)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%08x\n", crc)
		return nil
	},
}

func regionSize(flash *spiflash.Flash) (uint32, error) {
	size := flash.Device().ChipSize
	if regionOffset >= size {
		return 0, spiflash.ErrorOutOfRange
	}

	if regionLength == 0 {
		return size - regionOffset, nil
	}
	return regionLength, nil
}

func init() {
	for _, m := range []*cobra.Command{readCmd, checksumCmd} {
		m.Flags().Uint32Var(&regionOffset, "offset", 0, "start address")
		m.Flags().Uint32Var(&regionLength, "length", 0, "number of bytes, 0 for up to the end of the chip")
		rootCmd.AddCommand(m)
	}
	readCmd.Flags().StringVarP(&readOut, "out", "o", "", "output file")
}
