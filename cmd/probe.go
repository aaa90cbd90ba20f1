package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/BertoldVdb/spinor/spiflash"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Identify the flash chip and its addressing mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		flash, closeFunc, err := openFlash()
		if err != nil {
			return err
		}
		defer closeFunc()

		printProbe(cmd.OutOrStdout(), flash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func printProbe(w io.Writer, flash *spiflash.Flash) {
	dev := flash.Device()
	id := flash.DeviceID()

	mode := "3-byte"
	if flash.AddressWidth() == 4 {
		mode = "4-byte address mode"
		if flash.FourByteOpcodes() {
			mode = "4-byte opcodes"
		}
	}

	fmt.Fprintf(w, "Device:       %s\n", dev.Name)
	fmt.Fprintf(w, "JEDEC ID:     %02x %02x %02x\n", id[0], id[1], id[2])
	fmt.Fprintf(w, "Size:         %d KiB\n", dev.ChipSize/1024)
	fmt.Fprintf(w, "Page/sector:  %d/%d bytes\n", dev.PageSize, dev.SectorSize)
	fmt.Fprintf(w, "Addressing:   %s\n", mode)
	fmt.Fprintf(w, "Read command: %s\n", flash.ReadConfig())
	fmt.Fprintf(w, "Capabilities: %s\n", flash.Caps())

	if _, err := flash.SFDP(); err != nil {
		fmt.Fprintf(w, "SFDP:         unavailable (%v)\n", err)
	} else {
		fmt.Fprintf(w, "SFDP:         present\n")
	}
}
