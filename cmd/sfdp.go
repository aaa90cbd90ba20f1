package cmd

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/BertoldVdb/spinor/spiflash"
)

var sfdpDump int

var sfdpCmd = &cobra.Command{
	Use:   "sfdp",
	Short: "Show the SFDP parameter tables of the chip",
	RunE: func(cmd *cobra.Command, args []string) error {
		flash, closeFunc, err := openFlash()
		if err != nil {
			return err
		}
		defer closeFunc()

		info, err := flash.SFDP()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		printSFDP(w, info)

		if sfdpDump > 0 {
			raw := make([]byte, sfdpDump)
			if err := flash.ReadSFDP(0, raw); err != nil {
				return err
			}
			fmt.Fprint(w, hex.Dump(raw))
			fmt.Fprintf(w, "CRC-32: %08x\n", spiflash.CRC32(raw))
		}

		return nil
	},
}

func init() {
	sfdpCmd.Flags().IntVar(&sfdpDump, "dump", 0, "hex dump this many bytes of the SFDP space")
	rootCmd.AddCommand(sfdpCmd)
}

func printSFDP(w io.Writer, info *spiflash.SFDPInfo) {
	fmt.Fprintf(w, "SFDP revision %d.%d, %d parameter headers\n", info.Header.Major, info.Header.Minor, info.Header.NumDescriptors+1)
	fmt.Fprintf(w, "  [0] %s\n", info.Header.Basic)
	for i, m := range info.Descriptors {
		fmt.Fprintf(w, "  [%d] %s\n", i+1, m)
	}

	fmt.Fprintf(w, "Basic table used: %s\n", info.Basic)
	for i := 1; i <= info.BasicTable.Valid; i++ {
		w32, _ := info.BasicTable.Word(i)
		fmt.Fprintf(w, "  word %2d: %08x\n", i, w32)
	}

	if size, ok := info.BasicTable.Density(); ok {
		fmt.Fprintf(w, "Density: %d bytes\n", size)
	}
	fmt.Fprintf(w, "Capabilities: %s\n", info.Caps)
}
