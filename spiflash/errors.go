package spiflash

import (
	"errors"
	"fmt"
)

var (
	/* Discovery is not available on this chip, the static tables apply */
	ErrorSFDPFormat = errors.New("invalid SFDP data")

	ErrorSFDPSignature     = fmt.Errorf("%w: signature mismatch", ErrorSFDPFormat)
	ErrorSFDPVersion       = fmt.Errorf("%w: unsupported revision", ErrorSFDPFormat)
	ErrorSFDPNoBasicTable  = fmt.Errorf("%w: basic parameter table missing", ErrorSFDPFormat)
	ErrorSFDPTableTooShort = fmt.Errorf("%w: basic parameter table too short", ErrorSFDPFormat)

	ErrorSFDPDisabled = errors.New("SFDP discovery disabled")

	ErrorTransferInconsistent = errors.New("transport returned an invalid byte count")
	ErrorTransactionSize      = errors.New("maximum transaction size too small")
	ErrorUnsupportedDevice    = errors.New("unsupported flash type")
	ErrorOutOfRange           = errors.New("address out of range")
)
