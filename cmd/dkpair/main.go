// dkpair runs digital key owner pairing between a vehicle and a device.
//
// Usage:
//
//	dkpair [options]
//
// Options:
//
//	-config         YAML configuration file
//	-mode           full, loopback, device or vehicle (default: full)
//	-addr           TCP address the device listens on (default: 127.0.0.1:7450)
//	-vin            Vehicle identification number
//	-password       Pairing password (hex)
//	-salt           Scrypt salt (hex, random if empty)
//	-events         Append protocol events to a CBOR file
//	-extended-keys  Derive the BLE intro and OOB master keys
//	-timeout        Time limit for one pairing (default: 2m)
//	-v              Verbose logging
//
// The full mode runs both sides in one call. The loopback mode runs each
// side on its own executor connected by an in-process relay. The device
// mode listens on -addr and serves vehicles until interrupted; the vehicle
// mode dials a device at -addr and pairs once.
//
// Example:
//
//	dkpair -mode device -addr :7450 -password 0102030405060708090A0B0C0D0E0F10
//	dkpair -mode vehicle -addr 127.0.0.1:7450 -vin 1HGBH41JXMN109186
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
)

func main() {
	opts, err := ParseOptions(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		color.Red("Invalid configuration: %v", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		stop()
		os.Exit(1)
	}
}
