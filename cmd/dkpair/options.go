package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/backkem/dkpair/pkg/pairing"
	"gopkg.in/yaml.v3"
)

// Mode selects what the command runs.
type Mode string

const (
	ModeFull     Mode = "full"
	ModeLoopback Mode = "loopback"
	ModeDevice   Mode = "device"
	ModeVehicle  Mode = "vehicle"
)

// ScryptOptions holds the scrypt cost parameters the vehicle sends.
type ScryptOptions struct {
	Cost            uint32 `yaml:"cost"`
	BlockSize       uint16 `yaml:"block_size"`
	Parallelization uint16 `yaml:"parallelization"`
}

// Options holds the command configuration. Values come from an optional
// YAML file and are overridden by flags given on the command line.
type Options struct {
	Mode         Mode          `yaml:"mode"`
	Addr         string        `yaml:"addr"`
	VIN          string        `yaml:"vin"`
	Password     string        `yaml:"password"`
	Salt         string        `yaml:"salt"`
	Events       string        `yaml:"events"`
	ExtendedKeys bool          `yaml:"extended_keys"`
	Timeout      time.Duration `yaml:"timeout"`
	Verbose      bool          `yaml:"verbose"`
	Scrypt       ScryptOptions `yaml:"scrypt"`
}

// DefaultOptions returns Options for a local full-cycle run.
func DefaultOptions() Options {
	return Options{
		Mode:     ModeFull,
		Addr:     "127.0.0.1:7450",
		VIN:      "1HGBH41JXMN109186",
		Password: "0102030405060708090A0B0C0D0E0F10",
		Timeout:  2 * time.Minute,
		Scrypt: ScryptOptions{
			Cost:            pairing.DefaultScryptCost,
			BlockSize:       pairing.DefaultScryptBlockSize,
			Parallelization: pairing.DefaultScryptParallelization,
		},
	}
}

// LoadOptions reads a YAML file on top of DefaultOptions.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse config %s: %w", path, err)
	}
	return opts, nil
}

// ParseOptions parses command-line arguments.
func ParseOptions(args []string, output io.Writer) (Options, error) {
	fs := flag.NewFlagSet("dkpair", flag.ContinueOnError)
	fs.SetOutput(output)

	def := DefaultOptions()
	var (
		cli        Options
		configPath string
		mode       string
	)
	fs.StringVar(&configPath, "config", "", "YAML configuration file")
	fs.StringVar(&mode, "mode", string(def.Mode), "Run mode: full, loopback, device, vehicle")
	fs.StringVar(&cli.Addr, "addr", def.Addr, "TCP address the device listens on")
	fs.StringVar(&cli.VIN, "vin", def.VIN, "Vehicle identification number")
	fs.StringVar(&cli.Password, "password", def.Password, "Pairing password (hex)")
	fs.StringVar(&cli.Salt, "salt", "", "Scrypt salt (hex, 16 bytes, random if empty)")
	fs.StringVar(&cli.Events, "events", "", "Append protocol events to this CBOR file")
	fs.BoolVar(&cli.ExtendedKeys, "extended-keys", false, "Derive the BLE intro and OOB master keys")
	fs.DurationVar(&cli.Timeout, "timeout", def.Timeout, "Time limit for one pairing")
	fs.BoolVar(&cli.Verbose, "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	cli.Mode = Mode(mode)

	opts := def
	if configPath != "" {
		var err error
		if opts, err = LoadOptions(configPath); err != nil {
			return Options{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			opts.Mode = cli.Mode
		case "addr":
			opts.Addr = cli.Addr
		case "vin":
			opts.VIN = cli.VIN
		case "password":
			opts.Password = cli.Password
		case "salt":
			opts.Salt = cli.Salt
		case "events":
			opts.Events = cli.Events
		case "extended-keys":
			opts.ExtendedKeys = cli.ExtendedKeys
		case "timeout":
			opts.Timeout = cli.Timeout
		case "v":
			opts.Verbose = cli.Verbose
		}
	})

	return opts, opts.Validate()
}

// Validate checks the options.
func (o *Options) Validate() error {
	switch o.Mode {
	case ModeFull, ModeLoopback, ModeDevice, ModeVehicle:
	default:
		return fmt.Errorf("unknown mode %q", o.Mode)
	}
	if strings.TrimSpace(o.VIN) == "" {
		return pairing.ErrMissingVIN
	}
	password, err := o.PasswordBytes()
	if err != nil {
		return err
	}
	if len(password) == 0 {
		return pairing.ErrMissingPassword
	}
	if _, err := o.SaltBytes(); err != nil {
		return err
	}
	if o.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if (o.Mode == ModeDevice || o.Mode == ModeVehicle) && o.Addr == "" {
		return errors.New("addr is required in device and vehicle mode")
	}
	return nil
}

// PasswordBytes decodes the hex password.
func (o *Options) PasswordBytes() ([]byte, error) {
	b, err := hex.DecodeString(o.Password)
	if err != nil {
		return nil, fmt.Errorf("password: %w", err)
	}
	return b, nil
}

// SaltBytes decodes the hex salt. An empty salt returns nil, which makes
// the vehicle pick a random one.
func (o *Options) SaltBytes() ([]byte, error) {
	if o.Salt == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(o.Salt)
	if err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	if len(b) != pairing.SaltSize {
		return nil, pairing.ErrInvalidSalt
	}
	return b, nil
}

// DeviceConfig builds the device side configuration.
func (o *Options) DeviceConfig(password []byte) pairing.DeviceConfig {
	return pairing.DeviceConfig{
		Password:     password,
		ExtendedKeys: o.ExtendedKeys,
	}
}

// VehicleConfig builds the vehicle side configuration.
func (o *Options) VehicleConfig() pairing.VehicleConfig {
	return pairing.VehicleConfig{
		ScryptCost:            o.Scrypt.Cost,
		ScryptBlockSize:       o.Scrypt.BlockSize,
		ScryptParallelization: o.Scrypt.Parallelization,
		ExtendedKeys:          o.ExtendedKeys,
	}
}
