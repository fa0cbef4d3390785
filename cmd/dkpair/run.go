package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/backkem/dkpair/pkg/crypto/spake2p"
	"github.com/backkem/dkpair/pkg/eventlog"
	"github.com/backkem/dkpair/pkg/executor"
	"github.com/backkem/dkpair/pkg/message"
	"github.com/backkem/dkpair/pkg/pairing"
	"github.com/backkem/dkpair/pkg/relay"
	"github.com/backkem/dkpair/pkg/transport"
	"github.com/fatih/color"
	"github.com/pion/logging"
)

// app holds what every mode shares.
type app struct {
	opts     Options
	out      io.Writer
	password []byte
	salt     []byte
	lf       logging.LoggerFactory
	events   eventlog.Logger
	log      logging.LeveledLogger
	reported sync.Map

	ok     *color.Color
	fail   *color.Color
	notice *color.Color
}

func run(ctx context.Context, opts Options, out io.Writer) error {
	a, closeEvents, err := newApp(opts, out)
	if err != nil {
		color.New(color.FgRed).Fprintf(out, "%v\n", err)
		return err
	}
	defer closeEvents()

	switch opts.Mode {
	case ModeFull:
		err = a.runFull(ctx)
	case ModeLoopback:
		err = a.runLoopback(ctx)
	case ModeDevice:
		err = a.runDevice(ctx)
	case ModeVehicle:
		err = a.runVehicle(ctx)
	}
	return err
}

func newApp(opts Options, out io.Writer) (*app, func(), error) {
	password, err := opts.PasswordBytes()
	if err != nil {
		return nil, nil, err
	}
	salt, err := opts.SaltBytes()
	if err != nil {
		return nil, nil, err
	}

	lf := logging.NewDefaultLoggerFactory()
	lf.DefaultLogLevel = logging.LogLevelWarn
	if opts.Verbose {
		lf.DefaultLogLevel = logging.LogLevelDebug
	}

	a := &app{
		opts:     opts,
		out:      out,
		password: password,
		salt:     salt,
		lf:       lf,
		events:   eventlog.NoopLogger{},
		log:      lf.NewLogger("dkpair"),
		ok:       color.New(color.FgGreen),
		fail:     color.New(color.FgRed),
		notice:   color.New(color.FgYellow),
	}

	closeEvents := func() {}
	if opts.Events != "" {
		fl, err := eventlog.NewFileLogger(eventlog.FileLoggerConfig{Path: opts.Events, SyncOnError: true})
		if err != nil {
			return nil, nil, fmt.Errorf("open event log: %w", err)
		}
		a.events = fl
		closeEvents = func() {
			if err := fl.Close(); err != nil {
				a.log.Warnf("close event log: %v", err)
			}
			written, dropped := fl.Stats()
			a.log.Debugf("event log %s: %d written, %d dropped", fl.Path(), written, dropped)
		}
	}
	return a, closeEvents, nil
}

func (a *app) deviceConfig() pairing.DeviceConfig {
	cfg := a.opts.DeviceConfig(a.password)
	cfg.LoggerFactory = a.lf
	cfg.EventLog = a.events
	return cfg
}

func (a *app) vehicleConfig() pairing.VehicleConfig {
	cfg := a.opts.VehicleConfig()
	cfg.LoggerFactory = a.lf
	cfg.EventLog = a.events
	return cfg
}

func (a *app) newExecutor() (*executor.Executor, error) {
	return executor.New(executor.Config{
		RunTimeout:    a.opts.Timeout,
		LoggerFactory: a.lf,
	})
}

func (a *app) runFull(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	res, err := pairing.RunFullCycle(ctx, a.opts.VIN, a.password, a.salt, pairing.FullCycleConfig{
		SessionID: executor.NewSessionID(),
		Device:    a.deviceConfig(),
		Vehicle:   a.vehicleConfig(),
	})
	if err != nil {
		return a.report(err)
	}
	a.ok.Fprintln(a.out, res.Message)
	a.printKeys(res.Vehicle.Keys, res.Device.Keys)
	return nil
}

func (a *app) runLoopback(ctx context.Context) error {
	vehicles, err := a.newExecutor()
	if err != nil {
		return err
	}
	defer vehicles.Close()
	devices, err := a.newExecutor()
	if err != nil {
		return err
	}
	defer devices.Close()

	loop, err := relay.NewLoopback(vehicles, devices, a.deviceConfig(), a.lf)
	if err != nil {
		return err
	}

	sessionID := executor.NewSessionID()
	if err := a.startVehicle(ctx, vehicles, loop, sessionID); err != nil {
		return err
	}

	veh, err := vehicles.Wait(ctx, sessionID)
	if err != nil {
		return err
	}
	if veh.Err != nil {
		return a.report(veh.Err)
	}
	dev, err := devices.Wait(ctx, sessionID)
	if err != nil {
		return err
	}
	if dev.Err != nil {
		return a.report(dev.Err)
	}

	a.ok.Fprintln(a.out, veh.Result.Message)
	a.ok.Fprintln(a.out, dev.Result.Message)
	a.printKeys(veh.Result.Keys, dev.Result.Keys)
	return nil
}

// runDevice serves vehicles on opts.Addr until ctx is done.
func (a *app) runDevice(ctx context.Context) error {
	devices, err := a.newExecutor()
	if err != nil {
		return err
	}
	defer devices.Close()

	var wg sync.WaitGroup
	defer wg.Wait()

	server, err := transport.NewTCP(transport.TCPConfig{
		ListenAddr:    a.opts.Addr,
		LoggerFactory: a.lf,
		NewHandler: func(peer *transport.Peer) pairing.Relay {
			router, err := relay.New(relay.Config{
				Device:        devices,
				DeviceConfig:  a.deviceConfig(),
				DeviceRelay:   peer,
				LoggerFactory: a.lf,
			})
			if err != nil {
				a.log.Errorf("create router: %v", err)
				return nil
			}
			return pairing.RelayFunc(func(dctx context.Context, sig pairing.Signal) (string, error) {
				ack, err := router.Deliver(dctx, sig)
				if err == nil && sig.Kind == message.KindSelectCommand {
					wg.Add(1)
					go func() {
						defer wg.Done()
						a.reportDevice(ctx, devices, sig.SessionID)
					}()
				}
				return ack, err
			})
		},
	})
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}
	a.notice.Fprintf(a.out, "Device waiting for vehicles on %s\n", server.LocalAddr())

	<-ctx.Done()
	return server.Stop()
}

// reportDevice prints the outcome of one device session. A redelivered
// SELECT reports the same session twice, so only the first caller prints.
func (a *app) reportDevice(ctx context.Context, devices *executor.Executor, sessionID string) {
	if !a.claim(sessionID) {
		return
	}
	out, err := devices.Wait(ctx, sessionID)
	if err != nil {
		return
	}
	if out.Err != nil {
		a.report(out.Err)
		return
	}
	a.ok.Fprintln(a.out, out.Result.Message)
}

func (a *app) claim(sessionID string) bool {
	_, loaded := a.reported.LoadOrStore(sessionID, struct{}{})
	return !loaded
}

func (a *app) runVehicle(ctx context.Context) error {
	vehicles, err := a.newExecutor()
	if err != nil {
		return err
	}
	defer vehicles.Close()

	router, err := relay.New(relay.Config{Vehicle: vehicles, LoggerFactory: a.lf})
	if err != nil {
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()
	peer, err := transport.Dial(dialCtx, a.opts.Addr, transport.PeerConfig{
		Handler:       router,
		LoggerFactory: a.lf,
	})
	if err != nil {
		a.fail.Fprintf(a.out, "Cannot reach device at %s: %v\n", a.opts.Addr, err)
		return err
	}
	defer peer.Close()

	sessionID := executor.NewSessionID()
	if err := a.startVehicle(ctx, vehicles, peer, sessionID); err != nil {
		return err
	}
	veh, err := vehicles.Wait(ctx, sessionID)
	if err != nil {
		return err
	}
	if veh.Err != nil {
		return a.report(veh.Err)
	}
	a.ok.Fprintln(a.out, veh.Result.Message)
	return nil
}

func (a *app) startVehicle(ctx context.Context, vehicles *executor.Executor, link pairing.Relay, sessionID string) error {
	return vehicles.Start(ctx, sessionID, executor.FlowVehicle, func(inbox pairing.Inbox) (executor.Flow, error) {
		return pairing.NewVehicleFlow(sessionID, a.opts.VIN, a.password, a.salt, inbox, link, a.vehicleConfig())
	})
}

// report prints a failed pairing and returns err.
func (a *app) report(err error) error {
	var step *pairing.StepError
	switch {
	case pairing.IsRejected(err):
		a.fail.Fprintf(a.out, "Pairing rejected: %v\n", err)
	case errors.As(err, &step):
		a.fail.Fprintf(a.out, "Pairing failed in %s flow at %s: %v\n", step.Flow, step.State, step.Err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		a.notice.Fprintf(a.out, "Pairing cancelled: %v\n", err)
	default:
		a.fail.Fprintf(a.out, "Pairing failed: %v\n", err)
	}
	return err
}

func (a *app) printKeys(vehicle, device *spake2p.SystemKeys) {
	if !vehicle.Equal(device) {
		a.fail.Fprintln(a.out, "Vehicle and device derived different system keys")
		return
	}
	size := 64
	if vehicle.Extended() {
		size = 96
	}
	fmt.Fprintf(a.out, "System keys agreed (%d bytes)\n", size)
}
