// Package eventlog records pairing protocol events for later analysis.
//
// Events capture the APDU frames exchanged by a session, its state
// transitions and failures. They never carry key material: frames hold
// only public shares and evidence values.
//
// # Usage
//
//	logger, _ := eventlog.NewFileLogger(eventlog.FileLoggerConfig{
//		Path:        "/var/log/dkpair/pairing.cbor",
//		SyncOnError: true,
//	})
//	defer logger.Close()
//	cfg.EventLog = logger
//
// # File Format
//
// A log file is a sequence of CBOR-encoded Event values with integer keys.
// Reader streams them back, optionally filtered by session or category.
package eventlog
