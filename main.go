// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Command modbus-rtu polls holding registers on one or more Modbus
// RTU serial buses and logs every register change.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	gridserial "github.com/grid-x/serial"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/pflag"

	"github.com/bruceschaller/modbus-rtu/internal/config"
	"github.com/bruceschaller/modbus-rtu/internal/store"
	"github.com/bruceschaller/modbus-rtu/master"
	"github.com/bruceschaller/modbus-rtu/poller"
	"github.com/bruceschaller/modbus-rtu/transport/serial"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "Path to config file.")
	logLevel := pflag.StringP("log_level", "v", "", "Log verbosity level (debug, info, warn, error).")
	logFile := pflag.StringP("log_file", "L", "", "Log file name ('-' for logging to STDOUT only).")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	setupLogger(cfg.Log)

	slog.Info("Starting Modbus RTU monitor...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	started := 0
	for _, devCfg := range cfg.Devices {
		n, err := startDevice(ctx, &wg, devCfg)
		if err != nil {
			slog.Error("Failed to start device", "device", devCfg.Name, "err", err)
			continue
		}
		started += n
	}
	if started == 0 {
		slog.Error("No pollers running. Exiting.")
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	cancel()
	wg.Wait()
	slog.Info("Goodbye.")
}

// startDevice opens the serial bus, builds the master and launches one
// poller per configured register window. It returns how many pollers
// started.
func startDevice(ctx context.Context, wg *sync.WaitGroup, devCfg config.DeviceConfig) (int, error) {
	port := serial.NewPort(gridserial.Config{
		Address:  devCfg.Serial.Device,
		BaudRate: devCfg.Serial.BaudRate,
		DataBits: devCfg.Serial.DataBits,
		Parity:   devCfg.Serial.Parity,
		StopBits: devCfg.Serial.StopBits,
		Timeout:  devCfg.Serial.Timeout,
	})
	port.IdleTimeout = devCfg.Serial.IdleTimeout

	m := master.New(port, master.Config{
		QuietPeriod:     devCfg.Engine.QuietPeriod,
		ResponseTimeout: devCfg.Engine.ResponseTimeout,
	})
	slog.Info("Bus master ready", "device", devCfg.Serial.Device,
		"baudRate", devCfg.Serial.BaudRate,
		"quietPeriod", devCfg.Engine.QuietPeriod,
		"responseTimeout", devCfg.Engine.ResponseTimeout)

	started := 0
	for _, pollCfg := range devCfg.Poll {
		snap, err := store.New(devCfg.Snapshot)
		if err != nil {
			slog.Error("Failed to build snapshot store", "device", devCfg.Name, "err", err)
			continue
		}

		name := devCfg.Name
		slave := byte(pollCfg.SlaveID)
		p := poller.New(m, poller.Config{
			SlaveID:  slave,
			Start:    pollCfg.Start,
			Quantity: pollCfg.Quantity,
			Interval: pollCfg.Interval,
		}, snap)
		p.OnChange(func(addr, old, new uint16) {
			slog.Info("Register changed", "device", name, "slave", slave,
				"address", addr, "old", old, "new", new)
		})
		p.OnError(func(err error) {
			slog.Warn("Poll cycle failed", "device", name, "slave", slave, "err", err)
		})

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer snap.Close()
			if err := p.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Poller stopped with error", "device", name, "slave", slave, "err", err)
			}
		}()
		started++
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		m.Close()
		if err := port.Close(); err != nil {
			slog.Error("Failed to close serial port", "device", devCfg.Serial.Device, "err", err)
		}
	}()

	return started, nil
}

func setupLogger(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.File != "" && cfg.File != "-" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Printf("Failed to open log file, falling back to stdout: %v\n", err)
			handler = slog.NewTextHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(f, opts)
		}
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
