package main

/*------------------------------------------------------------------
 *
 * Purpose:	Standalone utility to broadcast the AirKiss-style
 *		acknowledgement burst (C8, SPEC_FULL §2), for use once
 *		a decoded token is in hand and the host has joined the
 *		target network.
 *
 * Description:	airkiss-ack --token 0x5a
 *		airkiss-ack --token 90 --bind-interface wlan0 --advertise
 *
 *		Modeled on kissutil.go's pflag usage, generalized from a
 *		KISS TNC connection's flags to this burst's own tunables.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/tinyprov/airkiss/airkiss"
	"github.com/tinyprov/airkiss/ack"
)

func main() {
	var (
		configPath    = pflag.StringP("config", "c", "", "Path to airkiss.yaml (default: search the usual locations)")
		tokenFlag     = pflag.StringP("token", "t", "", "Acknowledgement token, decimal or 0x-prefixed hex (required)")
		port          = pflag.IntP("port", "p", 0, "Override ack.port from config")
		burstCount    = pflag.IntP("burst-count", "n", 0, "Override ack.burst_count from config")
		intervalMs    = pflag.IntP("interval-ms", "I", 0, "Override ack.interval_ms from config")
		bindInterface = pflag.StringP("bind-interface", "B", "", "Interface to broadcast from (default: ack.bind_interface from config, see --auto-interface)")
		autoSelect    = pflag.Bool("auto-interface", false, "Auto-select a broadcast-capable interface if bind-interface is unset")
		advertise     = pflag.Bool("advertise", false, "Override advertise.enabled from config")
		serviceName   = pflag.StringP("service-name", "s", "airkiss-device", "mDNS instance name to advertise, if enabled")
		help          = pflag.BoolP("help", "h", false, "Display help text")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: airkiss-ack --token <byte> [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}

	logger := log.New(os.Stderr)

	if *tokenFlag == "" {
		fmt.Fprintln(os.Stderr, "airkiss-ack: --token is required")
		pflag.Usage()
		os.Exit(2)
	}
	token, err := parseToken(*tokenFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "airkiss-ack: --token: %v\n", err)
		os.Exit(2)
	}

	var cfg airkiss.Config
	if *configPath != "" {
		cfg, err = airkiss.LoadConfig(*configPath)
	} else {
		cfg, err = airkiss.LoadConfig()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "airkiss-ack: loading config: %v\n", err)
		os.Exit(1)
	}

	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}
	if cfg.Log.Format == "json" {
		logger.SetFormatter(log.JSONFormatter)
	}

	ackCfg := cfg.Ack
	if *port > 0 {
		ackCfg.Port = *port
	}
	if *burstCount > 0 {
		ackCfg.BurstCount = *burstCount
	}
	if *intervalMs > 0 {
		ackCfg.IntervalMs = *intervalMs
	}
	if *bindInterface != "" {
		ackCfg.BindInterface = *bindInterface
	} else if *autoSelect {
		if name, err := ack.SelectBroadcastInterface(); err != nil {
			logger.Warn("auto-selecting broadcast interface failed, using default route", "error", err)
		} else {
			ackCfg.BindInterface = name
		}
	}

	indicator, err := ack.NewIndicator(cfg.Indicator.Chip, cfg.Indicator.Line)
	if err != nil {
		logger.Warn("gpio indicator unavailable", "error", err)
		indicator = nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Advertise.Enabled || *advertise {
		serviceType := cfg.Advertise.ServiceType
		if serviceType == "" {
			serviceType = "_airkiss._tcp"
		}
		if _, err := ack.Advertise(ctx, *serviceName, serviceType, ackCfg.Port); err != nil {
			logger.Warn("mdns advertisement failed to start", "error", err)
		} else {
			logger.Info("advertising service", "name", *serviceName, "type", serviceType)
		}
	}

	if err := indicator.On(); err != nil {
		logger.Warn("indicator on failed", "error", err)
	}
	defer func() {
		if err := indicator.Off(); err != nil {
			logger.Warn("indicator off failed", "error", err)
		}
		if err := indicator.Close(); err != nil {
			logger.Warn("indicator close failed", "error", err)
		}
	}()

	logger.Info("broadcasting acknowledgement",
		"token", fmt.Sprintf("0x%02x", token),
		"port", ackCfg.Port,
		"burst_count", ackCfg.BurstCount,
		"interval_ms", ackCfg.IntervalMs,
		"bind_interface", ackCfg.BindInterface,
	)

	b := ack.New(ackCfg, logger)
	if err := b.Run(ctx, token); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "airkiss-ack: %v\n", err)
		os.Exit(1)
	}
}

func parseToken(s string) (byte, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}
