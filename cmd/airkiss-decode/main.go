package main

/*------------------------------------------------------------------
 *
 * Purpose:	Standalone utility to replay a trace of observed frame
 *		lengths through the airkiss decoder (C8, SPEC_FULL §2).
 *
 * Inputs:	A file (or stdin) of lines "bssid,sa,length", one 802.11
 *		frame observation per line, e.g.
 *
 *		aa:bb:cc:dd:ee:ff,11:22:33:44:55:66,132
 *
 * Description:	airkiss-decode < trace.txt
 *		airkiss-decode -i trace.txt -c airkiss.yaml
 *
 *		Modeled on decode_aprs_main.go's "scan stdin line by
 *		line" shape and kissutil.go's pflag usage, generalized
 *		from AX.25 monitor text to this protocol's own trace
 *		format.
 *
 *------------------------------------------------------------------*/

import (
	"bufio"
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
)

// observation is one parsed trace line handed from the scanning goroutine
// to the registry-feeding goroutine below (SPEC_FULL §5 EXPANSION: the CLI
// is the only code that spans goroutines; the registry itself is still
// only ever called from one of them, never concurrently).
type observation struct {
	bssid, sa [6]byte
	length    int
	line      int
}

func main() {
	var (
		configPath  = pflag.StringP("config", "c", "", "Path to airkiss.yaml (default: search the usual locations)")
		inputPath   = pflag.StringP("input", "i", "", "Trace file to read (default: stdin)")
		maxSessions = pflag.IntP("max-sessions", "m", 0, "Override registry.max_sessions (0 = unbounded)")
		logLevel    = pflag.StringP("log-level", "l", "", "Override log.level from config (debug, info, warn, error)")
		help        = pflag.BoolP("help", "h", false, "Display help text")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: airkiss-decode [options] < trace.txt\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}

	var cfg airkiss.Config
	var err error
	if *configPath != "" {
		cfg, err = airkiss.LoadConfig(*configPath)
	} else {
		cfg, err = airkiss.LoadConfig()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "airkiss-decode: loading config: %v\n", err)
		os.Exit(1)
	}

	if *maxSessions > 0 {
		cfg.Registry.MaxSessions = *maxSessions
	}
	level := cfg.Log.Level
	if *logLevel != "" {
		level = *logLevel
	}

	logger := log.New(os.Stderr)
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	if cfg.Log.Format == "json" {
		logger.SetFormatter(log.JSONFormatter)
	}

	var opts []airkiss.RegistryOption
	opts = append(opts, airkiss.WithLogger(logger))
	if cfg.Registry.MaxSessions > 0 {
		opts = append(opts, airkiss.WithMaxSessions(cfg.Registry.MaxSessions))
	}
	registry := airkiss.NewRegistry(opts...)

	in := os.Stdin
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "airkiss-decode: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	observations := make(chan observation)
	scanErr := make(chan error, 1)

	// One goroutine scans and parses the trace source; the main goroutine
	// below is the sole caller of Feed/query operations, so the registry
	// is never touched from two goroutines at once.
	go func() {
		defer close(observations)
		scanner := bufio.NewScanner(in)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			bssid, sa, length, err := parseTraceLine(line)
			if err != nil {
				logger.Warn("skipping malformed trace line", "line", lineNo, "error", err)
				continue
			}
			select {
			case observations <- observation{bssid: bssid, sa: sa, length: length, line: lineNo}:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	reportedDone := make(map[airkiss.Key]bool)

loop:
	for {
		select {
		case obs, ok := <-observations:
			if !ok {
				break loop
			}
			if err := registry.Feed(obs.bssid, obs.sa, obs.length); err != nil {
				logger.Error("feed failed", "line", obs.line, "error", err)
				continue
			}
			reportIfDone(registry, obs.bssid, obs.sa, reportedDone, logger)
		case <-ctx.Done():
			logger.Warn("interrupted, resetting registry")
			registry.Reset()
			registry.Teardown()
			return
		}
	}

	select {
	case err := <-scanErr:
		if err != nil {
			fmt.Fprintf(os.Stderr, "airkiss-decode: reading input: %v\n", err)
			os.Exit(1)
		}
	default:
	}
}

// parseTraceLine parses "bssid,sa,length" into its parts.
func parseTraceLine(line string) (bssid, sa [6]byte, length int, err error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return bssid, sa, 0, fmt.Errorf("expected 3 comma-separated fields, got %d", len(parts))
	}

	bssid, err = parseMAC(strings.TrimSpace(parts[0]))
	if err != nil {
		return bssid, sa, 0, fmt.Errorf("bssid: %w", err)
	}
	sa, err = parseMAC(strings.TrimSpace(parts[1]))
	if err != nil {
		return bssid, sa, 0, fmt.Errorf("sa: %w", err)
	}
	length, err = strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return bssid, sa, 0, fmt.Errorf("length: %w", err)
	}
	return bssid, sa, length, nil
}

func parseMAC(s string) ([6]byte, error) {
	var out [6]byte
	octets := strings.Split(s, ":")
	if len(octets) != 6 {
		return out, fmt.Errorf("expected 6 colon-separated octets, got %d", len(octets))
	}
	for i, o := range octets {
		v, err := strconv.ParseUint(o, 16, 8)
		if err != nil {
			return out, fmt.Errorf("octet %d: %w", i, err)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// reportIfDone logs ssid/password/token once any session has reached
// PhaseDone, at most once per transmitter key whose symbols arrive after
// that. The values come from the registry's query operations, which read
// the first DONE session; whether bssid/sa's own session is DONE is not
// checked.
func reportIfDone(r *airkiss.Registry, bssid, sa [6]byte, reported map[airkiss.Key]bool, logger *log.Logger) {
	if r.GlobalState() != airkiss.PhaseDone {
		return
	}

	var key airkiss.Key
	copy(key[:6], bssid[:])
	copy(key[6:], sa[:])
	if reported[key] {
		return
	}

	var ssidBuf, pwdBuf [64]byte
	ssidLen := r.SSID(ssidBuf[:])
	pwdLen := r.Password(pwdBuf[:])
	if ssidLen == 0 && pwdLen == 0 {
		return
	}

	reported[key] = true
	logger.Info("credentials decoded",
		"ssid", string(ssidBuf[:ssidLen]),
		"password", string(pwdBuf[:pwdLen]),
		"token", fmt.Sprintf("0x%02x", r.RandomToken()),
	)
}
