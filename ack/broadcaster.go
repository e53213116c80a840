// Package ack implements the acknowledgement emitter (spec §4.4): once a
// session has decoded credentials and the host has joined the configured
// network, it broadcasts the random token repeatedly so the configurator
// knows provisioning succeeded.
package ack

/*------------------------------------------------------------------
 *
 * Purpose:	Acknowledgement emitter (C4).
 *
 * Description:	Replaces the source's hard-coded 50x200ms busy loop
 *		(spec §9 design note) with a caller-supplied context for
 *		cancellation, so it composes into a larger event loop
 *		instead of blocking it outright. Best-effort: send errors
 *		are logged, never retried beyond the fixed burst count
 *		(spec §4.4, §7).
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tinyprov/airkiss/airkiss"
)

// Broadcaster sends the acknowledgement burst over UDP broadcast, driven
// by the same AckConfig the registry layer loads from YAML (spec §6
// EXPANSION).
type Broadcaster struct {
	cfg airkiss.AckConfig
	log *log.Logger
}

// New returns a Broadcaster. A nil logger disables logging.
func New(cfg airkiss.AckConfig, logger *log.Logger) *Broadcaster {
	return &Broadcaster{cfg: cfg, log: logger}
}

func (b *Broadcaster) interval() time.Duration {
	ms := b.cfg.IntervalMs
	if ms <= 0 {
		ms = 200
	}
	return time.Duration(ms) * time.Millisecond
}

// Run opens a broadcast-enabled UDP socket and sends a single byte
// (token) to 255.255.255.255:cfg.Port, cfg.BurstCount times, cfg.IntervalMs
// apart, stopping early if ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context, token byte) error {
	conn, err := b.listen(ctx)
	if err != nil {
		return fmt.Errorf("ack: open broadcast socket: %w", err)
	}
	defer conn.Close()

	addr := &net.UDPAddr{IP: net.IPv4bcast, Port: b.cfg.Port}
	payload := []byte{token}

	count := b.cfg.BurstCount
	if count <= 0 {
		count = 50
	}

	ticker := time.NewTicker(b.interval())
	defer ticker.Stop()

	for i := 0; i < count; i++ {
		if _, err := conn.WriteTo(payload, addr); err != nil {
			b.warnf("ack: broadcast send failed: %v", err)
		}
		if i == count-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (b *Broadcaster) warnf(format string, args ...any) {
	if b.log == nil {
		return
	}
	b.log.Warn(fmt.Sprintf(format, args...))
}

func (b *Broadcaster) debugf(format string, args ...any) {
	if b.log == nil {
		return
	}
	b.log.Debug(fmt.Sprintf(format, args...))
}
