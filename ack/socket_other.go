//go:build !linux

package ack

/*------------------------------------------------------------------
 *
 * Purpose:	Broadcast socket setup on non-Linux platforms.
 *
 * Description:	SO_BINDTODEVICE is Linux-only; elsewhere we enable
 *		SO_BROADCAST and ignore cfg.BindInterface.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

func (b *Broadcaster) listen(ctx context.Context) (net.PacketConn, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			ctrlErr := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
			})
			if ctrlErr != nil {
				return ctrlErr
			}
			return sockErr
		},
	}
	if b.cfg.BindInterface != "" {
		b.debugf("ack: bind_interface %q requested but not supported on this platform, ignoring", b.cfg.BindInterface)
	}
	return lc.ListenPacket(ctx, "udp4", ":0")
}
