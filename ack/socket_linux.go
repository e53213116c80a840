//go:build linux

package ack

/*------------------------------------------------------------------
 *
 * Purpose:	Broadcast socket setup on Linux.
 *
 * Description:	Grounded on the teacher's direct golang.org/x/sys/unix
 *		socket-option pokes in ptt.go/cm108.go: SO_BROADCAST is
 *		always set; SO_BINDTODEVICE is set only when cfg.BindInterface
 *		names an interface, letting a multi-homed host pin the
 *		burst to the Wi-Fi adapter instead of its default route.
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
				if sockErr != nil {
					return
				}
				if b.cfg.BindInterface != "" {
					sockErr = unix.SetsockoptString(int(fd), unix.SOL_SOCKET, unix.SO_BINDTODEVICE, b.cfg.BindInterface)
				}
			})
			if ctrlErr != nil {
				return ctrlErr
			}
			return sockErr
		},
	}
	return lc.ListenPacket(ctx, "udp4", ":0")
}
