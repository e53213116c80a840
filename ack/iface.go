package ack

/*------------------------------------------------------------------
 *
 * Purpose:	Broadcast interface auto-selection.
 *
 * Description:	When cfg.BindInterface is left blank, pick the first
 *		link that is up and broadcast-capable and isn't loopback,
 *		rather than letting the kernel's default route choose -
 *		on a host with both Ethernet and Wi-Fi, that can silently
 *		pick the wrong one. Grounded on the teacher's interface
 *		selection in ptt.go/cm108.go, which inspects a named
 *		device before handing it to the hardware layer; here
 *		github.com/vishvananda/netlink supplies that inspection
 *		instead of raw ioctls.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

// SelectBroadcastInterface returns the name of the first up,
// non-loopback, broadcast-capable network interface, for use as
// AckConfig.BindInterface when the operator hasn't pinned one.
func SelectBroadcastInterface() (string, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return "", fmt.Errorf("ack: list interfaces: %w", err)
	}

	for _, link := range links {
		attrs := link.Attrs()
		if attrs.Flags&net.FlagLoopback != 0 {
			continue
		}
		if attrs.Flags&net.FlagUp == 0 {
			continue
		}
		if attrs.Flags&net.FlagBroadcast == 0 {
			continue
		}
		return attrs.Name, nil
	}

	return "", fmt.Errorf("ack: no broadcast-capable interface found")
}
