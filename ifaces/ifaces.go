// Package ifaces discovers wireless network interfaces on the host, so
// a caller can default to "whichever Wi-Fi adapter is present" instead of
// requiring an interface name on every invocation.
package ifaces

/*------------------------------------------------------------------
 *
 * Purpose:	Wireless interface discovery (C5, SPEC_FULL §4.5).
 *
 * Description:	Enumerates network devices through udev rather than
 *		walking /sys/class/net by hand, matching on DEVTYPE=wlan
 *		first; distro hardware databases vary in how reliably they
 *		tag DEVTYPE, so a host where that match comes up empty
 *		falls back to every "net" subsystem device rather than
 *		reporting none. "Supports monitor mode" is a best-effort
 *		hint read from the device's own phy80211 sibling node,
 *		since udev itself carries no such property. No grounding
 *		in the teacher's own source, which never enumerates
 *		interfaces; structured after the "pick a device before
 *		handing it to a hardware layer" shape of tve-devices'
 *		startRadio. Exercises github.com/jochenvg/go-udev,
 *		declared in the teacher's go.mod but never imported there.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jochenvg/go-udev"
)

// Interface names a network device udev knows about.
type Interface struct {
	Name    string // e.g. "wlan0"
	Path    string // sysfs path
	Monitor bool   // best-effort: a phy80211 sibling node is present
}

// Wireless returns every network interface udev reports as DEVTYPE=wlan;
// if none carry that property (some hardware databases omit it), it
// falls back to every "net" subsystem device instead of reporting none.
func Wireless() ([]Interface, error) {
	wlan, err := enumerate(true)
	if err != nil {
		return nil, err
	}
	if len(wlan) > 0 {
		return wlan, nil
	}
	return enumerate(false)
}

func enumerate(wlanOnly bool) ([]Interface, error) {
	u := udev.Udev{}
	e := u.NewEnumerate()

	if err := e.AddMatchSubsystem("net"); err != nil {
		return nil, fmt.Errorf("ifaces: match subsystem net: %w", err)
	}
	if wlanOnly {
		if err := e.AddMatchProperty("DEVTYPE", "wlan"); err != nil {
			return nil, fmt.Errorf("ifaces: match devtype wlan: %w", err)
		}
	}

	devices, err := e.Devices()
	if err != nil {
		return nil, fmt.Errorf("ifaces: enumerate devices: %w", err)
	}

	out := make([]Interface, 0, len(devices))
	for _, d := range devices {
		out = append(out, Interface{
			Name:    d.Sysname(),
			Path:    d.Syspath(),
			Monitor: hasPhy80211(d.Syspath()),
		})
	}
	return out, nil
}

// hasPhy80211 reports whether syspath's device node has a phy80211
// sibling, a reasonable (not authoritative) signal that the adapter's
// driver supports 802.11 monitor mode.
func hasPhy80211(syspath string) bool {
	_, err := os.Stat(filepath.Join(syspath, "phy80211"))
	return err == nil
}

// First returns the first wireless interface udev reports, for callers
// that just want a reasonable default rather than an operator-supplied
// name.
func First() (Interface, error) {
	ifs, err := Wireless()
	if err != nil {
		return Interface{}, err
	}
	if len(ifs) == 0 {
		return Interface{}, fmt.Errorf("ifaces: no wireless interface found")
	}
	return ifs[0], nil
}
