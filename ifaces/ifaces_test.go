package ifaces

import "testing"

// TestFirstReturnsInterfaceOrClearError exercises the real udev
// enumeration path; the test host may or may not have a wireless
// adapter, so it only asserts the contract: either a named interface
// with a non-empty sysfs path, or a descriptive error, never a silent
// zero value with a nil error.
func TestFirstReturnsInterfaceOrClearError(t *testing.T) {
	iface, err := First()
	if err != nil {
		t.Skipf("no wireless interface available in this environment: %v", err)
	}
	if iface.Name == "" || iface.Path == "" {
		t.Fatalf("First() returned a zero-value interface with no error: %+v", iface)
	}
}

func TestWirelessNeverReturnsNilSliceAndNilError(t *testing.T) {
	ifs, err := Wireless()
	if err != nil {
		t.Skipf("udev enumeration unavailable: %v", err)
	}
	if ifs == nil {
		t.Fatal("Wireless() returned nil slice with nil error")
	}
}
