// Package airkiss decodes credentials carried by an AirKiss-style
// length-sequence Wi-Fi provisioning protocol.
//
// A configurator that is already associated with the target access point
// broadcasts UDP packets whose payload lengths encode a 9-bit symbol
// stream. A device that has not yet joined any network observes only the
// lengths of these 802.11 frames; this package reconstructs the SSID,
// password, and a random acknowledgement token from that length
// sequence, by running one state machine (Session) per (BSSID, SA)
// transmitter, demultiplexed by a Registry.
//
// Frame capture, channel hopping, and the acknowledgement broadcast
// itself live outside this package - see the sibling ack package for the
// latter.
package airkiss
