package ack

/*------------------------------------------------------------------
 *
 * Purpose:	Optional post-join mDNS/DNS-SD advertisement (C7, spec §6
 *		EXPANSION).
 *
 * Description:	Once the host has joined the network carried by the
 *		decoded SSID/password, advertise a service on the local
 *		segment so the configurator (or anything else on the LAN)
 *		can discover it without a second side channel. Loosely
 *		grounded on the teacher's dns_sd.go/dns_sd_avahi.go, which
 *		advertise the direwolf TNC the same way over DNS-SD;
 *		exercises github.com/brutella/dnssd, a teacher go.mod
 *		dependency the teacher's own code never imports.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"
)

// Advertiser publishes one DNS-SD service instance and keeps responding
// to queries for it until its context is cancelled.
type Advertiser struct {
	responder dnssd.Responder
}

// Advertise registers instance.serviceType on port and starts responding
// to mDNS queries in the background. Cancel ctx to withdraw it.
func Advertise(ctx context.Context, instance, serviceType string, port int) (*Advertiser, error) {
	cfg := dnssd.Config{
		Name: instance,
		Type: serviceType,
		Port: port,
	}
	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("ack: build dnssd service: %w", err)
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("ack: build dnssd responder: %w", err)
	}

	if _, err := responder.Add(svc); err != nil {
		return nil, fmt.Errorf("ack: register dnssd service: %w", err)
	}

	go func() {
		_ = responder.Respond(ctx)
	}()

	return &Advertiser{responder: responder}, nil
}
