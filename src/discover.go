package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	mDNS discovery of WLED controllers.
 *
 * Description:	WLED announces _wled._tcp on the local network.  A
 *		browse window collects whatever answers within the
 *		timeout; the results seed device configuration so
 *		nobody has to go read IPs off their router.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/brutella/dnssd"
)

const wled_mdns_service = "_wled._tcp.local."

// DiscoveredDevice is one mDNS answer, ready to paste into the
// device list.
type DiscoveredDevice struct {
	Name string
	IP   string
	Port int
}

/*-------------------------------------------------------------------
 *
 * Name:        DiscoverWLEDDevices
 *
 * Purpose:     Browse the LAN for WLED controllers.
 *
 * Inputs:	timeout - how long to keep the browse window open.
 *
 *--------------------------------------------------------------------*/

func DiscoverWLEDDevices(timeout time.Duration) ([]DiscoveredDevice, error) {
	var ctx, cancel = context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var found []DiscoveredDevice
	var seen = make(map[string]bool)

	var add = func(entry dnssd.BrowseEntry) {
		var ip = pick_ipv4(entry.IPs)
		if ip == "" || seen[entry.Name+ip] {
			return
		}
		seen[entry.Name+ip] = true
		found = append(found, DiscoveredDevice{
			Name: entry.Name,
			IP:   ip,
			Port: entry.Port,
		})
		logger.Debug("discovered device", "name", entry.Name, "ip", ip)
	}

	var err = dnssd.LookupType(ctx, wled_mdns_service, add, func(dnssd.BrowseEntry) {})
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("mdns browse: %w", err)
	}

	return found, nil
}

func pick_ipv4(ips []net.IP) string {
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}
	if len(ips) > 0 {
		return ips[0].String()
	}
	return ""
}
