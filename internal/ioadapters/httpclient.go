// Package ioadapters holds the dispatch backbone's outbound integrations:
// the shared HTTP client, the geocoder, and the closures/traffic feed
// pollers that keep the store's ingress tables current. Construction
// follows the teacher's internal/ai/providers idiom (a *http.Client field
// with a fixed timeout), extended with a DNS-caching dialer the way
// long-lived outbound HTTP clients typically are.
package ioadapters

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/dnscache"
)

const (
	dnsRefreshInterval  = 5 * time.Minute
	defaultHTTPTimeout  = 10 * time.Second
	dialTimeout         = 5 * time.Second
	idleConnTimeout     = 90 * time.Second
	maxIdleConnsPerHost = 8
)

// resolver is shared across every client built by NewHTTPClient so a single
// background refresh loop serves all outbound hosts.
var resolver = &dnscache.Resolver{}

func init() {
	go dnscache.New(resolver, dnsRefreshInterval, nil)
}

// NewHTTPClient returns an *http.Client whose dialer resolves hostnames
// through the shared dnscache.Resolver instead of hitting the system
// resolver on every connection, cutting tail latency for the routing
// provider and feed-polling traffic this package generates.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	dialer := &net.Dialer{Timeout: dialTimeout}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return dialer.DialContext(ctx, network, addr)
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil || len(ips) == 0 {
				return dialer.DialContext(ctx, network, addr)
			}
			var lastErr error
			for _, ip := range ips {
				conn, dialErr := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if dialErr == nil {
					return conn, nil
				}
				lastErr = dialErr
			}
			return nil, lastErr
		},
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}
