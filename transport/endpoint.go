package transport

import (
	"context"
	"net"
	"strconv"
	"strings"

	"github.com/mixpanel/carbon/obserr"
)

// DefaultPort is the carbon plaintext port used when an address carries none.
const DefaultPort = 2003

// Endpoint is a resolved carbon backend address.
type Endpoint struct {
	// Host is the address as configured, before resolution.
	Host string
	IP   net.IP
	Port int
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.IP.String(), strconv.Itoa(e.Port))
}

// Addr returns the endpoint as a net.Addr for the given mode.
func (e Endpoint) Addr(mode Mode) net.Addr {
	if mode == Datagram {
		return &net.UDPAddr{IP: e.IP, Port: e.Port}
	}
	return &net.TCPAddr{IP: e.IP, Port: e.Port}
}

// ParseEndpoint splits addr into host and port. addr may be a host name, an IPv4 or
// IPv6 literal (bracketed or not), optionally followed by ":port". Without a port,
// DefaultPort is used.
func ParseEndpoint(addr string) (host string, port int, err error) {
	addr = strings.TrimSpace(addr)
	invalid := func(reason string) error {
		return obserr.Kind(obserr.ErrInvalidConfiguration, reason).Set("addr", addr)
	}

	if addr == "" {
		return "", 0, invalid("empty address")
	}
	if strings.Contains(addr, "://") {
		return "", 0, invalid("address must not carry a scheme")
	}
	if net.ParseIP(addr) != nil {
		return addr, DefaultPort, nil
	}
	if strings.HasPrefix(addr, "[") && strings.HasSuffix(addr, "]") {
		host = addr[1 : len(addr)-1]
		if net.ParseIP(host) == nil {
			return "", 0, invalid("malformed bracketed address")
		}
		return host, DefaultPort, nil
	}
	if !strings.Contains(addr, ":") {
		return addr, DefaultPort, nil
	}

	host, rawPort, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, obserr.Kind(obserr.ErrInvalidConfiguration, err).Set("addr", addr)
	}
	if host == "" {
		return "", 0, invalid("missing host")
	}
	port, err = strconv.Atoi(rawPort)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, invalid("port out of range")
	}
	return host, port, nil
}

// Resolver turns a host name or IP literal into a single address.
type Resolver interface {
	Resolve(ctx context.Context, host string) (net.IP, error)
}

// DNSResolver resolves literal IPs directly and falls back to a name lookup, taking the
// first address returned.
type DNSResolver struct {
	// Resolver defaults to net.DefaultResolver.
	Resolver *net.Resolver
}

func (r DNSResolver) Resolve(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}

	resolver := r.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, obserr.Kind(obserr.ErrResolutionFailure, err).Set("host", host)
	}
	if len(addrs) == 0 {
		return nil, obserr.Kind(obserr.ErrResolutionFailure, "no addresses").Set("host", host)
	}
	return addrs[0].IP, nil
}

// ResolveEndpoint parses addr and resolves its host with resolver. A nil resolver means
// DNSResolver{}.
func ResolveEndpoint(ctx context.Context, resolver Resolver, addr string) (Endpoint, error) {
	host, port, err := ParseEndpoint(addr)
	if err != nil {
		return Endpoint{}, err
	}
	return ResolveHostPort(ctx, resolver, host, port)
}

// ResolveHostPort resolves host and pairs it with port.
func ResolveHostPort(ctx context.Context, resolver Resolver, host string, port int) (Endpoint, error) {
	if port < 1 || port > 65535 {
		return Endpoint{}, obserr.Kind(obserr.ErrInvalidConfiguration, "port out of range").Set("port", port)
	}
	if resolver == nil {
		resolver = DNSResolver{}
	}

	ip, err := resolver.Resolve(ctx, host)
	if err != nil {
		if obserr.KindOf(err) == nil {
			err = obserr.Kind(obserr.ErrResolutionFailure, err).Set("host", host)
		}
		return Endpoint{}, err
	}
	if ip == nil {
		return Endpoint{}, obserr.Kind(obserr.ErrResolutionFailure, "no addresses").Set("host", host)
	}
	return Endpoint{Host: host, IP: ip, Port: port}, nil
}
