// File: netsys/address.go
// Author: momentics <momentics@gmail.com>
//
// Socket address value type, large enough to hold either an IPv4 or IPv6
// endpoint, per spec.md §3 ("a socket message descriptor whose address
// field is large enough for either IPv4 or IPv6").

package netsys

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// Address is a resolved socket endpoint, family-tagged so the caller can
// pick the matching socket() family per spec.md §4.5 step 1 ("matching the
// address family of the configured bind address").
type Address struct {
	Family   int // unix.AF_INET or unix.AF_INET6
	Sockaddr unix.Sockaddr
}

// ResolveAddress parses "host:port" into a netsys.Address. network is one
// of "tcp4", "tcp6", "udp4", "udp6".
func ResolveAddress(network, address string) (Address, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return Address{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Address{}, fmt.Errorf("netsys: invalid port %q: %w", portStr, err)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		if host == "" {
			ip = net.IPv4zero
		} else {
			return Address{}, fmt.Errorf("netsys: invalid host %q", host)
		}
	}

	switch network {
	case "tcp4", "udp4":
		var a [4]byte
		v4 := ip.To4()
		if v4 == nil {
			return Address{}, fmt.Errorf("netsys: %q is not an IPv4 address", host)
		}
		copy(a[:], v4)
		return Address{Family: unix.AF_INET, Sockaddr: &unix.SockaddrInet4{Port: port, Addr: a}}, nil
	case "tcp6", "udp6":
		var a [16]byte
		v6 := ip.To16()
		if v6 == nil {
			return Address{}, fmt.Errorf("netsys: %q is not an IPv6 address", host)
		}
		copy(a[:], v6)
		return Address{Family: unix.AF_INET6, Sockaddr: &unix.SockaddrInet6{Port: port, Addr: a}}, nil
	default:
		return Address{}, fmt.Errorf("netsys: unsupported network %q", network)
	}
}

// SockaddrToAddress converts a unix.Sockaddr (as returned by accept/getsockname)
// back into an Address, preserving the family tag.
func SockaddrToAddress(sa unix.Sockaddr) Address {
	switch t := sa.(type) {
	case *unix.SockaddrInet4:
		return Address{Family: unix.AF_INET, Sockaddr: t}
	case *unix.SockaddrInet6:
		return Address{Family: unix.AF_INET6, Sockaddr: t}
	default:
		return Address{}
	}
}

// String renders the address as host:port for logging.
func (a Address) String() string {
	switch t := a.Sockaddr.(type) {
	case *unix.SockaddrInet4:
		ip := net.IP(t.Addr[:])
		return net.JoinHostPort(ip.String(), strconv.Itoa(t.Port))
	case *unix.SockaddrInet6:
		ip := net.IP(t.Addr[:])
		return net.JoinHostPort(ip.String(), strconv.Itoa(t.Port))
	default:
		return "<invalid>"
	}
}

// Port returns the address's port number, or 0 if unset/invalid.
func (a Address) Port() int {
	switch t := a.Sockaddr.(type) {
	case *unix.SockaddrInet4:
		return t.Port
	case *unix.SockaddrInet6:
		return t.Port
	default:
		return 0
	}
}
