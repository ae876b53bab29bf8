// Package net implements the network-attached LED backends of spec §6:
// Adalight-style "awa" over UDP with a Fletcher-16 trailer, Cololight's
// TL1 framing, and LIFX's binary LAN protocol.
//
// Grounded on host/sysfs/spi.go's pattern of a small unexported transport
// type wrapped by a per-protocol Dev, generalized from a character device
// to a UDP socket; the wire formats themselves have no precedent in the
// teacher (periph.io targets local buses, not networked luminaires) and
// are built fresh from spec §6's bit-exact layouts.
package net

import (
	"fmt"
	"net"
	"time"
)

// Conn is the minimal transport every backend in this package needs; it
// is satisfied by *net.UDPConn and by driver/nettest's fake for testing.
type Conn interface {
	Write([]byte) (int, error)
	Close() error
}

// dialUDP opens a UDP "connection" (a bound remote address; UDP itself is
// connectionless) to host:port.
func dialUDP(host string, port int) (Conn, error) {
	c, err := net.DialTimeout("udp", fmt.Sprintf("%s:%d", host, port), 2*time.Second)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// fletcher16 computes the classic two-sum Fletcher-16 checksum used by
// the Adalight/LEDstream serial protocol (spec §6, §8 scenario S6).
func fletcher16(data []byte) (byte, byte) {
	var sum1, sum2 uint16
	for _, b := range data {
		sum1 = (sum1 + uint16(b)) % 255
		sum2 = (sum2 + sum1) % 255
	}
	return byte(sum1), byte(sum2)
}

func intOpt(config map[string]interface{}, key string) (int, bool) {
	v, ok := config[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func stringOpt(config map[string]interface{}, key, def string) string {
	if v, ok := config[key].(string); ok && v != "" {
		return v
	}
	return def
}
