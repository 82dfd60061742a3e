package ntp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"
)

const PacketSize = 48

// seconds between the NTP epoch (1900) and the unix epoch (1970).
const epochOffset = 2208988800

// ErrNoReply means the time source did not answer within the deadline.
var ErrNoReply = errors.New("ntp: no reply")

type Client struct {
	Server  string
	Timeout time.Duration
}

func New(server string) *Client {
	return &Client{
		Server:  server,
		Timeout: 5 * time.Second,
	}
}

// Request builds the fixed 48 byte query packet.
func Request() []byte {
	b := make([]byte, PacketSize)
	b[0] = 0xe3 // LI 3, version 4, mode 3 (client)
	b[1] = 0    // stratum
	b[2] = 6    // poll interval
	b[3] = 0xec // precision
	b[12] = 49
	b[13] = 0x4e
	b[14] = 49
	b[15] = 52
	return b
}

// DecodeEpoch reads the transmit timestamp at byte offset 40 as two big
// endian 16 bit words (seconds since 1900) and converts it to unix epoch
// seconds.
func DecodeEpoch(reply []byte) (int64, error) {
	if len(reply) < PacketSize {
		return 0, fmt.Errorf("ntp: reply of %d bytes, expected %d", len(reply), PacketSize)
	}
	hi := binary.BigEndian.Uint16(reply[40:42])
	lo := binary.BigEndian.Uint16(reply[42:44])
	secs := uint32(hi)<<16 | uint32(lo)
	return int64(secs) - epochOffset, nil
}

// Epoch queries the configured server once and returns unix epoch seconds.
// A missing or short reply within the deadline is reported as ErrNoReply.
func (c *Client) Epoch(ctx context.Context) (int64, error) {
	d := net.Dialer{Timeout: c.Timeout}
	conn, err := d.DialContext(ctx, "udp", c.Server)
	if err != nil {
		return 0, fmt.Errorf("ntp: dial %s: %w", c.Server, err)
	}
	defer conn.Close()

	err = conn.SetDeadline(time.Now().Add(c.Timeout))
	if err != nil {
		return 0, err
	}

	_, err = conn.Write(Request())
	if err != nil {
		return 0, fmt.Errorf("ntp: send: %w", err)
	}

	buf := make([]byte, PacketSize)
	n, err := conn.Read(buf)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return 0, ErrNoReply
		}
		return 0, fmt.Errorf("ntp: read: %w", err)
	}
	if n < PacketSize {
		return 0, fmt.Errorf("ntp: short reply of %d bytes: %w", n, ErrNoReply)
	}
	return DecodeEpoch(buf[:n])
}
