package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

const checkTimeout = 2 * time.Second

// SOCKS5 wire constants used by Check.
const (
	socks5Version    = 0x05
	socks5AuthNone   = 0x00
	socks5CmdConnect = 0x01
	socks5AddrDomain = 0x03

	// probeHost is the CONNECT target of Check. The outcome of the CONNECT
	// does not matter, only that the proxy answers in SOCKS5.
	probeHost = "example.com"
	probePort = 80
)

// Client routes connections through a SOCKS5 proxy.
type Client struct {
	address string
	dialer  proxy.Dialer
	timeout time.Duration
}

// ParseAddress accepts "host:port" or "socks5://host:port" (also socks5h)
// and returns the bare host:port.
func ParseAddress(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	lower := strings.ToLower(addr)
	for _, prefix := range []string{"socks5://", "socks5h://"} {
		if strings.HasPrefix(lower, prefix) {
			addr = addr[len(prefix):]
			break
		}
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return "", ErrInvalidAddress
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", ErrInvalidAddress
	}
	return addr, nil
}

// NewClient creates a client for the SOCKS5 proxy at address. timeout becomes
// the Timeout of clients returned by HTTPClient. The proxy is not contacted;
// call Check for that.
func NewClient(address string, timeout time.Duration) (*Client, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	return &Client{
		address: addr,
		dialer:  dialer,
		timeout: timeout,
	}, nil
}

// Address returns the proxy address in host:port form.
func (c *Client) Address() string {
	return c.address
}

// Check performs a SOCKS5 handshake and a CONNECT request against the proxy.
func (c *Client) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.address)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return StatusTimeout
		}
		return StatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkTimeout)); err != nil {
		return StatusCannotConnect
	}

	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return StatusCannotConnect
	}

	reply := make([]byte, 2)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return readFailure(err)
	}
	if reply[0] != socks5Version || reply[1] != socks5AuthNone {
		return StatusWrongType
	}

	req := []byte{socks5Version, socks5CmdConnect, 0x00, socks5AddrDomain, byte(len(probeHost))}
	req = append(req, probeHost...)
	req = append(req, byte(probePort>>8), byte(probePort&0xff))
	if _, err := conn.Write(req); err != nil {
		return StatusCannotConnect
	}

	// Version, reply code, reserved, address type. Any reply code counts.
	head := make([]byte, 4)
	if _, err := io.ReadFull(conn, head); err != nil {
		return readFailure(err)
	}
	if head[0] != socks5Version {
		return StatusWrongType
	}
	return StatusOK
}

func readFailure(err error) Status {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout
	}
	return StatusWrongType
}

// HTTPClient returns an HTTP client whose connections go through the proxy.
func (c *Client) HTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := c.dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return c.dialer.Dial(network, addr)
		},
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
	}
}
