package proxy

import "errors"

var (
	// ErrNotSOCKS5 is returned when the proxy answers but does not speak SOCKS5
	// without authentication.
	ErrNotSOCKS5 = errors.New("proxy is not a SOCKS5 proxy")

	// ErrCannotConnect is returned when no TCP connection to the proxy can be made.
	ErrCannotConnect = errors.New("cannot connect to proxy")

	// ErrTimeout is returned when the proxy check times out.
	ErrTimeout = errors.New("timeout connecting to proxy")

	// ErrInvalidAddress is returned for an address that is not host:port.
	ErrInvalidAddress = errors.New("invalid proxy address: expected host:port or socks5://host:port")

	// ErrTorNotRunning is returned when a client is requested from a stopped Tor daemon.
	ErrTorNotRunning = errors.New("embedded Tor daemon is not running")
)

// Status is the result of probing a proxy.
type Status int

const (
	// StatusOK means the proxy completed a SOCKS5 handshake and CONNECT exchange.
	StatusOK Status = iota
	// StatusWrongType means something answered but not as a SOCKS5 proxy.
	StatusWrongType
	// StatusCannotConnect means the TCP connection failed.
	StatusCannotConnect
	// StatusTimeout means the probe did not finish in time.
	StatusTimeout
)

// String returns a human-readable description of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWrongType:
		return "wrong type (not SOCKS5)"
	case StatusCannotConnect:
		return "cannot connect"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Err returns the error for this status, or nil for StatusOK.
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusWrongType:
		return ErrNotSOCKS5
	case StatusCannotConnect:
		return ErrCannotConnect
	case StatusTimeout:
		return ErrTimeout
	default:
		return errors.New("unknown proxy status")
	}
}
