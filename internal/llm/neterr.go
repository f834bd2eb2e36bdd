package llm

import (
	"errors"
	"net"
	"net/url"
	"syscall"
)

// isConnectionError reports whether err came from dialing or talking to the server
func isConnectionError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
