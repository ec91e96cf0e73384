package netutil

import (
	"errors"
	"net"
)

// ShouldRetry reports whether err is a transient transport failure: a failed
// dial, a timeout or a temporary network error. Bot API rejections are
// never retried.
func ShouldRetry(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var netErr net.Error
	//nolint:staticcheck // Temporary still flags some transient resolver errors.
	return errors.As(err, &netErr) && (netErr.Timeout() || netErr.Temporary())
}
