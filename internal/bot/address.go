package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidAddress = errors.New("bot: invalid server address")

// ParseAddress splits addr on the first colon. A missing or empty port
// means DefaultPort.
func ParseAddress(addr string) (string, int, error) {
	addr = strings.TrimSpace(addr)

	host, portStr, found := strings.Cut(addr, ":")
	if host == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	if !found || portStr == "" {
		return host, DefaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("%w: bad port %q", ErrInvalidAddress, portStr)
	}

	return host, port, nil
}
