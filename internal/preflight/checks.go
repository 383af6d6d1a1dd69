package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

const dialTimeout = 2 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckMPVSocket verifies that an mpv IPC endpoint accepts connections.
// Addresses containing ':' are dialed over TCP.
func CheckMPVSocket(ctx context.Context, address string) Result {
	const name = "mpv IPC"

	address = strings.TrimSpace(address)
	if address == "" {
		return Result{Name: name, Detail: "no socket configured"}
	}

	network := "unix"
	if strings.Contains(address, ":") {
		network = "tcp"
	} else {
		info, err := os.Stat(address)
		if err != nil {
			if os.IsNotExist(err) {
				return Result{Name: name, Detail: fmt.Sprintf("%s (not found; start mpv with --input-ipc-server=%s)", address, address)}
			}
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", address, err)}
		}
		if info.Mode()&os.ModeSocket == 0 {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a socket)", address)}
		}
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", address, summarizeDialError(err))}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (accepting connections)", address)}
}

// CheckSponsorBlock verifies that the segment server answers its status endpoint.
func CheckSponsorBlock(ctx context.Context, baseURL string, timeout time.Duration) Result {
	const name = "SponsorBlock"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/api/status", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("status check failed (%v)", err)}
	}
	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s unreachable (%s)", base, summarizeDialError(err))}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("status check failed (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", base)}
}

func summarizeDialError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, unix.ECONNREFUSED):
		return "connection refused"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	return err.Error()
}
