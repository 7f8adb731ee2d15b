package listen

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
)

// Options selects the transport the server binds to. A non-empty UnixSocket
// takes precedence over the TCP address.
type Options struct {
	Host string
	Port string

	UnixSocket            string
	UnixSocketPermissions os.FileMode
}

// New opens the configured listener. For unix sockets a stale socket file
// from a previous run is removed first and the fresh one is chmodded so the
// fronting proxy (often running as another user) can connect. The returned
// cleanup func removes the socket file again.
func New(opts Options) (net.Listener, func(), error) {
	if opts.UnixSocket != "" {
		return newUnixSocket(opts.UnixSocket, opts.UnixSocketPermissions)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(opts.Host, opts.Port))
	if err != nil {
		return nil, nil, fmt.Errorf("can't listen on %s:%s: %w", opts.Host, opts.Port, err)
	}

	return ln, func() {}, nil
}

func newUnixSocket(path string, perms os.FileMode) (net.Listener, func(), error) {
	// Removing a live socket disconnects existing clients, which is fine
	// for a test deployment.
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("can't remove stale socket %s: %w", path, err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, nil, fmt.Errorf("can't listen on socket %s: %w", path, err)
	}

	if perms == 0 {
		perms = 0o777
	}
	if err := os.Chmod(path, perms); err != nil {
		ln.Close()
		return nil, nil, fmt.Errorf("can't chmod socket %s: %w", path, err)
	}

	cleanup := func() {
		os.Remove(path)
	}

	return ln, cleanup, nil
}
