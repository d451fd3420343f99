package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// openers maps GOOS to the command that hands a URL to the desktop.
var openers = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

// OpenBrowser opens url (a media delivery URL or the local proxy) in the default system browser.
func OpenBrowser(url string) error {
	if url == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidArgument)
	}

	rt := getRuntime()
	opener, ok := openers[rt]
	if !ok {
		return fmt.Errorf("%w: opening a browser on %s", ErrNotImplemented, rt)
	}

	args := append(append([]string{}, opener[1:]...), url)
	if err := startCommand(opener[0], args...); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
