package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		opener := "xdg-open"
		if _, err := exec.LookPath(opener); err != nil {
			// Fall back to a headless-friendly opener when xdg-utils is absent.
			for _, alt := range []string{"sensible-browser", "x-www-browser"} {
				if _, err := exec.LookPath(alt); err == nil {
					opener = alt
					break
				}
			}
		}
		cmd = exec.Command(opener, url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
