//go:build !windows

package client

import "os"

// openTTY opens the controlling terminal of the process.
func openTTY() (*os.File, error) {
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}
