//go:build windows

package client

import "os"

// openTTY opens the console input buffer, which stays attached when
// standard input is redirected.
func openTTY() (*os.File, error) {
	return os.OpenFile("CONIN$", os.O_RDWR, 0)
}
