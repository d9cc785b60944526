//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// The global shortcut must be registered from the main thread on macOS, so
// the session runs beside it.
func main() {
	mainthread.Init(run)
}
