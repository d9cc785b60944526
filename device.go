package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"interviewer/audio"
)

type pickKey int

const (
	pickNone pickKey = iota
	pickUp
	pickDown
	pickEnter
	pickAbort
)

// decodePickKey maps one raw terminal read to a picker action.
func decodePickKey(buf []byte) pickKey {
	if len(buf) == 1 {
		switch buf[0] {
		case '\r', '\n':
			return pickEnter
		case 3, 'q': // ctrl+c
			return pickAbort
		case 'j':
			return pickDown
		case 'k':
			return pickUp
		}
		return pickNone
	}
	if len(buf) == 3 && buf[0] == 0x1b && buf[1] == '[' {
		switch buf[2] {
		case 'A':
			return pickUp
		case 'B':
			return pickDown
		}
	}
	return pickNone
}

func renderDevices(w io.Writer, devices []audio.DeviceInfo, cursor int) {
	fmt.Fprint(w, "\r\x1b[J")
	fmt.Fprint(w, "Select microphone (↑/↓, Enter to confirm):\r\n\r\n")
	for i, d := range devices {
		name := d.Name
		if audio.IsBluetooth(name) {
			name += " (bluetooth, lower quality)"
		}
		if i == cursor {
			fmt.Fprintf(w, "  \x1b[1;36m▶ %s\x1b[0m\r\n", name)
		} else {
			fmt.Fprintf(w, "    %s\r\n", name)
		}
	}
}

// selectDevice lets the user pick a capture device with the arrow keys. A
// nil device with a nil error means the user aborted.
func selectDevice(ctx audio.Context) (*audio.DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no capture devices found")
	}
	if len(devices) == 1 {
		fmt.Printf("Using device: %s\n", devices[0].Name)
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	renderDevices(os.Stdout, devices, cursor)

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}

		switch decodePickKey(buf[:n]) {
		case pickEnter:
			fmt.Print("\r\n")
			return &devices[cursor], nil
		case pickAbort:
			fmt.Print("\r\n")
			return nil, nil
		case pickUp:
			cursor = max(cursor-1, 0)
		case pickDown:
			cursor = min(cursor+1, len(devices)-1)
		}

		fmt.Printf("\x1b[%dA", len(devices)+2)
		renderDevices(os.Stdout, devices, cursor)
	}
}
