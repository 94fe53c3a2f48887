package sensor

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// ErrSerialIO wraps every failure to open or read the device.
var ErrSerialIO = errors.New("serial i/o error")

// Opener opens the device. Reads on the returned port should give up after a
// short timeout, returning (0, nil) when nothing arrived, so the poller can
// notice shutdown between lines.
type Opener func() (io.ReadCloser, error)

// SerialOpener opens a serial port at the given baud rate.
func SerialOpener(device string, baudRate int, readTimeout time.Duration) Opener {
	return func() (io.ReadCloser, error) {
		port, err := serial.Open(device, &serial.Mode{BaudRate: baudRate})
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrSerialIO, device, err)
		}
		if err := port.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("%w: set read timeout on %s: %v", ErrSerialIO, device, err)
		}
		return port, nil
	}
}
