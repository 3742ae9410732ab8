// Package serial opens serial ports for beslink.
package serial

import (
	"net/url"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the baud rate of the boot ROM.
	DefaultBaudRate = 921600
	// DefaultReadTimeout bounds each Read on the port.
	DefaultReadTimeout = 100 * time.Millisecond
)

// Config specifies a serial port.
type Config struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration
}

// ConfigFromURL parses serial URLs:
//
//	serial:///dev/ttyUSB0?baud=921600
//	serial:COM3?baud=115200
func ConfigFromURL(u *url.URL) (Config, error) {
	conf := Config{
		Device:      u.Path,
		BaudRate:    DefaultBaudRate,
		ReadTimeout: DefaultReadTimeout,
	}
	if conf.Device == "" {
		conf.Device = u.Opaque
	}
	if conf.Device == "" {
		return conf, errors.Errorf("serial device missing in %q", u.String())
	}
	if val := u.Query().Get("baud"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil || baud <= 0 {
			return conf, errors.Errorf("invalid baud rate %q", val)
		}
		conf.BaudRate = baud
	}
	return conf, nil
}

// Open opens the port with 8N1 framing and the read timeout set.
// Pending input is discarded.
func Open(conf Config) (serial.Port, error) {
	baud := conf.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(conf.Device, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", conf.Device)
	}
	timeout := conf.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, errors.Wrapf(err, "set read timeout on %s", conf.Device)
	}
	if err := port.ResetInputBuffer(); err != nil {
		glog.Warningf("reset input buffer of %s: %v", conf.Device, err)
	}
	glog.V(1).Infof("opened %s at %d baud", conf.Device, baud)
	return port, nil
}

// ListPorts lists serial ports on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	return ports, errors.Wrap(err, "list serial ports")
}
