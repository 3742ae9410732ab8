// Package env sets up the link from flags and environment variables.
package env

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/beslink.go/pkg/beslink"
	"github.com/robotalks/beslink.go/pkg/transport/mqtt"
	"github.com/robotalks/beslink.go/pkg/transport/serial"
	"github.com/robotalks/beslink.go/pkg/transport/websocket"
)

// Config provides common options to open a Link.
type Config struct {
	// TransportURL selects the transport by scheme, e.g.
	// serial:///dev/ttyUSB0?baud=921600
	// mqtt://host:1883/bridge/ttyUSB0/
	// ws://host:8080/ttyUSB0
	TransportURL string

	ReadTimeout time.Duration
	SettleDelay time.Duration
	ChunkSize   int
	// UnknownType is the name of a beslink.UnknownTypePolicy.
	UnknownType string
}

var defaultConfig = Config{
	TransportURL: "serial:///dev/ttyUSB0",
	ReadTimeout:  serial.DefaultReadTimeout,
	SettleDelay:  beslink.DefaultSettleDelay,
	ChunkSize:    beslink.DefaultChunkSize,
	UnknownType:  beslink.UnknownTypeAccept.String(),
}

func init() {
	defaultConfig.loadEnv(os.Getenv)
}

func (c *Config) loadEnv(getenv func(string) string) {
	if val := getenv("BESLINK_TRANSPORT"); val != "" {
		c.TransportURL = val
	}
	if val := getenv("BESLINK_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.ReadTimeout = d
		} else {
			glog.Warningf("ignore BESLINK_READ_TIMEOUT: %v", err)
		}
	}
	if val := getenv("BESLINK_SETTLE_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.SettleDelay = d
		} else {
			glog.Warningf("ignore BESLINK_SETTLE_DELAY: %v", err)
		}
	}
	if val := getenv("BESLINK_CHUNK_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.ChunkSize = n
		} else {
			glog.Warningf("ignore BESLINK_CHUNK_SIZE: %v", err)
		}
	}
	if val := getenv("BESLINK_UNKNOWN_TYPE"); val != "" {
		c.UnknownType = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.TransportURL, "transport", defaultConfig.TransportURL, "Transport URL (serial://, mqtt://, ws://).")
	flag.DurationVar(&defaultConfig.ReadTimeout, "read-timeout", defaultConfig.ReadTimeout, "Timeout of a single transport read.")
	flag.DurationVar(&defaultConfig.SettleDelay, "settle-delay", defaultConfig.SettleDelay, "Pause after a complete frame.")
	flag.IntVar(&defaultConfig.ChunkSize, "chunk-size", defaultConfig.ChunkSize, "Read buffer size for trailing data.")
	flag.StringVar(&defaultConfig.UnknownType, "unknown-type", defaultConfig.UnknownType, "Unknown message type policy: accept, reject, resync.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// OpenTransport opens the transport specified by TransportURL.
func (c *Config) OpenTransport() (io.ReadWriteCloser, error) {
	u, err := url.Parse(c.TransportURL)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URL: %v", err)
	}
	switch u.Scheme {
	case "serial":
		conf, err := serial.ConfigFromURL(u)
		if err != nil {
			return nil, err
		}
		conf.ReadTimeout = c.ReadTimeout
		return serial.Open(conf)
	case "mqtt", "mqtts":
		s, err := mqtt.Dial(c.TransportURL, c.ReadTimeout)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "ws", "wss":
		s, err := websocket.Dial(c.TransportURL, c.ReadTimeout)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown transport URL scheme: %q", u.Scheme)
	}
}

// NewLink creates a Link on rw using current config.
func (c *Config) NewLink(rw io.ReadWriter) (*beslink.Link, error) {
	policy, ok := beslink.ParseUnknownTypePolicy(c.UnknownType)
	if !ok {
		return nil, fmt.Errorf("unknown type policy %q", c.UnknownType)
	}
	link := beslink.NewLink(rw)
	link.SettleDelay = c.SettleDelay
	link.ChunkSize = c.ChunkSize
	link.UnknownType = policy
	return link, nil
}

// Open opens the transport and creates a Link on it.
// The returned Closer closes the transport.
func (c *Config) Open() (*beslink.Link, io.Closer, error) {
	// validate before touching the device
	if _, ok := beslink.ParseUnknownTypePolicy(c.UnknownType); !ok {
		return nil, nil, fmt.Errorf("unknown type policy %q", c.UnknownType)
	}
	rwc, err := c.OpenTransport()
	if err != nil {
		return nil, nil, err
	}
	link, err := c.NewLink(rwc)
	if err != nil {
		rwc.Close()
		return nil, nil, err
	}
	return link, rwc, nil
}

// MustOpen opens the Link and fails on error.
func (c *Config) MustOpen() (*beslink.Link, io.Closer) {
	link, closer, err := c.Open()
	if err != nil {
		log.Fatalln(err)
	}
	return link, closer
}
