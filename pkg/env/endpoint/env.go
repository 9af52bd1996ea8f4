// Package endpoint resolves transport URLs into byte streams a link
// can run over. Supported forms:
//
//	/dev/ttyUSB0                 local character device or file
//	serial:///dev/ttyUSB0        same, explicit scheme
//	mqtt://host:1883/prefix/?link=dev0
package endpoint

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path"
	"strconv"

	"github.com/framelink/framelink.go/pkg/framework"
	"github.com/framelink/framelink.go/pkg/link/mqtt"
)

// Config provides common options to reach a framed peer.
type Config struct {
	// DeviceURL locates the peer, see the package doc for forms.
	DeviceURL string

	// Capacity is the payload capacity of link packets.
	Capacity int
}

var defaultConfig = Config{
	Capacity: 256,
}

func init() {
	if val := os.Getenv("FRAMELINK_URL"); val != "" {
		defaultConfig.DeviceURL = val
	}
	if val := os.Getenv("FRAMELINK_CAPACITY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			defaultConfig.Capacity = n
		}
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.DeviceURL, "url", defaultConfig.DeviceURL, "Device or broker URL of the peer.")
	flag.IntVar(&defaultConfig.Capacity, "capacity", defaultConfig.Capacity, "Payload capacity of link packets.")
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

// Endpoint is an opened transport.
type Endpoint struct {
	// Name is a short display name derived from the URL.
	Name string
	// Stream carries the raw frame bytes.
	Stream io.ReadWriter

	runners []framework.Runnable
	closers []io.Closer
}

// Runnables returns background runners the transport needs, if any.
func (e *Endpoint) Runnables() []framework.Runnable {
	return e.runners
}

// Close implements io.Closer.
func (e *Endpoint) Close() error {
	var errs framework.AggregatedError
	for _, c := range e.closers {
		errs.Add(c.Close())
	}
	return errs.Aggregate()
}

// Open resolves DeviceURL and opens the transport as the client side.
func (c *Config) Open() (*Endpoint, error) {
	return c.open(false)
}

// OpenHost opens the transport as the host side. Over a broker the two
// sides swap topics; on a device there is no difference.
func (c *Config) OpenHost() (*Endpoint, error) {
	return c.open(true)
}

func (c *Config) open(host bool) (*Endpoint, error) {
	if c.DeviceURL == "" {
		return nil, fmt.Errorf("device URL must be specified")
	}
	parsedURL, err := url.Parse(c.DeviceURL)
	if err != nil {
		return nil, fmt.Errorf("invalid device URL: %v", err)
	}
	switch parsedURL.Scheme {
	case "", "file", "serial":
		return openDevice(parsedURL.Path)
	case "mqtt", "mqtts", "tcp", "ssl", "ws", "wss":
		return openBroker(c.DeviceURL, parsedURL, host)
	default:
		return nil, fmt.Errorf("unknown device URL scheme: %q", parsedURL.Scheme)
	}
}

func openDevice(devPath string) (*Endpoint, error) {
	f, err := os.OpenFile(devPath, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &Endpoint{
		Name:    path.Base(devPath),
		Stream:  f,
		closers: []io.Closer{f},
	}, nil
}

func openBroker(rawURL string, parsedURL *url.URL, host bool) (*Endpoint, error) {
	name := parsedURL.Query().Get("link")
	if name == "" {
		name = "link0"
	}
	q, err := mqtt.NewQueueFromURL(rawURL)
	if err != nil {
		return nil, err
	}
	token := q.Connect()
	token.Wait()
	if err = token.Error(); err != nil {
		return nil, err
	}
	var s *mqtt.Stream
	if host {
		s = mqtt.HostStream(q, name)
	} else {
		s = mqtt.ClientStream(q, name)
	}
	return &Endpoint{
		Name:    name,
		Stream:  s,
		runners: []framework.Runnable{framework.NamedRun("mqtt-stream", s)},
		closers: []io.Closer{s, q},
	}, nil
}

// MustOpen opens the transport and fails on error.
func (c *Config) MustOpen() *Endpoint {
	ep, err := c.Open()
	if err != nil {
		log.Fatalln(err)
	}
	return ep
}

// MustOpenHost opens the host side and fails on error.
func (c *Config) MustOpenHost() *Endpoint {
	ep, err := c.OpenHost()
	if err != nil {
		log.Fatalln(err)
	}
	return ep
}
