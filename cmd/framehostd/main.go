package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/framelink/framelink.go/pkg/env/endpoint"
	"github.com/framelink/framelink.go/pkg/frame"
	"github.com/framelink/framelink.go/pkg/framework"
	"github.com/framelink/framelink.go/pkg/link"
)

// built-in requests served by the daemon
const (
	requestPing   = 0x0010
	requestEcho   = 0x0011
	requestUptime = 0x0012
)

var (
	hostName string
	version  = "0.1.0"
)

func init() {
	endpoint.SetupFlags()
	flag.StringVar(&hostName, "name", hostName, "Host name reported by ident (default: hostname).")
	flag.StringVar(&version, "version", version, "Version reported by ident (MAJOR.MINOR.PATCH).")
}

func parseVersion(s string) (major, minor, patch uint8, err error) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid version %q", s)
	}
	vals := make([]uint8, 3)
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid version %q: %v", s, err)
		}
		vals[i] = uint8(v)
	}
	return vals[0], vals[1], vals[2], nil
}

func main() {
	flag.Parse()

	if hostName == "" {
		var err error
		if hostName, err = os.Hostname(); err != nil {
			glog.Exitf("hostname: %v", err)
		}
	}
	major, minor, patch, err := parseVersion(version)
	if err != nil {
		glog.Exit(err)
	}

	conf := endpoint.NewConfig()
	ep := conf.MustOpenHost()
	defer ep.Close()

	l, err := link.New(ep.Stream, conf.Capacity)
	if err != nil {
		glog.Exit(err)
	}
	desc, err := frame.NewDescriptor(hostName, major, minor, patch, uint16(conf.Capacity))
	if err != nil {
		glog.Exit(err)
	}

	started := time.Now()
	r := link.NewResponder(l, desc)
	r.Handle(requestPing, func(ctx context.Context, data []byte) ([]byte, uint16) {
		return nil, frame.ResponseSuccess
	})
	r.Handle(requestEcho, func(ctx context.Context, data []byte) ([]byte, uint16) {
		return data, frame.ResponseSuccess
	})
	r.Handle(requestUptime, func(ctx context.Context, data []byte) ([]byte, uint16) {
		out := make([]byte, 4)
		binary.LittleEndian.PutUint32(out, uint32(time.Since(started)/time.Second))
		return out, frame.ResponseSuccess
	})

	glog.Infof("serving %q on %s", hostName, ep.Name)
	runner := framework.NewRunner().HandleSignals()
	runner.Go(framework.NamedRun("link", r))
	for _, bg := range ep.Runnables() {
		runner.Go(bg)
	}
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
