// Package proto provides shell commands for the framed protocol:
// identity exchange, raw requests and link statistics.
package proto

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/framelink/framelink.go/pkg/cli/sh"
)

var (
	// IdentCmd queries the peer descriptor.
	IdentCmd = ishell.Cmd{
		Name:    "ident",
		Aliases: []string{"i"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			d, err := s.Conn.Client.Ident(ctx)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				out, err := json.Marshal(map[string]interface{}{
					"name":            d.Name(),
					"version":         fmt.Sprintf("%d.%d.%d", d.Major(), d.Minor(), d.Patch()),
					"max-packet-size": d.MaxPacketSize(),
				})
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			c.Printf("%s %d.%d.%d max-packet-size=%d\n",
				d.Name(), d.Major(), d.Minor(), d.Patch(), d.MaxPacketSize())
		}),
	}

	// SendCmd sends a raw request frame.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "REQUEST [HEXDATA]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("REQUEST required"))
				return
			}
			code, err := strconv.ParseUint(c.Args[0], 0, 16)
			if err != nil {
				c.Err(fmt.Errorf("Invalid REQUEST: %v", err))
				return
			}
			var data []byte
			if len(c.Args) > 1 {
				if data, err = hex.DecodeString(c.Args[1]); err != nil {
					c.Err(fmt.Errorf("Invalid HEXDATA: %v", err))
					return
				}
			}
			sh.DoRequest(c, uint16(code), data)
		}),
	}

	// StatsCmd prints link statistics.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			stats := s.Conn.Client.Link().Stats()
			if s.OutputJSON {
				out, err := json.Marshal(&stats)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			c.Printf("received=%d errors=%d\n", stats.Received, stats.Errors)
		}),
	}

	// WatchCmd prints unsolicited frames pushed by the peer.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[SECONDS]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			seconds := 5
			if len(c.Args) > 0 {
				val, err := strconv.Atoi(c.Args[0])
				if err != nil || val <= 0 {
					c.Err(fmt.Errorf("Invalid SECONDS"))
					return
				}
				seconds = val
			}
			s := sh.ShellFrom(c)
			deadline := time.After(time.Duration(seconds) * time.Second)
			for {
				select {
				case ev := <-s.Conn.Client.EventChan():
					c.Printf("%04x %04x %s\n", ev.Request, ev.Response,
						hex.EncodeToString(ev.Data))
				case <-deadline:
					return
				}
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&IdentCmd,
		&SendCmd,
		&StatsCmd,
		&WatchCmd,
	)
}
