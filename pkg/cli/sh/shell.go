package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/framelink/framelink.go/pkg/env/endpoint"
	"github.com/framelink/framelink.go/pkg/link"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *endpoint.Config
	Conn   *ConnLink
}

// ConnLink is a connected link with its background runners.
type ConnLink struct {
	Ctx      context.Context
	Cancel   func()
	Endpoint *endpoint.Endpoint
	Client   *link.Client
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *endpoint.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// requestResult is the printable form of a completed request.
type requestResult struct {
	Request  uint16 `json:"request"`
	Response uint16 `json:"response"`
	Data     string `json:"data,omitempty"`
}

// DoRequest sends a request frame and waits for the reply.
func DoRequest(c *ishell.Context, request uint16, data []byte) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	cmd := s.Conn.Client.Do(request, data)
	select {
	case res := <-cmd.ResultChan():
		if res.Err != nil {
			c.Err(res.Err)
			return res.Err
		}
		out := requestResult{
			Request:  request,
			Response: res.Response,
			Data:     hex.EncodeToString(res.Data),
		}
		if s.OutputJSON {
			enc, err := json.Marshal(&out)
			if err != nil {
				c.Err(err)
				return err
			}
			c.Println(string(enc))
			return nil
		}
		if len(res.Data) == 0 {
			c.Printf("%04x OK\n", out.Response)
			return nil
		}
		c.Printf("%04x %s\n", out.Response, out.Data)
	case <-time.After(time.Second):
		c.Err(fmt.Errorf("request timeout"))
		return context.DeadlineExceeded
	}
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the transport from config and starts a link over it.
func (s *Shell) Connect(deviceURL string) error {
	conf := *s.Config
	if deviceURL != "" {
		conf.DeviceURL = deviceURL
	}
	ep, err := conf.Open()
	if err != nil {
		return err
	}
	l, err := link.New(ep.Stream, conf.Capacity)
	if err != nil {
		ep.Close()
		return err
	}
	conn := &ConnLink{
		Endpoint: ep,
		Client:   link.NewClient(l),
	}
	conn.Ctx, conn.Cancel = context.WithCancel(context.Background())
	if s.Conn != nil {
		s.Conn.Close()
	}
	s.Conn = conn
	for _, r := range ep.Runnables() {
		go r.Run(conn.Ctx)
	}
	go conn.Client.Run(conn.Ctx)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", ep.Name))
	return nil
}

// Disconnect disconnects the current link.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Close cancels the runners and closes the transport.
func (l *ConnLink) Close() {
	l.Cancel()
	l.Endpoint.Close()
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.DeviceURL != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.DeviceURL)
		}
		if err := s.Connect(""); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.DeviceURL, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd connects a peer.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[URL]",
		Func: func(c *ishell.Context) {
			var deviceURL string
			if len(c.Args) > 0 {
				deviceURL = c.Args[0]
			}
			if err := ShellFrom(c).Connect(deviceURL); err != nil {
				c.Err(err)
				return
			}
		},
	}

	// DisconnectCmd disconnects the current peer.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(endpoint.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
