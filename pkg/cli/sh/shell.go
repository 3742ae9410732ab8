package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/beslink.go/pkg/beslink"
	"github.com/robotalks/beslink.go/pkg/env"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *env.Config
	Link   *beslink.Link

	closer io.Closer
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
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

// Connect opens the link using current config.
func (s *Shell) Connect() error {
	s.Disconnect()
	link, closer, err := s.Config.Open()
	if err != nil {
		return err
	}
	s.Link, s.closer = link, closer
	s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", s.Config.TransportURL))
	return nil
}

// Disconnect closes the link if connected.
func (s *Shell) Disconnect() {
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			glog.Warningf("close transport: %v", err)
		}
	}
	s.Link, s.closer = nil, nil
	s.Shell.SetPrompt(unconnectedPrompt)
}

// MustBeConnected wraps command func requires a connection.
// The link is opened on demand.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c)
		if s.Link == nil {
			if err := s.Connect(); err != nil {
				c.Err(err)
				return
			}
		}
		fn(c)
	}
}

// Context creates a context bounded by an optional DURATION argument.
func Context(args []string) (context.Context, context.CancelFunc, error) {
	if len(args) == 0 {
		ctx, cancel := context.WithCancel(context.Background())
		return ctx, cancel, nil
	}
	d, err := time.ParseDuration(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid TIMEOUT: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	return ctx, cancel, nil
}

type messageJSON struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Data     string `json:"data"`
	Checksum string `json:"checksum"`
	Trailing string `json:"trailing,omitempty"`
}

// PrintMessage prints a message and optional trailing data.
func (s *Shell) PrintMessage(c *ishell.Context, msg *beslink.Message, trailing []byte) {
	if s.OutputJSON {
		out, err := json.Marshal(messageJSON{
			Type:     msg.Type.String(),
			Code:     fmt.Sprintf("0x%02X", byte(msg.Type)),
			Data:     hex.EncodeToString(msg.Data),
			Checksum: fmt.Sprintf("0x%02X", msg.Checksum),
			Trailing: hex.EncodeToString(trailing),
		})
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(msg.String())
	if len(trailing) > 0 {
		c.Print(hex.Dump(trailing))
	}
}

// ParseHexBytes parses arguments as hex bytes. Each argument may hold one or
// more bytes, optionally prefixed by 0x, e.g. "BE 0x50 0003".
func ParseHexBytes(args []string) ([]byte, error) {
	var out []byte
	for _, arg := range args {
		str := strings.TrimPrefix(strings.TrimPrefix(arg, "0x"), "0X")
		if len(str)%2 == 1 {
			str = "0" + str
		}
		b, err := hex.DecodeString(str)
		if err != nil {
			return nil, fmt.Errorf("invalid hex %q: %v", arg, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

// ParseMessageType parses a message type by name or hex code.
func ParseMessageType(arg string) (beslink.MessageType, error) {
	if t, ok := beslink.LookupMessageType(arg); ok {
		return t, nil
	}
	b, err := ParseHexBytes([]string{arg})
	if err != nil || len(b) != 1 {
		return 0, fmt.Errorf("invalid TYPE %q", arg)
	}
	t, ok := beslink.ParseMessageType(b[0])
	if !ok {
		glog.Warningf("unknown message type 0x%02X", b[0])
	}
	return t, nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Disconnect()
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

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).Run(flag.Args()...)
}
