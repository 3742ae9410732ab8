package sh

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/beslink.go/pkg/beslink"
	"github.com/robotalks/beslink.go/pkg/transport/serial"
)

var commands = []*ishell.Cmd{
	&ConnectCmd,
	&DisconnectCmd,
	&PortsCmd,
	&TypesCmd,
	&ChecksumCmd,
	&LengthCmd,
	&SendCmd,
	&RecvCmd,
	&ReadFlashCmd,
}

var (
	// ConnectCmd opens the link.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TRANSPORT-URL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				s.Config.TransportURL = c.Args[0]
			}
			if err := s.Connect(); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes the link.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			ports, err := serial.ListPorts()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// TypesCmd lists message types.
	TypesCmd = ishell.Cmd{
		Name: "types",
		Help: "",
		Func: func(c *ishell.Context) {
			for _, t := range beslink.MessageTypes() {
				n, _ := beslink.FrameLength([]byte{beslink.Sync, byte(t), 0})
				if t == beslink.TypeFlashCommand {
					c.Printf("0x%02X %-18s variable\n", byte(t), t)
					continue
				}
				c.Printf("0x%02X %-18s %d\n", byte(t), t, n)
			}
		},
	}

	// ChecksumCmd calculates checksum.
	ChecksumCmd = ishell.Cmd{
		Name:    "checksum",
		Aliases: []string{"sum"},
		Help:    "HEX...",
		Func: func(c *ishell.Context) {
			b, err := ParseHexBytes(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("0x%02X\n", beslink.Checksum(b))
		},
	}

	// LengthCmd resolves the frame length from a header.
	LengthCmd = ishell.Cmd{
		Name: "length",
		Help: "SYNC TYPE SUBTYPE",
		Func: func(c *ishell.Context) {
			b, err := ParseHexBytes(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			n, known := beslink.FrameLength(b)
			if !known {
				c.Printf("%d (unknown)\n", n)
				return
			}
			c.Println(n)
		},
	}

	// SendCmd sends a message.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "TYPE [HEX...]",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("TYPE required"))
				return
			}
			t, err := ParseMessageType(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			data, err := ParseHexBytes(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			msg := beslink.NewMessage(t, data...)
			if err := msg.Validate(); err != nil {
				glog.Warningf("sending anyway: %v", err)
			}
			if err := ShellFrom(c).Link.Send(msg); err != nil {
				c.Err(err)
			}
		}),
	}

	// RecvCmd receives a message.
	RecvCmd = ishell.Cmd{
		Name:    "recv",
		Aliases: []string{"r"},
		Help:    "[TIMEOUT]",
		Func: MustBeConnected(func(c *ishell.Context) {
			ctx, cancel, err := Context(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			defer cancel()
			s := ShellFrom(c)
			msg, err := s.Link.Receive(ctx)
			if err != nil {
				c.Err(err)
				return
			}
			s.PrintMessage(c, msg, nil)
		}),
	}

	// ReadFlashCmd receives a FlashRead response with trailing data.
	ReadFlashCmd = ishell.Cmd{
		Name:    "readflash",
		Aliases: []string{"rf"},
		Help:    "LEN [TIMEOUT]",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("LEN required"))
				return
			}
			n, err := strconv.Atoi(c.Args[0])
			if err != nil || n < 0 {
				c.Err(fmt.Errorf("invalid LEN %q", c.Args[0]))
				return
			}
			ctx, cancel, err := Context(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			defer cancel()
			s := ShellFrom(c)
			msg, trailing, err := s.Link.ReceiveWithTrailingData(ctx, n)
			if err != nil {
				c.Err(err)
				return
			}
			s.PrintMessage(c, msg, trailing)
		}),
	}
)
