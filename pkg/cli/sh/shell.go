package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/sensorlib.go/pkg/station"
	"github.com/robotalks/sensorlib.go/pkg/station/env"
)

// Shell provides ishell backed interactive shell on a sensor board.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	// Timeout bounds every bus operation.
	Timeout time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Bus    *env.Bus
	Board  *station.Board

	cancel func()
	done   chan error
}

const shellKey = "$shell"

// DefaultTimeout is the default bound of bus operations.
const DefaultTimeout = time.Second

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&SensorsCmd,
		&InitCmd,
		&ReadCmd,
		&WriteCmd,
		&RMWCmd,
		&DataCmd,
		&WhoAmICmd,
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

// New opens the configured bus and creates a shell on it.
func New(conf *env.Config) (*Shell, error) {
	s, err := open(conf)
	if err != nil {
		return nil, err
	}
	s.Shell = ishell.New()
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", conf.Bus))
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s, nil
}

// open starts the bus and the board without the interactive shell.
func open(conf *env.Config) (*Shell, error) {
	bus, err := conf.OpenBus(nil)
	if err != nil {
		return nil, err
	}
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     DefaultTimeout,

		Config: conf,
		Bus:    bus,
		Board:  station.NewBoard(bus.Engine),
		done:   make(chan error, 1),
	}
	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	go func() { s.done <- bus.Run(ctx) }()
	return s, nil
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Close stops the bus.
func (s *Shell) Close() error {
	s.cancel()
	if err := <-s.done; err != context.Canceled {
		return err
	}
	return nil
}

// Output prints v as JSON or with its default format.
func (s *Shell) Output(c *ishell.Context, v interface{}) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	if str, ok := v.(fmt.Stringer); ok {
		c.Println(str.String())
		return
	}
	c.Println(v)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Fatal(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Fatal("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	s, err := New(env.NewConfig())
	if err != nil {
		glog.Fatal(err)
	}
	s.Run(flag.Args()...)
}
