package sh

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/sensorlib.go/pkg/sensor"
	"github.com/robotalks/sensorlib.go/pkg/sensor/bmp180"
	"github.com/robotalks/sensorlib.go/pkg/sensor/l3gd20h"
	"github.com/robotalks/sensorlib.go/pkg/sensor/lsm303dlhc"
	"github.com/robotalks/sensorlib.go/pkg/sensor/tmp006"
	"github.com/robotalks/sensorlib.go/pkg/station"
)

var (
	// ErrUnknownSensor indicates the sensor name is not on the board.
	ErrUnknownSensor = errors.New("unknown sensor")
	// ErrNoIdentity indicates the sensor has no identification register.
	ErrNoIdentity = errors.New("sensor has no identification register")
)

// SensorStatus is the output of the sensors command.
type SensorStatus struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// Registers is the output of register commands. Bytes is set for 8-bit
// devices and Words for 16-bit ones.
type Registers struct {
	Sensor string   `json:"sensor"`
	Reg    byte     `json:"reg"`
	Bytes  []byte   `json:"bytes,omitempty"`
	Words  []uint16 `json:"words,omitempty"`
}

func (r *Registers) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s@%02x:", r.Sensor, r.Reg)
	for _, b := range r.Bytes {
		fmt.Fprintf(&sb, " %02x", b)
	}
	for _, w := range r.Words {
		fmt.Fprintf(&sb, " %04x", w)
	}
	return sb.String()
}

// Data is the output of the data command.
type Data struct {
	Sensor string     `json:"sensor"`
	Values [3]float32 `json:"values"`
}

// Identity is the output of the whoami command.
type Identity struct {
	Sensor string `json:"sensor"`
	ID     string `json:"id"`
	Match  bool   `json:"match"`
}

func (id *Identity) String() string {
	if id.Match {
		return fmt.Sprintf("%s: %s", id.Sensor, id.ID)
	}
	return fmt.Sprintf("%s: %s (unexpected)", id.Sensor, id.ID)
}

func (s *Shell) wait(start func(sensor.Callback) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()
	return sensor.Wait(ctx, start)
}

func (s *Shell) driver(name string) (station.Driver, error) {
	d := s.Board.Driver(name)
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSensor, name)
	}
	return d, nil
}

// Sensors lists the sensors on the board.
func (s *Shell) Sensors() []SensorStatus {
	names := s.Board.Names()
	out := make([]SensorStatus, len(names))
	for n, name := range names {
		out[n] = SensorStatus{Name: name, Ready: s.Board.Ready(name)}
	}
	return out
}

// Init initializes the named sensor, or the whole board with its
// post-init configuration when name is empty.
func (s *Shell) Init(name string) error {
	if name == "" {
		ctx, cancel := context.WithTimeout(context.Background(), s.Timeout*6)
		defer cancel()
		return s.Board.Init(ctx)
	}
	d, err := s.driver(name)
	if err != nil {
		return err
	}
	return s.wait(d.Init)
}

// ReadRegs reads count registers starting at reg.
func (s *Shell) ReadRegs(name string, reg byte, count int) (*Registers, error) {
	d, err := s.driver(name)
	if err != nil {
		return nil, err
	}
	out := &Registers{Sensor: name, Reg: reg}
	switch regs := d.(type) {
	case station.Registers8:
		out.Bytes = make([]byte, count)
		err = s.wait(func(cb sensor.Callback) error { return regs.Read(reg, out.Bytes, cb) })
	case station.Registers16:
		out.Words = make([]uint16, count)
		err = s.wait(func(cb sensor.Callback) error { return regs.Read(reg, out.Words, cb) })
	}
	return out, err
}

// WriteRegs writes values to registers starting at reg.
func (s *Shell) WriteRegs(name string, reg byte, values []uint64) error {
	d, err := s.driver(name)
	if err != nil {
		return err
	}
	switch regs := d.(type) {
	case station.Registers8:
		data := make([]byte, len(values))
		for n, v := range values {
			data[n] = byte(v)
		}
		return s.wait(func(cb sensor.Callback) error { return regs.Write(reg, data, cb) })
	case station.Registers16:
		data := make([]uint16, len(values))
		for n, v := range values {
			data[n] = uint16(v)
		}
		return s.wait(func(cb sensor.Callback) error { return regs.Write(reg, data, cb) })
	}
	return nil
}

// ModifyReg updates a register with (current & mask) | value.
func (s *Shell) ModifyReg(name string, reg byte, mask, value uint64) error {
	d, err := s.driver(name)
	if err != nil {
		return err
	}
	switch regs := d.(type) {
	case station.Registers8:
		return s.wait(func(cb sensor.Callback) error {
			return regs.ReadModifyWrite(reg, byte(mask), byte(value), cb)
		})
	case station.Registers16:
		return s.wait(func(cb sensor.Callback) error {
			return regs.ReadModifyWrite(reg, uint16(mask), uint16(value), cb)
		})
	}
	return nil
}

// ReadData runs DataRead on the named sensor.
func (s *Shell) ReadData(name string) (*Data, error) {
	d, err := s.driver(name)
	if err != nil {
		return nil, err
	}
	if err := s.wait(d.DataRead); err != nil {
		return nil, err
	}
	values, _ := s.Board.Values(name)
	return &Data{Sensor: name, Values: values}, nil
}

// WhoAmI reads the identification register of the named sensor.
func (s *Shell) WhoAmI(name string) (*Identity, error) {
	var (
		reg    byte
		count  int
		expect string
	)
	switch name {
	case station.Barometer:
		reg, count, expect = bmp180.RegID, 1, fmt.Sprintf("%02x", bmp180.ChipID)
	case station.Gyro:
		reg, count, expect = l3gd20h.RegWhoAmI, 1, fmt.Sprintf("%02x", l3gd20h.WhoAmIValue)
	case station.Thermopile:
		reg, count, expect = tmp006.RegMfgID, 2, fmt.Sprintf("%04x%04x", tmp006.MfgID, tmp006.DevID)
	case station.Mag:
		reg, count, expect = lsm303dlhc.RegIRA, 3, lsm303dlhc.MagIdentity
	default:
		if s.Board.Driver(name) == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSensor, name)
		}
		return nil, fmt.Errorf("%w: %s", ErrNoIdentity, name)
	}
	regs, err := s.ReadRegs(name, reg, count)
	if err != nil {
		return nil, err
	}
	id := &Identity{Sensor: name}
	switch {
	case name == station.Mag:
		id.ID = string(regs.Bytes)
	case regs.Words != nil:
		for _, w := range regs.Words {
			id.ID += fmt.Sprintf("%04x", w)
		}
	default:
		id.ID = fmt.Sprintf("%02x", regs.Bytes[0])
	}
	id.Match = id.ID == expect
	return id, nil
}

func parseNum(s string, bits int) (uint64, error) {
	return strconv.ParseUint(s, 0, bits)
}

// regArgs parses NAME REG and the numeric arguments after them.
func regArgs(c *ishell.Context, min int, names ...string) (string, byte, []uint64, bool) {
	if len(c.Args) < 2+min {
		c.Err(fmt.Errorf("%s required", strings.Join(append([]string{"NAME", "REG"}, names...), " ")))
		return "", 0, nil, false
	}
	reg, err := parseNum(c.Args[1], 8)
	if err != nil {
		c.Err(fmt.Errorf("invalid REG: %v", err))
		return "", 0, nil, false
	}
	var nums []uint64
	for _, arg := range c.Args[2:] {
		v, err := parseNum(arg, 16)
		if err != nil {
			c.Err(fmt.Errorf("invalid value %q: %v", arg, err))
			return "", 0, nil, false
		}
		nums = append(nums, v)
	}
	return c.Args[0], byte(reg), nums, true
}

func nameArg(c *ishell.Context) (string, bool) {
	if len(c.Args) < 1 {
		c.Err(fmt.Errorf("NAME required"))
		return "", false
	}
	return c.Args[0], true
}

var (
	// SensorsCmd lists the sensors.
	SensorsCmd = ishell.Cmd{
		Name:    "sensors",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			list := s.Sensors()
			if s.OutputJSON {
				s.Output(c, list)
				return
			}
			for _, st := range list {
				state := "not initialized"
				if st.Ready {
					state = "ready"
				}
				c.Printf("%s: %s\n", st.Name, state)
			}
		},
	}

	// InitCmd initializes one sensor or the whole board.
	InitCmd = ishell.Cmd{
		Name: "init",
		Help: "[NAME]",
		Func: func(c *ishell.Context) {
			var name string
			if len(c.Args) > 0 {
				name = c.Args[0]
			}
			if err := ShellFrom(c).Init(name); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	}

	// ReadCmd reads registers.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "NAME REG [COUNT]",
		Func: func(c *ishell.Context) {
			name, reg, nums, ok := regArgs(c, 0)
			if !ok {
				return
			}
			count := 1
			if len(nums) > 0 {
				count = int(nums[0])
			}
			s := ShellFrom(c)
			regs, err := s.ReadRegs(name, reg, count)
			if err != nil {
				c.Err(err)
				return
			}
			s.Output(c, regs)
		},
	}

	// WriteCmd writes registers.
	WriteCmd = ishell.Cmd{
		Name:    "write",
		Aliases: []string{"w"},
		Help:    "NAME REG VALUE...",
		Func: func(c *ishell.Context) {
			name, reg, nums, ok := regArgs(c, 1, "VALUE")
			if !ok {
				return
			}
			if err := ShellFrom(c).WriteRegs(name, reg, nums); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	}

	// RMWCmd modifies a register.
	RMWCmd = ishell.Cmd{
		Name: "rmw",
		Help: "NAME REG MASK VALUE",
		Func: func(c *ishell.Context) {
			name, reg, nums, ok := regArgs(c, 2, "MASK", "VALUE")
			if !ok {
				return
			}
			if err := ShellFrom(c).ModifyReg(name, reg, nums[0], nums[1]); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	}

	// DataCmd reads converted data.
	DataCmd = ishell.Cmd{
		Name:    "data",
		Aliases: []string{"d"},
		Help:    "NAME",
		Func: func(c *ishell.Context) {
			name, ok := nameArg(c)
			if !ok {
				return
			}
			s := ShellFrom(c)
			data, err := s.ReadData(name)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				s.Output(c, data)
				return
			}
			c.Printf("%s: %g %g %g\n", data.Sensor, data.Values[0], data.Values[1], data.Values[2])
		},
	}

	// WhoAmICmd checks the identification register.
	WhoAmICmd = ishell.Cmd{
		Name: "whoami",
		Help: "NAME",
		Func: func(c *ishell.Context) {
			name, ok := nameArg(c)
			if !ok {
				return
			}
			s := ShellFrom(c)
			id, err := s.WhoAmI(name)
			if err != nil {
				c.Err(err)
				return
			}
			s.Output(c, id)
		},
	}
)
