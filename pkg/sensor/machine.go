package sensor

import (
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/sensorlib.go/pkg/i2c"
)

// State is the state of a driver's transaction sequence.
type State uint8

// Common states shared by all drivers.
const (
	StateIdle State = iota
	StateInit
	StateRead
	StateWrite
	StateRMW
	// StateUser is the first state available for driver specific sequences.
	StateUser
)

// Callback is invoked once when an accepted operation finishes.
type Callback func(i2c.Status)

// Submit submits the next transaction of a sequence. An error aborts the
// sequence and the operation completes with i2c.StatusError.
type Submit func() error

// Stepper advances the driver specific part of a sequence.
type Stepper interface {
	// Step is called after the transaction issued in state completed
	// successfully. It returns the next state and the transaction to
	// submit for it, or StateIdle and nil when the sequence is finished.
	Step(state State) (State, Submit)
}

// StepFunc is func form of Stepper.
type StepFunc func(State) (State, Submit)

// Step implements Stepper.
func (f StepFunc) Step(state State) (State, Submit) {
	return f(state)
}

// Machine is the transaction state machine embedded by drivers.
// At most one operation is in flight at any time.
type Machine struct {
	Engine  i2c.Engine
	Addr    byte
	Name    string
	Stepper Stepper

	lock     sync.Mutex
	state    State
	callback Callback
}

// Setup binds the machine to an engine and a bus address.
func (m *Machine) Setup(name string, engine i2c.Engine, addr byte, stepper Stepper) {
	m.Name, m.Engine, m.Addr, m.Stepper = name, engine, addr, stepper
}

// State returns the current state.
func (m *Machine) State() State {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state
}

// Idle indicates no operation is in flight.
func (m *Machine) Idle() bool {
	return m.State() == StateIdle
}

// Start accepts a new operation entering state and submits its first
// transaction. ErrBusy is returned without side effects if an operation
// is in flight. If submit fails the machine returns to idle and the
// callback is never invoked.
func (m *Machine) Start(state State, cb Callback, submit Submit) error {
	m.lock.Lock()
	if m.state != StateIdle {
		m.lock.Unlock()
		return ErrBusy
	}
	m.state, m.callback = state, cb
	m.lock.Unlock()

	if err := submit(); err != nil {
		m.lock.Lock()
		m.state, m.callback = StateIdle, nil
		m.lock.Unlock()
		glog.V(2).Infof("%s: submit rejected: %v", m.Name, err)
		return err
	}
	return nil
}

// Complete implements i2c.Completion.
func (m *Machine) Complete(status i2c.Status) {
	m.lock.Lock()
	state := m.state
	m.lock.Unlock()

	if status.OK() && state != StateIdle && m.Stepper != nil {
		if next, submit := m.Stepper.Step(state); next != StateIdle && submit != nil {
			m.lock.Lock()
			m.state = next
			m.lock.Unlock()
			err := submit()
			if err == nil {
				return
			}
			glog.Warningf("%s: sequence aborted in state %d: %v", m.Name, next, err)
			status = i2c.StatusError
		}
	} else if !status.OK() {
		glog.V(2).Infof("%s: %s in state %d", m.Name, status, state)
	}

	m.lock.Lock()
	cb := m.callback
	m.state, m.callback = StateIdle, nil
	m.lock.Unlock()
	if cb != nil {
		cb(status)
	}
}

// Finish completes an operation which didn't need bus traffic, invoking
// cb synchronously with success.
func (m *Machine) Finish(cb Callback) error {
	if !m.Idle() {
		return ErrBusy
	}
	if cb != nil {
		cb(i2c.StatusSuccess)
	}
	return nil
}

// Read reads len(data) bytes starting at reg into data.
func (m *Machine) Read(reg byte, data []byte, cb Callback) error {
	return m.Start(StateRead, cb, func() error {
		return m.Engine.Read(m.Addr, []byte{reg}, data, m)
	})
}

// Write8 writes data to consecutive 8-bit registers starting at reg.
// stage is called once the operation is accepted and before submission.
func (m *Machine) Write8(reg byte, data []byte, stage func(), cb Callback) error {
	return m.Start(StateWrite, cb, func() error {
		if stage != nil {
			stage()
		}
		return i2c.Write8(m.Engine, m.Addr, reg, data, m)
	})
}

// ReadModifyWrite8 updates an 8-bit register. The sequence is stored in
// *out before submission so the stepper can inspect what was written.
func (m *Machine) ReadModifyWrite8(reg, mask, value byte, out **i2c.Modify, cb Callback) error {
	return m.Start(StateRMW, cb, func() error {
		*out = i2c.NewModify8(reg, mask, value)
		return (*out).Start(m.Engine, m.Addr, m)
	})
}

// Read16BE reads big-endian 16-bit registers starting at reg.
func (m *Machine) Read16BE(reg byte, data []uint16, cb Callback) error {
	return m.Start(StateRead, cb, func() error {
		return i2c.Read16BE(m.Engine, m.Addr, reg, data, m)
	})
}

// Write16BE writes big-endian 16-bit registers starting at reg.
func (m *Machine) Write16BE(reg byte, data []uint16, stage func(), cb Callback) error {
	return m.Start(StateWrite, cb, func() error {
		if stage != nil {
			stage()
		}
		return i2c.Write16BE(m.Engine, m.Addr, reg, data, m)
	})
}

// ReadModifyWrite16BE updates a big-endian 16-bit register.
func (m *Machine) ReadModifyWrite16BE(reg byte, mask, value uint16, out **i2c.Modify, cb Callback) error {
	return m.Start(StateRMW, cb, func() error {
		*out = i2c.NewModify16BE(reg, mask, value)
		return (*out).Start(m.Engine, m.Addr, m)
	})
}
