package i2c

import "fmt"

// Status is the completion status of a transaction.
type Status byte

// Completion statuses reported by engines.
const (
	StatusSuccess Status = iota
	StatusAddrNack
	StatusDataNack
	StatusArbLost
	StatusError
	StatusBatchDone
	StatusBatchReady
)

var statusNames = [...]string{
	"success",
	"address nack",
	"data nack",
	"arbitration lost",
	"error",
	"batch done",
	"batch ready",
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", byte(s))
}

// OK indicates the transaction succeeded.
func (s Status) OK() bool {
	return s == StatusSuccess
}

// Err converts the status into an error, nil on success.
func (s Status) Err() error {
	if s.OK() {
		return nil
	}
	return &TxError{Status: s}
}

// Completion is notified when a submitted transaction finishes.
type Completion interface {
	Complete(Status)
}

// CompleteFunc is func form of Completion.
type CompleteFunc func(Status)

// Complete implements Completion.
func (f CompleteFunc) Complete(s Status) {
	f(s)
}

// Engine is an asynchronous I2C master.
//
// A nil error means the transaction is accepted and done will be
// invoked exactly once when it finishes. A non-nil error means the
// transaction is rejected and done is never invoked.
type Engine interface {
	// Read writes wbuf and then reads len(rbuf) bytes into rbuf.
	Read(addr byte, wbuf, rbuf []byte, done Completion) error
	// Write writes buf.
	Write(addr byte, buf []byte, done Completion) error
}

// QueueDepth is the number of transactions an engine is expected to
// hold before rejecting new ones.
const QueueDepth = 10
