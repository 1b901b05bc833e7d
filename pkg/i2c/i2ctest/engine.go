// Package i2ctest provides a scriptable i2c.Engine for tests.
package i2ctest

import (
	"sync"

	"github.com/robotalks/sensorlib.go/pkg/i2c"
)

// Transaction is a submitted transaction.
type Transaction struct {
	Addr  byte
	Write []byte
	// Read is the destination buffer, nil for pure writes.
	Read []byte
	Done i2c.Completion
}

// IsRead indicates the transaction reads back data.
func (t *Transaction) IsRead() bool {
	return t.Read != nil
}

// Engine queues submitted transactions until the test completes them.
type Engine struct {
	// Reject is returned by Read/Write when set.
	Reject error

	lock    sync.Mutex
	pending []*Transaction
	history []*Transaction
}

// Read implements i2c.Engine.
func (e *Engine) Read(addr byte, wbuf, rbuf []byte, done i2c.Completion) error {
	if len(rbuf) == 0 {
		return i2c.ErrInvalidArgument
	}
	return e.submit(&Transaction{
		Addr:  addr,
		Write: append([]byte(nil), wbuf...),
		Read:  rbuf,
		Done:  done,
	})
}

// Write implements i2c.Engine.
func (e *Engine) Write(addr byte, buf []byte, done i2c.Completion) error {
	if len(buf) == 0 {
		return i2c.ErrInvalidArgument
	}
	return e.submit(&Transaction{
		Addr:  addr,
		Write: append([]byte(nil), buf...),
		Done:  done,
	})
}

func (e *Engine) submit(tx *Transaction) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.Reject != nil {
		return e.Reject
	}
	e.pending = append(e.pending, tx)
	e.history = append(e.history, tx)
	return nil
}

// Pending returns the number of transactions not completed.
func (e *Engine) Pending() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.pending)
}

// Next returns the oldest pending transaction without completing it.
func (e *Engine) Next() *Transaction {
	e.lock.Lock()
	defer e.lock.Unlock()
	if len(e.pending) == 0 {
		return nil
	}
	return e.pending[0]
}

// History returns all accepted transactions in submission order.
func (e *Engine) History() []*Transaction {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]*Transaction(nil), e.history...)
}

// Complete completes the oldest pending transaction with status.
func (e *Engine) Complete(s i2c.Status) *Transaction {
	tx := e.pop()
	if tx != nil {
		tx.Done.Complete(s)
	}
	return tx
}

// CompleteWith fills the read buffer of the oldest pending transaction
// with data and completes it successfully.
func (e *Engine) CompleteWith(data ...byte) *Transaction {
	tx := e.pop()
	if tx != nil {
		copy(tx.Read, data)
		tx.Done.Complete(i2c.StatusSuccess)
	}
	return tx
}

// Fail completes the oldest pending transaction with a failure status.
func (e *Engine) Fail(s i2c.Status) *Transaction {
	return e.Complete(s)
}

func (e *Engine) pop() *Transaction {
	e.lock.Lock()
	defer e.lock.Unlock()
	if len(e.pending) == 0 {
		return nil
	}
	tx := e.pending[0]
	e.pending = e.pending[1:]
	return tx
}
