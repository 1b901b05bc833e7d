package framework

import (
	"context"
	"time"
)

// Named is implemented by things with a name.
type Named interface {
	Name() string
}

// Runnable is a background worker.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Message is collected by the loop and handed to controllers in the
// next iteration.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller runs once per loop iteration at its priority level.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// ControlContext is the view of the current iteration given to
// controllers.
type ControlContext interface {
	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	PriorityLevel() int
	// Messages holds the messages posted before this iteration started.
	Messages() MessageStore
	// PostRun installs one-shot hooks running after the controllers of
	// the current level. Hooks installed by a post-run hook run in the
	// next iteration.
	PostRun(hooks ...Controller)

	LoopControl
}

// PriorityLevels is the number of priority levels. Level 0 runs first.
const PriorityLevels int = 16

// Predefined priority levels.
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvSense is where samplers start sensor reads.
	PrLvSense = PrLvHigh
	// PrLvControl is where samples are fused.
	PrLvControl = PrLvNormal
	// PrLvAcuate is for components driving outputs.
	PrLvAcuate = PrLvLow
	// PrLvPostProc is where results are published.
	PrLvPostProc = PrLvIdle - 1
)

// LoopControl is the part of the loop safe to use from any goroutine.
type LoopControl interface {
	PreRunAt(priorityLevel int, hooks ...Controller)
	PostRunAt(priorityLevel int, hooks ...Controller)
	// PostMessage queues a message for the next iteration.
	PostMessage(Message)
	// TriggerNext runs the next iteration without waiting for the tick.
	TriggerNext()
}

// MessageStore gives controllers access to the messages of an iteration.
type MessageStore interface {
	// ProcessMessages visits the messages in posting order.
	ProcessMessages(MessageProcessor)
	MessageAppender
}

// MessageAppender appends messages visible to later controllers of the
// same iteration.
type MessageAppender interface {
	AddMessages(msgs ...Message)
}

// MessageProcessor visits a message.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext is the state of a single visit.
type MessageProcessingContext interface {
	CurrentMessage() Message
	// MessageTaken removes the message from the store.
	MessageTaken()
	// StopProcessing ends the visit after the current message.
	StopProcessing()

	MessageAppender
}
