package framework

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the iteration period when Loop.Interval is zero.
const DefaultInterval = 100 * time.Millisecond

// Loop runs controllers periodically, level by level.
type Loop struct {
	Interval time.Duration
	// Ticks replaces the interval ticker when set.
	Ticks <-chan time.Time

	levels  [PriorityLevels]level
	runners []Runnable

	lock  sync.Mutex
	inbox []Message

	wakeOnce   sync.Once
	wakeUpCh   chan struct{}
	iterations uint64
}

// LoopAdder installs its controllers and runners into a loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type level struct {
	lock        sync.Mutex
	preHooks    []Controller
	controllers []Controller
	postHooks   []Controller
}

type loopCtxKey struct{}

// LoopControlFrom returns the LoopControl of the loop running the
// Runnable that received ctx.
func LoopControlFrom(ctx context.Context) LoopControl {
	ctl, _ := ctx.Value(loopCtxKey{}).(LoopControl)
	return ctl
}

// NewLoop creates a Loop with DefaultInterval.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add calls AddToLoop on each adder.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level. Controllers
// that are also Runnable are started with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	lv := &l.levels[priorityLevel]
	lv.lock.Lock()
	lv.controllers = append(lv.controllers, ctls...)
	lv.lock.Unlock()
	for _, ctl := range ctls {
		if r, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, r)
		}
	}
	return l
}

// AddRunnable registers workers started with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Iterations returns the number of completed iterations.
func (l *Loop) Iterations() uint64 {
	return atomic.LoadUint64(&l.iterations)
}

func (l *Loop) wakeUp() chan struct{} {
	l.wakeOnce.Do(func() { l.wakeUpCh = make(chan struct{}, 1) })
	return l.wakeUpCh
}

// Run starts the runners and iterates until ctx is done. It waits for
// the runners before returning.
func (l *Loop) Run(ctx context.Context) error {
	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey{}, LoopControl(l)))
	runner.Go(l.runners...)
	defer func() {
		if err := runner.Wait(); err != nil {
			glog.Errorf("loop runners: %v", err)
		}
	}()

	ticks := l.Ticks
	if ticks == nil {
		interval := l.Interval
		if interval <= 0 {
			interval = DefaultInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		ticks = ticker.C
	}
	wakeUpCh := l.wakeUp()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticks:
		case <-wakeUpCh:
		}
		l.iterate(ctx)
	}
}

// RunOrFail runs the loop in main and exits on error.
func (l *Loop) RunOrFail() {
	if err := l.Run(context.Background()); err != nil {
		glog.Fatal(err)
	}
}

// PreRunAt implements LoopControl.
func (l *Loop) PreRunAt(priorityLevel int, hooks ...Controller) {
	lv := &l.levels[priorityLevel]
	lv.lock.Lock()
	lv.preHooks = append(lv.preHooks, hooks...)
	lv.lock.Unlock()
}

// PostRunAt implements LoopControl.
func (l *Loop) PostRunAt(priorityLevel int, hooks ...Controller) {
	lv := &l.levels[priorityLevel]
	lv.lock.Lock()
	lv.postHooks = append(lv.postHooks, hooks...)
	lv.lock.Unlock()
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.inbox = append(l.inbox, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUp() <- struct{}{}:
	default:
	}
}

func (l *Loop) iterate(ctx context.Context) {
	it := &iteration{Loop: l, time: time.Now()}
	l.lock.Lock()
	it.messages, l.inbox = l.inbox, nil
	l.lock.Unlock()
	it.ctx = context.WithValue(ctx, loopCtxKey{}, LoopControl(l))
	for n := range l.levels {
		it.priorityLevel = n
		l.levels[n].run(it)
	}
	atomic.AddUint64(&l.iterations, 1)
}

func (lv *level) run(it *iteration) {
	lv.lock.Lock()
	pre := lv.preHooks
	lv.preHooks = nil
	ctls := lv.controllers
	lv.lock.Unlock()
	it.control(pre)
	it.control(ctls)

	lv.lock.Lock()
	post := lv.postHooks
	lv.postHooks = nil
	lv.lock.Unlock()
	it.control(post)
}

type iteration struct {
	*Loop
	ctx           context.Context
	time          time.Time
	priorityLevel int
	messages      []Message
}

func (it *iteration) control(ctls []Controller) {
	for _, ctl := range ctls {
		if err := ctl.Control(it); err != nil {
			glog.Errorf("controller at level %d: %v", it.priorityLevel, err)
		}
	}
}

func (it *iteration) Context() context.Context { return it.ctx }
func (it *iteration) Time() time.Time          { return it.time }
func (it *iteration) PriorityLevel() int       { return it.priorityLevel }
func (it *iteration) Messages() MessageStore   { return it }

func (it *iteration) PostRun(hooks ...Controller) {
	it.PostRunAt(it.priorityLevel, hooks...)
}

func (it *iteration) AddMessages(msgs ...Message) {
	it.messages = append(it.messages, msgs...)
}

func (it *iteration) ProcessMessages(proc MessageProcessor) {
	msgs := it.messages
	it.messages = nil
	remains := make([]Message, 0, len(msgs))
	for n, msg := range msgs {
		mc := &messageVisit{it: it, msg: msg}
		proc.ProcessMessage(mc)
		if !mc.taken {
			remains = append(remains, msg)
		}
		if mc.stop {
			remains = append(remains, msgs[n+1:]...)
			break
		}
	}
	// messages added while visiting go after the survivors
	it.messages = append(remains, it.messages...)
}

type messageVisit struct {
	it    *iteration
	msg   Message
	taken bool
	stop  bool
}

func (v *messageVisit) CurrentMessage() Message     { return v.msg }
func (v *messageVisit) MessageTaken()               { v.taken = true }
func (v *messageVisit) StopProcessing()             { v.stop = true }
func (v *messageVisit) AddMessages(msgs ...Message) { v.it.AddMessages(msgs...) }
