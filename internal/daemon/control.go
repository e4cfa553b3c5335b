package daemon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrControlStopped is returned when a call is submitted after Stop.
var ErrControlStopped = errors.New("control loop stopped")

const (
	commandPending int32 = iota
	commandRunning
	commandAbandoned
)

type command struct {
	fn       func()
	state    atomic.Int32
	finished chan struct{}
}

// Control runs submitted closures one at a time on a dedicated goroutine.
type Control struct {
	cmds chan *command
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// NewControl starts the control goroutine.
func NewControl(buffer int) *Control {
	if buffer < 0 {
		buffer = 0
	}
	c := &Control{
		cmds: make(chan *command, buffer),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go c.loop()
	return c
}

func (c *Control) loop() {
	defer close(c.done)
	for {
		select {
		case cmd := <-c.cmds:
			c.run(cmd)
		case <-c.quit:
			return
		}
	}
}

func (c *Control) run(cmd *command) {
	defer close(cmd.finished)
	if !cmd.state.CompareAndSwap(commandPending, commandRunning) {
		return
	}
	cmd.fn()
}

// Do runs fn on the control goroutine and waits for it. A call that has not
// started when ctx ends is abandoned; one that has started runs to completion.
func (c *Control) Do(ctx context.Context, fn func()) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := &command{fn: fn, finished: make(chan struct{})}
	select {
	case c.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrControlStopped
	}

	select {
	case <-cmd.finished:
		return nil
	case <-ctx.Done():
		if cmd.state.CompareAndSwap(commandPending, commandAbandoned) {
			return ctx.Err()
		}
	case <-c.done:
		if cmd.state.CompareAndSwap(commandPending, commandAbandoned) {
			return ErrControlStopped
		}
	}
	<-cmd.finished
	return nil
}

// Stop ends the loop after the running closure, if any, returns. Queued
// closures are abandoned.
func (c *Control) Stop() {
	c.once.Do(func() { close(c.quit) })
	<-c.done
}
