// Package teatest drives bubbletea models synchronously in tests.
//
// Update is called directly and returned Cmds are executed and fed back
// until none remain. Cmds that do not return within the driver's timeout
// (spinner ticks, cursor blinks) are dropped.
package teatest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// MaxDrainDepth bounds command chains so a self-rescheduling Cmd cannot
// loop forever.
const MaxDrainDepth = 100

// DefaultCmdTimeout separates immediate Cmds from timer-driven ones.
const DefaultCmdTimeout = 20 * time.Millisecond

// Driver is a synchronous harness for any tea.Model.
type Driver struct {
	T     *testing.T
	Model tea.Model

	// Quitting is set once tea.QuitMsg is produced.
	Quitting bool

	cmdTimeout time.Duration
}

type Option func(*Driver)

// WithSize sends a WindowSizeMsg before anything else.
func WithSize(w, h int) Option {
	return func(d *Driver) {
		d.Model, _ = d.Model.Update(tea.WindowSizeMsg{Width: w, Height: h})
	}
}

// WithCmdTimeout overrides DefaultCmdTimeout.
func WithCmdTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		d.cmdTimeout = timeout
	}
}

// New creates a Driver. Call DrainInit to run the model's Init.
func New(t *testing.T, model tea.Model, opts ...Option) *Driver {
	t.Helper()
	d := &Driver{T: t, Model: model, cmdTimeout: DefaultCmdTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) DrainInit() {
	d.T.Helper()
	d.drain(d.Model.Init(), 0)
}

// Send dispatches msg through Update and drains the resulting Cmds.
func (d *Driver) Send(msg tea.Msg) {
	d.T.Helper()
	if d.Quitting {
		return
	}
	var cmd tea.Cmd
	d.Model, cmd = d.Model.Update(msg)
	d.drain(cmd, 0)
}

// PressKey sends a rune key.
func (d *Driver) PressKey(r rune) {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

func (d *Driver) PressEnter() {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyEnter})
}

func (d *Driver) PressEsc() {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyEsc})
}

func (d *Driver) PressTab() {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyTab})
}

func (d *Driver) PressShiftTab() {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyShiftTab})
}

func (d *Driver) PressCtrlC() {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
}

// Type sends s one rune at a time.
func (d *Driver) Type(s string) {
	d.T.Helper()
	for _, r := range s {
		d.PressKey(r)
	}
}

func (d *Driver) View() string {
	return d.Model.View()
}

func (d *Driver) drain(cmd tea.Cmd, depth int) {
	d.T.Helper()
	if cmd == nil {
		return
	}
	if depth >= MaxDrainDepth {
		d.T.Logf("teatest: drain depth limit (%d) reached", MaxDrainDepth)
		return
	}

	msg := d.exec(cmd)
	if msg == nil || isTimerMsg(msg) {
		return
	}

	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, sub := range msg {
			d.drain(sub, depth+1)
		}
		return
	case tea.QuitMsg:
		d.Quitting = true
		d.Model, _ = d.Model.Update(msg)
		return
	}

	var next tea.Cmd
	d.Model, next = d.Model.Update(msg)
	d.drain(next, depth+1)
}

// exec runs cmd and returns its message, or nil if it did not return in
// time. A Cmd that times out keeps running in its goroutine.
func (d *Driver) exec(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(d.cmdTimeout):
		return nil
	}
}

// isTimerMsg matches bubbles' unexported blink and tick messages, which
// would otherwise reschedule themselves indefinitely.
func isTimerMsg(msg tea.Msg) bool {
	t := fmt.Sprintf("%T", msg)
	return strings.Contains(t, "Blink") || strings.Contains(t, "blink") || strings.HasSuffix(t, "TickMsg")
}
