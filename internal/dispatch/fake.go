package dispatch

import (
	"context"
	"sync"
)

// FakeTransport records commands for test assertions.
type FakeTransport struct {
	mu sync.Mutex

	// Sent contains every command passed to Send, in order, including failed ones.
	Sent []string

	// Errors maps a command to the error Send returns for it.
	Errors map[string]error
}

// NewFakeTransport creates a FakeTransport for testing.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{Errors: make(map[string]error)}
}

// Send records the command and returns its scripted error, if any.
func (f *FakeTransport) Send(ctx context.Context, command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, command)
	return f.Errors[command]
}

// Commands returns a copy of the sent commands.
func (f *FakeTransport) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Sent...)
}

// Fail makes every future Send of command return err.
func (f *FakeTransport) Fail(command string, err error) {
	f.mu.Lock()
	f.Errors[command] = err
	f.mu.Unlock()
}

// Reset clears recorded commands and scripted errors.
func (f *FakeTransport) Reset() {
	f.mu.Lock()
	f.Sent = nil
	f.Errors = make(map[string]error)
	f.mu.Unlock()
}
