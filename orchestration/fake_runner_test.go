package orchestration

import (
	"context"
	"errors"
	"sync"
)

type fakeRunner struct {
	lock     sync.Mutex
	commands []string
	outputs  map[string]string
	failing  map[string]bool
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outputs: make(map[string]string), failing: make(map[string]bool)}
}

func (f *fakeRunner) Run(_ context.Context, cmd Command) (*Result, error) {
	line := cmd.String()
	f.lock.Lock()
	defer f.lock.Unlock()
	f.commands = append(f.commands, line)
	if f.failing[line] {
		return &Result{ExitCode: 1}, errors.New("exit code 1")
	}
	return &Result{Stdout: []byte(f.outputs[line])}, nil
}

func (f *fakeRunner) ran() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.commands...)
}
