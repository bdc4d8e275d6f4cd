// Package testing provides test doubles for the dispatch package.
package testing

import (
	"context"
	"sync"
)

// FakeExecutor records the commands it is asked to run instead of running them.
type FakeExecutor struct {
	mu sync.Mutex

	// ExitCode is returned for every run; ExitCodes overrides it per binary.
	ExitCode  int
	ExitCodes map[string]int
	Err       error

	Calls [][]string
}

// NewFakeExecutor returns an executor whose commands all succeed.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{ExitCodes: make(map[string]int)}
}

// Run implements dispatch.Executor.
func (e *FakeExecutor) Run(ctx context.Context, argv []string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Calls = append(e.Calls, append([]string(nil), argv...))
	if e.Err != nil {
		return -1, e.Err
	}
	if len(argv) > 0 {
		if code, ok := e.ExitCodes[argv[0]]; ok {
			return code, nil
		}
	}
	return e.ExitCode, nil
}

// Last returns the most recent command, or nil.
func (e *FakeExecutor) Last() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Calls) == 0 {
		return nil
	}
	return e.Calls[len(e.Calls)-1]
}

// CallCount returns how many commands were run.
func (e *FakeExecutor) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Calls)
}
