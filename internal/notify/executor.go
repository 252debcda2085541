package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Executor runs hooks as subprocesses with a timeout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates a new Executor with the given per-hook timeout.
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{timeout: timeout}
}

// Execute runs a hook with the event as JSON on stdin and parses stdout as a Response.
func (e *Executor) Execute(ctx context.Context, hook *Hook, ev Event) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, hook.Executable)
	cmd.Dir = hook.Path
	cmd.WaitDelay = time.Second

	reqJSON, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("hook %s timeout after %s", hook.Manifest.Name, e.timeout)
	}

	if err != nil {
		if s := stderr.String(); s != "" {
			return nil, fmt.Errorf("hook %s failed: %w, stderr: %s", hook.Manifest.Name, err, s)
		}
		return nil, fmt.Errorf("hook %s failed: %w", hook.Manifest.Name, err)
	}

	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse hook response: %w, stdout: %s", err, stdout.String())
	}

	return &response, nil
}

// HookNotifier runs every discovered hook subscribed to an event.
type HookNotifier struct {
	manager  *Manager
	executor *Executor
}

// NewHookNotifier creates a Notifier backed by subprocess hooks.
func NewHookNotifier(m *Manager, e *Executor) *HookNotifier {
	return &HookNotifier{manager: m, executor: e}
}

// Notify runs the subscribed hooks in name order and joins their failures.
func (n *HookNotifier) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, hook := range n.manager.ForEvent(ev.Name) {
		resp, err := n.executor.Execute(ctx, hook, ev)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !resp.Success {
			errs = append(errs, fmt.Errorf("hook %s: %s", hook.Manifest.Name, resp.Error))
		}
	}
	return errors.Join(errs...)
}
