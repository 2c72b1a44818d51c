package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ReferenceEnv carries the reference text to plugin processes.
const ReferenceEnv = "CHATSEEK_REFERENCE"

const defaultExecTimeout = 60 * time.Second

// Exec runs an external plugin command. The plugin is invoked as
//
//	<command> <args...> tests           list tests as a JSON array
//	<command> <args...> run <test-id>   score stdin, print {"score", "details"}
//
// Reference text is passed through the CHATSEEK_REFERENCE variable.
type Exec struct {
	Command string
	Args    []string
	Timeout time.Duration
}

func (e Exec) command(ctx context.Context, stdin string, reference string, args ...string) ([]byte, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = defaultExecTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	full := append(append([]string(nil), e.Args...), args...)
	cmd := exec.CommandContext(ctx, e.Command, full...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), ReferenceEnv+"="+reference)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s %s: %w", e.Command, strings.Join(args, " "), err)
		}
		return nil, fmt.Errorf("%s %s: %w: %s", e.Command, strings.Join(args, " "), err, msg)
	}
	return stdout.Bytes(), nil
}

// ListTests asks the plugin for its tests.
func (e Exec) ListTests(ctx context.Context) ([]Test, error) {
	out, err := e.command(ctx, "", "", "tests")
	if err != nil {
		return nil, err
	}
	var tests []Test
	if err := json.Unmarshal(out, &tests); err != nil {
		return nil, fmt.Errorf("decode plugin tests: %w", err)
	}
	return tests, nil
}

// Test binds the plugin to one test id.
func (e Exec) Test(id string) Classifier {
	return execTest{exec: e, id: id}
}

type execTest struct {
	exec Exec
	id   string
}

func (t execTest) Classify(ctx context.Context, text, reference string) (Result, error) {
	out, err := t.exec.command(ctx, text, reference, "run", t.id)
	if err != nil {
		return Result{}, err
	}
	var res Result
	if err := json.Unmarshal(out, &res); err != nil {
		return Result{}, fmt.Errorf("decode plugin result: %w", err)
	}
	return res, nil
}

// NewExecRegistry lists the plugin's tests and registers each of them. An
// empty command yields the Unavailable registry.
func NewExecRegistry(ctx context.Context, command string, args []string) (*Registry, error) {
	if strings.TrimSpace(command) == "" {
		return Unavailable(), nil
	}

	e := Exec{Command: command, Args: args}
	tests, err := e.ListTests(ctx)
	if err != nil {
		return Unavailable(), err
	}

	r := NewRegistry(command)
	for _, t := range tests {
		if strings.TrimSpace(t.ID) == "" {
			continue
		}
		if t.Name == "" {
			t.Name = t.ID
		}
		r.Register(t, e.Test(t.ID))
	}
	return r, nil
}
