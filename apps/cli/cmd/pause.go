package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
)

// readlinePauser waits for Enter on the terminal between the forward pass
// and cleanup.
type readlinePauser struct {
	prompt string
	out    io.Writer
}

func newReadlinePauser() *readlinePauser {
	return &readlinePauser{
		prompt: "Paused before cleanup. Press Enter to continue... ",
		out:    os.Stderr,
	}
}

func (p *readlinePauser) Pause(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          p.prompt,
		InterruptPrompt: "^C",
		Stdout:          p.out,
		Stderr:          p.out,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	done := make(chan error, 1)
	go func() {
		_, err := rl.Readline()
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil || errors.Is(err, io.EOF) {
			return nil
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
