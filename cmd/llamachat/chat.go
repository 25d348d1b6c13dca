package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"llamachat/internal/coordinator"
)

func newChatCmd(opts *options) *cobra.Command {
	var welcome string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the model in the terminal",
		Long:  "Line-based chat. Commands: /status, /reset, /quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel, true)
			a, err := buildApp(cfg, log, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runChat(ctx, a, welcome, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&welcome, "welcome", "", "Assistant greeting shown at start")
	return cmd
}

// waitLoadSettled blocks while a load (usually the auto-load) is pending.
// It never starts a load itself.
func waitLoadSettled(ctx context.Context, c *coordinator.Coordinator, out io.Writer) error {
	snaps, cancel := c.Subscribe()
	defer cancel()
	if !c.IsLoading() {
		return nil
	}
	fmt.Fprintln(out, "[Loading model...]")
	for {
		select {
		case s, ok := <-snaps:
			if !ok || !s.Loading {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runChat reads one user turn per line from in until EOF, /quit or ctx ends.
func runChat(ctx context.Context, a *app, welcome string, in io.Reader, out io.Writer) error {
	a.session.Start(welcome)
	for _, m := range a.session.Messages() {
		fmt.Fprintf(out, "%s> %s\n", m.Role, m.Content)
	}
	if err := waitLoadSettled(ctx, a.coord, out); err != nil {
		return nil
	}
	if err := a.coord.Err(); err != nil && !a.coord.IsReady() {
		fmt.Fprintf(out, "[%s] %v\n", a.session.StatusText(), err)
	} else {
		fmt.Fprintf(out, "[%s]\n", a.session.StatusText())
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
			if !ok {
				return nil
			}
		}
		switch strings.TrimSpace(line) {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/status":
			fmt.Fprintf(out, "[%s]\n", a.session.StatusText())
			continue
		case "/reset":
			a.session.Start(welcome)
			fmt.Fprintf(out, "assistant> %s\n", a.session.Messages()[0].Content)
			continue
		}
		reply, err := a.session.Send(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "[error] %v\n", err)
			continue
		}
		if reply != "" {
			fmt.Fprintf(out, "assistant> %s\n", reply)
		}
	}
}
