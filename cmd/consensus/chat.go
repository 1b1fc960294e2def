package main

import (
	"bufio"
	"consensus-chat/auth"
	"consensus-chat/domain"
	"consensus-chat/internal"
	"consensus-chat/runtime"
	"consensus-chat/search"
	"consensus-chat/transport"
	"consensus-chat/ui"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var (
		room     string
		token    string
		origin   string
		noColour bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join a room from the terminal",
		RunE: wrap(func(cmd *cobra.Command, _ []string) (int, error) {
			var config internal.ClientConfig
			if err := internal.Load(&config, envFiles()...); err != nil {
				return exitConfig, err
			}
			if room != "" {
				config.RoomID = room
			}
			if token != "" {
				config.Token = token
			}
			if origin != "" {
				config.APIOrigin = origin
			}
			return chat(cmd.Context(), config, cmd.InOrStdin(), cmd.OutOrStdout(), !noColour)
		}),
	}
	cmd.Flags().StringVar(&room, "room", "", "room to join (CHAT_ROOM_ID)")
	cmd.Flags().StringVar(&token, "token", "", "room credential (CHAT_TOKEN)")
	cmd.Flags().StringVar(&origin, "origin", "", "REST origin of the chat API (CHAT_API_ORIGIN)")
	cmd.Flags().BoolVar(&noColour, "no-colour", false, "disable colours")
	return cmd
}

func chat(ctx context.Context, config internal.ClientConfig, in io.Reader, out io.Writer, colours bool) (int, error) {
	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	index, err := search.NewIndex(logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open search index: %w", err)
	}
	defer func() { _ = index.Close() }()

	manager := runtime.NewConnectionManager(logger, transport.NewWebSocketDialer(config.APIOrigin, config.DialTimeout), config.APIOrigin)
	facade := runtime.NewFacade(logger, manager)
	defer facade.Close()

	terminal := ui.NewTerminal(out, colours)
	unsubscribe := facade.Subscribe(func(s domain.Session) {
		terminal.Render(s)
		if err := index.Sync(s); err != nil {
			logger.Warn("Search index out of sync", "error", err)
		}
	})
	defer unsubscribe()

	if name := lo.CoalesceOrEmpty(config.UserName, auth.UserFromCredential(config.Token)); name != "" {
		terminal.Notice("Signed in as %s", name)
	}
	session := &chatSession{facade: facade, index: index, terminal: terminal, credential: config.Token}
	if config.RoomID != "" {
		if err := session.selectRoom(ctx, domain.RoomID(config.RoomID)); err != nil {
			return exitConfig, err
		}
	} else {
		terminal.Notice("No room selected, use /room <id>")
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case line, ok := <-lines:
			if !ok || session.handle(ctx, ui.ParseCommand(line)) {
				return exitOK, nil
			}
		}
	}
}

// chatSession turns prompt commands into facade calls.
type chatSession struct {
	facade     *runtime.Facade
	index      *search.Index
	terminal   *ui.Terminal
	credential string
	// unsent is the last text the facade refused, kept for /retry.
	unsent string
}

func (c *chatSession) selectRoom(ctx context.Context, room domain.RoomID) error {
	return c.facade.SelectRoom(ctx, room, c.credential)
}

// handle runs one command and reports whether the client should quit.
func (c *chatSession) handle(ctx context.Context, cmd ui.Command) bool {
	switch cmd.Name {
	case ui.CmdQuit:
		return true
	case ui.CmdHelp:
		c.terminal.Notice(ui.Help)
	case ui.CmdWho:
		c.terminal.Table(ui.Roster(c.facade.CurrentState().OnlineUsers))
	case ui.CmdRoom:
		if err := c.selectRoom(ctx, domain.RoomID(cmd.Arg)); err != nil {
			c.terminal.Error(err)
		}
	case ui.CmdSearch:
		found, err := c.index.Search(ctx, search.NewQuery(cmd.Raw))
		if err != nil {
			c.terminal.Error(err)
			return false
		}
		if len(found) == 0 {
			c.terminal.Notice("No match")
			return false
		}
		c.terminal.Table(ui.Results(found))
	case ui.CmdRetry:
		if c.unsent == "" {
			c.terminal.Notice("Nothing to retry")
			return false
		}
		c.say(c.unsent)
	default:
		c.say(cmd.Arg)
	}
	return false
}

func (c *chatSession) say(text string) {
	if text == "" {
		return
	}
	if ok, err := c.facade.Send(text); !ok {
		c.unsent = text
		c.terminal.Error(fmt.Errorf("%w, /retry once connected", err))
		return
	}
	c.unsent = ""
}
