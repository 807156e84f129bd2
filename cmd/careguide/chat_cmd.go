package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/careplus/careguide/internal/agent"
	"github.com/careplus/careguide/internal/chat"
	"github.com/careplus/careguide/internal/config"
	"github.com/careplus/careguide/internal/flags"
	"github.com/careplus/careguide/internal/markdown"
)

// runChat talks to the CareGuide agent. The chat_plus_ui flag selects the
// redesigned full-screen interface; with it off the session runs as a
// plain line-oriented loop.
func runChat(cfg *config.Config, logger *slog.Logger) error {
	reg, closer, err := openRegistry(cfg, logger)
	if err != nil {
		return err
	}
	defer closer()

	client := agent.New(cfg.Agent.BaseURL)

	var renderer *markdown.Renderer
	if cfg.UI.Markdown {
		renderer = markdown.NewRenderer(cfg.UI.Theme)
	}

	if reg.IsEnabled(flags.ChatPlusUI.Key) {
		model := chat.New(client, cfg.Agent.CustomerName, cfg.Agent.PollWait, renderer)
		p := tea.NewProgram(model, tea.WithAltScreen())
		_, err := p.Run()
		return err
	}
	return plainChatLoop(cfg, client, renderer)
}

// plainChatLoop is the pre-redesign chat: read a line, send it, poll until
// the agent answers.
func plainChatLoop(cfg *config.Config, client *agent.Client, renderer *markdown.Renderer) error {
	ctx := context.Background()

	if err := client.Ping(ctx); err != nil {
		return err
	}
	cust, err := client.CreateCustomer(ctx, cfg.Agent.CustomerName)
	if err != nil {
		return err
	}
	ses, err := client.CreateSession(ctx, cust.ID)
	if err != nil {
		return err
	}
	fmt.Printf("connected (session %s). empty line quits.\n", ses.ID)

	offset := 0
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil
		}

		if err := client.SendMessage(ctx, ses.ID, line); err != nil {
			return err
		}

		// Poll until the assistant replies; each 504 just re-polls.
		for {
			events, next, err := client.PollEvents(ctx, ses.ID, offset, cfg.Agent.PollWait)
			if err != nil {
				return err
			}
			offset = next

			replied := false
			for _, ev := range events {
				if ev.Type != "message" || ev.Message == nil || ev.Message.Role != "assistant" {
					continue
				}
				printReply(ev.Message.Text, renderer)
				replied = true
			}
			if replied {
				break
			}
		}
	}
}

func printReply(text string, renderer *markdown.Renderer) {
	if renderer == nil {
		fmt.Println(text)
		return
	}
	for _, line := range renderer.RenderContent(text, 80) {
		fmt.Println(line)
	}
}
