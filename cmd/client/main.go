package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"collabx/auth"
	"collabx/client"
	"collabx/domain/chat"
	"collabx/gateway"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run drives a terminal chat session: list threads, open a conversation
// with the configured peer, send stdin lines, print incoming events.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	self, err := selfFromToken(config.Token)
	if err != nil {
		return exitConfig, fmt.Errorf("cannot read identity from token: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := client.NewHTTPThreadFetcher(config.ServerURL, config.Token)
	conn, err := client.Dial(ctx, config.ServerURL, config.Token, log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	ctrl := client.NewController(self, conn, fetcher, log)
	ctrl.SetErrorHandler(func(message string) {
		fmt.Printf("!! %s\n", message)
	})

	if err := ctrl.RefreshThreads(); err != nil {
		return exitRuntime, fmt.Errorf("failed to load threads: %w", err)
	}
	renderThreads(self.ID, ctrl.Threads())

	if config.PeerID != "" {
		ctrl.StartConversationWith(chat.Participant{
			ID:   chat.UserID(config.PeerID),
			Kind: chat.Kind(config.PeerKind),
			Name: config.PeerName,
		})
		fmt.Printf(">>> Conversation with %s open. Type to send (Ctrl+C to quit).\n", config.PeerID)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- conn.Listen(ctx, ctrl, func(event string, payload gateway.PresencePayload) {
			if event == gateway.EventUserTyping {
				fmt.Printf("-- %s is typing...\n", payload.SenderName)
			}
		})
	}()

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if tempID := ctrl.SendMessage(scanner.Text()); tempID != "" {
				fmt.Println("(sending...)")
			}
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Stopping client...")
		return exitOK, nil
	case err := <-errChan:
		if err != nil {
			return exitRuntime, err
		}
		return exitOK, nil
	}
}

// selfFromToken extracts the caller identity from the JWT payload without
// verifying the signature; verification is the server's job.
func selfFromToken(token string) (chat.Participant, error) {
	parser := jwt.NewParser()
	claims := &auth.Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return chat.Participant{}, err
	}
	id, err := chat.ParseUserID(claims.UserID)
	if err != nil {
		return chat.Participant{}, err
	}
	return chat.Participant{ID: id, Kind: chat.Kind(claims.Kind), Name: claims.Email}, nil
}

func renderThreads(selfID chat.UserID, threads []chat.Thread) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Thread", "With", "Kind", "Messages", "Last activity"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, t := range threads {
		peer, _ := t.Peer(selfID)
		table.Append([]string{
			t.ID,
			peer.Name,
			string(peer.Kind),
			fmt.Sprintf("%d", len(t.Messages)),
			t.LastActivityAt.Format("2006-01-02 15:04"),
		})
	}
	table.Render()
}
