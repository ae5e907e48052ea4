package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/servtech/assistant-go/internal/dotenv"
	"github.com/servtech/assistant-go/internal/localstore"
	assistant "github.com/servtech/assistant-go/sdk"
)

const (
	defaultBaseURL = "http://localhost:36100"
	defaultTimeout = 15 * time.Second
)

type chatConfig struct {
	BaseURL     string
	WSURL       string
	Email       string
	Password    string
	AssistantID int
	EmbedLink   string
	StateDir    string
	Timeout     time.Duration
}

func parseChatConfig(args []string, getenv func(string) string) (chatConfig, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := chatConfig{}
	fs := flag.NewFlagSet("assistant-chat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.BaseURL, "base-url", strings.TrimSpace(getenv("ASSISTANT_BASE_URL")), "platform base URL (or ASSISTANT_BASE_URL)")
	fs.StringVar(&cfg.WSURL, "ws-url", strings.TrimSpace(getenv("ASSISTANT_WS_URL")), "override channel URL (or ASSISTANT_WS_URL)")
	fs.StringVar(&cfg.Email, "email", strings.TrimSpace(getenv("ASSISTANT_EMAIL")), "login email (or ASSISTANT_EMAIL)")
	fs.StringVar(&cfg.Password, "password", getenv("ASSISTANT_PASSWORD"), "login password (or ASSISTANT_PASSWORD)")
	fs.IntVar(&cfg.AssistantID, "assistant", 0, "assistant id to chat with (default: first owned)")
	fs.StringVar(&cfg.EmbedLink, "link", "", "public embed link; skips login")
	fs.StringVar(&cfg.StateDir, "state-dir", strings.TrimSpace(getenv("ASSISTANT_STATE_DIR")), "directory for persisted session state (or ASSISTANT_STATE_DIR)")
	fs.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "per-request timeout (e.g. 15s)")

	if err := fs.Parse(args); err != nil {
		return chatConfig{}, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if err := validateChatConfig(cfg); err != nil {
		return chatConfig{}, err
	}
	return cfg, nil
}

func validateChatConfig(cfg chatConfig) error {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return errors.New("base-url must be a valid absolute URL")
	}
	if base.User != nil {
		return errors.New("base-url must not include credentials")
	}
	if cfg.Timeout <= 0 {
		return errors.New("timeout must be > 0")
	}
	if cfg.EmbedLink == "" && (cfg.Email == "" || cfg.Password == "") {
		return errors.New("email and password are required unless -link is given")
	}
	return nil
}

func buildClientOptions(cfg chatConfig) ([]assistant.ClientOption, func(), error) {
	opts := []assistant.ClientOption{
		assistant.WithBaseURL(cfg.BaseURL),
		assistant.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.WSURL != "" {
		opts = append(opts, assistant.WithWebSocketURL(cfg.WSURL))
	}

	cleanup := func() {}
	if cfg.StateDir != "" {
		store, err := localstore.Open(filepath.Join(cfg.StateDir, "assistant-chat.db"))
		if err != nil {
			return nil, nil, fmt.Errorf("open state store: %w", err)
		}
		opts = append(opts, assistant.WithCredentialStore(store))
		cleanup = func() { _ = store.Close() }
	}
	return opts, cleanup, nil
}

func pickAssistant(ctx context.Context, client *assistant.Client, cfg chatConfig, out io.Writer) (*assistant.Assistant, error) {
	if cfg.EmbedLink != "" {
		return client.Assistants.EmbedBootstrap(ctx, cfg.EmbedLink)
	}

	session, err := client.Auth.Login(ctx, cfg.Email, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if exp, ok := session.ExpiresAt(); ok {
		fmt.Fprintf(out, "logged in as %s (session expires %s)\n", cfg.Email, exp.Format(time.RFC3339))
	} else {
		fmt.Fprintf(out, "logged in as %s\n", cfg.Email)
	}

	user, err := client.Auth.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	list, err := client.Assistants.ListForUser(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("list assistants: %w", err)
	}
	if len(list) == 0 {
		return nil, errors.New("account has no assistants")
	}

	if cfg.AssistantID != 0 {
		for i := range list {
			if list[i].ID == cfg.AssistantID {
				return &list[i], nil
			}
		}
		return nil, fmt.Errorf("assistant %d not found among %d owned assistants", cfg.AssistantID, len(list))
	}

	fmt.Fprintln(out, "assistants:")
	for _, a := range list {
		fmt.Fprintf(out, "  [%d] %s\n", a.ID, a.Name)
	}
	return &list[0], nil
}

// printEvents mirrors the session's event stream onto the console and
// signals when the session closes.
func printEvents(session *assistant.ChatSession, out io.Writer) <-chan struct{} {
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for event := range session.Events() {
			switch ev := event.(type) {
			case assistant.OpenEvent:
				fmt.Fprintln(out, "[connected]")
			case assistant.ThinkingEvent:
				if ev.Thinking {
					fmt.Fprintln(out, "[thinking...]")
				}
			case assistant.MessageEvent:
				if ev.Message.Origin == assistant.OriginBot {
					fmt.Fprintf(out, "%s: %s\n", session.Assistant().Name, ev.Message.Text)
				}
			case assistant.ClosedEvent:
				if ev.Err != nil {
					fmt.Fprintf(out, "[disconnected: %v]\n", ev.Err)
				} else {
					fmt.Fprintln(out, "[disconnected]")
				}
				return
			}
		}
	}()
	return closed
}

// chatSender is the part of the chat session the console loop uses.
type chatSender interface {
	Send(text string) error
	Err() error
}

// readLines pumps input onto a channel so the loop can notice a dropped
// session while the user is idle at the prompt.
func readLines(in io.Reader) (<-chan string, func() error) {
	lines := make(chan string)
	scanner := bufio.NewScanner(in)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines, scanner.Err
}

func consoleLoop(ctx context.Context, session chatSender, lines <-chan string, readErr func() error, closed <-chan struct{}, out io.Writer, errOut io.Writer) error {
	fmt.Fprint(out, "> ")
	for {
		select {
		case <-closed:
			fmt.Fprintln(out)
			return session.Err()
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return readErr()
			}
			line = strings.TrimSpace(line)
			if line == "" {
				fmt.Fprint(out, "> ")
				continue
			}
			switch line {
			case "/exit", "/quit":
				fmt.Fprintln(out, "bye")
				return nil
			}
			if err := session.Send(line); err != nil {
				if errors.Is(err, assistant.ErrSessionClosed) {
					return session.Err()
				}
				fmt.Fprintf(errOut, "send error: %v\n", err)
			}
			fmt.Fprint(out, "> ")
		}
	}
}

func runConsole(ctx context.Context, cfg chatConfig, in io.Reader, out io.Writer, errOut io.Writer) error {
	opts, cleanup, err := buildClientOptions(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	client := assistant.NewClient(opts...)

	a, err := pickAssistant(ctx, client, cfg, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "chatting with %s (type /exit to stop)\n", a.Name)

	session, err := client.OpenChat(ctx, a)
	if err != nil {
		return fmt.Errorf("open chat: %w", err)
	}
	defer session.Close()

	closed := printEvents(session, out)
	lines, readErr := readLines(in)
	return consoleLoop(ctx, session, lines, readErr, closed, out, errOut)
}

func main() {
	if err := dotenv.LoadFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "assistant-chat: %v\n", err)
		os.Exit(1)
	}

	cfg, err := parseChatConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "assistant-chat: %v\n", err)
		os.Exit(1)
	}

	if err := runConsole(context.Background(), cfg, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "assistant-chat: %v\n", err)
		os.Exit(1)
	}
}
