package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/netplus/netplus-client-go/internal/app"
	"github.com/netplus/netplus-client-go/internal/config"
	"github.com/netplus/netplus-client-go/internal/domain"
	"github.com/netplus/netplus-client-go/internal/service"
	"github.com/netplus/netplus-client-go/internal/session"
	"github.com/netplus/netplus-client-go/internal/util"
)

const usage = `netplus <command> [args]

commands:
  login <email> <password>            authenticate and store the session
  signup <name> <email> <password>    create an account and log in
  logout                              clear the stored session
  whoami                              show the current user (hydrates if needed)
  titles                              list catalog titles
  episodes <title-id>                 list episodes of a title
  browse                              list titles with episode counts
  graph <title-id> <episode-id> <ms>  fetch the narrative graph
  recap <title-id> <episode-id> <ms>  generate a recap
  ask <title-id> <episode-id> <ms> <question...>
  card <character-id> <episode-id> <ms>
  chat-new <title-id> <episode-id> <user-id> <ms>
  chat-log <session-id>               print a chat session's messages
  watch                               follow session changes until interrupted
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble client services", zap.Error(err))
		os.Exit(1)
	}
	defer container.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx, container, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("Command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, c *app.Container, command string, args []string) error {
	switch command {
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: login <email> <password>")
		}
		result, err := c.Auth.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if err := c.Sessions.Login(ctx, result.AccessToken, result.User); err != nil {
			return err
		}
		return printJSON(result.User)

	case "signup":
		if len(args) != 3 {
			return fmt.Errorf("usage: signup <name> <email> <password>")
		}
		result, err := c.Auth.Signup(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		if err := c.Sessions.Login(ctx, result.AccessToken, result.User); err != nil {
			return err
		}
		return printJSON(result.User)

	case "logout":
		return c.Sessions.Logout(ctx)

	case "whoami":
		if user := c.Sessions.CurrentUser(); user != nil {
			return printJSON(user)
		}
		if err := c.Sessions.RefreshMe(ctx); err != nil {
			return err
		}
		user := c.Sessions.CurrentUser()
		if user == nil {
			fmt.Println("not logged in")
			return nil
		}
		return printJSON(user)

	case "titles":
		titles, err := c.Catalog.ListTitles(ctx)
		if err != nil {
			return err
		}
		return printJSON(titles)

	case "episodes":
		if len(args) != 1 {
			return fmt.Errorf("usage: episodes <title-id>")
		}
		titleID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid title id: %w", err)
		}
		episodes, err := c.Catalog.ListEpisodes(ctx, titleID)
		if err != nil {
			return err
		}
		return printJSON(episodes)

	case "browse":
		return browse(ctx, c)

	case "graph":
		query, err := parseInsightArgs(args)
		if err != nil {
			return err
		}
		graph, err := c.Insight.Graph(ctx, service.GraphQuery{
			TitleID:       query.TitleID,
			EpisodeID:     query.EpisodeID,
			CurrentTimeMs: query.CurrentTimeMs,
		})
		if err != nil {
			return err
		}
		return printJSON(graph)

	case "recap":
		query, err := parseInsightArgs(args)
		if err != nil {
			return err
		}
		recap, err := c.Insight.CreateRecap(ctx, domain.RecapRequest{
			TitleID:       query.TitleID,
			EpisodeID:     query.EpisodeID,
			CurrentTimeMs: *query.CurrentTimeMs,
		})
		if err != nil {
			return err
		}
		fmt.Println(recap.Recap)
		return nil

	case "ask":
		if len(args) < 4 {
			return fmt.Errorf("usage: ask <title-id> <episode-id> <ms> <question...>")
		}
		query, err := parseInsightArgs(args[:3])
		if err != nil {
			return err
		}
		answer, err := c.Insight.Ask(ctx, domain.QARequest{
			TitleID:       query.TitleID,
			EpisodeID:     query.EpisodeID,
			CurrentTimeMs: *query.CurrentTimeMs,
			Question:      strings.Join(args[3:], " "),
		})
		if err != nil {
			return err
		}
		fmt.Println(answer.Answer)
		return nil

	case "card":
		query, err := parseInsightArgs(args)
		if err != nil {
			return err
		}
		card, err := c.Insight.CharacterCard(ctx, service.CharacterCardQuery{
			CharacterID:   query.TitleID,
			EpisodeID:     query.EpisodeID,
			CurrentTimeMs: query.CurrentTimeMs,
		})
		if err != nil {
			return err
		}
		return printJSON(card)

	case "chat-new":
		if len(args) != 4 {
			return fmt.Errorf("usage: chat-new <title-id> <episode-id> <user-id> <ms>")
		}
		titleID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid title id: %w", err)
		}
		episodeID, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid episode id: %w", err)
		}
		ms, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
		chatSession, err := c.Chat.CreateSession(ctx, service.ChatSessionCreate{
			TitleID:       titleID,
			EpisodeID:     episodeID,
			UserID:        args[2],
			CurrentTimeMs: ms,
		})
		if err != nil {
			return err
		}
		return printJSON(chatSession)

	case "chat-log":
		if len(args) != 1 {
			return fmt.Errorf("usage: chat-log <session-id>")
		}
		sessionID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid session id: %w", err)
		}
		messages, err := c.Chat.ListMessages(ctx, sessionID, 0)
		if err != nil {
			return err
		}
		for _, message := range messages {
			fmt.Printf("[%s] %s\n", message.Role, message.Content)
		}
		return nil

	case "watch":
		return watch(ctx, c)

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// browse lists titles and fetches their episode lists concurrently, bounded
// so a large catalog does not flood the backend.
func browse(ctx context.Context, c *app.Container) error {
	titles, err := c.Catalog.ListTitles(ctx)
	if err != nil {
		return err
	}

	counts := make([]int, len(titles))
	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(4).WithErrors()
	for i, title := range titles {
		i, title := i, title
		p.Go(func() error {
			episodes, err := c.Catalog.ListEpisodes(ctx, title.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			counts[i] = len(episodes)
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	for i, title := range titles {
		fmt.Printf("%s  %s (%d episodes)\n", title.ID, title.Name, counts[i])
	}
	return nil
}

// watch follows cross-context session changes until the context is
// canceled, printing each reconciled state.
func watch(ctx context.Context, c *app.Container) error {
	unsubscribe := c.Sessions.Subscribe(func(snap session.Snapshot) {
		switch {
		case snap.User != nil:
			fmt.Printf("session: authenticated as %s\n", snap.User.Email)
		case snap.Authenticated:
			fmt.Println("session: token present, profile not hydrated")
		default:
			fmt.Println("session: anonymous")
		}
	})
	defer unsubscribe()

	fmt.Println("watching session changes (ctrl-c to stop)")
	if err := c.Sessions.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

type insightArgs struct {
	TitleID       uuid.UUID
	EpisodeID     uuid.UUID
	CurrentTimeMs *int64
}

func parseInsightArgs(args []string) (insightArgs, error) {
	if len(args) != 3 {
		return insightArgs{}, fmt.Errorf("expected <id> <id> <ms>")
	}
	first, err := uuid.Parse(args[0])
	if err != nil {
		return insightArgs{}, fmt.Errorf("invalid id %q: %w", args[0], err)
	}
	second, err := uuid.Parse(args[1])
	if err != nil {
		return insightArgs{}, fmt.Errorf("invalid id %q: %w", args[1], err)
	}
	ms, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return insightArgs{}, fmt.Errorf("invalid timestamp %q: %w", args[2], err)
	}
	return insightArgs{TitleID: first, EpisodeID: second, CurrentTimeMs: &ms}, nil
}

func printJSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
