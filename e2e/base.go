package e2e

import (
	"consensus-chat/ai"
	"consensus-chat/auth"
	"consensus-chat/domain"
	"consensus-chat/infrastructure/ws/server"
	"consensus-chat/moderation"
	"consensus-chat/repositories"
	"consensus-chat/runtime"
	"consensus-chat/runtime/workers"
	"consensus-chat/transport"
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type BaseRoomSuite struct {
	suite.Suite
	Config Config
	log    *slog.Logger

	db         *badger.DB
	httpServer *httptest.Server
	supervisor *workers.Supervisor
	supervised chan struct{}
}

// SetupSuite loads the environment configuration and, without an
// E2E_API_ORIGIN, starts a room server in process.
func (s *BaseRoomSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.log = logs.GetLoggerFromLevel(slog.LevelWarn)

	if s.Config.APIOrigin != "" {
		return
	}

	s.db, err = badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)

	messageRepository := repositories.NewMessageRepository(s.db, s.log, nil)
	wordRepository := repositories.NewWordRepository(s.db)
	s.Require().NoError(wordRepository.StoreWords(s.Config.Words))
	words, err := wordRepository.GetWords()
	s.Require().NoError(err)
	moderator, err := moderation.NewModerator(words, '*', s.log)
	s.Require().NoError(err)

	posts := make(chan domain.PostMessageCommand, 16)
	sanitized := make(chan domain.PostMessageCommand, 16)
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(registry, s.log)

	s.supervisor = workers.NewSupervisor(s.log)
	s.supervisor.Add(
		workers.NewModerationWorker(&moderator, posts, sanitized, s.log),
		workers.NewRoomWorker(messageRepository, broadcaster, ai.NewPanel(s.Config.Agents), sanitized, s.log),
	)
	s.supervised = make(chan struct{})
	go func() {
		defer close(s.supervised)
		s.supervisor.Run(context.Background())
	}()

	roomServer := server.NewRoomServer(s.log, registry, broadcaster, messageRepository,
		auth.NewInterceptor(s.Config.JWTSecretKey), posts, 16)
	s.httpServer = httptest.NewServer(roomServer.Handler())
	s.Config.APIOrigin = s.httpServer.URL
}

func (s *BaseRoomSuite) TearDownSuite() {
	if s.httpServer != nil {
		s.httpServer.Close()
	}
	if s.supervisor != nil {
		s.supervisor.Stop()
		<-s.supervised
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// Client is one scenario user connected through the public facade.
type Client struct {
	User   string
	Token  string
	Facade *runtime.Facade

	mu        sync.Mutex
	snapshots []domain.Session
}

func (c *Client) Last() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.snapshots) == 0 {
		return domain.NewSession("")
	}
	return c.snapshots[len(c.snapshots)-1]
}

// Snapshots returns every state the subscriber observed so far.
func (c *Client) Snapshots() []domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Session(nil), c.snapshots...)
}

// WithClient runs fn with a fresh client of user inside a contextual test step.
func (s *BaseRoomSuite) WithClient(name, user string, fn func(ctx context.Context, client *Client)) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	token, err := auth.GenerateToken([]byte(s.Config.JWTSecretKey), user, time.Hour)
	s.Require().NoError(err)

	manager := runtime.NewConnectionManager(s.log, transport.NewWebSocketDialer(s.Config.APIOrigin, s.Config.Timeout), s.Config.APIOrigin)
	client := &Client{User: user, Token: token, Facade: runtime.NewFacade(s.log, manager)}
	unsubscribe := client.Facade.Subscribe(func(state domain.Session) {
		client.mu.Lock()
		defer client.mu.Unlock()
		client.snapshots = append(client.snapshots, state)
	})
	defer func() {
		unsubscribe()
		client.Facade.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.Config.Timeout*4)
	defer cancel()
	fn(ctx, client)
}

// Await waits until the last snapshot of client satisfies cond.
func (s *BaseRoomSuite) Await(client *Client, msg string, cond func(domain.Session) bool) domain.Session {
	s.Require().Eventually(func() bool { return cond(client.Last()) }, s.Config.Timeout, 10*time.Millisecond, msg)
	return client.Last()
}
