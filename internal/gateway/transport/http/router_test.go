package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/Naude555/watson/internal/gateway/adapters/chatclient"
	"github.com/Naude555/watson/internal/gateway/app"
	"github.com/Naude555/watson/internal/gateway/domain"
	filerepo "github.com/Naude555/watson/internal/gateway/repository/file"
	"github.com/Naude555/watson/internal/platform/docstore"
)

const (
	testAPIKey   = "api-key"
	testAdminKey = "admin-key"
)

type testEnv struct {
	router http.Handler
	client *chatclient.MockClient
	queue  *app.DeliveryQueue
	dir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	ctx := context.Background()

	client := chatclient.NewMockClient(logger)
	client.SetState(chatclient.StateOpen)

	msgRepo := filerepo.NewMessageRepositoryFile(docstore.New(filepath.Join(dir, "messages.json")), 1000, logger)
	contactRepo := filerepo.NewContactRepositoryFile(docstore.New(filepath.Join(dir, "contacts.json")), logger)
	automationRepo := filerepo.NewAutomationRepositoryFile(docstore.New(filepath.Join(dir, "automations.json")), logger)
	jobRepo := filerepo.NewJobRepositoryFile(docstore.New(filepath.Join(dir, "jobs.json")), logger)

	messages := app.NewMessageService(msgRepo, app.NewMessageCache(100), logger)
	queue := app.NewDeliveryQueue(100, jobRepo, logger)

	groups := app.NewGroupDirectory(client, logger)
	resolver := app.NewResolver(contactRepo, groups)
	sender := app.NewSendService(resolver, queue, messages, client, logger)

	seed := domain.DefaultAutomationConfig("https://hooks.example.com/inbound", "s3cret", "!bot", "UTC")
	automations, err := app.NewAutomationService(ctx, automationRepo, seed, logger)
	require.NoError(t, err)

	signer := app.NewMediaSigner("media-secret", time.Hour)
	validate := validator.New()

	router := NewRouter(RouterDeps{
		APIKey:     testAPIKey,
		AdminKey:   testAdminKey,
		Send:       NewSendHandler(sender, signer, filepath.Join(dir, "uploads"), logger, validate),
		Messages:   NewMessageHandler(messages, logger),
		Automation: NewAutomationHandler(automations, logger),
		Contacts:   NewContactHandler(contactRepo, groups, logger, validate),
		Media:      NewMediaHandler(signer, filepath.Join(dir, "uploads"), logger),
		Health:     NewHealthHandler(client, queue, groups, HealthInfo{MessagesMax: 20000, MessagesMemLimit: 1500}),
	})

	return &testEnv{router: router, client: client, queue: queue, dir: dir}
}
