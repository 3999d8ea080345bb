package file

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naude555/watson/internal/gateway/domain"
	"github.com/Naude555/watson/internal/platform/docstore"
)

func TestLastSendUnseenRecipientIsZero(t *testing.T) {
	repo := NewLastSendRepositoryFile(docstore.New(filepath.Join(t.TempDir(), "lastsend.json")), testLogger())
	ts, err := repo.Get(context.Background(), "27821234567@s.whatsapp.net")
	require.NoError(t, err)
	assert.EqualValues(t, 0, ts)
}

func TestLastSendSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lastsend.json")
	ctx := context.Background()

	repo := NewLastSendRepositoryFile(docstore.New(path), testLogger())
	require.NoError(t, repo.Set(ctx, "a@s.whatsapp.net", 1234))
	require.NoError(t, repo.Set(ctx, "b@s.whatsapp.net", 5678))

	reloaded := NewLastSendRepositoryFile(docstore.New(path), testLogger())
	ts, err := reloaded.Get(ctx, "a@s.whatsapp.net")
	require.NoError(t, err)
	assert.EqualValues(t, 1234, ts)
}

func TestJobRepositoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	ctx := context.Background()

	repo := NewJobRepositoryFile(docstore.New(path), testLogger())

	pending, err := repo.LoadPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	jobs := []*domain.DeliveryJob{
		{ID: "job_1", Recipient: "a@s.whatsapp.net", Payload: domain.Payload{Text: "hi"}, MessageID: "m1", ChatJID: "a@s.whatsapp.net"},
	}
	require.NoError(t, repo.SavePending(ctx, jobs))

	pending, err = repo.LoadPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "job_1", pending[0].ID)
	assert.Equal(t, "hi", pending[0].Payload.Text)
}
