package storage

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kotoba-press/pkg/models"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store, err := NewBadgerStore(t.TempDir(), false, logger.WithField("test", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCheckPostStatus_NotFound(t *testing.T) {
	store := newTestStore(t)

	status, entry, err := store.CheckPostStatus("en/missing.md")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusNotFound, status)
	assert.Nil(t, entry)
}

func TestUpdateAndCheckPostStatus(t *testing.T) {
	store := newTestStore(t)

	in := &models.PostDBEntry{
		Status:      string(models.PostStatusSuccess),
		ContentHash: "abc123",
		Slug:        "mastering-hiragana",
		ProcessedAt: time.Now().UTC(),
		LastAttempt: time.Now().UTC(),
	}
	require.NoError(t, store.UpdatePostStatus("en/mastering-hiragana.md", in))

	status, entry, err := store.CheckPostStatus("en/mastering-hiragana.md")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusSuccess, status)
	require.NotNil(t, entry)
	assert.Equal(t, "abc123", entry.ContentHash)
	assert.Equal(t, "mastering-hiragana", entry.Slug)
}

func TestUpdatePostStatus_FailureWithValidationErrors(t *testing.T) {
	store := newTestStore(t)

	in := &models.PostDBEntry{
		Status:           string(models.PostStatusFailure),
		ErrorType:        "Validation_Rejected",
		ValidationErrors: []string{"missing required field: title"},
		LastAttempt:      time.Now().UTC(),
	}
	require.NoError(t, store.UpdatePostStatus("en/broken.md", in))

	status, entry, err := store.CheckPostStatus("en/broken.md")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailure, status)
	require.NotNil(t, entry)
	assert.Equal(t, []string{"missing required field: title"}, entry.ValidationErrors)
}

func TestContentHashPersisted(t *testing.T) {
	store := newTestStore(t)

	// Unknown file.
	status, entry, err := store.CheckPostStatus("en/new.md")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusNotFound, status)
	assert.Nil(t, entry)

	require.NoError(t, store.UpdatePostStatus("en/good.md", &models.PostDBEntry{
		Status:      string(models.PostStatusSuccess),
		ContentHash: "abc123",
	}))
	status, entry, err = store.CheckPostStatus("en/good.md")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusSuccess, status)
	require.NotNil(t, entry)
	assert.Equal(t, "abc123", entry.ContentHash)
}

func TestGetPostCount(t *testing.T) {
	store := newTestStore(t)

	count, err := store.GetPostCount()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.UpdatePostStatus("en/a.md", &models.PostDBEntry{Status: "success"}))
	require.NoError(t, store.UpdatePostStatus("en/b.md", &models.PostDBEntry{Status: "failure"}))
	// Overwriting an existing key does not bump the count.
	require.NoError(t, store.UpdatePostStatus("en/a.md", &models.PostDBEntry{Status: "failure"}))

	count, err = store.GetPostCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewBadgerStore_FreshDiscardsState(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	entry := logger.WithField("test", t.Name())
	dir := t.TempDir()

	store, err := NewBadgerStore(dir, false, entry)
	require.NoError(t, err)
	require.NoError(t, store.UpdatePostStatus("en/a.md", &models.PostDBEntry{Status: "success"}))
	require.NoError(t, store.Close())

	// Reopen without fresh: state survives.
	store, err = NewBadgerStore(dir, false, entry)
	require.NoError(t, err)
	status, _, err := store.CheckPostStatus("en/a.md")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusSuccess, status)
	require.NoError(t, store.Close())

	// Reopen fresh: state discarded.
	store, err = NewBadgerStore(dir, true, entry)
	require.NoError(t, err)
	status, _, err = store.CheckPostStatus("en/a.md")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusNotFound, status)
	require.NoError(t, store.Close())
}
