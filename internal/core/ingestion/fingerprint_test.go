package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maintexa-ai/maintexa/internal/logger"
	"github.com/maintexa-ai/maintexa/internal/models"
	"github.com/maintexa-ai/maintexa/internal/testutil"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint([]byte("manual content"))
	b := Fingerprint([]byte("manual content"))
	c := Fingerprint([]byte("different content"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestFingerprintLookupHit(t *testing.T) {
	db := &testutil.FakeDB{
		FindDocumentByFingerprintFn: func(ctx context.Context, orgID, fp string) (*models.Document, error) {
			return &models.Document{ID: "doc-1", FileName: "manual.pdf", AssetID: "asset-1", Fingerprint: fp}, nil
		},
	}
	cache := NewFingerprintCache(db, logger.NewNop())

	dup, err := cache.Lookup(context.Background(), "org-1", "abc")
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, "doc-1", dup.DocumentID)
	assert.Equal(t, "asset-1", dup.AssetID)
}

func TestFingerprintLookupFallbackScan(t *testing.T) {
	db := &testutil.FakeDB{
		FindDocumentByFingerprintFn: func(ctx context.Context, orgID, fp string) (*models.Document, error) {
			return nil, errors.New("index unavailable")
		},
		ListDocumentsByOrgFn: func(ctx context.Context, orgID string) ([]models.Document, error) {
			return []models.Document{
				{ID: "doc-0", Fingerprint: "other", Status: models.StatusCompleted},
				{ID: "doc-1", Fingerprint: "abc", Status: models.StatusCompleted},
				{ID: "doc-2", Fingerprint: "abc", Status: models.StatusProcessing},
			}, nil
		},
	}
	cache := NewFingerprintCache(db, logger.NewNop())

	dup, err := cache.Lookup(context.Background(), "org-1", "abc")
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, "doc-1", dup.DocumentID)
	assert.Equal(t, 1, db.CallCount("ListDocumentsByOrg"))
}

func TestFingerprintLookupMiss(t *testing.T) {
	cache := NewFingerprintCache(&testutil.FakeDB{}, logger.NewNop())

	dup, err := cache.Lookup(context.Background(), "org-1", "abc")
	require.NoError(t, err)
	assert.Nil(t, dup)
}
