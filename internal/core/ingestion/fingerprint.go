package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/logger"
)

// DuplicateReport describes an already-ingested document with identical
// content. The caller decides whether to skip re-ingestion.
type DuplicateReport struct {
	DocumentID string    `json:"document_id"`
	FileName   string    `json:"file_name"`
	AssetID    string    `json:"asset_id"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Fingerprint is the SHA-256 of the raw file bytes, hex encoded.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FingerprintCache answers "have we seen these exact bytes before" within a
// tenant.
type FingerprintCache struct {
	db  core.DbClient
	log *logger.Logger
}

func NewFingerprintCache(db core.DbClient, log *logger.Logger) *FingerprintCache {
	return &FingerprintCache{db: db, log: log}
}

// Lookup checks for an existing completed document with the same
// fingerprint in the same tenant. The indexed lookup is the primary path;
// if it errors, a full listing scan stands in so a flaky index never turns
// duplicate detection off silently.
func (f *FingerprintCache) Lookup(ctx context.Context, orgID, fingerprint string) (*DuplicateReport, error) {
	doc, err := f.db.FindDocumentByFingerprint(ctx, orgID, fingerprint)
	if err != nil {
		f.log.Warn("fingerprint lookup failed, scanning documents", "error", err)
		docs, listErr := f.db.ListDocumentsByOrg(ctx, orgID)
		if listErr != nil {
			return nil, listErr
		}
		for i := range docs {
			if docs[i].Fingerprint == fingerprint && docs[i].Status == "completed" {
				doc = &docs[i]
				break
			}
		}
	}
	if doc == nil {
		return nil, nil
	}
	return &DuplicateReport{
		DocumentID: doc.ID,
		FileName:   doc.FileName,
		AssetID:    doc.AssetID,
		UploadedAt: doc.CreatedAt,
	}, nil
}
