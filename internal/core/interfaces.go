package core

import (
	"context"
	"io"

	"github.com/maintexa-ai/maintexa/internal/models"
)

// ChunkSearchFilter narrows a vector search to an asset and, optionally, to
// document source types (manual, schematic, parts_list, ...).
type ChunkSearchFilter struct {
	OrganizationID string
	AssetID        string
	DocumentTypes  []string
	Limit          int
}

// ScoredChunk is a chunk hit with its similarity to the query vector.
type ScoredChunk struct {
	Chunk         models.DocumentChunk
	AssetName     string
	DocumentTypes []string
	Similarity    float64
}

// DbClient defines every persistence operation the core needs. It abstracts
// Postgres/pgvector so higher layers never depend on a specific store.
type DbClient interface {
	// Assets and their naming. The core only reads these; asset-management
	// workflows own the writes, except for identity fields filled in during
	// ingestion.
	GetAssetByID(ctx context.Context, orgID, id string) (*models.Asset, error)
	ListAssetsByOrg(ctx context.Context, orgID string) ([]models.Asset, error)
	ListChildAssets(ctx context.Context, orgID, parentID string) ([]models.Asset, error)
	CreateAsset(ctx context.Context, asset *models.Asset) error
	UpdateAssetIdentity(ctx context.Context, orgID, id, manufacturer, model, category string) error
	ListAliasesByOrg(ctx context.Context, orgID string) ([]models.AssetAlias, error)
	ListAliasesByAsset(ctx context.Context, assetID string) ([]models.AssetAlias, error)

	// Directed process-dependency edges.
	ListDependencies(ctx context.Context, equipmentID, direction string) ([]models.AssetDependency, error)

	// Documents and chunks, owned by the ingestion pipeline.
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, orgID, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, orgID, id string) error
	UpdateDocumentStatus(ctx context.Context, id string, status string) error
	UpdateDocumentResult(ctx context.Context, doc *models.Document) error
	UpdateDocumentTypes(ctx context.Context, orgID, id string, types []string, confirmed bool) error
	FindDocumentByFingerprint(ctx context.Context, orgID, fingerprint string) (*models.Document, error)
	ListDocumentsByOrg(ctx context.Context, orgID string) ([]models.Document, error)

	InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error
	SearchChunks(ctx context.Context, queryVec []float32, filter ChunkSearchFilter) ([]ScoredChunk, error)

	// Content-addressed metadata cache. Writes are idempotent upserts keyed
	// by content hash, so concurrent identical uploads race benignly.
	GetCachedMetadata(ctx context.Context, contentHash string) (*models.CachedMetadata, error)
	UpsertCachedMetadata(ctx context.Context, meta *models.CachedMetadata) error

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}
