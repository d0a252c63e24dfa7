// Package testutil provides in-memory fakes for the core interfaces. Each
// fake exposes function fields so tests override only what they exercise.
package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/models"
)

// FakeDB implements core.DbClient. Unset function fields behave as an empty
// store. Call counts are tracked for interaction assertions.
type FakeDB struct {
	mu sync.Mutex

	GetAssetByIDFn              func(ctx context.Context, orgID, id string) (*models.Asset, error)
	ListAssetsByOrgFn           func(ctx context.Context, orgID string) ([]models.Asset, error)
	ListChildAssetsFn           func(ctx context.Context, orgID, parentID string) ([]models.Asset, error)
	CreateAssetFn               func(ctx context.Context, asset *models.Asset) error
	UpdateAssetIdentityFn       func(ctx context.Context, orgID, id, manufacturer, model, category string) error
	ListAliasesByOrgFn          func(ctx context.Context, orgID string) ([]models.AssetAlias, error)
	ListAliasesByAssetFn        func(ctx context.Context, assetID string) ([]models.AssetAlias, error)
	ListDependenciesFn          func(ctx context.Context, equipmentID, direction string) ([]models.AssetDependency, error)
	CreateDocumentFn            func(ctx context.Context, doc *models.Document) error
	GetDocumentByIDFn           func(ctx context.Context, orgID, id string) (*models.Document, error)
	DeleteDocumentFn            func(ctx context.Context, orgID, id string) error
	UpdateDocumentStatusFn      func(ctx context.Context, id, status string) error
	UpdateDocumentResultFn      func(ctx context.Context, doc *models.Document) error
	UpdateDocumentTypesFn       func(ctx context.Context, orgID, id string, types []string, confirmed bool) error
	FindDocumentByFingerprintFn func(ctx context.Context, orgID, fingerprint string) (*models.Document, error)
	ListDocumentsByOrgFn        func(ctx context.Context, orgID string) ([]models.Document, error)
	InsertDocumentChunksFn      func(ctx context.Context, chunks []models.DocumentChunk) error
	SearchChunksFn              func(ctx context.Context, queryVec []float32, filter core.ChunkSearchFilter) ([]core.ScoredChunk, error)
	GetCachedMetadataFn         func(ctx context.Context, contentHash string) (*models.CachedMetadata, error)
	UpsertCachedMetadataFn      func(ctx context.Context, meta *models.CachedMetadata) error

	Calls map[string]int
}

var _ core.DbClient = (*FakeDB)(nil)

func (f *FakeDB) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Calls == nil {
		f.Calls = map[string]int{}
	}
	f.Calls[name]++
}

// CallCount reports how often a method has been invoked.
func (f *FakeDB) CallCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[name]
}

func (f *FakeDB) GetAssetByID(ctx context.Context, orgID, id string) (*models.Asset, error) {
	f.record("GetAssetByID")
	if f.GetAssetByIDFn != nil {
		return f.GetAssetByIDFn(ctx, orgID, id)
	}
	return nil, nil
}

func (f *FakeDB) ListAssetsByOrg(ctx context.Context, orgID string) ([]models.Asset, error) {
	f.record("ListAssetsByOrg")
	if f.ListAssetsByOrgFn != nil {
		return f.ListAssetsByOrgFn(ctx, orgID)
	}
	return nil, nil
}

func (f *FakeDB) ListChildAssets(ctx context.Context, orgID, parentID string) ([]models.Asset, error) {
	f.record("ListChildAssets")
	if f.ListChildAssetsFn != nil {
		return f.ListChildAssetsFn(ctx, orgID, parentID)
	}
	return nil, nil
}

func (f *FakeDB) CreateAsset(ctx context.Context, asset *models.Asset) error {
	f.record("CreateAsset")
	if f.CreateAssetFn != nil {
		return f.CreateAssetFn(ctx, asset)
	}
	return nil
}

func (f *FakeDB) UpdateAssetIdentity(ctx context.Context, orgID, id, manufacturer, model, category string) error {
	f.record("UpdateAssetIdentity")
	if f.UpdateAssetIdentityFn != nil {
		return f.UpdateAssetIdentityFn(ctx, orgID, id, manufacturer, model, category)
	}
	return nil
}

func (f *FakeDB) ListAliasesByOrg(ctx context.Context, orgID string) ([]models.AssetAlias, error) {
	f.record("ListAliasesByOrg")
	if f.ListAliasesByOrgFn != nil {
		return f.ListAliasesByOrgFn(ctx, orgID)
	}
	return nil, nil
}

func (f *FakeDB) ListAliasesByAsset(ctx context.Context, assetID string) ([]models.AssetAlias, error) {
	f.record("ListAliasesByAsset")
	if f.ListAliasesByAssetFn != nil {
		return f.ListAliasesByAssetFn(ctx, assetID)
	}
	return nil, nil
}

func (f *FakeDB) ListDependencies(ctx context.Context, equipmentID, direction string) ([]models.AssetDependency, error) {
	f.record("ListDependencies")
	if f.ListDependenciesFn != nil {
		return f.ListDependenciesFn(ctx, equipmentID, direction)
	}
	return nil, nil
}

func (f *FakeDB) CreateDocument(ctx context.Context, doc *models.Document) error {
	f.record("CreateDocument")
	if f.CreateDocumentFn != nil {
		return f.CreateDocumentFn(ctx, doc)
	}
	return nil
}

func (f *FakeDB) GetDocumentByID(ctx context.Context, orgID, id string) (*models.Document, error) {
	f.record("GetDocumentByID")
	if f.GetDocumentByIDFn != nil {
		return f.GetDocumentByIDFn(ctx, orgID, id)
	}
	return nil, nil
}

func (f *FakeDB) DeleteDocument(ctx context.Context, orgID, id string) error {
	f.record("DeleteDocument")
	if f.DeleteDocumentFn != nil {
		return f.DeleteDocumentFn(ctx, orgID, id)
	}
	return nil
}

func (f *FakeDB) UpdateDocumentStatus(ctx context.Context, id, status string) error {
	f.record("UpdateDocumentStatus")
	if f.UpdateDocumentStatusFn != nil {
		return f.UpdateDocumentStatusFn(ctx, id, status)
	}
	return nil
}

func (f *FakeDB) UpdateDocumentResult(ctx context.Context, doc *models.Document) error {
	f.record("UpdateDocumentResult")
	if f.UpdateDocumentResultFn != nil {
		return f.UpdateDocumentResultFn(ctx, doc)
	}
	return nil
}

func (f *FakeDB) UpdateDocumentTypes(ctx context.Context, orgID, id string, types []string, confirmed bool) error {
	f.record("UpdateDocumentTypes")
	if f.UpdateDocumentTypesFn != nil {
		return f.UpdateDocumentTypesFn(ctx, orgID, id, types, confirmed)
	}
	return nil
}

func (f *FakeDB) FindDocumentByFingerprint(ctx context.Context, orgID, fingerprint string) (*models.Document, error) {
	f.record("FindDocumentByFingerprint")
	if f.FindDocumentByFingerprintFn != nil {
		return f.FindDocumentByFingerprintFn(ctx, orgID, fingerprint)
	}
	return nil, nil
}

func (f *FakeDB) ListDocumentsByOrg(ctx context.Context, orgID string) ([]models.Document, error) {
	f.record("ListDocumentsByOrg")
	if f.ListDocumentsByOrgFn != nil {
		return f.ListDocumentsByOrgFn(ctx, orgID)
	}
	return nil, nil
}

func (f *FakeDB) InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	f.record("InsertDocumentChunks")
	if f.InsertDocumentChunksFn != nil {
		return f.InsertDocumentChunksFn(ctx, chunks)
	}
	return nil
}

func (f *FakeDB) SearchChunks(ctx context.Context, queryVec []float32, filter core.ChunkSearchFilter) ([]core.ScoredChunk, error) {
	f.record("SearchChunks")
	if f.SearchChunksFn != nil {
		return f.SearchChunksFn(ctx, queryVec, filter)
	}
	return nil, nil
}

func (f *FakeDB) GetCachedMetadata(ctx context.Context, contentHash string) (*models.CachedMetadata, error) {
	f.record("GetCachedMetadata")
	if f.GetCachedMetadataFn != nil {
		return f.GetCachedMetadataFn(ctx, contentHash)
	}
	return nil, nil
}

func (f *FakeDB) UpsertCachedMetadata(ctx context.Context, meta *models.CachedMetadata) error {
	f.record("UpsertCachedMetadata")
	if f.UpsertCachedMetadataFn != nil {
		return f.UpsertCachedMetadataFn(ctx, meta)
	}
	return nil
}

func (f *FakeDB) Close() error { return nil }

// FakeEmbedder returns deterministic vectors and counts calls.
type FakeEmbedder struct {
	mu       sync.Mutex
	calls    int
	Dim      int
	EmbedFn  func(ctx context.Context, texts []string) ([][]float32, error)
	LastSize int
}

var _ core.EmbeddingProvider = (*FakeEmbedder)(nil)

func (f *FakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.LastSize = len(texts)
	f.mu.Unlock()
	if f.EmbedFn != nil {
		return f.EmbedFn(ctx, texts)
	}
	dim := f.Dim
	if dim == 0 {
		dim = 4
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, dim)
		vec[0] = float32(len(texts[i]))
		out[i] = vec
	}
	return out, nil
}

func (f *FakeEmbedder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeLLM replies with a canned response, or per-call via GenerateFn.
type FakeLLM struct {
	mu         sync.Mutex
	calls      int
	Response   string
	Err        error
	GenerateFn func(ctx context.Context, system, user string) (string, error)
	Stream     []string
}

var _ core.LLMProvider = (*FakeLLM)(nil)

func (f *FakeLLM) Generate(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.GenerateFn != nil {
		return f.GenerateFn(ctx, system, user)
	}
	return f.Response, f.Err
}

func (f *FakeLLM) GenerateStream(ctx context.Context, system, user string) (<-chan string, <-chan error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	deltas := make(chan string, len(f.Stream)+1)
	errs := make(chan error, 1)
	for _, d := range f.Stream {
		deltas <- d
	}
	close(deltas)
	if f.Err != nil {
		errs <- f.Err
	}
	close(errs)
	return deltas, errs
}

func (f *FakeLLM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeObjectStore keeps uploads in memory.
type FakeObjectStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

var _ core.ObjectClient = (*FakeObjectStore)(nil)

func (f *FakeObjectStore) UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(data); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Objects == nil {
		f.Objects = map[string][]byte{}
	}
	f.Objects[key] = buf.Bytes()
	return "https://" + bucket + ".s3.test/" + key, nil
}

func (f *FakeObjectStore) DeleteFile(ctx context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Objects, key)
	return f.Err
}

func (f *FakeObjectStore) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.Objects[key]; ok {
		return b, nil
	}
	return nil, f.Err
}
