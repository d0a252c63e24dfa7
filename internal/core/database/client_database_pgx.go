package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/maintexa-ai/maintexa/internal/config"
	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/models"
)

// DatabaseClient implements core.DbClient on Postgres with pgvector.
type DatabaseClient struct {
	db *sql.DB
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Assets

const assetCols = `id, organization_id, name, code, level, parent_id, path, depth,
	manufacturer, model, category, criticality, created_at, updated_at`

func scanAsset(row interface{ Scan(...any) error }) (*models.Asset, error) {
	var a models.Asset
	err := row.Scan(
		&a.ID, &a.OrganizationID, &a.Name, &a.Code, &a.Level, &a.ParentID, &a.Path, &a.Depth,
		&a.Manufacturer, &a.Model, &a.Category, &a.Criticality, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *DatabaseClient) GetAssetByID(ctx context.Context, orgID, id string) (*models.Asset, error) {
	q := `SELECT ` + assetCols + ` FROM assets WHERE organization_id = $1 AND id = $2`
	a, err := scanAsset(c.db.QueryRowContext(ctx, q, orgID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (c *DatabaseClient) ListAssetsByOrg(ctx context.Context, orgID string) ([]models.Asset, error) {
	q := `SELECT ` + assetCols + ` FROM assets WHERE organization_id = $1 ORDER BY depth, name`
	return c.queryAssets(ctx, q, orgID)
}

func (c *DatabaseClient) ListChildAssets(ctx context.Context, orgID, parentID string) ([]models.Asset, error) {
	q := `SELECT ` + assetCols + ` FROM assets WHERE organization_id = $1 AND parent_id = $2 ORDER BY name`
	return c.queryAssets(ctx, q, orgID, parentID)
}

func (c *DatabaseClient) queryAssets(ctx context.Context, q string, args ...any) ([]models.Asset, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) CreateAsset(ctx context.Context, asset *models.Asset) error {
	if asset == nil {
		return errors.New("nil asset")
	}
	const q = `
		INSERT INTO assets
			(id, organization_id, name, code, level, parent_id, path, depth,
			 manufacturer, model, category, criticality, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
	`
	_, err := c.db.ExecContext(ctx, q,
		asset.ID, asset.OrganizationID, asset.Name, asset.Code, asset.Level, asset.ParentID,
		asset.Path, asset.Depth, asset.Manufacturer, asset.Model, asset.Category, asset.Criticality)
	return err
}

func (c *DatabaseClient) UpdateAssetIdentity(ctx context.Context, orgID, id, manufacturer, model, category string) error {
	const q = `
		UPDATE assets
		SET manufacturer = $3, model = $4, category = $5, updated_at = now()
		WHERE organization_id = $1 AND id = $2
	`
	res, err := c.db.ExecContext(ctx, q, orgID, id, manufacturer, model, category)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Kind: "asset", ID: id}
	}
	return nil
}

// Aliases

func (c *DatabaseClient) ListAliasesByOrg(ctx context.Context, orgID string) ([]models.AssetAlias, error) {
	const q = `
		SELECT al.id, al.asset_id, al.alias, al.normalized, al.language, al.is_primary, al.created_at
		FROM asset_aliases al
		JOIN assets a ON a.id = al.asset_id
		WHERE a.organization_id = $1
	`
	return c.queryAliases(ctx, q, orgID)
}

func (c *DatabaseClient) ListAliasesByAsset(ctx context.Context, assetID string) ([]models.AssetAlias, error) {
	const q = `
		SELECT id, asset_id, alias, normalized, language, is_primary, created_at
		FROM asset_aliases WHERE asset_id = $1
	`
	return c.queryAliases(ctx, q, assetID)
}

func (c *DatabaseClient) queryAliases(ctx context.Context, q string, args ...any) ([]models.AssetAlias, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AssetAlias
	for rows.Next() {
		var al models.AssetAlias
		if err := rows.Scan(&al.ID, &al.AssetID, &al.Alias, &al.Normalized, &al.Language, &al.IsPrimary, &al.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, al)
	}
	return out, rows.Err()
}

// Dependencies

func (c *DatabaseClient) ListDependencies(ctx context.Context, equipmentID, direction string) ([]models.AssetDependency, error) {
	const q = `
		SELECT id, equipment_id, depends_on_id, direction, description, created_at
		FROM asset_dependencies
		WHERE equipment_id = $1 AND direction = $2
	`
	rows, err := c.db.QueryContext(ctx, q, equipmentID, direction)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AssetDependency
	for rows.Next() {
		var d models.AssetDependency
		if err := rows.Scan(&d.ID, &d.EquipmentID, &d.DependsOnID, &d.Direction, &d.Description, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Documents

const docCols = `id, organization_id, asset_id, file_name, file_size, fingerprint, storage_url,
	status, document_types, type_confidence, types_confirmed, extraction_method, page_count,
	created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	var (
		d     models.Document
		types string
	)
	err := row.Scan(
		&d.ID, &d.OrganizationID, &d.AssetID, &d.FileName, &d.FileSize, &d.Fingerprint, &d.StorageURL,
		&d.Status, &types, &d.TypeConfidence, &d.TypesConfirmed, &d.ExtractionMethod, &d.PageCount,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.DocumentTypes = splitTypes(types)
	return &d, nil
}

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents
			(id, organization_id, asset_id, file_name, file_size, fingerprint, storage_url,
			 status, document_types, type_confidence, types_confirmed, extraction_method, page_count,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
	`
	_, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.OrganizationID, doc.AssetID, doc.FileName, doc.FileSize, doc.Fingerprint,
		doc.StorageURL, doc.Status, joinTypes(doc.DocumentTypes), doc.TypeConfidence,
		doc.TypesConfirmed, doc.ExtractionMethod, doc.PageCount)
	return err
}

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, orgID, id string) (*models.Document, error) {
	q := `SELECT ` + docCols + ` FROM documents WHERE organization_id = $1 AND id = $2`
	d, err := scanDocument(c.db.QueryRowContext(ctx, q, orgID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

// DeleteDocument removes a document; chunks go with it via ON DELETE CASCADE.
func (c *DatabaseClient) DeleteDocument(ctx context.Context, orgID, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM documents WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Kind: "document", ID: id}
	}
	return nil
}

func (c *DatabaseClient) UpdateDocumentStatus(ctx context.Context, id string, status string) error {
	const q = `UPDATE documents SET status = $2, updated_at = now() WHERE id = $1`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Kind: "document", ID: id}
	}
	return nil
}

// UpdateDocumentResult writes the fields the pipeline fills in on completion.
func (c *DatabaseClient) UpdateDocumentResult(ctx context.Context, doc *models.Document) error {
	const q = `
		UPDATE documents
		SET status = $2, fingerprint = $3, document_types = $4, type_confidence = $5,
		    extraction_method = $6, page_count = $7, updated_at = now()
		WHERE id = $1
	`
	_, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.Status, doc.Fingerprint, joinTypes(doc.DocumentTypes),
		doc.TypeConfidence, doc.ExtractionMethod, doc.PageCount)
	return err
}

func (c *DatabaseClient) UpdateDocumentTypes(ctx context.Context, orgID, id string, types []string, confirmed bool) error {
	const q = `
		UPDATE documents SET document_types = $3, types_confirmed = $4, updated_at = now()
		WHERE organization_id = $1 AND id = $2
	`
	res, err := c.db.ExecContext(ctx, q, orgID, id, joinTypes(types), confirmed)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Kind: "document", ID: id}
	}
	return nil
}

func (c *DatabaseClient) FindDocumentByFingerprint(ctx context.Context, orgID, fingerprint string) (*models.Document, error) {
	q := `SELECT ` + docCols + ` FROM documents
		WHERE organization_id = $1 AND fingerprint = $2 AND status = 'completed'
		ORDER BY created_at LIMIT 1`
	d, err := scanDocument(c.db.QueryRowContext(ctx, q, orgID, fingerprint))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (c *DatabaseClient) ListDocumentsByOrg(ctx context.Context, orgID string) ([]models.Document, error) {
	q := `SELECT ` + docCols + ` FROM documents WHERE organization_id = $1 ORDER BY created_at DESC`
	rows, err := c.db.QueryContext(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Chunks

// InsertDocumentChunks inserts one batch of chunks in a single transaction.
func (c *DatabaseClient) InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO document_chunks
			(id, document_id, asset_id, content, embedding, chunk_index, page_number,
			 section_name, section_part, section_complete, extraction_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		vec := pgvector.NewVector(ch.Embedding)
		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.DocumentID, ch.AssetID, ch.Content, vec, ch.ChunkIndex, ch.PageNumber,
			ch.SectionName, ch.SectionPart, ch.SectionComplete, ch.ExtractionMethod,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SearchChunks finds the chunks most similar to queryVec under the filter,
// using cosine distance so similarity is 1 - distance.
func (c *DatabaseClient) SearchChunks(ctx context.Context, queryVec []float32, filter core.ChunkSearchFilter) ([]core.ScoredChunk, error) {
	if filter.Limit <= 0 {
		filter.Limit = 15
	}

	q := `
		SELECT ch.id, ch.document_id, ch.asset_id, ch.content, ch.chunk_index, ch.page_number,
		       ch.section_name, ch.section_part, ch.section_complete, ch.extraction_method,
		       a.name, d.document_types, 1 - (ch.embedding <=> $1) AS similarity
		FROM document_chunks ch
		JOIN documents d ON d.id = ch.document_id
		JOIN assets a ON a.id = ch.asset_id
		WHERE d.organization_id = $2 AND ch.asset_id = $3 AND d.status = 'completed'
	`
	args := []any{pgvector.NewVector(queryVec), filter.OrganizationID, filter.AssetID}

	if len(filter.DocumentTypes) > 0 {
		var conds []string
		for _, t := range filter.DocumentTypes {
			args = append(args, "%"+t+"%")
			conds = append(conds, fmt.Sprintf("d.document_types LIKE $%d", len(args)))
		}
		q += " AND (" + strings.Join(conds, " OR ") + ")"
	}

	args = append(args, filter.Limit)
	q += fmt.Sprintf(" ORDER BY ch.embedding <=> $1 LIMIT $%d", len(args))

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.ScoredChunk
	for rows.Next() {
		var sc core.ScoredChunk
		var docTypes string
		if err := rows.Scan(
			&sc.Chunk.ID, &sc.Chunk.DocumentID, &sc.Chunk.AssetID, &sc.Chunk.Content,
			&sc.Chunk.ChunkIndex, &sc.Chunk.PageNumber, &sc.Chunk.SectionName,
			&sc.Chunk.SectionPart, &sc.Chunk.SectionComplete, &sc.Chunk.ExtractionMethod,
			&sc.AssetName, &docTypes, &sc.Similarity,
		); err != nil {
			return nil, err
		}
		sc.DocumentTypes = splitTypes(docTypes)
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Metadata cache

func (c *DatabaseClient) GetCachedMetadata(ctx context.Context, contentHash string) (*models.CachedMetadata, error) {
	const q = `
		SELECT content_hash, manufacturer, model, equipment_name, category, confidence, extraction_method, created_at
		FROM cached_metadata WHERE content_hash = $1
	`
	var m models.CachedMetadata
	err := c.db.QueryRowContext(ctx, q, contentHash).Scan(
		&m.ContentHash, &m.Manufacturer, &m.Model, &m.EquipmentName, &m.Category,
		&m.Confidence, &m.ExtractionMethod, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *DatabaseClient) UpsertCachedMetadata(ctx context.Context, meta *models.CachedMetadata) error {
	if meta == nil {
		return errors.New("nil metadata")
	}
	const q = `
		INSERT INTO cached_metadata
			(content_hash, manufacturer, model, equipment_name, category, confidence, extraction_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (content_hash) DO UPDATE SET
			manufacturer = EXCLUDED.manufacturer,
			model = EXCLUDED.model,
			equipment_name = EXCLUDED.equipment_name,
			category = EXCLUDED.category,
			confidence = EXCLUDED.confidence,
			extraction_method = EXCLUDED.extraction_method
	`
	_, err := c.db.ExecContext(ctx, q,
		meta.ContentHash, meta.Manufacturer, meta.Model, meta.EquipmentName,
		meta.Category, meta.Confidence, meta.ExtractionMethod)
	return err
}

func joinTypes(types []string) string {
	return strings.Join(types, ",")
}

func splitTypes(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
