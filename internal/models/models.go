package models

import (
	"time"
)

// Hierarchy levels an Asset may occupy, from the whole site down to a
// single replaceable component.
const (
	LevelSite      = "site"
	LevelLine      = "line"
	LevelSubsystem = "subsystem"
	LevelEquipment = "equipment"
	LevelComponent = "component"
)

// Asset criticality grades.
const (
	CriticalityCritical = "critical"
	CriticalityHigh     = "high"
	CriticalityMedium   = "medium"
	CriticalityLow      = "low"
)

// Document processing statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Asset is a node in the site -> line -> subsystem -> equipment -> component
// containment tree. Path is the materialized root-to-node chain of IDs joined
// by '/', Depth its length; both must stay consistent with ParentID.
type Asset struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	Code           string    `db:"code" json:"code"`
	Level          string    `db:"level" json:"level"`
	ParentID       *string   `db:"parent_id" json:"parent_id,omitempty"`
	Path           string    `db:"path" json:"path"`
	Depth          int       `db:"depth" json:"depth"`
	Manufacturer   string    `db:"manufacturer" json:"manufacturer,omitempty"`
	Model          string    `db:"model" json:"model,omitempty"`
	Category       string    `db:"category" json:"category,omitempty"`
	Criticality    string    `db:"criticality" json:"criticality,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AssetAlias is an alternative name technicians use for an asset: shop-floor
// jargon, a local-language name, or a short tag code. At most one alias per
// asset carries IsPrimary.
type AssetAlias struct {
	ID         string    `db:"id" json:"id"`
	AssetID    string    `db:"asset_id" json:"asset_id"`
	Alias      string    `db:"alias" json:"alias"`
	Normalized string    `db:"normalized" json:"normalized"`
	Language   string    `db:"language" json:"language"`
	IsPrimary  bool      `db:"is_primary" json:"is_primary"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Dependency directions.
const (
	DirectionUpstream   = "upstream"
	DirectionDownstream = "downstream"
)

// AssetDependency is a directed process edge: EquipmentID depends on
// DependsOnID. The graph is expected to be a DAG but traversal never
// assumes it.
type AssetDependency struct {
	ID          string    `db:"id" json:"id"`
	EquipmentID string    `db:"equipment_id" json:"equipment_id"`
	DependsOnID string    `db:"depends_on_id" json:"depends_on_id"`
	Direction   string    `db:"direction" json:"direction"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Document is an ingested equipment manual.
type Document struct {
	ID               string    `db:"id" json:"id"`
	OrganizationID   string    `db:"organization_id" json:"organization_id"`
	AssetID          string    `db:"asset_id" json:"asset_id"`
	FileName         string    `db:"file_name" json:"file_name"`
	FileSize         int64     `db:"file_size" json:"file_size"`
	Fingerprint      string    `db:"fingerprint" json:"fingerprint"`
	StorageURL       string    `db:"storage_url" json:"storage_url"`
	Status           string    `db:"status" json:"status"` // processing | completed | error
	DocumentTypes    []string  `db:"document_types" json:"document_types"`
	TypeConfidence   float64   `db:"type_confidence" json:"type_confidence"`
	TypesConfirmed   bool      `db:"types_confirmed" json:"types_confirmed"`
	ExtractionMethod string    `db:"extraction_method" json:"extraction_method"` // native | ocr
	PageCount        int       `db:"page_count" json:"page_count"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// DocumentChunk is one retrievable passage of a document with its embedding.
// Chunks exist only between ingestion and cascading document deletion.
type DocumentChunk struct {
	ID               string    `db:"id" json:"id"`
	DocumentID       string    `db:"document_id" json:"document_id"`
	AssetID          string    `db:"asset_id" json:"asset_id"`
	Content          string    `db:"content" json:"content"`
	Embedding        []float32 `db:"embedding" json:"-"` // pgvector column
	ChunkIndex       int       `db:"chunk_index" json:"chunk_index"`
	PageNumber       int       `db:"page_number" json:"page_number"`
	SectionName      string    `db:"section_name" json:"section_name"`
	SectionPart      int       `db:"section_part" json:"section_part"`
	SectionComplete  bool      `db:"section_complete" json:"section_complete"`
	ExtractionMethod string    `db:"extraction_method" json:"extraction_method"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// CachedMetadata is the content-addressed extraction cache: one row per
// distinct file hash, never invalidated because the key is the content itself.
type CachedMetadata struct {
	ContentHash      string    `db:"content_hash" json:"content_hash"`
	Manufacturer     string    `db:"manufacturer" json:"manufacturer"`
	Model            string    `db:"model" json:"model"`
	EquipmentName    string    `db:"equipment_name" json:"equipment_name"`
	Category         string    `db:"category" json:"category"`
	Confidence       float64   `db:"confidence" json:"confidence"`
	ExtractionMethod string    `db:"extraction_method" json:"extraction_method"` // cache | pattern | ai
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
