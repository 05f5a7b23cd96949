package document

import (
	"fmt"
	"strconv"
	"time"
)

// MaxTextSize is the maximum chunk text size in bytes.
const MaxTextSize = 163840 // 160KB

// Metadata is the application record attached to every chunk of that application.
// JSON names match the index mapping under the "metadata" object.
type Metadata struct {
	IDApp         string  `json:"id_app"`
	Country       string  `json:"country,omitempty"`
	Name          string  `json:"name,omitempty"`
	CriticName    string  `json:"critic_name,omitempty"`
	Score         float64 `json:"score"`
	AppType       string  `json:"app_type,omitempty"`
	ClassifType   string  `json:"classif_type,omitempty"`
	Deploy        string  `json:"deploy,omitempty"`
	Status        string  `json:"status,omitempty"`
	ServiceDomain string  `json:"service_domain,omitempty"`
	ProductDomain string  `json:"product_domain,omitempty"`
	Owner         string  `json:"owner,omitempty"`
	Description   string  `json:"description,omitempty"`
	RTO           string  `json:"rto,omitempty"`
	DRP           string  `json:"drp,omitempty"`
	StartingYear  int     `json:"starting_year,omitempty"`
	IsStrategic   bool    `json:"is_strategic"`
	HasDRP        bool    `json:"has_drp"`
	IsActive      bool    `json:"is_active"`
	ChunkNumber   int     `json:"chunk_number"`
	TotalChunks   int     `json:"total_chunks"`
}

// Document is one indexed chunk: enriched text, its embedding and the parent metadata.
type Document struct {
	id        string
	text      string
	vector    []float32
	metadata  Metadata
	indexedAt time.Time
}

// New validates and creates a chunk document. The ID is derived as <id_app>-<chunk_number>.
func New(text string, vector []float32, meta Metadata, indexedAt time.Time) (Document, error) {
	if meta.IDApp == "" {
		return Document{}, fmt.Errorf("id_app is required")
	}
	if text == "" {
		return Document{}, fmt.Errorf("text is required")
	}
	if len(text) > MaxTextSize {
		return Document{}, fmt.Errorf("text too large (max %d bytes)", MaxTextSize)
	}
	if meta.ChunkNumber < 0 {
		return Document{}, fmt.Errorf("chunk_number must be non-negative")
	}
	return Document{
		id:        meta.IDApp + "-" + strconv.Itoa(meta.ChunkNumber),
		text:      text,
		vector:    vector,
		metadata:  meta,
		indexedAt: indexedAt,
	}, nil
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Text returns the chunk text.
func (d *Document) Text() string { return d.text }

// Vector returns the embedding vector.
func (d *Document) Vector() []float32 { return d.vector }

// Metadata returns the application metadata.
func (d *Document) Metadata() Metadata { return d.metadata }

// IndexedAt returns the indexing timestamp.
func (d *Document) IndexedAt() time.Time { return d.indexedAt }

// SetVector sets the vector in place.
func (d *Document) SetVector(v []float32) { d.vector = v }

// HasVector reports whether the document carries a vector of the expected dimension.
// Documents without one stay reachable by lexical clauses only.
func (d *Document) HasVector(dim int) bool {
	return len(d.vector) > 0 && len(d.vector) == dim
}
