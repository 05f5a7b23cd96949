package indexer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/portfolio-rag/internal/domain/document"
	"github.com/kailas-cloud/portfolio-rag/internal/vocabulary"
)

// Source column names.
const (
	ColIDApp         = "Id_App"
	ColCountry       = "Country"
	ColName          = "Name"
	ColCriticName    = "Critic Name"
	ColStrategic     = "Estrategic"
	ColCriticInfo    = "Critic Info"
	ColScore         = "Score"
	ColClassifType   = "ClassifType"
	ColAppType       = "AppType"
	ColDeploy        = "Deploy"
	ColStatus        = "Status"
	ColServiceDomain = "ServiceDomain"
	ColQuadrant      = "Quadrant"
	ColProductDomain = "ProductDomain"
	ColSpecialist    = "Specialist"
	ColArchitect     = "Architect App"
	ColOwner         = "Owner"
	ColDescription   = "Description"
	ColRTO           = "RTO"
	ColDRP           = "DRP"
	ColStartingYear  = "Starting Year"
)

// minEnrichedChars skips rows that carry no usable content.
const minEnrichedChars = 10

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	unsafeRune = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:!?\-()]`)
)

var activeStatuses = map[string]struct{}{
	"activo": {}, "active": {}, "en uso": {},
}

// CleanText collapses whitespace and replaces symbols outside a small punctuation set.
func CleanText(s string) string {
	s = unsafeRune.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

type section struct {
	label string
	col   string
}

// Sections of the enriched text, in output order. Empty values are skipped,
// empty sections are dropped.
var enrichedSections = [][]section{
	{{"Criticidad", ColCriticName}, {"Score", ColScore}, {"Estratégico", ColStrategic}},
	{{"Clasificación", ColClassifType}, {"Tipo", ColAppType}, {"Cuadrante", ColQuadrant}},
	{{"Deploy", ColDeploy}, {"Estado", ColStatus}, {"DRP", ColDRP}, {"RTO", ColRTO}},
	{
		{"Dominio Servicio", ColServiceDomain}, {"Dominio Producto", ColProductDomain},
		{"Especialista", ColSpecialist}, {"Arquitecto", ColArchitect}, {"Owner", ColOwner},
	},
	{{"Año inicio", ColStartingYear}, {"Info crítica", ColCriticInfo}, {"Descripción", ColDescription}},
}

// EnrichedText renders "[Country] Name (ID: x) | Criticidad: ... | ..." for embedding.
func EnrichedText(r Row) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(CleanText(r.Get(ColCountry)))
	b.WriteString("] ")
	b.WriteString(CleanText(r.Get(ColName)))
	if id := CleanText(r.Get(ColIDApp)); id != "" {
		b.WriteString(" (ID: ")
		b.WriteString(id)
		b.WriteString(")")
	}

	for _, sec := range enrichedSections {
		parts := make([]string, 0, len(sec))
		for _, f := range sec {
			if v := CleanText(r.Get(f.col)); v != "" {
				parts = append(parts, f.label+": "+v)
			}
		}
		if len(parts) > 0 {
			b.WriteString(" | ")
			b.WriteString(strings.Join(parts, " | "))
		}
	}
	return b.String()
}

// BuildMetadata maps a row to the index metadata with derived flags.
func BuildMetadata(r Row) document.Metadata {
	return document.Metadata{
		IDApp:         r.Get(ColIDApp),
		Country:       r.Get(ColCountry),
		Name:          r.Get(ColName),
		CriticName:    r.Get(ColCriticName),
		Score:         parseFloat(r.Get(ColScore)),
		AppType:       r.Get(ColAppType),
		ClassifType:   r.Get(ColClassifType),
		Deploy:        r.Get(ColDeploy),
		Status:        r.Get(ColStatus),
		ServiceDomain: r.Get(ColServiceDomain),
		ProductDomain: r.Get(ColProductDomain),
		Owner:         r.Get(ColOwner),
		Description:   r.Get(ColDescription),
		RTO:           r.Get(ColRTO),
		DRP:           r.Get(ColDRP),
		StartingYear:  int(parseFloat(r.Get(ColStartingYear))),
		IsStrategic:   vocabulary.Fold(r.Get(ColStrategic)) == "si",
		HasDRP:        r.Get(ColDRP) != "",
		IsActive:      isActive(r.Get(ColStatus)),
		TotalChunks:   1,
	}
}

func isActive(status string) bool {
	_, ok := activeStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// parseFloat accepts "7", "7.5" and "7,5"; anything else is 0.
func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64); err == nil {
		return f
	}
	return 0
}
