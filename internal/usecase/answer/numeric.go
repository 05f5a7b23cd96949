package answer

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/filter"
)

// criticalityWords maps a tier to its {singular, plural} adjective.
var criticalityWords = map[filter.Criticality][2]string{
	filter.CriticalityVeryHigh: {"muy crítica", "muy críticas"},
	filter.CriticalityHigh:     {"crítica", "críticas"},
	filter.CriticalityMedium:   {"de criticidad media", "de criticidad media"},
	filter.CriticalityLow:      {"de criticidad baja", "de criticidad baja"},
}

// countPhrase renders "12 aplicaciones críticas en Colombia desplegadas en AWS con DRP".
func countPhrase(n int, f filter.Set) string {
	plural := n != 1

	parts := []string{fmt.Sprintf("%d %s", n, pick(plural, "aplicación", "aplicaciones"))}
	if f.IsActive {
		parts = append(parts, pick(plural, "activa", "activas"))
	}
	if w, ok := criticalityWords[f.Criticality]; ok {
		parts = append(parts, pick(plural, w[0], w[1]))
	}
	if f.IsStrategic {
		parts = append(parts, pick(plural, "estratégica", "estratégicas"))
	}
	if f.Status != "" {
		parts = append(parts, fmt.Sprintf("en estado %s", f.Status))
	}
	if f.Country != "" {
		parts = append(parts, "en "+f.Country)
	}
	if f.Deploy != "" {
		parts = append(parts, pick(plural, "desplegada", "desplegadas")+" en "+string(f.Deploy))
	}
	if f.HasDRP {
		parts = append(parts, "con DRP")
	}
	return strings.Join(parts, " ")
}

func pick(plural bool, one, many string) string {
	if plural {
		return many
	}
	return one
}
