// Package vocabulary holds the keyword tables behind intent routing and filter
// extraction. The tables are data: Default ships the Spanish portfolio
// vocabulary and Load overrides sections from a YAML file.
package vocabulary

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/filter"
)

// Country maps aliases (with or without diacritics) to one canonical index value.
type Country struct {
	Canonical string   `yaml:"canonical"`
	Aliases   []string `yaml:"aliases"`
}

// CriticalityRule is one step of the criticality cascade.
type CriticalityRule struct {
	Tier    filter.Criticality `yaml:"tier"`
	Phrases []string           `yaml:"phrases"`
}

// StatusRule is one step of the status cascade.
type StatusRule struct {
	Status  filter.Status `yaml:"status"`
	Phrases []string      `yaml:"phrases"`
}

// DeployRule is one step of the deploy cascade.
type DeployRule struct {
	Deploy  filter.Deploy `yaml:"deploy"`
	Phrases []string      `yaml:"phrases"`
}

// Vocabulary is the full set of keyword tables. Rule slices are ordered:
// the first matching entry wins.
type Vocabulary struct {
	RetrievalKeywords []string          `yaml:"retrieval_keywords"`
	NumericWords      []string          `yaml:"numeric_words"`
	TableWords        []string          `yaml:"table_words"`
	DiagramWords      []string          `yaml:"diagram_words"`
	ComparisonWords   []string          `yaml:"comparison_words"`
	Countries         []Country         `yaml:"countries"`
	Criticality       []CriticalityRule `yaml:"criticality"`
	ActivePhrases     []string          `yaml:"active_phrases"`
	Statuses          []StatusRule      `yaml:"statuses"`
	DRPPhrases        []string          `yaml:"drp_phrases"`
	StrategicPhrases  []string          `yaml:"strategic_phrases"`
	Deploys           []DeployRule      `yaml:"deploys"`
	ExactNameLeads    []string          `yaml:"exact_name_leads"`
	ExactNameMaxWords int               `yaml:"exact_name_max_words"`
}

// Load reads a YAML override. Sections absent from the file keep their defaults.
// An empty path returns Default().
func Load(path string) (Vocabulary, error) {
	v := Default()
	if path == "" {
		return v, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path from trusted config
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}
	var override Vocabulary
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary: %w", err)
	}
	v.merge(override)
	if err := v.Validate(); err != nil {
		return Vocabulary{}, err
	}
	return v, nil
}

// Validate checks the cascades reference known canonical values.
func (v Vocabulary) Validate() error {
	for _, c := range v.Countries {
		if c.Canonical == "" {
			return fmt.Errorf("vocabulary: country without canonical name")
		}
	}
	for _, r := range v.Criticality {
		if r.Tier == "" {
			return fmt.Errorf("vocabulary: criticality rule without tier")
		}
	}
	for _, r := range v.Statuses {
		if r.Status == "" {
			return fmt.Errorf("vocabulary: status rule without status")
		}
	}
	for _, r := range v.Deploys {
		if r.Deploy == "" {
			return fmt.Errorf("vocabulary: deploy rule without platform")
		}
	}
	if v.ExactNameMaxWords < 1 {
		return fmt.Errorf("vocabulary: exact_name_max_words must be >= 1")
	}
	return nil
}

func (v *Vocabulary) merge(o Vocabulary) {
	mergeStrings(&v.RetrievalKeywords, o.RetrievalKeywords)
	mergeStrings(&v.NumericWords, o.NumericWords)
	mergeStrings(&v.TableWords, o.TableWords)
	mergeStrings(&v.DiagramWords, o.DiagramWords)
	mergeStrings(&v.ComparisonWords, o.ComparisonWords)
	mergeStrings(&v.ActivePhrases, o.ActivePhrases)
	mergeStrings(&v.DRPPhrases, o.DRPPhrases)
	mergeStrings(&v.StrategicPhrases, o.StrategicPhrases)
	mergeStrings(&v.ExactNameLeads, o.ExactNameLeads)
	if len(o.Countries) > 0 {
		v.Countries = o.Countries
	}
	if len(o.Criticality) > 0 {
		v.Criticality = o.Criticality
	}
	if len(o.Statuses) > 0 {
		v.Statuses = o.Statuses
	}
	if len(o.Deploys) > 0 {
		v.Deploys = o.Deploys
	}
	if o.ExactNameMaxWords > 0 {
		v.ExactNameMaxWords = o.ExactNameMaxWords
	}
}

func mergeStrings(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

// CountryAliases flattens every alias and canonical name.
func (v Vocabulary) CountryAliases() []string {
	var out []string
	for _, c := range v.Countries {
		out = append(out, c.Canonical)
		out = append(out, c.Aliases...)
	}
	return out
}
