package filter

// Criticality is the canonical criticality tier as stored in the index.
type Criticality string

// Criticality tiers.
const (
	CriticalityVeryHigh Criticality = "Muy Crítico"
	CriticalityHigh     Criticality = "Crítico"
	CriticalityMedium   Criticality = "Medio"
	CriticalityLow      Criticality = "Bajo"
)

// Status is the canonical lifecycle status as stored in the index.
type Status string

// Lifecycle statuses.
const (
	StatusDeprecated    Status = "Deprecated"
	StatusMaintenance   Status = "Maintenance"
	StatusInDevelopment Status = "In Development"
)

// Deploy is the canonical deployment platform as stored in the index.
type Deploy string

// Deployment platforms.
const (
	DeployAWS       Deploy = "AWS"
	DeployAzure     Deploy = "Azure"
	DeployGCP       Deploy = "GCP"
	DeployIBMCloud  Deploy = "IBM Cloud"
	DeployKyndryl   Deploy = "Kyndryl"
	DeployHybrid    Deploy = "Hybrid"
	DeployOnPremise Deploy = "On Premise"
)

// Metadata keys a Set can constrain.
const (
	KeyCountry     = "country"
	KeyCriticality = "critic_name"
	KeyStatus      = "status"
	KeyDeploy      = "deploy"
	KeyStrategic   = "is_strategic"
	KeyDRP         = "has_drp"
	KeyActive      = "is_active"
)

// VisualIntent records which presentation the question asked for.
type VisualIntent struct {
	WantsTable      bool `json:"wants_table"`
	WantsDiagram    bool `json:"wants_diagram"`
	WantsComparison bool `json:"wants_comparison"`
}

// Set is the structured intent extracted from a question.
// Zero values mean "not requested"; boolean flags only ever narrow to true.
type Set struct {
	Country     string
	Criticality Criticality
	Status      Status
	Deploy      Deploy
	IsStrategic bool
	HasDRP      bool
	IsActive    bool

	// ExactName and Visual steer generation. They never become store conditions.
	ExactName   string
	IsNumerical bool
	Visual      VisualIntent
}

// Condition is one conjunctive equality constraint on a metadata key.
type Condition struct {
	key   string
	value any
}

// Key returns the metadata key.
func (c Condition) Key() string { return c.key }

// Value returns the required value (string or bool).
func (c Condition) Value() any { return c.value }

// Conditions returns the store-level constraints in a stable order.
// ExactName, Visual and IsNumerical are deliberately absent.
func (s Set) Conditions() []Condition {
	var out []Condition
	if s.Country != "" {
		out = append(out, Condition{key: KeyCountry, value: s.Country})
	}
	if s.Criticality != "" {
		out = append(out, Condition{key: KeyCriticality, value: string(s.Criticality)})
	}
	if s.Status != "" {
		out = append(out, Condition{key: KeyStatus, value: string(s.Status)})
	}
	if s.Deploy != "" {
		out = append(out, Condition{key: KeyDeploy, value: string(s.Deploy)})
	}
	if s.IsStrategic {
		out = append(out, Condition{key: KeyStrategic, value: true})
	}
	if s.HasDRP {
		out = append(out, Condition{key: KeyDRP, value: true})
	}
	if s.IsActive {
		out = append(out, Condition{key: KeyActive, value: true})
	}
	return out
}

// HasCountry reports whether a country constraint is present.
func (s Set) HasCountry() bool { return s.Country != "" }
