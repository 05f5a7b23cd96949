package vocabulary

import "github.com/kailas-cloud/portfolio-rag/internal/domain/search/filter"

// Default returns the Spanish application-portfolio vocabulary.
// Phrases are folded before matching, accents here are for readability only.
func Default() Vocabulary {
	return Vocabulary{
		RetrievalKeywords: []string{
			// domain nouns
			"aplicación", "aplicaciones", "app", "sistema", "servicio", "plataforma",
			"portfolio", "portafolio", "inventario", "application",
			// attributes
			"criticidad", "crítica", "crítico", "estado", "deploy", "despliegue", "nube", "cloud",
			"drp", "rto", "owner", "responsable", "dominio", "estratégic", "score", "puntuación",
			"deprecad", "mantenimiento", "desarrollo", "activa", "activo",
			// actions
			"lista", "listar", "muestra", "mostrar", "dame", "busca", "buscar", "encuentra",
			"cuál", "cuáles", "cuánt", "compara", "tabla", "diagrama", "qué es", "what is", "how many",
			// technology
			"aws", "azure", "gcp", "ibm", "kyndryl", "on premise", "híbrid", "sap", "mainframe", "api",
			// countries
			"españa", "méxico", "colombia", "perú", "argentina", "chile", "venezuela",
			"uruguay", "turquía", "paraguay", "estados unidos", "usa",
		},
		NumericWords: []string{
			"cuántas", "cuántos", "cuánta", "cuánto", "total", "número de", "cantidad",
			"contar", "cuenta cuántas", "cuenta cuántos", "conteo", "how many", "count",
		},
		TableWords:      []string{"tabla", "tablas", "table", "cuadro"},
		DiagramWords:    []string{"diagrama", "diagramas", "diagram", "gráfico", "grafica", "mermaid", "esquema", "flujo"},
		ComparisonWords: []string{"compara", "comparar", "comparación", "comparativa", "versus", "vs", "diferencia", "diferencias", "compare"},
		Countries: []Country{
			{Canonical: "Spain", Aliases: []string{"España", "Espana", "español", "española"}},
			{Canonical: "Mexico", Aliases: []string{"México", "Méjico", "mexicana", "mexicanas"}},
			{Canonical: "Colombia", Aliases: []string{"colombiana", "colombianas"}},
			{Canonical: "Peru", Aliases: []string{"Perú", "peruana", "peruanas"}},
			{Canonical: "Argentina", Aliases: []string{"argentinas"}},
			{Canonical: "Chile", Aliases: []string{"chilena", "chilenas"}},
			{Canonical: "Venezuela", Aliases: []string{"venezolana", "venezolanas"}},
			{Canonical: "Uruguay", Aliases: []string{"uruguaya", "uruguayas"}},
			{Canonical: "Turkey", Aliases: []string{"Turquía", "Turquia", "turca", "turcas"}},
			{Canonical: "Paraguay", Aliases: []string{"paraguaya", "paraguayas"}},
			{Canonical: "USA", Aliases: []string{"Estados Unidos", "EEUU", "EE.UU.", "United States"}},
		},
		// Bare "media"/"bajo" are too common in Spanish ("por medio de", "bajo mantenimiento"),
		// so medium and low need the qualifying word.
		Criticality: []CriticalityRule{
			{Tier: filter.CriticalityVeryHigh, Phrases: []string{
				"muy crítica", "muy críticas", "muy crítico", "muy críticos", "very critical",
			}},
			{Tier: filter.CriticalityHigh, Phrases: []string{
				"crítica", "críticas", "crítico", "críticos", "critical", "criticidad alta", "alta criticidad",
			}},
			{Tier: filter.CriticalityMedium, Phrases: []string{
				"criticidad media", "media criticidad", "criticidad medio", "criticidad intermedia",
				"medium criticality",
			}},
			{Tier: filter.CriticalityLow, Phrases: []string{
				"criticidad baja", "baja criticidad", "criticidad bajo", "low criticality",
			}},
		},
		ActivePhrases: []string{"activa", "activas", "activo", "activos", "en uso", "active", "vigente", "vigentes"},
		Statuses: []StatusRule{
			{Status: filter.StatusDeprecated, Phrases: []string{
				"deprecada", "deprecadas", "deprecado", "deprecados", "deprecated", "obsoleta", "obsoletas", "retirada", "retiradas",
			}},
			{Status: filter.StatusMaintenance, Phrases: []string{"mantenimiento", "maintenance"}},
			{Status: filter.StatusInDevelopment, Phrases: []string{"en desarrollo", "in development", "desarrollo"}},
		},
		DRPPhrases: []string{
			"drp", "plan de recuperación", "recuperación ante desastres", "disaster recovery",
		},
		StrategicPhrases: []string{
			"estratégica", "estratégicas", "estratégico", "estratégicos", "strategic",
		},
		Deploys: []DeployRule{
			{Deploy: filter.DeployAWS, Phrases: []string{"aws", "amazon"}},
			{Deploy: filter.DeployAzure, Phrases: []string{"azure"}},
			{Deploy: filter.DeployGCP, Phrases: []string{"gcp", "google cloud"}},
			{Deploy: filter.DeployIBMCloud, Phrases: []string{"ibm", "ibm cloud"}},
			{Deploy: filter.DeployKyndryl, Phrases: []string{"kyndryl"}},
			{Deploy: filter.DeployHybrid, Phrases: []string{"híbrido", "híbrida", "híbridas", "híbridos", "hybrid"}},
			{Deploy: filter.DeployOnPremise, Phrases: []string{"on premise", "on-premise", "onpremise", "on prem", "on-prem"}},
		},
		ExactNameLeads:    []string{"qué es", "what is"},
		ExactNameMaxWords: 5,
	}
}
