package answer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"

	domanswer "github.com/kailas-cloud/portfolio-rag/internal/domain/answer"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/document"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/filter"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/result"
)

// maxEvidenceText caps the chunk excerpt per application in the prompt.
const maxEvidenceText = 600

var (
	schemaOnce sync.Once
	schemaJSON string
)

// answerSchema renders the JSON schema of the answer envelope once.
func answerSchema() string {
	schemaOnce.Do(func() {
		reflector := jsonschema.Reflector{
			AllowAdditionalProperties: false,
			DoNotReference:            true,
		}
		b, err := json.MarshalIndent(reflector.Reflect(&domanswer.Answer{}), "", "  ")
		if err != nil {
			schemaJSON = "{}"
			return
		}
		schemaJSON = string(b)
	})
	return schemaJSON
}

const evidenceSystem = `Eres un analista del portafolio de aplicaciones de la organización.
Respondes SOLO con un objeto JSON válido que cumple el esquema indicado, sin texto adicional ni bloques de código.
Usa únicamente la información de las aplicaciones proporcionadas. Si un dato no aparece, no lo inventes.
Responde en español.`

const evidenceExample = `{
  "answer_type": "success",
  "summary": "Se encontraron 2 aplicaciones críticas de pagos en Colombia.",
  "total_found": 2,
  "applications": [
    {"name": "Pagos Core", "id": "APP-0101", "country": "Colombia", "criticality": "Crítico", "status": "Activo", "deploy": "AWS",
     "highlights": ["Procesa pagos en línea", "Cuenta con DRP"]}
  ],
  "insights": ["Ambas aplicaciones están desplegadas en la nube"],
  "suggestions": ["¿Cuáles de ellas son estratégicas?"]
}`

const conversationalSystem = `Eres el asistente del portafolio de aplicaciones de la organización.
El usuario no hizo una consulta de datos. Responde de forma breve y amable y orienta al usuario sobre qué puede preguntar.
Responde SOLO con un objeto JSON con "answer_type": "conversational", "summary" y "suggestions". Sin texto adicional.`

const conversationalExamples = `Ejemplos:
Usuario: hola
{"answer_type": "conversational", "summary": "¡Hola! Puedo ayudarte a consultar el portafolio de aplicaciones.", "suggestions": ["¿Cuántas aplicaciones críticas hay en Colombia?", "Muestra una tabla de apps en Argentina"]}
Usuario: gracias
{"answer_type": "conversational", "summary": "¡Con gusto! Si necesitas algo más del portafolio, pregúntame.", "suggestions": ["¿Qué aplicaciones tienen DRP?"]}
Usuario: ayuda
{"answer_type": "conversational", "summary": "Puedo buscar aplicaciones por país, criticidad, estado o plataforma de despliegue.", "suggestions": ["¿Qué es SAP?", "Aplicaciones desplegadas en Azure"]}`

func conversationalPrompt(question string) string {
	var b strings.Builder
	b.WriteString(conversationalExamples)
	b.WriteString("\n\nUsuario: ")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}

// evidencePrompt embeds the question, the evidence block and the output contract.
func evidencePrompt(question string, outcome result.Outcome, filters filter.Set, topK int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Pregunta: %s\n\n", question)
	fmt.Fprintf(&b, "Total de aplicaciones que coinciden: %d", outcome.TotalCount())
	if outcome.HasMore() {
		b.WriteString(" (se muestran solo las más relevantes)")
	}
	b.WriteString("\n\nAplicaciones encontradas:\n")
	writeEvidence(&b, outcome.Results(), topK)

	if instr := instructions(filters); instr != "" {
		b.WriteString("\nInstrucciones adicionales:\n")
		b.WriteString(instr)
	}

	b.WriteString("\nEsquema JSON requerido:\n")
	b.WriteString(answerSchema())
	b.WriteString("\n\nEjemplo de respuesta:\n")
	b.WriteString(evidenceExample)
	b.WriteString("\n")
	return b.String()
}

func instructions(f filter.Set) string {
	var b strings.Builder
	if f.ExactName != "" {
		fmt.Fprintf(&b, "- El usuario pregunta específicamente por %q: céntrate en esa aplicación.\n", f.ExactName)
	}
	if f.Visual.WantsTable {
		b.WriteString("- Incluye \"html_table\": una tabla HTML simple (<table>, <tr>, <th>, <td>) con las aplicaciones.\n")
	}
	if f.Visual.WantsDiagram {
		b.WriteString("- Incluye \"mermaid_diagram\": un diagrama Mermaid válido (por ejemplo graph TD o pie).\n")
	}
	if f.Visual.WantsComparison {
		b.WriteString("- Compara las aplicaciones entre sí en \"insights\" (criticidad, despliegue, estado).\n")
	}
	return b.String()
}

// writeEvidence formats at most limit applications, one block per distinct id_app.
func writeEvidence(b *strings.Builder, results []result.Result, limit int) {
	seen := make(map[string]bool, len(results))
	n := 0
	for i := range results {
		if limit > 0 && n >= limit {
			break
		}
		r := &results[i]
		m := r.Metadata()
		key := m.IDApp
		if key == "" {
			key = r.ID()
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		n++

		fmt.Fprintf(b, "[%d] %s (ID: %s)\n", n, orDash(m.Name), orDash(m.IDApp))
		fmt.Fprintf(b, "    País: %s | Criticidad: %s (score %s) | Tipo: %s\n",
			orDash(m.Country), orDash(m.CriticName), formatScore(m.Score), orDash(m.AppType))
		fmt.Fprintf(b, "    Despliegue: %s | Estado: %s | DRP: %s | Estratégica: %s\n",
			orDash(m.Deploy), orDash(m.Status), yesNo(m.HasDRP), yesNo(m.IsStrategic))
		fmt.Fprintf(b, "    Owner: %s | Dominio: %s\n", orDash(m.Owner), orDash(domainOf(m)))
		if text := strings.TrimSpace(r.Text()); text != "" {
			fmt.Fprintf(b, "    Detalle: %s\n", domanswer.Truncate(text, maxEvidenceText))
		}
	}
	if n == 0 {
		b.WriteString("(ninguna)\n")
	}
}

func domainOf(m document.Metadata) string {
	if m.ServiceDomain != "" {
		return m.ServiceDomain
	}
	return m.ProductDomain
}

func formatScore(v float64) string {
	if v == 0 {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "Sí"
	}
	return "No"
}
