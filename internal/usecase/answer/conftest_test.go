package answer

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/kailas-cloud/portfolio-rag/internal/domain"
	domanswer "github.com/kailas-cloud/portfolio-rag/internal/domain/answer"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/document"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/result"
	"github.com/kailas-cloud/portfolio-rag/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

type mockGenerator struct {
	text  string
	err   error
	calls int
	last  domain.GenerationRequest
}

func (m *mockGenerator) Generate(_ context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	m.calls++
	m.last = req
	if m.err != nil {
		return domain.GenerationResult{}, m.err
	}
	return domain.GenerationResult{Text: m.text}, nil
}

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestSynthesizer(gen *mockGenerator) *Synthesizer {
	schema := domanswer.NewSchema(func() time.Time { return fixedNow })
	return New(gen, schema, DefaultConfig())
}

func evidenceOutcome(total int) result.Outcome {
	results := []result.Result{
		result.New("A1-0", 9.1, "[Colombia] SAP ERP (ID: A1) | Criticidad: Crítico", document.Metadata{
			IDApp: "A1", Name: "SAP ERP", Country: "Colombia", CriticName: "Crítico", Score: 90, Deploy: "AWS",
		}),
		result.New("A1-1", 7.4, "segundo fragmento de SAP", document.Metadata{IDApp: "A1", Name: "SAP ERP"}),
		result.New("A2-0", 5.0, "[Colombia] CRM", document.Metadata{IDApp: "A2", Name: "CRM Ventas", Country: "Colombia"}),
	}
	return result.NewOutcome(total, results, false, nil, nil)
}
