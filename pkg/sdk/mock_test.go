package portfoliorag

import (
	"context"

	domanswer "github.com/kailas-cloud/portfolio-rag/internal/domain/answer"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/portfolio-rag/internal/usecase/health"
	queryuc "github.com/kailas-cloud/portfolio-rag/internal/usecase/query"
)

// --- queryUseCase mock ---

type mockQueryUC struct {
	queryFn func(ctx context.Context, req request.Request) (queryuc.Response, error)
	lastReq request.Request
}

func (m *mockQueryUC) Query(ctx context.Context, req request.Request) (queryuc.Response, error) {
	m.lastReq = req
	return m.queryFn(ctx, req)
}

func (m *mockQueryUC) Failure(err error) domanswer.Answer {
	return domanswer.Answer{Kind: domanswer.KindError, Message: err.Error()}
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report {
	return m.report
}
