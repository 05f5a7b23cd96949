// Package portfoliorag embeds the portfolio question-answering pipeline in a Go
// program, without the HTTP server.
//
// The client talks to the same OpenSearch index the indexer fills and to any
// OpenAI-compatible endpoint for embeddings and chat completions:
//
//	client, err := portfoliorag.New(ctx,
//	    portfoliorag.WithOpenSearch([]string{"https://localhost:9200"}, "admin", "admin"),
//	    portfoliorag.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	    portfoliorag.WithModels("text-embedding-3-small", "gpt-4o-mini", 1536),
//	)
//	res, err := client.Query(ctx, "¿Cuántas aplicaciones críticas hay en Perú?")
//	fmt.Println(res.Answer.Summary)
//
// Query always returns a renderable Answer. On failure the error is set as
// well and the Answer is the caller-safe error envelope.
package portfoliorag
