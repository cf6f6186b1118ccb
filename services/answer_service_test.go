package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cotin/chatcotin/config"
	"github.com/cotin/chatcotin/llm"
	"github.com/cotin/chatcotin/models"
	"github.com/cotin/chatcotin/vectorindex"
)

// featureProvider derives a fixed vector from text content so similarity
// rankings in tests are deterministic. Questions land near the unrelated
// document on purpose.
type featureProvider struct {
	err error
}

func (p featureProvider) Model() string { return "test-embed" }

func (p featureProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if p.err != nil {
		return nil, p.err
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "férias"):
		return []float32{1, 0}, nil
	case strings.Contains(lower, "compras"):
		return []float32{0, 1}, nil
	default:
		return []float32{0.95, 0.05}, nil
	}
}

// captureInvoker records the prompt context and returns a canned answer.
type captureInvoker struct {
	pc     models.PromptContext
	params llm.Params
	result llm.Result
}

func (i *captureInvoker) Invoke(_ context.Context, pc models.PromptContext, params llm.Params) (llm.Result, error) {
	i.pc = pc
	i.params = params
	return i.result, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DocsPath = filepath.Join(t.TempDir(), "docs")
	cfg.Index.Backend = "local"
	cfg.Index.DataDir = t.TempDir()
	return cfg
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func ingestFixture(t *testing.T, cfg *config.Config) {
	t.Helper()
	writeDoc(t, cfg.DocsPath, "paineis.md",
		"Painel de Compras Governamentais: lista de painéis oficiais.")
	writeDoc(t, cfg.DocsPath, "ferias.txt",
		"Procedimento interno para solicitação de férias dos servidores.")

	store := vectorindex.NewLocalStore(cfg.Index.DataDir)
	ingest := NewIngestService(cfg, featureProvider{}, store)
	_, err := ingest.Run(context.Background())
	require.NoError(t, err)
}

func TestAnswer_CatalogQueryForcesCatalogChunk(t *testing.T) {
	cfg := testConfig(t)
	// With a single result slot the unrelated chunk wins on raw similarity,
	// so only forced inclusion can surface the catalog chunk.
	cfg.Retrieval.TopN = 1
	ingestFixture(t, cfg)

	inv := &captureInvoker{result: llm.Result{Answer: "segue a lista de painéis"}}
	svc := NewAnswerService(cfg, featureProvider{}, vectorindex.NewLocalStore(cfg.Index.DataDir), inv)

	resp, err := svc.Answer(context.Background(), models.ChatRequest{Message: "quais painéis existem?"})
	require.NoError(t, err)

	assert.Contains(t, inv.pc.Context, "Painel de Compras Governamentais")
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "paineis.md", resp.Sources[0].Filename)
	assert.Equal(t, "segue a lista de painéis", resp.Answer)
	assert.False(t, resp.Degraded)
}

func TestAnswer_PlainQueryKeepsRanking(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrieval.TopN = 1
	ingestFixture(t, cfg)

	inv := &captureInvoker{result: llm.Result{Answer: "ok"}}
	svc := NewAnswerService(cfg, featureProvider{}, vectorindex.NewLocalStore(cfg.Index.DataDir), inv)

	resp, err := svc.Answer(context.Background(), models.ChatRequest{Message: "como funciona o procedimento?"})
	require.NoError(t, err)

	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "ferias.txt", resp.Sources[0].Filename)
}

func TestAnswer_EmbeddingFailureStillAnswers(t *testing.T) {
	cfg := testConfig(t)
	ingestFixture(t, cfg)

	inv := &captureInvoker{result: llm.Result{Answer: "sem contexto disponível"}}
	svc := NewAnswerService(cfg, featureProvider{err: errors.New("ollama down")}, vectorindex.NewLocalStore(cfg.Index.DataDir), inv)

	resp, err := svc.Answer(context.Background(), models.ChatRequest{Message: "qualquer pergunta"})
	require.NoError(t, err)

	assert.Empty(t, inv.pc.Context)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, "sem contexto disponível", resp.Answer)
}

func TestAnswer_HistoryRendered(t *testing.T) {
	cfg := testConfig(t)
	ingestFixture(t, cfg)

	inv := &captureInvoker{result: llm.Result{Answer: "ok"}}
	svc := NewAnswerService(cfg, featureProvider{}, vectorindex.NewLocalStore(cfg.Index.DataDir), inv)

	_, err := svc.Answer(context.Background(), models.ChatRequest{
		Message: "e sobre compras?",
		Turns: []models.ConversationTurn{
			{Question: "o que é a LAI?", Answer: "A Lei de Acesso à Informação."},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, inv.pc.History, "Usuário: o que é a LAI?")
	assert.Contains(t, inv.pc.History, "Assistente: A Lei de Acesso à Informação.")
}

func TestAnswer_RequestOverridesParams(t *testing.T) {
	cfg := testConfig(t)
	ingestFixture(t, cfg)

	inv := &captureInvoker{result: llm.Result{Answer: "ok"}}
	svc := NewAnswerService(cfg, featureProvider{}, vectorindex.NewLocalStore(cfg.Index.DataDir), inv)

	temp := 0.7
	topK := 10
	_, err := svc.Answer(context.Background(), models.ChatRequest{
		Message:     "pergunta",
		Temperature: &temp,
		TopK:        &topK,
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.7, inv.params.Temperature, 1e-9)
	assert.Equal(t, 10, inv.params.TopK)
	assert.InDelta(t, 0.9, inv.params.TopP, 1e-9, "unset knobs keep defaults")
}
