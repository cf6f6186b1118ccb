package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cotin/chatcotin/models"
)

type fakeAnswers struct {
	resp *models.ChatResponse
	err  error
	got  models.ChatRequest
}

func (f *fakeAnswers) Answer(_ context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	f.got = req
	return f.resp, f.err
}

type fakeCollections struct {
	resp *models.CollectionResponse
	err  error
}

func (f *fakeCollections) Current(context.Context) (*models.CollectionResponse, error) {
	return f.resp, f.err
}

func newTestRouter(answers AnswerService, collections CollectionInfo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctrl := NewChatController(answers, collections)
	router := gin.New()
	router.POST("/api/v1/chat", ctrl.Chat)
	router.GET("/api/v1/collection", ctrl.Collection)
	router.GET("/health", ctrl.Health)
	return router
}

func TestChat_OK(t *testing.T) {
	answers := &fakeAnswers{resp: &models.ChatResponse{
		Answer:  "resposta",
		Sources: []models.SourceRef{{Filename: "painel.md", DocType: models.DocTypeMarkdown, ChunkID: "abc-chunk0"}},
	}}
	router := newTestRouter(answers, &fakeCollections{})

	body := `{"message":"quais painéis existem?","turns":[{"question":"oi","answer":"olá"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "resposta", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "painel.md", resp.Sources[0].Filename)

	assert.Equal(t, "quais painéis existem?", answers.got.Message)
	require.Len(t, answers.got.Turns, 1)
}

func TestChat_MissingMessage(t *testing.T) {
	router := newTestRouter(&fakeAnswers{}, &fakeCollections{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat_ServiceError(t *testing.T) {
	router := newTestRouter(&fakeAnswers{err: errors.New("cancelled")}, &fakeCollections{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"oi"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCollection_OK(t *testing.T) {
	router := newTestRouter(&fakeAnswers{}, &fakeCollections{
		resp: &models.CollectionResponse{Collection: "chatcotin_knowledge_1700000000", Chunks: 42},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/collection", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.CollectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 42, resp.Chunks)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&fakeAnswers{}, &fakeCollections{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
