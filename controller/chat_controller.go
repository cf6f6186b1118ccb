package controller

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cotin/chatcotin/models"
)

// AnswerService is the query pipeline the controller delegates to.
// Satisfied by *services.AnswerService.
type AnswerService interface {
	Answer(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}

// CollectionInfo reports the promoted collection the query path reads from.
// Satisfied by *services.CollectionService.
type CollectionInfo interface {
	Current(ctx context.Context) (*models.CollectionResponse, error)
}

// ChatController handles the HTTP surface of the chatbot. It is thin
// plumbing: parse, delegate, encode.
type ChatController struct {
	answers     AnswerService
	collections CollectionInfo
}

// NewChatController creates a controller with its service dependencies.
func NewChatController(answers AnswerService, collections CollectionInfo) *ChatController {
	return &ChatController{answers: answers, collections: collections}
}

// Chat is the handler for POST /api/v1/chat.
func (c *ChatController) Chat(ctx *gin.Context) {
	var req models.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	requestID := uuid.New().String()
	log.Printf("CONTROLLER: [%s] chat request: %q (%d turns)", requestID, req.Message, len(req.Turns))

	response, err := c.answers.Answer(ctx.Request.Context(), req)
	if err != nil {
		log.Printf("CONTROLLER: [%s] request aborted: %v", requestID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate response"})
		return
	}

	if response.Degraded {
		log.Printf("CONTROLLER: [%s] degraded answer returned", requestID)
	}
	ctx.JSON(http.StatusOK, response)
}

// Collection is the handler for GET /api/v1/collection.
func (c *ChatController) Collection(ctx *gin.Context) {
	response, err := c.collections.Current(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to inspect collection"})
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// Health is the handler for GET /health.
func (c *ChatController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
