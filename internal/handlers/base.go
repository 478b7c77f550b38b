package handlers

import (
	"context"

	"agreepoll/internal/middleware"
	"agreepoll/internal/models"
	"agreepoll/internal/services"

	"github.com/gin-gonic/gin"
)

// VoteStore is what the handlers need from the store. *services.VoteStore
// satisfies it.
type VoteStore interface {
	RecordVote(ctx context.Context, ip string, choice models.Choice) (services.RecordResult, error)
	GetAggregate(ctx context.Context) (models.Aggregate, error)
	ListRecent(ctx context.Context, limit int) ([]models.Vote, error)
	ExportAll(ctx context.Context, fn func(models.Vote) error) error
	Ping(ctx context.Context) error
}

var _ VoteStore = (*services.VoteStore)(nil)

// Render helper to inject common variables
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	obj["CurrentPath"] = c.Request.URL.Path
	obj["RequestID"] = middleware.GetRequestID(c)
	if _, ok := obj["PollTitle"]; !ok {
		obj["PollTitle"] = ""
	}

	c.HTML(code, name, obj)
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message})
}
