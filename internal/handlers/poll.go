package handlers

import (
	"html/template"
	"log"
	"net/http"
	"strings"

	"agreepoll/internal/middleware"
	"agreepoll/internal/models"
	"agreepoll/internal/services"
	"agreepoll/internal/utils"

	"github.com/gin-gonic/gin"
)

type PollHandler struct {
	store VoteStore
	title string
	body  template.HTML
}

func NewPollHandler(store VoteStore, title, bodyMarkdown string) *PollHandler {
	return &PollHandler{
		store: store,
		title: title,
		body:  utils.RenderMarkdown(bodyMarkdown),
	}
}

// Home renders the voting page
func (h *PollHandler) Home(c *gin.Context) {
	Render(c, http.StatusOK, "index.html", gin.H{
		"PollTitle": h.title,
		"PollBody":  h.body,
	})
}

// Vote records the visitor's choice. Anything other than agree/oppose is a
// 400. Store faults are logged and the visitor still lands on /thanks.
func (h *PollHandler) Vote(c *gin.Context) {
	choice, ok := models.ParseChoice(strings.TrimSpace(c.PostForm("choice")))
	if !ok {
		c.String(http.StatusBadRequest, "invalid choice")
		return
	}

	ip := middleware.ClientIP(c)
	result, err := h.store.RecordVote(c.Request.Context(), ip, choice)
	if err != nil {
		log.Printf("vote error: request_id=%s ip=%s: %v", middleware.GetRequestID(c), ip, err)
		c.Redirect(http.StatusFound, "/thanks")
		return
	}

	if result == services.Ignored {
		c.Redirect(http.StatusFound, "/thanks?already=1")
		return
	}
	c.Redirect(http.StatusFound, "/thanks")
}

// Thanks renders the acknowledgment page
func (h *PollHandler) Thanks(c *gin.Context) {
	Render(c, http.StatusOK, "thanks.html", gin.H{
		"PollTitle": h.title,
		"Already":   c.Query("already") == "1",
	})
}
