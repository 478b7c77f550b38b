package handlers

import (
	"encoding/csv"
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"time"

	"agreepoll/internal/middleware"
	"agreepoll/internal/models"
	"agreepoll/internal/utils"

	"github.com/gin-gonic/gin"
)

// csvTimeLayout is ISO-8601 in UTC with millisecond precision.
const csvTimeLayout = "2006-01-02T15:04:05.000Z07:00"

var csvHeader = []string{"ip", "choice", "created_at"}

type AdminHandler struct {
	store       VoteStore
	title       string
	recentLimit int
}

func NewAdminHandler(store VoteStore, title string, recentLimit int) *AdminHandler {
	return &AdminHandler{
		store:       store,
		title:       title,
		recentLimit: recentLimit,
	}
}

type adminStats struct {
	Total     int64 `json:"total"`
	Agree     int64 `json:"agree"`
	Oppose    int64 `json:"oppose"`
	AgreePct  int   `json:"agree_pct"`
	OpposePct int   `json:"oppose_pct"`
}

func newAdminStats(agg models.Aggregate) adminStats {
	return adminStats{
		Total:     agg.Total,
		Agree:     agg.Agree,
		Oppose:    agg.Oppose,
		AgreePct:  agg.AgreePercent(),
		OpposePct: agg.OpposePercent(),
	}
}

type adminJSON struct {
	adminStats
	Recent []models.Vote `json:"recent"`
}

func wantsJSON(c *gin.Context) bool {
	if c.Query("format") == "json" {
		return true
	}
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

func (h *AdminHandler) fail(c *gin.Context, what string, err error) {
	log.Printf("admin error: request_id=%s %s: %v", middleware.GetRequestID(c), what, err)
	if wantsJSON(c) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	RenderError(c, http.StatusInternalServerError, "Internal Server Error")
}

// Dashboard shows totals, percentages and the latest votes
func (h *AdminHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	agg, err := h.store.GetAggregate(ctx)
	if err != nil {
		h.fail(c, "aggregate", err)
		return
	}

	limit := h.recentLimit
	if n := utils.StringToInt(c.Query("limit")); n > 0 {
		limit = n
	}
	recent, err := h.store.ListRecent(ctx, limit)
	if err != nil {
		h.fail(c, "recent votes", err)
		return
	}

	stats := newAdminStats(agg)
	if wantsJSON(c) {
		if recent == nil {
			recent = []models.Vote{}
		}
		c.JSON(http.StatusOK, adminJSON{adminStats: stats, Recent: recent})
		return
	}

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		h.fail(c, "encode stats", err)
		return
	}

	Render(c, http.StatusOK, "admin.html", gin.H{
		"PollTitle": h.title,
		"Stats":     stats,
		"StatsJSON": template.JS(statsJSON),
		"Recent":    recent,
		"Key":       c.Query("key"),
	})
}

// Export streams every vote as votes.csv. The header row is always sent;
// a store failure before anything was written becomes a 500.
func (h *AdminHandler) Export(c *gin.Context) {
	var w *csv.Writer
	begin := func() error {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="votes.csv"`)
		c.Status(http.StatusOK)
		w = csv.NewWriter(c.Writer)
		return w.Write(csvHeader)
	}

	rows := 0
	err := h.store.ExportAll(c.Request.Context(), func(v models.Vote) error {
		if w == nil {
			if err := begin(); err != nil {
				return err
			}
		}
		rows++
		return w.Write([]string{v.IP, string(v.Choice), formatCSVTime(v.CreatedAt)})
	})
	if err != nil {
		if w == nil {
			log.Printf("export error: request_id=%s: %v", middleware.GetRequestID(c), err)
			c.String(http.StatusInternalServerError, "Internal Server Error")
			return
		}
		// headers are gone already; all we can do is cut the stream short
		log.Printf("export aborted: request_id=%s rows=%d: %v", middleware.GetRequestID(c), rows, err)
		w.Flush()
		return
	}

	if w == nil {
		if err := begin(); err != nil {
			log.Printf("export error: request_id=%s: %v", middleware.GetRequestID(c), err)
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Printf("export flush error: request_id=%s: %v", middleware.GetRequestID(c), err)
	}
}

func formatCSVTime(t time.Time) string {
	return t.UTC().Format(csvTimeLayout)
}
