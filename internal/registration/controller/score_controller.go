package controller

import (
	"net/http"
	"strconv"
	"strings"

	"matholymp/internal/registration/service"
	"matholymp/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// ScoreController handles scoring, event state and the scoreboard.
type ScoreController struct {
	svc *service.Service
}

func NewScoreController(svc *service.Service) *ScoreController {
	return &ScoreController{svc: svc}
}

func (h *ScoreController) EventStatus(c *gin.Context) {
	status, err := h.svc.EventStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

func (h *ScoreController) Lookups(c *gin.Context) {
	lookups, err := h.svc.Lookups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, lookups)
}

// AddArrivalPoint adds a place participants may choose as their arrival
// or departure point.
func (h *ScoreController) AddArrivalPoint(c *gin.Context) {
	var req ArrivalPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	if err := h.svc.AddArrivalPoint(c.Request.Context(), strings.TrimSpace(req.Name)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Arrival point added", nil)
}

func (h *ScoreController) EnterScores(c *gin.Context) {
	var req EnterScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	if err := h.svc.EnterScores(c.Request.Context(), req.CountryID, req.Problem, req.Scores); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Scores entered", nil)
}

func (h *ScoreController) SetMedalBoundaries(c *gin.Context) {
	var req MedalBoundariesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	if err := h.svc.SetMedalBoundaries(c.Request.Context(), req.Gold, req.Silver, req.Bronze); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Medal boundaries set", nil)
}

func (h *ScoreController) SetRegistration(c *gin.Context) {
	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	if err := h.svc.SetRegistrationEnabled(c.Request.Context(), *req.Enabled); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Registration status changed", nil)
}

func (h *ScoreController) Status(c *gin.Context) {
	report, err := h.svc.RegistrationStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, report)
}

// Scoreboard serves the cached JSON scoreboard as is.
func (h *ScoreController) Scoreboard(c *gin.Context) {
	data, err := h.svc.ScoreboardJSON(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (h *ScoreController) ScoreboardHTML(c *gin.Context) {
	text, err := h.svc.ScoreboardHTML(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(text))
}

// DisplayScoreboard serves one screen of the large-display scoreboard,
// starting at ?start=<n>.
func (h *ScoreController) DisplayScoreboard(c *gin.Context) {
	start := 0
	if v := c.Query("start"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.BadRequest(c, "Invalid start")
			return
		}
		start = n
	}
	text, err := h.svc.DisplayScoreboardHTML(c.Request.Context(), start)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(text))
}

// EnterScoresRequest maps contestant codes to scores; "" is unknown.
type EnterScoresRequest struct {
	CountryID int64             `json:"country_id" binding:"required"`
	Problem   int               `json:"problem" binding:"required"`
	Scores    map[string]string `json:"scores" binding:"required"`
}

type MedalBoundariesRequest struct {
	Gold   int `json:"gold"`
	Silver int `json:"silver"`
	Bronze int `json:"bronze"`
}

type ArrivalPointRequest struct {
	Name string `json:"name"`
}

type RegistrationRequest struct {
	Enabled *bool `json:"enabled"`
}
