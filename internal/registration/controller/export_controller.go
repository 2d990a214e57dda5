package controller

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"matholymp/internal/fileutil"
	"matholymp/internal/registration/service"
	"matholymp/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// ExportController serves the CSV, ZIP and RSS downloads.
type ExportController struct {
	svc *service.Service
}

func NewExportController(svc *service.Service) *ExportController {
	return &ExportController{svc: svc}
}

func (h *ExportController) serve(c *gin.Context, filename, contentType string, gen func(ctx context.Context) ([]byte, error)) {
	data, err := gen(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, contentType, data)
}

func (h *ExportController) CountriesCSV(c *gin.Context) {
	h.serve(c, "countries.csv", "text/csv; charset=utf-8", h.svc.CountriesCSV)
}

// PeopleCSV serves the public people list, or with ?private=1 the full
// one.
func (h *ExportController) PeopleCSV(c *gin.Context) {
	private := false
	if v := c.Query("private"); v != "" {
		b, err := fileutil.ParseBool(v)
		if err != nil {
			response.BadRequest(c, "Invalid private flag")
			return
		}
		private = b
	}
	name := "people.csv"
	if private {
		name = "people-private.csv"
	}
	h.serve(c, name, "text/csv; charset=utf-8", func(ctx context.Context) ([]byte, error) {
		return h.svc.PeopleCSV(ctx, private)
	})
}

func (h *ExportController) ScoresCSV(c *gin.Context) {
	h.serve(c, "scores.csv", "text/csv; charset=utf-8", h.svc.ScoresCSV)
}

func (h *ExportController) FlagsZIP(c *gin.Context) {
	h.serve(c, "flags.zip", "application/zip", h.svc.FlagsZIP)
}

func (h *ExportController) PhotosZIP(c *gin.Context) {
	h.serve(c, "photos.zip", "application/zip", h.svc.PhotosZIP)
}

// ScoresRSS serves the feed for every country, or for the country in the
// :id path parameter when present.
func (h *ExportController) ScoresRSS(c *gin.Context) {
	var countryID int64
	if c.Param("id") != "" {
		id, ok := parseIDParam(c, "id")
		if !ok {
			response.BadRequest(c, "Invalid country id")
			return
		}
		countryID = id
	}
	data, err := h.svc.ScoresRSS(c.Request.Context(), countryID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", data)
}

// CountryFeed serves /country<id>/scores-rss.xml, the feed link used in
// the RSS documents themselves.
func (h *ExportController) CountryFeed(c *gin.Context) {
	page := c.Param("page")
	id, err := strconv.ParseInt(strings.TrimPrefix(page, "country"), 10, 64)
	if !strings.HasPrefix(page, "country") || err != nil || id <= 0 {
		response.NotFound(c, "")
		return
	}
	data, err := h.svc.ScoresRSS(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", data)
}
