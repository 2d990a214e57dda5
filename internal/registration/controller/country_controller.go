package controller

import (
	"strings"

	"matholymp/internal/registration/service"
	"matholymp/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// CountryController handles country endpoints.
type CountryController struct {
	svc *service.Service
}

func NewCountryController(svc *service.Service) *CountryController {
	return &CountryController{svc: svc}
}

func (h *CountryController) List(c *gin.Context) {
	countries, err := h.svc.ListCountries(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, countries)
}

func (h *CountryController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid country id")
		return
	}
	country, err := h.svc.GetCountry(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, country)
}

func (h *CountryController) Create(c *gin.Context) {
	var req CountryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	result, err := h.svc.CreateCountry(c.Request.Context(), req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CountryController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid country id")
		return
	}
	var req CountryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	country, err := h.svc.UpdateCountry(c.Request.Context(), id, req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, country)
}

func (h *CountryController) Retire(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid country id")
		return
	}
	if err := h.svc.RetireCountry(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Country retired", nil)
}

// CountryRequest defines the country create/update payload.
type CountryRequest struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Official      *bool    `json:"official"`
	GenericURL    string   `json:"generic_url"`
	ContactEmails []string `json:"contact_emails"`
	FlagFileID    *int64   `json:"flag_file_id"`
}

func (r CountryRequest) toInput() service.CountryInput {
	return service.CountryInput{
		Code:          strings.TrimSpace(r.Code),
		Name:          strings.TrimSpace(r.Name),
		Official:      r.Official,
		GenericURL:    strings.TrimSpace(r.GenericURL),
		ContactEmails: r.ContactEmails,
		FlagFileID:    r.FlagFileID,
	}
}
