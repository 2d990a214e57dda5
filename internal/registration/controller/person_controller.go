package controller

import (
	"strconv"

	"matholymp/internal/registration/service"
	"matholymp/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// PersonController handles participant endpoints.
type PersonController struct {
	svc *service.Service
}

func NewPersonController(svc *service.Service) *PersonController {
	return &PersonController{svc: svc}
}

// List returns everyone, or the people of ?country=<id>.
func (h *PersonController) List(c *gin.Context) {
	var countryID int64
	if v := c.Query("country"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			response.BadRequest(c, "Invalid country id")
			return
		}
		countryID = id
	}
	people, err := h.svc.ListPeople(c.Request.Context(), countryID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, people)
}

func (h *PersonController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid person id")
		return
	}
	person, err := h.svc.GetPerson(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, person)
}

func (h *PersonController) Create(c *gin.Context) {
	var req PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	in, err := req.toInput()
	if err != nil {
		response.Error(c, err)
		return
	}
	person, err := h.svc.CreatePerson(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, person)
}

func (h *PersonController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid person id")
		return
	}
	var req PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	in, err := req.toInput()
	if err != nil {
		response.Error(c, err)
		return
	}
	person, err := h.svc.UpdatePerson(c.Request.Context(), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, person)
}

func (h *PersonController) Retire(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid person id")
		return
	}
	if err := h.svc.RetirePerson(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Person retired", nil)
}

// PersonRequest defines the person create/update payload. Dates are
// YYYY-MM-DD and times HH:MM.
type PersonRequest struct {
	CountryID   int64    `json:"country_id"`
	GivenName   string   `json:"given_name"`
	FamilyName  string   `json:"family_name"`
	Gender      string   `json:"gender"`
	PrimaryRole string   `json:"primary_role"`
	OtherRoles  []string `json:"other_roles"`
	GuideFor    []int64  `json:"guide_for"`
	Languages   []string `json:"languages"`
	DateOfBirth string   `json:"date_of_birth"`
	Diet        string   `json:"diet"`
	TShirt      string   `json:"tshirt"`

	ArrivalPlace    string `json:"arrival_place"`
	ArrivalDate     string `json:"arrival_date"`
	ArrivalTime     string `json:"arrival_time"`
	ArrivalFlight   string `json:"arrival_flight"`
	DeparturePlace  string `json:"departure_place"`
	DepartureDate   string `json:"departure_date"`
	DepartureTime   string `json:"departure_time"`
	DepartureFlight string `json:"departure_flight"`

	RoomNumber         string   `json:"room_number"`
	PhoneNumber        string   `json:"phone_number"`
	PassportNumber     string   `json:"passport_number"`
	Nationality        string   `json:"nationality"`
	EventPhotosConsent *bool    `json:"event_photos_consent"`
	GenericURL         string   `json:"generic_url"`
	ExtraAwards        []string `json:"extra_awards"`
	PhotoFileID        *int64   `json:"photo_file_id"`
	ConsentFormFileID  *int64   `json:"consent_form_file_id"`
}

func (r PersonRequest) toInput() (service.PersonInput, error) {
	in := service.PersonInput{
		CountryID:          r.CountryID,
		GivenName:          r.GivenName,
		FamilyName:         r.FamilyName,
		Gender:             r.Gender,
		PrimaryRole:        r.PrimaryRole,
		OtherRoles:         r.OtherRoles,
		GuideFor:           r.GuideFor,
		Languages:          r.Languages,
		Diet:               r.Diet,
		TShirt:             r.TShirt,
		ArrivalPlace:       r.ArrivalPlace,
		ArrivalFlight:      r.ArrivalFlight,
		DeparturePlace:     r.DeparturePlace,
		DepartureFlight:    r.DepartureFlight,
		RoomNumber:         r.RoomNumber,
		PhoneNumber:        r.PhoneNumber,
		PassportNumber:     r.PassportNumber,
		Nationality:        r.Nationality,
		EventPhotosConsent: r.EventPhotosConsent,
		GenericURL:         r.GenericURL,
		ExtraAwards:        r.ExtraAwards,
		PhotoFileID:        r.PhotoFileID,
		ConsentFormFileID:  r.ConsentFormFileID,
	}
	var err error
	if in.DateOfBirth, err = optionalDate("date_of_birth", r.DateOfBirth); err != nil {
		return in, err
	}
	if in.ArrivalDate, err = optionalDate("arrival_date", r.ArrivalDate); err != nil {
		return in, err
	}
	if in.DepartureDate, err = optionalDate("departure_date", r.DepartureDate); err != nil {
		return in, err
	}
	if in.ArrivalTime, err = optionalTime("arrival_time", r.ArrivalTime); err != nil {
		return in, err
	}
	if in.DepartureTime, err = optionalTime("departure_time", r.DepartureTime); err != nil {
		return in, err
	}
	return in, nil
}
