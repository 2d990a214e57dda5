package controller

import (
	"strings"

	"matholymp/internal/registration/service"
	"matholymp/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// UserController handles user administration.
type UserController struct {
	svc *service.Service
}

func NewUserController(svc *service.Service) *UserController {
	return &UserController{svc: svc}
}

func (h *UserController) List(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

func (h *UserController) Create(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	user, password, err := h.svc.CreateUser(c.Request.Context(), req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	resp := CreateUserResponse{User: user}
	if req.Password == "" {
		resp.Password = password
	}
	response.Success(c, resp)
}

func (h *UserController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid user id")
		return
	}
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	user, err := h.svc.UpdateUser(c.Request.Context(), id, req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

func (h *UserController) Retire(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid user id")
		return
	}
	if err := h.svc.RetireUser(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "User retired", nil)
}

// UserRequest defines the user create/update payload. An empty password
// on create asks for a generated one.
type UserRequest struct {
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Email     string   `json:"email"`
	CountryID int64    `json:"country_id"`
	Roles     []string `json:"roles"`
}

func (r UserRequest) toInput() service.UserInput {
	return service.UserInput{
		Username:  strings.TrimSpace(r.Username),
		Password:  r.Password,
		Email:     strings.TrimSpace(r.Email),
		CountryID: r.CountryID,
		Roles:     r.Roles,
	}
}

// CreateUserResponse carries the generated password, shown once.
type CreateUserResponse struct {
	User     *service.UserView `json:"user"`
	Password string            `json:"password,omitempty"`
}
