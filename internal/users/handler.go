package users

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docsort-backend/internal/shared/server/middleware"
	"docsort-backend/internal/shared/server/respond"
)

const (
	msgSignedUp             = "You have signed up successfully"
	msgAlreadyExists        = "User already exists"
	msgCredentialsMissing   = "Either the email or password field is missing."
	msgInvalidEmailPassword = "Invalid email or password"
)

type credentialsRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Handler serves the unauthenticated account routes.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/signup", h.signup)
	rg.POST("/login", h.login)
}

// MeHandler serves the profile of the authenticated account.
type MeHandler struct {
	Svc *Service
}

func NewMeHandler(svc *Service) *MeHandler {
	return &MeHandler{Svc: svc}
}

func (h *MeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

func (h *Handler) signup(c *gin.Context) {
	email, password, ok := bindCredentials(c)
	if !ok {
		return
	}

	user, err := h.Svc.Signup(c.Request.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyExists):
			respond.Error(c, http.StatusBadRequest, "conflict", msgAlreadyExists, nil)
		case errors.Is(err, ErrPasswordTooLong):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", msgCredentialsMissing, nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to sign up", nil)
		}
		return
	}

	c.Set("userId", user.ID)
	respond.Message(c, http.StatusCreated, msgSignedUp)
}

func (h *Handler) login(c *gin.Context) {
	email, password, ok := bindCredentials(c)
	if !ok {
		return
	}

	token, err := h.Svc.Login(c.Request.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			respond.Error(c, http.StatusUnauthorized, "unauthorized", msgInvalidEmailPassword, nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", msgCredentialsMissing, nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to log in", nil)
		}
		return
	}

	respond.OK(c, gin.H{"access_token": token})
}

func (h *MeHandler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"createdAt": user.CreatedAt,
	})
}

// bindCredentials writes the 400 response itself when it returns false.
func bindCredentials(c *gin.Context) (string, string, bool) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return "", "", false
	}
	if req.Email == nil || req.Password == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", msgCredentialsMissing, nil)
		return "", "", false
	}
	return *req.Email, *req.Password, true
}
