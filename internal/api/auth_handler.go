package api

import (
	"alcyxob/strength-academy/internal/domain" // For domain.Role
	"alcyxob/strength-academy/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     domain.Role `json:"role" binding:"required,oneof=coach athlete"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new user (Coach or Athlete)
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration details"
// @Success 201 {object} UserResponse "User created successfully"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 409 {object} gin.H "Conflict (email already exists)"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// Login godoc
// @Summary Log in a user
// @Description Authenticates a user and returns a JWT token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 401 {object} gin.H "Unauthorized (invalid credentials)"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  MapUserToResponse(user),
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}
