package controllers

import (
	"errors"
	"net/http"

	"research-registry-api/middleware"
	"research-registry-api/models"
	"research-registry-api/services"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh,omitempty"`
	User    *models.User `json:"user,omitempty"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Login exchanges username (or email) and password for an access/refresh pair
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := services.NewAuthService(nil).Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate"})
		return
	}

	access, err := middleware.IssueToken(user, middleware.TokenTypeAccess)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	refresh, err := middleware.IssueToken(user, middleware.TokenTypeRefresh)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Access: access, Refresh: refresh, User: user})
}

// RefreshToken issues a new access token from a valid refresh token
func RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := middleware.ParseToken(req.Refresh, middleware.TokenTypeRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	user, err := services.NewAuthService(nil).FindUser(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	access, err := middleware.IssueToken(user, middleware.TokenTypeAccess)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Access: access})
}

// FacultySignup creates an account with an unapproved faculty profile
func FacultySignup(c *gin.Context) {
	var req services.FacultySignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	faculty, err := services.NewAuthService(nil).SignupFaculty(c.Request.Context(), &req)
	switch {
	case errors.Is(err, services.ErrSignupFieldsRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username, password, and email are required."})
		return
	case errors.Is(err, services.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Enter a valid email address."})
		return
	case errors.Is(err, services.ErrUsernameTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists."})
		return
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists."})
		return
	case errors.Is(err, services.ErrFacultyIDTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Faculty ID already exists."})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Faculty account created. Awaiting approval.",
		"faculty_id": faculty.FacultyID,
	})
}
