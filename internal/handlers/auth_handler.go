package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskdeck/internal/models"
	"taskdeck/internal/services"
)

type AuthHandler struct {
	auth services.AuthService
}

func NewAuthHandler(auth services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// @Summary      Log in
// @Description  Authenticates the user and returns an access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      401    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login] bad request: bind json failed: err=%v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.TrimSpace(req.Email)
	log.Printf("[auth][login] attempt email=%q", email)

	user, token, err := h.auth.Login(c.Request.Context(), email, strings.TrimSpace(req.Password))
	if err != nil {
		log.Printf("[auth][login][deny] email=%q: %v", email, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	log.Printf("[auth][login] success user=%s", user.ID)
	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"access_token": token,
	})
}

// @Summary      Register
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        register  body      models.RegisterRequest  true  "New account"
// @Success      201       {object}  models.User
// @Failure      400       {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.auth.Register(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		log.Printf("[auth][register][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, user)
}
