package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "rolegate.backend/internal/domain/errors"
	"rolegate.backend/internal/interfaces/http/response"
	"rolegate.backend/pkg/crypto"
	"rolegate.backend/pkg/jwt"
)

// AuthHandler exchanges the operator password for a bearer token.
type AuthHandler struct {
	jwtService   *jwt.Service
	passwordHash string
}

func NewAuthHandler(jwtService *jwt.Service, passwordHash string) *AuthHandler {
	return &AuthHandler{
		jwtService:   jwtService,
		passwordHash: passwordHash,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest("username and password are required"))
		return
	}

	if h.passwordHash == "" {
		response.Error(c, domainerrors.Unauthorized("operator login is not provisioned"))
		return
	}

	if !crypto.CheckPassword(req.Password, h.passwordHash) {
		response.Error(c, domainerrors.Unauthorized("invalid credentials"))
		return
	}

	token, err := h.jwtService.Generate(req.Username)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, loginResponse{Token: token})
}
