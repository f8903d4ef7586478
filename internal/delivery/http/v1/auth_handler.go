package v1

import (
	"net/http"

	"network20-backend/internal/delivery/http/response"
	"network20-backend/internal/domain"
	"network20-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUC domain.AuthUsecase
}

// NewAuthHandler registers the auth routes. limit guards the endpoints
// that reach the hosted auth server with credentials or emails.
func NewAuthHandler(group *gin.RouterGroup, authUC domain.AuthUsecase, limit gin.HandlerFunc) {
	handler := &AuthHandler{authUC: authUC}

	authGroup := group.Group("/auth")
	{
		authGroup.POST("/signup", limit, handler.Register)
		authGroup.POST("/login", limit, handler.Login)
		authGroup.POST("/forgot-password", limit, handler.ForgotPassword)
		authGroup.POST("/logout", handler.Logout)
		authGroup.GET("/me", handler.Me)
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"display_name"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Register godoc
// @Summary      Sign up
// @Description  Creates an account on the hosted backend. Without email confirmation the response carries a session.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        register  body      RegisterRequest  true  "Registration Details"
// @Success      201       {object}  response.Response
// @Failure      400       {object}  response.Response
// @Failure      503       {object}  response.Response
// @Router       /auth/signup [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	session, err := h.authUC.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		c.Error(err)
		return
	}

	message := "Account created"
	if session.AccessToken == "" {
		message = "Account created, check your email to confirm it"
	}
	response.Success(c, http.StatusCreated, message, session)
}

// Login godoc
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        login  body      LoginRequest  true  "Credentials"
// @Success      200    {object}  response.Response
// @Failure      400    {object}  response.Response
// @Failure      503    {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	session, err := h.authUC.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Signed in", session)
}

// Logout godoc
// @Summary      Sign out
// @Description  Revokes the bearer token's session on the hosted backend.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
// @Security     BearerAuth
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authUC.SignOut(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Signed out", nil)
}

// ForgotPassword godoc
// @Summary      Request a password reset email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      ForgotPasswordRequest  true  "Email"
// @Success      200      {object}  response.Response
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	if err := h.authUC.ResetPassword(c.Request.Context(), req.Email); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "If the address is registered, a reset link has been sent", nil)
}

// Me godoc
// @Summary      Signed-in user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /auth/me [get]
// @Security     BearerAuth
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authUC.GetCurrentAuthUser(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	if user == nil {
		c.Error(apperror.Unauthorized("Sign in required"))
		return
	}

	response.Success(c, http.StatusOK, "User retrieved", user)
}
