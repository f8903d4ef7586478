package v1

import (
	"net/http"
	"strconv"

	"network20-backend/internal/delivery/http/response"
	"network20-backend/internal/domain"
	"network20-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	store domain.ProfileStore
}

func NewProfileHandler(group *gin.RouterGroup, store domain.ProfileStore) {
	handler := &ProfileHandler{store: store}

	profiles := group.Group("/profiles")
	{
		profiles.GET("", handler.List)
		profiles.POST("", handler.Create)
		profiles.DELETE("", handler.ClearAll)
		profiles.GET("/me", handler.Me)
		profiles.PUT("/me/pointer", handler.SetPointer)
		profiles.GET("/:id", handler.Get)
		profiles.PATCH("/:id", handler.Update)
		profiles.DELETE("/:id", handler.Delete)
	}
}

type SetPointerRequest struct {
	// An empty id clears the pointer
	ID string `json:"id"`
}

// ListProfiles godoc
// @Summary      List profiles
// @Description  Newest first. In remote mode only public profiles and the caller's own are returned.
// @Tags         profiles
// @Produce      json
// @Param        q          query     string  false  "Case-insensitive search over name, tagline, location, bio and skills"
// @Param        available  query     bool    false  "Only profiles open to work"
// @Success      200        {object}  response.Response
// @Router       /profiles [get]
func (h *ProfileHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	available, _ := strconv.ParseBool(c.Query("available"))

	var profiles []domain.Profile
	var err error
	switch q := c.Query("q"); {
	case q != "":
		profiles, err = h.store.SearchProfiles(ctx, q)
		if available {
			profiles = onlyAvailable(profiles)
		}
	case available:
		profiles, err = h.store.GetAvailableProfiles(ctx)
	default:
		profiles, err = h.store.GetProfiles(ctx)
	}
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Profiles retrieved", profiles)
}

func onlyAvailable(profiles []domain.Profile) []domain.Profile {
	out := make([]domain.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.IsAvailable {
			out = append(out, p)
		}
	}
	return out
}

// GetProfile godoc
// @Summary      Get a profile
// @Tags         profiles
// @Produce      json
// @Param        id   path      string  true  "Profile ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /profiles/{id} [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	p, err := h.store.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	if p == nil {
		c.Error(apperror.NotFound("Profile not found"))
		return
	}

	response.Success(c, http.StatusOK, "Profile retrieved", p)
}

// CreateProfile godoc
// @Summary      Create a profile
// @Description  Remote mode requires a bearer token; the new profile becomes the current user.
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        profile  body      domain.ProfileInsert  true  "Profile JSON"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /profiles [post]
// @Security     BearerAuth
func (h *ProfileHandler) Create(c *gin.Context) {
	var req domain.ProfileInsert
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	p, err := h.store.CreateProfile(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, "Profile created", p)
}

// UpdateProfile godoc
// @Summary      Update a profile
// @Description  Partial update; omitted fields are left untouched and an empty string clears a field.
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "Profile ID"
// @Param        profile  body      domain.ProfileUpdate  true  "Fields to change"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /profiles/{id} [patch]
// @Security     BearerAuth
func (h *ProfileHandler) Update(c *gin.Context) {
	var req domain.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	p, err := h.store.UpdateProfile(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}
	if p == nil {
		c.Error(apperror.NotFound("Profile not found"))
		return
	}

	response.Success(c, http.StatusOK, "Profile updated", p)
}

// DeleteProfile godoc
// @Summary      Delete a profile
// @Tags         profiles
// @Produce      json
// @Param        id   path      string  true  "Profile ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /profiles/{id} [delete]
// @Security     BearerAuth
func (h *ProfileHandler) Delete(c *gin.Context) {
	removed, err := h.store.DeleteProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	if !removed {
		c.Error(apperror.NotFound("Profile not found"))
		return
	}

	response.Success(c, http.StatusOK, "Profile deleted", nil)
}

// CurrentProfile godoc
// @Summary      Current user's profile
// @Description  The signed-in user's own profile in remote mode, else the profile the device pointer names.
// @Tags         profiles
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /profiles/me [get]
// @Security     BearerAuth
func (h *ProfileHandler) Me(c *gin.Context) {
	p, err := h.store.GetCurrentUser(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	if p == nil {
		c.Error(apperror.NotFound("No current user profile"))
		return
	}

	response.Success(c, http.StatusOK, "Current profile retrieved", p)
}

// SetCurrentPointer godoc
// @Summary      Set the current-user pointer
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        pointer  body      SetPointerRequest  true  "Profile ID, empty to clear"
// @Success      200      {object}  response.Response
// @Failure      409      {object}  response.Response  "Remote mode with per-request sessions"
// @Router       /profiles/me/pointer [put]
func (h *ProfileHandler) SetPointer(c *gin.Context) {
	var req SetPointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	if err := h.store.SetCurrentUserID(c.Request.Context(), req.ID); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Current user updated", gin.H{"id": req.ID})
}

// ClearProfiles godoc
// @Summary      Clear device-local profile data
// @Description  Removes the local profile list and pointer. Hosted data is never touched.
// @Tags         profiles
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response  "Remote mode without a signed-in caller"
// @Router       /profiles [delete]
// @Security     BearerAuth
func (h *ProfileHandler) ClearAll(c *gin.Context) {
	if err := h.store.ClearAllProfiles(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Local profile data cleared", nil)
}
