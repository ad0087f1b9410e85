package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/craftlink/identity-service/internal/core/domain"
	"github.com/craftlink/identity-service/internal/core/ports"
)

// OAuthHandler turns a validated provider profile into a local session.
// Provider redirect handling lives at the gateway; by the time a request
// reaches this endpoint the profile has been verified against the provider.
type OAuthHandler struct {
	oauth ports.OAuthService
}

func NewOAuthHandler(oauth ports.OAuthService) *OAuthHandler {
	return &OAuthHandler{oauth: oauth}
}

type oauthCallbackRequest struct {
	Provider    string `json:"provider" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	GivenName   string `json:"given_name,omitempty"`
	FamilyName  string `json:"family_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty" validate:"omitempty,url"`
	Role        string `json:"role,omitempty" validate:"omitempty,oneof=CUSTOMER ARTISAN"`
}

// Callback links or creates the account for an OAuth profile and issues tokens.
//
// @Summary      OAuth sign-in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      oauthCallbackRequest  true  "Verified provider profile"
// @Success      200   {object}  ports.Session
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /auth/oauth/callback [post]
func (h *OAuthHandler) Callback(c echo.Context) error {
	var req oauthCallbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.oauth.LinkOrCreate(c.Request().Context(), ports.OAuthProfile{
		Provider:    req.Provider,
		Email:       req.Email,
		GivenName:   req.GivenName,
		FamilyName:  req.FamilyName,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	}, domain.UserRole(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}
