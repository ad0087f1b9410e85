package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/craftlink/identity-service/internal/api/metrics"
	"github.com/craftlink/identity-service/internal/core/domain"
	"github.com/craftlink/identity-service/internal/core/ports"
)

// ArtisanHandler exposes artisan-specific registration. Verification, login
// and token endpoints are shared with customers under /auth.
type ArtisanHandler struct {
	verification ports.VerificationService
}

func NewArtisanHandler(verification ports.VerificationService) *ArtisanHandler {
	return &ArtisanHandler{verification: verification}
}

type artisanRegisterRequest struct {
	registerRequest
	Address           string   `json:"address,omitempty"`
	City              string   `json:"city,omitempty"`
	State             string   `json:"state,omitempty"`
	ZipCode           string   `json:"zip_code,omitempty"`
	BusinessName      string   `json:"business_name" validate:"required"`
	BusinessLicense   string   `json:"business_license" validate:"required"`
	TaxID             string   `json:"tax_id,omitempty"`
	ServiceCategories []string `json:"service_categories" validate:"required,min=1"`
	ServiceAreas      []string `json:"service_areas" validate:"required,min=1"`
	Description       string   `json:"description,omitempty"`
	HourlyRate        float64  `json:"hourly_rate" validate:"omitempty,gte=0"`
	YearsOfExperience int      `json:"years_of_experience" validate:"omitempty,gte=0"`
	Qualifications    []string `json:"qualifications,omitempty"`
	MaxJobDistance    int      `json:"max_job_distance,omitempty" validate:"omitempty,gt=0"`
}

// Register creates a PENDING artisan account together with its business record.
//
// @Summary      Register a new artisan
// @Tags         artisan
// @Accept       json
// @Produce      json
// @Param        body  body      artisanRegisterRequest  true  "Artisan registration details"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /artisan/register [post]
func (h *ArtisanHandler) Register(c echo.Context) error {
	var req artisanRegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.verification.RegisterArtisan(c.Request().Context(), ports.ArtisanRegisterInput{
		RegisterInput: ports.RegisterInput{
			Email:       req.Email,
			Password:    req.Password,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			PhoneNumber: req.PhoneNumber,
			Role:        domain.RoleArtisan,
		},
		Address:           req.Address,
		City:              req.City,
		State:             req.State,
		ZipCode:           req.ZipCode,
		BusinessName:      req.BusinessName,
		BusinessLicense:   req.BusinessLicense,
		TaxID:             req.TaxID,
		ServiceCategories: req.ServiceCategories,
		ServiceAreas:      req.ServiceAreas,
		Description:       req.Description,
		HourlyRate:        req.HourlyRate,
		YearsOfExperience: req.YearsOfExperience,
		Qualifications:    req.Qualifications,
		MaxJobDistance:    req.MaxJobDistance,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(string(domain.RoleArtisan), registerResult(err)).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(string(domain.RoleArtisan), "created").Inc()
	return c.JSON(http.StatusCreated, messageResponse{
		Message: "artisan registered successfully, please verify your email using the code sent to you",
		Data:    result,
	})
}
