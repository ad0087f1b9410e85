package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/craftlink/identity-service/internal/core/domain"
	"github.com/craftlink/identity-service/internal/core/ports"
)

// AdminHandler exposes the administrative account mutations. All routes are
// mounted behind the Auth and RBAC(ADMIN) middleware.
type AdminHandler struct {
	admin ports.AdminService
}

func NewAdminHandler(admin ports.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

type listUsersResponse struct {
	Users []*domain.User `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type reviewArtisanRequest struct {
	Approved bool `json:"approved"`
}

// Suspend moves an ACTIVE account to SUSPENDED.
//
// @Summary      Suspend a user
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      422  {object}  map[string]string
// @Router       /admin/users/{id}/suspend [post]
func (h *AdminHandler) Suspend(c echo.Context) error {
	if err := h.admin.SuspendUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "user suspended"})
}

// Activate moves a SUSPENDED account back to ACTIVE.
//
// @Summary      Activate a user
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      422  {object}  map[string]string
// @Router       /admin/users/{id}/activate [post]
func (h *AdminHandler) Activate(c echo.Context) error {
	if err := h.admin.ActivateUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "user activated"})
}

// Ban moves an account to BANNED. Terminal for login purposes.
//
// @Summary      Ban a user
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      422  {object}  map[string]string
// @Router       /admin/users/{id}/ban [post]
func (h *AdminHandler) Ban(c echo.Context) error {
	if err := h.admin.BanUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "user banned"})
}

// ListUsers returns a page of users, optionally filtered by role and status.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Param        role    query     string  false  "Filter by role"
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  listUsersResponse
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	filter := ports.ListUsersFilter{
		Role:   domain.UserRole(c.QueryParam("role")),
		Status: domain.UserStatus(c.QueryParam("status")),
		Page:   max(page, 1),
		Limit:  limit,
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 100
	}

	users, total, err := h.admin.ListUsers(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return c.JSON(http.StatusOK, listUsersResponse{
		Users: users,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// ReviewArtisan approves or rejects an artisan's business verification.
//
// @Summary      Review an artisan
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "User id"
// @Param        body  body      reviewArtisanRequest  true  "Review outcome"
// @Success      200   {object}  messageResponse
// @Failure      422   {object}  map[string]string
// @Router       /admin/artisans/{id}/review [post]
func (h *AdminHandler) ReviewArtisan(c echo.Context) error {
	var req reviewArtisanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.admin.ReviewArtisan(c.Request().Context(), c.Param("id"), req.Approved); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "artisan review recorded"})
}
