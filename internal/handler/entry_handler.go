package handler

import (
	"net/url"
	"strings"

	"reel-quizzer/internal/domain"
	"reel-quizzer/internal/dto"
	"reel-quizzer/internal/logger"
	"reel-quizzer/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"go.uber.org/zap"
)

const banner = "Reel Quizzer backend is running. See /api/entries."

// defaultProfileHosts are the CDNs profile pictures may be proxied from.
var defaultProfileHosts = []string{"instagram.com", "cdninstagram.com", "fbcdn.net"}

const maxProfileRedirects = 5

// EntryHandler handles entry browsing HTTP requests
type EntryHandler struct {
	entries  service.EntryService
	attempts service.AttemptService

	profileHosts []string
}

// NewEntryHandler creates a new EntryHandler instance. attempts may be nil
// when no history store is configured.
func NewEntryHandler(entries service.EntryService, attempts service.AttemptService) *EntryHandler {
	return &EntryHandler{
		entries:      entries,
		attempts:     attempts,
		profileHosts: defaultProfileHosts,
	}
}

// Index handles GET /
func (h *EntryHandler) Index(c *fiber.Ctx) error {
	return c.SendString(banner)
}

// Health handles GET /api/health
func (h *EntryHandler) Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{OK: true, Entries: h.entries.Count()})
}

// ListEntries handles GET /api/entries
func (h *EntryHandler) ListEntries(c *fiber.Ctx) error {
	return c.JSON(h.entries.List())
}

// GetEntry handles GET /api/entry?id=
func (h *EntryHandler) GetEntry(c *fiber.Ctx) error {
	detail, err := h.entries.Get(c.Query("id"))
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

// ListAttempts handles GET /api/attempts?id=
func (h *EntryHandler) ListAttempts(c *fiber.Ctx) error {
	if h.attempts == nil {
		return domain.NewConfigurationError("Attempt history is not configured")
	}
	attempts, err := h.attempts.History(c.UserContext(), c.Query("id"))
	if err != nil {
		return err
	}
	return c.JSON(attempts)
}

// Reload handles POST /api/reload
func (h *EntryHandler) Reload(c *fiber.Ctx) error {
	n, err := h.entries.Reload(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.ReloadResponse{Entries: n})
}

// ProfilePic handles GET /api/profile-pic?id= by proxying the entry's
// profile picture from an allow-listed host.
func (h *EntryHandler) ProfilePic(c *fiber.Ctx) error {
	id := c.Query("id")
	picURL, err := h.entries.ProfilePicURL(id)
	if err != nil {
		return err
	}
	if !isAllowedProfileHost(picURL, h.profileHosts) {
		return domain.NewInvalidInputError("Profile host not permitted").WithContext("id", id)
	}

	c.Request().Header.Set(fiber.HeaderUserAgent, "Mozilla/5.0 (Reel Quizzer)")
	c.Request().Header.Set(fiber.HeaderAccept, "image/*")
	c.Request().Header.Del(fiber.HeaderCookie)
	if err := proxy.DoRedirects(c, picURL, maxProfileRedirects); err != nil {
		logger.Get().Error("Proxy profile-pic error", zap.String("id", id), zap.Error(err))
		return domain.NewTransportError("Proxy failed", err).WithContext("id", id)
	}

	status := c.Response().StatusCode()
	if status >= fiber.StatusBadRequest {
		return c.Status(status).JSON(dto.ErrorResponse{Error: "Failed to load image"})
	}
	if len(c.Response().Header.ContentType()) == 0 {
		c.Set(fiber.HeaderContentType, "image/jpeg")
	}
	c.Response().Header.Del(fiber.HeaderSetCookie)
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return nil
}

// isAllowedProfileHost accepts http(s) URLs on one of hosts or a subdomain of it.
func isAllowedProfileHost(raw string, hosts []string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	hostname := strings.ToLower(u.Hostname())
	for _, h := range hosts {
		if hostname == h || strings.HasSuffix(hostname, "."+h) {
			return true
		}
	}
	return false
}
