package middleware

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/epd/epd/internal/platform/auth"
)

// AuditEntry records who looked at which patient data, and when.
type AuditEntry struct {
	Timestamp  time.Time
	RequestID  string
	TenantID   string
	UserID     string
	UserRoles  []string
	Method     string
	Path       string
	PatientID  string
	Period     string
	IPAddress  string
	StatusCode int
}

// Audit logs a "phi_access" line for every /api/v1 request after the
// handler ran. Refused and failed requests carry the status of their error. Handover overviews list many
// patients at once; the entry carries the requested period instead of a
// patient id for those.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			entry := newAuditEntry(c, err)
			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("tenant_id", entry.TenantID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("patient_id", entry.PatientID).
				Str("period", entry.Period).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Time("at", entry.Timestamp).
				Msg("phi_access")

			return err
		}
	}
}

func newAuditEntry(c echo.Context, err error) AuditEntry {
	req := c.Request()
	ctx := req.Context()
	entry := AuditEntry{
		Timestamp:  time.Now().UTC(),
		UserID:     auth.UserIDFromContext(ctx),
		UserRoles:  auth.RolesFromContext(ctx),
		Method:     req.Method,
		Path:       req.URL.Path,
		PatientID:  extractPatientID(req.URL.Path),
		Period:     c.QueryParam("period"),
		IPAddress:  c.RealIP(),
		StatusCode: responseStatus(c, err),
	}
	entry.RequestID, _ = c.Get("request_id").(string)
	entry.TenantID, _ = c.Get("tenant_id").(string)
	return entry
}

// extractPatientID finds the segment after "patients" in an API path.
func extractPatientID(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] != "patients" {
			continue
		}
		if _, err := uuid.Parse(segments[i+1]); err == nil {
			return segments[i+1]
		}
	}
	return ""
}
