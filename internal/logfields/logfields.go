package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPassID     = "pass_id"
	KeyProject    = "project"
	KeyDomain     = "domain"
	KeyTree       = "tree"
	KeyBackend    = "backend"
	KeyRecord     = "record"
	KeyLocator    = "locator"
	KeyPurpose    = "purpose"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func PassID(id string) slog.Attr      { return slog.String(KeyPassID, id) }
func Project(name string) slog.Attr   { return slog.String(KeyProject, name) }
func Domain(d string) slog.Attr       { return slog.String(KeyDomain, d) }
func Tree(t string) slog.Attr         { return slog.String(KeyTree, t) }
func Backend(b string) slog.Attr      { return slog.String(KeyBackend, b) }
func Record(name string) slog.Attr    { return slog.String(KeyRecord, name) }
func Locator(l string) slog.Attr      { return slog.String(KeyLocator, l) }
func Purpose(p string) slog.Attr      { return slog.String(KeyPurpose, p) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
