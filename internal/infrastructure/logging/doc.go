// Package logging provides the slog-backed structured logger used
// across Homelink Core. Packages that need logging declare their own
// small Logger interface with a no-op default; *logging.Logger
// satisfies all of them.
package logging
