// Package logger builds log/slog loggers for callgate services.
//
// New returns a JSON (or text) logger whose handler is wrapped by a context
// handler: every record is enriched with attributes pulled from the logging
// context by registered ContextExtractor functions, so request ids and
// session ids show up without threading them through call sites.
//
//	log := logger.New(
//		logger.WithService("callgate", "production"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "call denied", logger.CallName(name), logger.ConnID(id))
//
// NewFromConfig does the same from a Config loaded with the config package.
// Attribute helpers (Error, SessionID, UserID, CallName, ConnID, RequestID,
// Component, Duration) keep key names consistent across packages; helpers
// given empty values return an empty Attr which slog drops.
package logger
