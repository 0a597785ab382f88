// Package log builds the slog loggers used by npocrawl.
//
// Every logger returned here is wrapped in a SecureHandler, which masks
// credentials before they reach the output:
//   - attributes whose key names a credential (cookie, authorization,
//     token, password and similar)
//   - values that look like bearer, basic or JWT credentials
//   - passwords in URL userinfo and credential query parameters of any
//     URL-valued attribute
//
// The crawler logs every URL it visits, and directory sites sometimes carry
// session identifiers in query strings, so URL masking is applied to every
// string attribute that parses as an absolute http(s) URL.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("fetch failed", "url", "https://example.org/a?sid=42")
//	// url=https://example.org/a?sid=***REDACTED***
//
//	slog.SetDefault(logger)
package log
