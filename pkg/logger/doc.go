// Package logger provides the structured logging interface used by every
// search component.
//
// It wraps zerolog and is always injected: there is no package-level logger,
// and components that receive a nil Logger fall back to NewNopLogger.
//
//	log, err := logger.New(&cfg.Logging)
//	log.WithField("site", "yelp").InfoWithFields("batch fetched", map[string]interface{}{
//	    "records": 10,
//	})
//
// Tests use NewTestLogger to capture and assert on emitted messages.
package logger
