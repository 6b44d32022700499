// Package logging builds the zap logger shared by the service.
//
// Production logs are JSON with a service field; development logs are
// colored console lines. Components receive the embedded *zap.Logger and
// name themselves, so trace, probe and render output can be filtered per
// subsystem:
//
//	logger := logging.FromLevel("gitbook", "info", false)
//	probeLog := logger.Named("probe")
package logging
