// Package logger provides a singleton Zap logger with context-based scoping.
//
// Initialise once in main:
//
//	logger.Init(logger.Config{
//	    Env:   os.Getenv("APP_ENV"),   // "dev" or "prod"
//	    Level: os.Getenv("LOG_LEVEL"), // "debug", "info", "warn", "error"
//	})
//	defer logger.Sync()
//
// In handlers and services, prefer the request-scoped logger:
//
//	log := logger.From(ctx)
//	log.Info("challenge issued", logger.StateID(id))
//
// Without a context the singleton is the fallback:
//
//	logger.L().Info("gateway started")
package logger
