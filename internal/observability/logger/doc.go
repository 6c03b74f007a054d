// Package logger provee un logger Zap singleton con scoping por contexto.
//
// # Design Decisions
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada request HTTP o comando CLI puede tener su propio logger
//     "scoped" con campos adicionales (request_id, op, comment_id...) sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Levels: debug, info, warn, error (configurable via LOG_LEVEL).
//
// # Usage
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{
//	    Env:   cfg.App.Env,   // "dev" o "prod"
//	    Level: cfg.Log.Level, // "debug", "info", "warn", "error"
//	})
//	defer logger.Sync()
//
// En services (con contexto):
//
//	log := logger.From(ctx).With(logger.Component("moderation"), logger.Op("Decide"))
//	log.Info("decision applied", logger.CommentID(id), logger.Action("approve"))
//
// Sin contexto (fallback a singleton):
//
//	logger.L().Info("coralbridge started")
package logger
