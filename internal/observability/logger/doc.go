// Package logger expone un logger Zap único con scoping por contexto.
//
// Inicialización (una vez, en main):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
// En middlewares/services:
//
//	log := logger.From(ctx).With(logger.Op("auth.login"))
//	log.Info("login ok", logger.IdentityID(id), logger.TenantID(tid))
//
// Los middlewares HTTP inyectan un logger con request_id, identity_id y
// tenant_id; From(ctx) cae al singleton si no hay uno en el contexto.
package logger
