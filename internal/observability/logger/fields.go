package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

// DurationMs crea un campo con la duración en milisegundos.
func DurationMs(d time.Duration) zap.Field {
	return zap.Int64("duration_ms", d.Milliseconds())
}

// =================================================================================
// AUTH / TENANCY
// =================================================================================

// TenantID es el tenant (account) activo del request.
func TenantID(v string) zap.Field { return zap.String("tenant_id", v) }

// IdentityID es el usuario autenticado.
func IdentityID(v string) zap.Field { return zap.String("identity_id", v) }

func Role(v string) zap.Field { return zap.String("role", v) }

// Email: usar con cuidado en prod.
func Email(v string) zap.Field { return zap.String("email", v) }

// FailMode indica la política aplicada cuando falla el seteo de contexto.
func FailMode(v string) zap.Field { return zap.String("fail_mode", v) }

// =================================================================================
// SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }
func Count(v int64) zap.Field      { return zap.Int64("count", v) }
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
func String(key, v string) zap.Field { return zap.String(key, v) }
