// Package repository define las interfaces de repositorio de dominio.
//
// Estas interfaces representan contratos de negocio, independientes del
// almacenamiento subyacente. Las implementaciones viven en internal/store/pg
// (PostgreSQL) e internal/store/memory (tests y desarrollo).
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────┐
//	│           Services / Controllers                    │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│        domain/repository (interfaces)               │
//	│  IdentityRepository, SessionRepository, Tenant...   │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	              ┌─────────┴─────────┐
//	              ▼                   ▼
//	       ┌─────────────┐     ┌─────────────┐
//	       │  store/pg   │     │store/memory │
//	       └─────────────┘     └─────────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Los datos de credenciales (identity, session, tenant) no pasan por RLS;
//     los datos de negocio (property, activity) solo se leen/escriben a través
//     de una conexión con contexto de tenant (ver infra/tenantsql)
//   - Errores de dominio están en errors.go
package repository
