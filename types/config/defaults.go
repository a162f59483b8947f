package config

import "time"

const (
	DefaultWorkerCount      = 4
	DefaultHousekeepingSpec = "@every 1m"
	DefaultMutedRole        = "muted"
	DefaultSignupGrace      = 8 * time.Second
	DefaultAuditQueue       = "guildwarden.audit"

	DefaultStorageDriver = Postgres
	DefaultCacheDriver   = Memory
)
