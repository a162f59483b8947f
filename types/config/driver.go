package config

type StorageDriver int

const (
	Postgres StorageDriver = iota + 1
)

// String converts the StorageDriver enum to a human-readable string.
func (d StorageDriver) String() string {
	switch d {
	case Postgres:
		return "postgres"
	}
	return "unknown"
}

type CacheDriver int

const (
	Memory CacheDriver = iota + 1
	Redis
)

func (d CacheDriver) String() string {
	switch d {
	case Memory:
		return "memory"
	case Redis:
		return "redis"
	}
	return "unknown"
}
