package constants

// Advisory lock keys shared by all instances.
const (
	MigrationLock = iota
	RecoveryLock
	HousekeepingLock
)

var Locks = []int{
	MigrationLock,
	RecoveryLock,
	HousekeepingLock,
}

// Hard ceilings consumed by the lifecycle managers and the session engine.
const (
	MaxSessionRounds  = 20
	MaxParticipants   = 25
	MaxPollOptions    = 10
	MaxStakeIncrement = 1_000_000
)
