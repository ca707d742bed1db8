package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// StorageChecker checks that a file tree (daily inputs or crossover outputs) is reachable.
type StorageChecker interface {
	Check(ctx context.Context) error
}
