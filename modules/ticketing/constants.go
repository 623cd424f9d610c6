package ticketing

const (
	Version = "v0.1.0"

	// DBVersion tracks the migration set; bump together with migrations.
	DBVersion = 1

	// EventHashVersion identifies the events-hash serialization format.
	// Nodes only agree on cumulative hashes when they agree on this.
	EventHashVersion = 1
)
