package model

// Stats is a read-time projection over a set of credentials. It is never
// persisted.
type Stats struct {
	Total  int
	HasAny bool
}

// ComputeStats derives Stats from the given records.
func ComputeStats(records []Credential) Stats {
	return Stats{
		Total:  len(records),
		HasAny: len(records) > 0,
	}
}
