package generator

// Config drives the synthetic corpus generator.
type Config struct {
	NumOrganizations int
	NumPeople        int
	NumDocuments     int
	AliasChance      float64
	AcquireChance    float64
	PartnerChance    float64
	Seed             int64
}

// DefaultConfig returns baseline settings producing a corpus large enough to
// exercise fuzzy matching and multi-hop expansion.
func DefaultConfig() Config {
	return Config{
		NumOrganizations: 50,
		NumPeople:        120,
		NumDocuments:     40,
		AliasChance:      0.4,
		AcquireChance:    0.3,
		PartnerChance:    0.25,
		Seed:             42,
	}
}
