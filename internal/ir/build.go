package ir

// Build is the output of one (date, service) computation: the snapshot,
// the ordered segment keys and the identifiers a cache needs.
type Build struct {
	Service    ServiceType    `json:"service"`
	Date       string         `json:"date"`
	HebrewDate string         `json:"hebrew_date"`
	Conditions DateConditions `json:"conditions"`
	Segments   []string       `json:"segments"`

	// Content is Segments with groups expanded.
	Content []string `json:"content"`

	// Checksum is DateConditions.Checksum().
	Checksum string `json:"checksum"`

	// Key is BuildKey(Service, Conditions, Segments).
	Key string `json:"key"`
}
