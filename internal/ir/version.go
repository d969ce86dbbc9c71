package ir

// Version constants for the registry format and the engine.
const (
	// RegistryFormat is the configuration schema version folded into
	// registry digests.
	RegistryFormat = "1"

	// EngineVersion is the siddur engine version.
	EngineVersion = "0.1.0"
)
