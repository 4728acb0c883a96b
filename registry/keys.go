package registry

const (
	// RegistryKey holds the JSON list of vault descriptors.
	RegistryKey = "docvault.registry"

	payloadKeyPrefix = "docvault.vault."
)

// PayloadKey returns the storage key of the encrypted payload for vault id.
func PayloadKey(id string) string {
	return payloadKeyPrefix + id
}
