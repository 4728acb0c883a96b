// Package main (cmd/vaultd) serves the local vault API.
//
// vaultd owns one vault session and exposes it over HTTP on a loopback
// address for a local frontend or for vaultctl --server. Vault payloads are
// encrypted before they reach the store, so any of the storage backends can
// hold them: a local directory, S3, an IPFS node, or a HashiCorp Vault KV
// mount. Several comma-separated locations are mirrored.
//
// On start the legacy single-vault layout, if present and no vault is
// registered yet, is adopted as a vault named "My Vault".
//
// On SIGINT or SIGTERM the server shuts down gracefully and locks the session.
//
// Example usage:
//
//	vaultd --listen-addr=127.0.0.1:8080 \
//	    --store=file://./docvault-data,s3://backup-bucket/vaults/?region=eu-west-1
package main
