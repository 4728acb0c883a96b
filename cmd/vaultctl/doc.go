// Package main (cmd/vaultctl) is the command-line client for document vaults.
//
// Without --server it opens the --store locations directly. With --server it
// drives the session of a running vaultd instead.
//
// Passwords are taken from flags or from DOCVAULT_PASSWORD and
// DOCVAULT_FILE_PASSWORD. Vaults are selected by id or by unique name.
//
// Example usage:
//
//	vaultctl --store=file://./docvault-data create --name=Work --password=...
//	vaultctl list
//	vaultctl export --vault=Work --format=chunks --chunk-size=600 > work.chunks
//	vaultctl import --file-password=... work.chunks
package main
