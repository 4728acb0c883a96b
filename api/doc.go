/*
Package api defines the wire types of the docvault local HTTP API, the server
configuration shared by the binaries, and VaultClient, the Go client for the
API served by cmd/vaultd.

The API is meant for a UI running on the same machine and listens on the
loopback interface by default. Requests and responses are JSON. Errors are
returned as

	{"error": "wrong password or corrupted vault"}

with a status code derived from the error kind:

  - 400 Bad Request: invalid names, templates, signatures, bundles or chunks
  - 401 Unauthorized: wrong password or corrupted vault
  - 404 Not Found: unknown vault or signature, missing payload
  - 409 Conflict: no vault is unlocked
  - 503 Service Unavailable: the storage backend is unreachable
  - 500 Internal Server Error: anything else

# Example Usage

	client := api.NewVaultClient("http://127.0.0.1:8080")

	vault, err := client.CreateVault(ctx, "Work", password)
	sig, err := client.AddSignature(ctx, api.SignatureRequest{Name: "Jane", ImageData: png, Kind: "draw"})
	export, err := client.Export(ctx, 600)
*/
package api
