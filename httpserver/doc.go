/*
Package httpserver serves the docvault local API.

The server owns a single vault.Session, so every client of one server shares
the same locked or unlocked state, the way a single UI would. It is meant to
listen on a loopback address; passwords travel in request bodies.

API Endpoints:

	GET    /api/status                 session status
	GET    /api/vaults                 list vaults
	POST   /api/vaults                 create a vault and unlock it
	POST   /api/vaults/{id}/unlock     unlock a vault
	POST   /api/vaults/{id}/verify     check a password without unlocking
	POST   /api/vaults/{id}/rename     rename a vault (password required)
	DELETE /api/vaults/{id}            delete a vault (password required)
	POST   /api/lock                   lock the session
	GET    /api/templates              templates of the open vault
	PUT    /api/templates              replace the templates of the open vault
	GET    /api/signatures             signatures of the open vault
	POST   /api/signatures             add a signature
	DELETE /api/signatures/{id}        remove a signature
	GET    /api/export[?chunk=N]       export the open vault, optionally as chunks
	POST   /api/import                 import a bundle as a new vault
	POST   /api/import/replace         replace the open vault's contents with a bundle
	POST   /api/transfer/chunks        feed one scanned chunk to the receiver
	DELETE /api/transfer/chunks        forget the scanned chunks

Health and diagnostics:

	GET /livez, /readyz, /drain, /undrain
	/debug/pprof/* when pprof is enabled

Request and response bodies are the types of package api.
*/
package httpserver
