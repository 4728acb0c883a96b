// Package vault implements the password-protected vault lifecycle: creating,
// unlocking, locking, verifying, renaming and deleting vaults, the typed
// content accessors over an unlocked vault, export and import of transfer
// bundles, and the one-time migration of the legacy single-vault layout.
//
// A Manager is shared by everything that uses one store. It owns the registry
// and the per-key lock table, so it is safe for concurrent use. A Session is
// owned by a single holder (a UI, an HTTP server, a CLI invocation) and holds
// at most one decrypted vault:
//
//	m := vault.NewManager(store, logger)
//	if err := m.MigrateIfNeeded(ctx); err != nil { ... }
//
//	s := m.NewSession()
//	id, err := s.CreateVault(ctx, "Work", password)
//	sigs, err := s.GetSignatures()
//	s.Lock()
//
// Passwords are never stored. The only password check is the authentication
// tag of the encrypted payload: a vault that fails to decrypt reports
// interfaces.ErrWrongPassword.
package vault
