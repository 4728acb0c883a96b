package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ruteri/docvault/api"
	"github.com/ruteri/docvault/interfaces"
	"github.com/ruteri/docvault/transfer"
	"github.com/ruteri/docvault/vault"
)

var errRemoteMigrate = errors.New("migration runs against a local store; vaultd migrates on start")

// vaultOps is what the subcommands need, served either by a local store or
// by a running vaultd.
type vaultOps interface {
	List(ctx context.Context) ([]api.VaultInfo, error)
	Create(ctx context.Context, name, password string) (api.VaultInfo, error)
	Unlock(ctx context.Context, id, password string) error
	Verify(ctx context.Context, id, password string) error
	Rename(ctx context.Context, id, password, newName string) error
	Delete(ctx context.Context, id, password string) error

	// Export, Replace, Signatures and Templates act on the unlocked vault.
	Export(ctx context.Context) (string, error)
	Import(ctx context.Context, text, password string) (api.VaultInfo, error)
	Replace(ctx context.Context, text, filePassword, activePassword string) error
	Signatures(ctx context.Context) ([]interfaces.SignatureRecord, error)
	Templates(ctx context.Context) (interfaces.TemplatesStore, error)

	Migrate(ctx context.Context) (bool, error)
}

type localOps struct {
	manager *vault.Manager
	session *vault.Session
}

func newLocalOps(manager *vault.Manager) *localOps {
	return &localOps{manager: manager, session: manager.NewSession()}
}

func (o *localOps) List(ctx context.Context) ([]api.VaultInfo, error) {
	descriptors, err := o.session.GetRegistry(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]api.VaultInfo, 0, len(descriptors))
	for _, d := range descriptors {
		infos = append(infos, api.NewVaultInfo(d))
	}
	return infos, nil
}

func (o *localOps) Create(ctx context.Context, name, password string) (api.VaultInfo, error) {
	d, err := o.session.CreateVault(ctx, name, password)
	if err != nil {
		return api.VaultInfo{}, err
	}
	return api.NewVaultInfo(d), nil
}

func (o *localOps) Unlock(ctx context.Context, id, password string) error {
	return o.session.Unlock(ctx, id, password)
}

func (o *localOps) Verify(ctx context.Context, id, password string) error {
	return o.session.VerifyPassword(ctx, id, password)
}

func (o *localOps) Rename(ctx context.Context, id, password, newName string) error {
	return o.session.RenameVault(ctx, id, password, newName)
}

func (o *localOps) Delete(ctx context.Context, id, password string) error {
	return o.session.DeleteVault(ctx, id, password)
}

func (o *localOps) Export(ctx context.Context) (string, error) {
	bundle, err := o.session.ExportVault(ctx)
	if err != nil {
		return "", err
	}
	return transfer.Encode(bundle)
}

func (o *localOps) Import(ctx context.Context, text, password string) (api.VaultInfo, error) {
	bundle, err := transfer.Parse(text)
	if err != nil {
		return api.VaultInfo{}, err
	}
	d, err := o.session.ImportVaultAsNew(ctx, bundle, password)
	if err != nil {
		return api.VaultInfo{}, err
	}
	return api.NewVaultInfo(d), nil
}

func (o *localOps) Replace(ctx context.Context, text, filePassword, activePassword string) error {
	bundle, err := transfer.Parse(text)
	if err != nil {
		return err
	}
	return o.session.ReplaceVaultWithImport(ctx, bundle, filePassword, activePassword)
}

func (o *localOps) Signatures(ctx context.Context) ([]interfaces.SignatureRecord, error) {
	return o.session.GetSignatures()
}

func (o *localOps) Templates(ctx context.Context) (interfaces.TemplatesStore, error) {
	return o.session.GetTemplatesStore()
}

func (o *localOps) Migrate(ctx context.Context) (bool, error) {
	return o.manager.MigrateIfNeeded(ctx)
}

// remoteOps drives the session of a running vaultd. Commands that unlock a
// vault leave it unlocked there, as the frontend would.
type remoteOps struct {
	client *api.VaultClient
}

func (o *remoteOps) List(ctx context.Context) ([]api.VaultInfo, error) {
	return o.client.ListVaults(ctx)
}

func (o *remoteOps) Create(ctx context.Context, name, password string) (api.VaultInfo, error) {
	info, err := o.client.CreateVault(ctx, name, password)
	if err != nil {
		return api.VaultInfo{}, err
	}
	return *info, nil
}

func (o *remoteOps) Unlock(ctx context.Context, id, password string) error {
	return o.client.Unlock(ctx, id, password)
}

func (o *remoteOps) Verify(ctx context.Context, id, password string) error {
	return o.client.VerifyPassword(ctx, id, password)
}

func (o *remoteOps) Rename(ctx context.Context, id, password, newName string) error {
	return o.client.RenameVault(ctx, id, password, newName)
}

func (o *remoteOps) Delete(ctx context.Context, id, password string) error {
	return o.client.DeleteVault(ctx, id, password)
}

func (o *remoteOps) Export(ctx context.Context) (string, error) {
	resp, err := o.client.Export(ctx, 0)
	if err != nil {
		return "", err
	}
	return resp.Bundle, nil
}

func (o *remoteOps) Import(ctx context.Context, text, password string) (api.VaultInfo, error) {
	info, err := o.client.Import(ctx, text, password)
	if err != nil {
		return api.VaultInfo{}, err
	}
	return *info, nil
}

func (o *remoteOps) Replace(ctx context.Context, text, filePassword, activePassword string) error {
	return o.client.ReplaceWithImport(ctx, api.ReplaceImportRequest{
		Bundle:         text,
		FilePassword:   filePassword,
		ActivePassword: activePassword,
	})
}

func (o *remoteOps) Signatures(ctx context.Context) ([]interfaces.SignatureRecord, error) {
	return o.client.Signatures(ctx)
}

func (o *remoteOps) Templates(ctx context.Context) (interfaces.TemplatesStore, error) {
	store, err := o.client.Templates(ctx)
	if err != nil {
		return interfaces.TemplatesStore{}, err
	}
	return *store, nil
}

func (o *remoteOps) Migrate(ctx context.Context) (bool, error) {
	return false, errRemoteMigrate
}

// resolveVault finds a vault by id, or by name when the name is unique.
func resolveVault(ctx context.Context, ops vaultOps, ref string) (api.VaultInfo, error) {
	vaults, err := ops.List(ctx)
	if err != nil {
		return api.VaultInfo{}, err
	}

	var byName []api.VaultInfo
	for _, v := range vaults {
		if v.ID == ref {
			return v, nil
		}
		if strings.EqualFold(v.Name, ref) {
			byName = append(byName, v)
		}
	}

	switch len(byName) {
	case 0:
		return api.VaultInfo{}, fmt.Errorf("%w: %s", interfaces.ErrVaultNotFound, ref)
	case 1:
		return byName[0], nil
	}
	return api.VaultInfo{}, fmt.Errorf("%d vaults are named %q, use the id", len(byName), ref)
}
