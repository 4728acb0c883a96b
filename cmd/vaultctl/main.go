package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ruteri/docvault/api"
	"github.com/ruteri/docvault/cmd/flags"
	"github.com/ruteri/docvault/transfer"
	"github.com/ruteri/docvault/vault"
	"github.com/urfave/cli/v2"
)

var flagServer = &cli.StringFlag{
	Name:    "server",
	EnvVars: []string{"DOCVAULT_SERVER"},
	Usage:   "vaultd address (e.g. http://127.0.0.1:8080); without it the --store locations are used directly",
}
var flagVault = &cli.StringFlag{
	Name:     "vault",
	Required: true,
	Usage:    "vault id or name",
}
var flagPassword = &cli.StringFlag{
	Name:     "password",
	Required: true,
	EnvVars:  []string{"DOCVAULT_PASSWORD"},
	Usage:    "vault password",
}
var flagFilePassword = &cli.StringFlag{
	Name:     "file-password",
	Required: true,
	EnvVars:  []string{"DOCVAULT_FILE_PASSWORD"},
	Usage:    "password the exported bundle was encrypted with",
}
var flagName = &cli.StringFlag{
	Name:     "name",
	Required: true,
	Usage:    "vault name",
}
var flagFormat = &cli.StringFlag{
	Name:  "format",
	Value: "text",
	Usage: "export format: 'text' (clipboard payload), 'json' (bundle) or 'chunks' (one visual-code chunk per line)",
}
var flagChunkSize = &cli.IntFlag{
	Name:  "chunk-size",
	Value: transfer.DefaultChunkSize,
	Usage: "characters of bundle per chunk",
}
var flagReplace = &cli.BoolFlag{
	Name:  "replace",
	Usage: "replace the contents of --vault instead of importing as a new vault; --password opens --vault",
}

const usage = "Manage password-protected document vaults"

func main() {
	app := &cli.App{
		Name:  "vaultctl",
		Usage: usage,
		Flags: append(append([]cli.Flag{flagServer}, flags.StoreFlags...), flags.LogFlags...),
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list vaults",
				Action: withOps(listVaults),
			},
			{
				Name:   "create",
				Usage:  "create a vault",
				Flags:  []cli.Flag{flagName, flagPassword},
				Action: withOps(createVault),
			},
			{
				Name:   "rename",
				Usage:  "rename a vault",
				Flags:  []cli.Flag{flagVault, flagPassword, flagName},
				Action: withOps(renameVault),
			},
			{
				Name:   "delete",
				Usage:  "delete a vault and its contents",
				Flags:  []cli.Flag{flagVault, flagPassword},
				Action: withOps(deleteVault),
			},
			{
				Name:   "verify",
				Usage:  "check a vault password",
				Flags:  []cli.Flag{flagVault, flagPassword},
				Action: withOps(verifyPassword),
			},
			{
				Name:   "migrate",
				Usage:  "adopt the legacy single-vault data as a vault",
				Action: withOps(migrate),
			},
			{
				Name:   "export",
				Usage:  "export a vault as a transfer bundle",
				Flags:  []cli.Flag{flagVault, flagPassword, flagFormat, flagChunkSize},
				Action: withOps(exportVault),
			},
			{
				Name:      "import",
				Usage:     "import a transfer bundle",
				ArgsUsage: "[file, '-' or none for stdin]",
				Flags: []cli.Flag{flagFilePassword, flagReplace,
					&cli.StringFlag{Name: flagVault.Name, Usage: flagVault.Usage},
					&cli.StringFlag{Name: flagPassword.Name, EnvVars: flagPassword.EnvVars, Usage: flagPassword.Usage},
				},
				Action: withOps(importVault),
			},
			{
				Name:   "signatures",
				Usage:  "list the signatures of a vault",
				Flags:  []cli.Flag{flagVault, flagPassword},
				Action: withOps(listSignatures),
			},
			{
				Name:   "templates",
				Usage:  "print the templates of a vault as JSON",
				Flags:  []cli.Flag{flagVault, flagPassword},
				Action: withOps(printTemplates),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// withOps connects to vaultd or opens the local store before running action.
func withOps(action func(cCtx *cli.Context, ops vaultOps) error) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		if server := cCtx.String(flagServer.Name); server != "" {
			return action(cCtx, &remoteOps{client: api.NewVaultClient(server)})
		}

		logger := flags.SetupLoggerTo(cCtx, cCtx.App.ErrWriter)
		store, err := flags.OpenStore(cCtx, logger)
		if err != nil {
			return err
		}
		ops := newLocalOps(vault.NewManager(store, logger))
		defer ops.session.Lock()
		return action(cCtx, ops)
	}
}

func unlockFlagged(cCtx *cli.Context, ops vaultOps) (api.VaultInfo, error) {
	v, err := resolveVault(cCtx.Context, ops, cCtx.String(flagVault.Name))
	if err != nil {
		return api.VaultInfo{}, err
	}
	return v, ops.Unlock(cCtx.Context, v.ID, cCtx.String(flagPassword.Name))
}

func listVaults(cCtx *cli.Context, ops vaultOps) error {
	vaults, err := ops.List(cCtx.Context)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cCtx.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED")
	for _, v := range vaults {
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.ID, v.Name, v.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func createVault(cCtx *cli.Context, ops vaultOps) error {
	v, err := ops.Create(cCtx.Context, cCtx.String(flagName.Name), cCtx.String(flagPassword.Name))
	if err != nil {
		return err
	}
	fmt.Fprintf(cCtx.App.Writer, "created %s (%s)\n", v.Name, v.ID)
	return nil
}

func renameVault(cCtx *cli.Context, ops vaultOps) error {
	v, err := resolveVault(cCtx.Context, ops, cCtx.String(flagVault.Name))
	if err != nil {
		return err
	}
	return ops.Rename(cCtx.Context, v.ID, cCtx.String(flagPassword.Name), cCtx.String(flagName.Name))
}

func deleteVault(cCtx *cli.Context, ops vaultOps) error {
	v, err := resolveVault(cCtx.Context, ops, cCtx.String(flagVault.Name))
	if err != nil {
		return err
	}
	if err := ops.Delete(cCtx.Context, v.ID, cCtx.String(flagPassword.Name)); err != nil {
		return err
	}
	fmt.Fprintf(cCtx.App.Writer, "deleted %s\n", v.Name)
	return nil
}

func verifyPassword(cCtx *cli.Context, ops vaultOps) error {
	v, err := resolveVault(cCtx.Context, ops, cCtx.String(flagVault.Name))
	if err != nil {
		return err
	}
	if err := ops.Verify(cCtx.Context, v.ID, cCtx.String(flagPassword.Name)); err != nil {
		return err
	}
	fmt.Fprintln(cCtx.App.Writer, "password ok")
	return nil
}

func migrate(cCtx *cli.Context, ops vaultOps) error {
	migrated, err := ops.Migrate(cCtx.Context)
	if err != nil {
		return err
	}
	if migrated {
		fmt.Fprintf(cCtx.App.Writer, "adopted legacy data as %q\n", vault.LegacyVaultName)
	} else {
		fmt.Fprintln(cCtx.App.Writer, "nothing to migrate")
	}
	return nil
}

func exportVault(cCtx *cli.Context, ops vaultOps) error {
	if _, err := unlockFlagged(cCtx, ops); err != nil {
		return err
	}
	encoded, err := ops.Export(cCtx.Context)
	if err != nil {
		return err
	}
	return writeBundle(cCtx.App.Writer, encoded, cCtx.String(flagFormat.Name), cCtx.Int(flagChunkSize.Name))
}

func writeBundle(w io.Writer, encoded, format string, chunkSize int) error {
	switch format {
	case "text":
		_, err := fmt.Fprintln(w, encoded)
		return err
	case "json":
		bundle, err := transfer.Decode(encoded)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(bundle)
	case "chunks":
		if chunkSize <= 0 {
			return fmt.Errorf("invalid chunk size %d", chunkSize)
		}
		_, err := fmt.Fprintln(w, strings.Join(transfer.Split(encoded, chunkSize), "\n"))
		return err
	}
	return fmt.Errorf("unknown export format %q", format)
}

func importVault(cCtx *cli.Context, ops vaultOps) error {
	text, err := readInput(cCtx)
	if err != nil {
		return err
	}

	filePassword := cCtx.String(flagFilePassword.Name)
	if !cCtx.Bool(flagReplace.Name) {
		v, err := ops.Import(cCtx.Context, text, filePassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(cCtx.App.Writer, "imported %s (%s)\n", v.Name, v.ID)
		return nil
	}

	if cCtx.String(flagVault.Name) == "" || cCtx.String(flagPassword.Name) == "" {
		return fmt.Errorf("--replace needs --%s and --%s", flagVault.Name, flagPassword.Name)
	}
	v, err := unlockFlagged(cCtx, ops)
	if err != nil {
		return err
	}
	if err := ops.Replace(cCtx.Context, text, filePassword, cCtx.String(flagPassword.Name)); err != nil {
		return err
	}
	fmt.Fprintf(cCtx.App.Writer, "replaced contents of %s\n", v.Name)
	return nil
}

func readInput(cCtx *cli.Context) (string, error) {
	var r io.Reader = cCtx.App.Reader
	if path := cCtx.Args().First(); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("could not read bundle: %w", err)
	}
	return string(data), nil
}

func listSignatures(cCtx *cli.Context, ops vaultOps) error {
	if _, err := unlockFlagged(cCtx, ops); err != nil {
		return err
	}
	signatures, err := ops.Signatures(cCtx.Context)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cCtx.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tCREATED")
	for _, s := range signatures {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Kind, s.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func printTemplates(cCtx *cli.Context, ops vaultOps) error {
	if _, err := unlockFlagged(cCtx, ops); err != nil {
		return err
	}
	store, err := ops.Templates(cCtx.Context)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cCtx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(store)
}
