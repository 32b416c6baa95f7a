// Package cli implements carecratectl, the operator command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hongminglow/carecrate/internal/config"
	"github.com/hongminglow/carecrate/internal/storage"
	"github.com/hongminglow/carecrate/internal/storage/backend"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ErrEphemeralStore rejects STORE_DRIVER=memory, which would give every
// invocation its own empty store.
var ErrEphemeralStore = errors.New("carecratectl needs a persistent store: STORE_DRIVER=memory keeps no data between runs; use postgres")

// Opener connects to the configured store. Callers close the store.
type Opener func(ctx context.Context) (config.Config, storage.Store, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string
	open   Opener
}

// NewRootCommand creates the carecratectl root command backed by the
// environment's configuration.
func NewRootCommand() *cobra.Command {
	return newRootCommand(openFromEnv)
}

func newRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:          "carecratectl",
		Short:        "Operate a CareCrate pantry backend",
		Long:         "Query reports and waste logs and manage staff accounts directly against the configured store.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newReportCommand(opts))
	cmd.AddCommand(newWasteCommand(opts))
	cmd.AddCommand(newStaffCommand(opts))

	return cmd
}

func openFromEnv(ctx context.Context) (config.Config, storage.Store, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.StoreDriver == config.DriverMemory {
		return config.Config{}, nil, ErrEphemeralStore
	}
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, store, nil
}

// cliResponse is the JSON output envelope.
type cliResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// emit writes data as a JSON envelope or text as-is, per --format.
func (o *RootOptions) emit(w io.Writer, data any, text string) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cliResponse{Status: "ok", Data: data})
	}
	_, err := io.WriteString(w, text)
	return err
}
