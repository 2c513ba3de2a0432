package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/backup"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/config"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/store"
)

func newExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export presets, ambiences, history and draft to a backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "estudio-backup.json", "backup file path")
	return cmd
}

func newImportCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a backup file into the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(input)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "estudio-backup.json", "backup file path")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func openStore() (*store.Store, error) {
	cfg, err := config.LoadLocal(configPath)
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.DatabasePath)
}

func runExport(output string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	draft, err := st.LoadDraft()
	if err != nil {
		return err
	}
	payload, err := backup.Export(st, draft)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := payload.WriteTo(f); err != nil {
		return err
	}
	fmt.Printf("exported %d presets, %d ambiences, %d history entries to %s\n",
		len(payload.Presets), len(payload.Ambiences), len(payload.History), output)
	return nil
}

func runImport(input string) error {
	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	payload, err := backup.Parse(f)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	draft, err := backup.Apply(st, payload)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d presets, %d ambiences, %d history entries (draft: %v)\n",
		len(payload.Presets), len(payload.Ambiences), len(payload.History), draft != nil)
	return nil
}
