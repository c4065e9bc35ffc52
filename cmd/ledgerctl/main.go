// ledgerctl herramienta de operación del libro: migraciones, datos iniciales, vencimiento
// de lotes, importación de catálogo y emisión de tokens.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Trazabilidad-api/pkg/config"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

var (
	cfg *config.Config
	log *logger.Logger

	rootCmd = &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operación del libro de trazabilidad",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(migrateCmd(), seedCmd(), expireCmd(), tokenCmd(), importCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if log != nil {
			log.Error().Err(err).Msg("ledgerctl")
		} else {
			os.Stderr.WriteString("ledgerctl: " + err.Error() + "\n")
		}
		os.Exit(1)
	}
}
