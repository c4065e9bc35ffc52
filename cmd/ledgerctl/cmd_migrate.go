package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Aplica, revierte o lista las migraciones de PostgreSQL",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus:
			default:
				return fmt.Errorf("comando de migración %q no soportado", args[0])
			}
			if err := postgres.Migrate(cmd.Context(), cfg.DB.ConnectionString(), args[0]); err != nil {
				return err
			}
			log.Info().Str("command", args[0]).Msg("migraciones")
			return nil
		},
	}
}
