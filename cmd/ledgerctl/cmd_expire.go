package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/ledger"
	"github.com/jhoicas/Trazabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Trazabilidad-api/internal/bootstrap"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/jobs"
)

func expireCmd() *cobra.Command {
	var (
		asOf  string
		async bool
	)
	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Marca como vencidos los lotes activos con fecha de vencimiento cumplida",
		RunE: func(cmd *cobra.Command, args []string) error {
			var at *time.Time
			if asOf != "" {
				t, err := time.Parse(dto.DateLayout, asOf)
				if err != nil {
					return fmt.Errorf("--as-of: use %s", dto.DateLayout)
				}
				at = &t
			}

			if async {
				if !cfg.Redis.Enabled() {
					return errors.New("--async requiere REDIS_ADDR")
				}
				client := jobs.NewClient(bootstrap.RedisClientOpt(cfg.Redis))
				defer func() { _ = client.Close() }()
				info, err := client.EnqueueExpireBatches(cmd.Context(), at)
				if err != nil {
					return err
				}
				log.Info().Str("task_id", info.ID).Str("queue", info.Queue).Msg("vencimiento encolado")
				return nil
			}

			storage, err := bootstrap.OpenStorage(cmd.Context(), cfg, log.Zerolog())
			if err != nil {
				return err
			}
			defer storage.Close()
			readCache, closeCache, err := bootstrap.OpenCache(cmd.Context(), cfg.Redis, log.Zerolog())
			if err != nil {
				return err
			}
			defer closeCache()

			var invalidator ledger.CacheInvalidator
			if readCache != nil {
				invalidator = readCache
			}
			when := time.Now().UTC()
			if at != nil {
				when = *at
			}
			res, err := usecase.NewBatchUseCase(storage.Batches, invalidator, log.Zerolog()).ExpireDue(cmd.Context(), when)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "lotes vencidos al %s: %d\n", res.AsOf, res.Expired)
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "fecha de corte (YYYY-MM-DD); por defecto hoy")
	cmd.Flags().BoolVar(&async, "async", false, "encolar en el worker en lugar de ejecutar aquí")
	return cmd
}
