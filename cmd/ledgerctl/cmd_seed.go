package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Trazabilidad-api/internal/bootstrap"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// defaultAccounts cuentas por defecto de cada categoría.
var defaultAccounts = []dto.CreateAccountRequest{
	{Name: "Bodega principal", Category: string(entity.AccountCategoryStock), Description: "Existencias propias", IsDefault: true},
	{Name: "Proveedores", Category: string(entity.AccountCategoryInput), Description: "Origen de compras", IsDefault: true},
	{Name: "Consumo", Category: string(entity.AccountCategoryOutput), Description: "Destino de consumos", IsDefault: true},
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Crea las cuentas por defecto que falten",
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := bootstrap.OpenStorage(cmd.Context(), cfg, log.Zerolog())
			if err != nil {
				return err
			}
			defer storage.Close()

			created, err := seedDefaults(cmd.Context(), storage.Accounts)
			if err != nil {
				return err
			}
			log.Info().Strs("created", created).Msg("cuentas por defecto")
			return nil
		},
	}
}

// seedDefaults crea solo las categorías sin cuenta por defecto; es idempotente.
func seedDefaults(ctx context.Context, accounts repository.AccountRepository) ([]string, error) {
	uc := usecase.NewAccountUseCase(accounts)
	created := []string{}
	for _, in := range defaultAccounts {
		cur, err := accounts.GetDefault(ctx, entity.AccountCategory(in.Category))
		if err != nil {
			return nil, err
		}
		if cur != nil {
			continue
		}
		out, err := uc.Create(ctx, in)
		if err != nil {
			return nil, err
		}
		created = append(created, out.Name)
	}
	return created, nil
}
