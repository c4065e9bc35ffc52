package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pkgjwt "github.com/jhoicas/Trazabilidad-api/pkg/jwt"
)

func tokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		minutes int
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un JWT para un operador o auditor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != pkgjwt.RoleOperator && role != pkgjwt.RoleAuditor {
				return fmt.Errorf("--role debe ser %s o %s", pkgjwt.RoleOperator, pkgjwt.RoleAuditor)
			}
			if minutes <= 0 {
				minutes = cfg.JWT.Expiration
			}
			tok, err := pkgjwt.Generate(cfg.JWT.Secret, subject, role, cfg.JWT.Issuer, minutes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "identificador del operador")
	cmd.Flags().StringVar(&role, "role", pkgjwt.RoleOperator, "operator | auditor")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "vigencia en minutos; por defecto JWT_EXPIRATION_MINUTES")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
