package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Trazabilidad-api/internal/bootstrap"
)

// materialRow fila del catálogo: nombre;categoria;unidad[;punto_reorden].
type materialRow struct {
	Line         int
	Name         string
	Category     string
	Unit         string
	ReorderPoint *decimal.Decimal
}

func importCmd() *cobra.Command {
	var (
		charset   string
		delimiter string
	)
	cmd := &cobra.Command{
		Use:   "import-materials [archivo.csv]",
		Short: "Importa materiales (y sus categorías) desde un CSV",
		Long: `Lee un CSV con encabezado nombre;categoria;unidad;punto_reorden.
Las categorías inexistentes se crean. Exportaciones de hojas de cálculo antiguas
suelen venir en ISO-8859-1: use --charset iso-8859-1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("abrir CSV: %w", err)
			}
			defer f.Close()

			rows, err := readMaterialRows(f, charset, delimiter)
			if err != nil {
				return err
			}
			storage, err := bootstrap.OpenStorage(cmd.Context(), cfg, log.Zerolog())
			if err != nil {
				return err
			}
			defer storage.Close()

			n, err := importMaterials(cmd.Context(), usecase.NewMaterialUseCase(storage.Materials), rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "materiales importados: %d\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&charset, "charset", "utf-8", "utf-8 | iso-8859-1 | windows-1252")
	cmd.Flags().StringVar(&delimiter, "delimiter", ";", "separador de columnas")
	return cmd
}

func decoderFor(charset string, r io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.ReplaceAll(charset, "_", "-")) {
	case "", "utf-8", "utf8":
		return r, nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("charset %q no soportado", charset)
	}
}

// readMaterialRows decodifica y valida el CSV completo antes de escribir nada.
func readMaterialRows(r io.Reader, charset, delimiter string) ([]materialRow, error) {
	dec, err := decoderFor(charset, r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(dec)
	if delimiter != "" {
		cr.Comma = []rune(delimiter)[0]
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []materialRow
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("leer CSV: %w", err)
		}
		line++
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "nombre") {
			continue
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("línea %d: se esperan al menos 3 columnas", line)
		}
		row := materialRow{
			Line:     line,
			Name:     strings.TrimSpace(rec[0]),
			Category: strings.TrimSpace(rec[1]),
			Unit:     strings.TrimSpace(rec[2]),
		}
		if row.Name == "" || row.Category == "" || row.Unit == "" {
			return nil, fmt.Errorf("línea %d: nombre, categoría y unidad son obligatorios", line)
		}
		if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			rp, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec[3]), ",", "."))
			if err != nil {
				return nil, fmt.Errorf("línea %d: punto de reorden inválido %q", line, rec[3])
			}
			row.ReorderPoint = &rp
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// importMaterials crea las categorías que falten (por nombre, sin distinguir mayúsculas)
// y luego los materiales.
func importMaterials(ctx context.Context, uc *usecase.MaterialUseCase, rows []materialRow) (int, error) {
	existing, err := uc.ListCategories(ctx)
	if err != nil {
		return 0, err
	}
	categories := make(map[string]string, len(existing))
	for _, c := range existing {
		categories[strings.ToLower(c.Name)] = c.ID
	}

	for i, row := range rows {
		key := strings.ToLower(row.Category)
		id, ok := categories[key]
		if !ok {
			c, err := uc.CreateCategory(ctx, dto.CreateMaterialCategoryRequest{Name: row.Category})
			if err != nil {
				return i, fmt.Errorf("línea %d: %w", row.Line, err)
			}
			id = c.ID
			categories[key] = id
		}
		if _, err := uc.Create(ctx, dto.CreateMaterialRequest{
			Name: row.Name, CategoryID: id, UnitOfMeasure: row.Unit, ReorderPoint: row.ReorderPoint,
		}); err != nil {
			return i, fmt.Errorf("línea %d: %w", row.Line, err)
		}
	}
	return len(rows), nil
}
