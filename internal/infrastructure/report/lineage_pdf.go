// Package report genera los documentos exportables del libro: el certificado de
// genealogía de un lote (PDF) y la distribución de un material (XLSX).
//
// Layout del certificado A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Certificado de trazabilidad │ Lote + Fecha         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  LOTE: Material / Cuenta / Cantidad / Estado                 │
//	│  ORIGEN: Transacción de origen (tipo, referencia, fecha)     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Lote | Material | Cantidad usada | Cuenta            │
//	│  (una sección por nivel de profundidad)                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el id del lote + leyenda                     │
//	└─────────────────────────────────────────────────────────────┘
package report

import (
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// LineagePDF genera el certificado de genealogía de un lote.
type LineagePDF struct {
	now func() time.Time
}

// NewLineagePDF construye el generador.
func NewLineagePDF() *LineagePDF {
	return &LineagePDF{now: time.Now}
}

// Generate devuelve los bytes del PDF para la vista de genealogía.
func (g *LineagePDF) Generate(view *dto.LineageView) ([]byte, error) {
	if view == nil {
		return nil, fmt.Errorf("pdf: genealogía vacía")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Certificado de trazabilidad", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(view.OutputBatch, g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(batchRow(view.OutputBatch))
	m.AddRows(sourceRow(view.SourceTransaction))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(levelRows(view, 1)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(view.OutputBatch.ID))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(b dto.BatchResponse, at time.Time) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("CERTIFICADO DE TRAZABILIDAD", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(b.MaterialName, b.MaterialID), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("LOTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(b.LotNumber, shortID(b.ID)), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Emitido: "+at.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func batchRow(b dto.BatchResponse) core.Row {
	expiry := "-"
	if b.ExpirationDate != nil {
		expiry = *b.ExpirationDate
	}
	return row.New(12).Add(
		col.New(12).Add(
			text.New("LOTE CERTIFICADO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Cuenta: %s   |   Cantidad: %s de %s %s   |   Estado: %s   |   Vence: %s",
				nonEmpty(b.AccountName, b.AccountID),
				b.Quantity.StringFixed(2), b.InitialQuantity.StringFixed(2), b.Unit,
				b.Status, expiry,
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func sourceRow(tx *dto.TransactionSummaryDTO) core.Row {
	desc := "Lote raíz: sin transacción de origen."
	if tx != nil {
		desc = fmt.Sprintf("%s %s del %s   |   %s",
			tx.Type, nonEmpty(tx.ReferenceID, shortID(tx.ID)), tx.Date, nonEmpty(tx.Description, "-"))
	}
	return row.New(12).Add(
		col.New(12).Add(
			text.New("TRANSACCIÓN DE ORIGEN", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(desc, props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// levelRows una tabla por nivel; los niveles más profundos se agregan a continuación.
func levelRows(view *dto.LineageView, level int) []core.Row {
	if len(view.InputBatches) == 0 {
		if level > 1 {
			return nil
		}
		return []core.Row{row.New(8).Add(col.New(12).Add(
			text.New("El lote no tiene insumos registrados.", props.Text{Size: 8, Top: 2, Color: colorGray}),
		))}
	}

	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(
			text.New(fmt.Sprintf("INSUMOS NIVEL %d: %s", level, nonEmpty(view.OutputBatch.LotNumber, shortID(view.OutputBatch.ID))), props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2,
			}),
		)),
		tableHeaderRow(),
	}
	for _, in := range view.InputBatches {
		rows = append(rows, row.New(7).Add(
			col.New(3).Add(text.New(nonEmpty(in.LotNumber, shortID(in.BatchID)), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(nonEmpty(in.MaterialName, in.MaterialID), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(in.QuantityUsed.StringFixed(2)+" "+in.Unit, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(nonEmpty(in.AccountName, in.AccountID), props.Text{Size: 8, Top: 1, Left: 1})),
		))
	}
	for _, in := range view.InputBatches {
		if in.Lineage != nil {
			rows = append(rows, levelRows(in.Lineage, level+1)...)
		}
	}
	return rows
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Lote", 3, align.Left),
		h("Material", 4, align.Left),
		h("Cantidad usada", 2, align.Right),
		h("Cuenta", 3, align.Left),
	)
}

func footerRow(batchID string) core.Row {
	return row.New(40).Add(
		col.New(4).Add(code.NewQr(batchID, props.Rect{Percent: 90, Center: true})),
		col.New(8).Add(
			text.New("Identificador del lote:\n"+batchID, props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Documento generado a partir de las transacciones contabilizadas.\nLas transacciones contabilizadas no se modifican.", props.Text{
				Size: 7, Top: 20, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

// shortID primeros 8 caracteres de un uuid.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
