package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lookup"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/ledger"
)

// plan resultado de una validación exitosa: líneas resueltas y la foto de los lotes leídos.
type plan struct {
	txType      entity.TransactionType
	date        time.Time
	transfers   []entity.Transfer
	allocations []entity.BatchAllocation
	balance     ledger.Balance
	draws       map[string]decimal.Decimal // total a descontar por lote
	versions    map[string]int64           // versión vista de cada lote
}

// parseDate acepta fecha simple o RFC3339.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(dto.DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func fieldErr(kind domain.ErrorKind, field string, idx *int, msg string) domain.FieldError {
	return domain.FieldError{Kind: kind, Field: field, Index: idx, Message: msg}
}

func insufficient(field string, idx *int, available, requested decimal.Decimal) domain.FieldError {
	return domain.FieldError{
		Kind:      domain.KindInsufficientQuantity,
		Field:     field,
		Index:     idx,
		Message:   fmt.Sprintf("el lote tiene %s y se solicitan %s", available.String(), requested.String()),
		Available: &available,
		Requested: &requested,
	}
}

// checkScale rechaza cantidades con más decimales de los que se almacenan.
func checkScale(field string, idx *int, q decimal.Decimal) *domain.FieldError {
	if q.Equal(q.Round(ledger.QuantityScale)) {
		return nil
	}
	fe := fieldErr(domain.KindValidation, field, idx, fmt.Sprintf("máximo %d decimales", ledger.QuantityScale))
	return &fe
}

// validateShape clases 1 a 3: fecha, tipo y forma general del request.
func validateShape(req PostRequest) (time.Time, entity.TransactionType, error) {
	date, ok := parseDate(req.Date)
	if !ok {
		msg := "fecha requerida"
		if strings.TrimSpace(req.Date) != "" {
			msg = "fecha inválida, use YYYY-MM-DD o RFC3339"
		}
		return time.Time{}, "", domain.NewLedgerError(fieldErr(domain.KindValidation, "date", nil, msg))
	}

	t := entity.TransactionType(strings.TrimSpace(req.TransactionType))
	if !t.Valid() {
		msg := "tipo de transacción requerido"
		if t != "" {
			msg = fmt.Sprintf("tipo de transacción %q no soportado", t)
		}
		return time.Time{}, "", domain.NewLedgerError(fieldErr(domain.KindValidation, "transaction_type", nil, msg))
	}

	if len(req.Transfers) == 0 {
		switch {
		case len(req.Allocations) == 0:
			return time.Time{}, "", domain.NewLedgerError(fieldErr(domain.KindValidation, "transfers", nil, "se requiere al menos una transferencia"))
		case t == entity.TransactionTypeProduction:
			return time.Time{}, "", domain.NewLedgerError(fieldErr(domain.KindValidation, "transfers", nil,
				"production requiere transferencias de insumos hacia la cuenta de los lotes nuevos"))
		case !ledger.AllowsAllocationOnly(t):
			return time.Time{}, "", domain.NewLedgerError(fieldErr(domain.KindValidation, "transfers", nil,
				fmt.Sprintf("solo purchase puede crear lotes sin transferencias, no %s", t)))
		}
	}
	return date, t, nil
}

// validate ejecuta las cinco clases en orden; la primera que falla corta y devuelve
// todas las fallas de esa clase.
func (e *Engine) validate(ctx context.Context, req PostRequest) (*plan, error) {
	date, txType, err := validateShape(req)
	if err != nil {
		return nil, err
	}

	names := lookup.New(e.accounts, e.materials)
	p := &plan{
		txType:   txType,
		date:     date,
		draws:    make(map[string]decimal.Decimal),
		versions: make(map[string]int64),
	}
	var errs []domain.FieldError

	checkAccount := func(field string, idx *int, id string) error {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, fieldErr(domain.KindValidation, field, idx, "cuenta requerida"))
			return nil
		}
		a, err := names.Account(ctx, id)
		if err != nil {
			return err
		}
		switch {
		case a == nil:
			errs = append(errs, fieldErr(domain.KindNotFound, field, idx, fmt.Sprintf("la cuenta %s no existe", id)))
		case !a.IsActive():
			errs = append(errs, fieldErr(domain.KindInactiveAccount, field, idx, fmt.Sprintf("la cuenta %s está %s", a.Name, a.Status)))
		}
		return nil
	}
	checkMaterial := func(field string, idx *int, id string) (*entity.Material, error) {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, fieldErr(domain.KindValidation, field, idx, "material requerido"))
			return nil, nil
		}
		m, err := names.Material(ctx, id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			errs = append(errs, fieldErr(domain.KindNotFound, field, idx, fmt.Sprintf("el material %s no existe", id)))
		}
		return m, nil
	}
	resolveUnit := func(field string, idx *int, unit string, m *entity.Material) string {
		if m == nil {
			return unit
		}
		if unit == "" {
			return m.UnitOfMeasure
		}
		if !strings.EqualFold(unit, m.UnitOfMeasure) {
			errs = append(errs, fieldErr(domain.KindValidation, field, idx,
				fmt.Sprintf("unidad %q distinta a la del material (%s)", unit, m.UnitOfMeasure)))
		}
		return m.UnitOfMeasure
	}

	batches := make(map[string]*entity.Batch)
	for i, in := range req.Transfers {
		idx := domain.IntPtr(i)
		field := func(name string) string { return fmt.Sprintf("transfers[%d].%s", i, name) }

		if err := checkAccount(field("source_account_id"), idx, in.SourceAccountID); err != nil {
			return nil, err
		}
		if err := checkAccount(field("destination_account_id"), idx, in.DestinationAccountID); err != nil {
			return nil, err
		}
		m, err := checkMaterial(field("material_id"), idx, in.MaterialID)
		if err != nil {
			return nil, err
		}
		amountOK := in.Amount.GreaterThan(decimal.Zero)
		if !amountOK {
			errs = append(errs, fieldErr(domain.KindValidation, field("amount"), idx, "la cantidad debe ser mayor que 0"))
		} else if fe := checkScale(field("amount"), idx, in.Amount); fe != nil {
			errs = append(errs, *fe)
			amountOK = false
		}
		unit := resolveUnit(field("unit"), idx, in.Unit, m)

		switch in.Source.Kind {
		case entity.SourceKindAccountTotal:
		case entity.SourceKindBatch:
			if strings.TrimSpace(in.Source.BatchID) == "" {
				errs = append(errs, fieldErr(domain.KindValidation, field("source_batch_id"), idx, "lote de origen requerido"))
				break
			}
			b, ok := batches[in.Source.BatchID]
			if !ok {
				b, err = e.batches.GetByID(ctx, in.Source.BatchID)
				if err != nil {
					return nil, err
				}
				batches[in.Source.BatchID] = b
			}
			if b == nil {
				errs = append(errs, fieldErr(domain.KindNotFound, field("source_batch_id"), idx, fmt.Sprintf("el lote %s no existe", in.Source.BatchID)))
				break
			}
			if b.AccountID != in.SourceAccountID {
				errs = append(errs, fieldErr(domain.KindValidation, field("source_batch_id"), idx, "el lote no pertenece a la cuenta origen"))
				break
			}
			if b.MaterialID != in.MaterialID {
				errs = append(errs, fieldErr(domain.KindValidation, field("source_batch_id"), idx, "el lote es de otro material"))
				break
			}
			// Un lote agotado se reporta como cantidad insuficiente con available = 0.
			if !b.IsActive() && b.Status != entity.BatchStatusDepleted {
				errs = append(errs, fieldErr(domain.KindValidation, field("source_batch_id"), idx, fmt.Sprintf("el lote está %s", b.Status)))
				break
			}
			if !amountOK {
				break
			}
			requested := p.draws[b.ID].Add(in.Amount)
			p.draws[b.ID] = requested
			p.versions[b.ID] = b.Version
			if !b.IsActive() || requested.GreaterThan(b.Quantity) {
				errs = append(errs, insufficient(field("amount"), idx, b.Quantity, requested))
			}
		default:
			errs = append(errs, fieldErr(domain.KindValidation, field("source.kind"), idx, fmt.Sprintf("origen %q no soportado", in.Source.Kind)))
		}

		id := in.ID
		if id == "" {
			id = uuid.New().String()
		}
		p.transfers = append(p.transfers, entity.Transfer{
			ID:                   id,
			Position:             i,
			SourceAccountID:      in.SourceAccountID,
			DestinationAccountID: in.DestinationAccountID,
			MaterialID:           in.MaterialID,
			Amount:               in.Amount,
			Unit:                 unit,
			Source:               in.Source,
		})
	}

	links := make([]int, len(req.Allocations))
	for i, in := range req.Allocations {
		idx := domain.IntPtr(i)
		field := func(name string) string { return fmt.Sprintf("batch_allocations[%d].%s", i, name) }

		m, err := checkMaterial(field("material_id"), idx, in.MaterialID)
		if err != nil {
			return nil, err
		}
		if !in.Quantity.GreaterThan(decimal.Zero) {
			errs = append(errs, fieldErr(domain.KindValidation, field("quantity"), idx, "la cantidad debe ser mayor que 0"))
		} else if fe := checkScale(field("quantity"), idx, in.Quantity); fe != nil {
			errs = append(errs, *fe)
		}
		if in.TransferIndex != nil && (*in.TransferIndex < 0 || *in.TransferIndex >= len(req.Transfers)) {
			errs = append(errs, fieldErr(domain.KindValidation, field("transfer_index"), idx, "índice de transferencia fuera de rango"))
		}
		var expiration *time.Time
		if in.ExpirationDate != "" {
			t, ok := parseDate(in.ExpirationDate)
			if !ok {
				errs = append(errs, fieldErr(domain.KindValidation, field("expiration_date"), idx, "fecha de vencimiento inválida"))
			} else {
				expiration = &t
			}
		}
		unit := resolveUnit(field("unit"), idx, in.Unit, m)

		alloc := entity.BatchAllocation{
			ID:               in.ID,
			Position:         i,
			MaterialID:       in.MaterialID,
			AccountID:        in.AccountID,
			TransferIndex:    in.TransferIndex,
			Quantity:         in.Quantity,
			Unit:             unit,
			LotNumber:        in.LotNumber,
			ExpirationDate:   expiration,
			QualityGrade:     in.QualityGrade,
			StorageCondition: in.StorageCondition,
			Location:         in.Location,
		}
		if alloc.ID == "" {
			alloc.ID = uuid.New().String()
		}
		links[i] = ledger.LinkAllocation(txType, p.transfers, alloc)

		if alloc.AccountID != "" {
			if err := checkAccount(field("account_id"), idx, alloc.AccountID); err != nil {
				return nil, err
			}
		} else if links[i] >= 0 {
			alloc.AccountID = p.transfers[links[i]].DestinationAccountID
		} else if txType == entity.TransactionTypePurchase {
			errs = append(errs, fieldErr(domain.KindValidation, field("account_id"), idx, "un lote raíz de compra requiere account_id"))
		}
		p.allocations = append(p.allocations, alloc)
	}

	if len(errs) > 0 {
		return nil, domain.NewLedgerError(errs...)
	}

	// Clase 5: conservación y trazabilidad.
	p.balance = ledger.ComputeBalance(p.transfers, p.allocations, links)
	errs = append(errs, ledger.CheckConservation(txType, p.balance)...)
	errs = append(errs, ledger.CheckTraceability(txType, p.transfers, p.allocations, links)...)
	if len(errs) > 0 {
		return nil, domain.NewLedgerError(errs...)
	}

	for i := range p.allocations {
		if links[i] >= 0 {
			p.allocations[i].TransferIndex = domain.IntPtr(links[i])
		} else {
			p.allocations[i].TransferIndex = nil
		}
	}
	return p, nil
}
