package lineage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lookup"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// MaxDepth profundidad máxima de genealogía resuelta en una sola llamada.
const MaxDepth = 10

// Órdenes del historial de uso.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Cache vista de lectura cacheada con claves versionadas.
type Cache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error
}

// Resolver responde consultas de genealogía, distribución y uso. Solo lee.
type Resolver struct {
	accounts     repository.AccountRepository
	materials    repository.MaterialRepository
	batches      repository.BatchRepository
	transactions repository.TransactionRepository
	cache        Cache
}

// NewResolver construye el resolvedor. cache puede ser nil.
func NewResolver(
	accounts repository.AccountRepository,
	materials repository.MaterialRepository,
	batches repository.BatchRepository,
	transactions repository.TransactionRepository,
	cache Cache,
) *Resolver {
	return &Resolver{
		accounts:     accounts,
		materials:    materials,
		batches:      batches,
		transactions: transactions,
		cache:        cache,
	}
}

// fetch resuelve la vista a través de la caché versionada, o directo si no hay caché.
func fetch[T any](ctx context.Context, c Cache, load func(context.Context) (*T, error), parts ...string) (*T, error) {
	if c == nil {
		return load(ctx)
	}
	key, err := c.BuildKey(ctx, append([]string{"ledger"}, parts...)...)
	if err != nil {
		return nil, err
	}
	var out T
	err = c.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveLineage genealogía del lote. depth=1 es un solo salto; el llamador puede recorrer
// InputBatches para subir más, o pedir depth>1 (máximo MaxDepth).
func (r *Resolver) ResolveLineage(ctx context.Context, batchID string, depth int) (*dto.LineageView, error) {
	if depth <= 0 {
		depth = 1
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}
	return fetch(ctx, r.cache, func(ctx context.Context) (*dto.LineageView, error) {
		return r.lineage(ctx, lookup.New(r.accounts, r.materials), batchID, depth, make(map[string]bool))
	}, "lineage", batchID, strconv.Itoa(depth))
}

func (r *Resolver) lineage(ctx context.Context, names *lookup.Names, batchID string, depth int, path map[string]bool) (*dto.LineageView, error) {
	b, err := r.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("lote %s: %w", batchID, domain.ErrNotFound)
	}
	view := &dto.LineageView{
		InputBatches: []dto.LineageInputDTO{},
		OutputBatch:  dto.NewBatchResponse(b, names.MaterialName(ctx, b.MaterialID), names.AccountName(ctx, b.AccountID)),
	}
	if b.OriginatingTransactionID == nil {
		return view, nil
	}
	tx, err := r.transactions.GetByID(ctx, *b.OriginatingTransactionID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return view, nil
	}
	view.SourceTransaction = dto.NewTransactionSummary(tx)

	used := make(map[string]decimal.Decimal)
	for _, t := range tx.Transfers {
		if t.Source.IsBatch() {
			used[t.Source.BatchID] = used[t.Source.BatchID].Add(t.Amount)
		}
	}
	inputs, err := r.batches.GetMany(ctx, b.SourceBatchIDs)
	if err != nil {
		return nil, err
	}
	path[b.ID] = true
	defer delete(path, b.ID)
	for _, in := range inputs {
		item := dto.LineageInputDTO{
			BatchID:      in.ID,
			LotNumber:    in.LotNumber,
			MaterialID:   in.MaterialID,
			MaterialName: names.MaterialName(ctx, in.MaterialID),
			QuantityUsed: used[in.ID],
			Unit:         in.Unit,
			AccountID:    in.AccountID,
			AccountName:  names.AccountName(ctx, in.AccountID),
		}
		if depth > 1 && !path[in.ID] {
			child, err := r.lineage(ctx, names, in.ID, depth-1, path)
			if err != nil {
				return nil, err
			}
			item.Lineage = child
		}
		view.InputBatches = append(view.InputBatches, item)
	}
	return view, nil
}

// ResolveDistribution cantidad activa del material por cuenta, ordenada por nombre de cuenta.
func (r *Resolver) ResolveDistribution(ctx context.Context, materialID string) (*dto.DistributionResponse, error) {
	return fetch(ctx, r.cache, func(ctx context.Context) (*dto.DistributionResponse, error) {
		return r.distribution(ctx, materialID)
	}, "distribution", materialID)
}

func (r *Resolver) distribution(ctx context.Context, materialID string) (*dto.DistributionResponse, error) {
	m, err := r.materials.GetByID(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("material %s: %w", materialID, domain.ErrNotFound)
	}
	batches, err := r.batches.ListActiveByMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}

	names := lookup.New(r.accounts, r.materials)
	byAccount := make(map[string]*dto.AccountDistributionDTO)
	var accounts []*dto.AccountDistributionDTO
	total := decimal.Zero
	for _, b := range batches {
		ad, ok := byAccount[b.AccountID]
		if !ok {
			ad = &dto.AccountDistributionDTO{AccountID: b.AccountID, TotalQuantity: decimal.Zero, Batches: []dto.BatchSummaryDTO{}}
			if a, err := names.Account(ctx, b.AccountID); err != nil {
				return nil, err
			} else if a != nil {
				ad.AccountName = a.Name
				ad.Category = string(a.Category)
			}
			byAccount[b.AccountID] = ad
			accounts = append(accounts, ad)
		}
		ad.TotalQuantity = ad.TotalQuantity.Add(b.Quantity)
		ad.BatchCount++
		summary := dto.BatchSummaryDTO{BatchID: b.ID, LotNumber: b.LotNumber, Quantity: b.Quantity}
		if b.ExpirationDate != nil {
			s := b.ExpirationDate.Format(dto.DateLayout)
			summary.ExpirationDate = &s
		}
		ad.Batches = append(ad.Batches, summary)
		total = total.Add(b.Quantity)
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].AccountName != accounts[j].AccountName {
			return accounts[i].AccountName < accounts[j].AccountName
		}
		return accounts[i].AccountID < accounts[j].AccountID
	})

	out := &dto.DistributionResponse{
		MaterialID:    m.ID,
		MaterialName:  m.Name,
		Unit:          m.UnitOfMeasure,
		TotalQuantity: total,
		Accounts:      make([]dto.AccountDistributionDTO, 0, len(accounts)),
	}
	for _, a := range accounts {
		out.Accounts = append(out.Accounts, *a)
	}
	return out, nil
}

// ResolveUsageHistory creación y descuentos del lote. order: asc (por defecto) o desc.
func (r *Resolver) ResolveUsageHistory(ctx context.Context, batchID, order string) (*dto.UsageHistoryResponse, error) {
	order = strings.ToLower(strings.TrimSpace(order))
	if order == "" {
		order = OrderAsc
	}
	if order != OrderAsc && order != OrderDesc {
		return nil, domain.NewLedgerError(domain.FieldError{Kind: domain.KindValidation, Field: "order", Message: "use asc o desc"})
	}
	return fetch(ctx, r.cache, func(ctx context.Context) (*dto.UsageHistoryResponse, error) {
		return r.usage(ctx, batchID, order)
	}, "usage", batchID, order)
}

func (r *Resolver) usage(ctx context.Context, batchID, order string) (*dto.UsageHistoryResponse, error) {
	b, err := r.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("lote %s: %w", batchID, domain.ErrNotFound)
	}
	names := lookup.New(r.accounts, r.materials)
	entries := []dto.UsageEntryDTO{}

	if b.OriginatingTransactionID != nil {
		tx, err := r.transactions.GetByID(ctx, *b.OriginatingTransactionID)
		if err != nil {
			return nil, err
		}
		if tx != nil {
			entry := dto.UsageEntryDTO{
				Direction:      "in",
				Transaction:    *dto.NewTransactionSummary(tx),
				Amount:         b.InitialQuantity,
				Unit:           b.Unit,
				CreatedBatches: []string{},
				OccurredAt:     occurredAt(tx),
			}
			for _, a := range tx.Allocations {
				if a.CreatedBatchID == nil {
					continue
				}
				entry.CreatedBatches = append(entry.CreatedBatches, *a.CreatedBatchID)
				if *a.CreatedBatchID == b.ID && a.TransferIndex != nil && *a.TransferIndex < len(tx.Transfers) {
					src := tx.Transfers[*a.TransferIndex]
					entry.TransferID = src.ID
					entry.CounterpartID = src.SourceAccountID
					entry.Counterpart = names.AccountName(ctx, src.SourceAccountID)
				}
			}
			entries = append(entries, entry)
		}
	}

	draws, err := r.transactions.ListDrawsByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	for _, d := range draws {
		created, err := r.batches.ListByTransaction(ctx, d.Transaction.ID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(created))
		for _, c := range created {
			ids = append(ids, c.ID)
		}
		tx := d.Transaction
		entries = append(entries, dto.UsageEntryDTO{
			Direction:      "out",
			Transaction:    *dto.NewTransactionSummary(&tx),
			TransferID:     d.Transfer.ID,
			Amount:         d.Transfer.Amount,
			Unit:           d.Transfer.Unit,
			CounterpartID:  d.Transfer.DestinationAccountID,
			Counterpart:    names.AccountName(ctx, d.Transfer.DestinationAccountID),
			CreatedBatches: ids,
			OccurredAt:     occurredAt(&tx),
		})
	}

	if order == OrderDesc {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}
	return &dto.UsageHistoryResponse{BatchID: b.ID, Order: order, Entries: entries}, nil
}

func occurredAt(tx *entity.Transaction) time.Time {
	if tx.PostedAt != nil {
		return *tx.PostedAt
	}
	return tx.CreatedAt
}

// AccountMaterials cuenta con los materiales que tiene en lotes activos.
func (r *Resolver) AccountMaterials(ctx context.Context, accountID string) (*dto.AccountDetailResponse, error) {
	return fetch(ctx, r.cache, func(ctx context.Context) (*dto.AccountDetailResponse, error) {
		return r.accountMaterials(ctx, accountID)
	}, "account", accountID)
}

func (r *Resolver) accountMaterials(ctx context.Context, accountID string) (*dto.AccountDetailResponse, error) {
	a, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("cuenta %s: %w", accountID, domain.ErrNotFound)
	}
	batches, err := r.batches.ListActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	names := lookup.New(r.accounts, r.materials)
	byMaterial := make(map[string]*dto.TrackedMaterialDTO)
	var list []*dto.TrackedMaterialDTO
	for _, b := range batches {
		tm, ok := byMaterial[b.MaterialID]
		if !ok {
			tm = &dto.TrackedMaterialDTO{MaterialID: b.MaterialID, Unit: b.Unit, TotalQuantity: decimal.Zero}
			m, err := names.Material(ctx, b.MaterialID)
			if err != nil {
				return nil, err
			}
			if m != nil {
				tm.MaterialName = m.Name
				tm.CategoryID = m.CategoryID
				tm.Unit = m.UnitOfMeasure
				if c, err := names.Category(ctx, m.CategoryID); err == nil && c != nil {
					tm.CategoryName = c.Name
				}
			}
			byMaterial[b.MaterialID] = tm
			list = append(list, tm)
		}
		tm.TotalQuantity = tm.TotalQuantity.Add(b.Quantity)
		tm.BatchCount++
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].MaterialName != list[j].MaterialName {
			return list[i].MaterialName < list[j].MaterialName
		}
		return list[i].MaterialID < list[j].MaterialID
	})
	out := &dto.AccountDetailResponse{
		Account:   dto.NewAccountResponse(a),
		Materials: make([]dto.TrackedMaterialDTO, 0, len(list)),
	}
	for _, tm := range list {
		out.Materials = append(out.Materials, *tm)
	}
	return out, nil
}
