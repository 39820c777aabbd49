// Package importer merges parsed import records into the store. All writes
// go through id-keyed bulk upserts, so re-running the same import with the
// same ids never duplicates rows.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/schollz/closestmatch"
	"github.com/shopspring/decimal"

	"github.com/rfmelo/gestorpme/internal/domain"
	"github.com/rfmelo/gestorpme/internal/normalize"
	"github.com/rfmelo/gestorpme/internal/store"
)

// Summary reports what one import pass did. NewCategories and NewEntities
// are returned to the caller, which decides whether to merge them into the
// settings.
type Summary struct {
	Created       int      `json:"created"`
	Warnings      int      `json:"warnings"`
	NewCategories []string `json:"newCategories,omitempty"`
	NewEntities   []string `json:"newEntities,omitempty"`
}

// Executor writes import records into the store and narrates the run in
// the activity log.
type Executor struct {
	store store.Store
	log   *ActivityLog
	zlog  zerolog.Logger

	now   func() time.Time
	newID func() string
}

func NewExecutor(s store.Store, log *ActivityLog, zlog zerolog.Logger) *Executor {
	return &Executor{
		store: s,
		log:   log,
		zlog:  zlog,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// ImportClients merges client records. Rows with neither a name nor a tax
// id carry no identity and are dropped with a warning.
func (e *Executor) ImportClients(ctx context.Context, records []domain.ImportRecord) (Summary, error) {
	var (
		summary Summary
		clients []domain.Client
	)
	for _, rec := range records {
		name := rec.Get(domain.FieldName)
		taxID := rec.Get(domain.FieldTaxID)
		if name == "" && taxID == "" {
			e.log.Add(SeverityWarning, fmt.Sprintf("linha %d ignorada: sem nome e sem CPF/CNPJ", rec.Line))
			summary.Warnings++
			continue
		}
		clients = append(clients, domain.Client{
			ID:        e.newID(),
			Name:      name,
			TaxID:     taxID,
			Phone:     rec.Get(domain.FieldPhone),
			Email:     rec.Get(domain.FieldEmail),
			CreatedAt: e.now(),
		})
		e.log.Add(SeverityInfo, fmt.Sprintf("linha %d: cliente %q", rec.Line, name))
	}

	if err := e.store.BulkUpsertClients(ctx, clients); err != nil {
		e.log.Add(SeverityError, "falha ao gravar clientes: "+err.Error())
		return summary, fmt.Errorf("importer: gravando clientes: %w", err)
	}
	summary.Created = len(clients)
	e.log.Add(SeveritySuccess, fmt.Sprintf("%d cliente(s) importado(s), %d aviso(s)", summary.Created, summary.Warnings))
	e.zlog.Info().Int("created", summary.Created).Int("warnings", summary.Warnings).Msg("clientes importados")
	return summary, nil
}

// ImportTransactions merges transaction records. Amount and date are
// normalized, polarity is resolved, and categories or entities absent from
// the settings are collected for the caller.
func (e *Executor) ImportTransactions(
	ctx context.Context,
	records []domain.ImportRecord,
	settings domain.Settings,
	hint domain.PolarityHint,
) (Summary, error) {
	var (
		summary Summary
		txs     []domain.Transaction
		seenCat = map[string]bool{}
		seenEnt = map[string]bool{}
	)
	for _, rec := range records {
		amount := normalize.ParseAmount(rec.Get(domain.FieldAmount))
		if amount.IsZero() {
			e.log.Add(SeverityWarning, fmt.Sprintf("linha %d ignorada: valor zero ou inválido (%q)", rec.Line, rec.Get(domain.FieldAmount)))
			summary.Warnings++
			continue
		}

		kind := resolveKind(rec, amount, hint)
		date := normalize.ParseDate(rec.Get(domain.FieldDate), e.now())

		category := rec.Get(domain.FieldCategory)
		if category != "" && !settings.HasCategory(category) && !seenCat[category] {
			seenCat[category] = true
			summary.NewCategories = append(summary.NewCategories, category)
			e.log.Add(SeverityNew, newValueMessage("categoria", category, settings.Categories))
		}
		entity := rec.Get(domain.FieldEntity)
		if entity != "" && !settings.HasEntity(entity) && !seenEnt[entity] {
			seenEnt[entity] = true
			summary.NewEntities = append(summary.NewEntities, entity)
			e.log.Add(SeverityNew, newValueMessage("entidade", entity, settings.Entities))
		}

		observation := ""
		if code := rec.Get(domain.FieldCode); code != "" {
			observation = "Código: " + code
		}

		txs = append(txs, domain.Transaction{
			ID:          e.newID(),
			Kind:        kind,
			Description: rec.Get(domain.FieldDescription),
			Amount:      amount.Abs(),
			Date:        date,
			Entity:      entity,
			Category:    category,
			Account:     rec.Get(domain.FieldAccount),
			Observation: observation,
		})
		e.log.Add(SeverityInfo, fmt.Sprintf("linha %d: %s de %s", rec.Line, kindLabel(kind), amount.Abs().StringFixed(2)))
	}

	if err := e.store.BulkUpsertTransactions(ctx, txs); err != nil {
		e.log.Add(SeverityError, "falha ao gravar lançamentos: "+err.Error())
		return summary, fmt.Errorf("importer: gravando lançamentos: %w", err)
	}
	summary.Created = len(txs)
	e.log.Add(SeveritySuccess, fmt.Sprintf("%d lançamento(s) importado(s), %d aviso(s)", summary.Created, summary.Warnings))
	e.zlog.Info().Int("created", summary.Created).Int("warnings", summary.Warnings).Msg("lançamentos importados")
	return summary, nil
}

// resolveKind picks the transaction kind. Force flags from classified
// columns win, then the sign of the amount, then the operator's global
// hint; everything else is income.
func resolveKind(rec domain.ImportRecord, amount decimal.Decimal, hint domain.PolarityHint) domain.TransactionKind {
	switch {
	case rec.ForceExpense:
		return domain.KindExpense
	case rec.ForceIncome:
		return domain.KindIncome
	case amount.IsNegative():
		return domain.KindExpense
	case hint == domain.PolarityForceExpense:
		return domain.KindExpense
	case hint == domain.PolarityForceIncome:
		return domain.KindIncome
	default:
		return domain.KindIncome
	}
}

func kindLabel(k domain.TransactionKind) string {
	if k == domain.KindExpense {
		return "despesa"
	}
	return "receita"
}

// newValueMessage describes a first-seen category or entity, with the
// closest known value as a hint when one looks similar.
func newValueMessage(what, value string, known []string) string {
	if len(known) > 0 {
		cm := closestmatch.New(known, []int{3, 4})
		if match := cm.Closest(value); match != "" {
			return fmt.Sprintf("nova %s: %q (parecida com %q já cadastrada)", what, value, match)
		}
	}
	return fmt.Sprintf("nova %s: %q", what, value)
}
