// Package domain holds the entities managed by the import pipeline and the
// transient record shape that flows through it.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind marks a transaction as money in or money out.
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// PolarityHint is the operator-selected default for imported transactions.
// A per-row force flag or a negative amount always takes precedence over it.
type PolarityHint string

const (
	PolarityAuto         PolarityHint = "auto"
	PolarityForceIncome  PolarityHint = "force-income"
	PolarityForceExpense PolarityHint = "force-expense"
)

// Client is a CRM contact. The id is freshly generated on every import;
// there is no identity reconciliation by name or tax id.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"taxId"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transaction is one ledger entry. Amount is always the absolute value;
// the sign is carried by Kind. An amount of zero is never valid.
type Transaction struct {
	ID          string          `json:"id"`
	Kind        TransactionKind `json:"kind"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Entity      string          `json:"entity"`
	Category    string          `json:"category"`
	Account     string          `json:"account,omitempty"`
	Observation string          `json:"observation,omitempty"`
	// ClientID is set only on income entries, Supplier only on expenses.
	ClientID      string   `json:"clientId,omitempty"`
	Supplier      string   `json:"supplier,omitempty"`
	AttachmentIDs []string `json:"attachmentIds,omitempty"`
}

// MimeClass is the coarse bucket a stored file is displayed under.
type MimeClass string

const (
	MimePDF   MimeClass = "pdf"
	MimeImage MimeClass = "image"
	MimeVideo MimeClass = "video"
	MimeOther MimeClass = "other"
)

// ClassifyMime maps a declared media type onto a MimeClass.
func ClassifyMime(mediaType string) MimeClass {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	switch {
	case strings.Contains(mt, "pdf"):
		return MimePDF
	case strings.HasPrefix(mt, "image/"):
		return MimeImage
	case strings.HasPrefix(mt, "video/"):
		return MimeVideo
	default:
		return MimeOther
	}
}

// StoredFile is one entry in the file registry. A row is created on every
// upload and whenever the AI pipeline ingests a document for extraction.
type StoredFile struct {
	ID                      string    `json:"id"`
	Name                    string    `json:"name"`
	MimeClass               MimeClass `json:"mimeClass"`
	SizeLabel               string    `json:"sizeLabel"`
	Date                    time.Time `json:"date"`
	URI                     string    `json:"uri,omitempty"`
	AssociatedClient        string    `json:"associatedClient,omitempty"`
	AssociatedTransactionID string    `json:"associatedTransactionId,omitempty"`
}

// SizeLabel renders a byte count the way the file registry displays it.
func SizeLabel(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Settings holds the open-ended enumerations that transactions are
// classified against. Lookups are case-sensitive.
type Settings struct {
	Entities   []string `json:"entities"`
	Categories []string `json:"categories"`
}

// HasEntity reports whether name is already a known entity.
func (s Settings) HasEntity(name string) bool {
	for _, e := range s.Entities {
		if e == name {
			return true
		}
	}
	return false
}

// HasCategory reports whether name is already a known category.
func (s Settings) HasCategory(name string) bool {
	for _, c := range s.Categories {
		if c == name {
			return true
		}
	}
	return false
}
