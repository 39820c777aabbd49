// Package classify maps arbitrary spreadsheet header names onto the fixed
// set of semantic import fields. Real-world exports use inconsistent,
// accented, abbreviated headers, so matching is substring containment over
// keyword lists rather than exact lookup: robustness over precision. A
// header may match several fields at once.
package classify

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rfmelo/gestorpme/internal/domain"
)

// keywordSets is ordered: when a header feeds more than one field the order
// here only affects which fields get populated, never excludes a match.
// "cliente" is deliberately listed under both name and entity - exports use
// it for either, and containment matching keeps both readable downstream.
var keywordSets = []struct {
	field    domain.Field
	keywords []string
}{
	{domain.FieldName, []string{"nome", "name", "razao social", "fantasia", "cliente"}},
	{domain.FieldTaxID, []string{"cpf", "cnpj", "documento", "doc", "nif", "tax"}},
	{domain.FieldEmail, []string{"email", "e-mail", "mail"}},
	{domain.FieldPhone, []string{"telefone", "celular", "fone", "phone", "whatsapp", "contato"}},
	{domain.FieldAmount, []string{"valor", "amount", "montante", "total", "preco", "debito", "credito", "saida", "entrada"}},
	{domain.FieldDescription, []string{"descricao", "description", "historico", "detalhe", "memo"}},
	{domain.FieldDate, []string{"data", "date", "vencimento", "emissao", "competencia", "dia"}},
	{domain.FieldCode, []string{"codigo", "code", "cod", "numero", "num"}},
	{domain.FieldAccount, []string{"conta", "account", "banco", "bank"}},
	{domain.FieldCategory, []string{"categoria", "category", "classificacao", "classe"}},
	{domain.FieldEntity, []string{"entidade", "entity", "empresa", "filial", "unidade", "cliente"}},
}

var (
	expenseKeywords = []string{"saida", "debito", "despesa"}
	incomeKeywords  = []string{"entrada", "credito", "receita"}
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips accents and trims a header for matching.
func Normalize(header string) string {
	s, _, err := transform.String(stripAccents, header)
	if err != nil {
		s = header
	}
	return strings.TrimSpace(strings.ToLower(s))
}

// Result describes everything a single header contributes to a record.
type Result struct {
	Fields       []domain.Field
	ForceIncome  bool
	ForceExpense bool
}

// Classify matches a raw header against every keyword list. Polarity
// keywords are scanned independently of the amount-field match, so a
// "Débito" column both carries the amount and forces expense.
func Classify(header string) Result {
	h := Normalize(header)

	var res Result
	for _, set := range keywordSets {
		for _, kw := range set.keywords {
			if strings.Contains(h, kw) {
				res.Fields = append(res.Fields, set.field)
				break
			}
		}
	}
	for _, kw := range expenseKeywords {
		if strings.Contains(h, kw) {
			res.ForceExpense = true
			break
		}
	}
	for _, kw := range incomeKeywords {
		if strings.Contains(h, kw) {
			res.ForceIncome = true
			break
		}
	}
	return res
}

// Has reports whether the result includes a given field.
func (r Result) Has(f domain.Field) bool {
	for _, got := range r.Fields {
		if got == f {
			return true
		}
	}
	return false
}
