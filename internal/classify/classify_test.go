package classify

import (
	"testing"

	"github.com/rfmelo/gestorpme/internal/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Descrição", "descricao"},
		{"  Valor Líquido ", "valor liquido"},
		{"CÓDIGO", "codigo"},
		{"email", "email"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		header       string
		wantFields   []domain.Field
		forceIncome  bool
		forceExpense bool
	}{
		{header: "Valor Líquido", wantFields: []domain.Field{domain.FieldAmount}},
		{header: "Débito", wantFields: []domain.Field{domain.FieldAmount}, forceExpense: true},
		{header: "Data de Vencimento", wantFields: []domain.Field{domain.FieldDate}},
		{header: "Entrada", wantFields: []domain.Field{domain.FieldAmount}, forceIncome: true},
		{header: "CPF/CNPJ", wantFields: []domain.Field{domain.FieldTaxID}},
		{header: "E-mail", wantFields: []domain.Field{domain.FieldEmail}},
		{header: "Conta Corrente", wantFields: []domain.Field{domain.FieldAccount}},
		{header: "Categoria", wantFields: []domain.Field{domain.FieldCategory}},
		{header: "Histórico", wantFields: []domain.Field{domain.FieldDescription}},
		{header: "coluna desconhecida", wantFields: nil},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			res := Classify(tt.header)
			for _, f := range tt.wantFields {
				if !res.Has(f) {
					t.Errorf("Classify(%q) missing field %s (got %v)", tt.header, f, res.Fields)
				}
			}
			if tt.wantFields == nil && len(res.Fields) != 0 {
				t.Errorf("Classify(%q) = %v, want no fields", tt.header, res.Fields)
			}
			if res.ForceIncome != tt.forceIncome {
				t.Errorf("Classify(%q) forceIncome = %v, want %v", tt.header, res.ForceIncome, tt.forceIncome)
			}
			if res.ForceExpense != tt.forceExpense {
				t.Errorf("Classify(%q) forceExpense = %v, want %v", tt.header, res.ForceExpense, tt.forceExpense)
			}
		})
	}
}

// "cliente" is intentionally ambiguous: exports use it both as the contact
// name column and as the business-unit column.
func TestClassifyClienteMatchesNameAndEntity(t *testing.T) {
	res := Classify("Cliente")
	if !res.Has(domain.FieldName) || !res.Has(domain.FieldEntity) {
		t.Errorf("Classify(\"Cliente\") = %v, want both name and entity", res.Fields)
	}
}
