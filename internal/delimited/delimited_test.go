package delimited

import (
	"errors"
	"testing"

	"github.com/rfmelo/gestorpme/internal/domain"
)

func TestParseDelimiterDetection(t *testing.T) {
	semi, err := Parse("nome;valor\nAna;10")
	if err != nil {
		t.Fatalf("Parse semicolon: %v", err)
	}
	if semi.Delimiter != ';' || len(semi.Headers) != 2 {
		t.Errorf("semicolon input: delimiter %q, headers %v", semi.Delimiter, semi.Headers)
	}

	comma, err := Parse("nome,valor\nAna,10")
	if err != nil {
		t.Fatalf("Parse comma: %v", err)
	}
	if comma.Delimiter != ',' || len(comma.Headers) != 2 {
		t.Errorf("comma input: delimiter %q, headers %v", comma.Delimiter, comma.Headers)
	}
	if comma.Rows[0].Raw["nome"] != "Ana" {
		t.Errorf("raw access: got %q, want Ana", comma.Rows[0].Raw["nome"])
	}
	if comma.Rows[0].Record.Get(domain.FieldName) != "Ana" {
		t.Errorf("mapped access: got %q, want Ana", comma.Rows[0].Record.Get(domain.FieldName))
	}
}

func TestParseQuotedFields(t *testing.T) {
	table, err := Parse("nome,descricao\n\"Silva, Ana\",\"compra; parcelada\"")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	row := table.Rows[0]
	if row.Raw["nome"] != "Silva, Ana" {
		t.Errorf("quoted comma broken: %q", row.Raw["nome"])
	}
	if row.Raw["descricao"] != "compra; parcelada" {
		t.Errorf("quoted value mangled: %q", row.Raw["descricao"])
	}
}

func TestParseBlankLinesAndTooShort(t *testing.T) {
	table, err := Parse("nome,valor\n\n\nAna,10\n\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Errorf("blank lines not dropped: %d rows", len(table.Rows))
	}

	if _, err := Parse("nome,valor\n"); !errors.Is(err, ErrTooShort) {
		t.Errorf("header-only input: err = %v, want ErrTooShort", err)
	}
	if _, err := Parse(""); !errors.Is(err, ErrTooShort) {
		t.Errorf("empty input: err = %v, want ErrTooShort", err)
	}
}

func TestParseForceFlagsAndOverwrite(t *testing.T) {
	table, err := Parse("descricao;entrada;saida\nvenda;100,00;\ncompra;;50,00")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// Both polarity columns classify into amount; the later column wins the
	// field slot and both force flags end up set on every row.
	venda := table.Rows[0].Record
	if !venda.ForceIncome || !venda.ForceExpense {
		t.Errorf("force flags: income=%v expense=%v, want both true", venda.ForceIncome, venda.ForceExpense)
	}
	if venda.Get(domain.FieldAmount) != "" {
		t.Errorf("later empty saida column should win amount slot, got %q", venda.Get(domain.FieldAmount))
	}
	compra := table.Rows[1].Record
	if compra.Get(domain.FieldAmount) != "50,00" {
		t.Errorf("amount = %q, want 50,00", compra.Get(domain.FieldAmount))
	}
	if compra.Line != 2 {
		t.Errorf("line = %d, want 2", compra.Line)
	}
}

func TestParseRaggedRow(t *testing.T) {
	table, err := Parse("nome,cpf,email\nAna,111,\nBruno")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	bruno := table.Rows[1]
	if bruno.Record.Get(domain.FieldName) != "Bruno" {
		t.Errorf("short row name = %q", bruno.Record.Get(domain.FieldName))
	}
	if _, ok := bruno.Raw["cpf"]; ok {
		t.Error("short row should not have a cpf cell")
	}
}
