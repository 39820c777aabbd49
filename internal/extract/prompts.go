package extract

import (
	"strings"

	"github.com/rfmelo/gestorpme/internal/domain"
)

// buildDocumentPrompt asks the model for strict JSON with clients and
// transactions found in the attached document. Known categories and
// entities are listed so the model reuses them instead of inventing
// near-duplicates.
func buildDocumentPrompt(settings domain.Settings, hint domain.PolarityHint) string {
	var b strings.Builder

	b.WriteString("You are a document parser for a Brazilian small-business bookkeeping system.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Read the attached document (invoice, bank statement, receipt or spreadsheet).\n")
	b.WriteString("- Extract EVERY client and EVERY financial transaction it contains.\n")
	b.WriteString("- If the document lists 500 rows, return 500 transaction objects. Never summarize or sample.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n\n")

	b.WriteString("Output shape:\n")
	b.WriteString("{\n")
	b.WriteString("  \"clients\": [ { \"name\": string, \"tax_id\": string or null, \"email\": string or null, \"phone\": string or null } ],\n")
	b.WriteString("  \"transactions\": [ { \"description\": string, \"amount\": number, \"date\": string, \"category\": string or null, \"entity\": string or null, \"account\": string or null } ]\n")
	b.WriteString("}\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- \"amount\": positive for money IN, negative for money OUT. Use a dot as the decimal separator.\n")
	b.WriteString("- \"date\": ISO format \"YYYY-MM-DD\".\n")
	b.WriteString("- Leave \"clients\" as an empty array when the document has no client data.\n")
	switch hint {
	case domain.PolarityForceIncome:
		b.WriteString("- Every transaction in this document is money IN. All amounts must be positive.\n")
	case domain.PolarityForceExpense:
		b.WriteString("- Every transaction in this document is money OUT. All amounts must be negative.\n")
	}

	if len(settings.Categories) > 0 {
		b.WriteString("\nPrefer one of these known categories when it fits:\n")
		for _, c := range settings.Categories {
			b.WriteString("- " + c + "\n")
		}
	}
	if len(settings.Entities) > 0 {
		b.WriteString("\nPrefer one of these known entities when it fits:\n")
		for _, e := range settings.Entities {
			b.WriteString("- " + e + "\n")
		}
	}

	b.WriteString("\nReturn ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")

	return b.String()
}

// ConvertHeader is the fixed header of converted CSV artifacts.
const ConvertHeader = "Código;Conta;Categoria;Entidade;Descrição;Data;Valor"

// buildConvertPrompt asks the model to render the document as
// semicolon-delimited CSV in the fixed import layout.
func buildConvertPrompt() string {
	var b strings.Builder

	b.WriteString("You are a document converter for a Brazilian small-business bookkeeping system.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Read the attached document and convert every financial row into CSV.\n")
	b.WriteString("- Use a semicolon (;) as the delimiter.\n")
	b.WriteString("- The first line must be exactly:\n")
	b.WriteString(ConvertHeader + "\n\n")

	b.WriteString("Column rules:\n")
	b.WriteString("- \"Código\": document or entry code, empty when absent.\n")
	b.WriteString("- \"Data\": format DD/MM/YYYY.\n")
	b.WriteString("- \"Valor\": Brazilian format with a comma as decimal separator, negative for money OUT.\n")
	b.WriteString("- Leave a column empty when the document has no value for it.\n\n")

	b.WriteString("Return ONLY the CSV text.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Do NOT add explanations before or after the CSV.\n")

	return b.String()
}
