package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rfmelo/gestorpme/internal/domain"
	"github.com/rfmelo/gestorpme/internal/jsonrepair"
)

// Orchestrator drives document extraction end to end: prompt, model call,
// JSON repair, decode.
type Orchestrator struct {
	gen Generator
	log zerolog.Logger
}

func NewOrchestrator(gen Generator, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{gen: gen, log: log}
}

// ExtractRecords runs the document through the model and returns import
// records ready for the merge executor.
func (o *Orchestrator) ExtractRecords(
	ctx context.Context,
	doc Document,
	mode Mode,
	hint domain.PolarityHint,
	settings domain.Settings,
) (Extraction, error) {
	// 1) Ask the model for strict JSON.
	raw, err := o.gen.Generate(ctx, mode.ModelName(), Request{
		Prompt:         buildDocumentPrompt(settings, hint),
		Doc:            &doc,
		ForceJSON:      true,
		ThinkingBudget: mode.ThinkingBudget(),
	})
	if err != nil {
		return Extraction{}, err
	}

	// 2) Repair and parse. The model is told not to use fences or prose,
	// but it sometimes does anyway.
	parsed, attempts, err := jsonrepair.RepairAndParse(raw)
	if err != nil {
		return Extraction{}, fmt.Errorf("extract: resposta do modelo irrecuperável: %w", err)
	}
	if attempts > 0 {
		o.log.Warn().
			Int("attempts", attempts).
			Str("document", doc.Name).
			Msg("resposta do modelo reparada antes da decodificação")
	}

	// 3) Decode into import records.
	ext, err := decodePayload(parsed)
	if err != nil {
		return Extraction{}, err
	}
	ext.RepairAttempts = attempts

	o.log.Info().
		Str("document", doc.Name).
		Str("model", mode.ModelName()).
		Int("clients", len(ext.Clients)).
		Int("transactions", len(ext.Transactions)).
		Msg("extração concluída")
	return ext, nil
}

// ConvertCSV renders the document as semicolon-delimited CSV in the fixed
// import layout. The artifact is returned as-is so it can be stored even
// when the follow-up import fails.
func (o *Orchestrator) ConvertCSV(ctx context.Context, doc Document, mode Mode) (string, error) {
	raw, err := o.gen.Generate(ctx, mode.ModelName(), Request{
		Prompt:         buildConvertPrompt(),
		Doc:            &doc,
		ThinkingBudget: mode.ThinkingBudget(),
	})
	if err != nil {
		return "", err
	}
	csv := stripFences(raw)
	if !strings.Contains(csv, ";") {
		return "", fmt.Errorf("extract: o modelo não retornou CSV delimitado por ponto e vírgula")
	}
	return csv, nil
}

// stripFences removes Markdown code fences the model was told not to emit.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
