// Package extract turns uploaded documents into import records using a
// generative model. Responses are repaired with the jsonrepair engine
// before decoding, since models occasionally return almost-JSON.
package extract

import (
	"context"

	"google.golang.org/genai"

	"github.com/rfmelo/gestorpme/internal/domain"
)

// Mode selects the model tier for an extraction run.
type Mode string

const (
	ModeFast     Mode = "fast"
	ModeStandard Mode = "standard"
	ModeThinking Mode = "thinking"
)

// ModelName maps a mode to a concrete Gemini model. Unknown modes fall
// back to the standard tier.
func (m Mode) ModelName() string {
	switch m {
	case ModeFast:
		return "gemini-2.5-flash-lite"
	case ModeThinking:
		return "gemini-2.5-pro"
	default:
		return "gemini-2.5-flash"
	}
}

// ThinkingBudget maps a mode to a reasoning token budget. Fast disables
// thinking entirely, the thinking tier reserves a generous budget, and
// the standard tier leaves it to the model's default.
func (m Mode) ThinkingBudget() *int32 {
	switch m {
	case ModeFast:
		return genai.Ptr[int32](0)
	case ModeThinking:
		return genai.Ptr[int32](8192)
	default:
		return nil
	}
}

// Document is an uploaded file handed to the model inline.
type Document struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Request is a single model call.
type Request struct {
	Prompt         string
	Doc            *Document // nil for text-only prompts
	ForceJSON      bool      // ask the API for application/json output
	ThinkingBudget *int32    // reasoning token budget; nil keeps the model default
}

// Generator produces model text for a request. The Gemini client
// implements it; tests substitute a canned one.
type Generator interface {
	Generate(ctx context.Context, model string, req Request) (string, error)
}

// Extraction is the decoded result of a document run.
type Extraction struct {
	Clients        []domain.ImportRecord
	Transactions   []domain.ImportRecord
	RepairAttempts int
}
