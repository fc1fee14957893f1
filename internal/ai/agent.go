package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

// BookingInterpreter turns a free text work report into a labor booking draft.
type BookingInterpreter interface {
	InterpretBooking(ctx context.Context, text, bookingContext string) (*core.BookingDraft, error)
}

type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

// InterpretBooking asks the model for a BookingDraft. bookingContext lists the
// company's time types, open projects and today's date.
func (a *Agent) InterpretBooking(ctx context.Context, text, bookingContext string) (*core.BookingDraft, error) {
	prompt := fmt.Sprintf(`You record working time for a Swiss metal construction company.
Turn the work report below into one labor booking.
Rules:
1. Use ONLY time type codes and project numbers from the context.
2. Project relevant time types need a project number; absence, admin and training must not have one.
3. Work on a construction site is work_location BAUSTELLE; the Montage surcharge is added automatically.
4. Add NACHT, SAMSTAG, SONNTAG, FEIERTAG, HOEHE or SCHMUTZ only when the report says so.
5. Duration is in minutes. Default the date to today.
6. If the report is ambiguous, leave the booking fields empty and ask in clarification.
7. Provide a confidence score (0.0-1.0) and explain your reasoning.

Context:
%s

Report: %s`, bookingContext, text)

	schemaMap, err := draftSchema()
	if err != nil {
		return nil, err
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "labor_booking_draft",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A labor booking draft or a clarification question"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}
	return ParseDraft(content)
}

// ParseDraft decodes, normalizes and validates a model response.
func ParseDraft(content string) (*core.BookingDraft, error) {
	var draft core.BookingDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("draft validation failed: %w", err)
	}
	return &draft, nil
}

// draftSchema is reflected once; the draft type never changes at runtime.
var draftSchema = sync.OnceValues(reflectDraftSchema)

func reflectDraftSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaJSON, err := json.Marshal(reflector.Reflect(core.BookingDraft{}))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return schemaMap, nil
}
