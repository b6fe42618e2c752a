package matching

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/provider-matcher/internal/llm"
	"github.com/jonathan/provider-matcher/internal/schemas"
	"github.com/jonathan/provider-matcher/internal/types"
)

// ParseResponse interprets an LLM reply for a direction. Replies that are not
// a JSON object fail with *ParseError carrying raw unchanged. Schema
// violations in an otherwise decodable reply are returned as warnings.
func ParseResponse(raw string, dir types.Direction) (*types.MatchResult, error) {
	cleaned := llm.CleanJSONBlock(raw)
	if !strings.HasPrefix(cleaned, "{") {
		return nil, &ParseError{Raw: raw, Cause: errors.New("reply is not a JSON object")}
	}

	var resp types.MatchResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, &ParseError{Raw: raw, Cause: err}
	}

	result := &types.MatchResult{
		Matches: resp.Matches,
		Raw:     raw,
	}
	if result.Matches == nil {
		result.Matches = []types.MatchEntry{}
	}

	if dir == types.DirectionManual {
		result.PersonType = types.DefaultPersonType
		if resp.PersonType != nil && strings.TrimSpace(*resp.PersonType) != "" {
			result.PersonType = strings.TrimSpace(*resp.PersonType)
		}
	}

	result.Warnings = schemaWarnings(cleaned, dir)
	return result, nil
}

func schemaWarnings(doc string, dir types.Direction) []string {
	schema := schemas.MatchResponseSchema
	if dir == types.DirectionManual {
		schema = schemas.ManualResponseSchema
	}

	err := schemas.Validate(schema, doc)
	if err == nil {
		return nil
	}

	var validationErr *schemas.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Messages()
	}
	return []string{fmt.Sprintf("schema check skipped: %v", err)}
}
