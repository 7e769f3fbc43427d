package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kkkiio/coffee-clock/internal/models"
)

// DefaultWrapperTokens are the delimiters the current vision vendor is known
// to wrap output in. They are configuration, not contract: vendors change
// their markup, so deployments can override the list.
var DefaultWrapperTokens = []string{
	"```json",
	"```",
	"<|begin_of_box|>",
	"<|end_of_box|>",
}

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// Parser turns free-text model output into a structured AnalysisResult using
// a two-stage strategy: strip known wrapper tokens and parse, then fall back
// to extracting the first fenced block and parsing its contents.
type Parser struct {
	wrappers []string
}

func NewParser(wrapperTokens []string) *Parser {
	if len(wrapperTokens) == 0 {
		wrapperTokens = DefaultWrapperTokens
	}
	return &Parser{wrappers: wrapperTokens}
}

// Parse returns ErrUnparseableOutput when neither stage yields a JSON object.
func (p *Parser) Parse(raw string) (*models.AnalysisResult, error) {
	stripped := raw
	for _, token := range p.wrappers {
		stripped = strings.ReplaceAll(stripped, token, "")
	}
	stripped = strings.TrimSpace(stripped)

	if result, err := decodeResult(stripped); err == nil {
		return result, nil
	}

	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		if result, err := decodeResult(strings.TrimSpace(m[1])); err == nil {
			return result, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnparseableOutput, snippet(raw, 120))
}

func decodeResult(text string) (*models.AnalysisResult, error) {
	// Reject scalars and arrays up front; a result must be a JSON object.
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, err
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, err
	}

	switch result.DataSource {
	case "image", "search", "estimation":
	default:
		result.DataSource = "estimation"
	}

	return &result, nil
}

func snippet(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return truncateMessage(s, max) + "..."
}
