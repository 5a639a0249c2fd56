package scheme

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

var criteriaType = reflect.TypeOf(Criteria{})

// Decode converts raw catalog items (as produced by JSON or YAML decoders)
// into schemes. Items that cannot be decoded are skipped with a warning so a
// single bad row does not hide the rest of the catalog.
func Decode(items []any, logger *zap.Logger) *Schemes {
	if logger == nil {
		logger = zap.NewNop()
	}

	schemes := &Schemes{Items: make([]*Scheme, 0, len(items))}
	for idx, item := range items {
		decoded, err := decodeItem(item)
		if err != nil {
			logger.Warn("skipping undecodable catalog record",
				zap.Int("index", idx),
				zap.Error(err),
			)
			continue
		}
		schemes.Items = append(schemes.Items, decoded)
	}

	return schemes
}

func decodeItem(item any) (*Scheme, error) {
	var result Scheme
	cfg := &mapstructure.DecoderConfig{
		DecodeHook:       criteriaFromString,
		WeaklyTypedInput: true,
		Result:           &result,
		TagName:          "mapstructure",
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(item); err != nil {
		return nil, err
	}

	if strings.TrimSpace(result.Name) == "" {
		return nil, fmt.Errorf("scheme name is required")
	}

	return &result, nil
}

// criteriaFromString accepts eligibility criteria stored as a JSON document
// inside a text column.
func criteriaFromString(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != criteriaType || from.Kind() != reflect.String {
		return data, nil
	}

	raw := strings.TrimSpace(data.(string))
	if raw == "" {
		return Criteria{}, nil
	}

	var criteria Criteria
	if err := json.Unmarshal([]byte(raw), &criteria); err != nil {
		return nil, fmt.Errorf("parse eligibility_criteria: %w", err)
	}
	return criteria, nil
}
