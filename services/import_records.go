package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	ErrInvalidDataset = errors.New("invalid dataset file")
)

// DatasetFileError describes why a dataset file could not be loaded.
type DatasetFileError struct {
	Path string
	Err  error
}

func (e *DatasetFileError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("dataset file %s: %v", e.Path, e.Err)
}

func (e *DatasetFileError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return []error{ErrInvalidDataset, e.Err}
}

// LoadRecords reads a JSON file whose top level must be an array of objects.
// Array elements that are not objects are kept as empty records so they are skipped later.
func LoadRecords(path string) ([]Record, error) {
	if path == "" {
		return nil, &DatasetFileError{Path: path, Err: errors.New("path is required")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DatasetFileError{Path: path, Err: err}
	}
	return DecodeRecords(path, data)
}

// DecodeRecords parses an already-read dataset payload. Numbers are kept as json.Number.
func DecodeRecords(path string, data []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &DatasetFileError{Path: path, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if dec.More() {
		return nil, &DatasetFileError{Path: path, Err: errors.New("invalid JSON: trailing data")}
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, &DatasetFileError{Path: path, Err: fmt.Errorf("top level must be a list, got %s", jsonKind(raw))}
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			records = append(records, Record{})
			continue
		}
		records = append(records, Record(obj))
	}
	return records, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
