// Package codec converts form data between core types and their stored text.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// EncodeData marshals submission data for storage.
func EncodeData(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode form data: %w", err)
	}
	return b, nil
}

// DecodeData unmarshals stored data. Numbers decode as json.Number so
// amounts keep their exact decimal text.
func DecodeData(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode form data: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// CloneData deep-copies data through its stored form.
func CloneData(data map[string]any) (map[string]any, error) {
	b, err := EncodeData(data)
	if err != nil {
		return nil, err
	}
	return DecodeData(b)
}

// ParseAmount reads an amount column stored as decimal text.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode amount %q: %w", s, err)
	}
	return d, nil
}
