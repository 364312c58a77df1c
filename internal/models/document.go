package models

import "encoding/json"

// Document is a schema-flexible JSON object. Producer payloads carry
// arbitrary nested structures here; the store serializes them to text and
// parses them back on read.
type Document map[string]any

// Parse decodes serialized document text. Returns an error for anything
// that is not a JSON object.
func ParseDocument(text string) (Document, error) {
	var d Document
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return nil, err
	}
	return d, nil
}

// Serialize renders the document as compact JSON text for storage.
func (d Document) Serialize() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Int reads a numeric field as an int. JSON numbers decode as float64, so
// the value is truncated. The second return is false when the field is
// missing or not numeric.
func (d Document) Int(key string) (int, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
