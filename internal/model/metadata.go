package model

import (
	"bytes"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
)

// ErrMetadataNotObject is returned when metadata is not a JSON object.
var ErrMetadataNotObject = goerr.New("metadata must be a JSON object")

type metadataField struct {
	key   string
	value json.RawMessage
}

// NormalizeMetadata validates raw as a JSON object and compacts it, keeping
// member order. Null and the empty object yield nil.
func NormalizeMetadata(raw json.RawMessage) (json.RawMessage, error) {
	fields, err := metadataFields(raw)
	if err != nil {
		return nil, err
	}
	return encodeMetadataFields(fields)
}

// MetadataValue decodes the member key of raw into v and reports whether it
// was present.
func MetadataValue(raw json.RawMessage, key string, v any) bool {
	fields, err := metadataFields(raw)
	if err != nil {
		return false
	}
	for _, f := range fields {
		if f.key == key {
			return json.Unmarshal(f.value, v) == nil
		}
	}
	return false
}

// WithMetadataValue returns raw with member key set to v. An existing member
// keeps its position; a new one is appended.
func WithMetadataValue(raw json.RawMessage, key string, v any) (json.RawMessage, error) {
	fields, err := metadataFields(raw)
	if err != nil {
		return nil, err
	}
	value, err := json.Marshal(v)
	if err != nil {
		return nil, goerr.Wrap(err, "encode metadata value", goerr.V("key", key))
	}

	replaced := false
	for i := range fields {
		if fields[i].key == key {
			fields[i].value = value
			replaced = true
		}
	}
	if !replaced {
		fields = append(fields, metadataField{key: key, value: value})
	}
	return encodeMetadataFields(fields)
}

func metadataFields(raw json.RawMessage) ([]metadataField, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, goerr.Wrap(err, "decode metadata")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrMetadataNotObject
	}

	var fields []metadataField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, goerr.Wrap(err, "decode metadata")
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, goerr.Wrap(err, "decode metadata", goerr.V("key", key))
		}
		fields = append(fields, metadataField{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, goerr.Wrap(err, "decode metadata")
	}
	if dec.More() {
		return nil, ErrMetadataNotObject
	}
	return fields, nil
}

func encodeMetadataFields(fields []metadataField) (json.RawMessage, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(f.key)
		buf.Write(key)
		buf.WriteByte(':')
		if err := json.Compact(&buf, f.value); err != nil {
			return nil, goerr.Wrap(err, "encode metadata", goerr.V("key", f.key))
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
