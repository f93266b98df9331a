// Package jsondoc provides an ordered, nestable key-value document used to
// build and parse the gateway's JSON bodies.
//
// Insertion order is preserved so serialized requests are deterministic, and
// a missing key is distinguishable from a key holding an empty value: the
// gateway's response shape uses absence to mean "field not applicable".
package jsondoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/shopspring/decimal"
)

// JsonDoc is an ordered mapping from string keys to scalar values, nested
// documents, or sequences of documents.
//
// Typed getters record the first type mismatch on a sticky mapping error
// shared by every document produced from the same parse, so call sites can
// chain Get(...).GetString(...) freely and check Err once after mapping.
type JsonDoc struct {
	keys   []string
	values map[string]any
	err    *error
}

// New returns an empty document.
func New() *JsonDoc {
	var err error
	return &JsonDoc{values: make(map[string]any), err: &err}
}

// Set inserts or overwrites a key and returns the document for chaining.
// Overwriting keeps the key's original position. Empty strings and nil
// values are skipped entirely so that unset fields never reach the wire.
func (d *JsonDoc) Set(key string, value any) *JsonDoc {
	switch v := value.(type) {
	case nil:
		return d
	case string:
		if v == "" {
			return d
		}
	case *JsonDoc:
		if v == nil {
			return d
		}
	case decimal.Decimal:
		value = v.String()
	case *decimal.Decimal:
		if v == nil {
			return d
		}
		value = v.String()
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
	return d
}

// Has reports whether the key is present with a value.
func (d *JsonDoc) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Get returns the nested document under key, or an empty placeholder when
// the key is absent or not a document. The placeholder shares the sticky
// error slot so chained getters stay safe.
func (d *JsonDoc) Get(key string) *JsonDoc {
	v, ok := d.values[key]
	if !ok {
		return &JsonDoc{values: map[string]any{}, err: d.err}
	}
	doc, ok := v.(*JsonDoc)
	if !ok {
		d.fail(key, "document", v)
		return &JsonDoc{values: map[string]any{}, err: d.err}
	}
	return doc
}

// GetString returns the string under key, or "" when absent.
func (d *JsonDoc) GetString(key string) string {
	v, ok := d.values[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(key, "string", v)
		return ""
	}
	return s
}

// GetBool returns the boolean under key, or false when absent.
func (d *JsonDoc) GetBool(key string) bool {
	v, ok := d.values[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		d.fail(key, "bool", v)
		return false
	}
	return b
}

// GetDecimal returns the numeric value under key, accepting both JSON
// numbers and numeric strings (the gateway sends amounts as strings).
// Absent keys yield zero.
func (d *JsonDoc) GetDecimal(key string) decimal.Decimal {
	v, ok := d.values[key]
	if !ok {
		return decimal.Decimal{}
	}
	var raw string
	switch n := v.(type) {
	case string:
		raw = n
	case json.Number:
		raw = n.String()
	default:
		d.fail(key, "number", v)
		return decimal.Decimal{}
	}
	dec, err := decimal.NewFromString(raw)
	if err != nil {
		d.fail(key, "number", raw)
		return decimal.Decimal{}
	}
	return dec
}

// Enumerate returns a restartable sequence over the document array under
// key. Absent keys yield an empty sequence.
func (d *JsonDoc) Enumerate(key string) iter.Seq[*JsonDoc] {
	return func(yield func(*JsonDoc) bool) {
		v, ok := d.values[key]
		if !ok {
			return
		}
		docs, ok := v.([]*JsonDoc)
		if !ok {
			d.fail(key, "array", v)
			return
		}
		for _, doc := range docs {
			if !yield(doc) {
				return
			}
		}
	}
}

// Err returns the first type mismatch recorded by a typed getter on this
// document or any document sharing its parse, or nil.
func (d *JsonDoc) Err() error {
	return *d.err
}

func (d *JsonDoc) fail(key, want string, got any) {
	if *d.err == nil {
		*d.err = fmt.Errorf("key %q: expected %s, got %T", key, want, got)
	}
}

// MarshalJSON serializes the document preserving insertion order.
func (d *JsonDoc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(d.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String returns the canonical JSON text form of the document.
func (d *JsonDoc) String() string {
	b, err := d.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}

// Parse consumes JSON text into a document, preserving key order.
func Parse(data []byte) (*JsonDoc, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parse document: expected object, got %v", tok)
	}

	var sticky error
	doc, err := parseObject(dec, &sticky)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func parseObject(dec *json.Decoder, sticky *error) (*JsonDoc, error) {
	doc := &JsonDoc{values: make(map[string]any), err: sticky}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}
		key := tok.(string)
		value, err := parseValue(dec, sticky)
		if err != nil {
			return nil, err
		}
		if _, ok := doc.values[key]; !ok {
			doc.keys = append(doc.keys, key)
		}
		doc.values[key] = value
	}
	// consume the closing brace
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func parseValue(dec *json.Decoder, sticky *error) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec, sticky)
		case '[':
			var docs []*JsonDoc
			for dec.More() {
				v, err := parseValue(dec, sticky)
				if err != nil {
					return nil, err
				}
				if doc, ok := v.(*JsonDoc); ok {
					docs = append(docs, doc)
				}
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("parse document: %w", err)
			}
			return docs, nil
		}
		return nil, fmt.Errorf("parse document: unexpected delimiter %v", t)
	default:
		// string, json.Number, bool or nil
		return tok, nil
	}
}
