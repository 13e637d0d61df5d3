package intake

import (
	"bytes"
	"encoding/json"
)

const evidenceKey = "evidence"

// ReportField is one answered field, in schema order.
type ReportField struct {
	Key   string
	Value string
}

// Report is the assembled intake payload. It serializes to a single JSON
// object: one key per schema field, in schema order, then "evidence".
type Report struct {
	Fields   []ReportField
	Evidence []EvidenceRecord
}

// Assemble builds the payload from the accumulated state. Values are carried as entered.
func Assemble(schema *Schema, st *State) *Report {
	r := &Report{
		Fields:   make([]ReportField, 0, schema.Count()),
		Evidence: append([]EvidenceRecord{}, st.Evidence...),
	}
	for _, key := range schema.Keys() {
		r.Fields = append(r.Fields, ReportField{Key: key, Value: st.Answers[key]})
	}
	return r
}

// Value returns the answer stored under key.
func (r *Report) Value(key string) (string, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func (r *Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, f.Key, f.Value); err != nil {
			return nil, err
		}
	}
	if len(r.Fields) > 0 {
		buf.WriteByte(',')
	}
	ev := r.Evidence
	if ev == nil {
		ev = []EvidenceRecord{}
	}
	if err := writeMember(&buf, evidenceKey, ev); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Indented is the payload as shown in the chat: the whole object, two-space indented.
func (r *Report) Indented() (string, error) {
	raw, err := r.MarshalJSON()
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return "", err
	}
	return out.String(), nil
}

func writeMember(buf *bytes.Buffer, key string, v any) error {
	if err := encodeRaw(buf, key); err != nil {
		return err
	}
	buf.WriteByte(':')
	return encodeRaw(buf, v)
}

// encodeRaw writes v without HTML escaping so answers stay as entered.
func encodeRaw(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
