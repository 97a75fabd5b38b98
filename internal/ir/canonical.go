package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces the one deterministic JSON serialization of an
// IR: object keys sorted, strings NFC-normalized, no HTML escaping, floats
// in shortest round-trip form. Compiling the same normalized model twice
// must yield byte-identical output, so this is the only serialization used
// for golden comparison and run storage.
func MarshalCanonical(r *IR) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	if err := writeKey(&buf, "model"); err != nil {
		return nil, err
	}
	if err := writeString(&buf, r.Model); err != nil {
		return nil, err
	}

	buf.WriteByte(',')
	if err := writeKey(&buf, "regions"); err != nil {
		return nil, err
	}
	if err := writeStrings(&buf, r.Regions); err != nil {
		return nil, err
	}

	buf.WriteByte(',')
	if err := writeKey(&buf, "tables"); err != nil {
		return nil, err
	}
	buf.WriteByte('[')
	for i := range r.Tables {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalTable(&buf, &r.Tables[i]); err != nil {
			return nil, fmt.Errorf("table %q: %w", r.Tables[i].Name, err)
		}
	}
	buf.WriteByte(']')

	buf.WriteByte(',')
	if err := writeKey(&buf, "years"); err != nil {
		return nil, err
	}
	writeInts(&buf, r.Years)

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalTable writes one table object. Field order matches the sorted-key
// rule used everywhere else: keys, name, numeric, rows, time_series.
func marshalTable(buf *bytes.Buffer, t *Table) error {
	buf.WriteByte('{')

	if err := writeKey(buf, "keys"); err != nil {
		return err
	}
	if err := writeStrings(buf, t.Keys); err != nil {
		return err
	}

	buf.WriteByte(',')
	if err := writeKey(buf, "name"); err != nil {
		return err
	}
	if err := writeString(buf, t.Name); err != nil {
		return err
	}

	buf.WriteByte(',')
	if err := writeKey(buf, "numeric"); err != nil {
		return err
	}
	if err := writeStrings(buf, t.Numeric); err != nil {
		return err
	}

	buf.WriteByte(',')
	if err := writeKey(buf, "rows"); err != nil {
		return err
	}
	buf.WriteByte('[')
	for i, row := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalRow(buf, row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	buf.WriteByte(']')

	buf.WriteByte(',')
	if err := writeKey(buf, "time_series"); err != nil {
		return err
	}
	if t.TimeSeries {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}

	buf.WriteByte('}')
	return nil
}

func marshalRow(buf *bytes.Buffer, row Row) error {
	cols := make([]string, 0, len(row))
	for name := range row {
		cols = append(cols, name)
	}
	sort.Strings(cols)

	buf.WriteByte('{')
	for i, name := range cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(buf, name); err != nil {
			return err
		}
		if err := writeValue(buf, row[name]); err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case String:
		return writeString(buf, string(val))
	case Int:
		buf.WriteString(val.Literal())
		return nil
	case Float:
		buf.WriteString(val.Literal())
		return nil
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
}

func writeKey(buf *bytes.Buffer, name string) error {
	if err := writeString(buf, name); err != nil {
		return err
	}
	buf.WriteByte(':')
	return nil
}

// writeString emits a JSON string, NFC normalized at the serialization
// boundary and without HTML escaping.
func writeString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return err
	}
	// json.Encoder adds a trailing newline.
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

func writeStrings(buf *bytes.Buffer, ss []string) error {
	buf.WriteByte('[')
	for i, s := range ss {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, s); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeInts(buf *bytes.Buffer, ns []int) {
	buf.WriteByte('[')
	for i, n := range ns {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, "%d", n)
	}
	buf.WriteByte(']')
}

// UnmarshalCanonical parses a serialized IR back into memory, so the shape
// validator can run on IR produced outside this compiler. Numbers without a
// fraction or exponent decode as Int, everything else as Float.
func UnmarshalCanonical(data []byte) (*IR, error) {
	var raw struct {
		Model   string `json:"model"`
		Regions []string `json:"regions"`
		Years   []int  `json:"years"`
		Tables  []struct {
			Name       string                       `json:"name"`
			Keys       []string                     `json:"keys"`
			Numeric    []string                     `json:"numeric"`
			TimeSeries bool                         `json:"time_series"`
			Rows       []map[string]json.RawMessage `json:"rows"`
		} `json:"tables"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode IR: %w", err)
	}

	out := &IR{Model: raw.Model, Regions: raw.Regions, Years: raw.Years}
	for _, t := range raw.Tables {
		table := Table{Name: t.Name, Keys: t.Keys, Numeric: t.Numeric, TimeSeries: t.TimeSeries}
		for i, rawRow := range t.Rows {
			row := make(Row, len(rawRow))
			for name, cell := range rawRow {
				v, err := decodeValue(cell)
				if err != nil {
					return nil, fmt.Errorf("table %q row %d column %q: %w", t.Name, i, name, err)
				}
				row[name] = v
			}
			table.Rows = append(table.Rows, row)
		}
		out.Tables = append(out.Tables, table)
	}
	return out, nil
}

func decodeValue(data json.RawMessage) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty cell")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("cells must be string, integer, or float: %w", err)
	}
	text := n.String()
	if !strings.ContainsAny(text, ".eE") {
		i, err := n.Int64()
		if err == nil {
			return Int(i), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	return Float(f), nil
}
