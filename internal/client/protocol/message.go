package protocol

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrShape         = errors.New("unexpected message shape")
	ErrUnknownAction = errors.New("unknown action")
)

// DecodeError reports a params field that does not have the expected shape.
type DecodeError struct {
	Action Action
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: field %q: %v", e.Action, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: field %q: %v", e.Action, e.Field, ErrShape)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrShape}
	}
	return []error{ErrShape, e.Err}
}

// Message is an inbound frame. Params are kept raw until Decode.
type Message struct {
	Action Action
	Code   Code
	Params map[string]json.RawMessage
	Raw    json.RawMessage

	fingerprint string
}

type wireMessage struct {
	Action Action                     `json:"action"`
	Result *wireResult                `json:"result"`
	Params map[string]json.RawMessage `json:"params"`
}

type wireResult struct {
	Code json.RawMessage `json:"code"`
}

// DecodeMessage parses one inbound frame. Only the JSON syntax and the
// top-level shape are checked here; action specific params are decoded
// lazily by Message.Decode.
func DecodeMessage(raw []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}

	fp, err := Fingerprint(raw)
	if err != nil {
		return Message{}, err
	}

	m := Message{
		Action:      w.Action,
		Params:      w.Params,
		Raw:         append(json.RawMessage(nil), raw...),
		fingerprint: fp,
	}
	if m.Params == nil {
		m.Params = map[string]json.RawMessage{}
	}
	if w.Result != nil {
		code, err := looseString(w.Result.Code)
		if err != nil {
			return Message{}, &DecodeError{Action: w.Action, Field: "result.code", Err: err}
		}
		m.Code = Code(code)
	}
	return m, nil
}

// HasCode reports whether the message carries a result code. Messages
// without one are ignored by every consumer.
func (m Message) HasCode() bool {
	return m.Code != ""
}

// Fingerprint is the structural identity of the message: two frames with
// the same JSON content (whatever the key order or spacing) share it.
func (m Message) Fingerprint() string {
	if m.fingerprint != "" || len(m.Raw) == 0 {
		return m.fingerprint
	}
	fp, _ := Fingerprint(m.Raw)
	return fp
}

// EntityName returns params.entityName, or "" when absent.
func (m Message) EntityName() string {
	s, _ := looseString(m.Params["entityName"])
	return s
}

// Fingerprint hashes the canonical form of a JSON document.
func Fingerprint(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	canonical, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// looseString accepts a JSON string or number; null/absent yield "".
func looseString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("want string, got %s", string(raw))
}

// looseInt accepts a JSON number or numeric string; null/absent yield 0.
func looseInt(raw json.RawMessage) (int, error) {
	if isNull(raw) {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return 0, nil
		}
		if v, err := strconv.Atoi(s); err == nil {
			return v, nil
		}
	}
	return 0, fmt.Errorf("want integer, got %s", string(raw))
}

// looseBool accepts a JSON bool or "true"/"false"; null/absent yield false.
func looseBool(raw json.RawMessage) (bool, error) {
	if isNull(raw) {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseBool(s); err == nil {
			return v, nil
		}
	}
	return false, fmt.Errorf("want bool, got %s", string(raw))
}

// embeddedJSON returns the JSON document carried by raw: either the
// contents of a JSON string, or raw itself when it is an array or object.
// ok is false when the field is absent, null or an empty string.
func embeddedJSON(raw json.RawMessage) (doc string, ok bool, err error) {
	if isNull(raw) {
		return "", false, nil
	}
	trimmed := bytes.TrimSpace(raw)
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false, err
		}
		return s, s != "", nil
	case '[', '{':
		return string(trimmed), true, nil
	default:
		return "", false, fmt.Errorf("want JSON string, array or object, got %s", string(raw))
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
