package wasm

import (
	"bytes"
	"encoding/json"
)

// encodeArgs turns positional args into the JSON array a guest reads as
// its input.
func encodeArgs(args []any) ([]byte, error) {
	if args == nil {
		args = []any{}
	}
	return json.Marshal(args)
}

// decodeOutput returns the JSON value the guest wrote, or its raw text when
// the output is not JSON. Numbers stay json.Number.
func decodeOutput(output []byte) any {
	if len(output) == 0 {
		return ""
	}
	if !json.Valid(output) {
		return string(output)
	}

	var value any
	dec := json.NewDecoder(bytes.NewReader(output))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return string(output)
	}
	return value
}

// hostRequest is what a guest sends to polytree_invoke
type hostRequest struct {
	Function string            `json:"function"`
	Args     []json.RawMessage `json:"args"`
}

// hostResponse is what polytree_invoke writes back
type hostResponse struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
}

func decodeHostArgs(raw []json.RawMessage) ([]any, error) {
	args := make([]any, 0, len(raw))
	for _, r := range raw {
		var v any
		dec := json.NewDecoder(bytes.NewReader(r))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}
