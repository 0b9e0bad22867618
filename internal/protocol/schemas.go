package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// #region schemas
// Inbound bridge bodies are validated against these schemas before decoding,
// so a malformed request fails as E_PROTO_BAD_REQUEST instead of surfacing
// half-decoded structs to the queue or the memory store.

const resultsSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "ok"],
    "properties": {
      "id":    {"type": "string", "minLength": 1},
      "ok":    {"type": "boolean"},
      "error": {"type": "string"},
      "data":  {"type": "object", "additionalProperties": {"type": "string"}}
    },
    "additionalProperties": false
  }
}`

const contextSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["position"],
  "properties": {
    "position": {
      "type": "object",
      "required": ["x", "y", "z"],
      "properties": {
        "x": {"type": "number"},
        "y": {"type": "number"},
        "z": {"type": "number"}
      },
      "additionalProperties": false
    },
    "yaw":           {"type": "number"},
    "pitch":         {"type": "number"},
    "selected_slot": {"type": "integer", "minimum": 0, "maximum": 8},
    "held_item":     {"type": "string"},
    "block_below":   {"type": "string"},
    "block_north":   {"type": "string"},
    "block_south":   {"type": "string"},
    "block_east":    {"type": "string"},
    "block_west":    {"type": "string"},
    "floor_grid":    {"type": "array", "items": {"type": "string"}},
    "move_active":   {"type": "boolean"},
    "extra":         {"type": "object", "additionalProperties": {"type": "string"}},
    "time":          {"type": "string"}
  },
  "additionalProperties": false
}`

const chatSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["player", "message"],
  "properties": {
    "player":  {"type": "string", "minLength": 1},
    "message": {"type": "string", "minLength": 1}
  },
  "additionalProperties": false
}`

var (
	resultsSchema = jsonschema.MustCompileString("results.schema.json", resultsSchemaJSON)
	contextSchema = jsonschema.MustCompileString("context.schema.json", contextSchemaJSON)
	chatSchema    = jsonschema.MustCompileString("chat.schema.json", chatSchemaJSON)
)

// #endregion schemas

// #region decode
func validate(schema *jsonschema.Schema, raw []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%s: %w", ErrProtoBadRequest, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%s: %w", ErrProtoBadRequest, err)
	}
	return nil
}

// DecodeResults validates and decodes a POST /results body.
func DecodeResults(raw []byte) ([]Result, error) {
	if err := validate(resultsSchema, raw); err != nil {
		return nil, err
	}
	var out []Result
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrProtoBadRequest, err)
	}
	return out, nil
}

// DecodeContext validates and decodes a POST /context body.
func DecodeContext(raw []byte) (ContextSnapshot, error) {
	if err := validate(contextSchema, raw); err != nil {
		return ContextSnapshot{}, err
	}
	var out ContextSnapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		return ContextSnapshot{}, fmt.Errorf("%s: %w", ErrProtoBadRequest, err)
	}
	return out, nil
}

// DecodeChat validates and decodes a POST /chat body.
func DecodeChat(raw []byte) (ChatEvent, error) {
	if err := validate(chatSchema, raw); err != nil {
		return ChatEvent{}, err
	}
	var out ChatEvent
	if err := json.Unmarshal(raw, &out); err != nil {
		return ChatEvent{}, fmt.Errorf("%s: %w", ErrProtoBadRequest, err)
	}
	return out, nil
}

// #endregion decode
