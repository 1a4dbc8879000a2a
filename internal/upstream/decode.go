package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TodoItem is the part of a to-do service record we use.
type TodoItem struct {
	Title string
}

// CatFact is the part of a cat-fact service record we use.
type CatFact struct {
	Text string
}

// TodoURL returns the address of the to-do item served by base.
func TodoURL(base string) string {
	return base + "/todos/1"
}

// CatsURL returns the address of a random cat fact served by base.
func CatsURL(base string) string {
	return base + "/facts/random"
}

// DecodeTodo parses a to-do JSON object. The title field must be present
// and a string; any other field is ignored.
func DecodeTodo(body []byte) (TodoItem, error) {
	var payload struct {
		Title *string `json:"title"`
	}
	if err := unmarshal(body, &payload); err != nil {
		return TodoItem{}, err
	}
	if payload.Title == nil {
		return TodoItem{}, missingField("title")
	}
	return TodoItem{Title: *payload.Title}, nil
}

// DecodeCatFact parses a cat-fact JSON object. The text field must be
// present and a string; any other field is ignored.
func DecodeCatFact(body []byte) (CatFact, error) {
	var payload struct {
		Text *string `json:"text"`
	}
	if err := unmarshal(body, &payload); err != nil {
		return CatFact{}, err
	}
	if payload.Text == nil {
		return CatFact{}, missingField("text")
	}
	return CatFact{Text: *payload.Text}, nil
}

func unmarshal(body []byte, v interface{}) error {
	err := json.Unmarshal(body, v)
	if err == nil {
		return nil
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		err = fmt.Errorf("incorrect json type for %q, received %s", te.Field, te.Value)
	}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		err = fmt.Errorf("json syntax error, offset=%d: %v", se.Offset, se)
	}
	return &Error{Kind: KindDecode, Err: err}
}

func missingField(name string) error {
	return &Error{Kind: KindDecode, Err: fmt.Errorf("missing field %q", name)}
}
