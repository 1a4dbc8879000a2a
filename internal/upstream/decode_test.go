package upstream

import (
	"encoding/json"
	"testing"
)

func TestURLBuilders(t *testing.T) {
	if got := TodoURL("http://todo.local"); got != "http://todo.local/todos/1" {
		t.Errorf("TodoURL() = %q", got)
	}
	if got := CatsURL("http://cats.local"); got != "http://cats.local/facts/random" {
		t.Errorf("CatsURL() = %q", got)
	}
}

func TestDecodeTodo(t *testing.T) {
	titles := []string{
		"get another cat",
		"a, b: c",
		"Todo: x, Cat Fact: y",
		"ünïcödé 🐈",
		`quoted "title" with \ backslash`,
	}

	for _, title := range titles {
		t.Run(title, func(t *testing.T) {
			body, err := json.Marshal(map[string]interface{}{
				"userId":    1,
				"id":        1,
				"title":     title,
				"completed": false,
			})
			if err != nil {
				t.Fatal(err)
			}
			item, err := DecodeTodo(body)
			if err != nil {
				t.Fatalf("DecodeTodo() error = %v", err)
			}
			if item.Title != title {
				t.Errorf("DecodeTodo().Title = %q, want %q", item.Title, title)
			}
		})
	}
}

func TestDecodeCatFact(t *testing.T) {
	body := []byte(`{"status":{"verified":true},"text":"cats are the best living creatures in the universe","type":"cat"}`)
	fact, err := DecodeCatFact(body)
	if err != nil {
		t.Fatalf("DecodeCatFact() error = %v", err)
	}
	if want := "cats are the best living creatures in the universe"; fact.Text != want {
		t.Errorf("DecodeCatFact().Text = %q, want %q", fact.Text, want)
	}
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "not json", body: "<html>oops</html>"},
		{name: "truncated", body: `{"title": "get another`},
		{name: "missing field", body: `{"id": 1}`},
		{name: "null field", body: `{"title": null, "text": null}`},
		{name: "wrong type", body: `{"title": 7, "text": 7}`},
		{name: "array", body: `["title", "text"]`},
		{name: "null document", body: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if item, err := DecodeTodo([]byte(tt.body)); err == nil {
				t.Errorf("DecodeTodo(%q) = %+v, want error", tt.body, item)
			} else if KindOf(err) != KindDecode {
				t.Errorf("DecodeTodo(%q) kind = %q, want %q", tt.body, KindOf(err), KindDecode)
			}
			if fact, err := DecodeCatFact([]byte(tt.body)); err == nil {
				t.Errorf("DecodeCatFact(%q) = %+v, want error", tt.body, fact)
			} else if KindOf(err) != KindDecode {
				t.Errorf("DecodeCatFact(%q) kind = %q, want %q", tt.body, KindOf(err), KindDecode)
			}
		})
	}
}
