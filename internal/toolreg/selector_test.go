package toolreg

import (
	"context"
	"errors"
	"testing"

	"github.com/hebbarp/c9ai/internal/model"
)

type scriptedInferer struct {
	replies []string
	calls   int
	ready   bool
}

func (s *scriptedInferer) Ready() bool { return s.ready }

func (s *scriptedInferer) Infer(_ context.Context, _ string, _ model.InferOptions) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", errors.New("script exhausted")
}

func selectorFixture(t *testing.T, inf Inferer) *Selector {
	t.Helper()
	r := testRegistry(t)
	tools := []Descriptor{
		{
			Name:        "weather",
			Description: "show the weather forecast for a city",
			Command:     "curl -s wttr.in/{{city}}",
			Parameters:  map[string]Parameter{"city": {Type: "string", Required: true}},
		},
		{
			Name:        "disk",
			Description: "report free disk space",
			Command:     "df -h",
		},
	}
	for _, d := range tools {
		if err := r.Add(d); err != nil {
			t.Fatal(err)
		}
	}
	return NewSelector(r, inf)
}

func TestSelectParsesModelJSON(t *testing.T) {
	inf := &scriptedInferer{ready: true, replies: []string{
		`{"tool": "weather", "parameters": {"city": "pune"}}`,
	}}
	s := selectorFixture(t, inf)

	sel, err := s.Select(context.Background(), "weather in pune")
	if err != nil {
		t.Fatal(err)
	}
	if sel.Tool.Name != "weather" || sel.Params["city"] != "pune" {
		t.Fatalf("got %+v", sel)
	}
}

func TestSelectRetriesOnceOnParseFailure(t *testing.T) {
	inf := &scriptedInferer{ready: true, replies: []string{
		"sorry, I cannot answer in JSON",
		`Sure: {"tool": "disk", "parameters": {}}`,
	}}
	s := selectorFixture(t, inf)

	sel, err := s.Select(context.Background(), "how much space is left")
	if err != nil {
		t.Fatal(err)
	}
	if inf.calls != 2 {
		t.Fatalf("calls=%d want 2", inf.calls)
	}
	if sel.Tool.Name != "disk" {
		t.Fatalf("got %+v", sel)
	}
}

func TestSelectFallsBackToPatternMatching(t *testing.T) {
	inf := &scriptedInferer{ready: true, replies: []string{"nope", "still nope"}}
	s := selectorFixture(t, inf)

	sel, err := s.Select(context.Background(), "what is the weather forecast today")
	if err != nil {
		t.Fatal(err)
	}
	if sel.Tool.Name != "weather" {
		t.Fatalf("got %+v", sel)
	}
	// The lone required parameter receives the whole request.
	if sel.Params["city"] == "" {
		t.Fatalf("params=%v", sel.Params)
	}
}

func TestSelectWithoutModelUsesPatterns(t *testing.T) {
	s := selectorFixture(t, &scriptedInferer{ready: false})
	sel, err := s.Select(context.Background(), "free disk space please")
	if err != nil {
		t.Fatal(err)
	}
	if sel.Tool.Name != "disk" {
		t.Fatalf("got %+v", sel)
	}
}

func TestSelectNoMatch(t *testing.T) {
	s := selectorFixture(t, &scriptedInferer{ready: false})
	if _, err := s.Select(context.Background(), "qqq zzz"); !errors.Is(err, ErrNoTool) {
		t.Fatalf("err=%v want ErrNoTool", err)
	}
}
