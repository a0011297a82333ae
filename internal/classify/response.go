package classify

import (
	"fmt"
	"strings"

	"github.com/hebbarp/c9ai/internal/intent"
)

// Kind tags a Response. Replaces the legacy control-prefix strings
// ("@action:", "@create:") with a real union so a conversational reply that
// merely contains such a prefix can never be misrouted.
type Kind int

const (
	KindConversational Kind = iota
	KindAction
	KindCreateFile
)

// Response is the resolver/model classification result.
type Response struct {
	Kind   Kind
	Action intent.Intent // valid when KindAction
	File   CreateFile    // valid when KindCreateFile
	Text   string        // valid when KindConversational
}

// CreateFile asks the caller to write a generated file.
type CreateFile struct {
	Name    string
	Content string
}

func Conversational(text string) Response {
	return Response{Kind: KindConversational, Text: text}
}

func ActionResponse(verb, target string) Response {
	return Response{Kind: KindAction, Action: intent.Intent{Verb: verb, Target: target}}
}

// ParseModelOutput converts the model wire format into a Response. The
// prefixes are the contract with the model prompt template, parsed here at
// the single boundary:
//
//	@action: <verb> <target>
//	@create: <filename>\n<content>
//	anything else            -> conversational text
func ParseModelOutput(raw string) (Response, error) {
	trimmed := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(trimmed, "@action:"):
		spec := strings.TrimSpace(strings.TrimPrefix(trimmed, "@action:"))
		in, err := intent.Parse(spec)
		if err != nil {
			return Response{}, fmt.Errorf("model action output: %w", err)
		}
		return Response{Kind: KindAction, Action: in}, nil
	case strings.HasPrefix(trimmed, "@create:"):
		body := strings.TrimPrefix(trimmed, "@create:")
		name, content, found := strings.Cut(body, "\n")
		name = strings.TrimSpace(name)
		if name == "" {
			return Response{}, fmt.Errorf("model create output: missing filename")
		}
		if !found {
			content = ""
		}
		return Response{Kind: KindCreateFile, File: CreateFile{Name: name, Content: content}}, nil
	default:
		return Conversational(trimmed), nil
	}
}
