// Generates an example chat page and writes it to stdout.
// Usage: go run ./render/html/cmd/example > example.html
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/sonnes/granth/core"
	htmlrender "github.com/sonnes/granth/render/html"
)

func main() {
	s := core.NewSession()

	exchanges := []struct {
		question string
		answer   string
		citation *core.Citation
	}{
		{
			question: "What is the capital of France?",
			answer:   "**Paris** is the capital of France.",
			citation: &core.Citation{
				BookName:   "Geo101",
				PageNumber: core.PageInt(12),
				Content:    "Paris is the capital and most populous city of France.",
			},
		},
		{
			question: "Show me how the index is queried.",
			answer:   "The lookup is a single call:\n\n```go\nres, err := idx.Search(ctx, query, 5)\n```",
			citation: &core.Citation{
				BookName:   "Search Engines in Practice",
				PageNumber: core.PageText("xiv"),
				Content:    "A search call takes the query and the number of results to return.\nResults are ranked by score.",
			},
		},
		{
			question: "Who wrote the preface?",
			answer:   "Error occurred: index unavailable",
		},
	}

	for _, ex := range exchanges {
		if _, err := s.AppendTurn(core.RoleUser, ex.question); err != nil {
			log.Fatal(err)
		}
		i, err := s.AppendTurn(core.RoleAssistant, ex.answer)
		if err != nil {
			log.Fatal(err)
		}
		if ex.citation != nil {
			if err := s.SetCitation(i, *ex.citation); err != nil {
				log.Fatal(err)
			}
		}
	}

	r := htmlrender.New()
	if err := r.Render(os.Stdout, s); err != nil {
		log.Fatal(err)
	}
}
