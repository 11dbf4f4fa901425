package ai

import (
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/genai"
)

const (
	titleMin, titleMax           = 8, 120
	summaryMin, summaryMax       = 24, 240
	sectionsMin, sectionsMax     = 3, 8
	headingMin, headingMax       = 3, 120
	paragraphsMin, paragraphsMax = 1, 4
	paragraphMin, paragraphMax   = 20, 1000
)

const instructionTemplate = `You are a senior editor writing for a professional blog.

Write a complete, original blog post for the request below. Return only a JSON object with:
- "title": a specific headline of %d to %d characters.
- "summary": one or two sentences of %d to %d characters.
- "sections": %d to %d sections, in reading order. Each section has a "heading" of %d to %d characters and "paragraphs", a list of %d to %d plain-text paragraphs of %d to %d characters each.

Do not use markdown, HTML or emoji. Do not repeat the title as a heading.

Request:
`

// Instructions embeds prompt verbatim in the fixed instruction template.
func Instructions(prompt string) string {
	return fmt.Sprintf(instructionTemplate,
		titleMin, titleMax,
		summaryMin, summaryMax,
		sectionsMin, sectionsMax,
		headingMin, headingMax,
		paragraphsMin, paragraphsMax,
		paragraphMin, paragraphMax,
	) + prompt
}

// openAISchema is the strict response schema. Strict mode rejects length and
// count keywords, so the bounds travel in the descriptions and are enforced
// after decoding.
func openAISchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type:                 jsonschema.Object,
		AdditionalProperties: false,
		Properties: map[string]jsonschema.Definition{
			"title": {
				Type:        jsonschema.String,
				Description: fmt.Sprintf("Post title, %d-%d characters.", titleMin, titleMax),
			},
			"summary": {
				Type:        jsonschema.String,
				Description: fmt.Sprintf("Short summary, %d-%d characters.", summaryMin, summaryMax),
			},
			"sections": {
				Type:        jsonschema.Array,
				Description: fmt.Sprintf("%d-%d sections.", sectionsMin, sectionsMax),
				Items: &jsonschema.Definition{
					Type:                 jsonschema.Object,
					AdditionalProperties: false,
					Properties: map[string]jsonschema.Definition{
						"heading": {
							Type:        jsonschema.String,
							Description: fmt.Sprintf("Section heading, %d-%d characters.", headingMin, headingMax),
						},
						"paragraphs": {
							Type:        jsonschema.Array,
							Description: fmt.Sprintf("%d-%d paragraphs of %d-%d characters each.", paragraphsMin, paragraphsMax, paragraphMin, paragraphMax),
							Items:       &jsonschema.Definition{Type: jsonschema.String},
						},
					},
					Required: []string{"heading", "paragraphs"},
				},
			},
		},
		Required: []string{"title", "summary", "sections"},
	}
}

func genaiSchema() *genai.Schema {
	str := func(lo, hi int64) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, MinLength: genai.Ptr(lo), MaxLength: genai.Ptr(hi)}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":   str(titleMin, titleMax),
			"summary": str(summaryMin, summaryMax),
			"sections": {
				Type:     genai.TypeArray,
				MinItems: genai.Ptr[int64](sectionsMin),
				MaxItems: genai.Ptr[int64](sectionsMax),
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"heading": str(headingMin, headingMax),
						"paragraphs": {
							Type:     genai.TypeArray,
							MinItems: genai.Ptr[int64](paragraphsMin),
							MaxItems: genai.Ptr[int64](paragraphsMax),
							Items:    str(paragraphMin, paragraphMax),
						},
					},
					Required:         []string{"heading", "paragraphs"},
					PropertyOrdering: []string{"heading", "paragraphs"},
				},
			},
		},
		Required:         []string{"title", "summary", "sections"},
		PropertyOrdering: []string{"title", "summary", "sections"},
	}
}
