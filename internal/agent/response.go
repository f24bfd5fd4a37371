package agent

import "strings"

// Fragment types carrying text.
const (
	fragmentOutputText = "output_text"
	fragmentText       = "text"
)

// RunResponse is the subset of an agent run response that carries the answer.
// Older deployments return blocks under "result" instead of "output".
type RunResponse struct {
	Output []Block `json:"output"`
	Result []Block `json:"result"`
	Status string  `json:"status,omitempty"`
}

// Block is one output item of an agent run.
type Block struct {
	Type    string     `json:"type"`
	Content []Fragment `json:"content"`
}

// Fragment is a typed piece of block content.
type Fragment struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// blocks returns "output" when the response carries it, else "result".
func (r *RunResponse) blocks() []Block {
	if r.Output != nil {
		return r.Output
	}
	return r.Result
}

// Normalize extracts the answer text from a run response. Within each block
// an output_text fragment wins over a text fragment; the first block yielding
// text is used. A response without text yields MessageEmpty.
func Normalize(resp *RunResponse) string {
	if resp == nil {
		return MessageEmpty
	}

	for _, block := range resp.blocks() {
		if text, ok := firstText(block, fragmentOutputText); ok {
			return text
		}
		if text, ok := firstText(block, fragmentText); ok {
			return text
		}
	}

	return MessageEmpty
}

func firstText(block Block, fragmentType string) (string, bool) {
	for _, f := range block.Content {
		if f.Type != fragmentType {
			continue
		}
		if text := strings.TrimSpace(f.Text); text != "" {
			return text, true
		}
	}
	return "", false
}
