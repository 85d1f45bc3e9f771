package backend

import (
	"context"
	"net/http"
	"strings"
)

// Persona is one writing voice the agent can reply as.
type Persona struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Variants are the three reply lengths one generation produces.
type Variants struct {
	Short  string `json:"short"`
	Medium string `json:"medium"`
	Long   string `json:"long"`
}

// GenerateRequest asks the agent for a comment on a post.
type GenerateRequest struct {
	PostText   string `json:"post_text"`
	PersonaKey string `json:"persona_key"`
	AuthorName string `json:"author_name,omitempty"`
}

// AgentClient talks to the comment-generation agent.
type AgentClient struct {
	client
}

// NewAgentClient creates an AgentClient.
func NewAgentClient(cfg Config) *AgentClient {
	cfg.defaults()
	return &AgentClient{client{cfg: cfg}}
}

// ListPersonas returns the available personas.
func (c *AgentClient) ListPersonas(ctx context.Context) ([]Persona, error) {
	var out struct {
		Personas []Persona `json:"personas"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/personas", nil, &out); err != nil {
		return nil, err
	}
	return out.Personas, nil
}

// Generate produces reply variants for a post. The agent may answer
// with labelled free text instead of the structured form; ParseVariants
// normalizes that.
func (c *AgentClient) Generate(ctx context.Context, req GenerateRequest) (Variants, error) {
	var out struct {
		Variants
		Text string `json:"text"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/generate", req, &out); err != nil {
		return Variants{}, err
	}
	v := out.Variants
	if v.Short == "" && v.Medium == "" && v.Long == "" && out.Text != "" {
		v = ParseVariants(out.Text)
	}
	return v, nil
}

// ParseVariants splits labelled agent output into the three lengths.
// Labels like "Short:", "[medium]", "LONG -" are recognised at line
// starts and stripped; unlabelled text becomes the medium variant.
func ParseVariants(text string) Variants {
	var v Variants
	current := ""
	var buf []string

	flush := func() {
		s := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		switch current {
		case "short":
			v.Short = s
		case "medium":
			v.Medium = s
		case "long":
			v.Long = s
		}
	}

	for _, line := range strings.Split(text, "\n") {
		label, rest, ok := variantLabel(line)
		if ok {
			flush()
			current = label
			if rest != "" {
				buf = append(buf, rest)
			}
			continue
		}
		buf = append(buf, line)
	}
	flush()

	if v.Short == "" && v.Medium == "" && v.Long == "" {
		v.Medium = strings.TrimSpace(text)
	}
	return v
}

// variantLabel matches a variant heading at the start of a line:
// "Short:", "[long]", "MEDIUM -", "**short**:".
func variantLabel(line string) (label, rest string, ok bool) {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "*[# ")

	for _, name := range []string{"short", "medium", "long"} {
		if len(s) < len(name) || !strings.EqualFold(s[:len(name)], name) {
			continue
		}
		tail := s[len(name):]
		tail = strings.TrimLeft(tail, "*]")
		trimmed := strings.TrimLeft(tail, " :-–")
		if tail == "" || tail != trimmed || strings.HasPrefix(tail, ":") {
			return name, strings.TrimSpace(trimmed), true
		}
	}
	return "", "", false
}
