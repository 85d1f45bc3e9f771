package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/nvello/feedpilot/backend"
	"github.com/nvello/feedpilot/feedex"
)

// States of the assist lifecycle.
type State int

const (
	Unattached State = iota
	Targeting
	Ready
	Generating
)

func (s State) String() string {
	switch s {
	case Unattached:
		return "unattached"
	case Targeting:
		return "targeting"
	case Ready:
		return "ready"
	case Generating:
		return "generating"
	default:
		return "unknown"
	}
}

// Agent is the slice of the generation backend the assist needs.
type Agent interface {
	ListPersonas(ctx context.Context) ([]backend.Persona, error)
	Generate(ctx context.Context, req backend.GenerateRequest) (backend.Variants, error)
}

// Editor inserts text into the live comment box for a post. The
// production implementation evaluates JS in the page's tab.
type Editor interface {
	Insert(ctx context.Context, activityID, text string) error
}

// Prefs persists the selected persona across restarts. Optional.
type Prefs interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

const prefSelectedPersona = "assist.selected_persona"

// Config configures an Assist.
type Config struct {
	Agent  Agent
	Editor Editor
	Prefs  Prefs // nil = selection is process-lifetime only

	// Sticky suppresses re-targeting after a resolution. Default: 4s.
	Sticky time.Duration

	// PersonaTTL bounds the persona list cache. Default: 10m.
	PersonaTTL time.Duration

	// PostTextCap truncates the post text sent to the agent. Default: 4000.
	PostTextCap int

	// LongWait switches the progress ticker to rotating messages. Default: 30s.
	LongWait time.Duration

	Logger *slog.Logger

	now func() time.Time // test hook
}

func (c *Config) defaults() {
	if c.Sticky <= 0 {
		c.Sticky = DefaultSticky
	}
	if c.PersonaTTL <= 0 {
		c.PersonaTTL = 10 * time.Minute
	}
	if c.PostTextCap <= 0 {
		c.PostTextCap = 4000
	}
	if c.LongWait <= 0 {
		c.LongWait = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
}

// Assist is the comment-assist state machine for one browsing session.
// All methods are safe for concurrent use; a request-id counter
// discards completions whose generation was superseded.
type Assist struct {
	cfg Config

	mu       sync.Mutex
	state    State
	target   Resolution
	variants backend.Variants
	active   string
	genStart time.Time
	reqID    uint64
	status   Status

	personas   []backend.Persona
	personasAt time.Time
	selected   string
}

// New creates an Assist.
func New(cfg Config) (*Assist, error) {
	cfg.defaults()
	if cfg.Agent == nil {
		return nil, errors.New("assist: Config.Agent is required")
	}
	if cfg.Editor == nil {
		return nil, errors.New("assist: Config.Editor is required")
	}
	a := &Assist{cfg: cfg, status: Status{Kind: StatusIdle}}
	if cfg.Prefs != nil {
		if v, ok, err := cfg.Prefs.Get(prefSelectedPersona); err == nil && ok {
			a.selected = v
		}
	}
	return a, nil
}

// State returns the current lifecycle state.
func (a *Assist) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Target returns the current resolution.
func (a *Assist) Target() Resolution {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target
}

// Attach resolves the comment target from an interaction node in doc.
// A changed post identity resets variants and generation state; the
// persona list and selection survive.
func (a *Assist) Attach(doc, start *html.Node) Resolution {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.cfg.now()
	next := Resolve(doc, start, a.target, now, a.cfg.Sticky)
	a.adopt(next)
	return a.target
}

// Refresh re-anchors against a fresh snapshot after the page mutated.
// Inside the sticky window a still-attached target is kept; a vanished
// container heals by activity id. Generation state survives as long as
// the post identity does.
func (a *Assist) Refresh(doc *html.Node) Resolution {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.cfg.now()
	if a.target.Attached(doc) && now.Sub(a.target.ResolvedAt) < a.cfg.Sticky {
		return a.target
	}
	a.adopt(Heal(doc, a.target, now))
	return a.target
}

// adopt installs a resolution, resetting per-post state when the
// identity changed. Callers hold the lock.
func (a *Assist) adopt(next Resolution) {
	identityChanged := next.ActivityID != a.target.ActivityID ||
		(next.ActivityID == "" && next.Container != a.target.Container)

	a.target = next
	switch {
	case next.Container == nil:
		a.state = Unattached
	case identityChanged:
		a.state = Targeting
		a.variants = backend.Variants{}
		a.active = ""
		a.reqID++ // orphan any in-flight generation
		a.status = Status{Kind: StatusIdle}
		if next.CommentBox != nil {
			a.state = Ready
		}
	case a.state == Unattached:
		a.state = Ready
	}
}

// Personas returns the persona list, served from a TTL cache unless
// force is set.
func (a *Assist) Personas(ctx context.Context, force bool) ([]backend.Persona, error) {
	a.mu.Lock()
	if !force && a.personas != nil && a.cfg.now().Sub(a.personasAt) < a.cfg.PersonaTTL {
		cached := a.personas
		a.mu.Unlock()
		return cached, nil
	}
	a.mu.Unlock()

	personas, err := a.cfg.Agent.ListPersonas(ctx)
	if err != nil {
		return nil, fmt.Errorf("assist: list personas: %w", err)
	}

	a.mu.Lock()
	a.personas = personas
	a.personasAt = a.cfg.now()
	a.mu.Unlock()
	return personas, nil
}

// SelectPersona records the active persona and persists it when a
// preference store is wired.
func (a *Assist) SelectPersona(key string) {
	a.mu.Lock()
	a.selected = key
	prefs := a.cfg.Prefs
	a.mu.Unlock()

	if prefs != nil {
		if err := prefs.Set(prefSelectedPersona, key); err != nil {
			a.cfg.Logger.Warn("assist: persist persona selection", "error", err)
		}
	}
}

// SelectedPersona returns the active persona key, "" when none.
func (a *Assist) SelectedPersona() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selected
}

// Generate runs one generation for the resolved post: validates the
// persona selection, reads the post text scoped to the resolved
// container, calls the agent, and inserts the default variant into the
// editor. A second call while one runs is a no-op. A completion whose
// request id was superseded (target changed, newer generation) is
// discarded without touching state.
func (a *Assist) Generate(ctx context.Context) error {
	a.mu.Lock()
	if a.state == Generating {
		a.mu.Unlock()
		return nil
	}
	if a.target.Container == nil {
		a.mu.Unlock()
		return errors.New("assist: no post targeted")
	}
	if a.selected == "" {
		a.status = failureStatus(errNoPersona)
		a.mu.Unlock()
		return errNoPersona
	}

	post := feedex.PostFromArticle(a.target.Container, a.cfg.now())
	if post == nil || (post.Text == "" && post.Markdown == "") {
		a.mu.Unlock()
		return errors.New("assist: targeted post has no readable text")
	}
	text := post.Markdown
	if text == "" {
		text = post.Text
	}
	text = capRunes(text, a.cfg.PostTextCap)

	a.reqID++
	id := a.reqID
	persona := a.selected
	author := post.AuthorName
	activityID := a.target.ActivityID
	a.state = Generating
	a.genStart = a.cfg.now()
	a.status = Status{Text: progressText(0, a.cfg.LongWait), Kind: StatusWorking}
	a.mu.Unlock()

	variants, err := a.cfg.Agent.Generate(ctx, backend.GenerateRequest{
		PostText:   text,
		PersonaKey: persona,
		AuthorName: author,
	})

	a.mu.Lock()
	if a.reqID != id {
		// Superseded while we were waiting; nobody wants this result.
		a.mu.Unlock()
		return nil
	}
	if err != nil {
		a.state = Ready
		a.status = failureStatus(err)
		a.mu.Unlock()
		return fmt.Errorf("assist: generate: %w", err)
	}

	a.variants = variants
	a.active = defaultVariant(variants)
	a.state = Ready
	a.status = Status{Text: "Draft ready.", Kind: StatusReady}
	insert := a.variantText(a.active)
	a.mu.Unlock()

	if insert != "" {
		if err := a.cfg.Editor.Insert(ctx, activityID, insert); err != nil {
			a.cfg.Logger.Warn("assist: insert draft", "error", err)
		}
	}
	return nil
}

// SelectVariant inserts a previously generated variant without
// re-generating.
func (a *Assist) SelectVariant(ctx context.Context, which string) error {
	a.mu.Lock()
	text := a.variantText(which)
	if text == "" {
		a.mu.Unlock()
		return fmt.Errorf("assist: no %q variant available", which)
	}
	a.active = which
	activityID := a.target.ActivityID
	a.mu.Unlock()

	if err := a.cfg.Editor.Insert(ctx, activityID, text); err != nil {
		return fmt.Errorf("assist: insert variant: %w", err)
	}
	return nil
}

// Variants returns the current variants and the active one.
func (a *Assist) Variants() (backend.Variants, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.variants, a.active
}

// Status returns the current status line. While generating, the text
// follows the progress ticker.
func (a *Assist) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Generating {
		return Status{
			Text: progressText(a.cfg.now().Sub(a.genStart), a.cfg.LongWait),
			Kind: StatusWorking,
		}
	}
	return a.status
}

// variantText reads a variant by name. Callers hold the lock.
func (a *Assist) variantText(which string) string {
	switch which {
	case "short":
		return a.variants.Short
	case "medium":
		return a.variants.Medium
	case "long":
		return a.variants.Long
	}
	return ""
}

// defaultVariant prefers medium, then short, then long.
func defaultVariant(v backend.Variants) string {
	switch {
	case v.Medium != "":
		return "medium"
	case v.Short != "":
		return "short"
	case v.Long != "":
		return "long"
	}
	return ""
}

func capRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
