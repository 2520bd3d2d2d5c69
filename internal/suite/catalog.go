package suite

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
)

var lineSuffix = regexp.MustCompile(`:\d+$`)

// FeatureInfo is what the hooks need to know about a feature file that a
// godog pickle does not carry: the feature title and the keyword each
// step was written with.
type FeatureInfo struct {
	ID    string
	Title string

	keywords map[string][]string // pickle signature -> step keywords
}

// Keyword returns the keyword step i of p was written with. Pickles that
// cannot be matched fall back to the step type.
func (f *FeatureInfo) Keyword(p *messages.Pickle, i int) string {
	if kws, ok := f.keywords[signature(p)]; ok && i < len(kws) {
		return kws[i]
	}
	if i < len(p.Steps) {
		return keywordForType(p.Steps[i].Type)
	}
	return "*"
}

// Catalog parses feature files on demand and caches what it learned. It
// is shared by concurrently running scenarios.
type Catalog struct {
	mu       sync.Mutex
	features map[string]*FeatureInfo
	sources  map[string][]byte
}

func NewCatalog() *Catalog {
	return &Catalog{
		features: make(map[string]*FeatureInfo),
		sources:  make(map[string][]byte),
	}
}

// Register makes in-memory feature contents known under name, for
// features that do not live on disk.
func (c *Catalog) Register(name string, contents []byte) {
	c.mu.Lock()
	c.sources[name] = contents
	c.mu.Unlock()
}

// Feature returns the info for the feature at uri. A file that cannot be
// read or parsed is titled after its base name.
func (c *Catalog) Feature(uri string) *FeatureInfo {
	id := lineSuffix.ReplaceAllString(uri, "")

	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.features[id]; ok {
		return f
	}

	src, ok := c.sources[id]
	if !ok {
		var err error
		if src, err = os.ReadFile(id); err != nil {
			src = nil
		}
	}

	f, err := parseFeature(id, src)
	if err != nil {
		f = &FeatureInfo{
			ID:    id,
			Title: strings.TrimSuffix(filepath.Base(id), filepath.Ext(id)),
		}
	}
	c.features[id] = f
	return f
}

func parseFeature(id string, src []byte) (*FeatureInfo, error) {
	newID := (&messages.Incrementing{}).NewId
	doc, err := gherkin.ParseGherkinDocument(bytes.NewReader(src), newID)
	if err != nil {
		return nil, err
	}
	if doc.Feature == nil {
		return nil, errNoFeature
	}

	stepKeywords := make(map[string]string)
	collect := func(steps []*messages.Step) {
		for _, st := range steps {
			stepKeywords[st.Id] = strings.TrimSpace(st.Keyword)
		}
	}
	for _, child := range doc.Feature.Children {
		switch {
		case child.Background != nil:
			collect(child.Background.Steps)
		case child.Scenario != nil:
			collect(child.Scenario.Steps)
		case child.Rule != nil:
			for _, rc := range child.Rule.Children {
				if rc.Background != nil {
					collect(rc.Background.Steps)
				}
				if rc.Scenario != nil {
					collect(rc.Scenario.Steps)
				}
			}
		}
	}

	info := &FeatureInfo{
		ID:       id,
		Title:    doc.Feature.Name,
		keywords: make(map[string][]string),
	}
	for _, p := range gherkin.Pickles(*doc, id, newID) {
		kws := make([]string, len(p.Steps))
		for i, st := range p.Steps {
			kws[i] = stepKeywords[st.AstNodeIds[0]]
			if kws[i] == "" {
				kws[i] = keywordForType(st.Type)
			}
		}
		info.keywords[signature(p)] = kws
	}
	return info, nil
}

// signature identifies a pickle across independent parses of the same
// file. Scenario outline rows differ in their interpolated step texts.
func signature(p *messages.Pickle) string {
	var sb strings.Builder
	sb.WriteString(p.Name)
	for _, st := range p.Steps {
		sb.WriteByte(0)
		sb.WriteString(st.Text)
	}
	return sb.String()
}

func keywordForType(t messages.PickleStepType) string {
	switch t {
	case messages.PickleStepType_CONTEXT:
		return "Given"
	case messages.PickleStepType_ACTION:
		return "When"
	case messages.PickleStepType_OUTCOME:
		return "Then"
	default:
		return "*"
	}
}
