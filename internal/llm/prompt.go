package llm

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/workflow"
)

// Prompt names in the catalogue.
const (
	PromptCategorisation    = "categorisation"
	PromptInvoiceExtraction = "invoice_extraction"
	PromptNoteExtraction    = "note_extraction"
	PromptResultExtraction  = "result_extraction"
)

//go:embed prompts/*.yaml
var embeddedPrompts embed.FS

var placeholder = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

type PromptConfig struct {
	System       string `yaml:"system"`
	UserTemplate string `yaml:"user_template"`
	Version      string `yaml:"version"`
}

// PromptCatalog holds prompt configurations keyed by file name without extension.
type PromptCatalog struct {
	prompts map[string]PromptConfig
	logger  *slog.Logger
}

// DefaultPromptCatalog loads the prompts compiled into the binary.
func DefaultPromptCatalog(logger *slog.Logger) (*PromptCatalog, error) {
	sub, err := fs.Sub(embeddedPrompts, "prompts")
	if err != nil {
		return nil, common.NewPromptLoadError("prompts", err)
	}
	return LoadPromptCatalog(sub, logger)
}

// LoadPromptCatalog reads every *.yaml file at the root of fsys.
func LoadPromptCatalog(fsys fs.FS, logger *slog.Logger) (*PromptCatalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, common.NewPromptLoadError("*.yaml", err)
	}

	c := &PromptCatalog{prompts: make(map[string]PromptConfig, len(names)), logger: logger}
	for _, name := range names {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, common.NewPromptLoadError(name, err)
		}
		var cfg PromptConfig
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, common.NewPromptLoadError(name, err)
		}
		key := strings.TrimSuffix(path.Base(name), ".yaml")
		c.prompts[key] = cfg
		logger.Debug("llm.prompt.loaded", "name", key, "version", cfg.Version)
	}
	return c, nil
}

func (c *PromptCatalog) Get(name string) (PromptConfig, error) {
	cfg, ok := c.prompts[name]
	if !ok {
		return PromptConfig{}, common.NewPromptLoadError(name, errors.New("prompt not found"))
	}
	return cfg, nil
}

// Render joins the system text and the user template, substituting {name} slots from vars.
// A slot without a value is an ErrPromptRender.
func (c *PromptCatalog) Render(name string, vars map[string]string) (string, error) {
	cfg, err := c.Get(name)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(cfg.System); s != "" {
		parts = append(parts, s)
	}
	if cfg.UserTemplate != "" {
		user, err := format(cfg.UserTemplate, vars)
		if err != nil {
			return "", common.NewPromptRenderError(name, err)
		}
		parts = append(parts, strings.TrimSpace(user))
	}
	prompt := strings.Join(parts, "\n")
	c.logger.Debug("llm.prompt.rendered", "name", name, "length", len(prompt))
	return prompt, nil
}

// WorkflowPrompts renders each stage prompt, keeping the {text} slot for call time.
func (c *PromptCatalog) WorkflowPrompts() (workflow.Prompts, error) {
	stages := map[workflow.Stage]string{
		workflow.StageClassification:   PromptCategorisation,
		workflow.StageInvoiceExtractor: PromptInvoiceExtraction,
		workflow.StageNoteExtractor:    PromptNoteExtraction,
		workflow.StageResultExtractor:  PromptResultExtraction,
	}
	vars := map[string]string{"text": TextPlaceholder}
	out := make(workflow.Prompts, len(stages))
	for stage, name := range stages {
		p, err := c.Render(name, vars)
		if err != nil {
			return nil, err
		}
		out[stage] = p
	}
	return out, nil
}

func format(tmpl string, vars map[string]string) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := m[1 : len(m)-1]
		v, ok := vars[key]
		if !ok {
			missing = append(missing, key)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("missing template variables: %s", strings.Join(missing, ", "))
	}
	return out, nil
}
