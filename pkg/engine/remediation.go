package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Remediation template ids, one per single-line probe category
const (
	TemplateDirectory = "directory"
	TemplateKernel    = "kernel"
	TemplateAccount   = "account"
	TemplateUmask     = "umask"
)

// RemediationTemplate is the fix text for one probe category.
// Fix is a text/template with .subject and .rule_id available.
type RemediationTemplate struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Fix  string `yaml:"fix"`
}

// Remediations holds the remediation templates used for probe records
type Remediations struct {
	Templates map[string]RemediationTemplate
}

// NewRemediations returns the built-in templates.
func NewRemediations() *Remediations {
	r := &Remediations{Templates: make(map[string]RemediationTemplate)}
	for _, t := range builtinTemplates {
		r.Templates[t.ID] = t
	}
	return r
}

var builtinTemplates = []RemediationTemplate{
	{
		ID:   TemplateDirectory,
		Name: "Missing directory",
		Fix:  "Create {{.subject}} or correct the path the audit expects, then restrict its ownership and permissions.",
	},
	{
		ID:   TemplateKernel,
		Name: "Missing kernel parameter",
		Fix:  "Set {{.subject}} in /etc/sysctl.conf or a file under /etc/sysctl.d/ and apply it with 'sysctl --system'.",
	},
	{
		ID:   TemplateAccount,
		Name: "Account without expiry",
		Fix:  "Set a maximum password age for {{.subject}} with 'chage -M 90 {{.subject}}', or lock the account if it is unused.",
	},
	{
		ID:   TemplateUmask,
		Name: "Default umask not set",
		Fix:  "Set a restrictive default umask (027) in {{if .subject}}{{.subject}}{{else}}/etc/login.defs{{end}}.",
	},
}

// LoadTemplates reads YAML templates from a directory. Templates with an id
// that already exists replace it.
func (r *Remediations) LoadTemplates(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}

		var t RemediationTemplate
		if err := yaml.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}
		if t.ID == "" {
			return fmt.Errorf("template %s has no id", entry.Name())
		}
		if _, err := render(t, "/etc/example", "TEST-001"); err != nil {
			return fmt.Errorf("template %s: %w", entry.Name(), err)
		}
		r.Templates[t.ID] = t
	}
	return nil
}

// ListTemplates returns "id: name" for every template, sorted by id
func (r *Remediations) ListTemplates() []string {
	list := make([]string, 0, len(r.Templates))
	for _, t := range r.Templates {
		list = append(list, fmt.Sprintf("%s: %s", t.ID, t.Name))
	}
	sort.Strings(list)
	return list
}

// Render produces the fix text for a probe category. Whitespace runs,
// line breaks included, collapse to single spaces so a fix is always one line.
func (r *Remediations) Render(id, subject, ruleID string) (string, error) {
	t, ok := r.Templates[id]
	if !ok {
		return "", fmt.Errorf("template not found: %s", id)
	}
	return render(t, subject, ruleID)
}

func render(t RemediationTemplate, subject, ruleID string) (string, error) {
	tmpl, err := template.New(t.ID).Option("missingkey=error").Parse(t.Fix)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", t.ID, err)
	}
	var buf bytes.Buffer
	vars := map[string]string{"subject": subject, "rule_id": ruleID}
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", t.ID, err)
	}
	return strings.Join(strings.Fields(buf.String()), " "), nil
}

// builtin returns the shipped template for id, ignoring any override.
func builtin(id string) (RemediationTemplate, bool) {
	for _, t := range builtinTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return RemediationTemplate{}, false
}
