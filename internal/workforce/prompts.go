package workforce

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.yaml
var promptFS embed.FS

// promptSet holds the named templates for one role, loaded from an embedded
// YAML file. Templates use {placeholder} substitution.
type promptSet map[string]string

// loadPrompts reads prompts/<name>.yaml from the embedded filesystem.
// Panics on a missing or malformed file: prompt files ship with the binary,
// so a failure here is a build defect, not a runtime condition.
func loadPrompts(name string) promptSet {
	raw, err := promptFS.ReadFile("prompts/" + name + ".yaml")
	if err != nil {
		panic(fmt.Sprintf("workforce: missing prompt file %s.yaml: %v", name, err))
	}
	var set promptSet
	if err := yaml.Unmarshal(raw, &set); err != nil {
		panic(fmt.Sprintf("workforce: malformed prompt file %s.yaml: %v", name, err))
	}
	return set
}

// render substitutes {key} placeholders in the named template. Unknown
// placeholders are left intact so a template typo is visible in traces.
func (p promptSet) render(name string, vars map[string]string) string {
	tpl, ok := p[name]
	if !ok {
		panic(fmt.Sprintf("workforce: unknown prompt template %q", name))
	}
	tpl = strings.TrimSpace(tpl)
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

// get returns the named template verbatim.
func (p promptSet) get(name string) string {
	tpl, ok := p[name]
	if !ok {
		panic(fmt.Sprintf("workforce: unknown prompt template %q", name))
	}
	return strings.TrimSpace(tpl)
}
