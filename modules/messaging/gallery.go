package messaging

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is one entry of the gallery. Body placeholders use the
// {{name}} form common to messaging providers.
type Template struct {
	Name     string `yaml:"name" json:"name"`
	Language string `yaml:"language" json:"language"`
	Body     string `yaml:"body" json:"body"`
}

type galleryFile struct {
	Templates []Template `yaml:"templates"`
}

// Gallery is the immutable set of message templates, loaded once at startup.
type Gallery struct {
	templates map[string]Template
}

func galleryKey(name, language string) string {
	return name + "/" + language
}

// LoadGallery parses a YAML template gallery.
func LoadGallery(data []byte) (*Gallery, error) {
	var file galleryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Join(ErrInvalidGallery, err)
	}

	templates := make(map[string]Template, len(file.Templates))
	for _, tpl := range file.Templates {
		if tpl.Name == "" || tpl.Body == "" {
			return nil, fmt.Errorf("%w: template needs a name and a body", ErrInvalidGallery)
		}
		if tpl.Language == "" {
			tpl.Language = "en"
		}
		key := galleryKey(tpl.Name, tpl.Language)
		if _, exists := templates[key]; exists {
			return nil, fmt.Errorf("%w: duplicate template %s (%s)", ErrInvalidGallery, tpl.Name, tpl.Language)
		}
		templates[key] = tpl
	}
	return &Gallery{templates: templates}, nil
}

// LoadGalleryFile reads and parses the gallery from disk.
func LoadGalleryFile(path string) (*Gallery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gallery %s: %w", path, err)
	}
	return LoadGallery(data)
}

// Templates lists the gallery contents, for the template listing endpoint.
func (g *Gallery) Templates() []Template {
	items := make([]Template, 0, len(g.templates))
	for _, tpl := range g.templates {
		items = append(items, tpl)
	}
	return items
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Render substitutes params into the named template's placeholders. Every
// placeholder must have a value; a message with a literal {{name}} hole must
// never reach a patient.
func (g *Gallery) Render(name, language string, params map[string]string) (string, error) {
	if language == "" {
		language = "en"
	}
	tpl, ok := g.templates[galleryKey(name, language)]
	if !ok {
		return "", fmt.Errorf("%w: %s (%s)", ErrTemplateNotFound, name, language)
	}

	var missing []string
	body := placeholderPattern.ReplaceAllStringFunc(tpl.Body, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := params[key]
		if !ok {
			missing = append(missing, key)
			return match
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, strings.Join(missing, ", "))
	}
	return body, nil
}
