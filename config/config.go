package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/drblury/mongoweaver/document"
	"github.com/drblury/mongoweaver/resource"
	"github.com/drblury/mongoweaver/router"
	"github.com/drblury/mongoweaver/schema"
)

// Defaults applied to empty settings.
const (
	DefaultAddress  = ":8080"
	DefaultMongoURI = "mongodb://localhost:27017"
	DefaultDatabase = "mongoweaver"
	DefaultTitle    = "mongoweaver"
)

// Config is the document read from a YAML file.
type Config struct {
	Server    Server     `yaml:"server"`
	Mongo     Mongo      `yaml:"mongo"`
	Models    []Model    `yaml:"models"`
	Resources []Resource `yaml:"resources"`
}

// Server holds the HTTP settings.
type Server struct {
	Address string `yaml:"address"`
	// Title names the generated OpenAPI document and the documentation page.
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
	// ValidateRequests checks requests against the generated OpenAPI document.
	ValidateRequests bool          `yaml:"validateRequests"`
	Router           router.Config `yaml:"router"`
}

// Mongo holds the connection settings.
type Mongo struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
	// RequireCollections makes readiness wait until every mounted model's
	// collection exists.
	RequireCollections bool `yaml:"requireCollections"`
}

// Model defines one schema.
type Model struct {
	Name       string `yaml:"name"`
	Collection string `yaml:"collection"`
	// VersionKey renames the version field. "-" disables it.
	VersionKey string         `yaml:"versionKey"`
	Fields     []schema.Field `yaml:"fields"`
}

// Resource mounts a model.
type Resource struct {
	Model string `yaml:"model"`
	Path  string `yaml:"path"`
	// Methods enables operations by name. When omitted every operation is
	// enabled; otherwise operations not set to true stay disabled.
	Methods map[resource.Operation]bool `yaml:"methods"`
	// CountHeaders is "total" (default) or "split".
	CountHeaders string `yaml:"countHeaders"`
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw YAML, applies defaults and validates the result.
func Parse(raw []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills empty settings.
func (c *Config) ApplyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.Title == "" {
		c.Server.Title = DefaultTitle
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = DefaultMongoURI
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = DefaultDatabase
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	models := make(map[string]bool, len(c.Models))
	for i, m := range c.Models {
		switch {
		case strings.TrimSpace(m.Name) == "":
			errs = append(errs, fmt.Errorf("models[%d]: name is required", i))
		case models[m.Name]:
			errs = append(errs, fmt.Errorf("models[%d]: duplicate model %q", i, m.Name))
		}
		models[m.Name] = true
	}

	for i, r := range c.Resources {
		if !models[r.Model] {
			errs = append(errs, fmt.Errorf("resources[%d]: unknown model %q", i, r.Model))
		}
		for op := range r.Methods {
			if !knownOperation(op) {
				errs = append(errs, fmt.Errorf("resources[%d]: unknown method %q", i, op))
			}
		}
		if _, err := parseCountHeaders(r.CountHeaders); err != nil {
			errs = append(errs, fmt.Errorf("resources[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Registry builds the schema models and checks their refs.
func (c *Config) Registry() (*schema.Registry, error) {
	reg, err := schema.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, def := range c.Models {
		m, err := def.schema()
		if err != nil {
			return nil, err
		}
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	if err := reg.CheckRefs(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (m Model) schema() (*schema.Model, error) {
	var opts []schema.Option
	if m.Collection != "" {
		opts = append(opts, schema.WithCollection(m.Collection))
	}
	switch m.VersionKey {
	case "":
	case "-":
		opts = append(opts, schema.WithoutVersionKey())
	default:
		opts = append(opts, schema.WithVersionKey(m.VersionKey))
	}
	return schema.New(m.Name, m.Fields, opts...)
}

// Build creates one resource per configured entry. opts are applied before
// the entry's own settings.
func (c *Config) Build(db *document.Database, opts ...resource.Option) ([]*resource.Resource, error) {
	out := make([]*resource.Resource, 0, len(c.Resources))
	for _, r := range c.Resources {
		model, err := db.Model(r.Model)
		if err != nil {
			return nil, err
		}
		counts, err := parseCountHeaders(r.CountHeaders)
		if err != nil {
			return nil, err
		}
		resOpts := append(append([]resource.Option{}, opts...), resource.WithCountHeaders(counts))
		if r.Path != "" {
			resOpts = append(resOpts, resource.WithPath(r.Path))
		}
		out = append(out, resource.New(model, r.MethodTable(), resOpts...))
	}
	return out, nil
}

// Collections returns the collection names of the mounted models.
func (c *Config) Collections(reg *schema.Registry) ([]string, error) {
	seen := make(map[string]bool, len(c.Resources))
	var out []string
	for _, r := range c.Resources {
		m, err := reg.Lookup(r.Model)
		if err != nil {
			return nil, err
		}
		if !seen[m.Collection()] {
			seen[m.Collection()] = true
			out = append(out, m.Collection())
		}
	}
	return out, nil
}

// MethodTable converts the enabled operations into default handlers.
func (r Resource) MethodTable() resource.Methods {
	if r.Methods == nil {
		return resource.AllMethods()
	}
	pick := func(op resource.Operation) resource.Method {
		if r.Methods[op] {
			return resource.Default()
		}
		return resource.Method{}
	}
	return resource.Methods{
		Find:     pick(resource.OpFind),
		FindByID: pick(resource.OpFindByID),
		Create:   pick(resource.OpCreate),
		Save:     pick(resource.OpSave),
		Remove:   pick(resource.OpRemove),
	}
}

func knownOperation(op resource.Operation) bool {
	switch op {
	case resource.OpFind, resource.OpFindByID, resource.OpCreate, resource.OpSave, resource.OpRemove:
		return true
	}
	return false
}

func parseCountHeaders(name string) (resource.CountHeaders, error) {
	switch strings.ToLower(name) {
	case "", "total":
		return resource.CountHeaderTotal, nil
	case "split":
		return resource.CountHeaderSplit, nil
	}
	return resource.CountHeaderTotal, fmt.Errorf("unknown countHeaders %q", name)
}
