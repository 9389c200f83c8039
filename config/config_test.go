package config

import (
	"strings"
	"testing"
	"time"

	"github.com/drblury/mongoweaver/document"
	"github.com/drblury/mongoweaver/resource"
	"github.com/drblury/mongoweaver/store"
)

func TestLoad(t *testing.T) {
	cfg, err := Load("testdata/people.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Address != ":9090" || cfg.Server.Title != "People API" || !cfg.Server.ValidateRequests {
		t.Fatalf("unexpected server settings %+v", cfg.Server)
	}
	if cfg.Server.Router.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %s", cfg.Server.Router.Timeout)
	}
	if cfg.Server.Router.RateLimit.RequestsPerSecond != 20 || cfg.Server.Router.RateLimit.Burst != 40 {
		t.Fatalf("unexpected rate limit %+v", cfg.Server.Router.RateLimit)
	}
	if cfg.Mongo.URI != DefaultMongoURI || cfg.Mongo.Database != "people" {
		t.Fatalf("unexpected mongo settings %+v", cfg.Mongo)
	}
	if len(cfg.Models) != 2 || len(cfg.Resources) != 2 {
		t.Fatalf("expected 2 models and 2 resources, got %d and %d", len(cfg.Models), len(cfg.Resources))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("testdata/missing.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("models: []\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.Address != DefaultAddress || cfg.Server.Title != DefaultTitle || cfg.Mongo.Database != DefaultDatabase {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestParseRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "syntax", yaml: "models: [", want: "parse config"},
		{name: "unknown type", yaml: "models: [{name: a, fields: [{path: x, type: blob}]}]", want: "unknown field type"},
		{name: "missing name", yaml: "models: [{fields: []}]", want: "name is required"},
		{name: "duplicate model", yaml: "models: [{name: a}, {name: a}]", want: "duplicate model"},
		{name: "unknown model", yaml: "resources: [{model: ghost}]", want: `unknown model "ghost"`},
		{name: "unknown method", yaml: "models: [{name: a}]\nresources: [{model: a, methods: {destroy: true}}]", want: `unknown method "destroy"`},
		{name: "count headers", yaml: "models: [{name: a}]\nresources: [{model: a, countHeaders: both}]", want: "unknown countHeaders"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	cfg, err := Load("testdata/people.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	reg, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}

	person, err := reg.Lookup("person")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !person.IsHidden("email") || person.IsHidden("name") {
		t.Fatalf("unexpected hidden paths %v", person.Hidden())
	}
	pet, err := reg.Lookup("pet")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if pet.Collection() != "animals" || pet.VersionKey() != "" {
		t.Fatalf("unexpected pet model %s %q", pet.Collection(), pet.VersionKey())
	}
}

func TestRegistryReportsDanglingRefs(t *testing.T) {
	cfg, err := Parse([]byte("models: [{name: a, fields: [{path: b, type: objectid, ref: missing}]}]"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := cfg.Registry(); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected dangling ref error, got %v", err)
	}
}

func TestMethodTable(t *testing.T) {
	all := Resource{Model: "a"}.MethodTable()
	if !all.Find.Enabled() || !all.Remove.Enabled() {
		t.Fatal("expected every operation when methods are omitted")
	}

	some := Resource{Model: "a", Methods: map[resource.Operation]bool{
		resource.OpFind:   true,
		resource.OpRemove: false,
	}}.MethodTable()
	if !some.Find.Enabled() || some.Remove.Enabled() || some.Create.Enabled() {
		t.Fatalf("unexpected method table %+v", some)
	}
}

func TestBuild(t *testing.T) {
	cfg, err := Load("testdata/people.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	reg, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}

	resources, err := cfg.Build(document.NewDatabase(reg, store.NewMemory()))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(resources))
	}
	if resources[0].Path() != "/person" || len(resources[0].Routes()) != 6 {
		t.Fatalf("unexpected person resource %s %v", resources[0].Path(), resources[0].Routes())
	}
	if resources[1].Path() != "/animals" || len(resources[1].Routes()) != 2 {
		t.Fatalf("unexpected pet resource %s %v", resources[1].Path(), resources[1].Routes())
	}
}

func TestCollections(t *testing.T) {
	cfg, err := Load("testdata/people.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	reg, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}

	got, err := cfg.Collections(reg)
	if err != nil {
		t.Fatalf("Collections: %v", err)
	}
	if strings.Join(got, ",") != "persons,animals" {
		t.Fatalf("unexpected collections %v", got)
	}
}
