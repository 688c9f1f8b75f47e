package core

import (
	"strings"
	"testing"
)

func TestValidate_DefaultConfig(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("DefaultConfig() should be valid: %v", err)
	}
	if err := Validate(sampleConfig()); err != nil {
		t.Fatalf("sampleConfig() should be valid: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*TemplateConfig)
		field  string
	}{
		{"zero width", func(c *TemplateConfig) { c.Canvas.Width = 0 }, "canvas.width"},
		{"bad orientation", func(c *TemplateConfig) { c.Canvas.Orientation = "square" }, "canvas.orientation"},
		{"bad type", func(c *TemplateConfig) { c.Elements[0].Type = "video" }, "elements[0].type"},
		{"missing id", func(c *TemplateConfig) { c.Elements[1].ID = "" }, "elements[1].id"},
		{"bad align", func(c *TemplateConfig) { c.Elements[0].Style.TextAlign = "middle" }, "elements[0].style.textAlign"},
		{"duplicate id", func(c *TemplateConfig) { c.Elements[2].ID = "title" }, "elements"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := sampleConfig()
			tc.mutate(&cfg)

			err := Validate(cfg)
			verr, ok := IsValidationError(err)
			if !ok {
				t.Fatalf("expected ValidationError, got %v", err)
			}

			found := false
			for _, f := range verr.Fields {
				if f.Field == tc.field {
					found = true
					if f.Error == "" {
						t.Errorf("empty message for %s", f.Field)
					}
				}
			}
			if !found {
				t.Errorf("field %q not reported in %+v", tc.field, verr.Fields)
			}
		})
	}
}

func TestValidate_DuplicateIDMessage(t *testing.T) {
	cfg := sampleConfig()
	cfg.Elements[1].ID = "title"

	verr, ok := IsValidationError(Validate(cfg))
	if !ok {
		t.Fatal("expected ValidationError")
	}
	if !strings.Contains(verr.Fields[0].Error, "unique") {
		t.Errorf("unexpected message: %q", verr.Fields[0].Error)
	}
}
