package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/cookplan/internal/domain"
)

// Format is a raw plan encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// FormatFor picks a format from a file extension. Anything that is not
// .yaml/.yml is treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a raw plan. It only checks syntax; run Load on the result to
// validate it.
func Decode(data []byte, f Format) (*domain.RawPlan, error) {
	var raw domain.RawPlan
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decoding yaml plan: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding json plan: %w", err)
		}
	}
	return &raw, nil
}

// DecodeFile reads and decodes a raw plan from disk.
func DecodeFile(path string) (*domain.RawPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return Decode(data, FormatFor(path))
}

// LoadFile decodes and validates a plan file.
func LoadFile(path string) (*domain.CookPlan, error) {
	raw, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return Load(raw)
}

// Encode writes a plan in the given format. The output decodes back to an
// equivalent plan through Decode and Load.
func Encode(p *domain.CookPlan, f Format) ([]byte, error) {
	raw := ToRaw(p)
	if f == FormatYAML {
		return yaml.Marshal(raw)
	}
	return json.MarshalIndent(raw, "", "  ")
}

// ToRaw converts a loaded plan back to its raw form.
func ToRaw(p *domain.CookPlan) *domain.RawPlan {
	raw := &domain.RawPlan{
		ID:        p.ID,
		RecipeID:  p.RecipeID,
		Title:     p.Title,
		Servings:  p.Servings,
		Equipment: p.Equipment,
		Stages:    make([]domain.RawStage, len(p.Stages)),
	}
	for i, st := range p.Stages {
		raw.Stages[i] = domain.RawStage{
			Key:                     st.Key,
			Instruction:             st.Instruction,
			ExpectedDurationMinutes: st.ExpectedDurationMinutes,
			TargetTemperatureF:      st.TargetTemperatureF,
			DependsOn:               st.DependsOn,
			Trigger:                 st.Trigger.String(),
		}
	}
	return raw
}
