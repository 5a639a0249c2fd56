package scheme

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Criteria holds the raw eligibility constraints of a scheme keyed by field
// name. Values are kept undecoded so that one malformed field can be skipped
// without discarding the record.
type Criteria map[string]any

// Scheme is a single entry of the eligibility catalog.
type Scheme struct {
	ID                 string   `json:"id,omitempty" mapstructure:"id"`
	Name               string   `json:"name" mapstructure:"name"`
	Description        string   `json:"description,omitempty" mapstructure:"description"`
	Benefit            string   `json:"benefit,omitempty" mapstructure:"benefit"`
	ApplicationProcess string   `json:"application_process,omitempty" mapstructure:"application_process"`
	Department         string   `json:"department,omitempty" mapstructure:"department"`
	ApplyLink          string   `json:"apply_link,omitempty" mapstructure:"apply_link"`
	Criteria           Criteria `json:"eligibility_criteria,omitempty" mapstructure:"eligibility_criteria"`
}

// Schemes is an ordered collection of schemes. Order is significant: results
// are reported in catalog order.
type Schemes struct {
	Items []*Scheme
}

func (s *Schemes) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}

// Names returns scheme names in collection order.
func (s *Schemes) Names() []string {
	names := make([]string, 0, s.Len())
	if s == nil {
		return names
	}
	for _, item := range s.Items {
		names = append(names, item.Name)
	}
	return names
}

func (s *Schemes) FindByName(name string) *Scheme {
	if s == nil {
		return nil
	}
	key := nameKey(name)
	for _, item := range s.Items {
		if nameKey(item.Name) == key {
			return item
		}
	}
	return nil
}

// Clone returns a shallow copy whose item slice can be filtered independently.
func (s *Schemes) Clone() *Schemes {
	if s == nil {
		return &Schemes{}
	}
	items := make([]*Scheme, len(s.Items))
	copy(items, s.Items)
	return &Schemes{Items: items}
}

// Dedup removes repeated schemes, keeping the first occurrence. Schemes are
// identified by name, or by id when the name is blank. It returns the names of
// the dropped duplicates.
func (s *Schemes) Dedup() []string {
	seen := make(map[string]struct{}, s.Len())
	kept := make([]*Scheme, 0, s.Len())
	var dropped []string

	for _, item := range s.Items {
		key := nameKey(item.Name)
		if key == "" {
			key = "id:" + strings.TrimSpace(item.ID)
		}
		if _, ok := seen[key]; ok {
			dropped = append(dropped, item.Name)
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, item)
	}

	s.Items = kept
	return dropped
}

// ExcludeNames removes the schemes with the given names while preserving the
// order of the remaining ones. It returns the names that were removed.
func (s *Schemes) ExcludeNames(names []string) []string {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		if key := nameKey(name); key != "" {
			targets[key] = struct{}{}
		}
	}
	if len(targets) == 0 {
		return nil
	}

	kept := make([]*Scheme, 0, s.Len())
	var excluded []string
	for _, item := range s.Items {
		if _, ok := targets[nameKey(item.Name)]; ok {
			excluded = append(excluded, item.Name)
			continue
		}
		kept = append(kept, item)
	}

	s.Items = kept
	return excluded
}

// ReportByDepartment groups the schemes by the department running them.
func (s *Schemes) ReportByDepartment() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	if s == nil {
		return report
	}
	for _, item := range s.Items {
		key := strings.TrimSpace(item.Department)
		if key == "" {
			key = "Unknown department"
		}
		report[key] = append(report[key], map[string]string{
			"name":    item.Name,
			"benefit": item.Benefit,
			"apply":   item.ApplyLink,
		})
	}
	return report
}

func (s *Schemes) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "schemes_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return "", fmt.Errorf("encode schemes: %w", err)
	}
	return file.Name(), nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
