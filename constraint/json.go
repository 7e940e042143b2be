package constraint

import (
	"encoding/json"
	"fmt"
)

// UnmarshalJSON accepts parameters as plain names or in the APE form
// {"<dimension>": ["<name>"]} naming a single predicate.
func (s *Spec) UnmarshalJSON(d []byte) error {
	var raw struct {
		ID         string            `json:"constraintid"`
		Parameters []json.RawMessage `json:"parameters"`
		Formula    string            `json:"formula"`
	}
	if err := json.Unmarshal(d, &raw); err != nil {
		return err
	}
	*s = Spec{ID: raw.ID, Formula: raw.Formula}
	for i, p := range raw.Parameters {
		var name string
		if err := json.Unmarshal(p, &name); err == nil {
			s.Parameters = append(s.Parameters, name)
			continue
		}
		var dims map[string][]string
		if err := json.Unmarshal(p, &dims); err != nil {
			return fmt.Errorf("constraint %q parameter %d: %w", raw.ID, i, err)
		}
		if len(dims) != 1 {
			return fmt.Errorf("constraint %q parameter %d: want one dimension, got %d", raw.ID, i, len(dims))
		}
		for _, names := range dims {
			if len(names) != 1 {
				return fmt.Errorf("constraint %q parameter %d: want one name, got %v", raw.ID, i, names)
			}
			s.Parameters = append(s.Parameters, names[0])
		}
	}
	return nil
}
