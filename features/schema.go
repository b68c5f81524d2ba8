// Package features turns a cleaned frame into the numeric, pruned frame the
// trainer consumes.
//
// The Encoder applies a declared Schema: identifier columns are dropped,
// ordered categories are ranked, unordered ones are expanded into k-1
// indicators and yes/no columns become 0/1. The Selector then keeps the
// columns whose absolute Pearson correlation with the target exceeds a
// threshold.
package features

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// Column names of the student habits dataset.
const (
	IDColumn     = "student_id"
	TargetColumn = "exam_score"
)

// Transform is the per-column encoding rule.
type Transform int

const (
	Passthrough Transform = iota
	Drop
	Ordinal
	OneHot
	Binary
)

func (t Transform) String() string {
	switch t {
	case Passthrough:
		return "passthrough"
	case Drop:
		return "drop"
	case Ordinal:
		return "ordinal"
	case OneHot:
		return "one-hot"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("Transform(%d)", int(t))
	}
}

// ColumnSpec declares how one column is encoded.
type ColumnSpec struct {
	Name      string
	Transform Transform

	// Mapping is the fixed category to value lookup of Ordinal and Binary columns.
	Mapping map[string]float64

	// Categories fixes the one-hot levels; the first is the dropped reference.
	// When empty the sorted distinct values of the data are used.
	Categories []string

	// Required columns must be present when encoding starts.
	Required bool
}

// UnmappedPolicy decides what happens to a category absent from its lookup,
// including missing cells.
type UnmappedPolicy string

const (
	// PolicyFail aborts encoding with an UnmappedCategoryError.
	PolicyFail UnmappedPolicy = "fail"
	// PolicyMissing encodes the cell as NaN and logs a warning.
	PolicyMissing UnmappedPolicy = "missing"
	// PolicySentinel encodes the cell as Schema.Sentinel and logs a warning.
	PolicySentinel UnmappedPolicy = "sentinel"
)

// ParsePolicy converts a configuration string into an UnmappedPolicy.
func ParsePolicy(s string) (UnmappedPolicy, error) {
	switch p := UnmappedPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyFail, PolicyMissing, PolicySentinel:
		return p, nil
	case "":
		return PolicyFail, nil
	default:
		return "", errors.NewValidationError("unmapped_policy", "must be one of fail, missing, sentinel", s)
	}
}

// Schema is the complete encoding contract of a dataset.
type Schema struct {
	Columns  []ColumnSpec
	Policy   UnmappedPolicy
	Sentinel float64
}

// Required returns the names of required columns in declaration order.
func (s Schema) Required() []string {
	var names []string
	for _, c := range s.Columns {
		if c.Required {
			names = append(names, c.Name)
		}
	}
	return names
}

// Spec returns the declaration of name.
func (s Schema) Spec(name string) (ColumnSpec, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// Validate checks the schema itself, independent of any data.
func (s Schema) Validate() error {
	if _, err := ParsePolicy(string(s.Policy)); err != nil {
		return err
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if c.Name == "" {
			return errors.NewValidationError("schema.columns", "column name must not be empty", c)
		}
		if seen[c.Name] {
			return errors.NewValidationError("schema.columns", "duplicate column", c.Name)
		}
		seen[c.Name] = true
		if (c.Transform == Ordinal || c.Transform == Binary) && len(c.Mapping) == 0 {
			return errors.NewValidationError(c.Name, c.Transform.String()+" column needs a mapping", nil)
		}
		if c.Transform == Binary && len(c.Mapping) != 2 {
			return errors.NewValidationError(c.Name, "binary column needs exactly two categories", c.Mapping)
		}
	}
	return nil
}

// clone deep-copies the schema so later edits by the caller cannot reach an Encoder.
func (s Schema) clone() Schema {
	out := Schema{Policy: s.Policy, Sentinel: s.Sentinel, Columns: make([]ColumnSpec, len(s.Columns))}
	for i, c := range s.Columns {
		cp := c
		if c.Mapping != nil {
			cp.Mapping = make(map[string]float64, len(c.Mapping))
			for k, v := range c.Mapping {
				cp.Mapping[k] = v
			}
		}
		cp.Categories = append([]string(nil), c.Categories...)
		out.Columns[i] = cp
	}
	return out
}

// predictorColumns are the seven numeric habits the deployed model reads, in
// the order the scaler was fitted on.
var predictorColumns = []string{
	"study_hours_per_day",
	"social_media_hours",
	"netflix_hours",
	"attendance_percentage",
	"sleep_hours",
	"exercise_frequency",
	"mental_health_rating",
}

// PredictorColumns returns a copy of the seven inference feature names.
func PredictorColumns() []string {
	return append([]string(nil), predictorColumns...)
}

// DefaultSchema returns the encoding of the student habits dataset.
func DefaultSchema() Schema {
	yesNo := map[string]float64{"No": 0, "Yes": 1}
	cols := []ColumnSpec{
		{Name: IDColumn, Transform: Drop},
		{Name: "age", Transform: Passthrough},
		{Name: "gender", Transform: OneHot, Required: true},
	}
	for _, p := range predictorColumns {
		cols = append(cols, ColumnSpec{Name: p, Transform: Passthrough, Required: true})
	}
	cols = append(cols,
		ColumnSpec{Name: "part_time_job", Transform: Binary, Mapping: yesNo, Required: true},
		ColumnSpec{Name: "extracurricular_participation", Transform: Binary, Mapping: yesNo, Required: true},
		ColumnSpec{Name: "parental_education_level", Transform: Ordinal, Required: true,
			Mapping: map[string]float64{"Unknown": 0, "High School": 1, "Bachelor": 2, "Master": 3}},
		ColumnSpec{Name: "internet_quality", Transform: Ordinal, Required: true,
			Mapping: map[string]float64{"Poor": 1, "Average": 2, "Good": 3}},
		ColumnSpec{Name: "diet_quality", Transform: Ordinal, Required: true,
			Mapping: map[string]float64{"Poor": 1, "Fair": 2, "Good": 3}},
		ColumnSpec{Name: TargetColumn, Transform: Passthrough, Required: true},
	)
	return Schema{Columns: cols, Policy: PolicyFail}
}
