package features

import (
	"math"

	"github.com/YuminosukeSato/examscore/dataset"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
)

// EncodeReport describes the encoded frame.
type EncodeReport struct {
	Rows    int
	Columns int
	Dtypes  map[string]int
	Names   []string
	Dropped []string
}

// Encoder converts a cleaned frame into a fully numeric one according to its Schema.
// It holds no state between calls; encoding the same input twice yields equal frames.
type Encoder struct {
	schema Schema
	logger log.Logger
}

// NewEncoder validates and copies schema.
func NewEncoder(schema Schema, logger log.Logger) (*Encoder, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Nop()
	}
	s := schema.clone()
	if s.Policy == "" {
		s.Policy = PolicyFail
	}
	return &Encoder{schema: s, logger: logger.With(log.StageKey, log.StageEncode)}, nil
}

// Schema returns a copy of the encoder's schema.
func (e *Encoder) Schema() Schema { return e.schema.clone() }

// Encode returns the numeric frame. The schema is checked once up front: a
// missing required column, a categorical column without a declaration, or a
// declared categorical column stored as numbers is a SchemaError. Under
// PolicyFail an unmapped category is an UnmappedCategoryError.
func (e *Encoder) Encode(f *dataset.Frame) (*dataset.Frame, EncodeReport, error) {
	e.logger.Info("==> Starting Feature Engineering")

	if err := e.check(f); err != nil {
		e.logger.Error("Error in Feature Engineering", err)
		return nil, EncodeReport{}, err
	}

	var (
		cols      []dataset.Column
		expanded  []dataset.Column
		dropped   []string
		redundant []string
	)
	for _, col := range f.Columns() {
		spec, declared := e.schema.Spec(col.Name)
		if !declared {
			cols = append(cols, col)
			continue
		}
		switch spec.Transform {
		case Drop:
			dropped = append(dropped, col.Name)
			e.logger.Info("Removed identifier column", log.ColumnKey, col.Name)
		case Passthrough:
			cols = append(cols, col)
		case Ordinal, Binary:
			enc, err := e.mapColumn(spec, col)
			if err != nil {
				e.logger.Error("Error in Feature Engineering", err, log.ColumnKey, col.Name)
				return nil, EncodeReport{}, err
			}
			cols = append(cols, enc)
		case OneHot:
			ind, ref, err := e.oneHot(spec, col)
			if err != nil {
				e.logger.Error("Error in Feature Engineering", err, log.ColumnKey, col.Name)
				return nil, EncodeReport{}, err
			}
			expanded = append(expanded, ind...)
			redundant = append(redundant, ref)
		}
	}

	out, err := dataset.New(append(cols, expanded...)...)
	if err != nil {
		e.logger.Error("Error in Feature Engineering", err)
		return nil, EncodeReport{}, err
	}

	rep := EncodeReport{
		Rows:    out.Rows(),
		Columns: out.NumCols(),
		Dtypes:  out.DtypeCounts(),
		Names:   out.Names(),
		Dropped: dropped,
	}
	e.logger.Info("FEATURE ENGINEERING REPORT",
		log.SamplesKey, rep.Rows,
		log.FeaturesKey, rep.Columns,
		log.DtypesKey, rep.Dtypes,
		log.ColumnsKey, rep.Names,
		"onehot.reference", redundant,
	)
	return out, rep, nil
}

func (e *Encoder) check(f *dataset.Frame) error {
	var missing, invalid []string
	for _, name := range e.schema.Required() {
		if !f.Has(name) {
			missing = append(missing, name)
		}
	}
	for _, col := range f.Columns() {
		spec, declared := e.schema.Spec(col.Name)
		switch {
		case !declared && col.Kind == dataset.Categorical:
			invalid = append(invalid, col.Name)
		case declared && spec.Transform == Passthrough && col.Kind == dataset.Categorical:
			invalid = append(invalid, col.Name)
		case declared && isCategorical(spec.Transform) && col.Kind == dataset.Numeric && col.Nulls() < col.Len():
			invalid = append(invalid, col.Name)
		}
	}
	if len(missing) > 0 || len(invalid) > 0 {
		return errors.NewSchemaError(log.StageEncode, missing, invalid)
	}
	return nil
}

func isCategorical(t Transform) bool {
	return t == Ordinal || t == OneHot || t == Binary
}

// cells returns the categorical values of col. A numeric column reaching here
// is entirely missing.
func cells(col dataset.Column) []string {
	if col.Kind == dataset.Categorical {
		return col.Str
	}
	return make([]string, col.Len())
}

// unmapped collects the distinct offending values in order of first appearance.
type unmapped struct {
	values []string
	seen   map[string]bool
	count  int
}

func (u *unmapped) add(v string) {
	u.count++
	if u.seen == nil {
		u.seen = make(map[string]bool)
	}
	if !u.seen[v] {
		u.seen[v] = true
		u.values = append(u.values, v)
	}
}

// replacement applies the policy once an unmapped value was seen in column.
func (e *Encoder) replacement(column string, u *unmapped) (float64, error) {
	switch e.schema.Policy {
	case PolicyMissing, PolicySentinel:
		v := math.NaN()
		if e.schema.Policy == PolicySentinel {
			v = e.schema.Sentinel
		}
		e.logger.Warn("Unmapped category values replaced",
			log.WarningKey, &errors.UnmappedCategoryWarning{Column: column, Values: u.values, Count: u.count, Replacement: v},
			log.ColumnKey, column,
			log.PolicyKey, string(e.schema.Policy),
		)
		return v, nil
	default:
		return 0, errors.NewUnmappedCategoryError(column, u.values, u.count)
	}
}

func (e *Encoder) mapColumn(spec ColumnSpec, col dataset.Column) (dataset.Column, error) {
	src := cells(col)
	out := make([]float64, len(src))
	var bad unmapped
	var badRows []int
	for i, s := range src {
		v, ok := spec.Mapping[s]
		if !ok {
			bad.add(s)
			badRows = append(badRows, i)
			continue
		}
		out[i] = v
	}
	if bad.count > 0 {
		r, err := e.replacement(col.Name, &bad)
		if err != nil {
			return dataset.Column{}, err
		}
		for _, i := range badRows {
			out[i] = r
		}
	}
	return dataset.NumericColumn(col.Name, out), nil
}

// oneHot expands col into k-1 indicator columns named <col>_<category>. It
// also returns the dropped reference category.
func (e *Encoder) oneHot(spec ColumnSpec, col dataset.Column) ([]dataset.Column, string, error) {
	src := cells(col)
	cats := spec.Categories
	if len(cats) == 0 {
		cats = col.Unique()
	}
	if len(cats) == 0 {
		return nil, "", nil
	}

	level := make(map[string]int, len(cats))
	for i, c := range cats {
		level[c] = i
	}
	ind := make([][]float64, len(cats)-1)
	for k := range ind {
		ind[k] = make([]float64, len(src))
	}

	var bad unmapped
	var badRows []int
	for i, s := range src {
		l, ok := level[s]
		if !ok {
			bad.add(s)
			badRows = append(badRows, i)
			continue
		}
		if l > 0 {
			ind[l-1][i] = 1
		}
	}
	if bad.count > 0 {
		r, err := e.replacement(col.Name, &bad)
		if err != nil {
			return nil, "", err
		}
		for _, i := range badRows {
			for k := range ind {
				ind[k][i] = r
			}
		}
	}

	out := make([]dataset.Column, len(ind))
	for k := range ind {
		out[k] = dataset.NumericColumn(col.Name+"_"+cats[k+1], ind[k])
	}
	return out, cats[0], nil
}
