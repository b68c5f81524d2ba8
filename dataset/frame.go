// Package dataset provides the column-ordered table that flows through the
// training pipeline.
//
// A Frame holds named columns of equal length. Each column is either Numeric
// (float64, NaN marks a missing cell) or Categorical (string, "" marks a
// missing cell). Frame methods that change the column set return a new Frame;
// the receiver is never modified.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// Kind is the storage type of a column.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "float64"
	case Categorical:
		return "object"
	default:
		return "unknown"
	}
}

// Column is a named, typed vector. Exactly one of Num or Str is populated,
// according to Kind.
type Column struct {
	Name string
	Kind Kind
	Num  []float64
	Str  []string
}

// NumericColumn builds a numeric column. The slice is not copied.
func NumericColumn(name string, values []float64) Column {
	return Column{Name: name, Kind: Numeric, Num: values}
}

// CategoricalColumn builds a categorical column. The slice is not copied.
func CategoricalColumn(name string, values []string) Column {
	return Column{Name: name, Kind: Categorical, Str: values}
}

// Len returns the number of cells.
func (c Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Num)
	}
	return len(c.Str)
}

// IsMissing reports whether row i is a missing cell.
func (c Column) IsMissing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Num[i])
	}
	return c.Str[i] == ""
}

// Nulls counts missing cells.
func (c Column) Nulls() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

func (c Column) clone() Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Numeric {
		out.Num = append([]float64(nil), c.Num...)
	} else {
		out.Str = append([]string(nil), c.Str...)
	}
	return out
}

// cell renders row i for duplicate detection and CSV output.
func (c Column) cell(i int) string {
	if c.Kind == Numeric {
		if math.IsNaN(c.Num[i]) {
			return ""
		}
		return strconv.FormatFloat(c.Num[i], 'g', -1, 64)
	}
	return c.Str[i]
}

// Frame is an ordered collection of equal-length columns.
type Frame struct {
	cols  []Column
	index map[string]int
	rows  int
}

// New builds a Frame from columns. Column names must be unique and all
// columns must have the same length.
func New(cols ...Column) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := f.index[c.Name]; dup {
			return nil, errors.NewValueError("dataset.New", fmt.Sprintf("duplicate column %q", c.Name))
		}
		if i == 0 {
			f.rows = c.Len()
		} else if c.Len() != f.rows {
			return nil, errors.NewDimensionError("dataset.New", f.rows, c.Len(), 0)
		}
		f.index[c.Name] = i
		f.cols = append(f.cols, c)
	}
	return f, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(cols ...Column) *Frame {
	f, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return f
}

// Rows returns the number of rows.
func (f *Frame) Rows() int { return f.rows }

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return len(f.cols) }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the named column.
func (f *Frame) Column(name string) (Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return Column{}, false
	}
	return f.cols[i], true
}

// Columns returns the columns in order. The slice must not be modified.
func (f *Frame) Columns() []Column { return f.cols }

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	cols := make([]Column, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c.clone()
	}
	return MustNew(cols...)
}

// Drop returns a Frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	var keep []Column
	for _, c := range f.cols {
		if !skip[c.Name] {
			keep = append(keep, c)
		}
	}
	out := MustNew(keep...)
	if len(keep) == 0 {
		out.rows = f.rows
	}
	return out
}

// Select returns a Frame with only the named columns, in the order given.
func (f *Frame) Select(names ...string) (*Frame, error) {
	var (
		cols    []Column
		missing []string
	)
	for _, n := range names {
		c, ok := f.Column(n)
		if !ok {
			missing = append(missing, n)
			continue
		}
		cols = append(cols, c)
	}
	if len(missing) > 0 {
		return nil, errors.NewSchemaError("select", missing, nil)
	}
	return New(cols...)
}

// With returns a Frame where col replaces the column of the same name in
// place, or is appended at the end if no such column exists.
func (f *Frame) With(col Column) (*Frame, error) {
	if col.Len() != f.rows && len(f.cols) > 0 {
		return nil, errors.NewDimensionError("Frame.With", f.rows, col.Len(), 0)
	}
	cols := append([]Column(nil), f.cols...)
	if i, ok := f.index[col.Name]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return New(cols...)
}

// DropDuplicates removes rows identical to an earlier row in every column.
// The first occurrence is kept and row order is preserved.
func (f *Frame) DropDuplicates() (*Frame, int) {
	seen := make(map[string]struct{}, f.rows)
	var keep []int
	var sb strings.Builder
	for i := 0; i < f.rows; i++ {
		sb.Reset()
		for _, c := range f.cols {
			if c.IsMissing(i) {
				sb.WriteString("\x00NA")
			} else {
				sb.WriteString(c.cell(i))
			}
			sb.WriteByte(0x1f)
		}
		key := sb.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	return f.Take(keep), f.rows - len(keep)
}

// Take returns a Frame holding rows idx, in that order.
func (f *Frame) Take(idx []int) *Frame {
	cols := make([]Column, len(f.cols))
	for j, c := range f.cols {
		out := Column{Name: c.Name, Kind: c.Kind}
		if c.Kind == Numeric {
			out.Num = make([]float64, len(idx))
			for k, i := range idx {
				out.Num[k] = c.Num[i]
			}
		} else {
			out.Str = make([]string, len(idx))
			for k, i := range idx {
				out.Str[k] = c.Str[i]
			}
		}
		cols[j] = out
	}
	out := MustNew(cols...)
	out.rows = len(idx)
	return out
}

// Nulls returns the total number of missing cells.
func (f *Frame) Nulls() int {
	n := 0
	for _, c := range f.cols {
		n += c.Nulls()
	}
	return n
}

// DtypeCounts returns how many columns have each Kind, keyed by Kind.String().
func (f *Frame) DtypeCounts() map[string]int {
	counts := make(map[string]int)
	for _, c := range f.cols {
		counts[c.Kind.String()]++
	}
	return counts
}

// CategoricalNames lists the names of non-numeric columns.
func (f *Frame) CategoricalNames() []string {
	var names []string
	for _, c := range f.cols {
		if c.Kind == Categorical {
			names = append(names, c.Name)
		}
	}
	return names
}

// Float returns the values of a numeric column.
func (f *Frame) Float(name string) ([]float64, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, errors.NewSchemaError("dataset", []string{name}, nil)
	}
	if c.Kind != Numeric {
		return nil, errors.NewSchemaError("dataset", nil, []string{name})
	}
	return c.Num, nil
}

// Dense copies the named numeric columns into a rows×len(names) matrix.
func (f *Frame) Dense(names ...string) (*mat.Dense, error) {
	if f.rows == 0 || len(names) == 0 {
		return nil, errors.ErrEmptyData
	}
	m := mat.NewDense(f.rows, len(names), nil)
	for j, n := range names {
		vals, err := f.Float(n)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// Equal reports whether two frames have the same columns, kinds and cells.
// NaN cells compare equal to each other.
func (f *Frame) Equal(o *Frame) bool {
	if f.rows != o.rows || len(f.cols) != len(o.cols) {
		return false
	}
	for j, c := range f.cols {
		d := o.cols[j]
		if c.Name != d.Name || c.Kind != d.Kind {
			return false
		}
		for i := 0; i < f.rows; i++ {
			if c.Kind == Numeric {
				a, b := c.Num[i], d.Num[i]
				if a != b && !(math.IsNaN(a) && math.IsNaN(b)) {
					return false
				}
			} else if c.Str[i] != d.Str[i] {
				return false
			}
		}
	}
	return true
}

// Unique returns the sorted distinct non-missing values of a categorical column.
func (c Column) Unique() []string {
	set := make(map[string]struct{})
	for _, s := range c.Str {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
