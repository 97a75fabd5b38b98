package ir

// Row maps canonical lowercase column names to typed scalar values.
type Row map[string]Value

// Table is one named IR table with an ordered row list.
type Table struct {
	// Name is the table identifier, a lowercase identifier like the columns.
	Name string

	// Keys are the columns whose combined values must be unique per row.
	Keys []string

	// TimeSeries marks tables carrying a year column with full model-year
	// coverage per key combination.
	TimeSeries bool

	// Numeric lists the parameter columns that may only hold Int or Float
	// values.
	Numeric []string

	Rows []Row
}

// Columns returns the set of column names used anywhere in the table.
func (t *Table) Columns() map[string]bool {
	cols := make(map[string]bool)
	for _, row := range t.Rows {
		for name := range row {
			cols[name] = true
		}
	}
	return cols
}

// IR is the full compiled output for one model: the table list plus the
// model metadata the shape rules need (declared year range and regions).
type IR struct {
	Model   string
	Regions []string
	Years   []int
	Tables  []Table
}

// Table returns the named table, or nil when absent.
func (r *IR) Table(name string) *Table {
	for i := range r.Tables {
		if r.Tables[i].Name == name {
			return &r.Tables[i]
		}
	}
	return nil
}
