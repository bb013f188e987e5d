package view

import (
	"log/slog"

	"golang.org/x/text/language"

	"github.com/leapstack-labs/pqview/internal/rowstore"
)

// FilterConfig selects which rows pass the filter stage.
type FilterConfig struct {
	Column  string `json:"column"`
	Value   string `json:"value"`
	IsRegex bool   `json:"isRegex"`
}

// Active reports whether the filter does anything. An empty column or an
// empty value passes every row through.
func (f FilterConfig) Active() bool {
	return f.Column != "" && f.Value != ""
}

// SortConfig is the single active sort key. The zero value means no sort:
// the filtered order is kept.
type SortConfig struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// Active reports whether a sort key is set.
func (s SortConfig) Active() bool {
	return s.Column != ""
}

// Select returns the configuration after the user picks column: the same
// column flips direction, a different column starts ascending.
func (s SortConfig) Select(column string) SortConfig {
	if s.Active() && s.Column == column {
		return SortConfig{Column: column, Direction: s.Direction.Toggle()}
	}
	return SortConfig{Column: column, Direction: Ascending}
}

// Derive computes the derived view: the store's rows filtered by filter,
// then sorted by sort. A filter pattern that does not compile leaves the
// filter inactive; the compile error is returned with the resulting rows.
func Derive(store *rowstore.Store, filter FilterConfig, sort SortConfig) ([]rowstore.Row, error) {
	return DeriveLocale(store, filter, sort, language.Und)
}

// DeriveLocale is Derive with strings sorted under the collation for tag.
func DeriveLocale(store *rowstore.Store, filter FilterConfig, sort SortConfig, tag language.Tag) ([]rowstore.Row, error) {
	rows := store.Rows()

	var filterErr error
	if filter.Active() {
		rows, filterErr = Filter(rows, filter.Column, filter.Value, filter.IsRegex)
	}
	if sort.Active() {
		rows = SortLocale(rows, sort.Column, sort.Direction, tag)
	}
	return rows, filterErr
}

// Options configures a Controller.
type Options struct {
	// Locale drives string collation. Zero means the root collation.
	Locale language.Tag
	Logger *slog.Logger
}

// memoKey identifies one derivation. Equal keys yield equal views.
type memoKey struct {
	store  *rowstore.Store
	filter FilterConfig
	sort   SortConfig
}

// Controller holds the filter and sort configuration for one store and
// serves the derived view. It is not safe for concurrent use.
type Controller struct {
	store  *rowstore.Store
	filter FilterConfig
	sort   SortConfig
	locale language.Tag
	logger *slog.Logger

	memoValid bool
	memoKey   memoKey
	memoRows  []rowstore.Row
}

// NewController creates a controller with no store loaded.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		locale: opts.Locale,
		logger: logger,
	}
}

// Load replaces the store and resets both configurations.
func (c *Controller) Load(store *rowstore.Store) {
	c.store = store
	c.filter = FilterConfig{}
	c.sort = SortConfig{}
	c.invalidate()
}

// Reset clears both configurations and drops the store.
func (c *Controller) Reset() {
	c.Load(nil)
}

// Store returns the loaded store, or nil.
func (c *Controller) Store() *rowstore.Store {
	return c.store
}

// Filter returns the current filter configuration.
func (c *Controller) Filter() FilterConfig {
	return c.filter
}

// Sort returns the current sort configuration.
func (c *Controller) Sort() SortConfig {
	return c.sort
}

// SetFilter updates the filter column and value. The regex flag is kept.
func (c *Controller) SetFilter(column, value string) {
	c.filter.Column = column
	c.filter.Value = value
}

// SetFilterColumn changes only the filter column.
func (c *Controller) SetFilterColumn(column string) {
	c.filter.Column = column
}

// SetFilterValue changes only the filter value.
func (c *Controller) SetFilterValue(value string) {
	c.filter.Value = value
}

// ToggleRegex flips regex matching without touching column or value.
func (c *Controller) ToggleRegex() {
	c.filter.IsRegex = !c.filter.IsRegex
}

// SetSort replaces the sort configuration.
func (c *Controller) SetSort(s SortConfig) {
	c.sort = s
}

// SelectSortColumn applies a header selection for column.
func (c *Controller) SelectSortColumn(column string) {
	c.sort = c.sort.Select(column)
}

// SelectSortIndex applies a header selection for the column at index i.
// It reports false when i is out of range.
func (c *Controller) SelectSortIndex(i int) bool {
	col, ok := c.store.Column(i)
	if !ok {
		return false
	}
	c.SelectSortColumn(col.Name)
	return true
}

// View returns the derived view for the current configuration. Results are
// memoized on (store, filter, sort); the returned slice must not be
// modified.
func (c *Controller) View() []rowstore.Row {
	key := memoKey{store: c.store, filter: c.filter, sort: c.sort}
	if c.memoValid && c.memoKey == key {
		return c.memoRows
	}

	rows, err := DeriveLocale(c.store, c.filter, c.sort, c.locale)
	if err != nil {
		c.logger.Warn("filter not applied",
			"column", c.filter.Column,
			"pattern", c.filter.Value,
			"error", err)
	}

	c.memoValid = true
	c.memoKey = key
	c.memoRows = rows
	return rows
}

// Count is the number of rows in the derived view.
func (c *Controller) Count() int {
	return len(c.View())
}

// Total is the loaded store's decoded row count.
func (c *Controller) Total() int {
	return c.store.TotalRows()
}

func (c *Controller) invalidate() {
	c.memoValid = false
	c.memoRows = nil
}
