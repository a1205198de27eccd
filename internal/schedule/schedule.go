// Package schedule holds the static bus schedule and the options of the schedule screen menus.
package schedule

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

//go:embed schedule.yaml
var embedded []byte

var (
	ErrNoEntries   = errors.New("schedule has no entries")
	ErrEmptyField  = errors.New("schedule entry needs a location and a time")
	ErrEmptyOption = errors.New("menu option is empty")
)

// Entry is one row of the schedule list.
type Entry struct {
	Location string `yaml:"location" json:"location"`
	Time     string `yaml:"time"     json:"time"`
}

type document struct {
	Entries []Entry `yaml:"entries"`
	Menus   struct {
		Time     []string `yaml:"time"`
		Location []string `yaml:"location"`
	} `yaml:"menus"`
}

// Catalog is immutable once parsed; accessors hand out copies.
type Catalog struct {
	entries   []Entry
	times     []string
	locations []string
}

// Parse decodes a schedule document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	if len(doc.Entries) == 0 {
		return nil, ErrNoEntries
	}
	for i, e := range doc.Entries {
		if strings.TrimSpace(e.Location) == "" || strings.TrimSpace(e.Time) == "" {
			return nil, fmt.Errorf("entry %d: %w", i, ErrEmptyField)
		}
	}
	for _, opt := range append(append([]string{}, doc.Menus.Time...), doc.Menus.Location...) {
		if strings.TrimSpace(opt) == "" {
			return nil, ErrEmptyOption
		}
	}
	return &Catalog{
		entries:   doc.Entries,
		times:     doc.Menus.Time,
		locations: doc.Menus.Location,
	}, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embedded)
		if err != nil {
			panic("schedule: embedded schedule is invalid: " + err.Error())
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

func (c *Catalog) TimeOptions() []string {
	return append([]string(nil), c.times...)
}

func (c *Catalog) LocationOptions() []string {
	return append([]string(nil), c.locations...)
}

// FormatTable renders entries as a pipe table padded by display width,
// so full-width East Asian characters still line up in a terminal.
func FormatTable(entries []Entry) string {
	rows := [][]string{{"Location", "Time"}}
	for _, e := range entries {
		rows = append(rows, []string{e.Location, e.Time})
	}

	widths := make([]int, 2)
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		sb.WriteString("|")
		for i, cell := range cells {
			sb.WriteString(" ")
			sb.WriteString(cell)
			sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	writeRow(rows[0])
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows[1:] {
		writeRow(row)
	}
	return sb.String()
}
