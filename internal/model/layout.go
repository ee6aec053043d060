package model

// Breakpoint names a responsive width tier with its own column count and
// layout list.
type Breakpoint string

const (
	BreakpointLarge      Breakpoint = "lg"
	BreakpointMedium     Breakpoint = "md"
	BreakpointSmall      Breakpoint = "sm"
	BreakpointExtraSmall Breakpoint = "xs"
)

const (
	columnsLarge      = 12
	columnsMedium     = 6
	columnsSmall      = 6
	columnsExtraSmall = 4

	// DefaultWidgetWidth and DefaultWidgetHeight size a freshly placed tile.
	DefaultWidgetWidth  = 4
	DefaultWidgetHeight = 3
	// MinimumWidgetWidth and MinimumWidgetHeight bound user resizing.
	MinimumWidgetWidth  = 2
	MinimumWidgetHeight = 2
)

// Breakpoints lists every responsive tier, widest first. Layout operations
// iterate this list instead of branching per tier.
func Breakpoints() []Breakpoint {
	return []Breakpoint{BreakpointLarge, BreakpointMedium, BreakpointSmall, BreakpointExtraSmall}
}

// ColumnsFor returns the grid column count of a breakpoint. Unknown
// breakpoints fall back to the narrowest tier.
func ColumnsFor(breakpoint Breakpoint) int {
	switch breakpoint {
	case BreakpointLarge:
		return columnsLarge
	case BreakpointMedium:
		return columnsMedium
	case BreakpointSmall:
		return columnsSmall
	case BreakpointExtraSmall:
		return columnsExtraSmall
	default:
		return columnsExtraSmall
	}
}

// LayoutItem is one widget's grid-cell rectangle on a single breakpoint.
// JSON keys match the persisted react-grid-layout entries so stored
// dashboards survive the rewrite unchanged.
type LayoutItem struct {
	WidgetID string `json:"i"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	W        int    `json:"w"`
	H        int    `json:"h"`
	MinW     int    `json:"minW,omitempty"`
	MinH     int    `json:"minH,omitempty"`
}

// Layouts maps each breakpoint to its ordered layout list.
type Layouts map[Breakpoint][]LayoutItem

// Clone returns a deep copy so callers can hand layouts out without
// aliasing the store's internal state.
func (layouts Layouts) Clone() Layouts {
	cloned := make(Layouts, len(layouts))
	for breakpoint, entries := range layouts {
		copied := make([]LayoutItem, len(entries))
		copy(copied, entries)
		cloned[breakpoint] = copied
	}
	return cloned
}

// EntryFor finds the layout rectangle of a widget on a breakpoint.
func (layouts Layouts) EntryFor(breakpoint Breakpoint, widgetID string) (LayoutItem, bool) {
	for _, entry := range layouts[breakpoint] {
		if entry.WidgetID == widgetID {
			return entry, true
		}
	}
	return LayoutItem{}, false
}

// DefaultLayouts builds the initial per-breakpoint placement for the given
// widgets: a single row on the wide tier, two columns on medium tiers and a
// single stacked column on the narrowest one.
func DefaultLayouts(widgets []Widget) Layouts {
	layouts := make(Layouts, len(Breakpoints()))
	for index, widget := range widgets {
		layouts[BreakpointLarge] = append(layouts[BreakpointLarge], LayoutItem{
			WidgetID: widget.ID,
			X:        index * DefaultWidgetWidth,
			Y:        0,
			W:        DefaultWidgetWidth,
			H:        DefaultWidgetHeight,
			MinW:     MinimumWidgetWidth,
			MinH:     MinimumWidgetHeight,
		})
		for _, breakpoint := range []Breakpoint{BreakpointMedium, BreakpointSmall} {
			layouts[breakpoint] = append(layouts[breakpoint], LayoutItem{
				WidgetID: widget.ID,
				X:        (index * 3) % columnsMedium,
				Y:        (index / 2) * DefaultWidgetHeight,
				W:        3,
				H:        DefaultWidgetHeight,
				MinW:     MinimumWidgetWidth,
				MinH:     MinimumWidgetHeight,
			})
		}
		layouts[BreakpointExtraSmall] = append(layouts[BreakpointExtraSmall], LayoutItem{
			WidgetID: widget.ID,
			X:        0,
			Y:        index * DefaultWidgetHeight,
			W:        DefaultWidgetWidth,
			H:        DefaultWidgetHeight,
			MinW:     MinimumWidgetWidth,
			MinH:     MinimumWidgetHeight,
		})
	}
	return layouts
}
