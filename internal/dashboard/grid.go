package dashboard

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/opensendlabs/dashboard_svc/internal/kvstore"
	"github.com/opensendlabs/dashboard_svc/internal/model"
)

const (
	errorMessageUnknownWidget = "dashboard: unknown widget"

	logEventLoadDashboard    = "load_dashboard"
	logEventPersistDashboard = "persist_dashboard"
	logEventSelfHeal         = "self_heal_layouts"
	logFieldWidgetCount      = "widgets"
	logFieldHealedCount      = "healed_entries"
)

// ErrUnknownWidget indicates the referenced widget id is not on the grid.
var ErrUnknownWidget = errors.New(errorMessageUnknownWidget)

// Grid holds the dashboard's widgets and their per-breakpoint layouts,
// persisting every mutation to the key-value store. Widgets and layouts are
// always written together so neither can orphan the other.
type Grid struct {
	mutex sync.RWMutex

	store  kvstore.Store
	logger *zap.Logger

	widgets   []model.Widget
	layouts   model.Layouts
	lastError error
}

// NewGrid loads the persisted dashboard, falling back to the default metric
// tiles when nothing is stored or the stored payload cannot be decoded, and
// self-heals any widget missing a layout entry. Persistence failures are
// non-fatal; the grid serves in-memory state and records the error.
func NewGrid(store kvstore.Store, logger *zap.Logger) *Grid {
	if logger == nil {
		logger = zap.NewNop()
	}

	grid := &Grid{store: store, logger: logger}
	grid.load()
	return grid
}

func (grid *Grid) load() {
	widgets, widgetsLoaded := grid.loadWidgets()
	if !widgetsLoaded {
		widgets = model.DefaultWidgets()
	}

	layouts, layoutsLoaded := grid.loadLayouts()
	if !layoutsLoaded {
		layouts = model.DefaultLayouts(widgets)
	}

	grid.widgets = widgets
	grid.layouts = layouts

	healedEntries := grid.selfHealLocked()

	grid.logger.Info(logEventLoadDashboard,
		zap.Int(logFieldWidgetCount, len(grid.widgets)),
		zap.Int(logFieldHealedCount, healedEntries),
	)

	if !widgetsLoaded || !layoutsLoaded || healedEntries > 0 {
		grid.persistLocked()
	}
}

func (grid *Grid) loadWidgets() ([]model.Widget, bool) {
	rawWidgets, present, readErr := grid.store.Get(kvstore.KeyDashboardWidgets)
	if readErr != nil {
		grid.logger.Warn(logEventLoadDashboard, zap.Error(readErr))
		grid.lastError = readErr
		return nil, false
	}
	if !present {
		return nil, false
	}

	var widgets []model.Widget
	if decodeErr := json.Unmarshal([]byte(rawWidgets), &widgets); decodeErr != nil {
		grid.logger.Warn(logEventLoadDashboard, zap.Error(decodeErr))
		return nil, false
	}
	return widgets, true
}

func (grid *Grid) loadLayouts() (model.Layouts, bool) {
	rawLayouts, present, readErr := grid.store.Get(kvstore.KeyDashboardLayouts)
	if readErr != nil {
		grid.logger.Warn(logEventLoadDashboard, zap.Error(readErr))
		grid.lastError = readErr
		return nil, false
	}
	if !present {
		return nil, false
	}

	var layouts model.Layouts
	if decodeErr := json.Unmarshal([]byte(rawLayouts), &layouts); decodeErr != nil {
		grid.logger.Warn(logEventLoadDashboard, zap.Error(decodeErr))
		return nil, false
	}
	return layouts, true
}

// selfHealLocked guarantees exactly one layout entry per widget per
// breakpoint: missing entries get a synthesized index-based position and
// entries for unknown widget ids are dropped.
func (grid *Grid) selfHealLocked() int {
	healedEntries := 0
	knownWidgets := make(map[string]struct{}, len(grid.widgets))
	for _, widget := range grid.widgets {
		knownWidgets[widget.ID] = struct{}{}
	}

	if grid.layouts == nil {
		grid.layouts = make(model.Layouts)
	}

	for _, breakpoint := range model.Breakpoints() {
		entries := grid.layouts[breakpoint]

		kept := entries[:0:0]
		seen := make(map[string]struct{}, len(entries))
		for _, entry := range entries {
			if _, known := knownWidgets[entry.WidgetID]; !known {
				healedEntries++
				continue
			}
			if _, duplicate := seen[entry.WidgetID]; duplicate {
				healedEntries++
				continue
			}
			seen[entry.WidgetID] = struct{}{}
			kept = append(kept, entry)
		}

		columns := model.ColumnsFor(breakpoint)
		for index, widget := range grid.widgets {
			if _, covered := seen[widget.ID]; covered {
				continue
			}
			x, y := SynthesizePlacement(index, columns)
			kept = append(kept, newLayoutItem(widget.ID, x, y))
			seen[widget.ID] = struct{}{}
			healedEntries++
		}

		grid.layouts[breakpoint] = kept
	}

	if healedEntries > 0 {
		grid.logger.Info(logEventSelfHeal, zap.Int(logFieldHealedCount, healedEntries))
	}
	return healedEntries
}

// AddWidget places the widget on every breakpoint and persists the grid.
// Adding an id already on the grid is an idempotent no-op.
func (grid *Grid) AddWidget(widget model.Widget) error {
	grid.mutex.Lock()
	defer grid.mutex.Unlock()

	for _, existing := range grid.widgets {
		if existing.ID == widget.ID {
			return nil
		}
	}

	grid.widgets = append(grid.widgets, widget)
	for _, breakpoint := range model.Breakpoints() {
		columns := model.ColumnsFor(breakpoint)
		entries := grid.layouts[breakpoint]
		x, y := FindPlacement(entries, columns, model.DefaultWidgetWidth)
		grid.layouts[breakpoint] = append(entries, newLayoutItem(widget.ID, x, y))
	}

	return grid.persistLocked()
}

// UpdateWidget replaces the widget with the same id and persists the grid.
func (grid *Grid) UpdateWidget(widget model.Widget) error {
	grid.mutex.Lock()
	defer grid.mutex.Unlock()

	for index, existing := range grid.widgets {
		if existing.ID == widget.ID {
			grid.widgets[index] = widget
			return grid.persistLocked()
		}
	}
	return ErrUnknownWidget
}

// RemoveWidget deletes the widget and strips its entry from every
// breakpoint's layout list, persisting both in one transaction.
func (grid *Grid) RemoveWidget(widgetID string) error {
	grid.mutex.Lock()
	defer grid.mutex.Unlock()

	remaining := grid.widgets[:0:0]
	found := false
	for _, widget := range grid.widgets {
		if widget.ID == widgetID {
			found = true
			continue
		}
		remaining = append(remaining, widget)
	}
	if !found {
		return ErrUnknownWidget
	}
	grid.widgets = remaining

	for _, breakpoint := range model.Breakpoints() {
		entries := grid.layouts[breakpoint]
		kept := entries[:0:0]
		for _, entry := range entries {
			if entry.WidgetID == widgetID {
				continue
			}
			kept = append(kept, entry)
		}
		grid.layouts[breakpoint] = kept
	}

	return grid.persistLocked()
}

// ReplaceLayouts installs the layout map produced by a drag or resize,
// self-heals any gap it introduced and persists the grid.
func (grid *Grid) ReplaceLayouts(layouts model.Layouts) error {
	grid.mutex.Lock()
	defer grid.mutex.Unlock()

	grid.layouts = layouts.Clone()
	grid.selfHealLocked()
	return grid.persistLocked()
}

// Widgets returns a copy of the widget list.
func (grid *Grid) Widgets() []model.Widget {
	grid.mutex.RLock()
	defer grid.mutex.RUnlock()

	widgets := make([]model.Widget, len(grid.widgets))
	copy(widgets, grid.widgets)
	return widgets
}

// Layouts returns a deep copy of the layout map.
func (grid *Grid) Layouts() model.Layouts {
	grid.mutex.RLock()
	defer grid.mutex.RUnlock()
	return grid.layouts.Clone()
}

// Widget finds a widget by id.
func (grid *Grid) Widget(widgetID string) (model.Widget, bool) {
	grid.mutex.RLock()
	defer grid.mutex.RUnlock()

	for _, widget := range grid.widgets {
		if widget.ID == widgetID {
			return widget, true
		}
	}
	return model.Widget{}, false
}

// LastError exposes the most recent persistence failure for observability.
func (grid *Grid) LastError() error {
	grid.mutex.RLock()
	defer grid.mutex.RUnlock()
	return grid.lastError
}

func (grid *Grid) persistLocked() error {
	encodedWidgets, widgetsErr := json.Marshal(grid.widgets)
	if widgetsErr != nil {
		return widgetsErr
	}
	encodedLayouts, layoutsErr := json.Marshal(grid.layouts)
	if layoutsErr != nil {
		return layoutsErr
	}

	writeErr := grid.store.SetMany(map[string]string{
		kvstore.KeyDashboardWidgets: string(encodedWidgets),
		kvstore.KeyDashboardLayouts: string(encodedLayouts),
	})
	if writeErr != nil {
		// Persistence failure is tolerated: in-memory state stays usable.
		grid.logger.Warn(logEventPersistDashboard, zap.Error(writeErr))
		grid.lastError = writeErr
	}
	return nil
}
