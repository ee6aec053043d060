package dashboard

import "github.com/opensendlabs/dashboard_svc/internal/model"

// FindPlacement computes a non-overlapping grid position for a new widget of
// the given width. The first row is filled left to right; once it is full
// the widget stacks below everything else at column zero. Pure function.
func FindPlacement(entries []model.LayoutItem, columns int, width int) (int, int) {
	firstRowEdge := 0
	for _, entry := range entries {
		if entry.Y == 0 && entry.X+entry.W > firstRowEdge {
			firstRowEdge = entry.X + entry.W
		}
	}

	if firstRowEdge+width <= columns {
		return firstRowEdge, 0
	}

	bottomEdge := 0
	for _, entry := range entries {
		if entry.Y+entry.H > bottomEdge {
			bottomEdge = entry.Y + entry.H
		}
	}
	return 0, bottomEdge
}

// SynthesizePlacement assigns an index-based row/column position, used when
// self-healing a widget that lost its layout entry. Widgets flow across rows
// of rowCapacity tiles, each row model.DefaultWidgetHeight cells tall.
func SynthesizePlacement(index int, columns int) (int, int) {
	rowCapacity := columns / model.DefaultWidgetWidth
	if rowCapacity < 1 {
		rowCapacity = 1
	}
	x := (index * model.DefaultWidgetWidth) % columns
	y := (index / rowCapacity) * model.DefaultWidgetHeight
	return x, y
}

func newLayoutItem(widgetID string, x int, y int) model.LayoutItem {
	return model.LayoutItem{
		WidgetID: widgetID,
		X:        x,
		Y:        y,
		W:        model.DefaultWidgetWidth,
		H:        model.DefaultWidgetHeight,
		MinW:     model.MinimumWidgetWidth,
		MinH:     model.MinimumWidgetHeight,
	}
}
