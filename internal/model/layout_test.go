package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColumnsForMatchesBreakpointTiers(t *testing.T) {
	require.Equal(t, 12, ColumnsFor(BreakpointLarge))
	require.Equal(t, 6, ColumnsFor(BreakpointMedium))
	require.Equal(t, 6, ColumnsFor(BreakpointSmall))
	require.Equal(t, 4, ColumnsFor(BreakpointExtraSmall))
	require.Equal(t, 4, ColumnsFor(Breakpoint("xxl")))
}

func TestDefaultLayoutsHaveOneEntryPerWidgetPerBreakpoint(t *testing.T) {
	widgets := DefaultWidgets()
	layouts := DefaultLayouts(widgets)

	for _, breakpoint := range Breakpoints() {
		require.Len(t, layouts[breakpoint], len(widgets), "breakpoint %s", breakpoint)
		for _, widget := range widgets {
			_, present := layouts.EntryFor(breakpoint, widget.ID)
			require.True(t, present, "widget %s missing on %s", widget.ID, breakpoint)
		}
	}
}

func TestDefaultLayoutsPlaceLargeTierInOneRow(t *testing.T) {
	widgets := DefaultWidgets()
	layouts := DefaultLayouts(widgets)

	for index, entry := range layouts[BreakpointLarge] {
		require.Equal(t, index*DefaultWidgetWidth, entry.X)
		require.Equal(t, 0, entry.Y)
		require.Equal(t, DefaultWidgetWidth, entry.W)
	}
}

func TestLayoutsCloneIsIndependent(t *testing.T) {
	layouts := DefaultLayouts(DefaultWidgets())
	cloned := layouts.Clone()

	cloned[BreakpointLarge][0].X = 99
	require.NotEqual(t, 99, layouts[BreakpointLarge][0].X)
}
