package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testWidgetID    = "widget-42"
	testWidgetTitle = "Custom title"
)

func TestDescriptorForKnowsEveryType(t *testing.T) {
	for _, widgetType := range WidgetTypes() {
		descriptor, known := DescriptorFor(widgetType)
		require.True(t, known, "missing descriptor for %s", widgetType)
		require.NotEmpty(t, descriptor.Title)
		require.NotEmpty(t, descriptor.Description)
		require.NotEmpty(t, descriptor.Icon)
	}
}

func TestDescriptorForRejectsUnknownType(t *testing.T) {
	_, known := DescriptorFor(WidgetType("BOUNCED"))
	require.False(t, known)
}

func TestNewWidgetFillsDefaultsFromDescriptor(t *testing.T) {
	widget, err := NewWidget(WidgetInput{
		ID:   testWidgetID,
		Type: WidgetTypeClicked,
	})
	require.NoError(t, err)

	descriptor, _ := DescriptorFor(WidgetTypeClicked)
	require.Equal(t, testWidgetID, widget.ID)
	require.Equal(t, descriptor.Title, widget.Title)
	require.Equal(t, descriptor.Description, widget.Description)
	require.Equal(t, descriptor.Icon, widget.Icon)
	require.Equal(t, descriptor.DefaultValue, widget.Value)
}

func TestNewWidgetKeepsProvidedFields(t *testing.T) {
	widget, err := NewWidget(WidgetInput{
		ID:    "  " + testWidgetID + " ",
		Title: testWidgetTitle,
		Type:  WidgetTypeOpenedMessage,
		Value: 17,
	})
	require.NoError(t, err)
	require.Equal(t, testWidgetID, widget.ID)
	require.Equal(t, testWidgetTitle, widget.Title)
	require.Equal(t, float64(17), widget.Value)
}

func TestNewWidgetRejectsMissingID(t *testing.T) {
	_, err := NewWidget(WidgetInput{Type: WidgetTypeClicked})
	require.ErrorIs(t, err, ErrInvalidWidgetID)
}

func TestNewWidgetRejectsUnknownType(t *testing.T) {
	_, err := NewWidget(WidgetInput{ID: testWidgetID, Type: WidgetType("BOUNCED")})
	require.ErrorIs(t, err, ErrInvalidWidgetType)
}

func TestNewWidgetRejectsOversizedTitle(t *testing.T) {
	_, err := NewWidget(WidgetInput{
		ID:    testWidgetID,
		Title: strings.Repeat("a", widgetTitleMaxLength+1),
		Type:  WidgetTypeClicked,
	})
	require.ErrorIs(t, err, ErrInvalidWidgetTitle)
}

func TestDefaultWidgetsCoverTheCatalog(t *testing.T) {
	widgets := DefaultWidgets()
	require.Len(t, widgets, len(WidgetTypes()))

	seenTypes := make(map[WidgetType]struct{}, len(widgets))
	for index, widget := range widgets {
		require.Equal(t, WidgetTypes()[index], widget.Type)
		require.NotEmpty(t, widget.ID)
		seenTypes[widget.Type] = struct{}{}
	}
	require.Len(t, seenTypes, len(WidgetTypes()))
}
