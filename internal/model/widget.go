package model

import (
	"errors"
	"fmt"
	"strings"
)

const (
	widgetTitleMaxLength       = 200
	widgetDescriptionMaxLength = 1000
	widgetIconMaxLength        = 16
)

var (
	ErrInvalidWidgetID    = errors.New("invalid_widget_id")
	ErrInvalidWidgetTitle = errors.New("invalid_widget_title")
	ErrInvalidWidgetType  = errors.New("invalid_widget_type")
	ErrInvalidWidgetField = errors.New("invalid_widget_field")
)

// WidgetType enumerates the metric catalog a dashboard tile can display.
type WidgetType string

const (
	WidgetTypeIdentitiesProvided WidgetType = "IDENTITIES_PROVIDED"
	WidgetTypeOpenedMessage      WidgetType = "OPENED_MESSAGE"
	WidgetTypeClicked            WidgetType = "CLICKED"
)

// WidgetDescriptor is the static catalog entry backing a widget type.
type WidgetDescriptor struct {
	Title        string
	Description  string
	Icon         string
	DefaultValue float64
}

var widgetDescriptors = map[WidgetType]WidgetDescriptor{
	WidgetTypeIdentitiesProvided: {
		Title:        "Identities Provided",
		Description:  "New identities provided during the selected time period.",
		Icon:         "👤",
		DefaultValue: 0,
	},
	WidgetTypeOpenedMessage: {
		Title:        "Opened Message",
		Description:  "Number of provided identities who opened emails during the selected time period.",
		Icon:         "📨",
		DefaultValue: 0,
	},
	WidgetTypeClicked: {
		Title:        "Clicked",
		Description:  "Number of provided identities who clicked on emails for the selected time period.",
		Icon:         "🖱",
		DefaultValue: 0,
	},
}

// WidgetTypes lists every catalog entry in display order.
func WidgetTypes() []WidgetType {
	return []WidgetType{WidgetTypeIdentitiesProvided, WidgetTypeOpenedMessage, WidgetTypeClicked}
}

// DescriptorFor looks up the static descriptor for a widget type.
func DescriptorFor(widgetType WidgetType) (WidgetDescriptor, bool) {
	descriptor, known := widgetDescriptors[widgetType]
	return descriptor, known
}

// Widget is one dashboard tile displaying a single metric.
type Widget struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        WidgetType `json:"type"`
	Value       float64    `json:"value"`
	Icon        string     `json:"icon"`
}

// WidgetInput holds the raw values used to construct a Widget.
type WidgetInput struct {
	ID          string
	Title       string
	Description string
	Type        WidgetType
	Value       float64
	Icon        string
}

// NewWidget constructs a Widget with validated, normalized fields. Title,
// description and icon default to the type's descriptor when omitted.
func NewWidget(input WidgetInput) (Widget, error) {
	identifier := strings.TrimSpace(input.ID)
	if identifier == "" {
		return Widget{}, ErrInvalidWidgetID
	}

	descriptor, known := DescriptorFor(input.Type)
	if !known {
		return Widget{}, fmt.Errorf("%w: %s", ErrInvalidWidgetType, input.Type)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = descriptor.Title
	}
	if len(title) > widgetTitleMaxLength {
		return Widget{}, fmt.Errorf("%w: title too long", ErrInvalidWidgetTitle)
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = descriptor.Description
	}
	if len(description) > widgetDescriptionMaxLength {
		return Widget{}, fmt.Errorf("%w: description too long", ErrInvalidWidgetField)
	}

	icon := strings.TrimSpace(input.Icon)
	if icon == "" {
		icon = descriptor.Icon
	}
	if len(icon) > widgetIconMaxLength {
		return Widget{}, fmt.Errorf("%w: icon too long", ErrInvalidWidgetField)
	}

	return Widget{
		ID:          identifier,
		Title:       title,
		Description: description,
		Type:        input.Type,
		Value:       input.Value,
		Icon:        icon,
	}, nil
}

// DefaultWidgets returns the canned metric tiles a fresh dashboard starts with.
func DefaultWidgets() []Widget {
	widgetTypes := WidgetTypes()
	widgets := make([]Widget, 0, len(widgetTypes))
	for index, widgetType := range widgetTypes {
		descriptor := widgetDescriptors[widgetType]
		widgets = append(widgets, Widget{
			ID:          fmt.Sprintf("widget-%d", index+1),
			Title:       descriptor.Title,
			Description: descriptor.Description,
			Type:        widgetType,
			Value:       descriptor.DefaultValue,
			Icon:        descriptor.Icon,
		})
	}
	return widgets
}
