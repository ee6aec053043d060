package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opensendlabs/dashboard_svc/internal/dashboard"
	"github.com/opensendlabs/dashboard_svc/internal/kvstore"
	"github.com/opensendlabs/dashboard_svc/internal/model"
)

const (
	jsonKeyWidgets = "widgets"
	jsonKeyLayouts = "layouts"
	jsonKeyWidget  = "widget"

	routeParameterWidgetID = "id"

	errorValueUnauthorized  = "unauthorized"
	errorValueForbidden     = "forbidden"
	errorValueUnknownWidget = "unknown_widget"
	errorValueInvalidWidget = "invalid_widget"

	logEventWidgetAdded   = "widget_added"
	logEventWidgetUpdated = "widget_updated"
	logEventWidgetRemoved = "widget_removed"
	logFieldWidgetID      = "widget_id"
)

type widgetRequestBody struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Type        model.WidgetType `json:"type"`
	Value       float64          `json:"value"`
	Icon        string           `json:"icon"`
}

type layoutsRequestBody struct {
	Layouts model.Layouts `json:"layouts"`
}

// WidgetHandlers serves the dashboard widget and layout API. Mutations are
// restricted to admin views; the dashboard itself is shared server state
// that persists across login sessions.
type WidgetHandlers struct {
	manager *SessionManager
	grid    *dashboard.Grid
	logger  *zap.Logger
}

// NewWidgetHandlers constructs WidgetHandlers.
func NewWidgetHandlers(manager *SessionManager, grid *dashboard.Grid, logger *zap.Logger) *WidgetHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WidgetHandlers{manager: manager, grid: grid, logger: logger}
}

// RequireAdmin rejects requests whose session does not carry an admin view.
func (handlers *WidgetHandlers) RequireAdmin() gin.HandlerFunc {
	return func(requestContext *gin.Context) {
		state := handlers.manager.Attach(requestContext)
		snapshot := state.Session.Snapshot()

		if !snapshot.Authenticated {
			requestContext.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{jsonKeyError: errorValueUnauthorized})
			return
		}
		if snapshot.View == nil || snapshot.View.Type != model.ViewTypeAdmin {
			requestContext.AbortWithStatusJSON(http.StatusForbidden, gin.H{jsonKeyError: errorValueForbidden})
			return
		}
		requestContext.Next()
	}
}

// ListWidgets returns the widget list and the layout map.
func (handlers *WidgetHandlers) ListWidgets(requestContext *gin.Context) {
	requestContext.JSON(http.StatusOK, gin.H{
		jsonKeyWidgets: handlers.grid.Widgets(),
		jsonKeyLayouts: handlers.grid.Layouts(),
	})
}

// CreateWidget adds a widget, placing it on every breakpoint.
func (handlers *WidgetHandlers) CreateWidget(requestContext *gin.Context) {
	var requestBody widgetRequestBody
	if bindErr := requestContext.ShouldBindJSON(&requestBody); bindErr != nil {
		requestContext.AbortWithStatusJSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}

	widget, widgetErr := model.NewWidget(model.WidgetInput{
		ID:          kvstore.NewID(),
		Title:       requestBody.Title,
		Description: requestBody.Description,
		Type:        requestBody.Type,
		Value:       requestBody.Value,
		Icon:        requestBody.Icon,
	})
	if widgetErr != nil {
		requestContext.AbortWithStatusJSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidWidget})
		return
	}

	if addErr := handlers.grid.AddWidget(widget); addErr != nil {
		requestContext.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueInvalidWidget})
		return
	}

	handlers.logger.Info(logEventWidgetAdded, zap.String(logFieldWidgetID, widget.ID))
	requestContext.JSON(http.StatusCreated, gin.H{
		jsonKeyWidget:  widget,
		jsonKeyLayouts: handlers.grid.Layouts(),
	})
}

// UpdateWidget replaces the widget with the given id.
func (handlers *WidgetHandlers) UpdateWidget(requestContext *gin.Context) {
	widgetID := requestContext.Param(routeParameterWidgetID)

	var requestBody widgetRequestBody
	if bindErr := requestContext.ShouldBindJSON(&requestBody); bindErr != nil {
		requestContext.AbortWithStatusJSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}

	widget, widgetErr := model.NewWidget(model.WidgetInput{
		ID:          widgetID,
		Title:       requestBody.Title,
		Description: requestBody.Description,
		Type:        requestBody.Type,
		Value:       requestBody.Value,
		Icon:        requestBody.Icon,
	})
	if widgetErr != nil {
		requestContext.AbortWithStatusJSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidWidget})
		return
	}

	if updateErr := handlers.grid.UpdateWidget(widget); updateErr != nil {
		if errors.Is(updateErr, dashboard.ErrUnknownWidget) {
			requestContext.AbortWithStatusJSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueUnknownWidget})
			return
		}
		requestContext.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueInvalidWidget})
		return
	}

	handlers.logger.Info(logEventWidgetUpdated, zap.String(logFieldWidgetID, widgetID))
	requestContext.JSON(http.StatusOK, gin.H{jsonKeyWidget: widget})
}

// RemoveWidget deletes the widget and all of its layout entries.
func (handlers *WidgetHandlers) RemoveWidget(requestContext *gin.Context) {
	widgetID := requestContext.Param(routeParameterWidgetID)

	if removeErr := handlers.grid.RemoveWidget(widgetID); removeErr != nil {
		if errors.Is(removeErr, dashboard.ErrUnknownWidget) {
			requestContext.AbortWithStatusJSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueUnknownWidget})
			return
		}
		requestContext.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueUnknownWidget})
		return
	}

	handlers.logger.Info(logEventWidgetRemoved, zap.String(logFieldWidgetID, widgetID))
	requestContext.Status(http.StatusNoContent)
}

// ReplaceLayouts installs a dragged or resized layout map.
func (handlers *WidgetHandlers) ReplaceLayouts(requestContext *gin.Context) {
	var requestBody layoutsRequestBody
	if bindErr := requestContext.ShouldBindJSON(&requestBody); bindErr != nil {
		requestContext.AbortWithStatusJSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}

	if replaceErr := handlers.grid.ReplaceLayouts(requestBody.Layouts); replaceErr != nil {
		requestContext.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueInvalidWidget})
		return
	}

	requestContext.JSON(http.StatusOK, gin.H{jsonKeyLayouts: handlers.grid.Layouts()})
}
