package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/kitchen-dashboard/app"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/services"
	"github.com/upb/kitchen-dashboard/services/inventory"
	"github.com/upb/kitchen-dashboard/utils"
	"go.uber.org/zap"
)

// StatusRequest is the body of POST /kitchen/orders/{id}/status
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// kitchenTargets are the statuses the kitchen board may move an order to
var kitchenTargets = map[models.OrderStatus]bool{
	models.OrderStatusCooking: true,
	models.OrderStatusReady:   true,
}

// CreateInventoryItemHandler serves POST /inventory/items
func CreateInventoryItemHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in inventory.ItemInput
		if !decodeJSON(w, r, &in, deps.Logger) {
			return
		}

		item, err := deps.Inventory.Create(r.Context(), actorFrom(r), in)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}
		if err := utils.WriteCreated(w, item); err != nil {
			deps.Logger.Error("failed to write response", zap.Error(err))
		}
	}
}

// UpdateInventoryItemHandler serves PUT /inventory/items/{id}
func UpdateInventoryItemHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, deps.Logger)
		if !ok {
			return
		}
		var in inventory.ItemInput
		if !decodeJSON(w, r, &in, deps.Logger) {
			return
		}

		item, err := deps.Inventory.Update(r.Context(), actorFrom(r), id, in)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}
		if err := utils.WriteOK(w, item); err != nil {
			deps.Logger.Error("failed to write response", zap.Error(err))
		}
	}
}

// DeleteInventoryItemHandler serves DELETE /inventory/items/{id}
func DeleteInventoryItemHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, deps.Logger)
		if !ok {
			return
		}

		if err := deps.Inventory.Delete(r.Context(), actorFrom(r), id); err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}
		utils.WriteNoContent(w)
	}
}

// KitchenStatusHandler serves POST /kitchen/orders/{id}/status. The kitchen
// only starts and finishes cooking; delivery and cancellation have their
// own routes.
func KitchenStatusHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, deps.Logger)
		if !ok {
			return
		}
		var req StatusRequest
		if !decodeJSON(w, r, &req, deps.Logger) {
			return
		}
		if err := utils.ValidateStruct(&req); err != nil {
			HandleValidationError(w, err, deps.Logger)
			return
		}

		to, err := models.ParseOrderStatus(strings.ToLower(strings.TrimSpace(req.Status)))
		if err != nil || !kitchenTargets[to] {
			HandleServiceError(w, services.NewDomainError(services.ErrorTypeValidation, services.ErrInvalidOrderStatus.Message, err).
				WithDetail("status", req.Status), deps.Logger)
			return
		}

		transition(w, r, deps, id, to)
	}
}

// CancelOrderHandler serves POST /orders/{id}/cancel
func CancelOrderHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, deps.Logger)
		if !ok {
			return
		}
		transition(w, r, deps, id, models.OrderStatusCancelled)
	}
}

// DeliveredHandler serves POST /delivery/orders/{id}/delivered
func DeliveredHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, deps.Logger)
		if !ok {
			return
		}
		transition(w, r, deps, id, models.OrderStatusDelivered)
	}
}

// transition moves order id to status to on behalf of the signed-in principal
func transition(w http.ResponseWriter, r *http.Request, deps *app.Dependencies, id uuid.UUID, to models.OrderStatus) {
	order, err := deps.Orders.Transition(r.Context(), actorFrom(r), id, to)
	if err != nil {
		HandleServiceError(w, err, deps.Logger)
		return
	}
	if err := utils.WriteOK(w, order); err != nil {
		deps.Logger.Error("failed to write response", zap.Error(err))
	}
}
