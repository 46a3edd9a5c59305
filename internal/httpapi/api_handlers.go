package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/observelab/trafficgen/internal/middleware"
	"github.com/observelab/trafficgen/internal/store"
)

const usersCacheKey = "users:list"

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	body, fromCache, err := h.userCache.Load(r.Context(), usersCacheKey, func(ctx context.Context) ([]byte, error) {
		users, err := h.repo.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{
			"users": users,
			"count": len(users),
		})
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if fromCache {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	u := &store.User{Name: req.Name, Email: req.Email, Status: store.UserStatusActive}
	if err := h.repo.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "email already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.userCache.Invalidate(r.Context(), usersCacheKey)
	h.logger.Printf("user %d created (%s)", u.ID, u.Email)
	writeJSON(w, http.StatusCreated, u)
}

type createOrderRequest struct {
	UserID     int64   `json:"user_id"`
	ProductIDs []int64 `json:"product_ids"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == 0 || len(req.ProductIDs) == 0 {
		writeError(w, http.StatusBadRequest, "user_id and product_ids are required")
		return
	}

	ctx := r.Context()
	user, err := h.repo.GetUser(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Unknown and out-of-stock products are skipped rather than failing the
	// whole order; the response lists what was left out.
	var items []store.OrderItem
	var skipped []int64
	var total float64
	for _, pid := range req.ProductIDs {
		product, err := h.repo.GetProduct(ctx, pid)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				skipped = append(skipped, pid)
				continue
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := h.repo.DecrementStock(ctx, pid, 1); err != nil {
			if errors.Is(err, store.ErrInsufficientStock) {
				h.logger.Printf("order for user %d: product %d out of stock", user.ID, pid)
				skipped = append(skipped, pid)
				continue
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, store.OrderItem{ProductID: product.ID, Name: product.Name, Price: product.Price})
		total += product.Price
	}
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "no requested products are in stock")
		return
	}

	order := &store.Order{
		UserID:      user.ID,
		UserName:    user.Name,
		Items:       items,
		TotalAmount: total,
		Status:      store.OrderStatusPending,
	}
	if err := h.repo.CreateOrder(ctx, order); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Payment is simulated: a short processing delay, then a coin flip
	// weighted by the configured success rate.
	h.sim.Operation(ctx, "payment", 100*time.Millisecond, 300*time.Millisecond)
	status := store.OrderStatusPaid
	if rand.Float64() >= h.paymentSuccessRate {
		status = store.OrderStatusPaymentFailed
	}
	if err := h.repo.SetOrderStatus(ctx, order.ID, status); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	order.Status = status

	cid := middleware.GetCorrelationID(ctx)
	if err := h.publisher.PublishOrderCreated(ctx, cid, order.ID, order.UserID, order.TotalAmount, order.Status, len(order.Items)); err != nil {
		h.logger.Printf("order %d: publish event: %v", order.ID, err)
	}

	h.logger.Printf("order %d created for user %d, total=%.2f status=%s", order.ID, order.UserID, order.TotalAmount, order.Status)
	writeJSON(w, http.StatusCreated, map[string]any{
		"order":            order,
		"skipped_products": skipped,
	})
}

func (h *Handler) ExternalService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	paymentResp, paymentErr := h.payment.Get(ctx, "")
	inventoryResp, inventoryErr := h.inventory.Get(ctx, "")
	logicElapsed := h.sim.BusinessLogic(ctx, "order_processing", "high")

	result := map[string]any{
		"operation":  "external_service",
		"logic_ms":   toMillis(logicElapsed),
		"elapsed_ms": toMillis(time.Since(start)),
	}
	failed := false
	if paymentErr != nil {
		failed = true
		result["payment"] = map[string]any{"error": paymentErr.Error()}
	} else {
		result["payment"] = map[string]any{
			"status":     paymentResp.StatusCode,
			"elapsed_ms": toMillis(paymentResp.Elapsed),
		}
	}
	if inventoryErr != nil {
		failed = true
		result["inventory"] = map[string]any{"error": inventoryErr.Error()}
	} else {
		result["inventory"] = map[string]any{
			"status":     inventoryResp.StatusCode,
			"elapsed_ms": toMillis(inventoryResp.Elapsed),
		}
	}
	if failed {
		writeJSON(w, http.StatusBadGateway, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
