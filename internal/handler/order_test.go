package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediplant/storefront/internal/handler"
	"github.com/mediplant/storefront/internal/order"
	"github.com/mediplant/storefront/internal/user"
)

type mockOrderService struct {
	placeFunc        func(ctx context.Context, ident user.Identity, input order.PlaceInput) (*order.Order, error)
	getFunc          func(ctx context.Context, ident user.Identity, id uuid.UUID) (*order.Order, error)
	getByNumberFunc  func(ctx context.Context, ident user.Identity, orderNumber string) (*order.Order, error)
	listFunc         func(ctx context.Context, ident user.Identity) ([]order.Order, error)
	listAllFunc      func(ctx context.Context) ([]order.Order, error)
	cancelFunc       func(ctx context.Context, ident user.Identity, id uuid.UUID, reason string) error
	updateStatusFunc func(ctx context.Context, id uuid.UUID, to order.Status, trackingNumber string) error
	quoteFunc        func(ctx context.Context, ident user.Identity) (order.Breakdown, error)
}

func (m *mockOrderService) Place(ctx context.Context, ident user.Identity, input order.PlaceInput) (*order.Order, error) {
	return m.placeFunc(ctx, ident, input)
}

func (m *mockOrderService) Get(ctx context.Context, ident user.Identity, id uuid.UUID) (*order.Order, error) {
	return m.getFunc(ctx, ident, id)
}

func (m *mockOrderService) GetByNumber(ctx context.Context, ident user.Identity, orderNumber string) (*order.Order, error) {
	return m.getByNumberFunc(ctx, ident, orderNumber)
}

func (m *mockOrderService) List(ctx context.Context, ident user.Identity) ([]order.Order, error) {
	return m.listFunc(ctx, ident)
}

func (m *mockOrderService) ListAll(ctx context.Context) ([]order.Order, error) {
	return m.listAllFunc(ctx)
}

func (m *mockOrderService) Cancel(ctx context.Context, ident user.Identity, id uuid.UUID, reason string) error {
	return m.cancelFunc(ctx, ident, id, reason)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, to order.Status, trackingNumber string) error {
	return m.updateStatusFunc(ctx, id, to, trackingNumber)
}

func (m *mockOrderService) Quote(ctx context.Context, ident user.Identity) (order.Breakdown, error) {
	return m.quoteFunc(ctx, ident)
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return id
}

func authedRequest(t *testing.T, method, target string, body any, ident user.Identity) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	return req.WithContext(handler.WithIdentity(req.Context(), ident))
}

func placeOrderBody() map[string]any {
	return map[string]any{
		"address_line1":  "14 Herb Garden Lane",
		"city":           "Pune",
		"state":          "Maharashtra",
		"postal_code":    "411001",
		"phone":          "9876543210",
		"payment_method": "cod",
	}
}

func TestOrderHandler_Place(t *testing.T) {
	ident := user.Identity{UserID: uuid.Must(uuid.NewV4()), Role: user.RoleUser}

	t.Run("created", func(t *testing.T) {
		orderID := mustUUID(t)
		svc := &mockOrderService{
			placeFunc: func(ctx context.Context, gotIdent user.Identity, input order.PlaceInput) (*order.Order, error) {
				assert.Equal(t, ident, gotIdent)
				assert.Equal(t, "Pune", input.Address.City)
				return &order.Order{ID: orderID, Status: order.StatusPending, OrderNumber: "MP20260101000000ABCDEF01"}, nil
			},
		}
		h := handler.NewOrderHandler(svc)

		rec := httptest.NewRecorder()
		h.Place(rec, authedRequest(t, http.MethodPost, "/api/v1/orders", placeOrderBody(), ident))

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp order.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, orderID, resp.ID)
		assert.Equal(t, order.StatusPending, resp.Status)
	})

	t.Run("missing fields answer 400", func(t *testing.T) {
		h := handler.NewOrderHandler(&mockOrderService{})
		body := placeOrderBody()
		delete(body, "city")

		rec := httptest.NewRecorder()
		h.Place(rec, authedRequest(t, http.MethodPost, "/api/v1/orders", body, ident))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "city")
	})

	t.Run("empty cart answers 409", func(t *testing.T) {
		svc := &mockOrderService{
			placeFunc: func(ctx context.Context, ident user.Identity, input order.PlaceInput) (*order.Order, error) {
				return nil, order.ErrCartEmpty
			},
		}
		h := handler.NewOrderHandler(svc)

		rec := httptest.NewRecorder()
		h.Place(rec, authedRequest(t, http.MethodPost, "/api/v1/orders", placeOrderBody(), ident))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("insufficient stock answers 409 with product names", func(t *testing.T) {
		svc := &mockOrderService{
			placeFunc: func(ctx context.Context, ident user.Identity, input order.PlaceInput) (*order.Order, error) {
				return nil, &order.InsufficientStockError{Products: []string{"Tulsi"}}
			},
		}
		h := handler.NewOrderHandler(svc)

		rec := httptest.NewRecorder()
		h.Place(rec, authedRequest(t, http.MethodPost, "/api/v1/orders", placeOrderBody(), ident))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "Tulsi")
	})

	t.Run("unauthenticated answers 401", func(t *testing.T) {
		h := handler.NewOrderHandler(&mockOrderService{})

		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(placeOrderBody()))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", &buf)

		rec := httptest.NewRecorder()
		h.Place(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOrderHandler_Get(t *testing.T) {
	ident := user.Identity{UserID: uuid.Must(uuid.NewV4()), Role: user.RoleUser}
	orderID := mustUUID(t)

	newGetRequest := func(t *testing.T, id string) *http.Request {
		req := authedRequest(t, http.MethodGet, "/api/v1/orders/"+id, nil, ident)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	t.Run("found", func(t *testing.T) {
		svc := &mockOrderService{
			getFunc: func(ctx context.Context, gotIdent user.Identity, id uuid.UUID) (*order.Order, error) {
				assert.Equal(t, orderID, id)
				return &order.Order{ID: orderID, UserID: ident.UserID, Status: order.StatusConfirmed}, nil
			},
		}
		h := handler.NewOrderHandler(svc)

		rec := httptest.NewRecorder()
		h.Get(rec, newGetRequest(t, orderID.String()))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("foreign order answers 404", func(t *testing.T) {
		svc := &mockOrderService{
			getFunc: func(ctx context.Context, ident user.Identity, id uuid.UUID) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
		}
		h := handler.NewOrderHandler(svc)

		rec := httptest.NewRecorder()
		h.Get(rec, newGetRequest(t, orderID.String()))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id answers 400", func(t *testing.T) {
		h := handler.NewOrderHandler(&mockOrderService{})

		rec := httptest.NewRecorder()
		h.Get(rec, newGetRequest(t, "not-a-uuid"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOrderHandler_Cancel(t *testing.T) {
	ident := user.Identity{UserID: uuid.Must(uuid.NewV4()), Role: user.RoleUser}
	orderID := mustUUID(t)

	newCancelRequest := func(t *testing.T, body any) *http.Request {
		req := authedRequest(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", body, ident)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", orderID.String())
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	t.Run("cancelled", func(t *testing.T) {
		var gotReason string
		svc := &mockOrderService{
			cancelFunc: func(ctx context.Context, gotIdent user.Identity, id uuid.UUID, reason string) error {
				assert.Equal(t, orderID, id)
				gotReason = reason
				return nil
			},
		}
		h := handler.NewOrderHandler(svc)

		rec := httptest.NewRecorder()
		h.Cancel(rec, newCancelRequest(t, map[string]string{"reason": "ordered by mistake"}))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "ordered by mistake", gotReason)
	})

	t.Run("shipped order answers 409", func(t *testing.T) {
		svc := &mockOrderService{
			cancelFunc: func(ctx context.Context, ident user.Identity, id uuid.UUID, reason string) error {
				return order.ErrNotCancellable
			},
		}
		h := handler.NewOrderHandler(svc)

		rec := httptest.NewRecorder()
		h.Cancel(rec, newCancelRequest(t, nil))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestOrderHandler_AdminUpdateStatus(t *testing.T) {
	admin := user.Identity{UserID: uuid.Must(uuid.NewV4()), Role: user.RoleAdmin}
	orderID := mustUUID(t)

	newStatusRequest := func(t *testing.T, body any) *http.Request {
		req := authedRequest(t, http.MethodPut, "/api/v1/admin/orders/"+orderID.String()+"/status", body, admin)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", orderID.String())
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	t.Run("updated", func(t *testing.T) {
		svc := &mockOrderService{
			updateStatusFunc: func(ctx context.Context, id uuid.UUID, to order.Status, trackingNumber string) error {
				assert.Equal(t, order.StatusShipped, to)
				assert.Equal(t, "TRK987", trackingNumber)
				return nil
			},
		}
		h := handler.NewOrderHandler(svc)

		rec := httptest.NewRecorder()
		h.AdminUpdateStatus(rec, newStatusRequest(t, map[string]string{
			"status":          "shipped",
			"tracking_number": "TRK987",
		}))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("invalid transition answers 409", func(t *testing.T) {
		svc := &mockOrderService{
			updateStatusFunc: func(ctx context.Context, id uuid.UUID, to order.Status, trackingNumber string) error {
				return order.ErrInvalidTransition
			},
		}
		h := handler.NewOrderHandler(svc)

		rec := httptest.NewRecorder()
		h.AdminUpdateStatus(rec, newStatusRequest(t, map[string]string{"status": "delivered"}))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
