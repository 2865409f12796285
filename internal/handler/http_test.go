package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/consignops/fulfillment-service/internal/entities"
	"github.com/consignops/fulfillment-service/internal/handler"
	"github.com/consignops/fulfillment-service/internal/middleware"
	"github.com/consignops/fulfillment-service/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-16-chars"

func signToken(t *testing.T, userID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

type fakeFulfillment struct {
	processReturnFn  func(ctx context.Context, req service.ReturnRequest) (service.ReturnResult, error)
	returnedIntakeFn func(ctx context.Context, req service.ReturnedIntakeRequest) ([]entities.Product, error)
	uploadLabelFn    func(ctx context.Context, req service.UploadLabelRequest) (service.UploadLabelResult, error)
	advanceOrderFn   func(ctx context.Context, orderID string, target entities.OrderStatus, actorID string) (entities.Order, error)
}

func (f *fakeFulfillment) ProcessReturn(ctx context.Context, req service.ReturnRequest) (service.ReturnResult, error) {
	return f.processReturnFn(ctx, req)
}

func (f *fakeFulfillment) ProcessReturnedInventory(ctx context.Context, req service.ReturnedIntakeRequest) ([]entities.Product, error) {
	return f.returnedIntakeFn(ctx, req)
}

func (f *fakeFulfillment) UploadShippingLabel(ctx context.Context, req service.UploadLabelRequest) (service.UploadLabelResult, error) {
	return f.uploadLabelFn(ctx, req)
}

func (f *fakeFulfillment) AdvanceOrder(ctx context.Context, orderID string, target entities.OrderStatus, actorID string) (entities.Order, error) {
	return f.advanceOrderFn(ctx, orderID, target, actorID)
}

type fakeLabels struct {
	resolveFn   func(ctx context.Context, orderRef string) (entities.LabelRef, error)
	invalidated []string
}

func (f *fakeLabels) ResolveLabel(ctx context.Context, orderRef string) (entities.LabelRef, error) {
	return f.resolveFn(ctx, orderRef)
}

func (f *fakeLabels) InvalidateLabel(orderID string) {
	f.invalidated = append(f.invalidated, orderID)
}

type fakeNotifications struct {
	deriveFn      func(ctx context.Context, userID, role string) ([]entities.Notification, error)
	markedRead    []string
	markedAllRead bool
}

func (f *fakeNotifications) DeriveNotifications(ctx context.Context, userID, role string) ([]entities.Notification, error) {
	if f.deriveFn == nil {
		return nil, nil
	}
	return f.deriveFn(ctx, userID, role)
}

func (f *fakeNotifications) MarkRead(_ context.Context, _, notificationID string) error {
	f.markedRead = append(f.markedRead, notificationID)
	return nil
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, _, _ string) error {
	f.markedAllRead = true
	return nil
}

type fakeActivities struct {
	listFn func(ctx context.Context, q service.ActivityQuery) ([]entities.Activity, error)
}

func (f *fakeActivities) List(ctx context.Context, q service.ActivityQuery) ([]entities.Activity, error) {
	return f.listFn(ctx, q)
}

func newTestRouter(t *testing.T, fulfillment *fakeFulfillment, labels *fakeLabels, notifications *fakeNotifications, activities *fakeActivities) chi.Router {
	t.Helper()
	if fulfillment == nil {
		fulfillment = &fakeFulfillment{}
	}
	if labels == nil {
		labels = &fakeLabels{}
	}
	if notifications == nil {
		notifications = &fakeNotifications{}
	}
	if activities == nil {
		activities = &fakeActivities{}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewHTTPHandler(logger, fulfillment, labels, notifications, activities, testSecret, 1<<20)

	r := chi.NewRouter()
	h.Init(r)
	return r
}

func TestHTTPHandler_ProcessReturn(t *testing.T) {
	validBody := `{"orderId":"o1","productIds":["p1"],"reason":"damaged"}`

	testCases := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "success",
			body:       validBody,
			wantStatus: http.StatusOK,
			wantBody:   `"success":true`,
		},
		{
			name:       "order not found",
			body:       validBody,
			serviceErr: entities.ErrOrderNotFound,
			wantStatus: http.StatusNotFound,
			wantBody:   `"order not found"`,
		},
		{
			name:       "order not returnable",
			body:       validBody,
			serviceErr: entities.ErrOrderNotReturnable,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "items not in order",
			body:       validBody,
			serviceErr: entities.ErrItemsNotInOrder,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing product ids",
			body:       `{"orderId":"o1","reason":"damaged"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{not json`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "internal error",
			body:       validBody,
			serviceErr: errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"internal server error"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fulfillment := &fakeFulfillment{
				processReturnFn: func(_ context.Context, req service.ReturnRequest) (service.ReturnResult, error) {
					if tc.serviceErr != nil {
						return service.ReturnResult{}, tc.serviceErr
					}
					assert.Equal(t, "staff-1", req.ActorID)
					return service.ReturnResult{
						Order:        entities.Order{ID: req.OrderID, Status: entities.OrderReturned},
						ProductIDs:   req.ProductIDs,
						IsFullReturn: true,
					}, nil
				},
			}
			r := newTestRouter(t, fulfillment, nil, nil, nil)

			req := httptest.NewRequest(http.MethodPost, "/returns", bytes.NewBufferString(tc.body))
			req.Header.Set("Authorization", "Bearer "+signToken(t, "staff-1", "staff"))
			rr := httptest.NewRecorder()

			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantBody != "" {
				assert.Contains(t, rr.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestHTTPHandler_ProcessReturn_Auth(t *testing.T) {
	r := newTestRouter(t, nil, nil, nil, nil)

	t.Run("no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/returns", bytes.NewBufferString(`{}`))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/returns", bytes.NewBufferString(`{}`))
		req.Header.Set("Authorization", "Bearer "+signToken(t, "seller-1", "seller"))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/returns", bytes.NewBufferString(`{}`))
		req.Header.Set("Authorization", "Bearer not-a-token")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestHTTPHandler_ProcessReturnedInventory(t *testing.T) {
	fulfillment := &fakeFulfillment{
		returnedIntakeFn: func(_ context.Context, req service.ReturnedIntakeRequest) ([]entities.Product, error) {
			assert.Equal(t, entities.ProductStorage, req.Status)
			return []entities.Product{
				{ID: "p1", Status: entities.ProductStorage, CurrentLocationID: req.LocationID, Price: decimal.Zero},
			}, nil
		},
	}
	r := newTestRouter(t, fulfillment, nil, nil, nil)

	body := `{"productIds":["p1"],"status":"storage","locationId":"loc-1"}`
	req := httptest.NewRequest(http.MethodPut, "/returns", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+signToken(t, "staff-1", "staff"))
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"storage"`)
}

func TestHTTPHandler_GetShippingLabel(t *testing.T) {
	testCases := []struct {
		name       string
		query      string
		resolveErr error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "success",
			query:      "?orderId=o1",
			wantStatus: http.StatusOK,
			wantBody:   `"fileName":"label_1.pdf"`,
		},
		{
			name:       "missing order id",
			query:      "",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "order not found",
			query:      "?orderId=missing",
			resolveErr: entities.ErrOrderNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "label not found",
			query:      "?orderId=o1",
			resolveErr: entities.ErrLabelNotFound,
			wantStatus: http.StatusNotFound,
			wantBody:   `"label not found"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			labels := &fakeLabels{
				resolveFn: func(_ context.Context, _ string) (entities.LabelRef, error) {
					if tc.resolveErr != nil {
						return entities.LabelRef{}, tc.resolveErr
					}
					return entities.LabelRef{URL: "/uploads/label_1.pdf", FileName: "label_1.pdf", Carrier: "dhl"}, nil
				},
			}
			r := newTestRouter(t, nil, labels, nil, nil)

			req := httptest.NewRequest(http.MethodGet, "/shipping/label/get"+tc.query, nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, "staff-1", "staff"))
			rr := httptest.NewRecorder()

			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantBody != "" {
				assert.Contains(t, rr.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestHTTPHandler_UploadShippingLabel(t *testing.T) {
	fulfillment := &fakeFulfillment{
		uploadLabelFn: func(_ context.Context, req service.UploadLabelRequest) (service.UploadLabelResult, error) {
			assert.Equal(t, "o1", req.OrderRef)
			assert.Equal(t, "dhl", req.Carrier)
			return service.UploadLabelResult{
				FileURL:         "/uploads/label_1.pdf",
				FileName:        "label_1.pdf",
				OrderID:         "o1",
				ProductsUpdated: 2,
			}, nil
		},
	}
	labels := &fakeLabels{}
	r := newTestRouter(t, fulfillment, labels, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "label.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("itemId", "o1"))
	require.NoError(t, mw.WriteField("carrier", "dhl"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/shipping/label/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+signToken(t, "staff-1", "staff"))
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"productsUpdated":2`)
	// the cached label resolution for this order is now stale
	assert.Equal(t, []string{"o1"}, labels.invalidated)
}

func TestHTTPHandler_AdvanceOrder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fulfillment := &fakeFulfillment{
			advanceOrderFn: func(_ context.Context, orderID string, target entities.OrderStatus, _ string) (entities.Order, error) {
				assert.Equal(t, "o1", orderID)
				assert.Equal(t, entities.OrderShipped, target)
				return entities.Order{ID: orderID, Status: target}, nil
			},
		}
		r := newTestRouter(t, fulfillment, nil, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/orders/o1/status", bytes.NewBufferString(`{"status":"shipped"}`))
		req.Header.Set("Authorization", "Bearer "+signToken(t, "staff-1", "staff"))
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"shipped"`)
	})

	t.Run("illegal transition", func(t *testing.T) {
		fulfillment := &fakeFulfillment{
			advanceOrderFn: func(_ context.Context, _ string, _ entities.OrderStatus, _ string) (entities.Order, error) {
				return entities.Order{}, entities.ErrInvalidTransition
			},
		}
		r := newTestRouter(t, fulfillment, nil, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/orders/o1/status", bytes.NewBufferString(`{"status":"pending"}`))
		req.Header.Set("Authorization", "Bearer "+signToken(t, "staff-1", "staff"))
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHTTPHandler_GetNotifications(t *testing.T) {
	t.Run("anonymous caller gets empty feed", func(t *testing.T) {
		r := newTestRouter(t, nil, nil, &fakeNotifications{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/notifications/dynamic", nil)
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("derivation failure degrades to empty feed", func(t *testing.T) {
		notifications := &fakeNotifications{
			deriveFn: func(_ context.Context, _, _ string) ([]entities.Notification, error) {
				return nil, errors.New("db down")
			},
		}
		r := newTestRouter(t, nil, nil, notifications, nil)

		req := httptest.NewRequest(http.MethodGet, "/notifications/dynamic", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "seller-1", "seller"))
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("returns derived feed", func(t *testing.T) {
		notifications := &fakeNotifications{
			deriveFn: func(_ context.Context, userID, role string) ([]entities.Notification, error) {
				assert.Equal(t, "seller-1", userID)
				assert.Equal(t, "seller", role)
				return []entities.Notification{
					{ID: "a1", Level: entities.NotificationSuccess, Title: "Items sold", Read: true},
				}, nil
			},
		}
		r := newTestRouter(t, nil, nil, notifications, nil)

		req := httptest.NewRequest(http.MethodGet, "/notifications/dynamic", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "seller-1", "seller"))
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var feed []handler.Notification
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &feed))
		require.Len(t, feed, 1)
		assert.Equal(t, "a1", feed[0].ID)
		assert.True(t, feed[0].Read)
	})
}

func TestHTTPHandler_UpdateNotifications(t *testing.T) {
	t.Run("mark one read", func(t *testing.T) {
		notifications := &fakeNotifications{}
		r := newTestRouter(t, nil, nil, notifications, nil)

		body := `{"action":"mark-read","notificationId":"a1"}`
		req := httptest.NewRequest(http.MethodPost, "/notifications/dynamic", bytes.NewBufferString(body))
		req.Header.Set("Authorization", "Bearer "+signToken(t, "seller-1", "seller"))
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"a1"}, notifications.markedRead)
	})

	t.Run("mark all read", func(t *testing.T) {
		notifications := &fakeNotifications{}
		r := newTestRouter(t, nil, nil, notifications, nil)

		req := httptest.NewRequest(http.MethodPost, "/notifications/dynamic", bytes.NewBufferString(`{"action":"mark-all-read"}`))
		req.Header.Set("Authorization", "Bearer "+signToken(t, "seller-1", "seller"))
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, notifications.markedAllRead)
	})

	t.Run("mark-read without id", func(t *testing.T) {
		r := newTestRouter(t, nil, nil, &fakeNotifications{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/notifications/dynamic", bytes.NewBufferString(`{"action":"mark-read"}`))
		req.Header.Set("Authorization", "Bearer "+signToken(t, "seller-1", "seller"))
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown action", func(t *testing.T) {
		r := newTestRouter(t, nil, nil, &fakeNotifications{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/notifications/dynamic", bytes.NewBufferString(`{"action":"archive"}`))
		req.Header.Set("Authorization", "Bearer "+signToken(t, "seller-1", "seller"))
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("anonymous caller rejected", func(t *testing.T) {
		r := newTestRouter(t, nil, nil, &fakeNotifications{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/notifications/dynamic", bytes.NewBufferString(`{"action":"mark-all-read"}`))
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestHTTPHandler_ListActivities(t *testing.T) {
	activities := &fakeActivities{
		listFn: func(_ context.Context, q service.ActivityQuery) ([]entities.Activity, error) {
			assert.Equal(t, "p1", q.ProductID)
			assert.Equal(t, 10, q.Limit)
			return []entities.Activity{
				{ID: "a1", Type: entities.ActivityProductSold, ProductID: "p1", CreatedAt: time.Now()},
			}, nil
		},
	}
	r := newTestRouter(t, nil, nil, nil, activities)

	req := httptest.NewRequest(http.MethodGet, "/activities?productId=p1&limit=10", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "staff-1", "staff"))
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"a1"`)
}

func TestHTTPHandler_Health(t *testing.T) {
	r := newTestRouter(t, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}
