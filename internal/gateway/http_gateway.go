package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
)

// HTTPGateway is the production Gateway implementation: a bearer-token
// REST client with transparent token refresh and capped exponential
// backoff on transient failures. Product lookups are cached in Redis
// with a short TTL, since a BOM rarely changes mid-schedule-run.
type HTTPGateway struct {
	baseURL    string
	username   string
	password   string
	maxRetries uint64

	httpClient *http.Client
	logger     *zap.Logger
	cache      *redis.Client

	mu          sync.RWMutex
	tokenCache  string
	tokenExpire time.Time
}

// NewHTTPGateway builds a Gateway against the manufacturing REST API.
func NewHTTPGateway(baseURL, username, password string, timeout time.Duration, maxRetries int, cache *redis.Client, logger *zap.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		maxRetries: uint64(maxRetries),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		cache:      cache,
	}
}

// authToken returns a cached bearer token, refreshing it under lock when
// missing or within 60 seconds of expiry.
func (g *HTTPGateway) authToken(ctx context.Context) (string, error) {
	g.mu.RLock()
	if g.tokenCache != "" && time.Now().Before(g.tokenExpire) {
		token := g.tokenCache
		g.mu.RUnlock()
		return token, nil
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.tokenCache != "" && time.Now().Before(g.tokenExpire) {
		return g.tokenCache, nil
	}

	reqBody := map[string]string{"username": g.username, "password": g.password}
	bodyBytes, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/auth/token", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &domain.GatewayError{Kind: domain.GatewayErrorPermanent, Op: "auth", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &domain.GatewayError{Kind: domain.GatewayErrorTransient, Op: "auth", Err: err}
	}
	defer resp.Body.Close()

	var result struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &domain.GatewayError{Kind: domain.GatewayErrorPermanent, Op: "auth", Err: err}
	}
	if result.Token == "" {
		return "", &domain.GatewayError{Kind: domain.GatewayErrorPermanent, Op: "auth", Err: fmt.Errorf("empty token in response")}
	}

	g.tokenCache = result.Token
	g.tokenExpire = time.Now().Add(time.Duration(result.ExpiresIn-60) * time.Second)
	return g.tokenCache, nil
}

// doJSON performs one HTTP call with bearer auth, retrying transient
// failures and a single auth-expired refresh with capped exponential
// backoff.
func (g *HTTPGateway) doJSON(ctx context.Context, op, method, path string, body, result interface{}) error {
	authRefreshed := false
	operation := func() error {
		token, err := g.authToken(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}

		var reader io.Reader
		if body != nil {
			b, err := json.Marshal(body)
			if err != nil {
				return backoff.Permanent(&domain.GatewayError{Kind: domain.GatewayErrorPermanent, Op: op, Err: err})
			}
			reader = bytes.NewReader(b)
		}

		req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(&domain.GatewayError{Kind: domain.GatewayErrorPermanent, Op: op, Err: err})
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return &domain.GatewayError{Kind: domain.GatewayErrorTransient, Op: op, Err: err}
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			g.mu.Lock()
			g.tokenCache = ""
			g.mu.Unlock()
			authErr := &domain.GatewayError{Kind: domain.GatewayErrorAuthExpired, Op: op, Err: fmt.Errorf("token expired")}
			if authRefreshed {
				return backoff.Permanent(authErr)
			}
			authRefreshed = true
			return authErr
		case resp.StatusCode >= 500:
			return &domain.GatewayError{Kind: domain.GatewayErrorTransient, Op: op, Err: fmt.Errorf("status %d", resp.StatusCode)}
		case resp.StatusCode >= 400:
			return backoff.Permanent(&domain.GatewayError{Kind: domain.GatewayErrorPermanent, Op: op, Err: fmt.Errorf("status %d", resp.StatusCode)})
		}

		if result == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return backoff.Permanent(&domain.GatewayError{Kind: domain.GatewayErrorPermanent, Op: op, Err: err})
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.maxRetries), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		g.logger.Warn("gateway call failed", zap.String("op", op), zap.Error(err))
		return err
	}
	return nil
}

func (g *HTTPGateway) ListSalesOrders(ctx context.Context, status string) ([]domain.SalesOrder, error) {
	var out []domain.SalesOrder
	path := "/sales-orders"
	if status != "" {
		path += "?status=" + status
	}
	if err := g.doJSON(ctx, "list_sales_orders", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) ListProductionOrders(ctx context.Context) ([]domain.ProductionOrder, error) {
	var out []domain.ProductionOrder
	if err := g.doJSON(ctx, "list_production_orders", http.MethodGet, "/production-orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	cacheKey := "product:" + productID
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey).Result(); err == nil {
			var p domain.Product
			if jsonErr := json.Unmarshal([]byte(cached), &p); jsonErr == nil {
				return p, nil
			}
		}
	}

	var p domain.Product
	if err := g.doJSON(ctx, "get_product", http.MethodGet, "/products/"+productID, nil, &p); err != nil {
		return domain.Product{}, err
	}

	if g.cache != nil {
		if encoded, err := json.Marshal(p); err == nil {
			g.cache.Set(ctx, cacheKey, encoded, 5*time.Minute)
		}
	}
	return p, nil
}

func (g *HTTPGateway) UpdateSalesOrder(ctx context.Context, id string, update SalesOrderUpdate) error {
	return g.doJSON(ctx, "update_sales_order", http.MethodPatch, "/sales-orders/"+id, update, nil)
}

func (g *HTTPGateway) CreateProductionOrder(ctx context.Context, in CreateProductionOrderInput) (domain.ProductionOrder, error) {
	var out domain.ProductionOrder
	if err := g.doJSON(ctx, "create_production_order", http.MethodPost, "/production-orders", in, &out); err != nil {
		return domain.ProductionOrder{}, err
	}
	return out, nil
}

func (g *HTTPGateway) ScheduleProductionOrder(ctx context.Context, poID string) ([]domain.ProductionPhase, error) {
	var out []domain.ProductionPhase
	path := fmt.Sprintf("/production-orders/%s/schedule", poID)
	if err := g.doJSON(ctx, "schedule_production_order", http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) UpdatePhaseWindow(ctx context.Context, phaseID string, start, end time.Time) error {
	body := map[string]time.Time{"starts_at": start, "ends_at": end}
	return g.doJSON(ctx, "update_phase_window", http.MethodPatch, "/phases/"+phaseID, body, nil)
}

func (g *HTTPGateway) UpdatePOWindow(ctx context.Context, poID string, start, end time.Time) error {
	body := map[string]time.Time{"starts_at": start, "ends_at": end}
	return g.doJSON(ctx, "update_po_window", http.MethodPatch, "/production-orders/"+poID, body, nil)
}

func (g *HTTPGateway) ConfirmProductionOrder(ctx context.Context, poID string) error {
	path := fmt.Sprintf("/production-orders/%s/confirm", poID)
	return g.doJSON(ctx, "confirm_production_order", http.MethodPost, path, nil, nil)
}

func (g *HTTPGateway) DeleteProductionOrder(ctx context.Context, poID string) error {
	return g.doJSON(ctx, "delete_production_order", http.MethodDelete, "/production-orders/"+poID, nil, nil)
}
