package tripapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
	"github.com/tripsync/portal/internal/infrastructure/observability"
	apperrors "github.com/tripsync/portal/pkg/errors"
	"github.com/tripsync/portal/pkg/retry"
)

// HTTPClient talks JSON to the remote travel API
type HTTPClient struct {
	baseURL       string
	httpClient    *http.Client
	retryAttempts int
}

// Option customises an HTTPClient
type Option func(*HTTPClient)

// WithTimeout bounds every outbound request
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRetryAttempts sets how many times idempotent reads are attempted
func WithRetryAttempts(attempts int) Option {
	return func(c *HTTPClient) {
		c.retryAttempts = attempts
	}
}

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

var _ providers.TravelAPI = (*HTTPClient)(nil)

func NewClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		retryAttempts: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) Register(ctx context.Context, reg providers.Registration) (string, error) {
	reg.Role = entities.NormalizeRole(string(reg.Role))
	var out struct {
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", reg, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*providers.LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	out := &providers.LoginResult{}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListPackages(ctx context.Context, q providers.PackageQuery) ([]entities.TravelPackage, error) {
	query := url.Values{}
	if q.Category != "" && q.Category != entities.AllCategories {
		query.Set("category", q.Category)
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	endpoint := "/packages"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return c.getPackageList(ctx, endpoint, "")
}

func (c *HTTPClient) GetPackage(ctx context.Context, id string) (*entities.TravelPackage, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("package id is required")
	}
	out := &entities.TravelPackage{}
	if err := c.getJSON(ctx, "/packages/"+url.PathEscape(id), "", out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreatePackage(ctx context.Context, token string, pkg entities.TravelPackage) (*entities.TravelPackage, error) {
	raw, err := c.do(ctx, http.MethodPost, "/packages", token, pkg)
	if err != nil {
		return nil, err
	}
	return decodeEnveloped[entities.TravelPackage](raw, "package")
}

func (c *HTTPClient) UpdatePackage(ctx context.Context, token, id string, pkg entities.TravelPackage) (*entities.TravelPackage, error) {
	raw, err := c.do(ctx, http.MethodPut, "/packages/"+url.PathEscape(id), token, pkg)
	if err != nil {
		return nil, err
	}
	return decodeEnveloped[entities.TravelPackage](raw, "package")
}

func (c *HTTPClient) DeletePackage(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/packages/"+url.PathEscape(id), token, nil)
	return err
}

func (c *HTTPClient) ApprovePackage(ctx context.Context, token, id string) (*entities.TravelPackage, error) {
	return c.review(ctx, token, id, "approve")
}

func (c *HTTPClient) RejectPackage(ctx context.Context, token, id string) (*entities.TravelPackage, error) {
	return c.review(ctx, token, id, "reject")
}

func (c *HTTPClient) review(ctx context.Context, token, id, action string) (*entities.TravelPackage, error) {
	raw, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/packages/%s/%s", url.PathEscape(id), action), token, nil)
	if err != nil {
		return nil, err
	}
	return decodeEnveloped[entities.TravelPackage](raw, "package")
}

func (c *HTTPClient) ListPendingPackages(ctx context.Context, token string) ([]entities.TravelPackage, error) {
	return c.getPackageList(ctx, "/packages/pending/all", token)
}

func (c *HTTPClient) ListAllPackages(ctx context.Context, token string) ([]entities.TravelPackage, error) {
	return c.getPackageList(ctx, "/admin/packages", token)
}

func (c *HTTPClient) CreateBooking(ctx context.Context, token string, booking entities.Booking) (*entities.Booking, error) {
	body := map[string]interface{}{
		"package_id": booking.PackageID,
		"date":       booking.Date,
		"persons":    booking.Persons,
		"total":      booking.Total,
	}
	raw, err := c.do(ctx, http.MethodPost, "/bookings", token, body)
	if err != nil {
		return nil, err
	}
	return decodeEnveloped[entities.Booking](raw, "booking")
}

func (c *HTTPClient) ListMyBookings(ctx context.Context, token string) ([]entities.Booking, error) {
	return c.getBookingList(ctx, "/bookings/my", token)
}

func (c *HTTPClient) ListAgentBookings(ctx context.Context, token string) ([]entities.Booking, error) {
	return c.getBookingList(ctx, "/bookings/agent", token)
}

func (c *HTTPClient) getBookingList(ctx context.Context, endpoint, token string) ([]entities.Booking, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, endpoint, token, &raw); err != nil {
		return nil, err
	}
	var list []entities.Booking
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Bookings []entities.Booking `json:"bookings"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, apperrors.NewExternalError("unexpected booking list payload", err)
	}
	return wrapped.Bookings, nil
}

func (c *HTTPClient) getPackageList(ctx context.Context, endpoint, token string) ([]entities.TravelPackage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, endpoint, token, &raw); err != nil {
		return nil, err
	}
	var list []entities.TravelPackage
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Packages []entities.TravelPackage `json:"packages"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, apperrors.NewExternalError("unexpected package list payload", err)
	}
	return wrapped.Packages, nil
}

// getJSON retries idempotent reads on network failures and 5xx responses.
func (c *HTTPClient) getJSON(ctx context.Context, endpoint, token string, out interface{}) error {
	cfg := retry.RequestConfig(c.retryAttempts)
	cfg.Retryable = func(err error) bool {
		return apperrors.IsType(err, apperrors.ErrorTypeExternal)
	}
	return retry.DoWithLog(ctx, cfg, "tripapi", func() error {
		return c.doJSON(ctx, http.MethodGet, endpoint, token, nil, out)
	}, func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().Err(err).Str("endpoint", endpoint).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("travel api read failed")
	})
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpoint, token string, in, out interface{}) error {
	raw, err := c.do(ctx, method, endpoint, token, in)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewExternalError(fmt.Sprintf("invalid response from %s %s", method, endpoint), err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint, token string, in interface{}) ([]byte, error) {
	ctx, span := observability.StartSpan(ctx, "tripapi "+method)
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("http.method", method),
		attribute.String("tripapi.endpoint", endpoint),
	)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to encode request", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError("travel api unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError("failed to read travel api response", err)
	}
	observability.SetSpanAttributes(span, attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := statusError(resp.StatusCode, raw)
		observability.RecordError(span, apiErr)
		return nil, apiErr
	}
	return raw, nil
}

// statusError maps a non-2xx response onto an AppError carrying the server's explanation.
func statusError(status int, raw []byte) error {
	msg := serverMessage(raw)
	if msg == "" {
		msg = fmt.Sprintf("travel api returned status %d", status)
	}
	switch {
	case status == http.StatusNotFound:
		return apperrors.NewNotFoundError(msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.NewUnauthorizedError(msg)
	case status == http.StatusConflict:
		return apperrors.NewConflictError(msg)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperrors.NewValidationError(msg)
	default:
		return apperrors.NewExternalError(msg, fmt.Errorf("status %d", status))
	}
}

// serverMessage extracts "detail" or "message" from an error body. Detail may be a
// plain string or a structured validation report.
func serverMessage(raw []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil {
			return detail
		}
		return string(body.Detail)
	}
	return body.Message
}

// decodeEnveloped accepts both {"<key>": {...}} and a bare object.
func decodeEnveloped[T any](raw []byte, key string) (*T, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if inner, ok := envelope[key]; ok && len(inner) > 0 && string(inner) != "null" {
			out := new(T)
			if err := json.Unmarshal(inner, out); err != nil {
				return nil, apperrors.NewExternalError("invalid "+key+" payload", err)
			}
			return out, nil
		}
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, apperrors.NewExternalError("invalid "+key+" payload", err)
	}
	return out, nil
}
