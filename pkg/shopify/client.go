package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aurelle-jewelry/storefront-backend/pkg/config"
	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
)

var (
	errShopDomainRequired      = errors.New("shopify shop domain is required")
	errStorefrontTokenRequired = errors.New("shopify storefront token is required")
	errAdminTokenRequired      = errors.New("shopify admin token is required")
)

// graphqlClient is the shared transport for Shopify's GraphQL surfaces.
type graphqlClient struct {
	endpoint   string
	headers    map[string]string
	httpClient *http.Client
	logger     *logger.Logger
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

func newGraphQLClient(endpoint string, headers map[string]string, cfg config.ShopifyConfig, logg *logger.Logger) *graphqlClient {
	return &graphqlClient{
		endpoint:   endpoint,
		headers:    headers,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     logg,
	}
}

// do executes a GraphQL request and decodes the data payload into out.
func (c *graphqlClient) do(ctx context.Context, op, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding graphql request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building graphql request")
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	c.log(ctx, "request", op, nil)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("shopify %s failed", op))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("reading shopify %s response", op))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log(ctx, "error", op, map[string]any{"status": resp.StatusCode})
		return pkgerrors.New(codeForStatus(resp.StatusCode), fmt.Sprintf("shopify %s returned status %d", op, resp.StatusCode))
	}

	payload := graphqlResponse{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decoding shopify %s response", op))
	}
	if len(payload.Errors) > 0 {
		msg := joinGraphQLErrors(payload.Errors)
		c.log(ctx, "error", op, map[string]any{"error": msg})
		return pkgerrors.New(pkgerrors.CodeRemoteRejected, fmt.Sprintf("shopify %s: %s", op, msg))
	}

	if out != nil {
		if err := json.Unmarshal(payload.Data, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decoding shopify %s data", op))
		}
	}
	c.log(ctx, "response", op, nil)
	return nil
}

func (c *graphqlClient) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("shopify %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("shopify %s", phase))
	}
}

func joinGraphQLErrors(errs []graphqlError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if trimmed := strings.TrimSpace(e.Message); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return "unknown error"
	}
	return strings.Join(parts, "; ")
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
