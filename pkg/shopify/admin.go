package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aurelle-jewelry/storefront-backend/pkg/config"
	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
)

// AdminClient speaks the Admin API, used only for customer metafield upserts.
type AdminClient struct {
	gql *graphqlClient
}

// NewAdminClient validates credentials and builds the Admin API client.
func NewAdminClient(ctx context.Context, cfg config.ShopifyConfig, logg *logger.Logger) (*AdminClient, error) {
	if strings.TrimSpace(cfg.ShopDomain) == "" {
		return nil, errShopDomainRequired
	}
	token := strings.TrimSpace(cfg.AdminToken)
	if token == "" {
		return nil, errAdminTokenRequired
	}

	gql := newGraphQLClient(cfg.AdminEndpoint(), map[string]string{
		"X-Shopify-Access-Token": token,
	}, cfg, logg)

	if logg != nil {
		logg.Info(ctx, "shopify admin client initialized")
	}
	return &AdminClient{gql: gql}, nil
}

// UpsertCustomerMetafield writes a JSON list value onto the customer record.
func (c *AdminClient) UpsertCustomerMetafield(ctx context.Context, customerID, namespace, key string, values []string) error {
	encoded, err := json.Marshal(values)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding metafield value")
	}

	query := `
mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields { id }
    userErrors { field message }
  }
}`
	out := struct {
		MetafieldsSet struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}{}
	vars := map[string]any{
		"metafields": []map[string]any{
			{
				"ownerId":   customerGID(customerID),
				"namespace": namespace,
				"key":       key,
				"type":      "list.single_line_text_field",
				"value":     string(encoded),
			},
		},
	}
	if err := c.gql.do(ctx, "metafields_set", query, vars, &out); err != nil {
		return err
	}
	if errs := out.MetafieldsSet.UserErrors; len(errs) > 0 {
		return pkgerrors.New(pkgerrors.CodeRemoteRejected, fmt.Sprintf("shopify metafields_set: %s", joinUserErrors(errs)))
	}
	return nil
}

func customerGID(customerID string) string {
	if strings.HasPrefix(customerID, "gid://") {
		return customerID
	}
	return fmt.Sprintf("gid://shopify/Customer/%s", customerID)
}
