// internal/directory/proximity.go
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	httpx "maintenance-dispatch/internal/common/http"
	"maintenance-dispatch/internal/common/logger"
)

// ProximityClient queries the external proximity service for contractors
// near a property. The service is an optional collaborator: routing treats
// any failure here as "skip the local filter", never as a routing error.
type ProximityClient struct {
	http    *httpx.Client
	baseURL string
	logger  logger.Logger
}

func NewProximityClient(client *httpx.Client, baseURL string, log logger.Logger) *ProximityClient {
	return &ProximityClient{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log,
	}
}

// Nearby returns the given contractor ids ordered nearest-first relative to
// the property. Ids unknown to the proximity service are dropped from the
// response.
func (p *ProximityClient) Nearby(ctx context.Context, propertyID string, contractorIDs []string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/v1/proximity/rank?propertyId=%s&contractors=%s",
		p.baseURL,
		url.QueryEscape(propertyID),
		url.QueryEscape(strings.Join(contractorIDs, ",")),
	)

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.http.DoWithContext(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("proximity service returned %d", resp.StatusCode)
	}

	var body struct {
		ContractorIDs []string `json:"contractorIds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding proximity response: %w", err)
	}
	return body.ContractorIDs, nil
}
