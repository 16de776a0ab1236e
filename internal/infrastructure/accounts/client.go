package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// HTTPAccountsClient talks to the accounts service over its REST API.
type HTTPAccountsClient struct {
	address string
	client  *http.Client
}

func NewHTTPAccountsClient(address string, timeout time.Duration) *HTTPAccountsClient {
	return &HTTPAccountsClient{
		address: address,
		client:  &http.Client{Timeout: timeout},
	}
}

// DeleteAccount removes accountID. An account that is already gone counts
// as deleted.
func (c *HTTPAccountsClient) DeleteAccount(ctx context.Context, accountID string) error {
	endpoint := fmt.Sprintf("%s/accounts/%s", c.address, url.PathEscape(accountID))
	request, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}

	response, err := c.client.Do(request)
	if err != nil {
		return fmt.Errorf("delete account %s: %w", accountID, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 200 && response.StatusCode < 300 || response.StatusCode == http.StatusNotFound {
		return nil
	}

	responseBodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	var errorResponse ErrorResponse
	if err := json.Unmarshal(responseBodyBytes, &errorResponse); err != nil || errorResponse.Error == "" {
		return fmt.Errorf("delete account %s: accounts service returned status %d", accountID, response.StatusCode)
	}
	return errors.New(errorResponse.Error)
}
