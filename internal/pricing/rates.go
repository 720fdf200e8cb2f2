package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/minutemart/storefront-service/pkg/httpclient"
	"github.com/shopspring/decimal"
)

// RateTable holds display-only exchange rates keyed by "FROM:TO" currency
// pairs. Rates never influence the amount charged; they only annotate
// order responses with an approximate local figure.
type RateTable struct {
	Version string
	rates   map[string]decimal.Decimal
}

// ParseRates reads a table from its env form, e.g. "USD:INR=83.20;USD:EUR=0.92".
func ParseRates(spec string) (*RateTable, error) {
	table := &RateTable{
		Version: "static",
		rates:   make(map[string]decimal.Decimal),
	}

	if strings.TrimSpace(spec) == "" {
		return table, nil
	}

	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		pair, value, found := strings.Cut(entry, "=")
		if !found {
			return nil, fmt.Errorf("malformed exchange rate entry: %q", entry)
		}

		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("malformed exchange rate value in %q: %v", entry, err)
		}
		if rate.Sign() <= 0 {
			return nil, fmt.Errorf("exchange rate must be positive in %q", entry)
		}

		table.rates[strings.TrimSpace(pair)] = rate
	}

	return table, nil
}

type ratesDocument struct {
	Version string            `json:"version"`
	Rates   map[string]string `json:"rates"`
}

// FetchRates loads a versioned table from a rates endpoint.
func FetchRates(ctx context.Context, url string) (*RateTable, error) {
	statusCode, body, err := httpclient.SendRequest(ctx, httpclient.HttpRequest{
		URL:    url,
		Method: "GET",
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching exchange rates: %v", err)
	}
	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("exchange rate endpoint returned non-OK status: %d", statusCode)
	}

	var doc ratesDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("error unmarshalling exchange rates: %v", err)
	}

	table := &RateTable{
		Version: doc.Version,
		rates:   make(map[string]decimal.Decimal, len(doc.Rates)),
	}
	for pair, value := range doc.Rates {
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("malformed exchange rate value for %q: %v", pair, err)
		}
		table.rates[pair] = rate
	}

	return table, nil
}

// Convert returns amount expressed in the target currency, or false when no
// rate is configured for the pair.
func (t *RateTable) Convert(amount string, from, to string) (string, bool) {
	if t == nil || from == to {
		return "", false
	}

	rate, ok := t.rates[from+":"+to]
	if !ok {
		return "", false
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return "", false
	}

	return value.Mul(rate).StringFixed(2), true
}
