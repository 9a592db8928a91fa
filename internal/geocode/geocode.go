package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/placehub/placehub/internal/observability"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ErrAddressNotFound means the provider answered and genuinely knows
// no such address. This is the only hard failure of the resolver.
var ErrAddressNotFound = errors.New("could not find location for entered address")

// Fallback returned when no provider key is configured or the
// provider denies the request.
var FallbackCoordinates = Coordinates{Lat: 40.7484405, Lng: -73.9878584}

type Resolver struct {
	apiKey  string
	baseURL string
	client  *http.Client
	prom    *observability.Prom
}

func NewResolver(apiKey, baseURL string, prom *observability.Prom) *Resolver {
	return &Resolver{
		apiKey:  apiKey,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		prom: prom,
	}
}

type providerResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location Coordinates `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Resolve turns a free-text address into coordinates plus a
// normalized address string. Policy, in order:
//  1. no key configured: fallback coordinates, input address unchanged
//  2. provider reports zero results: ErrAddressNotFound
//  3. provider denies the request (quota/auth): fallback, input address
//  4. otherwise the first result wins
func (r *Resolver) Resolve(ctx context.Context, address string) (Coordinates, string, error) {
	if r.apiKey == "" {
		r.observe("fallback")
		return FallbackCoordinates, address, nil
	}

	reqURL := r.baseURL + "?address=" + url.QueryEscape(address) + "&key=" + url.QueryEscape(r.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)

	if err != nil {
		r.observe("error")
		return Coordinates{}, "", fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := r.client.Do(req)

	if err != nil {
		r.observe("error")
		return Coordinates{}, "", fmt.Errorf("call geocode provider: %w", err)
	}

	defer resp.Body.Close()

	var data providerResponse

	err = json.NewDecoder(resp.Body).Decode(&data)

	if err != nil {
		r.observe("error")
		return Coordinates{}, "", fmt.Errorf("decode geocode response: %w", err)
	}

	switch data.Status {
	case "ZERO_RESULTS":
		r.observe("not_found")
		return Coordinates{}, "", ErrAddressNotFound

	case "REQUEST_DENIED", "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		// provider trouble soft-fails to the defaults rather than
		// failing the caller's request
		r.observe("fallback")
		return FallbackCoordinates, address, nil
	}

	if len(data.Results) == 0 {
		r.observe("not_found")
		return Coordinates{}, "", ErrAddressNotFound
	}

	first := data.Results[0]

	r.observe("resolved")
	return first.Geometry.Location, first.FormattedAddress, nil
}

func (r *Resolver) observe(outcome string) {
	if r.prom != nil {
		r.prom.GeocodeLookups.WithLabelValues(outcome).Inc()
	}
}
