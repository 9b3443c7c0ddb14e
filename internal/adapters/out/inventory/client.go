// Package inventory resolves locations, location groups and transport units
// through the REST API of the warehouse inventory service.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/topology"
	"tms/internal/core/ports"
	"tms/internal/pkg/errs"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client implements the topology lookups over HTTP. Unknown entities are
// reported as errs.ObjectNotFoundError.
type Client struct {
	baseURL string
	http    *http.Client
}

var (
	_ ports.LocationLookup      = (*Client)(nil)
	_ ports.LocationGroupLookup = (*Client)(nil)
	_ ports.TransportUnitLookup = (*Client)(nil)
)

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("inventory base url", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

type locationResponse struct {
	PK             string `json:"pk"`
	IncomingActive bool   `json:"incomingActive"`
}

type locationGroupResponse struct {
	Name           string `json:"name"`
	IncomingActive bool   `json:"incomingActive"`
}

type transportUnitResponse struct {
	Barcode        string `json:"barcode"`
	ActualLocation string `json:"actualLocation"`
	TargetLocation string `json:"targetLocation"`
}

type targetRequest struct {
	TargetLocation string `json:"targetLocation"`
}

func (c *Client) FindByPK(ctx context.Context, pk kernel.LocationPK) (topology.Location, error) {
	var resp locationResponse
	if err := c.get(ctx, "location", pk.String(), "/locations/"+url.PathEscape(pk.String()), &resp); err != nil {
		return topology.Location{}, err
	}
	// the service may answer with an alias; the requested coordinate is kept
	// unless the answer is a valid one
	if resp.PK != "" {
		if parsed, err := kernel.ParseLocationPK(resp.PK); err == nil {
			pk = parsed
		}
	}
	return topology.Location{PK: pk, IncomingActive: resp.IncomingActive}, nil
}

func (c *Client) FindByName(ctx context.Context, name string) (topology.LocationGroup, error) {
	var resp locationGroupResponse
	if err := c.get(ctx, "location group", name, "/location-groups/"+url.PathEscape(name), &resp); err != nil {
		return topology.LocationGroup{}, err
	}
	if resp.Name == "" {
		resp.Name = name
	}
	return topology.LocationGroup{Name: resp.Name, IncomingActive: resp.IncomingActive}, nil
}

func (c *Client) FindByBarcode(ctx context.Context, barcode string) (topology.TransportUnit, error) {
	var resp transportUnitResponse
	if err := c.get(ctx, "transport unit", barcode, "/transport-units/"+url.PathEscape(barcode), &resp); err != nil {
		return topology.TransportUnit{}, err
	}
	if resp.Barcode == "" {
		resp.Barcode = barcode
	}
	return topology.TransportUnit{
		Barcode:        resp.Barcode,
		ActualLocation: resp.ActualLocation,
		TargetLocation: resp.TargetLocation,
	}, nil
}

func (c *Client) UpdateTarget(ctx context.Context, barcode, target string) error {
	body, err := json.Marshal(targetRequest{TargetLocation: target})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		c.baseURL+"/transport-units/"+url.PathEscape(barcode), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("update target of transport unit %s: %w", barcode, err)
	}
	defer drain(res)

	return statusError(res, "transport unit", barcode)
}

func (c *Client) get(ctx context.Context, entity, id, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("lookup %s %s: %w", entity, id, err)
	}
	defer drain(res)

	if err = statusError(res, entity, id); err != nil {
		return err
	}
	if err = json.NewDecoder(res.Body).Decode(out); err != nil {
		return errs.NewProtocolErrorWithCause(fmt.Sprintf("malformed %s response", entity), err)
	}
	return nil
}

var errUnexpectedStatus = errors.New("unexpected inventory status")

func statusError(res *http.Response, entity, id string) error {
	switch {
	case res.StatusCode == http.StatusNotFound:
		return errs.NewObjectNotFoundError(entity, id)
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return nil
	default:
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("%w %d for %s %s: %s", errUnexpectedStatus, res.StatusCode, entity, id, strings.TrimSpace(string(msg)))
	}
}

func drain(res *http.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
