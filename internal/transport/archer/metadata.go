package archer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/grclookup/internal/domain"
	"github.com/kailas-cloud/grclookup/internal/domain/application"
	"github.com/kailas-cloud/grclookup/internal/domain/field"
	"github.com/kailas-cloud/grclookup/internal/domain/valueslist"
)

// envelope is the platform REST wrapper around every returned object.
type envelope[T any] struct {
	IsSuccessful    bool `json:"IsSuccessful"`
	RequestedObject T    `json:"RequestedObject"`
}

type applicationDTO struct {
	ID   int    `json:"Id"`
	Name string `json:"Name"`
}

type fieldDTO struct {
	ID                  int    `json:"Id"`
	Name                string `json:"Name"`
	Alias               string `json:"Alias"`
	Type                int    `json:"Type"`
	IsActive            bool   `json:"IsActive"`
	RelatedValuesListID int    `json:"RelatedValuesListId"`
}

type valuesListValueDTO struct {
	ID   int    `json:"Id"`
	Name string `json:"Name"`
}

type contentEndpointsDTO struct {
	Value []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"value"`
}

// Applications lists every application visible to the session.
func (c *Client) Applications(ctx context.Context) ([]application.Application, error) {
	var resp []envelope[applicationDTO]
	if err := c.getJSON(ctx, "applications", applicationsPath, nil, &resp); err != nil {
		return nil, err
	}
	apps := make([]application.Application, 0, len(resp))
	for _, e := range resp {
		if !e.IsSuccessful {
			continue
		}
		apps = append(apps, application.New(e.RequestedObject.Name, e.RequestedObject.ID))
	}
	return apps, nil
}

// ActiveFields lists the active field definitions of an application.
func (c *Client) ActiveFields(ctx context.Context, appID int) ([]field.Definition, error) {
	path := "api/core/system/fielddefinition/application/" + strconv.Itoa(appID)
	var resp []envelope[fieldDTO]
	if err := c.getJSON(ctx, "fields", path, nil, &resp); err != nil {
		return nil, err
	}
	defs := make([]field.Definition, 0, len(resp))
	for _, e := range resp {
		dto := e.RequestedObject
		if !e.IsSuccessful || !dto.IsActive {
			continue
		}
		def, err := field.New(dto.ID, dto.Name, field.TypeFromCode(dto.Type), dto.IsActive)
		if err != nil {
			return nil, fmt.Errorf("fields: %w: %w", domain.ErrProtocolDecode, err)
		}
		defs = append(defs, def.WithAlias(dto.Alias).WithValuesList(dto.RelatedValuesListID))
	}
	return defs, nil
}

// ValuesListEntries lists the flat values of a values list.
func (c *Client) ValuesListEntries(ctx context.Context, listID int) ([]valueslist.Entry, error) {
	path := "api/core/system/valueslistvalue/flat/valueslist/" + strconv.Itoa(listID)
	var resp []envelope[valuesListValueDTO]
	if err := c.getJSON(ctx, "values_list", path, nil, &resp); err != nil {
		return nil, err
	}
	entries := make([]valueslist.Entry, 0, len(resp))
	for _, e := range resp {
		if !e.IsSuccessful {
			continue
		}
		entries = append(entries, valueslist.Entry{
			DisplayValue: e.RequestedObject.Name,
			ID:           e.RequestedObject.ID,
		})
	}
	return entries, nil
}

// DiscoverEndpoint finds the content API endpoint for an application.
// An exact name match wins; otherwise the first endpoint whose name contains appName.
func (c *Client) DiscoverEndpoint(ctx context.Context, appName string) (application.Endpoint, error) {
	var resp contentEndpointsDTO
	if err := c.getJSON(ctx, "content_discovery", "contentapi/", nil, &resp); err != nil {
		return application.Endpoint{}, err
	}

	var candidate *application.Endpoint
	for _, ep := range resp.Value {
		if ep.URL == "" {
			continue
		}
		if ep.Name == appName {
			return application.Endpoint{Name: ep.Name, URL: ep.URL}, nil
		}
		if candidate == nil && strings.Contains(ep.Name, appName) {
			candidate = &application.Endpoint{Name: ep.Name, URL: ep.URL}
		}
	}
	if candidate != nil {
		return *candidate, nil
	}
	return application.Endpoint{}, fmt.Errorf("content endpoint for %q: %w", appName, domain.ErrApplicationNotFound)
}
