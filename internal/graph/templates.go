package graph

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nebari-dev/wabastudio/internal/composer"
)

const templateFields = "id,name,status,category,language,parameter_format,components"

// CreateTemplateResponse is returned by the template-creation endpoint.
type CreateTemplateResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Category string `json:"category"`
}

type createTemplateRequest struct {
	Name            string               `json:"name"`
	Category        composer.Category    `json:"category"`
	Language        string               `json:"language"`
	Components      []composer.Component `json:"components"`
	ParameterFormat string               `json:"parameter_format,omitempty"`
}

// CreateTemplate submits a template for review.
func (c *Client) CreateTemplate(ctx context.Context, creds Credentials, p *composer.Payload) (*CreateTemplateResponse, error) {
	body := createTemplateRequest{
		Name:            p.Name,
		Category:        p.Category,
		Language:        p.Language,
		Components:      p.Components,
		ParameterFormat: strings.ToUpper(string(p.ParameterFormat)),
	}

	var resp CreateTemplateResponse
	path := "/" + url.PathEscape(creds.WABAID) + "/message_templates"
	if err := c.request(ctx, creds.AccessToken, http.MethodPost, path, nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListOptions pages through templates.
type ListOptions struct {
	Limit  int
	After  string
	Name   string
	Status string
}

// TemplatePage is one page of templates.
type TemplatePage struct {
	Data   []composer.Record `json:"data"`
	Paging struct {
		Cursors struct {
			Before string `json:"before"`
			After  string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next,omitempty"`
	} `json:"paging"`
}

// NextCursor is the cursor for the following page, or "" on the last page.
func (p *TemplatePage) NextCursor() string {
	if p.Paging.Next == "" {
		return ""
	}
	return p.Paging.Cursors.After
}

// ListTemplates returns one page of the account's templates.
func (c *Client) ListTemplates(ctx context.Context, creds Credentials, opts ListOptions) (*TemplatePage, error) {
	q := url.Values{}
	q.Set("fields", templateFields)
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.After != "" {
		q.Set("after", opts.After)
	}
	if opts.Name != "" {
		q.Set("name", opts.Name)
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}

	var page TemplatePage
	path := "/" + url.PathEscape(creds.WABAID) + "/message_templates"
	if err := c.request(ctx, creds.AccessToken, http.MethodGet, path, q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetTemplate fetches one template by its Graph ID.
func (c *Client) GetTemplate(ctx context.Context, creds Credentials, templateID string) (*composer.Record, error) {
	q := url.Values{}
	q.Set("fields", templateFields)

	var rec composer.Record
	if err := c.request(ctx, creds.AccessToken, http.MethodGet, "/"+url.PathEscape(templateID), q, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
