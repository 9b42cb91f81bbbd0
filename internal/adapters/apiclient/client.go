// Package apiclient habla con la API HTTP del servicio (lo usa el CLI de due-check).
package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"adoption-followup/internal/platform/httpclient"
)

type Client struct {
	http *httpclient.Client
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	c, err := httpclient.NewWithBaseURL(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	if c.BaseURL == "" {
		return nil, errors.New("apiclient: base url required")
	}
	return &Client{http: c}, nil
}

// SetToken fija el bearer token para los requests siguientes.
func (c *Client) SetToken(token string) { c.http.Token = token }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login usa el flujo OAuth2 password y guarda el token.
func (c *Client) Login(ctx context.Context, name, password string) error {
	var out tokenResponse
	form := url.Values{"username": {name}, "password": {password}}
	if err := c.http.PostForm(ctx, "/users/token", nil, form, &out); err != nil {
		return err
	}
	if out.AccessToken == "" {
		return errors.New("apiclient: empty access token")
	}
	c.SetToken(out.AccessToken)
	return nil
}

type GenerateResult struct {
	Created int `json:"created"`
	Checked int `json:"checked"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Forms   []struct {
		ID       string `json:"id"`
		AnimalID string `json:"animal_id"`
	} `json:"forms"`
}

// GeneratePeriodic dispara el due-check manual (requiere admin).
func (c *Client) GeneratePeriodic(ctx context.Context) (GenerateResult, error) {
	var out GenerateResult
	err := c.http.DoJSON(ctx, http.MethodPost, "/forms/generate-periodic", nil, nil, &out)
	return out, err
}
