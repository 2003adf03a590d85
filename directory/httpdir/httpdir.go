// Package httpdir resolves users and rules from an HTTP backend. The
// backend answers three GET endpoints with JSON: a user object, a string
// array of prefixes and an array of rule objects.
package httpdir

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	simplejson "github.com/bitly/go-simplejson"

	"github.com/mqguard/mqguard/directory"
)

// Config holds the backend endpoint URLs.
type Config struct {
	UserURL   string `json:"user"`
	PrefixURL string `json:"prefixes"`
	RuleURL   string `json:"rules"`
}

type Client struct {
	config Config
	http   *http.Client
}

func New(config Config) *Client {
	return &Client{
		config: config,
		http:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, rawURL string) (*simplejson.Json, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	js, err := simplejson.NewJson(body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return js, resp.StatusCode, nil
}

func (c *Client) UserByName(ctx context.Context, name string) (*directory.User, error) {
	js, status, err := c.get(ctx, c.config.UserURL+"?username="+url.QueryEscape(name))
	if err != nil {
		return nil, err
	}
	if js == nil {
		if status == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("user endpoint returned status %d", status)
	}

	u := &directory.User{
		ID:               js.Get("id").MustString(),
		UserName:         js.Get("username").MustString(),
		PasswordHash:     js.Get("passwordhash").MustString(),
		ClientIDPrefix:   js.Get("clientidprefix").MustString(),
		ClientID:         js.Get("clientid").MustString(),
		ValidateClientID: js.Get("validateclientid").MustBool(),
		ThrottleUser:     js.Get("throttleuser").MustBool(),
	}
	if limit, err := js.Get("monthlybytelimit").Int64(); err == nil {
		u.MonthlyByteLimit = &limit
	}
	return u, nil
}

func (c *Client) ClientIDPrefixes(ctx context.Context) ([]string, error) {
	js, status, err := c.get(ctx, c.config.PrefixURL)
	if err != nil {
		return nil, err
	}
	if js == nil {
		return nil, fmt.Errorf("prefix endpoint returned status %d", status)
	}

	arr, err := js.Array()
	if err != nil {
		return nil, err
	}
	prefixes := make([]string, 0, len(arr))
	for i := range arr {
		if p := js.GetIndex(i).MustString(); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes, nil
}

func (c *Client) Rules(ctx context.Context, userID string, dir directory.Direction, pol directory.Polarity) ([]directory.Rule, error) {
	ruleURL := fmt.Sprintf("%s?userid=%s&direction=%d&polarity=%d",
		c.config.RuleURL, url.QueryEscape(userID), int(dir), int(pol))
	js, status, err := c.get(ctx, ruleURL)
	if err != nil {
		return nil, err
	}
	if js == nil {
		return nil, fmt.Errorf("rule endpoint returned status %d", status)
	}

	arr, err := js.Array()
	if err != nil {
		return nil, err
	}
	rules := make([]directory.Rule, 0, len(arr))
	for i := range arr {
		item := js.GetIndex(i)
		rules = append(rules, directory.Rule{
			ID:        item.Get("id").MustString(),
			UserID:    userID,
			Direction: dir,
			Polarity:  pol,
			Filter:    item.Get("value").MustString(),
		})
	}
	return rules, nil
}
