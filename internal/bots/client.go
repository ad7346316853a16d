package bots

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"hearthcoin/internal/model"
	"hearthcoin/pkg/message"
)

// Client lets a bot act through the public API like any other member:
// it signs message bodies with the bot's own key and posts them over
// HTTP. Bots get no private shortcuts into the services.
type Client struct {
	baseURL   string
	http      *http.Client
	publicKey string
	privPEM   string
}

func NewClient(baseURL string, bot *model.BotInfo) *Client {
	return &Client{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 30 * time.Second},
		publicKey: bot.PublicKey,
		privPEM:   bot.PrivateKeyPEM,
	}
}

func (c *Client) PublicKey() string { return c.publicKey }

// PostSigned signs the body with the bot's key and posts the envelope.
// The owner_key and timestamp fields are filled in automatically.
func (c *Client) PostSigned(path string, body map[string]any) (gjson.Result, error) {
	if _, ok := body["owner_key"]; !ok {
		body["owner_key"] = c.publicKey
	}
	body["timestamp"] = float64(time.Now().Unix())

	env, err := message.Sign(c.privPEM, body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("signing request: %w", err)
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("encoding envelope: %w", err)
	}

	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("posting %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading %s response: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		detail := gjson.GetBytes(raw, "detail").String()
		if detail == "" {
			detail = resp.Status
		}
		return gjson.Result{}, fmt.Errorf("%s: %s", path, detail)
	}
	return gjson.ParseBytes(raw), nil
}

func (c *Client) Get(path string, query url.Values) (gjson.Result, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	resp, err := c.http.Get(target)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading %s response: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return gjson.Result{}, fmt.Errorf("%s: %s", path, resp.Status)
	}
	return gjson.ParseBytes(raw), nil
}

func (c *Client) Balance() (float64, error) {
	result, err := c.Get("/balance/"+url.PathEscape(c.publicKey), nil)
	if err != nil {
		return 0, err
	}
	return result.Get("balance").Float(), nil
}

// Assets returns the bot's ACTIVE assets. Escrowed items belong to the
// escrow account and do not show up here.
func (c *Client) Assets() ([]gjson.Result, error) {
	result, err := c.Get("/nfts/"+url.PathEscape(c.publicKey), nil)
	if err != nil {
		return nil, err
	}
	return result.Get("nfts").Array(), nil
}

// Listings returns active listings of the given kind, excluding the
// bot's own.
func (c *Client) Listings(kind string) ([]gjson.Result, error) {
	query := url.Values{}
	query.Set("type", kind)
	query.Set("exclude", c.publicKey)
	result, err := c.Get("/market/listings", query)
	if err != nil {
		return nil, err
	}
	return result.Get("listings").Array(), nil
}

// ShopCatalog returns the purchasable entries, keyed by asset type.
func (c *Client) ShopCatalog() (map[string]gjson.Result, error) {
	result, err := c.Get("/shop", nil)
	if err != nil {
		return nil, err
	}
	catalog := map[string]gjson.Result{}
	result.Get("catalog").ForEach(func(key, value gjson.Result) bool {
		catalog[key.String()] = value
		return true
	})
	return catalog, nil
}
