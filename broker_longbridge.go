// FILE: broker_longbridge.go
// Package main – Signed REST client for the Longbridge-style trade API.
//
// Implements the Broker interface against the OpenAPI REST surface:
//   • StockPositions: GET  /v1/asset/stock        -> channels of holdings
//   • AccountBalance: GET  /v1/asset/account      -> net assets (first entry)
//   • Quote:          GET  /v1/quote              -> last done per symbol
//   • SubmitOrder:    POST /v1/trade/order        -> order id
//   • TodayOrders:    GET  /v1/trade/order/today  -> open orders by status
//   • CancelOrder:    DELETE /v1/trade/order
//
// Requests are signed with HMAC-SHA256 over
// method\npath\nquery\nsha256(body)\ntimestamp and throttled by a client-side
// rate limiter so a burst of cancels cannot trip the venue's request caps.
// Credentials come from a JSON file: {"app_key","app_secret","access_token"}.

package main

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// LongbridgeBroker talks to the OpenAPI gateway over signed REST calls.
type LongbridgeBroker struct {
	base        string
	hc          *http.Client
	limiter     *rate.Limiter
	appKey      string
	appSecret   string
	accessToken string
}

type longbridgeCredentials struct {
	AppKey      string `json:"app_key"`
	AppSecret   string `json:"app_secret"`
	AccessToken string `json:"access_token"`
}

// NewLongbridgeBroker loads credentials from credFile and returns a ready
// client. ratePerSec bounds outbound request rate (burst of 1).
func NewLongbridgeBroker(baseURL, credFile string, ratePerSec float64) (*LongbridgeBroker, error) {
	raw, err := os.ReadFile(credFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", credFile, err)
	}
	var creds longbridgeCredentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", credFile, err)
	}
	if creds.AppKey == "" || creds.AppSecret == "" || creds.AccessToken == "" {
		return nil, fmt.Errorf("credentials %s missing app_key/app_secret/access_token", credFile)
	}
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	return &LongbridgeBroker{
		base:        strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		hc:          &http.Client{Timeout: 15 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(ratePerSec), 1),
		appKey:      creds.AppKey,
		appSecret:   creds.AppSecret,
		accessToken: creds.AccessToken,
	}, nil
}

func (lb *LongbridgeBroker) Name() string { return "longbridge" }

// sign builds the request signature:
// hex(hmac-sha256(secret, method\npath\nquery\nhex(sha256(body))\ntimestamp))
func (lb *LongbridgeBroker) sign(method, path, query, body string, ts int64) string {
	bodyHash := sha256.Sum256([]byte(body))
	msg := fmt.Sprintf("%s\n%s\n%s\n%s\n%d", method, path, query, hex.EncodeToString(bodyHash[:]), ts)
	mac := hmac.New(sha256.New, []byte(lb.appSecret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

// apiEnvelope is the common response wrapper: {code, message, data}.
type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do issues one signed request and decodes the data payload into out.
func (lb *LongbridgeBroker) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	if err := lb.limiter.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
	}
	qs := ""
	if query != nil {
		qs = query.Encode()
	}
	u := lb.base + path
	if qs != "" {
		u += "?" + qs
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("newrequest %s %s: %w", method, path, err)
	}
	ts := time.Now().Unix()
	req.Header.Set("X-Api-Key", lb.appKey)
	req.Header.Set("Authorization", "Bearer "+lb.accessToken)
	req.Header.Set("X-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-Api-Signature", lb.sign(method, path, qs, string(payload), ts))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	res, err := lb.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%s %s %d: %s", method, path, res.StatusCode, string(b))
	}
	var env apiEnvelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if env.Code != 0 {
		return fmt.Errorf("%s %s api code %d: %s", method, path, env.Code, env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data %s %s: %w", method, path, err)
		}
	}
	return nil
}

// --- Positions & balance ---

func (lb *LongbridgeBroker) StockPositions(ctx context.Context) ([]PositionChannel, error) {
	var data struct {
		Channels []struct {
			AccountChannel string `json:"account_channel"`
			Positions      []struct {
				Symbol   string `json:"symbol"`
				Quantity string `json:"quantity"`
			} `json:"positions"`
		} `json:"channels"`
	}
	if err := lb.do(ctx, http.MethodGet, "/v1/asset/stock", nil, nil, &data); err != nil {
		return nil, err
	}
	out := make([]PositionChannel, 0, len(data.Channels))
	for _, ch := range data.Channels {
		pc := PositionChannel{Channel: ch.AccountChannel}
		for _, p := range ch.Positions {
			qty, err := decimal.NewFromString(strings.TrimSpace(p.Quantity))
			if err != nil {
				continue // unparsable row; the rest of the channel still counts
			}
			pc.Positions = append(pc.Positions, Position{Symbol: p.Symbol, Quantity: qty.IntPart()})
		}
		out = append(out, pc)
	}
	return out, nil
}

func (lb *LongbridgeBroker) AccountBalance(ctx context.Context) (decimal.Decimal, error) {
	var data struct {
		List []struct {
			NetAssets string `json:"net_assets"`
		} `json:"list"`
	}
	if err := lb.do(ctx, http.MethodGet, "/v1/asset/account", nil, nil, &data); err != nil {
		return decimal.Zero, err
	}
	if len(data.List) == 0 {
		return decimal.Zero, fmt.Errorf("asset/account: empty balance list")
	}
	net, err := decimal.NewFromString(strings.TrimSpace(data.List[0].NetAssets))
	if err != nil {
		return decimal.Zero, fmt.Errorf("asset/account: bad net_assets %q: %w", data.List[0].NetAssets, err)
	}
	return net, nil
}

// --- Quotes ---

func (lb *LongbridgeBroker) Quote(ctx context.Context, symbols []string) ([]Quote, error) {
	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))
	var data struct {
		List []struct {
			Symbol   string `json:"symbol"`
			LastDone string `json:"last_done"`
		} `json:"list"`
	}
	if err := lb.do(ctx, http.MethodGet, "/v1/quote", q, nil, &data); err != nil {
		return nil, err
	}
	out := make([]Quote, 0, len(data.List))
	for _, r := range data.List {
		last, err := decimal.NewFromString(strings.TrimSpace(r.LastDone))
		if err != nil {
			continue
		}
		out = append(out, Quote{Symbol: r.Symbol, LastDone: last})
	}
	return out, nil
}

// --- Orders ---

func (lb *LongbridgeBroker) SubmitOrder(ctx context.Context, req OrderRequest) (string, error) {
	body := map[string]string{
		"symbol":             req.Symbol,
		"order_type":         req.OrderType,
		"side":               string(req.Side),
		"time_in_force":      req.TimeInForce,
		"submitted_price":    req.Price.String(),
		"submitted_quantity": strconv.FormatInt(req.Quantity, 10),
	}
	if req.Remark != "" {
		body["remark"] = req.Remark
	}
	var data struct {
		OrderID string `json:"order_id"`
	}
	if err := lb.do(ctx, http.MethodPost, "/v1/trade/order", nil, body, &data); err != nil {
		return "", err
	}
	return data.OrderID, nil
}

func (lb *LongbridgeBroker) TodayOrders(ctx context.Context, status OrderStatus) ([]PendingOrder, error) {
	q := url.Values{}
	q.Set("status", string(status))
	var data struct {
		Orders []struct {
			OrderID string `json:"order_id"`
			Symbol  string `json:"symbol"`
			Status  string `json:"status"`
		} `json:"orders"`
	}
	if err := lb.do(ctx, http.MethodGet, "/v1/trade/order/today", q, nil, &data); err != nil {
		return nil, err
	}
	out := make([]PendingOrder, 0, len(data.Orders))
	for _, o := range data.Orders {
		out = append(out, PendingOrder{OrderID: o.OrderID, Symbol: o.Symbol, Status: OrderStatus(o.Status)})
	}
	return out, nil
}

func (lb *LongbridgeBroker) CancelOrder(ctx context.Context, orderID string) error {
	q := url.Values{}
	q.Set("order_id", orderID)
	return lb.do(ctx, http.MethodDelete, "/v1/trade/order", q, nil, nil)
}
