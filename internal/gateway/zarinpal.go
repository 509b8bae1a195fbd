package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"neynegar/internal/domain"
)

// Zarinpal talks to the provider's v4 REST endpoints. Requests carry an
// explicit timeout and one retry for transport-level failures; retries are
// safe because Authorize is re-issuable and Verify is keyed by authority.
type Zarinpal struct {
	RequestURL  string
	VerifyURL   string
	StartPayURL string
	MerchantID  string
	CallbackURL string

	client *http.Client
}

func NewZarinpal(requestURL, verifyURL, startPayURL, merchantID, callbackURL string, timeout time.Duration) *Zarinpal {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Zarinpal{
		RequestURL:  requestURL,
		VerifyURL:   verifyURL,
		StartPayURL: startPayURL,
		MerchantID:  merchantID,
		CallbackURL: callbackURL,
		client:      &http.Client{Timeout: timeout},
	}
}

type authorizeReq struct {
	MerchantID  string   `json:"merchant_id"`
	Amount      int64    `json:"amount"`
	Description string   `json:"description"`
	CallbackURL string   `json:"callback_url"`
	Metadata    metadata `json:"metadata"`
}

type metadata struct {
	Mobile string `json:"mobile"`
}

type verifyReq struct {
	MerchantID string `json:"merchant_id"`
	Amount     int64  `json:"amount"`
	Authority  string `json:"authority"`
}

type providerResp struct {
	Data struct {
		Code      int         `json:"code"`
		Authority string      `json:"authority"`
		RefID     json.Number `json:"ref_id"`
		Message   string      `json:"message"`
	} `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

const (
	codeOK              = 100
	codeAlreadyVerified = 101
)

func (z *Zarinpal) Authorize(ctx context.Context, amountMinor int64, phone, description string) (AuthorizeResult, error) {
	body := authorizeReq{
		MerchantID:  z.MerchantID,
		Amount:      amountMinor,
		Description: description,
		CallbackURL: z.CallbackURL,
		Metadata:    metadata{Mobile: phone},
	}
	var resp providerResp
	if err := z.post(ctx, z.RequestURL, body, &resp); err != nil {
		return AuthorizeResult{}, err
	}
	if resp.Data.Code != codeOK || resp.Data.Authority == "" {
		return AuthorizeResult{}, errors.Wrapf(domain.ErrGatewayRejected, "authorize code %d", resp.Data.Code)
	}
	return AuthorizeResult{
		Authority:   resp.Data.Authority,
		RedirectURL: z.StartPayURL + resp.Data.Authority,
	}, nil
}

func (z *Zarinpal) Verify(ctx context.Context, amountMinor int64, authority string) (VerifyResult, error) {
	body := verifyReq{MerchantID: z.MerchantID, Amount: amountMinor, Authority: authority}
	var resp providerResp
	if err := z.post(ctx, z.VerifyURL, body, &resp); err != nil {
		return VerifyResult{}, err
	}
	if resp.Data.Code != codeOK && resp.Data.Code != codeAlreadyVerified {
		return VerifyResult{}, errors.Wrapf(domain.ErrGatewayRejected, "verify code %d", resp.Data.Code)
	}
	return VerifyResult{RefID: resp.Data.RefID.String()}, nil
}

// post sends one JSON request with a single retry on transport failure.
func (z *Zarinpal) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := z.client.Do(req)
		if err != nil {
			lastErr = errors.Wrap(domain.ErrGatewayUnreachable, err.Error())
			continue
		}
		func() {
			defer res.Body.Close()
			if res.StatusCode >= 500 {
				lastErr = errors.Wrapf(domain.ErrGatewayUnreachable, "status %d", res.StatusCode)
				return
			}
			if err := json.NewDecoder(res.Body).Decode(out); err != nil {
				lastErr = errors.Wrap(domain.ErrGatewayUnreachable, err.Error())
				return
			}
			lastErr = nil
		}()
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}
