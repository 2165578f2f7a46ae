// Package trestle is the reverse phone lookup client.
package trestle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"callfile/internal/enrichment/providers"
)

const (
	ProviderName   = "trestle"
	DefaultBaseURL = "https://api.trestleiq.com/3.2"
)

type Client struct {
	apiKey  string
	baseURL string
	http    *providers.Client
}

func New(apiKey, baseURL string, opts ...providers.ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    providers.NewClient(ProviderName, opts...),
	}
}

// LookupPhone queries the owner of phone. The leading '+' of E.164 is dropped
// because the API expects digits only.
func (c *Client) LookupPhone(ctx context.Context, phone string) (*providers.Identity, error) {
	if c.apiKey == "" {
		return nil, providers.ErrNotConfigured
	}
	q := url.Values{"phone": {strings.TrimPrefix(phone, "+")}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/phone?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build trestle request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	var raw json.RawMessage
	if err := c.http.Do(ctx, "lookup_phone", req, &raw); err != nil {
		return nil, err
	}
	return ParseIdentity(raw)
}

// ParseIdentity decodes a phone lookup response, either fresh from the API or
// as stored on a caller record.
func ParseIdentity(raw json.RawMessage) (*providers.Identity, error) {
	var body phoneResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, ProviderName, "decode phone response", err)
	}
	return body.identity(compact(raw)), nil
}

func compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

type phoneResponse struct {
	IsValid      *bool   `json:"is_valid"`
	LineType     string  `json:"line_type"`
	Carrier      string  `json:"carrier"`
	IsPrepaid    *bool   `json:"is_prepaid"`
	IsCommercial *bool   `json:"is_commercial"`
	Owners       []owner `json:"owners"`
}

type owner struct {
	Name             string           `json:"name"`
	FirstName        string           `json:"firstname"`
	LastName         string           `json:"lastname"`
	MiddleName       string           `json:"middlename"`
	AlternateNames   []string         `json:"alternate_names"`
	AgeRange         string           `json:"age_range"`
	Gender           string           `json:"gender"`
	Type             string           `json:"type"`
	Emails           emailList        `json:"emails"`
	CurrentAddresses []address        `json:"current_addresses"`
	AlternatePhones  []alternatePhone `json:"alternate_phones"`
}

type address struct {
	StreetLine1 string `json:"street_line_1"`
	StreetLine2 string `json:"street_line_2"`
	City        string `json:"city"`
	StateCode   string `json:"state_code"`
	PostalCode  string `json:"postal_code"`
	LatLong     *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Accuracy  string   `json:"accuracy"`
	} `json:"lat_long"`
}

func (a address) formatted() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.StreetLine1, a.StreetLine2, a.City, a.StateCode, a.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type alternatePhone struct {
	PhoneNumber      string `json:"phoneNumber"`
	PhoneNumberSnake string `json:"phone_number"`
	LineType         string `json:"lineType"`
	LineTypeSnake    string `json:"line_type"`
}

// emailList accepts either a bare string or a list of strings and
// {"email_address": ...} objects.
type emailList []string

func (e *emailList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*e = emailList{single}
		}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	out := emailList{}
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			if s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			EmailAddress string `json:"email_address"`
			Address      string `json:"address"`
		}
		if json.Unmarshal(item, &obj) == nil {
			if obj.EmailAddress != "" {
				out = append(out, obj.EmailAddress)
			} else if obj.Address != "" {
				out = append(out, obj.Address)
			}
		}
	}
	*e = out
	return nil
}

func (r phoneResponse) identity(raw json.RawMessage) *providers.Identity {
	lineType := strings.ToLower(r.LineType)
	id := &providers.Identity{
		LineType:     lineType,
		SMSEligible:  lineType == "mobile",
		Carrier:      r.Carrier,
		IsPrepaid:    r.IsPrepaid,
		IsCommercial: r.IsCommercial,
		OwnerCount:   len(r.Owners),
		Raw:          raw,
	}
	if len(r.Owners) == 0 {
		return id
	}

	o := r.Owners[0]
	id.OwnerName = o.Name
	id.FirstName = o.FirstName
	id.LastName = o.LastName
	id.MiddleName = o.MiddleName
	id.AlternateNames = o.AlternateNames
	id.AgeRange = o.AgeRange
	id.Gender = o.Gender
	id.OwnerType = o.Type
	id.Emails = o.Emails

	for _, a := range o.CurrentAddresses {
		f := a.formatted()
		if f == "" {
			continue
		}
		ia := providers.IdentityAddress{Formatted: f}
		if a.LatLong != nil {
			ia.Lat, ia.Lng, ia.Accuracy = a.LatLong.Latitude, a.LatLong.Longitude, a.LatLong.Accuracy
		}
		id.Addresses = append(id.Addresses, ia)
	}

	for _, p := range o.AlternatePhones {
		number := p.PhoneNumber
		if number == "" {
			number = p.PhoneNumberSnake
		}
		lt := p.LineType
		if lt == "" {
			lt = p.LineTypeSnake
		}
		id.AlternatePhones = append(id.AlternatePhones, providers.AlternatePhone{Number: number, LineType: strings.ToLower(lt)})
	}

	for _, each := range r.Owners {
		id.Owners = append(id.Owners, providers.OwnerSummary{
			Name:         each.Name,
			Type:         each.Type,
			AgeRange:     each.AgeRange,
			EmailCount:   len(each.Emails),
			AddressCount: len(each.CurrentAddresses),
		})
	}
	return id
}
