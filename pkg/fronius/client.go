package fronius

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raterudder/froniuscollector/pkg/common"
)

// SupportedAPIVersion is the only Solar API revision this client speaks.
const SupportedAPIVersion = 1

// DefaultTimeout is used for the HTTP client when WithHTTPClient is not
// passed to Connect.
const DefaultTimeout = 10 * time.Second

const apiVersionPath = "/solar_api/GetAPIVersion.cgi"

// Endpoints relative to the base URL returned by GetAPIVersion.
const (
	EndpointInverterRealtimeData  = "GetInverterRealtimeData.cgi"
	EndpointInverterInfo          = "GetInverterInfo.cgi"
	EndpointActiveDeviceInfo      = "GetActiveDeviceInfo.cgi"
	EndpointMeterRealtimeData     = "GetMeterRealtimeData.cgi"
	EndpointStorageRealtimeData   = "GetStorageRealtimeData.cgi"
	EndpointOhmPilotRealtimeData  = "GetOhmPilotRealtimeData.cgi"
	EndpointPowerFlowRealtimeData = "GetPowerFlowRealtimeData.fcgi"
)

// Param is a single query parameter. Params are sent in the order given.
type Param struct {
	Key   string
	Value string
}

// SystemScope targets every device of a kind.
func SystemScope() []Param {
	return []Param{{Key: "Scope", Value: "System"}}
}

// DeviceScope targets a single device.
func DeviceScope(id DeviceID) []Param {
	return []Param{
		{Key: "Scope", Value: "Device"},
		{Key: "DeviceId", Value: id.String()},
	}
}

func encodeParams(params []Param) string {
	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}

// Client talks to one Fronius datamanager. It is immutable once Connect
// returns and can be used from multiple goroutines.
type Client struct {
	client             *http.Client
	baseURL            *url.URL
	apiVersion         int
	compatibilityRange string
}

// Option configures Connect.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. The client should carry a
// timeout since the datamanager is known to stall.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

type apiVersionResponse struct {
	APIVersion         *int    `json:"APIVersion"`
	BaseURL            *string `json:"BaseURL"`
	CompatibilityRange string  `json:"CompatibilityRange"`
}

// Connect asks host for its Solar API version and returns a client bound to
// the versioned base URL. host is either a bare host or IP, in which case
// http is assumed, or a URL with a scheme and optional port.
func Connect(ctx context.Context, host string, opts ...Option) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = common.HTTPClient(DefaultTimeout)
	}

	hostURL, err := parseHost(host)
	if err != nil {
		return nil, &InvalidEndpointError{Endpoint: host, Err: err}
	}
	versionURL := hostURL.ResolveReference(&url.URL{Path: apiVersionPath})

	body, status, err := c.get(ctx, versionURL)
	if err != nil {
		return nil, err
	}

	var v apiVersionResponse
	if err := json.Unmarshal(body, &v); err != nil {
		if status != http.StatusOK {
			return nil, &RequestError{URL: versionURL.String(), Err: fmt.Errorf("unexpected status %d", status)}
		}
		return nil, &DecodeError{URL: versionURL.String(), Err: err}
	}
	if v.APIVersion == nil {
		return nil, &DecodeError{URL: versionURL.String(), Err: &MissingFieldError{Field: "APIVersion"}}
	}
	if *v.APIVersion != SupportedAPIVersion {
		return nil, &UnsupportedAPIVersionError{Version: *v.APIVersion}
	}
	if v.BaseURL == nil {
		return nil, &DecodeError{URL: versionURL.String(), Err: &MissingFieldError{Field: "BaseURL"}}
	}

	base := *v.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	ref, err := url.Parse(base)
	if err != nil {
		return nil, &InvalidEndpointError{Endpoint: base, Err: err}
	}
	c.baseURL = hostURL.ResolveReference(ref)
	c.apiVersion = *v.APIVersion
	c.compatibilityRange = v.CompatibilityRange
	return c, nil
}

func parseHost(host string) (*url.URL, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, fmt.Errorf("empty host")
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", host)
	}
	return u, nil
}

// APIVersion returns the version negotiated by Connect.
func (c *Client) APIVersion() int {
	return c.apiVersion
}

// CompatibilityRange returns the firmware compatibility range the device
// reported, e.g. "1.5-18".
func (c *Client) CompatibilityRange() string {
	return c.compatibilityRange
}

// BaseURL returns a copy of the versioned base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

func (c *Client) get(ctx context.Context, u *url.URL) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, &RequestError{URL: u.String(), Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, &RequestError{URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &RequestError{URL: u.String(), Err: err}
	}
	return body, resp.StatusCode, nil
}

func (c *Client) endpointURL(endpoint string, params []Param) (*url.URL, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, &InvalidEndpointError{Endpoint: endpoint, Err: err}
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, &InvalidEndpointError{Endpoint: endpoint, Err: fmt.Errorf("endpoint must be relative")}
	}
	if ref.RawQuery != "" || ref.Fragment != "" {
		return nil, &InvalidEndpointError{Endpoint: endpoint, Err: fmt.Errorf("endpoint must not carry a query")}
	}
	u := c.baseURL.ResolveReference(ref)
	u.RawQuery = encodeParams(params)
	return u, nil
}

// Request fetches endpoint with params and decodes the Body of the response
// into dest. A status other than Okay is returned as a *ResponseError even
// if the body would have decoded.
func (c *Client) Request(ctx context.Context, endpoint string, params []Param, dest any) error {
	u, err := c.endpointURL(endpoint, params)
	if err != nil {
		return err
	}

	body, status, err := c.get(ctx, u)
	if err != nil {
		return err
	}

	var env envelope
	err = json.Unmarshal(body, &env)
	if err == nil {
		err = env.validate()
	}
	if err != nil {
		if status != http.StatusOK {
			return &RequestError{URL: u.String(), Err: fmt.Errorf("unexpected status %d", status)}
		}
		return &DecodeError{URL: u.String(), Err: err}
	}

	if env.Head.Status.Code != StatusOkay {
		return &ResponseError{Status: *env.Head.Status}
	}
	if status != http.StatusOK {
		return &RequestError{URL: u.String(), Err: fmt.Errorf("unexpected status %d", status)}
	}

	if dest == nil {
		return nil
	}
	if isNull(env.Body) {
		return &DecodeError{URL: u.String(), Err: &MissingFieldError{Field: "Body"}}
	}
	if err := json.Unmarshal(env.Body, dest); err != nil {
		return &DecodeError{URL: u.String(), Err: err}
	}
	return nil
}

// Get requests endpoint and returns Body.Data decoded as T.
func Get[T any](ctx context.Context, c *Client, endpoint string, params ...Param) (T, error) {
	var body responseBody[T]
	if err := c.Request(ctx, endpoint, params, &body); err != nil {
		var zero T
		return zero, err
	}
	return body.Data, nil
}

// InverterRealtimeData returns the collection C of a single inverter. The
// DataCollection parameter is derived from C.
func InverterRealtimeData[C InverterCollection](ctx context.Context, c *Client, id DeviceID) (C, error) {
	var collection C
	params := append(DeviceScope(id), Param{Key: "DataCollection", Value: string(collection.DataCollection())})
	return Get[C](ctx, c, EndpointInverterRealtimeData, params...)
}

func (c *Client) CumulationInverterData(ctx context.Context, id DeviceID) (CumulationInverterData, error) {
	return InverterRealtimeData[CumulationInverterData](ctx, c, id)
}

func (c *Client) CommonInverterData(ctx context.Context, id DeviceID) (CommonInverterData, error) {
	return InverterRealtimeData[CommonInverterData](ctx, c, id)
}

func (c *Client) ThreePhaseInverterData(ctx context.Context, id DeviceID) (ThreePhaseInverterData, error) {
	return InverterRealtimeData[ThreePhaseInverterData](ctx, c, id)
}

func (c *Client) MinMaxInverterData(ctx context.Context, id DeviceID) (MinMaxInverterData, error) {
	return InverterRealtimeData[MinMaxInverterData](ctx, c, id)
}

// CumulationInverterDataSystem returns the cumulated data of every inverter
// keyed by device number.
func (c *Client) CumulationInverterDataSystem(ctx context.Context) (CumulationInverterDataSystem, error) {
	return Get[CumulationInverterDataSystem](ctx, c, EndpointInverterRealtimeData, SystemScope()...)
}

func (c *Client) InverterInfo(ctx context.Context) (InverterInfo, error) {
	return Get[InverterInfo](ctx, c, EndpointInverterInfo)
}

func (c *Client) ActiveDeviceInfo(ctx context.Context) (DeviceInfo, error) {
	return Get[DeviceInfo](ctx, c, EndpointActiveDeviceInfo)
}

func (c *Client) MeterRealtimeDataSystem(ctx context.Context) (MeterDataSystem, error) {
	return Get[MeterDataSystem](ctx, c, EndpointMeterRealtimeData, SystemScope()...)
}

func (c *Client) MeterRealtimeDataDevice(ctx context.Context, id DeviceID) (MeterData, error) {
	return Get[MeterData](ctx, c, EndpointMeterRealtimeData, DeviceScope(id)...)
}

func (c *Client) StorageRealtimeDataSystem(ctx context.Context) (StorageDataSystem, error) {
	return Get[StorageDataSystem](ctx, c, EndpointStorageRealtimeData, SystemScope()...)
}

func (c *Client) StorageRealtimeDataDevice(ctx context.Context, id DeviceID) (StorageData, error) {
	return Get[StorageData](ctx, c, EndpointStorageRealtimeData, DeviceScope(id)...)
}

func (c *Client) OhmPilotRealtimeDataSystem(ctx context.Context) (OhmPilotDataSystem, error) {
	return Get[OhmPilotDataSystem](ctx, c, EndpointOhmPilotRealtimeData, SystemScope()...)
}

func (c *Client) OhmPilotRealtimeDataDevice(ctx context.Context, id DeviceID) (OhmPilotData, error) {
	return Get[OhmPilotData](ctx, c, EndpointOhmPilotRealtimeData, DeviceScope(id)...)
}

// PowerFlowRealtimeData always covers the whole site.
func (c *Client) PowerFlowRealtimeData(ctx context.Context) (PowerFlowData, error) {
	return Get[PowerFlowData](ctx, c, EndpointPowerFlowRealtimeData)
}
