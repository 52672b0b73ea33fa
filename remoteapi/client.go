// Package remoteapi talks to the JSON-RPC Camera Remote API that Sony
// bodies expose next to PTP/IP.
package remoteapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hanwen/go-sonyptp/log"
)

const apiVersion = "1.0"

// Services of the Remote API. Each is served at <endpoint>/<service>.
const (
	ServiceCamera    = "camera"
	ServiceAVContent = "avContent"
	ServiceSystem    = "system"
)

type Client struct {
	HTTP *resty.Client
	log  *log.ChildLogger
}

type request struct {
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
	Version string        `json:"version"`
}

type response struct {
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Results json.RawMessage `json:"results"`
	Error   []interface{}   `json:"error"`
}

// New returns a client for the API rooted at endpoint, eg.
// http://192.168.122.1:8080/sony.
func New(endpoint string, timeout time.Duration, lg *log.ChildLogger) *Client {
	r := resty.New()
	r.SetBaseURL(endpoint)
	r.SetHeader("Content-Type", "application/json")
	r.SetHeader("Accept", "application/json")
	if timeout > 0 {
		r.SetTimeout(timeout)
	}
	return &Client{HTTP: r, log: lg}
}

// Call invokes method on service and returns the result member. With
// no result member the results member is returned instead.
func (c *Client) Call(service, method string, params ...interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}
	body := request{Method: method, Params: params, ID: 1, Version: apiVersion}

	var out response
	resp, err := c.HTTP.R().
		SetBody(body).
		SetResult(&out).
		Post("/" + service)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if c.log != nil {
		c.log.Debugf("%s/%s: %d %s", service, method, resp.StatusCode(), resp.String())
	}
	if resp.IsError() {
		return nil, &HTTPError{Method: method, StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	if err := decodeError(method, out.Error); err != nil {
		return nil, err
	}
	if out.Result != nil {
		return out.Result, nil
	}
	return out.Results, nil
}

// firstStrings decodes a [[string, ...]] result.
func firstStrings(method string, raw json.RawMessage) ([]string, error) {
	var l [][]string
	if err := json.Unmarshal(raw, &l); err != nil || len(l) == 0 {
		return nil, fmt.Errorf("%s: invalid response %s", method, raw)
	}
	return l[0], nil
}

func (c *Client) GetVersions() ([]string, error) {
	raw, err := c.Call(ServiceCamera, "getVersions")
	if err != nil {
		return nil, err
	}
	return firstStrings("getVersions", raw)
}

func (c *Client) GetAvailableAPIList() ([]string, error) {
	raw, err := c.Call(ServiceCamera, "getAvailableApiList")
	if err != nil {
		return nil, err
	}
	return firstStrings("getAvailableApiList", raw)
}

// GetMethodTypes lists [name, params, results, version] tuples for the
// methods of a version. An empty version lists all of them.
func (c *Client) GetMethodTypes(version string) ([][]interface{}, error) {
	raw, err := c.Call(ServiceCamera, "getMethodTypes", version)
	if err != nil {
		return nil, err
	}
	var l [][]interface{}
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("getMethodTypes: invalid response %s", raw)
	}
	return l, nil
}

func (c *Client) StartRecordMode() error {
	_, err := c.Call(ServiceCamera, "startRecMode")
	return err
}

func (c *Client) StopRecordMode() error {
	_, err := c.Call(ServiceCamera, "stopRecMode")
	return err
}

// LegacyRecordModePolicy accepts the failures older bodies return from
// startRecMode, which they do not implement because they are always in
// record mode.
type LegacyRecordModePolicy struct{}

// Accept reports whether err still leaves the camera in record mode.
func (LegacyRecordModePolicy) Accept(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, &Error{Kind: KindNoSuchMethod}) {
		return true
	}
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusNotFound
}

// EnterRecordMode switches the camera to record mode. Failures the
// policy accepts are logged and dropped.
func (c *Client) EnterRecordMode(policy LegacyRecordModePolicy) error {
	err := c.StartRecordMode()
	if err != nil && policy.Accept(err) {
		if c.log != nil {
			c.log.Debugf("startRecMode: %v, assuming record mode", err)
		}
		return nil
	}
	return err
}
