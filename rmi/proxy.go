// Package rmi implements the dispatch layer's remote façade (spec §4.6):
// a Proxy drives a remote Algorithm exactly as algorithm.Algorithm drives
// a local one, over a pooled fasthttp connection with msgp-encoded
// envelopes and bounded retries. Background execution is deliberately
// unsupported — a client cannot usefully hold a cancel func across a
// process boundary without its own session/lease protocol, which is out
// of scope.
package rmi

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"

	"github.com/messif/metrickernel/mcmn"
	"github.com/messif/metrickernel/mconfig"
	"github.com/messif/metrickernel/operation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// paramSetter is satisfied by operation.Base's promoted SetParam method;
// Operation itself declares only the bulk Params() getter.
type paramSetter interface {
	SetParam(string, any)
}

// Proxy drives operations against a remote algorithm reachable at addr.
// One Proxy owns one pooled fasthttp.Client and should be shared across
// goroutines calling the same remote algorithm.
type Proxy struct {
	addr   string
	client *fasthttp.Client
}

// NewProxy builds a proxy bound to addr (host:port, no scheme — fasthttp
// dials it directly). The client pools connections per the teacher's own
// preference for a single long-lived client over a new one per call.
func NewProxy(addr string) *Proxy {
	return &Proxy{
		addr: addr,
		client: &fasthttp.Client{
			MaxConnsPerHost:     64,
			MaxIdleConnDuration: mconfig.GCO.Get().RMI.DialTO,
		},
	}
}

// Execute drives op's named method on the remote algorithm, retrying
// transport failures up to mconfig.GCO.Get().RMI.MaxRetries (spec §4.6).
// When the response carries no error message it merges the server's
// returned params onto op and sets op's error code to the returned code.
// The server sends an error message whenever the remote Execute failed (a
// remote NotSupported included); Execute then returns that message wrapped
// as an ErrIOFailure and leaves op's params and error code untouched.
func (p *Proxy) Execute(methodName string, op operation.Operation) error {
	paramsRaw, err := json.Marshal(op.Params())
	if err != nil {
		return mcmn.Wrap(err, "rmi: marshal params")
	}
	body, err := encodeRequest(request{Method: methodName, ParamsRaw: paramsRaw})
	if err != nil {
		return mcmn.Wrap(err, "rmi: encode request")
	}

	maxRetries := mconfig.GCO.Get().RMI.MaxRetries
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := p.roundTrip(body)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.ErrMsg != "" {
			return mcmn.NewErrIOFailure(errors.New(resp.ErrMsg))
		}
		var params map[string]any
		if len(resp.ParamsRaw) > 0 {
			if err := json.Unmarshal(resp.ParamsRaw, &params); err != nil {
				return mcmn.Wrap(err, "rmi: unmarshal response params")
			}
		}
		if setter, ok := any(op).(paramSetter); ok {
			for k, v := range params {
				setter.SetParam(k, v)
			}
		}
		op.EndOperation(operation.ErrCode(resp.ErrCode))
		return nil
	}
	return mcmn.Wrap(lastErr, "rmi: exhausted retries")
}

func (p *Proxy) roundTrip(body []byte) (response, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://" + p.addr + "/rmi")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/msgpack")
	req.SetBody(body)

	if err := p.client.Do(req, resp); err != nil {
		return response{}, mcmn.Wrap(err, "rmi: round trip")
	}
	return decodeResponse(resp.Body())
}

// BackgroundExecute is unsupported over RMI (spec §4.6).
func (p *Proxy) BackgroundExecute(operation.Operation) error {
	return mcmn.NewErrNotSupported("rmi.Proxy", "BackgroundExecute")
}
