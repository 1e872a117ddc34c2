package rmi

import (
	"context"
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/messif/metrickernel/algorithm"
	"github.com/messif/metrickernel/operation"
)

// OperationFactory builds a fresh, zero-valued operation for a method
// name; Server fills in its params from the decoded request before
// handing it to the bound algorithm.
type OperationFactory func() operation.Operation

// Server answers rmi.Proxy requests by dispatching into a local
// algorithm.Algorithm, the server half of the façade described in spec
// §4.6.
type Server struct {
	algo      *algorithm.Algorithm
	factories map[string]OperationFactory
}

func NewServer(algo *algorithm.Algorithm) *Server {
	return &Server{algo: algo, factories: make(map[string]OperationFactory)}
}

// RegisterOperation binds a method name a Proxy can name in its request
// to the constructor for that operation's concrete type.
func (s *Server) RegisterOperation(method string, factory OperationFactory) {
	s.factories[method] = factory
}

// Handler returns the fasthttp handler cmd/messifd mounts at /rmi.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		req, err := decodeRequest(ctx.PostBody())
		if err != nil {
			s.writeError(ctx, err)
			return
		}

		factory, ok := s.factories[req.Method]
		if !ok {
			s.writeError(ctx, fmt.Errorf("rmi: no such method %q", req.Method))
			return
		}
		op := factory()

		var params map[string]any
		if len(req.ParamsRaw) > 0 {
			if err := json.Unmarshal(req.ParamsRaw, &params); err != nil {
				s.writeError(ctx, err)
				return
			}
		}
		if setter, ok2 := any(op).(paramSetter); ok2 {
			for k, v := range params {
				setter.SetParam(k, v)
			}
		}

		execErr := s.algo.Execute(context.Background(), op)
		outParams, err := json.Marshal(op.Params())
		if err != nil {
			s.writeError(ctx, err)
			return
		}

		resp := response{ErrCode: int(op.ErrorCode()), ParamsRaw: outParams}
		if execErr != nil {
			resp.ErrMsg = execErr.Error()
		}
		body, err := encodeResponse(resp)
		if err != nil {
			s.writeError(ctx, err)
			return
		}
		ctx.SetContentType("application/msgpack")
		ctx.SetBody(body)
	}
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, err error) {
	body, encErr := encodeResponse(response{ErrCode: int(operation.Failed), ErrMsg: err.Error()})
	if encErr != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/msgpack")
	ctx.SetBody(body)
}
