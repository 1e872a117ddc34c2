package rmi

import (
	"bytes"

	"github.com/tinylib/msgp/msgp"
)

// request is the wire envelope a Proxy sends: the bound method name plus
// the operation's parameter map, already flattened to JSON by the caller
// (spec §4.6 "request = methodName + msgp-encoded argument array" — here
// the single argument is the operation's param blob, since Operation
// itself has no generated msgp methods to call against arbitrary
// concrete types).
type request struct {
	Method    string
	ParamsRaw []byte
}

// response carries back the operation's error code and merged params,
// plus an error message when the remote Execute or the server's own
// request handling failed.
type response struct {
	ErrCode   int
	ParamsRaw []byte
	ErrMsg    string
}

func encodeRequest(r request) ([]byte, error) {
	var buf bytes.Buffer
	w := msgp.NewWriter(&buf)
	if err := w.WriteMapHeader(2); err != nil {
		return nil, err
	}
	if err := w.WriteString("method"); err != nil {
		return nil, err
	}
	if err := w.WriteString(r.Method); err != nil {
		return nil, err
	}
	if err := w.WriteString("params"); err != nil {
		return nil, err
	}
	if err := w.WriteBytes(r.ParamsRaw); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRequest(blob []byte) (request, error) {
	r := msgp.NewReader(bytes.NewReader(blob))
	var out request
	n, err := r.ReadMapHeader()
	if err != nil {
		return out, err
	}
	for i := uint32(0); i < n; i++ {
		key, err := r.ReadString()
		if err != nil {
			return out, err
		}
		switch key {
		case "method":
			if out.Method, err = r.ReadString(); err != nil {
				return out, err
			}
		case "params":
			if out.ParamsRaw, err = r.ReadBytes(nil); err != nil {
				return out, err
			}
		default:
			if err := r.Skip(); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

func encodeResponse(resp response) ([]byte, error) {
	var buf bytes.Buffer
	w := msgp.NewWriter(&buf)
	if err := w.WriteMapHeader(3); err != nil {
		return nil, err
	}
	if err := w.WriteString("code"); err != nil {
		return nil, err
	}
	if err := w.WriteInt(resp.ErrCode); err != nil {
		return nil, err
	}
	if err := w.WriteString("params"); err != nil {
		return nil, err
	}
	if err := w.WriteBytes(resp.ParamsRaw); err != nil {
		return nil, err
	}
	if err := w.WriteString("err"); err != nil {
		return nil, err
	}
	if err := w.WriteString(resp.ErrMsg); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeResponse(blob []byte) (response, error) {
	r := msgp.NewReader(bytes.NewReader(blob))
	var out response
	n, err := r.ReadMapHeader()
	if err != nil {
		return out, err
	}
	for i := uint32(0); i < n; i++ {
		key, err := r.ReadString()
		if err != nil {
			return out, err
		}
		switch key {
		case "code":
			if out.ErrCode, err = r.ReadInt(); err != nil {
				return out, err
			}
		case "params":
			if out.ParamsRaw, err = r.ReadBytes(nil); err != nil {
				return out, err
			}
		case "err":
			if out.ErrMsg, err = r.ReadString(); err != nil {
				return out, err
			}
		default:
			if err := r.Skip(); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}
