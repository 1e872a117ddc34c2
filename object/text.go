package object

import (
	"bufio"
	"io"
	"strings"

	"github.com/messif/metrickernel/filter"
	"github.com/messif/metrickernel/mcmn"
	"github.com/messif/metrickernel/objid"
)

// DecodeText reads one object off r in the kernel's text wire format
// (spec §6): zero or more "#objectKey"/"#filter" comment lines followed
// by exactly one data line. It is the single decoder every text-stream
// consumer shares — seqscan's Source reading a local file and
// RemoteObject.Resolve reading a store-fetched byte slice alike — so the
// wire format has exactly one implementation to keep in sync with
// WriteText.
func DecodeText(r *bufio.Reader, m Metric) (LocalObject, error) {
	var key objid.Key
	var filters []filter.Filter

	for {
		line, err := ReadLine(r)
		if err == io.EOF {
			if key != nil || len(filters) > 0 {
				return nil, mcmn.ErrUnexpectedEnd
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(line, "#objectKey ") {
			fields := strings.SplitN(strings.TrimPrefix(line, "#objectKey "), " ", 2)
			text := ""
			if len(fields) > 1 {
				text = fields[1]
			}
			key, err = objid.ParseKey(fields[0], text)
			if err != nil {
				return nil, err
			}
			continue
		}
		if strings.HasPrefix(line, "#filter ") {
			fields := strings.SplitN(strings.TrimPrefix(line, "#filter "), " ", 2)
			text := ""
			if len(fields) > 1 {
				text = fields[1]
			}
			f, err := filter.ReadFilterLine(fields[0], text)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
			continue
		}
		return decodeDataLine(r, line, key, filters, m)
	}
}

func decodeDataLine(r *bufio.Reader, line string, key objid.Key, filters []filter.Filter, m Metric) (LocalObject, error) {
	var obj LocalObject
	var err error

	if strings.HasPrefix(line, "v ") {
		obj, err = ReadVectorObject(line, m)
	} else {
		obj, err = decodeMetaObject(r, line, m)
	}
	if err != nil {
		return nil, err
	}

	if key != nil {
		obj.SetKey(key)
	}
	for _, f := range filters {
		if _, err := obj.Filters().Attach(f, true); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func decodeMetaObject(r *bufio.Reader, headerLine string, m Metric) (LocalObject, error) {
	locator, names, classTags, err := ParseMetaHeader(headerLine)
	if err != nil {
		return nil, err
	}
	subs := make(map[string]LocalObject, len(names))
	for i, name := range names {
		sub, err := DecodeText(r, m)
		if err != nil {
			return nil, err
		}
		if classTags[i] != sub.ClassTag() {
			return nil, mcmn.NewErrInvalidArgument("object: sub-object %q expected class %q, got %q", name, classTags[i], sub.ClassTag())
		}
		subs[name] = sub
	}
	meta := NewMetaObject(subs, names, SumAggregator)
	if locator != "" {
		meta.SetKey(objid.NewBasicKey(locator))
	}
	return meta, nil
}
