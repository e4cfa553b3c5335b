package rpc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fetchd/internal/services"
	"fetchd/internal/variant"
)

const xmlHeader = `<?xml version="1.0"?>`

// XML renders r as an XML-RPC methodResponse.
func (r Response) XML() []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString("<methodResponse>")
	if r.IsFault() {
		buf.WriteString("<fault>")
		writeXMLValue(&buf, r.Value)
		buf.WriteString("</fault>")
	} else {
		buf.WriteString("<params><param>")
		writeXMLValue(&buf, r.Value)
		buf.WriteString("</param></params>")
	}
	buf.WriteString("</methodResponse>")
	return buf.Bytes()
}

func writeXMLValue(buf *bytes.Buffer, v variant.Value) {
	buf.WriteString("<value>")
	switch v.Kind() {
	case variant.KindInt:
		n, _ := v.AsInt()
		buf.WriteString("<int>")
		buf.WriteString(strconv.FormatInt(n, 10))
		buf.WriteString("</int>")
	case variant.KindText:
		s, _ := v.AsText()
		buf.WriteString("<string>")
		_ = xml.EscapeText(buf, []byte(s))
		buf.WriteString("</string>")
	case variant.KindList:
		items, _ := v.AsList()
		buf.WriteString("<array><data>")
		for _, item := range items {
			writeXMLValue(buf, item)
		}
		buf.WriteString("</data></array>")
	case variant.KindMap:
		members, _ := v.AsMap()
		buf.WriteString("<struct>")
		for _, key := range v.Keys() {
			buf.WriteString("<member><name>")
			_ = xml.EscapeText(buf, []byte(key))
			buf.WriteString("</name>")
			writeXMLValue(buf, members[key])
			buf.WriteString("</member>")
		}
		buf.WriteString("</struct>")
	default:
		buf.WriteString("<nil/>")
	}
	buf.WriteString("</value>")
}

// ParseXMLRequest decodes an XML-RPC methodCall. base64 and dateTime values
// arrive as Text; booleans as Int 0 or 1.
func ParseXMLRequest(r io.Reader) (*Request, error) {
	req, err := parseXMLRequest(r)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "rpc", "xml request", "malformed methodCall", err)
	}
	return req, nil
}

func parseXMLRequest(r io.Reader) (*Request, error) {
	dec := xml.NewDecoder(r)
	root, err := nextStart(dec)
	if err != nil {
		return nil, err
	}
	if root.Name.Local != "methodCall" {
		return nil, fmt.Errorf("unexpected root element %q", root.Name.Local)
	}
	req := &Request{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "methodName":
				name, err := readXMLText(dec)
				if err != nil {
					return nil, err
				}
				req.Method = strings.TrimSpace(name)
			case "params":
				params, err := readXMLParams(dec)
				if err != nil {
					return nil, err
				}
				req.Params = params
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if req.Method == "" {
				return nil, errors.New("missing methodName")
			}
			return req, nil
		}
	}
}

func nextStart(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}

// readXMLText collects character data up to the end of the current element.
func readXMLText(dec *xml.Decoder) (string, error) {
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			return "", fmt.Errorf("unexpected element %q in text", t.Name.Local)
		case xml.EndElement:
			return b.String(), nil
		}
	}
}

func readXMLParams(dec *xml.Decoder) ([]variant.Value, error) {
	params := []variant.Value{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "param" {
				return nil, fmt.Errorf("unexpected element %q in params", t.Name.Local)
			}
			v, err := readXMLWrapped(dec, "param")
			if err != nil {
				return nil, err
			}
			params = append(params, v)
		case xml.EndElement:
			return params, nil
		}
	}
}

// readXMLWrapped reads the single <value> inside a param or member-less
// wrapper element and consumes the wrapper's end tag.
func readXMLWrapped(dec *xml.Decoder, wrapper string) (variant.Value, error) {
	v := variant.Null()
	seen := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return variant.Null(), err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "value" || seen {
				return variant.Null(), fmt.Errorf("unexpected element %q in %s", t.Name.Local, wrapper)
			}
			if v, err = readXMLValue(dec); err != nil {
				return variant.Null(), err
			}
			seen = true
		case xml.EndElement:
			if !seen {
				return variant.Null(), fmt.Errorf("empty %s", wrapper)
			}
			return v, nil
		}
	}
}

// readXMLValue decodes the body of a <value> element. Untyped content is a
// string.
func readXMLValue(dec *xml.Decoder) (variant.Value, error) {
	var text strings.Builder
	var out variant.Value
	typed := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return variant.Null(), err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			if typed {
				return variant.Null(), fmt.Errorf("value holds more than one element")
			}
			if out, err = readXMLTyped(dec, t); err != nil {
				return variant.Null(), err
			}
			typed = true
		case xml.EndElement:
			if typed {
				return out, nil
			}
			return variant.Text(text.String()), nil
		}
	}
}

func readXMLTyped(dec *xml.Decoder, start xml.StartElement) (variant.Value, error) {
	switch start.Name.Local {
	case "string", "dateTime.iso8601":
		s, err := readXMLText(dec)
		return variant.Text(s), err
	case "base64":
		s, err := readXMLText(dec)
		return variant.Text(strings.TrimSpace(s)), err
	case "int", "i4", "i8":
		s, err := readXMLText(dec)
		if err != nil {
			return variant.Null(), err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return variant.Null(), fmt.Errorf("bad %s %q", start.Name.Local, s)
		}
		return variant.Int(n), nil
	case "boolean":
		s, err := readXMLText(dec)
		if err != nil {
			return variant.Null(), err
		}
		switch strings.TrimSpace(s) {
		case "0":
			return variant.Int(0), nil
		case "1":
			return variant.Int(1), nil
		}
		return variant.Null(), fmt.Errorf("bad boolean %q", s)
	case "double":
		s, err := readXMLText(dec)
		return variant.Text(strings.TrimSpace(s)), err
	case "nil":
		return variant.Null(), dec.Skip()
	case "array":
		return readXMLArray(dec)
	case "struct":
		return readXMLStruct(dec)
	default:
		return variant.Null(), fmt.Errorf("unsupported value type %q", start.Name.Local)
	}
}

func readXMLArray(dec *xml.Decoder) (variant.Value, error) {
	out := variant.List()
	for {
		tok, err := dec.Token()
		if err != nil {
			return variant.Null(), err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "data":
			case "value":
				item, err := readXMLValue(dec)
				if err != nil {
					return variant.Null(), err
				}
				_ = out.Append(item)
			default:
				return variant.Null(), fmt.Errorf("unexpected element %q in array", t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Local == "array" {
				return out, nil
			}
		}
	}
}

func readXMLStruct(dec *xml.Decoder) (variant.Value, error) {
	out := variant.Map()
	for {
		tok, err := dec.Token()
		if err != nil {
			return variant.Null(), err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "member" {
				return variant.Null(), fmt.Errorf("unexpected element %q in struct", t.Name.Local)
			}
			name, value, err := readXMLMember(dec)
			if err != nil {
				return variant.Null(), err
			}
			out.MustSet(name, value)
		case xml.EndElement:
			return out, nil
		}
	}
}

func readXMLMember(dec *xml.Decoder) (string, variant.Value, error) {
	var name string
	value := variant.Null()
	haveName, haveValue := false, false
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", variant.Null(), err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				if name, err = readXMLText(dec); err != nil {
					return "", variant.Null(), err
				}
				haveName = true
			case "value":
				if value, err = readXMLValue(dec); err != nil {
					return "", variant.Null(), err
				}
				haveValue = true
			default:
				return "", variant.Null(), fmt.Errorf("unexpected element %q in member", t.Name.Local)
			}
		case xml.EndElement:
			if !haveName || !haveValue {
				return "", variant.Null(), errors.New("incomplete struct member")
			}
			return name, value, nil
		}
	}
}
