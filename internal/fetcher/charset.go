package fetcher

import (
	"io"
	"mime"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// lookupCharset returns the decoder for a declared charset label. A nil
// decoder with a nil error means the content is already UTF-8.
func lookupCharset(label string) (*encoding.Decoder, error) {
	cs := strings.ToLower(strings.TrimSpace(label))
	if cs == "" || cs == "utf-8" || cs == "utf8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(cs)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: unsupported charset %q", cs)
	}
	return enc.NewDecoder(), nil
}

// charsetReader adapts lookupCharset to xml.Decoder.CharsetReader.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	dec, err := lookupCharset(label)
	if err != nil {
		return nil, err
	}
	if dec == nil {
		return input, nil
	}
	return dec.Reader(input), nil
}

// decodeBody converts body to UTF-8 using the charset declared in
// contentType. Bodies without a declared charset, or declared as UTF-8, are
// returned unchanged.
func decodeBody(body []byte, contentType string) ([]byte, error) {
	if contentType == "" {
		return body, nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body, nil
	}
	dec, err := lookupCharset(params["charset"])
	if err != nil || dec == nil {
		return body, err
	}
	out, err := dec.Bytes(body)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: decode %s body", params["charset"])
	}
	return out, nil
}
