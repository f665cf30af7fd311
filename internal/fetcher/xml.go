package fetcher

import (
	"context"
	"encoding/xml"
	"io"

	"github.com/rotisserie/eris"
)

// ErrStopWalk may be returned from a WalkXML callback to end the walk early
// without reporting an error.
var ErrStopWalk = eris.New("fetcher: stop walk")

// WalkXML decodes every element named local from r into a T and hands it to
// fn, in document order. Elements nested inside a match are consumed with it.
// Non-UTF-8 documents are decoded using their declared encoding.
func WalkXML[T any](ctx context.Context, r io.Reader, local string, fn func(T) error) error {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	for {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "fetcher: xml walk cancelled")
		}
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "fetcher: xml token")
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != local {
			continue
		}

		var v T
		if err := dec.DecodeElement(&v, &start); err != nil {
			return eris.Wrapf(err, "fetcher: xml decode <%s>", local)
		}
		if err := fn(v); err != nil {
			if eris.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}
	}
}

// DecodeXML returns every element named local in r.
func DecodeXML[T any](ctx context.Context, r io.Reader, local string) ([]T, error) {
	var out []T
	err := WalkXML(ctx, r, local, func(v T) error {
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
