package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

const maxMultipartMemory = 1 << 20

// readForm collects body fields from urlencoded, multipart or JSON requests
// into url.Values. JSON numbers and booleans are rendered as text so they go
// through the same coercion as form input.
func readForm(r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		return readJSONForm(r)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, errors.Wrap(err, "parse multipart body")
		}
		return r.PostForm, nil
	default:
		if err := r.ParseForm(); err != nil {
			return nil, errors.Wrap(err, "parse form body")
		}
		return r.PostForm, nil
	}
}

func readJSONForm(r *http.Request) (url.Values, error) {
	values := url.Values{}
	if r.Body == nil || r.Body == http.NoBody {
		return values, nil
	}

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return values, nil
		}
		return nil, errors.Wrap(err, "parse json body")
	}
	for key, raw := range body {
		switch v := raw.(type) {
		case string:
			values.Set(key, v)
		case float64:
			values.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
		case bool:
			values.Set(key, strconv.FormatBool(v))
		}
	}
	return values, nil
}
