package echo

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	oautherr "github.com/caseflowhq/caseflow/errors"
)

const maxMultipartMemory = 1 << 20

// parseTokenRequest normalizes a token endpoint body, JSON, form-urlencoded
// or multipart, into a flat string map. Malformed bodies are a distinct,
// explicit invalid_request; no error path relies on panics or partial reads.
func parseTokenRequest(c echo.Context) (map[string]string, *oautherr.OAuth2Error) {
	req := c.Request()
	contentType := req.Header.Get(echo.HeaderContentType)
	params := make(map[string]string)

	switch {
	case strings.HasPrefix(contentType, echo.MIMEApplicationJSON):
		var raw map[string]any
		if err := json.NewDecoder(req.Body).Decode(&raw); err != nil {
			return nil, oautherr.NewInvalidRequest("request body is not valid JSON")
		}
		for key, value := range raw {
			switch v := value.(type) {
			case string:
				params[key] = v
			case float64:
				params[key] = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				params[key] = strconv.FormatBool(v)
			}
		}

	case strings.HasPrefix(contentType, echo.MIMEMultipartForm):
		if err := req.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, oautherr.NewInvalidRequest("request body is not a valid multipart form")
		}
		for key, values := range req.MultipartForm.Value {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}

	default:
		if err := req.ParseForm(); err != nil {
			return nil, oautherr.NewInvalidRequest("request body is not a valid form")
		}
		for key, values := range req.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}
	}

	return params, nil
}
