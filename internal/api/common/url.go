package common

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
)

// GetAndValidateURLParam extracts, decodes, and validates a URL parameter from the request.
// Surrounding whitespace is trimmed. Inner spaces are allowed since scientific
// names contain them; empty values and control characters are rejected.
func GetAndValidateURLParam(r *http.Request, paramName string) (string, error) {
	encodedValue := chi.URLParam(r, paramName)

	decoded, err := url.PathUnescape(encodedValue)
	if err != nil {
		return "", fmt.Errorf("invalid URL encoding in %s", paramName)
	}

	decoded = strings.TrimSpace(decoded)
	if decoded == "" {
		return "", fmt.Errorf("%s cannot be empty", paramName)
	}

	if strings.ContainsFunc(decoded, unicode.IsControl) {
		return "", fmt.Errorf("%s cannot contain control characters", paramName)
	}

	return decoded, nil
}
