package llm

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Rrens/alap/internal/domain"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
)

// Classify maps a streaming failure onto the closed set of failure kinds.
// Anything that is not recognisably a quota/rate problem is a transport
// failure.
func Classify(err error) domain.FailureKind {
	if err == nil {
		return domain.FailureNone
	}

	var se *domain.StreamError
	if errors.As(err, &se) && se.Kind != domain.FailureNone {
		return se.Kind
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return domain.FailureQuota
	}

	var aerr *apierror.APIError
	if errors.As(err, &aerr) && aerr.HTTPCode() == http.StatusTooManyRequests {
		return domain.FailureQuota
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"),
		strings.Contains(msg, "429"),
		strings.Contains(msg, "resource_exhausted"):
		return domain.FailureQuota
	}

	return domain.FailureTransport
}

// Wrap attaches the classified kind to err
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var se *domain.StreamError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StreamError{Kind: Classify(err), Err: err}
}
