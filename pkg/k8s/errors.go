package k8s

import (
	"context"
	"errors"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/helm-commander/helmcommander/pkg/herrors"
)

// Classify maps a client-go/API-machinery error to a taxonomy Kind. Errors
// that don't match a known API status fall back to ClusterUnreachable,
// since at the access layer an unrecognized failure almost always means the
// endpoint could not be reached or did not respond as expected.
func Classify(err error) herrors.Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return herrors.Timeout
	case apierrors.IsNotFound(err):
		return herrors.NotFound
	case apierrors.IsForbidden(err), apierrors.IsUnauthorized(err):
		return herrors.AccessDenied
	case apierrors.IsTimeout(err), apierrors.IsServerTimeout(err):
		return herrors.Timeout
	default:
		return herrors.ClusterUnreachable
	}
}
