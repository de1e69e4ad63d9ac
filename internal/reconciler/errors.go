package reconciler

import (
	"errors"

	"gitlab.bluewillows.net/root/siloddns/providers/namesilo"
)

// ErrorKind classifies the failures surfaced in reconciliation logs.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransport
	KindAPI
	KindUnsupportedOperation
	KindClassification
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAPI:
		return "api"
	case KindUnsupportedOperation:
		return "unsupported_operation"
	case KindClassification:
		return "classification"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of err. Wrapped errors are unwrapped.
func KindOf(err error) ErrorKind {
	var classifyErr *ClassificationError

	switch {
	case err == nil:
		return KindUnknown
	case namesilo.IsTransport(err):
		return KindTransport
	case namesilo.IsAPI(err):
		return KindAPI
	case namesilo.IsUnsupportedOperation(err):
		return KindUnsupportedOperation
	case errors.As(err, &classifyErr):
		return KindClassification
	default:
		return KindUnknown
	}
}
