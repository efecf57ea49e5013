// Package objstore defines the object storage contract box score CSVs are written through
package objstore

import (
	"context"
	"errors"
	"fmt"

	perr "nhldata/internal/platform/errors"
)

// Kind classifies a storage failure so callers can decide on retries
type Kind uint8

// Failure kinds
const (
	Unknown Kind = iota
	AuthFailure
	BucketNotFound
	Transient
	Conflict
)

func (k Kind) String() string {
	switch k {
	case AuthFailure:
		return "auth_failure"
	case BucketNotFound:
		return "bucket_not_found"
	case Transient:
		return "transient"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is returned by every Store implementation
type Error struct {
	Kind Kind
	Key  string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("objstore %s %s: %s", e.Op, e.Key, e.Kind)
	}
	return fmt.Sprintf("objstore %s %s: %s: %v", e.Op, e.Key, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrCode lets perr.CodeOf classify storage failures
func (e *Error) ErrCode() perr.ErrorCode { return perr.ErrorCodeStorage }

// KindOf returns the Kind of the first *Error in the chain, Unknown otherwise
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsTransient reports whether a retry may succeed
func IsTransient(err error) bool { return KindOf(err) == Transient }

// PutOptions tunes a single write
type PutOptions struct {
	// IfAbsent fails with Conflict when the key already exists
	IfAbsent bool

	// ContentType defaults to text/csv
	ContentType string
}

// DefaultContentType is used when PutOptions.ContentType is empty
const DefaultContentType = "text/csv; charset=utf-8"

// ContentTypeOr returns o.ContentType or the default
func (o PutOptions) ContentTypeOr() string {
	if o.ContentType == "" {
		return DefaultContentType
	}
	return o.ContentType
}

// Store writes whole objects; implementations never retry internally
type Store interface {
	Put(ctx context.Context, key string, body []byte, o PutOptions) error
}

// Prober is implemented by stores that can check reachability before a run
type Prober interface {
	Probe(ctx context.Context) error
}
