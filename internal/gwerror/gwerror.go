// Package gwerror carries the gateway's S3 error taxonomy: the code
// set this gateway can return, their HTTP status mapping, and the
// Error XML body shape.
//
// The split between a Code (stable, enumerable) and an Error (a
// concrete instance with a message and optional resource) mirrors
// gofakes3's own ErrorResponse / ErrorCode split, generalized to the
// code set this gateway actually needs instead of the full S3 surface
// gofakes3 implements.
package gwerror

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Code is one of the S3 error codes this gateway can return.
type Code string

const (
	AccessDenied            Code = "AccessDenied"
	BucketAlreadyExists     Code = "BucketAlreadyExists"
	BucketAlreadyOwnedByYou Code = "BucketAlreadyOwnedByYou"
	BucketNotEmpty          Code = "BucketNotEmpty"
	EntityTooLarge          Code = "EntityTooLarge"
	EntityTooSmall          Code = "EntityTooSmall"
	InternalError           Code = "InternalError"
	InvalidArgument         Code = "InvalidArgument"
	InvalidBucketName       Code = "InvalidBucketName"
	InvalidDigest           Code = "InvalidDigest"
	InvalidPart             Code = "InvalidPart"
	InvalidPartOrder        Code = "InvalidPartOrder"
	InvalidRange            Code = "InvalidRange"
	InvalidRequest          Code = "InvalidRequest"
	KeyTooLong              Code = "KeyTooLong"
	MalformedXML            Code = "MalformedXML"
	MethodNotAllowed        Code = "MethodNotAllowed"
	MissingContentLength    Code = "MissingContentLength"
	NoSuchBucket            Code = "NoSuchBucket"
	NoSuchKey               Code = "NoSuchKey"
	NoSuchUpload            Code = "NoSuchUpload"
	NotImplemented          Code = "NotImplemented"
	OperationAborted        Code = "OperationAborted"
	PreconditionFailed      Code = "PreconditionFailed"
	RequestTimeout          Code = "RequestTimeout"
	ServiceUnavailable      Code = "ServiceUnavailable"
	TooManyBuckets          Code = "TooManyBuckets"
)

// Status returns the HTTP status code assigned to c.
//
// TooManyBuckets reports 400 rather than the conflict-family 409 that
// would otherwise be expected: this reproduces the Rust gateway's
// observable behavior and is preserved deliberately, not a bug.
func (c Code) Status() int {
	switch c {
	case AccessDenied:
		return http.StatusForbidden
	case BucketAlreadyExists, BucketAlreadyOwnedByYou, BucketNotEmpty, OperationAborted, PreconditionFailed:
		return http.StatusConflict
	case EntityTooLarge, EntityTooSmall, InvalidArgument, InvalidBucketName, InvalidDigest,
		InvalidPart, InvalidPartOrder, InvalidRange, InvalidRequest, KeyTooLong,
		MalformedXML, MissingContentLength, TooManyBuckets:
		return http.StatusBadRequest
	case InternalError:
		return http.StatusInternalServerError
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	case NoSuchBucket, NoSuchKey, NoSuchUpload:
		return http.StatusNotFound
	case NotImplemented:
		return http.StatusNotImplemented
	case RequestTimeout:
		return http.StatusRequestTimeout
	case ServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a concrete S3 error: a Code plus a human-readable message
// and an optional resource path, exactly the fields the XML body
// needs.
type Error struct {
	Code      Code
	Message   string
	Resource  string
	RequestID string
}

func (e *Error) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (resource: %s)", e.Code, e.Message, e.Resource)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an Error carrying a fresh request id, matching the Rust
// gateway's own per-error uuid stamping (ApiError::s3 in error.rs).
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, RequestID: uuid.NewString()}
}

// WithResource attaches the S3 resource path (e.g. "bucket/key") this
// error pertains to.
func WithResource(code Code, message, resource string) *Error {
	return &Error{Code: code, Message: message, Resource: resource, RequestID: uuid.NewString()}
}

// As coerces any error into an *Error, mapping any unrecognized error
// to InternalError and never leaking its message as the S3 Message
// body.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{
		Code:      InternalError,
		Message:   "internal error",
		RequestID: uuid.NewString(),
	}
}

// xmlBody is the wire shape of an S3 Error document.
type xmlBody struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	RequestID string   `xml:"RequestId"`
}

// EncodeXML renders the Error XML document.
func (e *Error) EncodeXML() []byte {
	body := xmlBody{Code: string(e.Code), Message: e.Message, RequestID: e.RequestID}
	out, err := xml.MarshalIndent(body, "", "  ")
	if err != nil {
		// Code/Message/RequestID are always valid UTF-8 strings; this
		// path is unreachable in practice.
		return []byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>InternalError</Code></Error>`)
	}
	return append([]byte(xml.Header), out...)
}
