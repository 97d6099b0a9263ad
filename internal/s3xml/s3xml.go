// Package s3xml builds the fixed set of S3 response documents this
// gateway emits, all under the s3.amazonaws.com/doc/2006-03-01
// namespace. It plays the role gofakes3's own internal xml package
// plays there (a thin, namespace-aware wrapper over encoding/xml),
// sized to the smaller set of documents this gateway needs to emit.
package s3xml

import (
	"encoding/xml"
	"time"
)

// Namespace is the fixed S3 XML namespace every document in this
// package is rendered under.
const Namespace = "http://s3.amazonaws.com/doc/2006-03-01/"

// Time renders as "%Y-%m-%dT%H:%M:%S%.3fZ", the timestamp shape S3
// uses for XML bodies (HTTP headers use RFC 1123 instead; see
// httpTimeFormat in internal/gateway/rangeparse.go).
type Time struct {
	time.Time
}

func (t Time) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(t.Format("2006-01-02T15:04:05.000Z"), start)
}

// Encode marshals v with the standard 2-space indent and XML header
// every response in this gateway carries.
func Encode(v interface{}) ([]byte, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// Owner is the shared <Owner>/<Initiator> shape.
type Owner struct {
	ID          string `xml:"ID"`
	DisplayName string `xml:"DisplayName,omitempty"`
}

// Content is a single <Contents> entry in ListBucketResult.
type Content struct {
	Key          string `xml:"Key"`
	LastModified Time   `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
	Owner        *Owner `xml:"Owner,omitempty"`
}

// CommonPrefix is a single <CommonPrefixes> entry.
type CommonPrefix struct {
	Prefix string `xml:"Prefix"`
}

// ListBucketResult is the ListObjectsV2 response body.
type ListBucketResult struct {
	XMLName               xml.Name       `xml:"ListBucketResult"`
	Xmlns                 string         `xml:"xmlns,attr"`
	Name                  string         `xml:"Name"`
	Prefix                string         `xml:"Prefix"`
	Delimiter             string         `xml:"Delimiter,omitempty"`
	KeyCount              int            `xml:"KeyCount"`
	MaxKeys               int            `xml:"MaxKeys"`
	IsTruncated           bool           `xml:"IsTruncated"`
	ContinuationToken     string         `xml:"ContinuationToken,omitempty"`
	NextContinuationToken string         `xml:"NextContinuationToken,omitempty"`
	StartAfter            string         `xml:"StartAfter,omitempty"`
	Contents              []Content      `xml:"Contents"`
	CommonPrefixes        []CommonPrefix `xml:"CommonPrefixes"`
}

// Bucket is a single <Bucket> entry in ListAllMyBucketsResult.
type Bucket struct {
	Name         string `xml:"Name"`
	CreationDate Time   `xml:"CreationDate"`
}

// ListAllMyBucketsResult is the ListBuckets response body.
type ListAllMyBucketsResult struct {
	XMLName xml.Name `xml:"ListAllMyBucketsResult"`
	Xmlns   string   `xml:"xmlns,attr"`
	Owner   Owner    `xml:"Owner"`
	Buckets struct {
		Bucket []Bucket `xml:"Bucket"`
	} `xml:"Buckets"`
}

// LocationConstraint is the GetBucketLocation response body; this
// gateway always reports the empty (default/us-east-1) constraint.
type LocationConstraint struct {
	XMLName xml.Name `xml:"LocationConstraint"`
	Xmlns   string   `xml:"xmlns,attr"`
	Value   string   `xml:",chardata"`
}

// InitiateMultipartUploadResult is the CreateMultipartUpload response body.
type InitiateMultipartUploadResult struct {
	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	Xmlns    string   `xml:"xmlns,attr"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	UploadID string   `xml:"UploadId"`
}

// CompleteMultipartUploadResult is the CompleteMultipartUpload response body.
type CompleteMultipartUploadResult struct {
	XMLName  xml.Name `xml:"CompleteMultipartUploadResult"`
	Xmlns    string   `xml:"xmlns,attr"`
	Location string   `xml:"Location"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	ETag     string   `xml:"ETag"`
}

// Part is a single <Part> entry in ListPartsResult.
type Part struct {
	PartNumber   int   `xml:"PartNumber"`
	LastModified Time  `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64 `xml:"Size"`
}

// ListPartsResult is the ListParts response body.
type ListPartsResult struct {
	XMLName     xml.Name `xml:"ListPartsResult"`
	Xmlns       string   `xml:"xmlns,attr"`
	Bucket      string   `xml:"Bucket"`
	Key         string   `xml:"Key"`
	UploadID    string   `xml:"UploadId"`
	MaxParts    int      `xml:"MaxParts"`
	IsTruncated bool     `xml:"IsTruncated"`
	Part        []Part   `xml:"Part"`
}

// Upload is a single <Upload> entry in ListMultipartUploadsResult.
type Upload struct {
	Key          string `xml:"Key"`
	UploadID     string `xml:"UploadId"`
	Initiator    Owner  `xml:"Initiator"`
	Owner        Owner  `xml:"Owner"`
	Initiated    Time   `xml:"Initiated"`
	StorageClass string `xml:"StorageClass"`
}

// ListMultipartUploadsResult is the ListMultipartUploads response body.
type ListMultipartUploadsResult struct {
	XMLName     xml.Name `xml:"ListMultipartUploadsResult"`
	Xmlns       string   `xml:"xmlns,attr"`
	Bucket      string   `xml:"Bucket"`
	MaxUploads  int      `xml:"MaxUploads"`
	IsTruncated bool     `xml:"IsTruncated"`
	Upload      []Upload `xml:"Upload"`
}

// CopyObjectResult is the CopyObject response body.
type CopyObjectResult struct {
	XMLName      xml.Name `xml:"CopyObjectResult"`
	Xmlns        string   `xml:"xmlns,attr"`
	LastModified Time     `xml:"LastModified"`
	ETag         string   `xml:"ETag"`
}

// DeletedObject and DeleteError back a DeleteResult body. The gateway
// does not implement batch delete but keeps the shape available for
// the NotImplemented response's sibling success path, matching
// gofakes3's own habit of keeping a Backend method implemented even
// where a given deployment disables the route.
type DeletedObject struct {
	Key string `xml:"Key"`
}

type DeleteError struct {
	Key     string `xml:"Key"`
	Code    string `xml:"Code"`
	Message string `xml:"Message"`
}

type DeleteResult struct {
	XMLName xml.Name        `xml:"DeleteResult"`
	Xmlns   string          `xml:"xmlns,attr"`
	Deleted []DeletedObject `xml:"Deleted,omitempty"`
	Error   []DeleteError   `xml:"Error,omitempty"`
}

func quote(etag string) string {
	return `"` + etag + `"`
}

// Quote wraps an ETag value in double quotes, the form every ETag
// appears in whether it shows up in an XML body or an HTTP header.
func Quote(etag string) string { return quote(etag) }
