package qrscan

import (
	"fmt"
	"time"
)

// ResultMetadataKey identifies a type of metadata about a decoded symbol.
type ResultMetadataKey int

const (
	MetadataOther ResultMetadataKey = iota
	MetadataByteSegments
	MetadataErrorCorrectionLevel
	MetadataErrorsCorrected
	MetadataStructuredAppendSequence
	MetadataStructuredAppendParity
	MetadataSymbologyIdentifier
	MetadataMirrored
	MetadataSegments
)

var metadataNames = [...]string{
	MetadataOther:                    "other",
	MetadataByteSegments:             "byteSegments",
	MetadataErrorCorrectionLevel:     "errorCorrectionLevel",
	MetadataErrorsCorrected:          "errorsCorrected",
	MetadataStructuredAppendSequence: "structuredAppendSequence",
	MetadataStructuredAppendParity:   "structuredAppendParity",
	MetadataSymbologyIdentifier:      "symbologyIdentifier",
	MetadataMirrored:                 "mirrored",
	MetadataSegments:                 "segments",
}

func (k ResultMetadataKey) String() string {
	if k >= 0 && int(k) < len(metadataNames) {
		return metadataNames[k]
	}
	return fmt.Sprintf("metadata(%d)", int(k))
}

// MarshalText lets metadata maps encode with readable JSON keys.
func (k ResultMetadataKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Result is a decoded QR symbol.
type Result struct {
	Text     string `json:"text"`
	RawBytes []byte `json:"rawBytes"`

	// CornerPoints are the outer corners of the symbol in source image
	// coordinates, in the order top-left, top-right, bottom-right,
	// bottom-left of the symbol itself regardless of how it is rotated in
	// the image.
	CornerPoints [4]ResultPoint `json:"cornerPoints"`

	// FinderPoints are the bottom-left, top-left and top-right finder
	// centers, followed by the alignment pattern center when one was used.
	// They are empty for results decoded with PureBarcode.
	FinderPoints []ResultPoint `json:"finderPoints,omitempty"`

	Version         int                               `json:"version"`
	ECLevel         string                            `json:"ecLevel"`
	ErrorsCorrected int                               `json:"errorsCorrected"`
	Metadata        map[ResultMetadataKey]interface{} `json:"metadata,omitempty"`
	Timestamp       time.Time                         `json:"timestamp"`
}

// NewResult creates a Result stamped with the current time.
func NewResult(text string, rawBytes []byte) *Result {
	return &Result{
		Text:      text,
		RawBytes:  rawBytes,
		Metadata:  make(map[ResultMetadataKey]interface{}),
		Timestamp: time.Now(),
	}
}

// PutMetadata adds a metadata key/value pair.
func (r *Result) PutMetadata(key ResultMetadataKey, value interface{}) {
	r.Metadata[key] = value
}
