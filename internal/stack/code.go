package stack

import (
	"fmt"
	"path"
	"strings"
)

// CodeKind says where a function artifact lives.
type CodeKind int

const (
	// CodeAsset is a local zip built outside this repository.
	CodeAsset CodeKind = iota + 1
	// CodeBucket is a zip already uploaded to S3.
	CodeBucket
	// CodeImage is a container image already pushed to a registry.
	CodeImage
	// CodeImageAsset is a local container build context; the image URI is
	// supplied at deploy time.
	CodeImageAsset
)

func (k CodeKind) String() string {
	switch k {
	case CodeAsset:
		return "asset"
	case CodeBucket:
		return "s3"
	case CodeImage:
		return "image"
	case CodeImageAsset:
		return "image-asset"
	default:
		return "unknown"
	}
}

// Code is the location of a pre-built deployment artifact.
type Code struct {
	Kind CodeKind
	// Path is the local asset path or image build context.
	Path string
	// Bucket and Key locate an S3 object.
	Bucket string
	Key    string
	// ImageURI is a pushed container image.
	ImageURI string
	// Command overrides the image command (container handler).
	Command []string
}

// FromAsset references a local zip artifact.
func FromAsset(path string) Code {
	return Code{Kind: CodeAsset, Path: path}
}

// FromBucket references a zip artifact in S3.
func FromBucket(bucket, key string) Code {
	return Code{Kind: CodeBucket, Bucket: bucket, Key: key}
}

// FromImage references a pushed container image.
func FromImage(uri string, command ...string) Code {
	return Code{Kind: CodeImage, ImageURI: uri, Command: command}
}

// FromImageAsset references a local container build context.
func FromImageAsset(dir string, command ...string) Code {
	return Code{Kind: CodeImageAsset, Path: dir, Command: command}
}

// ParseLocation builds Code from a location string: s3://bucket/key for S3,
// anything else as a local asset path.
func ParseLocation(location string) (Code, error) {
	if rest, ok := strings.CutPrefix(location, "s3://"); ok {
		bucket, key, found := strings.Cut(rest, "/")
		if !found || bucket == "" || key == "" {
			return Code{}, fmt.Errorf("%w: %s", ErrInvalidCode, location)
		}
		return FromBucket(bucket, key), nil
	}
	if location == "" {
		return Code{}, fmt.Errorf("%w: empty location", ErrInvalidCode)
	}
	return FromAsset(location), nil
}

// IsImage reports whether the code is a container image.
func (c Code) IsImage() bool {
	return c.Kind == CodeImage || c.Kind == CodeImageAsset
}

// Location returns a printable location for the artifact.
func (c Code) Location() string {
	switch c.Kind {
	case CodeAsset, CodeImageAsset:
		return c.Path
	case CodeBucket:
		return "s3://" + c.Bucket + "/" + c.Key
	case CodeImage:
		return c.ImageURI
	default:
		return ""
	}
}

// assetKey is the default object key for an uploaded asset.
func (c Code) assetKey() string {
	return path.Base(c.Path)
}

func (c Code) validate() error {
	switch c.Kind {
	case CodeAsset, CodeImageAsset:
		if c.Path == "" {
			return fmt.Errorf("%w: %s without a path", ErrInvalidCode, c.Kind)
		}
	case CodeBucket:
		if c.Bucket == "" || c.Key == "" {
			return fmt.Errorf("%w: s3 code needs bucket and key", ErrInvalidCode)
		}
	case CodeImage:
		if c.ImageURI == "" {
			return fmt.Errorf("%w: image code without a uri", ErrInvalidCode)
		}
	default:
		return fmt.Errorf("%w: no code location", ErrInvalidCode)
	}
	return nil
}
