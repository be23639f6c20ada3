package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	EnvArtifactsBucket         = "CALC_API_ARTIFACT_BUCKET"
	EnvArtifactsRoot           = "CALC_API_ARTIFACT_ROOT"
	EnvArtifactsCalculateAsset = "CALC_API_CALCULATE_ASSET"
	EnvArtifactsContainerImage = "CALC_API_CONTAINER_IMAGE"
	EnvArtifactsDartImage      = "CALC_API_DART_IMAGE"
)

// ArtifactsConfig locates the pre-built artifacts the stacks deploy.
type ArtifactsConfig struct {
	// Bucket is the default of the ArtifactBucket template parameter.
	Bucket string `toml:"bucket"`
	// Root is the directory relative asset paths resolve against.
	Root string `toml:"root"`
	// CalculateAsset is a local zip path or s3://bucket/key.
	CalculateAsset string `toml:"calculate_asset"`
	// ContainerImage and DartImage are pushed image URIs. Empty means the
	// image is built from the local context and supplied at deploy time.
	ContainerImage string `toml:"container_image"`
	DartImage      string `toml:"dart_image"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ArtifactsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ArtifactsConfig) Merge(overlay *ArtifactsConfig) {
	if overlay.Bucket != "" {
		c.Bucket = overlay.Bucket
	}
	if overlay.Root != "" {
		c.Root = overlay.Root
	}
	if overlay.CalculateAsset != "" {
		c.CalculateAsset = overlay.CalculateAsset
	}
	if overlay.ContainerImage != "" {
		c.ContainerImage = overlay.ContainerImage
	}
	if overlay.DartImage != "" {
		c.DartImage = overlay.DartImage
	}
}

func (c *ArtifactsConfig) loadDefaults() {
	if c.Root == "" {
		c.Root = "."
	}
}

func (c *ArtifactsConfig) loadEnv() {
	if v := os.Getenv(EnvArtifactsBucket); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv(EnvArtifactsRoot); v != "" {
		c.Root = v
	}
	if v := os.Getenv(EnvArtifactsCalculateAsset); v != "" {
		c.CalculateAsset = v
	}
	if v := os.Getenv(EnvArtifactsContainerImage); v != "" {
		c.ContainerImage = v
	}
	if v := os.Getenv(EnvArtifactsDartImage); v != "" {
		c.DartImage = v
	}
}

func (c *ArtifactsConfig) validate() error {
	if strings.HasPrefix(c.Bucket, "s3://") {
		return fmt.Errorf("bucket %q must be a bucket name, not a URL", c.Bucket)
	}
	return nil
}
