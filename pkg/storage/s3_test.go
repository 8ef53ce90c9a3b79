package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURLResolver(t *testing.T) {
	resolve := PublicURLResolver("realinvest-media", "eu-central-1")

	assert.Equal(t, "", resolve(""))
	assert.Equal(t,
		"https://realinvest-media.s3.eu-central-1.amazonaws.com/branding/logo.png",
		resolve("branding/logo.png"))
	assert.Equal(t,
		"https://realinvest-media.s3.eu-central-1.amazonaws.com/branding/logo.png",
		resolve("/branding/logo.png"))

	// external URLs stored in settings pass through unchanged
	assert.Equal(t, "https://cdn.example.com/logo.svg", resolve("https://cdn.example.com/logo.svg"))
	assert.Equal(t, "http://cdn.example.com/logo.svg", resolve("http://cdn.example.com/logo.svg"))
}

func TestObjectKeys(t *testing.T) {
	assert.Equal(t, "listings/abc/cover.jpg", ListingImageKey("abc", "cover.jpg"))
	assert.Equal(t, "constructions/xyz/site.png", ConstructionImageKey("xyz", "site.png"))
	assert.Equal(t, "branding/logo.png", BrandingKey("logo.png"))

	// path traversal in filenames is stripped
	assert.Equal(t, "branding/logo.png", BrandingKey("../../logo.png"))
	assert.Equal(t, "listings/abc/img.jpg", ListingImageKey("abc", "/etc/img.jpg"))
}

func TestValidateImageFileType(t *testing.T) {
	assert.True(t, ValidateImageFileType("image/png", "logo.png"))
	assert.True(t, ValidateImageFileType("", "photo.JPG"))
	assert.True(t, ValidateImageFileType("image/webp", ""))
	assert.False(t, ValidateImageFileType("application/pdf", "doc.pdf"))
	assert.False(t, ValidateImageFileType("", ""))
}

func TestContentTypeForFilename(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentTypeForFilename("photo.jpeg"))
	assert.Equal(t, "image/svg+xml", ContentTypeForFilename("logo.svg"))
	assert.Equal(t, "application/octet-stream", ContentTypeForFilename("archive.zip"))
}
