// Package storage keeps uploaded images in object storage.
package storage

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// ErrUnsupportedType is returned for uploads that are not jpg or png.
var ErrUnsupportedType = errors.New("only jpg, jpeg and png images are allowed")

// Store uploads images and removes them again by their public URL.
type Store interface {
	Upload(ctx context.Context, folder, name string, data []byte) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// DetectImage sniffs data and returns its content type and file extension.
func DetectImage(data []byte) (contentType, ext string, err error) {
	contentType = http.DetectContentType(data)
	ext, ok := imageTypes[contentType]
	if !ok {
		return "", "", ErrUnsupportedType
	}
	return contentType, ext, nil
}

// AllowedExtension reports whether filename carries a jpg, jpeg or png extension.
func AllowedExtension(filename string) bool {
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// keyFromURL recovers the object key from a URL produced by Upload.
func keyFromURL(publicURL, base string) (string, bool) {
	base = strings.TrimRight(base, "/")
	if base != "" && strings.HasPrefix(publicURL, base+"/") {
		return strings.TrimPrefix(publicURL, base+"/"), true
	}

	u, err := url.Parse(publicURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "", false
	}
	return strings.TrimPrefix(u.Path, "/"), true
}

func objectKey(folder, name, ext string) string {
	return path.Join(folder, name+ext)
}
