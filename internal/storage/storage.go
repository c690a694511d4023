// Package storage holds ticket images.  Objects are addressed by a bucket
// name and a key; the disk implementation maps both onto a directory tree.
package storage

import (
    "bytes"
    "context"
    "errors"
    "fmt"
    "image"
    "image/jpeg"
    "image/png"
    "os"
    "path/filepath"
    "strings"

    "github.com/nfnt/resize"
)

// TicketImages is the bucket intake uploads go to.
const TicketImages = "ticket-images"

// ErrInvalidKey rejects keys that would escape the bucket.
var ErrInvalidKey = errors.New("invalid object key")

// Disk stores objects under Root/<bucket>/<key>.
type Disk struct {
    Root string
}

// NewDisk returns a Disk rooted at root.
func NewDisk(root string) *Disk { return &Disk{Root: root} }

// Put writes data to bucket/key, creating directories as needed.  The
// content type is not persisted; readers infer it from the extension.
func (d *Disk) Put(ctx context.Context, bucket, key, contentType string, data []byte) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    path, err := d.path(bucket, key)
    if err != nil {
        return err
    }
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return fmt.Errorf("storage: mkdir: %w", err)
    }
    if err := os.WriteFile(path, data, 0o644); err != nil {
        return fmt.Errorf("storage: write %s/%s: %w", bucket, key, err)
    }
    return nil
}

// Get reads bucket/key.
func (d *Disk) Get(ctx context.Context, bucket, key string) ([]byte, error) {
    if err := ctx.Err(); err != nil {
        return nil, err
    }
    path, err := d.path(bucket, key)
    if err != nil {
        return nil, err
    }
    return os.ReadFile(path)
}

func (d *Disk) path(bucket, key string) (string, error) {
    clean := filepath.Clean("/" + key)
    if key == "" || clean == "/" {
        return "", ErrInvalidKey
    }
    for _, part := range strings.Split(filepath.ToSlash(key), "/") {
        if part == ".." {
            return "", ErrInvalidKey
        }
    }
    return filepath.Join(d.Root, bucket, clean), nil
}

// Normalize downscales JPEG and PNG images wider than maxWidth, keeping
// the aspect ratio, and re-encodes them in their original format.  Other
// payloads, undecodable images and images already within bounds are
// returned unchanged.  A zero maxWidth disables resizing.
func Normalize(data []byte, contentType string, maxWidth uint) []byte {
    if maxWidth == 0 {
        return data
    }
    var (
        img image.Image
        err error
    )
    switch strings.ToLower(contentType) {
    case "image/jpeg", "image/jpg":
        img, err = jpeg.Decode(bytes.NewReader(data))
    case "image/png":
        img, err = png.Decode(bytes.NewReader(data))
    default:
        return data
    }
    if err != nil || uint(img.Bounds().Dx()) <= maxWidth {
        return data
    }
    resized := resize.Resize(maxWidth, 0, img, resize.Lanczos3)
    var buf bytes.Buffer
    if strings.ToLower(contentType) == "image/png" {
        err = png.Encode(&buf, resized)
    } else {
        err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 80})
    }
    if err != nil {
        return data
    }
    return buf.Bytes()
}
