package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
)

// cacheEntry holds a decoded image and, once requested, its luma buffer.
type cacheEntry struct {
	img  image.Image
	luma *pixbuf.Buffer[float32]
}

// ImageCache provides thread-safe caching of loaded images to avoid redundant disk reads.
//
// The cache stores decoded images keyed by their file path together with the
// grayscale buffer the digit pipeline works on. Both are computed once per path.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
// A luma buffer costs four bytes per pixel on top of the decoded image.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	luma, err := cache.LoadLuma("/path/to/photo.jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := reader.Read(ctx, luma)
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*cacheEntry
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*cacheEntry),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// Parameters:
//   - path: File path to the image. Supported formats are PNG, JPEG, GIF,
//     BMP, TIFF and WebP.
//
// Returns:
//   - image.Image: The decoded image, rotated upright according to its EXIF
//     orientation tag when present.
//   - error: Non-nil if the file cannot be opened or decoded.
//
// The image is cached using the exact path string provided.
func (c *ImageCache) Load(path string) (image.Image, error) {
	entry, err := c.entry(path)
	if err != nil {
		return nil, err
	}
	return entry.img, nil
}

// LoadLuma returns the grayscale buffer of the image at path, with samples
// in [0, 255]. The buffer is shared: callers must clone it before mutating.
func (c *ImageCache) LoadLuma(path string) (*pixbuf.Buffer[float32], error) {
	entry, err := c.entry(path)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	luma := entry.luma
	c.mu.RUnlock()
	if luma != nil {
		return luma, nil
	}

	luma = Luma(entry.img)
	c.mu.Lock()
	if entry.luma == nil {
		entry.luma = luma
	} else {
		luma = entry.luma
	}
	c.mu.Unlock()
	return luma, nil
}

func (c *ImageCache) entry(path string) (*cacheEntry, error) {
	c.mu.RLock()
	if entry, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return entry, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.images[path]; ok {
		return entry, nil
	}
	entry := &cacheEntry{img: img}
	c.images[path] = entry
	return entry, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache, freeing the associated memory.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Luma converts img to a grayscale buffer with samples in [0, 255] using
// the weights 0.2126 R + 0.7152 G + 0.0722 B on 8-bit channel values.
func Luma(img image.Image) *pixbuf.Buffer[float32] {
	bounds := img.Bounds()
	out := pixbuf.New[float32](bounds.Dx(), bounds.Dy(), 0)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			v := 0.2126*float32(c.R) + 0.7152*float32(c.G) + 0.0722*float32(c.B)
			out.Set(x-bounds.Min.X, y-bounds.Min.Y, v)
		}
	}
	return out
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels after EXIF orientation.
	Width int `json:"width"`

	// Height is the image height in pixels after EXIF orientation.
	Height int `json:"height"`

	// Format is the detected image format, or "unknown".
	// Detection is based on file extension, not file contents.
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// Grayscale reports a single-channel image.
	Grayscale bool `json:"grayscale"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image and returns metadata about it.
//
// Parameters:
//   - cache: The image cache to use for loading. Must not be nil.
//   - path: Path to the image file.
//
// Returns:
//   - *ImageInfo: Metadata about the image.
//   - error: Non-nil if the image cannot be loaded or the file cannot be stat'd.
//
// # Color Depth Detection
//
// The decoded image is normalized by the loader, so the depth and channel
// count are read from the file header with image.DecodeConfig.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := &ImageInfo{
		Width:         img.Bounds().Dx(),
		Height:        img.Bounds().Dy(),
		Format:        formatFromExt(path),
		ColorDepth:    "8-bit",
		FileSizeBytes: stat.Size(),
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	if cfg, _, err := image.DecodeConfig(f); err == nil {
		switch cfg.ColorModel {
		case color.Gray16Model:
			info.ColorDepth = "16-bit"
			info.Grayscale = true
		case color.GrayModel:
			info.Grayscale = true
		case color.RGBA64Model, color.NRGBA64Model:
			info.ColorDepth = "16-bit"
		}
	}

	return info, nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	case ".webp":
		return "webp"
	default:
		return "unknown"
	}
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image without additional metadata.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
