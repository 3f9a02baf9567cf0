// Package loader turns an image source string into a decoded image.
//
// A source is an http(s) URL, a file:// URL, a local path or a data: URI.
// [Classify] decides how it is decoded from its file extension (or data URI
// media type), ignoring any query string or fragment:
//
//   - .svg is vector: the markup is validated and handed to a [Rasterizer];
//     SVG data URIs are decoded first
//   - .png .jpg .jpeg .gif .webp .bmp .tif .tiff are raster and decoded
//     with the image package
//   - anything else fails with a LOAD_ERROR wrapping
//     [ErrUnsupportedExtension]
//
// Remote bytes go through [httputil.Client] and are cached under
// [cache.Keyer.SourceKey].
package loader
