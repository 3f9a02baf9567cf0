package sink

import (
	"bytes"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
)

// MJPEG writes JPEG frames as parts of a multipart/x-mixed-replace body.
type MJPEG struct {
	mw      *multipart.Writer
	quality int
	buf     bytes.Buffer
}

// NewMJPEG writes to w. Quality is clamped to 1..100; zero means 80.
func NewMJPEG(w io.Writer, quality int) *MJPEG {
	if quality == 0 {
		quality = 80
	}
	return &MJPEG{mw: multipart.NewWriter(w), quality: min(max(quality, 1), 100)}
}

// ContentType is the value for the response Content-Type header.
func (m *MJPEG) ContentType() string {
	return "multipart/x-mixed-replace; boundary=" + m.mw.Boundary()
}

// WriteFrame encodes img as one part.
func (m *MJPEG) WriteFrame(img image.Image) error {
	m.buf.Reset()
	if err := jpeg.Encode(&m.buf, img, &jpeg.Options{Quality: m.quality}); err != nil {
		return err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Type", "image/jpeg")
	h.Set("Content-Length", strconv.Itoa(m.buf.Len()))
	part, err := m.mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(m.buf.Bytes())
	return err
}

// Close writes the closing boundary.
func (m *MJPEG) Close() error { return m.mw.Close() }
