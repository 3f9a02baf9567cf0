// Package widget maps <glitch-image> element attributes onto render options.
//
// The element understands four attributes:
//
//	<glitch-image src="logo.svg" disabled-noise auto background="#000"></glitch-image>
//
// disabled-noise and auto are boolean attributes: present means true,
// whatever their value. width stands in for the width of the element's
// container when auto is set.
package widget

import (
	"html"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
	"github.com/matzehuels/glitchimage/pkg/pipeline"
)

// TagName is the custom element name.
const TagName = "glitch-image"

// Attribute names.
const (
	AttrSrc           = "src"
	AttrDisabledNoise = "disabled-noise"
	AttrAuto          = "auto"
	AttrBackground    = "background"
	AttrWidth         = "width"
)

// Element is a parsed <glitch-image>.
type Element struct {
	Src           string
	DisabledNoise bool
	Auto          bool
	Background    string
	Width         int
}

// Parse reads an attribute map where a key's presence marks a boolean attribute.
func Parse(attrs map[string]string) (Element, error) {
	e := Element{
		Src:        attrs[AttrSrc],
		Background: attrs[AttrBackground],
	}
	_, e.DisabledNoise = attrs[AttrDisabledNoise]
	_, e.Auto = attrs[AttrAuto]

	if w, ok := attrs[AttrWidth]; ok && w != "" {
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(w, "px")))
		if err != nil {
			return Element{}, apperrors.Wrap(apperrors.ErrCodeConfiguration, err, "width %q", w)
		}
		e.Width = n
	}
	return e, nil
}

// FromQuery parses attributes carried as URL query parameters.
func FromQuery(q url.Values) (Element, error) {
	attrs := make(map[string]string, len(q))
	for k, v := range q {
		attrs[k] = ""
		if len(v) > 0 {
			attrs[k] = v[0]
		}
	}
	return Parse(attrs)
}

// Query encodes the element as URL query parameters.
func (e Element) Query() url.Values {
	q := url.Values{}
	q.Set(AttrSrc, e.Src)
	if e.DisabledNoise {
		q.Set(AttrDisabledNoise, "")
	}
	if e.Auto {
		q.Set(AttrAuto, "")
	}
	if e.Background != "" {
		q.Set(AttrBackground, e.Background)
	}
	if e.Width > 0 {
		q.Set(AttrWidth, strconv.Itoa(e.Width))
	}
	return q
}

// Options returns pipeline options for the element.
func (e Element) Options() pipeline.Options {
	return pipeline.Options{
		Source:         e.Src,
		DisableNoise:   e.DisabledNoise,
		AutoFit:        e.Auto,
		Background:     e.Background,
		ContainerWidth: e.Width,
	}
}

// HTML renders the element markup.
func (e Element) HTML() string {
	var sb strings.Builder
	sb.WriteString("<" + TagName)
	writeAttr(&sb, "src", e.Src)
	if e.DisabledNoise {
		sb.WriteString(" " + AttrDisabledNoise)
	}
	if e.Auto {
		sb.WriteString(" " + AttrAuto)
	}
	if e.Background != "" {
		writeAttr(&sb, AttrBackground, e.Background)
	}
	sb.WriteString("></" + TagName + ">")
	return sb.String()
}

func writeAttr(sb *strings.Builder, name, value string) {
	sb.WriteString(" " + name + `="` + html.EscapeString(value) + `"`)
}

// StreamTag returns an <img> pointing at a live stream endpoint for browsers
// without the custom element.
func (e Element) StreamTag(endpoint string) string {
	var sb strings.Builder
	sb.WriteString("<img")
	writeAttr(&sb, "src", endpoint+"?"+e.Query().Encode())
	writeAttr(&sb, "alt", e.Src)
	sb.WriteString(">")
	return sb.String()
}
