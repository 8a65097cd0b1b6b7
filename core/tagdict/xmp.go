package tagdict

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"
)

const (
	nsRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsXML  = "http://www.w3.org/XML/1998/namespace"
	nsTIFF = "http://ns.adobe.com/tiff/1.0/"
)

// Conventional prefixes, used when a packet binds a namespace without
// declaring it on an element we see first.
var xmpPrefixes = map[string]string{
	"http://purl.org/dc/elements/1.1/":             "dc",
	"http://ns.adobe.com/xap/1.0/":                 "xmp",
	"http://ns.adobe.com/xap/1.0/rights/":          "xmpRights",
	"http://ns.adobe.com/xap/1.0/mm/":              "xmpMM",
	"http://ns.adobe.com/photoshop/1.0/":           "photoshop",
	nsTIFF:                                         "tiff",
	"http://ns.adobe.com/exif/1.0/":                "exif",
	"http://ns.adobe.com/exif/1.0/aux/":            "aux",
	"http://ns.adobe.com/camera-raw-settings/1.0/": "crs",
	"http://ns.adobe.com/lightroom/1.0/":           "lr",
	"http://iptc.org/std/Iptc4xmpCore/1.0/xmlns/":  "iptc",
	"http://iptc.org/std/Iptc4xmpExt/2008-02-29/":  "iptcExt",
	"http://ns.microsoft.com/photo/1.0/":           "MicrosoftPhoto",
	"http://ns.google.com/photos/1.0/panorama/":    "GPano",
	"http://ns.adobe.com/xmp/1.0/DynamicMedia/":    "xmpDM",
	"http://cipa.jp/exif/1.0/":                     "exifEX",
}

type xmpParser struct {
	prefixes map[string]string
	fields   []*textField
	index    map[string]*textField
}

// parseXMP extracts the simple, array and attribute properties of every
// rdf:Description in an XMP packet. Nested structures contribute their leaf
// text to the enclosing property.
func parseXMP(packet []byte) []*textField {
	p := &xmpParser{prefixes: map[string]string{}, index: map[string]*textField{}}
	dec := xml.NewDecoder(bytes.NewReader(packet))
	dec.Strict = false

	var (
		inDesc  int // depth of the innermost rdf:Description, 0 when outside
		depth   int
		current *textField
		propAt  int
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			p.learn(t.Attr)
			switch {
			case t.Name.Space == nsRDF && t.Name.Local == "Description":
				if current == nil {
					inDesc = depth
					for _, a := range t.Attr {
						if a.Name.Space == "xmlns" || a.Name.Space == "" || a.Name.Space == nsRDF || a.Name.Space == nsXML {
							continue
						}
						p.property(a.Name, a.Value)
					}
				}
			case inDesc > 0 && depth == inDesc+1:
				current = p.property(t.Name, "")
				propAt = depth
			}
		case xml.CharData:
			if current == nil {
				continue
			}
			if s := strings.TrimSpace(string(t)); s != "" {
				current.values = append(current.values, s)
			}
		case xml.EndElement:
			if current != nil && depth == propAt {
				current = nil
			}
			if depth == inDesc {
				inDesc = 0
			}
			depth--
		}
	}

	out := p.fields[:0]
	for _, f := range p.fields {
		if len(f.values) > 0 {
			out = append(out, f)
		}
	}
	return out
}

func (p *xmpParser) learn(attrs []xml.Attr) {
	for _, a := range attrs {
		if a.Name.Space == "xmlns" {
			p.prefixes[a.Value] = a.Name.Local
		}
	}
}

func (p *xmpParser) prefix(space string) string {
	if pre, ok := p.prefixes[space]; ok {
		return pre
	}
	if pre, ok := xmpPrefixes[space]; ok {
		return pre
	}
	return space
}

func (p *xmpParser) property(name xml.Name, value string) *textField {
	key := "Xmp." + p.prefix(name.Space) + "." + name.Local
	f, ok := p.index[key]
	if !ok {
		f = &textField{key: key, label: labelize(upperFirst(name.Local))}
		p.index[key] = f
		p.fields = append(p.fields, f)
	}
	if value != "" {
		f.values = append(f.values, value)
	}
	return f
}

func upperFirst(s string) string {
	if s == "" || !('a' <= s[0] && s[0] <= 'z') {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

var tiffPrefix = regexp.MustCompile(`xmlns:([\w.-]+)\s*=\s*["']` + regexp.QuoteMeta(nsTIFF) + `["']`)

// setXMPOrientation rewrites the tiff:Orientation property of packet, in
// attribute or element form, to v. It reports whether the packet had one.
func setXMPOrientation(packet []byte, v int) ([]byte, bool) {
	prefix := "tiff"
	if m := tiffPrefix.FindSubmatch(packet); m != nil {
		prefix = string(m[1])
	}
	name := regexp.QuoteMeta(prefix + ":Orientation")
	attr := regexp.MustCompile(`(` + name + `\s*=\s*["'])[^"']*(["'])`)
	elem := regexp.MustCompile(`(<` + name + `\s*>)[^<]*(</` + name + `\s*>)`)
	if !attr.Match(packet) && !elem.Match(packet) {
		return packet, false
	}

	val := strconv.Itoa(v)
	packet = attr.ReplaceAll(packet, []byte("${1}"+val+"${2}"))
	packet = elem.ReplaceAll(packet, []byte("${1}"+val+"${2}"))
	return packet, true
}
