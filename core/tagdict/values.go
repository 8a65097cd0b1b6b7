package tagdict

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rwcarlsen/goexif/tiff"
	"golang.org/x/text/encoding/unicode"
)

// exifTag is one IFD entry held by a Dictionary. val holds exactly
// count*typeSize(typ) bytes in the byte order of the source payload.
type exifTag struct {
	group string
	name  string
	id    uint16
	typ   tiff.DataType
	count uint32
	val   []byte
	order binary.ByteOrder
	info  *tagInfo
}

func newExifTag(group string, t *tiff.Tag, order binary.ByteOrder) *exifTag {
	e := &exifTag{
		group: group,
		id:    t.Id,
		typ:   t.Type,
		count: t.Count,
		val:   t.Val,
		order: order,
	}
	if info, ok := lookupTag(group, t.Id); ok {
		e.info = &info
		e.name = info.name
	} else {
		e.name = fmt.Sprintf("0x%04x", t.Id)
	}
	return e
}

func (t *exifTag) key() string { return "Exif." + t.group + "." + t.name }

func (t *exifTag) Label() string {
	if t.info != nil && t.info.label != "" {
		return t.info.label
	}
	return labelize(t.name)
}

func (t *exifTag) Interpreted() string {
	if t.n() == 0 && t.typ != tiff.DTAscii {
		return ""
	}
	if t.info != nil && t.info.interp != nil {
		return t.info.interp(t)
	}
	return defaultInterp(t)
}

func (t *exifTag) Raw() string {
	switch {
	case t.typ == tiff.DTAscii:
		return t.text()
	case t.isRational():
		parts := make([]string, t.n())
		for i := range parts {
			num, den := t.ratAt(i)
			parts[i] = fmt.Sprintf("%d/%d", num, den)
		}
		return strings.Join(parts, " ")
	case t.typ == tiff.DTFloat || t.typ == tiff.DTDouble:
		parts := make([]string, t.n())
		for i := range parts {
			parts[i] = strconv.FormatFloat(t.floatAt(i), 'g', -1, 64)
		}
		return strings.Join(parts, " ")
	default:
		parts := make([]string, t.n())
		for i := range parts {
			parts[i] = strconv.FormatInt(t.intAt(i), 10)
		}
		return strings.Join(parts, " ")
	}
}

func typeSize(dt tiff.DataType) int {
	switch dt {
	case tiff.DTByte, tiff.DTAscii, tiff.DTSByte, tiff.DTUndefined:
		return 1
	case tiff.DTShort, tiff.DTSShort:
		return 2
	case tiff.DTLong, tiff.DTSLong, tiff.DTFloat:
		return 4
	case tiff.DTRational, tiff.DTSRational, tiff.DTDouble:
		return 8
	}
	return 0
}

// n is the number of complete values held in val.
func (t *exifTag) n() int {
	size := typeSize(t.typ)
	if size == 0 {
		return 0
	}
	return len(t.val) / size
}

func (t *exifTag) isRational() bool {
	return t.typ == tiff.DTRational || t.typ == tiff.DTSRational
}

// numeric reports whether t holds at least k numbers. Tags written with an
// unexpected type fail this and are shown with defaultInterp.
func (t *exifTag) numeric(k int) bool {
	return t.typ != tiff.DTAscii && t.typ != tiff.DTUndefined && t.n() >= k
}

// intAt and the other accessors return zero for an index past the end of val.
func (t *exifTag) intAt(i int) int64 {
	size := typeSize(t.typ)
	if size == 0 || i < 0 || (i+1)*size > len(t.val) {
		return 0
	}
	b := t.val[i*size:]
	switch t.typ {
	case tiff.DTByte, tiff.DTUndefined, tiff.DTAscii:
		return int64(b[0])
	case tiff.DTSByte:
		return int64(int8(b[0]))
	case tiff.DTShort:
		return int64(t.order.Uint16(b))
	case tiff.DTSShort:
		return int64(int16(t.order.Uint16(b)))
	case tiff.DTLong:
		return int64(t.order.Uint32(b))
	case tiff.DTSLong:
		return int64(int32(t.order.Uint32(b)))
	case tiff.DTRational, tiff.DTSRational:
		num, den := t.ratAt(i)
		if den == 0 {
			return 0
		}
		return num / den
	}
	return 0
}

func (t *exifTag) ratAt(i int) (num, den int64) {
	if !t.isRational() || i < 0 || (i+1)*8 > len(t.val) {
		return 0, 0
	}
	b := t.val[i*8:]
	if t.typ == tiff.DTSRational {
		return int64(int32(t.order.Uint32(b))), int64(int32(t.order.Uint32(b[4:])))
	}
	return int64(t.order.Uint32(b)), int64(t.order.Uint32(b[4:]))
}

func (t *exifTag) floatAt(i int) float64 {
	if i < 0 || i >= t.n() {
		return 0
	}
	switch t.typ {
	case tiff.DTFloat:
		return float64(math.Float32frombits(t.order.Uint32(t.val[i*4:])))
	case tiff.DTDouble:
		return math.Float64frombits(t.order.Uint64(t.val[i*8:]))
	case tiff.DTRational, tiff.DTSRational:
		num, den := t.ratAt(i)
		if den == 0 {
			return 0
		}
		return float64(num) / float64(den)
	}
	return float64(t.intAt(i))
}

// text is the ASCII value up to its first NUL.
func (t *exifTag) text() string {
	b := t.val
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func defaultInterp(t *exifTag) string {
	switch {
	case t.typ == tiff.DTAscii:
		return t.text()
	case t.typ == tiff.DTUndefined:
		if s := strings.TrimRight(string(t.val), "\x00 "); s != "" && printable(s) {
			return s
		}
		return t.Raw()
	case t.isRational():
		parts := make([]string, t.n())
		for i := range parts {
			parts[i] = formatRat(t.ratAt(i))
		}
		return strings.Join(parts, " ")
	}
	return t.Raw()
}

func formatRat(num, den int64) string {
	if den == 0 {
		return fmt.Sprintf("(%d/%d)", num, den)
	}
	if num%den == 0 {
		return strconv.FormatInt(num/den, 10)
	}
	return strconv.FormatFloat(float64(num)/float64(den), 'g', 6, 64)
}

func printable(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r < 0x20 && r != '\n' && r != '\t' {
			return false
		}
	}
	return true
}

// decodeUTF16 decodes b, ignoring a trailing NUL terminator.
func decodeUTF16(b []byte, order binary.ByteOrder) string {
	endian := unicode.LittleEndian
	if order == binary.BigEndian {
		endian = unicode.BigEndian
	}
	out, err := unicode.UTF16(endian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(out), "\x00")
}

// labelize turns a CamelCase tag name into words: "DateTimeOriginal" ->
// "Date Time Original".
func labelize(name string) string {
	var sb strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && isUpper(r) && (!isUpper(runes[i-1]) || (i+1 < len(runes) && !isUpper(runes[i+1]))) {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isUpper(r rune) bool { return 'A' <= r && r <= 'Z' }
