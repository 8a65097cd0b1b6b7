package tagdict

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// textField is an IPTC dataset or XMP property. Repeated values are joined.
type textField struct {
	key    string
	label  string
	values []string
}

func (f *textField) Label() string       { return f.label }
func (f *textField) Interpreted() string { return strings.Join(f.values, ", ") }
func (f *textField) Raw() string         { return strings.Join(f.values, ", ") }

type iptcDataset struct {
	name  string
	label string
}

var iptcEnvelope = map[byte]iptcDataset{
	0x00: {"ModelVersion", "Model Version"},
	0x05: {"Destination", "Destination"},
	0x14: {"FileFormat", "File Format"},
	0x1E: {"ServiceId", "Service Identifier"},
	0x46: {"DateSent", "Date Sent"},
	0x50: {"TimeSent", "Time Sent"},
	0x5A: {"CharacterSet", "Character Set"},
}

var iptcApplication = map[byte]iptcDataset{
	0x00: {"RecordVersion", "Record Version"},
	0x05: {"ObjectName", "Object Name"},
	0x0A: {"Urgency", "Urgency"},
	0x0F: {"Category", "Category"},
	0x14: {"SuppCategory", "Supplemental Category"},
	0x19: {"Keywords", "Keywords"},
	0x1A: {"LocationCode", "Location Code"},
	0x1B: {"LocationName", "Location Name"},
	0x1E: {"ReleaseDate", "Release Date"},
	0x23: {"ReleaseTime", "Release Time"},
	0x28: {"SpecialInstructions", "Special Instructions"},
	0x37: {"DateCreated", "Date Created"},
	0x3C: {"TimeCreated", "Time Created"},
	0x3E: {"DigitizationDate", "Digitization Date"},
	0x3F: {"DigitizationTime", "Digitization Time"},
	0x41: {"Program", "Program"},
	0x46: {"ProgramVersion", "Program Version"},
	0x50: {"Byline", "By-line"},
	0x55: {"BylineTitle", "By-line Title"},
	0x5A: {"City", "City"},
	0x5C: {"SubLocation", "Sub-location"},
	0x5F: {"ProvinceState", "Province/State"},
	0x64: {"CountryCode", "Country Code"},
	0x65: {"CountryName", "Country Name"},
	0x67: {"TransmissionReference", "Transmission Reference"},
	0x69: {"Headline", "Headline"},
	0x6E: {"Credit", "Credit"},
	0x73: {"Source", "Source"},
	0x74: {"Copyright", "Copyright"},
	0x76: {"Contact", "Contact"},
	0x78: {"Caption", "Caption"},
	0x7A: {"Writer", "Writer"},
}

const irbIPTC = 0x0404

// parseIPTC walks the 8BIM resources of a Photoshop IRB block and decodes
// the IIM records of the IPTC resource.
func parseIPTC(irb []byte) []*textField {
	i := 0
	for i+12 <= len(irb) {
		if !bytes.Equal(irb[i:i+4], []byte("8BIM")) {
			break
		}
		resID := binary.BigEndian.Uint16(irb[i+4 : i+6])
		nameLen := int(irb[i+6])
		// Pascal name, padded to even including the length byte.
		i += 6 + (nameLen+2)&^1
		if i+4 > len(irb) {
			break
		}
		n := int(binary.BigEndian.Uint32(irb[i : i+4]))
		i += 4
		if n < 0 || i+n > len(irb) {
			break
		}
		if resID == irbIPTC {
			return parseIIM(irb[i : i+n])
		}
		i += n + n&1
	}
	return nil
}

func parseIIM(data []byte) []*textField {
	var fields []*textField
	index := map[string]*textField{}
	i := 0
	for i+5 <= len(data) {
		if data[i] != 0x1C {
			break
		}
		record, dataset := data[i+1], data[i+2]
		n := int(binary.BigEndian.Uint16(data[i+3 : i+5]))
		i += 5
		if n&0x8000 != 0 || i+n > len(data) {
			// extended datasets are not used for text
			break
		}
		val := strings.TrimRight(string(data[i:i+n]), "\x00")
		i += n

		var table map[byte]iptcDataset
		var ns string
		switch record {
		case 1:
			table, ns = iptcEnvelope, "Iptc.Envelope."
		case 2:
			table, ns = iptcApplication, "Iptc.Application2."
		default:
			continue
		}
		ds, ok := table[dataset]
		if !ok {
			ds = iptcDataset{name: fmt.Sprintf("0x%04x", dataset)}
			ds.label = ds.name
		}
		if record == 2 && dataset == 0x00 && len(val) == 2 {
			val = fmt.Sprint(binary.BigEndian.Uint16([]byte(val)))
		}

		key := ns + ds.name
		if f, ok := index[key]; ok {
			f.values = append(f.values, val)
			continue
		}
		f := &textField{key: key, label: ds.label, values: []string{val}}
		index[key] = f
		fields = append(fields, f)
	}
	return fields
}
