package tagdict

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ankit-chaubey/metadata-surgery/core"
)

// Exif groups, named after the IFD that holds the tag.
const (
	groupImage     = "Image"
	groupPhoto     = "Photo"
	groupGPS       = "GPSInfo"
	groupIop       = "Iop"
	groupThumbnail = "Thumbnail"
)

// IFD pointer tags. They are bookkeeping, regenerated on save, and never
// part of the dictionary.
const (
	tagExifIFD    uint16 = 0x8769
	tagGPSIFD     uint16 = 0x8825
	tagInteropIFD uint16 = 0xa005
)

// tagMakerNote holds a vendor block whose internal offsets are only valid at
// its original position, so it is never written back.
const tagMakerNote uint16 = 0x927c

// structural reports whether an IFD0 tag locates pixel or thumbnail data of
// the source file and must not be transplanted.
func structural(id uint16) bool {
	switch id {
	case 0x0111, 0x0117, // StripOffsets, StripByteCounts
		0x0144, 0x0145, // TileOffsets, TileByteCounts
		0x014a,         // SubIFDs
		0x0201, 0x0202, // JPEGInterchangeFormat, JPEGInterchangeFormatLength
		tagExifIFD, tagGPSIFD, tagInteropIFD:
		return true
	}
	return false
}

type tagInfo struct {
	name   string
	label  string
	interp func(*exifTag) string
}

func lookupTag(group string, id uint16) (tagInfo, bool) {
	var table map[uint16]tagInfo
	switch group {
	case groupImage, groupThumbnail:
		table = imageTags
	case groupPhoto:
		table = photoTags
	case groupGPS:
		table = gpsTags
	case groupIop:
		table = iopTags
	}
	info, ok := table[id]
	return info, ok
}

var imageTags = map[uint16]tagInfo{
	0x00fe: {"NewSubfileType", "New Subfile Type", nil},
	0x0100: {"ImageWidth", "Image Width", nil},
	0x0101: {"ImageLength", "Image Length", nil},
	0x0102: {"BitsPerSample", "Bits per Sample", nil},
	0x0103: {"Compression", "Compression", enum(compressions)},
	0x0106: {"PhotometricInterpretation", "Photometric Interpretation", enum(photometrics)},
	0x010e: {"ImageDescription", "Image Description", nil},
	0x010f: {"Make", "Manufacturer", nil},
	0x0110: {"Model", "Model", nil},
	0x0111: {"StripOffsets", "Strip Offsets", nil},
	0x0112: {"Orientation", "Orientation", interpOrientation},
	0x0115: {"SamplesPerPixel", "Samples per Pixel", nil},
	0x0116: {"RowsPerStrip", "Rows per Strip", nil},
	0x0117: {"StripByteCounts", "Strip Byte Count", nil},
	0x011a: {"XResolution", "X-Resolution", nil},
	0x011b: {"YResolution", "Y-Resolution", nil},
	0x011c: {"PlanarConfiguration", "Planar Configuration", enum(map[int64]string{1: "Chunky", 2: "Planar"})},
	0x0128: {"ResolutionUnit", "Resolution Unit", enum(resolutionUnits)},
	0x0131: {"Software", "Software", nil},
	0x0132: {"DateTime", "Date and Time", nil},
	0x013b: {"Artist", "Artist", nil},
	0x013e: {"WhitePoint", "White Point", nil},
	0x013f: {"PrimaryChromaticities", "Primary Chromaticities", nil},
	0x0201: {"JPEGInterchangeFormat", "JPEG Interchange Format", nil},
	0x0202: {"JPEGInterchangeFormatLength", "JPEG Interchange Format Length", nil},
	0x0211: {"YCbCrCoefficients", "YCbCr Coefficients", nil},
	0x0213: {"YCbCrPositioning", "YCbCr Positioning", enum(map[int64]string{1: "Centered", 2: "Co-sited"})},
	0x0214: {"ReferenceBlackWhite", "Reference Black/White", nil},
	0x4746: {"Rating", "Windows Rating", nil},
	0x4749: {"RatingPercent", "Windows Rating Percent", nil},
	0x8298: {"Copyright", "Copyright", nil},
	0x9c9b: {"XPTitle", "Windows Title", interpXP},
	0x9c9c: {"XPComment", "Windows Comment", interpXP},
	0x9c9d: {"XPAuthor", "Windows Author", interpXP},
	0x9c9e: {"XPKeywords", "Windows Keywords", interpXP},
	0x9c9f: {"XPSubject", "Windows Subject", interpXP},
}

var photoTags = map[uint16]tagInfo{
	0x829a: {"ExposureTime", "Exposure Time", interpExposureTime},
	0x829d: {"FNumber", "FNumber", interpFNumber},
	0x8822: {"ExposureProgram", "Exposure Program", enum(exposurePrograms)},
	0x8824: {"SpectralSensitivity", "Spectral Sensitivity", nil},
	0x8827: {"ISOSpeedRatings", "ISO Speed", nil},
	0x8830: {"SensitivityType", "Sensitivity Type", nil},
	0x9000: {"ExifVersion", "Exif Version", interpVersion},
	0x9003: {"DateTimeOriginal", "Date and Time (original)", nil},
	0x9004: {"DateTimeDigitized", "Date and Time (digitized)", nil},
	0x9010: {"OffsetTime", "Offset Time", nil},
	0x9011: {"OffsetTimeOriginal", "Offset Time Original", nil},
	0x9012: {"OffsetTimeDigitized", "Offset Time Digitized", nil},
	0x9101: {"ComponentsConfiguration", "Components Configuration", interpComponents},
	0x9102: {"CompressedBitsPerPixel", "Compressed Bits per Pixel", nil},
	0x9201: {"ShutterSpeedValue", "Shutter speed", nil},
	0x9202: {"ApertureValue", "Aperture", interpFNumberAPEX},
	0x9203: {"BrightnessValue", "Brightness", nil},
	0x9204: {"ExposureBiasValue", "Exposure Bias", interpExposureBias},
	0x9205: {"MaxApertureValue", "Max Aperture Value", interpFNumberAPEX},
	0x9206: {"SubjectDistance", "Subject Distance", interpMeters},
	0x9207: {"MeteringMode", "Metering Mode", enum(meteringModes)},
	0x9208: {"LightSource", "Light Source", enum(lightSources)},
	0x9209: {"Flash", "Flash", enum(flashModes)},
	0x920a: {"FocalLength", "Focal Length", interpFocalLength},
	0x927c: {"MakerNote", "Maker Note", func(t *exifTag) string { return fmt.Sprintf("(%d bytes binary data)", len(t.val)) }},
	0x9286: {"UserComment", "User Comment", interpUserComment},
	0x9290: {"SubSecTime", "Sub-seconds Time", nil},
	0x9291: {"SubSecTimeOriginal", "Sub-seconds Time Original", nil},
	0x9292: {"SubSecTimeDigitized", "Sub-seconds Time Digitized", nil},
	0xa000: {"FlashpixVersion", "FlashPix Version", interpVersion},
	0xa001: {"ColorSpace", "Color Space", enum(map[int64]string{1: "sRGB", 2: "Adobe RGB", 0xffff: "Uncalibrated"})},
	0xa002: {"PixelXDimension", "Pixel X Dimension", nil},
	0xa003: {"PixelYDimension", "Pixel Y Dimension", nil},
	0xa004: {"RelatedSoundFile", "Related Sound File", nil},
	0xa20e: {"FocalPlaneXResolution", "Focal Plane X-Resolution", nil},
	0xa20f: {"FocalPlaneYResolution", "Focal Plane Y-Resolution", nil},
	0xa210: {"FocalPlaneResolutionUnit", "Focal Plane Resolution Unit", enum(resolutionUnits)},
	0xa217: {"SensingMethod", "Sensing Method", nil},
	0xa300: {"FileSource", "File Source", enum(map[int64]string{3: "Digital still camera"})},
	0xa301: {"SceneType", "Scene Type", enum(map[int64]string{1: "Directly photographed"})},
	0xa401: {"CustomRendered", "Custom Rendered", enum(map[int64]string{0: "Normal process", 1: "Custom process"})},
	0xa402: {"ExposureMode", "Exposure Mode", enum(map[int64]string{0: "Auto", 1: "Manual", 2: "Auto bracket"})},
	0xa403: {"WhiteBalance", "White Balance", enum(map[int64]string{0: "Auto", 1: "Manual"})},
	0xa404: {"DigitalZoomRatio", "Digital Zoom Ratio", nil},
	0xa405: {"FocalLengthIn35mmFilm", "Focal Length In 35mm Film", func(t *exifTag) string { return fmt.Sprintf("%d.0 mm", t.intAt(0)) }},
	0xa406: {"SceneCaptureType", "Scene Capture Type", enum(map[int64]string{0: "Standard", 1: "Landscape", 2: "Portrait", 3: "Night scene"})},
	0xa407: {"GainControl", "Gain Control", nil},
	0xa408: {"Contrast", "Contrast", enum(softHard)},
	0xa409: {"Saturation", "Saturation", enum(map[int64]string{0: "Normal", 1: "Low", 2: "High"})},
	0xa40a: {"Sharpness", "Sharpness", enum(softHard)},
	0xa40c: {"SubjectDistanceRange", "Subject Distance Range", nil},
	0xa420: {"ImageUniqueID", "Image Unique ID", nil},
	0xa431: {"BodySerialNumber", "Serial Number", nil},
	0xa432: {"LensSpecification", "Lens Specification", interpLensSpecification},
	0xa433: {"LensMake", "Lens Make", nil},
	0xa434: {"LensModel", "Lens Model", nil},
	0xa435: {"LensSerialNumber", "Lens Serial Number", nil},
}

var gpsTags = map[uint16]tagInfo{
	0x0000: {"GPSVersionID", "GPS Version ID", func(t *exifTag) string { return strings.ReplaceAll(t.Raw(), " ", ".") }},
	0x0001: {"GPSLatitudeRef", "GPS Latitude Reference", enumText(map[string]string{"N": "North", "S": "South"})},
	0x0002: {"GPSLatitude", "GPS Latitude", interpCoordinate},
	0x0003: {"GPSLongitudeRef", "GPS Longitude Reference", enumText(map[string]string{"E": "East", "W": "West"})},
	0x0004: {"GPSLongitude", "GPS Longitude", interpCoordinate},
	0x0005: {"GPSAltitudeRef", "GPS Altitude Reference", enum(map[int64]string{0: "Above sea level", 1: "Below sea level"})},
	0x0006: {"GPSAltitude", "GPS Altitude", interpMeters},
	0x0007: {"GPSTimeStamp", "GPS Time Stamp", interpTimeStamp},
	0x0008: {"GPSSatellites", "GPS Satellites", nil},
	0x0009: {"GPSStatus", "GPS Status", nil},
	0x000a: {"GPSMeasureMode", "GPS Measure Mode", nil},
	0x000b: {"GPSDOP", "GPS Data Degree of Precision", nil},
	0x000c: {"GPSSpeedRef", "GPS Speed Reference", nil},
	0x000d: {"GPSSpeed", "GPS Speed", nil},
	0x0010: {"GPSImgDirectionRef", "GPS Image Direction Reference", nil},
	0x0011: {"GPSImgDirection", "GPS Image Direction", nil},
	0x0012: {"GPSMapDatum", "GPS Map Datum", nil},
	0x001b: {"GPSProcessingMethod", "GPS Processing Method", interpUserComment},
	0x001d: {"GPSDateStamp", "GPS Date Stamp", nil},
}

var iopTags = map[uint16]tagInfo{
	0x0001: {"InteroperabilityIndex", "Interoperability Index", nil},
	0x0002: {"InteroperabilityVersion", "Interoperability Version", interpVersion},
	0x1001: {"RelatedImageWidth", "Related Image Width", nil},
	0x1002: {"RelatedImageLength", "Related Image Length", nil},
}

var (
	compressions = map[int64]string{
		1: "Uncompressed", 2: "CCITT RLE", 5: "LZW", 6: "JPEG (old-style)",
		7: "JPEG", 8: "Adobe Deflate", 32773: "PackBits",
	}
	photometrics = map[int64]string{
		0: "White Is Zero", 1: "Black Is Zero", 2: "RGB", 3: "RGB Palette",
		5: "CMYK", 6: "YCbCr", 32892: "Linear Raw",
	}
	resolutionUnits  = map[int64]string{1: "none", 2: "inch", 3: "cm"}
	exposurePrograms = map[int64]string{
		0: "Not defined", 1: "Manual", 2: "Auto", 3: "Aperture priority",
		4: "Shutter priority", 5: "Creative program", 6: "Action program",
		7: "Portrait mode", 8: "Landscape mode",
	}
	meteringModes = map[int64]string{
		0: "Unknown", 1: "Average", 2: "Center weighted average", 3: "Spot",
		4: "Multi-spot", 5: "Multi-segment", 6: "Partial", 255: "Other",
	}
	lightSources = map[int64]string{
		0: "Unknown", 1: "Daylight", 2: "Fluorescent", 3: "Tungsten (incandescent light)",
		4: "Flash", 9: "Fine weather", 10: "Cloudy weather", 11: "Shade",
		17: "Standard light A", 18: "Standard light B", 19: "Standard light C",
		20: "D55", 21: "D65", 22: "D75", 23: "D50", 255: "Other light source",
	}
	flashModes = map[int64]string{
		0x00: "No flash", 0x01: "Fired", 0x05: "Fired, return light not detected",
		0x07: "Fired, return light detected", 0x08: "Yes, did not fire",
		0x09: "Yes, compulsory", 0x0d: "Yes, compulsory, return light not detected",
		0x0f: "Yes, compulsory, return light detected", 0x10: "No, compulsory",
		0x18: "No, auto", 0x19: "Yes, auto", 0x1d: "Yes, auto, return light not detected",
		0x1f: "Yes, auto, return light detected", 0x20: "No flash function",
		0x41: "Yes, red-eye reduction", 0x59: "Yes, auto, red-eye reduction",
	}
	softHard = map[int64]string{0: "Normal", 1: "Soft", 2: "Hard"}
)

func enum(names map[int64]string) func(*exifTag) string {
	return func(t *exifTag) string {
		if !t.numeric(1) {
			return defaultInterp(t)
		}
		v := t.intAt(0)
		if s, ok := names[v]; ok {
			return s
		}
		return fmt.Sprintf("(%d)", v)
	}
}

func enumText(names map[string]string) func(*exifTag) string {
	return func(t *exifTag) string {
		s := t.text()
		if n, ok := names[s]; ok {
			return n
		}
		return s
	}
}

func interpOrientation(t *exifTag) string {
	if !t.numeric(1) {
		return defaultInterp(t)
	}
	return core.Orientation(t.intAt(0)).String()
}

func interpExposureTime(t *exifTag) string {
	if !t.isRational() || t.n() < 1 {
		return defaultInterp(t)
	}
	num, den := t.ratAt(0)
	switch {
	case den == 0:
		return formatRat(num, den)
	case num == 0:
		return "0 s"
	case num >= den:
		return formatRat(num, den) + " s"
	case den%num == 0:
		return fmt.Sprintf("1/%d s", den/num)
	}
	return fmt.Sprintf("%d/%d s", num, den)
}

func interpFNumber(t *exifTag) string {
	if !t.numeric(1) {
		return defaultInterp(t)
	}
	return fmt.Sprintf("F%.1f", t.floatAt(0))
}

// interpFNumberAPEX converts an APEX aperture value to an f-number.
func interpFNumberAPEX(t *exifTag) string {
	if !t.numeric(1) {
		return defaultInterp(t)
	}
	av := t.floatAt(0)
	return fmt.Sprintf("F%.1f", math.Pow(2, av/2))
}

func interpExposureBias(t *exifTag) string {
	if !t.numeric(1) {
		return defaultInterp(t)
	}
	v := t.floatAt(0)
	if v == 0 {
		return "0 EV"
	}
	return fmt.Sprintf("%+.2g EV", v)
}

func interpFocalLength(t *exifTag) string {
	if !t.numeric(1) {
		return defaultInterp(t)
	}
	return fmt.Sprintf("%.1f mm", t.floatAt(0))
}

func interpMeters(t *exifTag) string {
	if !t.numeric(1) {
		return defaultInterp(t)
	}
	return fmt.Sprintf("%.1f m", t.floatAt(0))
}

func interpVersion(t *exifTag) string {
	s := string(t.val)
	if len(s) != 4 {
		return t.Raw()
	}
	major, err := strconv.Atoi(s[:2])
	if err != nil {
		return t.Raw()
	}
	return fmt.Sprintf("%d.%s", major, s[2:])
}

func interpComponents(t *exifTag) string {
	names := [...]string{"", "Y", "Cb", "Cr", "R", "G", "B"}
	var parts []string
	for _, b := range t.val {
		if int(b) < len(names) && b != 0 {
			parts = append(parts, names[b])
		}
	}
	return strings.Join(parts, " ")
}

// interpUserComment strips the 8-byte character code prefix.
func interpUserComment(t *exifTag) string {
	if len(t.val) < 8 {
		return strings.TrimRight(string(t.val), "\x00 ")
	}
	code, body := t.val[:8], t.val[8:]
	switch {
	case bytes.HasPrefix(code, []byte("UNICODE")):
		return strings.TrimRight(decodeUTF16(body, t.order), " ")
	case bytes.HasPrefix(code, []byte("ASCII")), bytes.Equal(code, make([]byte, 8)):
		return strings.TrimRight(string(body), "\x00 ")
	}
	return strings.TrimRight(string(body), "\x00 ")
}

// interpXP decodes the UTF-16LE byte arrays written by Windows Explorer.
func interpXP(t *exifTag) string {
	return decodeUTF16(t.val, binary.LittleEndian)
}

func interpCoordinate(t *exifTag) string {
	if !t.numeric(3) {
		return defaultInterp(t)
	}
	deg, min, sec := t.floatAt(0), t.floatAt(1), t.floatAt(2)
	return fmt.Sprintf("%.0fdeg %.0f' %.2f\"", deg, min, sec)
}

func interpTimeStamp(t *exifTag) string {
	if !t.numeric(3) {
		return defaultInterp(t)
	}
	return fmt.Sprintf("%02.0f:%02.0f:%02.0f", t.floatAt(0), t.floatAt(1), t.floatAt(2))
}

func interpLensSpecification(t *exifTag) string {
	if !t.numeric(4) {
		return defaultInterp(t)
	}
	minF, maxF := t.floatAt(0), t.floatAt(1)
	minA := t.floatAt(2)
	focal := fmt.Sprintf("%gmm", minF)
	if maxF != minF {
		focal = fmt.Sprintf("%g-%gmm", minF, maxF)
	}
	return fmt.Sprintf("%s F%.1f", focal, minA)
}
