package format

import (
	"fmt"
	"strings"
)

type (
	SampleType      uint8
	HeaderDialect   uint8
	Layout          uint8
	CompressionType uint8
	ArchiveMethod   uint8
)

const (
	SampleInt32   SampleType = 'i' // SampleInt32 represents 32-bit integer samples.
	SampleFloat32 SampleType = 'f' // SampleFloat32 represents 32-bit IEEE 754 samples.
	SampleFloat64 SampleType = 'd' // SampleFloat64 represents 64-bit IEEE 754 samples.
	SampleASCII   SampleType = 'a' // SampleASCII represents opaque text payloads.

	DialectSimple HeaderDialect = 0x1 // DialectSimple is the single-line TIMESERIES header.
	DialectGeoCSV HeaderDialect = 0x2 // DialectGeoCSV is the commented GeoCSV preamble.

	LayoutSampleList     Layout = 0x1 // LayoutSampleList writes column-wrapped sample values (SLIST).
	LayoutTimeSamplePair Layout = 0x2 // LayoutTimeSamplePair writes one time-value pair per line (TSPAIR).

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.

	ArchiveStore   ArchiveMethod = 0x1 // ArchiveStore stores archive entries uncompressed.
	ArchiveDeflate ArchiveMethod = 0x2 // ArchiveDeflate deflates archive entries.
)

// Size returns the element size in bytes of the sample type, or 0 if unknown.
func (s SampleType) Size() int {
	switch s {
	case SampleInt32, SampleFloat32:
		return 4
	case SampleFloat64:
		return 8
	case SampleASCII:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the four recognized sample type tags.
func (s SampleType) Valid() bool {
	return s.Size() != 0
}

// Label returns the header keyword used by the simple dialect.
func (s SampleType) Label() string {
	switch s {
	case SampleInt32:
		return "INTEGER"
	case SampleFloat32, SampleFloat64:
		return "FLOAT"
	case SampleASCII:
		return "ASCII"
	default:
		return "UNKNOWN"
	}
}

// FieldType returns the GeoCSV field_type keyword for the sample column.
func (s SampleType) FieldType() string {
	switch s {
	case SampleInt32:
		return "integer"
	case SampleFloat32, SampleFloat64:
		return "float"
	case SampleASCII:
		return "string"
	default:
		return "unknown"
	}
}

func (s SampleType) String() string {
	if s.Valid() {
		return string(rune(s))
	}

	return fmt.Sprintf("Unknown(0x%02x)", uint8(s))
}

func (d HeaderDialect) String() string {
	switch d {
	case DialectSimple:
		return "Simple"
	case DialectGeoCSV:
		return "GeoCSV"
	default:
		return "Unknown"
	}
}

// Extension returns the output file extension for the dialect.
func (d HeaderDialect) Extension() string {
	if d == DialectGeoCSV {
		return "csv"
	}

	return "txt"
}

func (l Layout) String() string {
	switch l {
	case LayoutSampleList:
		return "SLIST"
	case LayoutTimeSamplePair:
		return "TSPAIR"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

func (m ArchiveMethod) String() string {
	switch m {
	case ArchiveStore:
		return "Store"
	case ArchiveDeflate:
		return "Deflate"
	default:
		return "Unknown"
	}
}

// ParseLayout maps the numeric selector of the -f option (1 or 2) or a layout
// name to a Layout.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "slist":
		return LayoutSampleList, nil
	case "2", "tspair":
		return LayoutTimeSamplePair, nil
	default:
		return 0, fmt.Errorf("invalid output layout: %q", s)
	}
}

// ParseDialect maps a dialect name to a HeaderDialect.
func ParseDialect(s string) (HeaderDialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simple":
		return DialectSimple, nil
	case "geocsv":
		return DialectGeoCSV, nil
	default:
		return 0, fmt.Errorf("invalid header dialect: %q", s)
	}
}

// ParseCompression maps a compression name to a CompressionType.
func ParseCompression(s string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("invalid compression: %q", s)
	}
}

// ParseArchiveMethod maps an archive method name to an ArchiveMethod.
func ParseArchiveMethod(s string) (ArchiveMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "store":
		return ArchiveStore, nil
	case "deflate":
		return ArchiveDeflate, nil
	default:
		return 0, fmt.Errorf("invalid archive method: %q", s)
	}
}
