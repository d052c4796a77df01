package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSampleType(t *testing.T) {
	tests := []struct {
		st        SampleType
		size      int
		label     string
		fieldType string
		str       string
	}{
		{SampleInt32, 4, "INTEGER", "integer", "i"},
		{SampleFloat32, 4, "FLOAT", "float", "f"},
		{SampleFloat64, 8, "FLOAT", "float", "d"},
		{SampleASCII, 1, "ASCII", "string", "a"},
		{SampleType('x'), 0, "UNKNOWN", "unknown", "Unknown(0x78)"},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			require.Equal(t, tt.size, tt.st.Size())
			require.Equal(t, tt.size != 0, tt.st.Valid())
			require.Equal(t, tt.label, tt.st.Label())
			require.Equal(t, tt.fieldType, tt.st.FieldType())
			require.Equal(t, tt.str, tt.st.String())
		})
	}
}

func TestHeaderDialect(t *testing.T) {
	require.Equal(t, "txt", DialectSimple.Extension())
	require.Equal(t, "csv", DialectGeoCSV.Extension())
	require.Equal(t, "GeoCSV", DialectGeoCSV.String())
	require.Equal(t, "Unknown", HeaderDialect(9).String())
}

func TestParseLayout(t *testing.T) {
	for _, s := range []string{"1", "slist", " SLIST "} {
		l, err := ParseLayout(s)
		require.NoError(t, err)
		require.Equal(t, LayoutSampleList, l)
	}
	for _, s := range []string{"2", "tspair", "TSPair"} {
		l, err := ParseLayout(s)
		require.NoError(t, err)
		require.Equal(t, LayoutTimeSamplePair, l)
	}

	_, err := ParseLayout("3")
	require.Error(t, err)
	require.Equal(t, "TSPAIR", LayoutTimeSamplePair.String())
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("")
	require.NoError(t, err)
	require.Equal(t, DialectSimple, d)

	d, err = ParseDialect("GeoCSV")
	require.NoError(t, err)
	require.Equal(t, DialectGeoCSV, d)

	_, err = ParseDialect("xml")
	require.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	tests := map[string]CompressionType{
		"":     CompressionNone,
		"none": CompressionNone,
		"zstd": CompressionZstd,
		"ZST":  CompressionZstd,
		"s2":   CompressionS2,
		"lz4":  CompressionLZ4,
	}
	for in, want := range tests {
		got, err := ParseCompression(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseCompression("gzip")
	require.Error(t, err)
	require.Equal(t, "LZ4", CompressionLZ4.String())
}

func TestParseArchiveMethod(t *testing.T) {
	m, err := ParseArchiveMethod("")
	require.NoError(t, err)
	require.Equal(t, ArchiveStore, m)

	m, err = ParseArchiveMethod("Deflate")
	require.NoError(t, err)
	require.Equal(t, ArchiveDeflate, m)
	require.Equal(t, "Deflate", m.String())

	_, err = ParseArchiveMethod("bzip2")
	require.Error(t, err)
}
