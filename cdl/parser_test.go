package cdl

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qri-io/ncdiff"
)

// obsCDL is `ncdump -hs` output for a netCDF-4 file with groups
const obsCDL = `netcdf obs {
types:
  ubyte enum flag_t {clear = 0, cloudy = 1} ;
dimensions:
	time = UNLIMITED ; // (24 currently)
	lat = 180 ;
	lon = 360 ;
variables:
	double time(time) ;
		time:units = "hours since 2024-01-01" ;
		time:_Storage = "chunked" ;
		time:_ChunkSizes = 512 ;
	float temp(time, lat, lon) ;
		temp:units = "K" ;
		temp:_FillValue = NaNf ;
		temp:valid_range = 180.f, 340.f ;
		temp:scale_factor = 0.01 ;
		temp:_Storage = "chunked" ;
		temp:_ChunkSizes = 1, 90, 180 ;
		temp:_DeflateLevel = 4 ;
		temp:_Shuffle = "true" ;
		temp:_Endianness = "little" ;
	int crs ;
		crs:grid_mapping_name = "latitude_",
			"longitude" ;
	flag_t qc(time) ;
		flag_t qc:flag = cloudy ;

// global attributes:
		:title = "hourly observations" ;
		string :history = "created", "regridded" ;
		:version = 3s ;
		:count = 7ULL ;
		:offset = -2147483648 ;
		:_NCProperties = "version=2,netcdf=4.9.2,hdf5=1.14.0" ;
		:_SuperblockVersion = 2 ;
		:_IsNetcdf4 = 1 ;
		:_Format = "netCDF-4" ;

group: forecast {
  dimensions:
  	step = 6 ;
  variables:
  	float precip(step, lat, lon) ;
  		precip:units = "mm" ;
  		precip:missing_value = -999.f ;
  		precip:_QuantizeBitGroomNumberOfSignificantDigits = 3 ;

  // group attributes:
  		:members = 1b, 2b, 3b ;
  		:min = -Infinity ;

  group: ensemble {

    // group attributes:
    		:size = 4 ;
    } // group ensemble
  } // group forecast
}
`

func TestParse(t *testing.T) {
	expect := &ncdiff.Group{
		Name: "obs",
		Dimensions: []ncdiff.DimensionInfo{
			{Name: "time", Size: 24, Unlimited: true},
			{Name: "lat", Size: 180},
			{Name: "lon", Size: 360},
		},
		Variables: []*ncdiff.Variable{
			{
				VariableInfo: ncdiff.VariableInfo{Name: "time", DType: "double", Dimensions: []string{"time"}, Chunking: []int{512}},
				Attributes:   ncdiff.Attributes{"units": "hours since 2024-01-01"},
			},
			{
				VariableInfo: ncdiff.VariableInfo{Name: "temp", DType: "float", Dimensions: []string{"time", "lat", "lon"}, Chunking: []int{1, 90, 180}},
				Attributes: ncdiff.Attributes{
					"units":        "K",
					"_FillValue":   float32(math.NaN()),
					"valid_range":  []interface{}{float32(180), float32(340)},
					"scale_factor": 0.01,
				},
			},
			{
				VariableInfo: ncdiff.VariableInfo{Name: "crs", DType: "int"},
				Attributes:   ncdiff.Attributes{"grid_mapping_name": "latitude_longitude"},
			},
			{
				VariableInfo: ncdiff.VariableInfo{Name: "qc", DType: "flag_t", Dimensions: []string{"time"}},
				Attributes:   ncdiff.Attributes{"flag": "cloudy"},
			},
		},
		Attributes: ncdiff.Attributes{
			"title":   "hourly observations",
			"history": []interface{}{"created", "regridded"},
			"version": int16(3),
			"count":   uint64(7),
			"offset":  int32(-2147483648),
		},
		Groups: []*ncdiff.Group{{
			Name:       "forecast",
			Dimensions: []ncdiff.DimensionInfo{{Name: "step", Size: 6}},
			Variables: []*ncdiff.Variable{{
				VariableInfo: ncdiff.VariableInfo{Name: "precip", DType: "float", Dimensions: []string{"step", "lat", "lon"}},
				Attributes:   ncdiff.Attributes{"units": "mm", "missing_value": float32(-999)},
			}},
			Attributes: ncdiff.Attributes{
				"members": []interface{}{int8(1), int8(2), int8(3)},
				"min":     math.Inf(-1),
			},
			Groups: []*ncdiff.Group{{
				Name:       "ensemble",
				Attributes: ncdiff.Attributes{"size": int32(4)},
			}},
		}},
	}

	got, err := Parse(obsCDL)
	require.NoError(t, err)
	if diff := cmp.Diff(expect, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSections(t *testing.T) {
	cases := []struct {
		description string
		input       string
		expect      *ncdiff.Group
	}{
		{"empty", "netcdf empty {\n}\n", &ncdiff.Group{Name: "empty"}},
		{"dimension list", "netcdf x {\ndimensions:\n\ta = 2, b = 3, t = UNLIMITED ; // (0 currently)\n}", &ncdiff.Group{
			Name: "x",
			Dimensions: []ncdiff.DimensionInfo{
				{Name: "a", Size: 2},
				{Name: "b", Size: 3},
				{Name: "t", Size: 0, Unlimited: true},
			},
		}},
		{"unlimited without length", "netcdf x {\ndimensions:\n\tt = UNLIMITED ;\n}", &ncdiff.Group{
			Name:       "x",
			Dimensions: []ncdiff.DimensionInfo{{Name: "t", Size: ncdiff.Unlimited, Unlimited: true}},
		}},
		{"declaration list", "netcdf x {\nvariables:\n\tint a, b(t) ;\n}", &ncdiff.Group{
			Name: "x",
			Variables: []*ncdiff.Variable{
				{VariableInfo: ncdiff.VariableInfo{Name: "a", DType: "int"}},
				{VariableInfo: ncdiff.VariableInfo{Name: "b", DType: "int", Dimensions: []string{"t"}}},
			},
		}},
		{"variable named data", `netcdf x {
variables:
	int data ;
		data:units = "m" ;
data:

 data = 1, 2, 3 ;
}`, &ncdiff.Group{
			Name: "x",
			Variables: []*ncdiff.Variable{{
				VariableInfo: ncdiff.VariableInfo{Name: "data", DType: "int"},
				Attributes:   ncdiff.Attributes{"units": "m"},
			}},
		}},
		{"escaped names", `netcdf x {
variables:
	float \2m_temp ;
		\2m_temp:long\ name = "two metre" ;
}`, &ncdiff.Group{
			Name: "x",
			Variables: []*ncdiff.Variable{{
				VariableInfo: ncdiff.VariableInfo{Name: "2m_temp", DType: "float"},
				Attributes:   ncdiff.Attributes{"long name": "two metre"},
			}},
		}},
		{"typed values", `netcdf x {
variables:
	int v ;
		ubyte v:a = 200 ;
		int64 v:b = 9000000000 ;
		double v:c = 1 ;
		ushort v:d = 7US ;

// global attributes:
		uint :e = 4000000000U ;
		:f = 1.5e+36 ;
		:g = -1L ;
}`, &ncdiff.Group{
			Name: "x",
			Variables: []*ncdiff.Variable{{
				VariableInfo: ncdiff.VariableInfo{Name: "v", DType: "int"},
				Attributes: ncdiff.Attributes{
					"a": uint8(200),
					"b": int64(9000000000),
					"c": float64(1),
					"d": uint16(7),
				},
			}},
			Attributes: ncdiff.Attributes{
				"e": uint32(4000000000),
				"f": 1.5e+36,
				"g": int32(-1),
			},
		}},
	}

	for i, c := range cases {
		got, err := Parse(c.input)
		if err != nil {
			t.Fatalf("%d. %s unexpected error: %s", i, c.description, err)
		}
		if diff := cmp.Diff(c.expect, got); diff != "" {
			t.Errorf("%d. %s result mismatch (-want +got):\n%s", i, c.description, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		input string
		err   string
	}{
		{"", "cdl 1:1: expected IDENT, got EOF"},
		{"netcdf x {", `cdl 1:11: unexpected end of input in group "x"`},
		{"netcdf x {\nvariables:\n\tt:units = \"K\" ;\n}", `cdl 3:4: attribute "units" of undeclared variable "t"`},
		{"netcdf x {\ndimensions:\n\ta = b ;\n}", `cdl 3:6: expected dimension size, got IDENT("b")`},
		{"netcdf x {\n:a = \"unterminated\n}", "cdl 2:6: unterminated string"},
		{"netcdf x {\n} extra", `cdl 2:3: unexpected IDENT("extra") after dataset`},
		{"netcdf x {\n:a = \"K\", 1 ;\n}", `cdl 2:6: attribute "a": mixed text & numeric values`},
		{"netcdf x {\n:a = 300b ;\n}", `cdl 2:6: attribute "a": strconv.ParseInt: parsing "300": value out of range`},
		{"hdf5 x {\n}", `cdl 1:1: expected "netcdf", got "hdf5"`},
	}

	for i, c := range cases {
		_, err := Parse(c.input)
		if err == nil {
			t.Errorf("%d. expected error, got nil", i)
			continue
		}
		var perr *ParseError
		assert.True(t, errors.As(err, &perr), "case %d: expected a *ParseError", i)
		assert.Equal(t, c.err, err.Error(), "case %d", i)
	}
}

func TestDecode(t *testing.T) {
	g, err := Decode(strings.NewReader(obsCDL))
	require.NoError(t, err)
	groups, dims, vars := g.Count()
	assert.Equal(t, 3, groups)
	assert.Equal(t, 4, dims)
	assert.Equal(t, 5, vars)
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		lit, suffix string
		typed       bool
		expect      interface{}
	}{
		{"1", "", false, int32(1)},
		{"1.", "", false, float64(1)},
		{"-999.f", "", false, float32(-999)},
		{"2.5d", "", false, 2.5},
		{"3UB", "", false, uint8(3)},
		{"4us", "", false, uint16(4)},
		{"5LL", "", false, int64(5)},
		{"6ull", "", false, uint64(6)},
		{"-7b", "", false, int8(-7)},
		{"8", "s", true, int16(8)},
		{"9", "d", true, float64(9)},
		{"Infinityf", "", false, float32(math.Inf(1))},
		{"-inf", "", false, math.Inf(-1)},
	}

	for _, c := range cases {
		got, err := parseNumber(c.lit, c.suffix, c.typed)
		require.NoError(t, err, c.lit)
		assert.Equal(t, c.expect, got, c.lit)
	}

	_, err := parseNumber("12xyz", "", false)
	assert.Error(t, err)
}
