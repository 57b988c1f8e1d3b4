package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *FormatRegistry {
	return NewFormatRegistry([]Engine{
		{
			Name:             "alpha",
			Command:          "alpha",
			SupportedInputs:  []string{"jpg", "png"},
			SupportedOutputs: []string{"png", "webp"},
		},
		{
			Name:             "beta",
			Command:          "beta",
			SupportedInputs:  []string{"jpg"},
			SupportedOutputs: []string{"png", "tiff"},
		},
		{
			Name:             "gamma",
			Command:          "gamma",
			Disabled:         true,
			SupportedInputs:  []string{"jpg"},
			SupportedOutputs: []string{"bmp"},
		},
	})
}

func TestAvailableOutputFormats_Dedupes(t *testing.T) {
	r := testRegistry()

	formats := r.AvailableOutputFormats("jpg")

	// png is offered by both alpha and beta but must appear once
	count := 0
	for _, f := range formats {
		if f == "png" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Contains(t, formats, "webp")
	assert.Contains(t, formats, "tiff")
}

func TestAvailableOutputFormats_ExcludesInputExtension(t *testing.T) {
	r := testRegistry()

	formats := r.AvailableOutputFormats("png")

	assert.NotContains(t, formats, "png")
	assert.Contains(t, formats, "webp")
}

func TestAvailableOutputFormats_CaseInsensitive(t *testing.T) {
	r := testRegistry()

	assert.Equal(t, r.AvailableOutputFormats("jpg"), r.AvailableOutputFormats("JPG"))
	assert.Equal(t, r.AvailableOutputFormats("jpg"), r.AvailableOutputFormats(".jpg"))
}

func TestAvailableOutputFormats_UnknownExtension(t *testing.T) {
	r := testRegistry()

	formats := r.AvailableOutputFormats("xyz")

	// No conversions available is a normal, empty result
	assert.Empty(t, formats)
}

func TestAvailableOutputFormats_SkipsDisabledEngines(t *testing.T) {
	r := testRegistry()

	formats := r.AvailableOutputFormats("jpg")

	assert.NotContains(t, formats, "bmp")
}

func TestEngineFor_RegistryOrderTieBreak(t *testing.T) {
	r := testRegistry()

	// Both alpha and beta can take jpg to png; alpha registered first wins
	engine := r.EngineFor("jpg", "png")
	require.NotNil(t, engine)
	assert.Equal(t, "alpha", engine.Name)

	// Only beta takes jpg to tiff
	engine = r.EngineFor("jpg", "tiff")
	require.NotNil(t, engine)
	assert.Equal(t, "beta", engine.Name)
}

func TestEngineFor_NoMatch(t *testing.T) {
	r := testRegistry()

	assert.Nil(t, r.EngineFor("jpg", "mp4"))
	assert.Nil(t, r.EngineFor("xyz", "png"))
}

func TestEngineFor_NeverRoutesSelfConversion(t *testing.T) {
	r := testRegistry()

	// alpha lists png in both sets, but png to png is still a miss
	assert.Nil(t, r.EngineFor("png", "png"))
	assert.Nil(t, r.EngineFor("PNG", ".png"))
}

func TestEngineFor_IgnoresDisabled(t *testing.T) {
	r := testRegistry()

	assert.Nil(t, r.EngineFor("jpg", "bmp"))
}

func TestEngineFor_CaseInsensitive(t *testing.T) {
	r := testRegistry()

	engine := r.EngineFor("JPG", ".WEBP")
	require.NotNil(t, engine)
	assert.Equal(t, "alpha", engine.Name)
}

func TestFormatOptions(t *testing.T) {
	r := testRegistry()

	options := r.FormatOptions("jpg")
	require.NotEmpty(t, options)

	byFormat := make(map[string]FormatOption)
	for _, o := range options {
		byFormat[o.Format] = o
	}

	png, ok := byFormat["png"]
	require.True(t, ok)
	assert.Equal(t, "alpha", png.Tool)
	assert.Equal(t, "PNG Image", png.DisplayName)
	assert.NotEmpty(t, png.Color)

	// Unknown display entries fall back to the upper-cased extension
	tiff, ok := byFormat["tiff"]
	require.True(t, ok)
	assert.Equal(t, "TIFF Image", tiff.DisplayName)
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	// FFmpeg handles container conversions
	engine := r.EngineFor("mkv", "mp4")
	require.NotNil(t, engine)
	assert.Equal(t, EngineFFmpeg, engine.Name)

	// ImageMagick handles raster conversions
	engine = r.EngineFor("png", "webp")
	require.NotNil(t, engine)
	assert.Equal(t, EngineImageMagick, engine.Name)

	// Pandoc is present but disabled for routing
	assert.Nil(t, r.EngineFor("md", "epub"))
	var pandoc *Engine
	engines := r.Engines()
	for i := range engines {
		if engines[i].Name == EnginePandoc {
			pandoc = &engines[i]
		}
	}
	require.NotNil(t, pandoc)
	assert.True(t, pandoc.Disabled)
}

func TestDefaultRegistry_NoSelfConversion(t *testing.T) {
	r := DefaultRegistry()

	for _, engine := range r.Engines() {
		for _, in := range engine.SupportedInputs {
			assert.NotContains(t, r.AvailableOutputFormats(in), in)
		}
	}
}
