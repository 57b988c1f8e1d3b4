package domain

import "strings"

// Engine represents an external conversion tool with declared
// input/output extension sets
type Engine struct {
	Name             string   `json:"name"`
	Command          string   `json:"command"`
	Disabled         bool     `json:"disabled,omitempty"`
	SupportedInputs  []string `json:"supported_inputs"`
	SupportedOutputs []string `json:"supported_outputs"`
}

// Engine names as they appear in the registry and in provisioning state
const (
	EngineFFmpeg      = "ffmpeg"
	EnginePandoc      = "pandoc"
	EngineImageMagick = "imagemagick"
	EngineLibreOffice = "libreoffice"
)

// SupportsInput reports whether the engine accepts the given input extension.
// Matching is case-insensitive.
func (e *Engine) SupportsInput(ext string) bool {
	return containsFold(e.SupportedInputs, ext)
}

// SupportsOutput reports whether the engine can produce the given extension.
func (e *Engine) SupportsOutput(ext string) bool {
	return containsFold(e.SupportedOutputs, ext)
}

func containsFold(set []string, ext string) bool {
	ext = strings.ToLower(ext)
	for _, s := range set {
		if s == ext {
			return true
		}
	}
	return false
}

// FormatOption is the per-format payload exposed to UI clients
type FormatOption struct {
	Format      string `json:"format"`
	Tool        string `json:"tool"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
}

// FormatRegistry holds the static engine list. Registry order is significant:
// it is the tie-break for routing decisions. The registry is initialized once
// at process start and never mutated afterwards.
type FormatRegistry struct {
	engines []Engine
}

// NewFormatRegistry creates a registry from the given engines, preserving order
func NewFormatRegistry(engines []Engine) *FormatRegistry {
	return &FormatRegistry{engines: engines}
}

// Engines returns the registered engines in registry order
func (r *FormatRegistry) Engines() []Engine {
	return r.engines
}

// AvailableOutputFormats returns the deduplicated union of output extensions
// reachable from the given input extension through any enabled engine. The
// input extension itself is never included. An empty result means no
// conversions are available for this extension, which is a normal state.
func (r *FormatRegistry) AvailableOutputFormats(inputExt string) []string {
	inputExt = strings.ToLower(strings.TrimPrefix(inputExt, "."))

	seen := make(map[string]bool)
	var formats []string
	for i := range r.engines {
		engine := &r.engines[i]
		if engine.Disabled || !engine.SupportsInput(inputExt) {
			continue
		}
		for _, out := range engine.SupportedOutputs {
			if out == inputExt || seen[out] {
				continue
			}
			seen[out] = true
			formats = append(formats, out)
		}
	}
	return formats
}

// EngineFor returns the first enabled engine in registry order whose input set
// contains inputExt and whose output set contains outputExt. It returns nil
// when no engine matches; that is a routing miss, not an error. The decision
// says nothing about whether the engine is currently installed.
// Converting an extension to itself is never routed, mirroring its absence
// from AvailableOutputFormats.
func (r *FormatRegistry) EngineFor(inputExt, outputExt string) *Engine {
	inputExt = strings.ToLower(strings.TrimPrefix(inputExt, "."))
	outputExt = strings.ToLower(strings.TrimPrefix(outputExt, "."))

	if inputExt == outputExt {
		return nil
	}

	for i := range r.engines {
		engine := &r.engines[i]
		if engine.Disabled {
			continue
		}
		if engine.SupportsInput(inputExt) && engine.SupportsOutput(outputExt) {
			return engine
		}
	}
	return nil
}

// FormatOptions wraps AvailableOutputFormats with display metadata for each
// reachable format, resolving the owning engine per format in registry order.
func (r *FormatRegistry) FormatOptions(inputExt string) []FormatOption {
	inputExt = strings.ToLower(strings.TrimPrefix(inputExt, "."))

	var options []FormatOption
	for _, format := range r.AvailableOutputFormats(inputExt) {
		engine := r.EngineFor(inputExt, format)
		if engine == nil {
			continue
		}
		display, color := formatDisplay(format)
		options = append(options, FormatOption{
			Format:      format,
			Tool:        engine.Name,
			DisplayName: display,
			Color:       color,
		})
	}
	return options
}

// formatDisplay returns the display name and accent color for a format,
// falling back to the upper-cased extension and a neutral color.
func formatDisplay(format string) (string, string) {
	if d, ok := formatDisplayTable[format]; ok {
		return d.name, d.color
	}
	return strings.ToUpper(format), defaultFormatColor
}

const defaultFormatColor = "#8e8e93"

var formatDisplayTable = map[string]struct {
	name  string
	color string
}{
	"mp4":  {"MP4 Video", "#ff6b35"},
	"mkv":  {"Matroska Video", "#2a9d8f"},
	"webm": {"WebM Video", "#4d96ff"},
	"mov":  {"QuickTime Movie", "#6c5ce7"},
	"avi":  {"AVI Video", "#e76f51"},
	"gif":  {"Animated GIF", "#f4a261"},
	"mp3":  {"MP3 Audio", "#e63946"},
	"wav":  {"WAV Audio", "#457b9d"},
	"flac": {"FLAC Audio", "#1d3557"},
	"aac":  {"AAC Audio", "#ff7b54"},
	"ogg":  {"Ogg Vorbis", "#588157"},
	"m4a":  {"M4A Audio", "#9d4edd"},
	"opus": {"Opus Audio", "#00b4d8"},
	"jpg":  {"JPEG Image", "#ffb703"},
	"jpeg": {"JPEG Image", "#ffb703"},
	"png":  {"PNG Image", "#219ebc"},
	"webp": {"WebP Image", "#06d6a0"},
	"tiff": {"TIFF Image", "#8338ec"},
	"bmp":  {"Bitmap Image", "#adb5bd"},
	"ico":  {"Windows Icon", "#5390d9"},
	"avif": {"AVIF Image", "#38b000"},
	"pdf":  {"PDF Document", "#d62828"},
	"docx": {"Word Document", "#2b6cb0"},
	"odt":  {"OpenDocument Text", "#0f766e"},
	"rtf":  {"Rich Text", "#7f5539"},
	"txt":  {"Plain Text", "#6c757d"},
	"html": {"HTML Document", "#e34c26"},
	"md":   {"Markdown", "#343a40"},
	"epub": {"EPUB Book", "#52b788"},
	"xlsx": {"Excel Spreadsheet", "#217346"},
	"ods":  {"OpenDocument Sheet", "#0f766e"},
	"csv":  {"CSV", "#495057"},
	"pptx": {"PowerPoint", "#c43e1c"},
	"odp":  {"OpenDocument Slides", "#0f766e"},
}

// DefaultRegistry returns the built-in engine registry. Pandoc stays in the
// registry for provisioning but is disabled for routing until document
// pipelines are re-enabled.
func DefaultRegistry() *FormatRegistry {
	return NewFormatRegistry([]Engine{
		{
			Name:    EngineFFmpeg,
			Command: "ffmpeg",
			SupportedInputs: []string{
				"mp4", "mkv", "avi", "mov", "webm", "flv", "wmv", "m4v",
				"mpg", "mpeg", "ts", "3gp",
				"mp3", "wav", "flac", "aac", "ogg", "m4a", "wma", "opus", "aiff",
				"gif",
			},
			SupportedOutputs: []string{
				"mp4", "mkv", "avi", "mov", "webm", "flv", "m4v", "mpg", "gif",
				"mp3", "wav", "flac", "aac", "ogg", "m4a", "opus",
			},
		},
		{
			Name:     EnginePandoc,
			Command:  "pandoc",
			Disabled: true,
			SupportedInputs: []string{
				"md", "markdown", "html", "htm", "docx", "odt", "rtf",
				"tex", "epub", "rst", "org", "txt",
			},
			SupportedOutputs: []string{
				"md", "html", "docx", "odt", "rtf", "pdf", "epub", "tex", "txt",
			},
		},
		{
			Name:    EngineLibreOffice,
			Command: "soffice",
			SupportedInputs: []string{
				"doc", "docx", "odt", "rtf", "txt",
				"xls", "xlsx", "ods", "csv",
				"ppt", "pptx", "odp",
			},
			SupportedOutputs: []string{
				"pdf", "docx", "odt", "doc", "rtf", "txt", "html",
				"xlsx", "ods", "csv", "pptx", "odp",
			},
		},
		{
			Name:    EngineImageMagick,
			Command: "magick",
			SupportedInputs: []string{
				"jpg", "jpeg", "png", "gif", "bmp", "tiff", "tif", "webp",
				"heic", "heif", "svg", "ico", "avif", "psd", "eps",
				"cr2", "nef", "arw", "dng",
			},
			SupportedOutputs: []string{
				"jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp", "ico",
				"avif", "pdf", "eps",
			},
		},
	})
}
