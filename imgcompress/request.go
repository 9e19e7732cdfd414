package imgcompress

// MaxUploadSize is the hard ceiling on the size of a compressed image (8 MiB).
const MaxUploadSize = 8_388_608

const (
	MinQuality     = 1
	MaxQuality     = 100
	DefaultQuality = 70
)

// PNG optimization presets; higher presets try more candidate encodings.
const (
	PresetUnset   = 0
	MinPreset     = 1
	MaxPreset     = 6
	DefaultPreset = 2
)

// Request carries the caller’s compression knobs. Values are validated by the caller;
// the pipeline assumes Quality is within [MinQuality, MaxQuality] and Preset is either
// [PresetUnset] or within [MinPreset, MaxPreset].
type Request struct {
	// Quality applies to the lossy strategies (JPEG, WebP) only.
	Quality int

	// Preset applies to the lossless PNG strategy only.
	Preset int
}

// NewRequest returns a Request with the default quality and no preset.
func NewRequest() Request {
	return Request{Quality: DefaultQuality, Preset: PresetUnset}
}
