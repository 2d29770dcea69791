// Public domain.

package nirspec

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"refconv/reffile"
)

// Default instrument configurations converted by BuildAll.
var (
	DefaultFilters  = []string{"CLEAR", "F070LP", "F100LP", "F110W", "F140X", "F170LP", "F290LP"}
	DefaultGratings = []string{"G140H", "G140M", "G235H", "G235M", "G395H", "G395M", "MIRROR"}
)

// BuildConfig locates a calibration delivery tree and sets the
// metadata common to every file of a build.
type BuildConfig struct {
	SrcDir   string   `yaml:"src_dir"`
	OutDir   string   `yaml:"out_dir"`
	Author   string   `yaml:"author"`
	Useafter string   `yaml:"useafter"`
	Filters  []string `yaml:"filters,omitempty"`
	Gratings []string `yaml:"gratings,omitempty"`
}

// LoadBuildConfig reads a build configuration from a YAML file and
// fills defaults.
func LoadBuildConfig(path string) (*BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg BuildConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.SrcDir == "" {
		return nil, fmt.Errorf("%s: src_dir is required", path)
	}
	cfg.fillDefaults()
	return &cfg, nil
}

func (cfg *BuildConfig) fillDefaults() {
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}
	if cfg.Author == "" {
		cfg.Author = "NIRSPEC team"
	}
	if cfg.Useafter == "" {
		cfg.Useafter = "2000-01-01T00:00:00"
	}
	if len(cfg.Filters) == 0 {
		cfg.Filters = DefaultFilters
	}
	if len(cfg.Gratings) == 0 {
		cfg.Gratings = DefaultGratings
	}
}

func (cfg *BuildConfig) meta(reftype, title, description, expType, outName string) reffile.Meta {
	m := reffile.NewMeta(reftype, title, description, expType,
		cfg.Useafter, cfg.Author, outName)
	m.Instrument = reffile.Instrument{Name: "NIRSPEC"}
	return m
}

// BuildAll converts a complete calibration delivery, one reference
// file per model, stopping at the first failure.  Output files are
// written to cfg.OutDir under standard names.
func BuildAll(cfg *BuildConfig, log zerolog.Logger) error {
	cfg.fillDefaults()
	out := func(name string) string { return filepath.Join(cfg.OutDir, name) }
	src := func(parts ...string) string {
		return filepath.Join(append([]string{cfg.SrcDir}, parts...)...)
	}
	step := func(reftype, outName string, fn func() error) error {
		log.Info().Str("reftype", reftype).Str("out", outName).Msg("converting")
		if err := fn(); err != nil {
			log.Error().Str("reftype", reftype).Err(err).Msg("conversion failed")
			return fmt.Errorf("%s file was not converted: %w", reftype, err)
		}
		return nil
	}

	name := "nirspec_camera.yaml"
	meta := cfg.meta("camera", "NIRSPEC Camera Model - CDP4",
		"Cold asbuilt CAM transform, distortion fitted with FM2 CAL phase data.",
		"N/A", name)
	if err := step("camera", name, func() error {
		return ConvertPCF(src("CoordTransform", "Camera.pcf"), out(name), meta)
	}); err != nil {
		return err
	}

	name = "nirspec_collimator.yaml"
	meta = cfg.meta("collimator", "NIRSPEC Collimator Model - CDP4",
		"Cold asbuilt COL transform, distortion fitted with FM2 CAL phase data.",
		"N/A", name)
	if err := step("collimator", name, func() error {
		return ConvertPCF(src("CoordTransform", "Collimator.pcf"), out(name), meta)
	}); err != nil {
		return err
	}

	name = "nirspec_wavelengthrange.yaml"
	meta = cfg.meta("wavelengthrange", "NIRSPEC Spectral Configurations - CDP4",
		"Spectral configurations and scientific ranges.", "N/A", name)
	if err := step("wavelengthrange", name, func() error {
		return ConvertWavelengthRange(src("spectralconfigurations.txt"), out(name), meta)
	}); err != nil {
		return err
	}

	name = "nirspec_msa.yaml"
	meta = cfg.meta("msa", "NIRSPEC MSA Description - CDP4",
		"MSA model, fitted with FM2 CAL phase data.", "N/A", name)
	if err := step("msa", name, func() error {
		return ConvertMSA(src("Description", "MSA.msa"), out(name), meta)
	}); err != nil {
		return err
	}

	name = "nirspec_fpa.yaml"
	meta = cfg.meta("fpa", "NIRSPEC FPA Description - CDP4",
		"FPA model, fitted with FM2 CAL phase data.", "N/A", name)
	if err := step("fpa", name, func() error {
		return ConvertFPA(src("Description", "FPA.fpa"), out(name), meta)
	}); err != nil {
		return err
	}

	for _, filter := range cfg.Filters {
		name = fmt.Sprintf("nirspec_fore_%s.yaml", filter)
		meta = cfg.meta("fore", "NIRSPEC FORE Model - CDP4",
			"FORE transform.", "N/A", name)
		meta.Instrument.Filter = filter
		fname := fmt.Sprintf("Fore_%s.pcf", filter)
		if err := step("fore", name, func() error {
			return ConvertFore(src("CoordTransform", fname), out(name), meta)
		}); err != nil {
			return err
		}
	}

	for _, grating := range cfg.Gratings {
		name = fmt.Sprintf("nirspec_disperser_%s.yaml", grating)
		meta = cfg.meta("disperser", "NIRSPEC Disperser Description - CDP4",
			"Grating as built description, tilt x/y/z fitted with FM2 CAL phase data.",
			"N/A", name)
		meta.Instrument.Grating = grating
		dis := src("Description", "disperser_"+grating+".dis")
		tiltY := src("Description", "disperser_"+grating+"_TiltY.gtp")
		tiltX := src("Description", "disperser_"+grating+"_TiltX.gtp")
		if err := step("disperser", name, func() error {
			return ConvertDisperser(dis, tiltY, tiltX, out(name), meta)
		}); err != nil {
			return err
		}
	}

	name = "nirspec_ote.yaml"
	meta = cfg.meta("ote", "NIRSPEC OTE Model - CDP4",
		"As-designed OTE coordinate transform from cold Zemax model.", "N/A", name)
	if err := step("ote", name, func() error {
		return ConvertOTE(src("CoordTransform", "OTE.pcf"), out(name), meta)
	}); err != nil {
		return err
	}

	name = "nirspec_ifufore.yaml"
	meta = cfg.meta("ifufore", "NIRSPEC IFU FORE Model - CDP4",
		"IFU FORE transform.", "NRS_IFU", name)
	if err := step("ifufore", name, func() error {
		return ConvertFore(src("CoordTransform", "IFU", "IFU_FORE.pcf"), out(name), meta)
	}); err != nil {
		return err
	}

	name = "nirspec_ifupost.yaml"
	meta = cfg.meta("ifupost", "NIRSPEC IFU-POST transforms - CDP4",
		"Cold design IFU transform, cout x+y fitted with FF/Argon/IMA exposures.",
		"NRS_IFU", name)
	if err := step("ifupost", name, func() error {
		posts, err := filepath.Glob(src("CoordTransform", "IFU", "IFU-POST*"))
		if err != nil {
			return err
		}
		return ConvertIFUPost(posts, out(name), meta)
	}); err != nil {
		return err
	}

	name = "nirspec_ifuslicer.yaml"
	meta = cfg.meta("ifuslicer", "NIRSPEC IFU SLICER description - CDP4",
		"Perfect slicer with 30 slices of size of 0.8 mm x 12 mm. No tilt.",
		"NRS_IFU", name)
	return step("ifuslicer", name, func() error {
		return ConvertIFUSlicer(src("Description", "IFU_slicer.sgd"), out(name), meta)
	})
}
