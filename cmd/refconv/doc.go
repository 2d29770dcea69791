// Public domain.

/*
Refconv converts instrument team calibration deliveries into
standardized reference files.

Command line usage

	refconv nirspec [-c build.yaml]
	refconv niriss grism CONFFILE [-o specwcs.yaml]
	refconv niriss waverange [-o waverange.yaml]
	refconv version

NIRSpec deliveries

The nirspec subcommand converts a complete coordinate transform
delivery in one run: camera, collimator, FORE filter transforms,
disperser descriptions with their tilt calibrations, OTE and FPA
models, MSA and IFU geometry, and the spectral configurations table.
The build configuration file locates the delivery and sets the
metadata common to every output:

	src_dir: /data/nirspec-model-2014
	out_dir: ref
	author: NIRSPEC team
	useafter: "2000-01-01T00:00:00"

filters and gratings may be given to restrict the run; they default to
the full flight complement.  Conversion stops at the first file that
fails to parse, and no partial output file is ever left behind.

NIRISS grism configurations

The niriss grism subcommand converts one trace configuration file per
blocking filter.  Filter and grism names default to the first two
dot-separated fields of the file name, so

	refconv niriss grism F090W.GR150R.conf

names the output model for filter F090W and grism GR150R.  Sensitivity
table references in the configuration file are dropped; wavelengths
are converted from Angstroms to microns.

Output format

Outputs are YAML documents with a standardized metadata block, an
append-only history log, and the converted models serialized as
mappings keyed by transform kind, reconstructible without reference to
the producing code.
*/
package main
