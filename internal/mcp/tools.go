package mcp

// GenerateInput represents input for the generate_playlist tool
type GenerateInput struct {
	RomDir      string `json:"rom_dir" jsonschema:"root directory to scan for ROM files"`
	OutputDir   string `json:"output_dir" jsonschema:"directory the playlist is written to"`
	OutputName  string `json:"output_name" jsonschema:"playlist file name without the .lpl extension"`
	Extension   string `json:"extension" jsonschema:"file extension to look for, e.g. .iso"`
	DBName      string `json:"db_name,omitempty" jsonschema:"database name stored in every item, e.g. Sony - PlayStation 2.lpl"`
	UseCRC32    bool   `json:"use_crc32,omitempty" jsonschema:"compute CRC32 checksums instead of writing DETECT"`
	HandleZip   bool   `json:"handle_zip,omitempty" jsonschema:"also add zip archives, using one member per archive"`
	ZipPathMode string `json:"zip_path_mode,omitempty" jsonschema:"path written for zip items: member (default), archive or extracted"`
	ZipMember   string `json:"zip_member,omitempty" jsonschema:"zip member selection: first (default), match or largest"`
	DryRun      bool   `json:"dry_run,omitempty" jsonschema:"scan without writing the playlist"`
}

// GenerateOutput represents output from the generate_playlist tool
type GenerateOutput struct {
	OutputPath string        `json:"output_path,omitempty"`
	Written    bool          `json:"written"`
	Recorded   int           `json:"recorded"`
	Ignored    int           `json:"ignored"`
	Failed     int           `json:"failed"`
	Failures   []FailureInfo `json:"failures,omitempty"`
}

// FailureInfo describes a file that could not be added
type FailureInfo struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// ChecksumInput represents input for the checksum tool
type ChecksumInput struct {
	Path      string `json:"path" jsonschema:"file to checksum"`
	ZipMember string `json:"zip_member,omitempty" jsonschema:"for .zip files: first (default), match or largest"`
	Extension string `json:"extension,omitempty" jsonschema:"target extension used by the match selection"`
}

// ChecksumOutput represents output from the checksum tool
type ChecksumOutput struct {
	Path   string `json:"path"`
	CRC32  string `json:"crc32"`
	Member string `json:"member,omitempty"`
}

// ReadPlaylistInput represents input for the read_playlist tool
type ReadPlaylistInput struct {
	Path string `json:"path" jsonschema:"path of the .lpl file"`
}

// ReadPlaylistOutput represents output from the read_playlist tool
type ReadPlaylistOutput struct {
	Version string     `json:"version"`
	Items   []ItemInfo `json:"items"`
	Total   int        `json:"total"`
}

// ItemInfo represents a single playlist item
type ItemInfo struct {
	Path   string `json:"path"`
	Label  string `json:"label"`
	CRC32  string `json:"crc32"`
	DBName string `json:"db_name"`
}
