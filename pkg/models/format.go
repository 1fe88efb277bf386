package models

// Format is the single format of a publication row.
type Format int

const (
	FormatPhysical Format = iota
	FormatDigital
	FormatAudio
)

var formatNames = map[Format]string{
	FormatPhysical: "Physical",
	FormatDigital:  "Digital",
	FormatAudio:    "Audio",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "Unknown"
}

func (f Format) Valid() bool {
	_, ok := formatNames[f]
	return ok
}

// FormatFlags is the bitmask used by the upstream feed.
type FormatFlags int

const (
	FlagPhysical           FormatFlags = 1
	FlagDigital            FormatFlags = 2
	FlagAudio              FormatFlags = 4
	FlagPhysicalAndDigital             = FlagPhysical | FlagDigital
)

// Formats lists every format with the flag that selects it, in flag order.
var Formats = []struct {
	Flag   FormatFlags
	Format Format
}{
	{FlagPhysical, FormatPhysical},
	{FlagDigital, FormatDigital},
	{FlagAudio, FormatAudio},
}

// Split returns one Format per defined bit that is set. Undefined bits are
// ignored.
func (f FormatFlags) Split() []Format {
	var formats []Format
	for _, entry := range Formats {
		if f&entry.Flag != 0 {
			formats = append(formats, entry.Format)
		}
	}
	return formats
}
