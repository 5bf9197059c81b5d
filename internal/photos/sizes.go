package photos

// Size maps a Flickr size suffix to the published variant name
type Size struct {
	Code string
	Name string
}

// OriginalSize is the variant every published photo must have
const OriginalSize = "original"

// Sizes lists every known size variant, smallest first
var Sizes = []Size{
	{Code: "sq", Name: "sq_75px"},
	{Code: "q", Name: "sq_150px"},
	{Code: "t", Name: "100px"},
	{Code: "s", Name: "240px"},
	{Code: "n", Name: "320px"},
	{Code: "m", Name: "500px"},
	{Code: "z", Name: "640px"},
	{Code: "c", Name: "800px"},
	{Code: "l", Name: "1024px"},
	{Code: "h", Name: "1600px"},
	{Code: "k", Name: "2048px"},
	{Code: "o", Name: OriginalSize},
}

var sizeNames = func() map[string]bool {
	names := make(map[string]bool, len(Sizes))
	for _, s := range Sizes {
		names[s.Name] = true
	}
	return names
}()

// IsSizeName reports whether name is one of the published variant names
func IsSizeName(name string) bool {
	return sizeNames[name]
}
