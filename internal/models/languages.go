package models

// DefaultLanguage is preselected on the dashboard.
const DefaultLanguage = "Spanish"

// Languages is the fixed set of translation targets.
var Languages = []string{
	"Spanish",
	"French",
	"German",
	"Italian",
	"Portuguese",
	"Japanese",
	"Hindi",
	"Polish",
}

func IsSupportedLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}
