package models

// TeamNames maps the short team codes used throughout the dataset to
// display names for prompts and API responses.
var TeamNames = map[string]string{
	"ADKR": "Abu Dhabi Knight Riders",
	"DC":   "Desert Capitals",
	"GG":   "Gulf Giants",
	"MIE":  "MI Emirates",
	"SW":   "Sharjah Warriors",
	"DV":   "Dubai Vipers",
}

// TeamDisplayName resolves a team code to its display name, falling back
// to the code itself for teams outside the directory.
func TeamDisplayName(code string) string {
	if name, ok := TeamNames[code]; ok {
		return name
	}
	return code
}
