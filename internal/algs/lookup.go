package algs

// Algorithm is a named move sequence for a last-layer case.
type Algorithm struct {
	Name  string
	Moves string
}

// OLL and PLL are small, illustrative subsets of the full 57/21-case sets,
// enough to exercise the lookup path end to end.
var OLL = map[string]Algorithm{
	"OLL-21": {Name: "OLL 21 (H)", Moves: "R U2 R2 U' R2 U' R2 U2 R"},
	"OLL-27": {Name: "OLL 27 (Sune)", Moves: "R U R' U R U2 R'"},
	"OLL-26": {Name: "OLL 26 (Anti-Sune)", Moves: "R U2 R' U' R U' R'"},
}

var PLL = map[string]Algorithm{
	"PLL-Ua": {Name: "PLL Ua", Moves: "R U' R U R U R U' R' U' R2"},
	"PLL-T":  {Name: "PLL T", Moves: "R U R' U' R' F R2 U' R' U' R U R' F'"},
	"PLL-H":  {Name: "PLL H", Moves: "M2 U M2 U2 M2 U M2"},
}

// Lookup finds a named algorithm across both tables.
func Lookup(id string) (Algorithm, bool) {
	if a, ok := OLL[id]; ok {
		return a, true
	}
	a, ok := PLL[id]
	return a, ok
}
