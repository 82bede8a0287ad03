package environment

import "sort"

// pythonReserved holds Python keywords plus names the generated code relies
// on. Sona identifiers spelled like one of them get trailing underscores.
var pythonReserved = map[string]bool{
	"False": true, "None": true, "True": true,
	"and": true, "as": true, "assert": true, "async": true, "await": true,
	"break": true, "class": true, "continue": true, "def": true, "del": true,
	"elif": true, "else": true, "except": true, "finally": true, "for": true,
	"from": true, "global": true, "if": true, "import": true, "in": true,
	"is": true, "lambda": true, "nonlocal": true, "not": true, "or": true,
	"pass": true, "raise": true, "return": true, "try": true, "while": true,
	"with": true, "yield": true,
	"Exception": true, "__import__": true,
}

// escapeReserved picks a Python spelling for every reserved name in used.
// Underscores are appended until the spelling is not in used, and each
// chosen spelling is added to used.
func escapeReserved(used map[string]bool) map[string]string {
	var reserved []string
	for name := range used {
		if pythonReserved[name] {
			reserved = append(reserved, name)
		}
	}
	sort.Strings(reserved)

	escapes := make(map[string]string, len(reserved))
	for _, name := range reserved {
		escaped := name + "_"
		for used[escaped] {
			escaped += "_"
		}
		used[escaped] = true
		escapes[name] = escaped
	}
	return escapes
}

// PythonName maps a Sona name to the Python identifier the program uses for
// it. Attribute names go through here too, so a method and every access to
// it agree.
func (info *Info) PythonName(name string) string {
	if escaped, ok := info.escapes[name]; ok {
		return escaped
	}
	if pythonReserved[name] {
		return name + "_"
	}
	return name
}
