package extractor

import "github.com/gnana997/varscan/pkg/parser"

// Summarize counts variables by type, declaration type and scope.
// The map key is the file path; every entry counts as one file.
func Summarize(results map[string][]parser.VariableInfo) Summary {
	s := Summary{
		Files:         len(results),
		ByType:        make(map[string]int),
		ByDeclaration: make(map[string]int),
		ByScope:       make(map[string]int),
	}

	for _, vars := range results {
		for _, v := range vars {
			s.Variables++
			s.ByType[v.Type]++
			s.ByDeclaration[v.DeclarationType]++
			s.ByScope[v.Scope]++
		}
	}
	return s
}
