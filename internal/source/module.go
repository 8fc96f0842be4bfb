package source

import "strings"

// RootModule owns sources that live directly under "/".
const RootModule = "root"

// ModuleOf returns the module a source id belongs to.
// "/<module>/rest" belongs to <module>; "/file.pure" belongs to the root module.
func ModuleOf(sourceID string) string {
	if !strings.HasPrefix(sourceID, "/") {
		return ""
	}
	rest := sourceID[1:]
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return RootModule
	}
	return rest[:slash]
}

// InModule reports whether sourceID belongs to module. An empty module
// stands for the root module.
func InModule(sourceID, module string) bool {
	if module == "" {
		module = RootModule
	}
	owner := ModuleOf(sourceID)
	return owner != "" && owner == module
}
