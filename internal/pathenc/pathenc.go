// Package pathenc maps URL domains and paths onto filesystem paths that
// survive any filesystem, injectively. Components made only of safe runes
// pass through with a "_" prefix; anything else is base64url-encoded behind
// a "_.." prefix, so the two forms can never collide.
package pathenc

import (
	"encoding/base64"
	"path/filepath"
	"regexp"
	"strings"
)

var safeComponent = regexp.MustCompile(`^([a-zA-Z0-9-_:@]|\.[a-zA-Z0-9-_:@])[a-zA-Z0-9-_.:@]*$`)

// Component encodes one path component.
func Component(component string) string {
	if safeComponent.MatchString(component) {
		return "_" + component
	}
	return "_.." + base64.RawURLEncoding.EncodeToString([]byte(component))
}

// ComponentWithExt encodes one path component and appends an extension.
func ComponentWithExt(component, ext string) string {
	return Component(component) + "." + ext
}

// SafeJoin joins base, the encoded domain and the encoded components of
// urlPath into a filesystem path, giving the last component the extension.
// An empty urlPath yields a bare ".{ext}" file under the domain directory.
func SafeJoin(base, domain, urlPath, ext string) string {
	path := filepath.Join(base, Component(domain))

	last := ""
	for _, component := range strings.Split(urlPath, "/") {
		if component == "" {
			continue
		}
		if last != "" {
			path = filepath.Join(path, Component(last))
		}
		last = component
	}

	if last == "" {
		return filepath.Join(path, "."+ext)
	}
	return filepath.Join(path, ComponentWithExt(last, ext))
}
