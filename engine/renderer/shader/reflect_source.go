package shader

import (
	"regexp"
	"strconv"
	"strings"
)

// wgslMember is one struct member or function parameter of a WGSL declaration.
type wgslMember struct {
	name string
	// typ is the member type with all whitespace removed, e.g. "array<PointLight,32>".
	typ string
	// location is the @location index, or -1 without one.
	location int
	builtin  bool
}

// wgslStruct is a struct declaration and its members in declaration order.
type wgslStruct struct {
	name    string
	members []wgslMember
}

// resourceDecl is a module-scope @group/@binding variable.
type resourceDecl struct {
	group   int
	binding int
	// space is the var<> template, e.g. "uniform" or "storage,read"; empty for handle types.
	space string
	name  string
	typ   string
}

var (
	structHeadRegex = regexp.MustCompile(`\bstruct\s+(\w+)\s*\{`)
	fnNameRegex     = regexp.MustCompile(`\bfn\s+(\w+)`)
)

// stripComments removes line and block comments in a single pass. Block comments nest.
// Newlines inside comments are kept so offsets into lines stay meaningful.
//
// Parameters:
//   - src: raw WGSL source
//
// Returns:
//   - string: the source without comments
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	depth := 0
	for i := 0; i < len(src); i++ {
		switch {
		case strings.HasPrefix(src[i:], "/*"):
			depth++
			i++
		case depth > 0 && strings.HasPrefix(src[i:], "*/"):
			depth--
			i++
		case depth > 0:
			if src[i] == '\n' {
				b.WriteByte('\n')
			}
		case strings.HasPrefix(src[i:], "//"):
			nl := strings.IndexByte(src[i:], '\n')
			if nl < 0 {
				return b.String()
			}
			i += nl - 1
		default:
			b.WriteByte(src[i])
		}
	}
	return b.String()
}

// compactType drops every whitespace character from a type expression.
func compactType(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// splitList splits s at commas outside any <> or () nesting.
func splitList(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			depth = max(depth-1, 0)
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// cutAttribute splits the attribute at the start of s (without its '@') into its name, the
// text between its parentheses and whatever follows.
func cutAttribute(s string) (name, args, rest string) {
	end := 0
	for end < len(s) && isIdentByte(s[end]) {
		end++
	}
	name, rest = s[:end], s[end:]
	trimmed := strings.TrimLeft(rest, " \t\r\n")
	if strings.HasPrefix(trimmed, "(") {
		if closing := strings.IndexByte(trimmed, ')'); closing >= 0 {
			return name, strings.TrimSpace(trimmed[1:closing]), trimmed[closing+1:]
		}
	}
	return name, "", rest
}

// parseMember reads "@attr(...)* name: type" as found in struct bodies and parameter lists.
//
// Parameters:
//   - decl: one comma-separated member declaration
//
// Returns:
//   - wgslMember: the parsed member
//   - bool: false for blank or malformed declarations
func parseMember(decl string) (wgslMember, bool) {
	m := wgslMember{location: -1}
	rest := strings.TrimSpace(decl)
	for strings.HasPrefix(rest, "@") {
		var name, args string
		name, args, rest = cutAttribute(rest[1:])
		switch name {
		case "location":
			if n, err := strconv.Atoi(args); err == nil {
				m.location = n
			}
		case "builtin":
			m.builtin = true
		}
		rest = strings.TrimSpace(rest)
	}

	name, typ, ok := strings.Cut(rest, ":")
	if !ok {
		return m, false
	}
	m.name = strings.TrimSpace(name)
	m.typ = compactType(typ)
	return m, m.name != "" && m.typ != ""
}

// scanStructs returns every struct declared in src, keyed by name.
func scanStructs(src string) map[string]wgslStruct {
	structs := make(map[string]wgslStruct)
	for _, loc := range structHeadRegex.FindAllStringSubmatchIndex(src, -1) {
		bodyStart := loc[1]
		bodyLen := strings.IndexByte(src[bodyStart:], '}')
		if bodyLen < 0 {
			continue
		}
		s := wgslStruct{name: src[loc[2]:loc[3]]}
		for _, decl := range splitList(src[bodyStart : bodyStart+bodyLen]) {
			if m, ok := parseMember(decl); ok {
				s.members = append(s.members, m)
			}
		}
		structs[s.name] = s
	}
	return structs
}

// scanResources returns every @group/@binding variable declared in src, in source order.
func scanResources(src string) []resourceDecl {
	var decls []resourceDecl
	for off := 0; ; {
		i := strings.Index(src[off:], "@group")
		if i < 0 {
			return decls
		}
		start := off + i
		end := strings.IndexByte(src[start:], ';')
		if end < 0 {
			return decls
		}
		off = start + end + 1
		if d, ok := parseResource(src[start : start+end]); ok {
			decls = append(decls, d)
		}
	}
}

// parseResource reads "@group(G) @binding(B) var<space> name: type".
func parseResource(decl string) (resourceDecl, bool) {
	d := resourceDecl{group: -1, binding: -1}
	rest := strings.TrimSpace(decl)
	for strings.HasPrefix(rest, "@") {
		var name, args string
		name, args, rest = cutAttribute(rest[1:])
		n, err := strconv.Atoi(args)
		if err != nil {
			return d, false
		}
		switch name {
		case "group":
			d.group = n
		case "binding":
			d.binding = n
		}
		rest = strings.TrimSpace(rest)
	}
	if d.group < 0 || d.binding < 0 {
		return d, false
	}

	rest, ok := strings.CutPrefix(rest, "var")
	if !ok {
		return d, false
	}
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "<") {
		closing := strings.IndexByte(rest, '>')
		if closing < 0 {
			return d, false
		}
		d.space = compactType(rest[1:closing])
		rest = rest[closing+1:]
	}

	m, ok := parseMember(rest)
	if !ok {
		return d, false
	}
	d.name, d.typ = m.name, m.typ
	return d, true
}

// fnParams returns the parameters of the function called name, or nil when src does not
// declare it.
func fnParams(src, name string) []wgslMember {
	re := regexp.MustCompile(`\bfn\s+` + regexp.QuoteMeta(name) + `\s*\(`)
	loc := re.FindStringIndex(src)
	if loc == nil {
		return nil
	}
	depth := 1
	end := loc[1]
	for ; end < len(src) && depth > 0; end++ {
		switch src[end] {
		case '(':
			depth++
		case ')':
			depth--
		}
	}
	if depth != 0 {
		return nil
	}

	var params []wgslMember
	for _, decl := range splitList(src[loc[1] : end-1]) {
		if m, ok := parseMember(decl); ok {
			params = append(params, m)
		}
	}
	return params
}
