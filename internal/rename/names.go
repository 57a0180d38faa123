package rename

import "strings"

// reservedWords are ECMAScript keywords and literals that cannot be used as
// identifiers. A suggested name that lands here gets a leading underscore.
var reservedWords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "enum": true, "export": true,
	"extends": true, "false": true, "finally": true, "for": true,
	"function": true, "if": true, "implements": true, "import": true,
	"in": true, "instanceof": true, "interface": true, "let": true,
	"new": true, "null": true, "package": true, "private": true,
	"protected": true, "public": true, "return": true, "static": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true,
}

// builtinGlobals are Web/Node globals a rename must never collide with.
var builtinGlobals = map[string]bool{
	"Array": true, "ArrayBuffer": true, "Boolean": true, "Buffer": true,
	"DataView": true, "Date": true, "Error": true, "EvalError": true,
	"Function": true, "Infinity": true, "Intl": true, "JSON": true,
	"Map": true, "Math": true, "NaN": true, "Number": true, "Object": true,
	"Promise": true, "Proxy": true, "RangeError": true, "ReferenceError": true,
	"Reflect": true, "RegExp": true, "Set": true, "String": true,
	"Symbol": true, "SyntaxError": true, "TypeError": true, "URIError": true,
	"URL": true, "URLSearchParams": true, "WeakMap": true, "WeakSet": true,
	"XMLHttpRequest": true, "__dirname": true, "__filename": true,
	"alert": true, "arguments": true, "atob": true, "btoa": true,
	"clearInterval": true, "clearTimeout": true, "console": true,
	"crypto": true, "decodeURI": true, "decodeURIComponent": true,
	"document": true, "encodeURI": true, "encodeURIComponent": true,
	"eval": true, "exports": true, "fetch": true, "global": true,
	"globalThis": true, "history": true, "isFinite": true, "isNaN": true,
	"localStorage": true, "location": true, "module": true, "navigator": true,
	"parseFloat": true, "parseInt": true, "process": true, "queueMicrotask": true,
	"require": true, "self": true, "sessionStorage": true, "setImmediate": true,
	"setInterval": true, "setTimeout": true, "structuredClone": true,
	"undefined": true, "window": true,
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

// normalizeIdentifier turns an arbitrary visitor suggestion into a legal
// identifier: surrounding whitespace is trimmed, invalid characters are
// stripped, a leading digit or a reserved word gets a leading underscore.
// Returns "" when nothing usable remains, which callers treat as
// "leave this binding alone".
func normalizeIdentifier(s string) string {
	s = strings.TrimSpace(s)
	var sb strings.Builder
	for _, r := range s {
		if isIdentPart(r) {
			sb.WriteRune(r)
		}
	}
	out := sb.String()
	if out == "" {
		return ""
	}
	if !isIdentStart(rune(out[0])) {
		out = "_" + out
	}
	if reservedWords[out] {
		out = "_" + out
	}
	return out
}

// nextVariant applies the deterministic disambiguation rule: a name ending in
// digits d becomes the same name ending in d+1; otherwise "1" is appended.
// foo -> foo1 -> foo2 -> ...
func nextVariant(name string) string {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	stem, digits := name[:i], name[i:]
	if digits == "" {
		return stem + "1"
	}
	return stem + incrementDecimal(digits)
}

// incrementDecimal adds one to a non-empty decimal string without overflow.
func incrementDecimal(d string) string {
	b := []byte(d)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}
