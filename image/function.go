package image

// FunctionInfo is a single parsed function record: the mandatory Symbol
// directive's fields plus every other directive encountered and the raw
// code bytes that followed them.
type FunctionInfo struct {
	NameIndex  uint32
	Directives []Directive // excludes the leading Symbol directive
	Code       []byte
}

// HasDirective reports whether kind appears anywhere in Directives.
func (f *FunctionInfo) HasDirective(kind DirectiveKind) bool {
	for _, d := range f.Directives {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
