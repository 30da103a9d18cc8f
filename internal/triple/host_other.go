//go:build !unix

package triple

// Host detection is only implemented via uname; other platforms use the
// build triple.
func detectHost() (TargetTriple, bool) {
	return "", false
}
