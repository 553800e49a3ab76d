package coursegen

import "regexp"

var (
	jsonFence  = regexp.MustCompile("(?s)```json\\n(.*?)```")
	plainFence = regexp.MustCompile("(?s)```\\n(.*?)```")
)

// StripCodeFence returns the body of the first ```json or bare ``` block in
// s, or s unchanged when there is none.
func StripCodeFence(s string) string {
	if m := jsonFence.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := plainFence.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
