package profiles

// DefaultAvatar is used for new profiles
const DefaultAvatar = "😀"

var avatars = []string{"😀", "😎", "🐱", "🐶", "🦊", "🐼", "🐸", "🦄", "🐙", "🌵", "🍕", "🚀"}

// Avatars returns the selectable avatar symbols in display order
func Avatars() []string {
	return append([]string(nil), avatars...)
}

// IsAvatar reports whether symbol is a selectable avatar
func IsAvatar(symbol string) bool {
	for _, a := range avatars {
		if a == symbol {
			return true
		}
	}
	return false
}
